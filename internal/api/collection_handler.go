package api

import (
	"alcyxob/sports-academy/internal/domain"
	"alcyxob/sports-academy/internal/state"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type idSetter interface {
	SetID(id string)
}

// CollectionHandler serves plain CRUD for one collection of the state store.
// Create and delete can be routed through a service when they carry rules.
type CollectionHandler[T domain.Record] struct {
	coll   *state.Collection[T]
	create func(ctx context.Context, item T) (T, error)
	remove func(ctx context.Context, id string) error
}

func NewCollectionHandler[T domain.Record](coll *state.Collection[T]) *CollectionHandler[T] {
	h := &CollectionHandler[T]{coll: coll}
	h.create = func(_ context.Context, item T) (T, error) { return coll.Add(item) }
	h.remove = func(_ context.Context, id string) error {
		_, err := coll.Remove(id)
		return err
	}
	return h
}

func (h *CollectionHandler[T]) WithCreate(fn func(ctx context.Context, item T) (T, error)) *CollectionHandler[T] {
	h.create = fn
	return h
}

func (h *CollectionHandler[T]) WithDelete(fn func(ctx context.Context, id string) error) *CollectionHandler[T] {
	h.remove = fn
	return h
}

// Register mounts GET|POST on the group root and GET|PUT|DELETE on /:id.
func (h *CollectionHandler[T]) Register(group *gin.RouterGroup) {
	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
}

func (h *CollectionHandler[T]) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.coll.All())
}

func (h *CollectionHandler[T]) Get(c *gin.Context) {
	item, err := h.coll.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *CollectionHandler[T]) Create(c *gin.Context) {
	var item T
	if err := c.ShouldBindJSON(&item); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	created, err := h.create(c.Request.Context(), item)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Update replaces the record; the id in the path wins over the body.
func (h *CollectionHandler[T]) Update(c *gin.Context) {
	var item T
	if err := c.ShouldBindJSON(&item); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if s, ok := any(&item).(idSetter); ok {
		s.SetID(c.Param("id"))
	}
	updated, err := h.coll.Update(item)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *CollectionHandler[T]) Delete(c *gin.Context) {
	if err := h.remove(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
