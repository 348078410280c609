package api

import (
	"alcyxob/sports-academy/internal/service"
	"alcyxob/sports-academy/internal/syncer"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SyncController is the part of the sync coordinator exposed over HTTP.
type SyncController interface {
	Status() syncer.Status
	Flush(ctx context.Context) syncer.Result
}

type SyncHandler struct {
	sync SyncController
}

func NewSyncHandler(sync SyncController) *SyncHandler {
	return &SyncHandler{sync: sync}
}

// SyncResultResponse is a flushed pass as reported to the back office.
type SyncResultResponse struct {
	PassID      string   `json:"passId"`
	DurationMS  int64    `json:"durationMs"`
	LocalWrites int      `json:"localWrites"`
	Upserted    int      `json:"upserted"`
	Created     int      `json:"created"`
	Deleted     int      `json:"deleted"`
	Errors      []string `json:"errors,omitempty"`
}

func MapSyncResultToResponse(r syncer.Result) SyncResultResponse {
	resp := SyncResultResponse{
		PassID:      r.PassID,
		DurationMS:  r.Duration.Milliseconds(),
		LocalWrites: r.LocalWrites,
		Upserted:    r.Upserted,
		Created:     r.Created,
		Deleted:     r.Deleted,
	}
	for _, err := range append(append([]error{}, r.LocalErrors...), r.CloudErrors...) {
		resp.Errors = append(resp.Errors, err.Error())
	}
	return resp
}

func (h *SyncHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.sync.Status())
}

// Flush runs a pass now and waits for it. Cloud trouble is reported in the
// body; the request itself still succeeds.
func (h *SyncHandler) Flush(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Minute)
	defer cancel()
	c.JSON(http.StatusOK, MapSyncResultToResponse(h.sync.Flush(ctx)))
}

// AssistantHandler serves the management chat.
type AssistantHandler struct {
	assistant service.AssistantService
}

func NewAssistantHandler(assistant service.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistant: assistant}
}

type ChatRequest struct {
	Question string `json:"question" binding:"required"`
}

func (h *AssistantHandler) Context(c *gin.Context) {
	c.JSON(http.StatusOK, h.assistant.Context(c.Request.Context()))
}

func (h *AssistantHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	reply, err := h.assistant.Chat(c.Request.Context(), req.Question)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}
