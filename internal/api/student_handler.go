package api

import (
	"alcyxob/sports-academy/internal/domain"
	"alcyxob/sports-academy/internal/service"
	"alcyxob/sports-academy/internal/state"
	"net/http"

	"github.com/gin-gonic/gin"
)

// StudentHandler serves the roster and the parent portal.
type StudentHandler struct {
	roster   service.RosterService
	sessions *state.Collection[domain.TrainingSession]
}

func NewStudentHandler(roster service.RosterService, store *state.Store) *StudentHandler {
	return &StudentHandler{roster: roster, sessions: store.Sessions()}
}

// StudentResponse never carries the parent password hash.
type StudentResponse struct {
	domain.Student
	HasPortalAccess bool `json:"hasPortalAccess"`
}

func MapStudentToResponse(st domain.Student) StudentResponse {
	resp := StudentResponse{Student: st, HasPortalAccess: st.ParentPasswordHash != ""}
	resp.ParentPasswordHash = ""
	return resp
}

func MapStudentsToResponse(students []domain.Student) []StudentResponse {
	out := make([]StudentResponse, len(students))
	for i, st := range students {
		out[i] = MapStudentToResponse(st)
	}
	return out
}

// ParentView is what a logged-in parent sees: their child and the child's
// training schedule. Contact and credential fields are left out.
type ParentView struct {
	ID        string                   `json:"id"`
	Name      string                   `json:"name"`
	Sport     string                   `json:"sport"`
	Branch    string                   `json:"branch,omitempty"`
	Group     string                   `json:"group,omitempty"`
	Status    domain.StudentStatus     `json:"status"`
	FeeStatus domain.FeeStatus         `json:"feeStatus"`
	Stats     map[string]float64       `json:"stats,omitempty"`
	Sessions  []domain.TrainingSession `json:"sessions"`
}

func (h *StudentHandler) Register(group *gin.RouterGroup) {
	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
}

func (h *StudentHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, MapStudentsToResponse(h.roster.ListStudents(c.Request.Context())))
}

func (h *StudentHandler) Get(c *gin.Context) {
	st, err := h.roster.GetStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapStudentToResponse(st))
}

func (h *StudentHandler) Create(c *gin.Context) {
	var req service.StudentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	st, err := h.roster.CreateStudent(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapStudentToResponse(st))
}

func (h *StudentHandler) Update(c *gin.Context) {
	var req service.StudentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	st, err := h.roster.UpdateStudent(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapStudentToResponse(st))
}

func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.roster.DeleteStudent(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ParentStudent returns the student bound to the parent's token.
func (h *StudentHandler) ParentStudent(c *gin.Context) {
	studentID, err := getStudentIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusForbidden, "Token is not linked to a student")
		return
	}
	st, err := h.roster.GetStudent(c.Request.Context(), studentID)
	if err != nil {
		respondError(c, err)
		return
	}

	view := ParentView{
		ID:        st.ID,
		Name:      st.Name,
		Sport:     st.Sport,
		Branch:    st.Branch,
		Group:     st.Group,
		Status:    st.Status,
		FeeStatus: st.FeeStatus,
		Stats:     st.Stats,
		Sessions:  []domain.TrainingSession{},
	}
	if st.Group != "" {
		for _, s := range h.sessions.All() {
			if s.Group == st.Group {
				view.Sessions = append(view.Sessions, s)
			}
		}
	}
	c.JSON(http.StatusOK, view)
}
