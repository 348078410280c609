package api

import (
	"alcyxob/sports-academy/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AcademyHandler serves the workflow endpoints that sit next to plain CRUD:
// media approval and uploads, note triage and the finance summary.
type AcademyHandler struct {
	media   service.MediaService
	notes   service.NoteService
	finance service.FinanceService
}

func NewAcademyHandler(media service.MediaService, notes service.NoteService, finance service.FinanceService) *AcademyHandler {
	return &AcademyHandler{media: media, notes: notes, finance: finance}
}

type UploadURLRequest struct {
	Target      string `json:"target" binding:"omitempty,oneof=media trainers"`
	ContentType string `json:"contentType" binding:"required"`
}

func (h *AcademyHandler) PublishMedia(c *gin.Context) {
	post, err := h.media.Publish(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *AcademyHandler) RequestUploadURL(c *gin.Context) {
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if req.Target == "" {
		req.Target = service.UploadMedia
	}
	resp, err := h.media.RequestUploadURL(c.Request.Context(), req.Target, req.ContentType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AcademyHandler) MarkNoteRead(c *gin.Context) {
	note, err := h.notes.MarkRead(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

// FinanceSummary accepts an optional ?month=YYYY-MM filter.
func (h *AcademyHandler) FinanceSummary(c *gin.Context) {
	c.JSON(http.StatusOK, h.finance.Summary(c.Request.Context(), c.Query("month")))
}
