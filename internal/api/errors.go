package api

import (
	"alcyxob/sports-academy/internal/service"
	"alcyxob/sports-academy/internal/state"
	"alcyxob/sports-academy/internal/storage"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondError maps service and store errors to HTTP status codes.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, state.ErrRecordNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrValidationFailed),
		errors.Is(err, state.ErrInvalidRecord),
		errors.Is(err, service.ErrInvalidMediaType),
		errors.Is(err, service.ErrEmptyQuestion):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, state.ErrDuplicateID),
		errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, service.ErrAlreadyPublished):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, storage.ErrDisabled):
		abortWithError(c, http.StatusServiceUnavailable, err.Error())
	default:
		_ = c.Error(err)
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
