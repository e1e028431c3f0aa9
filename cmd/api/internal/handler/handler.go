package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wmorato/ZapSign/cmd/api/internal/services"
	"github.com/wmorato/ZapSign/pkg/zapsign"
	"gorm.io/gorm"
)

// respondError maps service errors onto HTTP status codes. Provider
// errors keep their normalized detail; everything else gets its own
// message, never a stack trace.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, services.ErrPDFSourceRequired),
		errors.Is(err, services.ErrSyncUnavailable),
		errors.Is(err, services.ErrSignedFileUnavailable),
		errors.Is(err, services.ErrAnalysisSourceRequired),
		errors.Is(err, services.ErrNoCredential):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		var apiErr *zapsign.APIError
		if errors.As(err, &apiErr) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "provider request failed: " + apiErr.Detail})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return uuid.Nil, false
	}
	return id, true
}
