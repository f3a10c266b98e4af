package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-messaging/internal/models"
)

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"success": false, "error": gin.H{"code": code, "message": message}})
}

// respondErr maps sentinel errors onto statuses; anything unrecognized is an
// internal error reported with fallback.
func respondErr(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, models.ErrMemberProfileNotFound):
		respondError(c, http.StatusBadRequest, models.CodeMemberProfileNotFound, "create a buyer profile before messaging sellers")
	case errors.Is(err, models.ErrNotFound):
		respondError(c, http.StatusNotFound, models.CodeNotFound, err.Error())
	case errors.Is(err, models.ErrUnauthorized):
		respondError(c, http.StatusUnauthorized, models.CodeUnauthorized, err.Error())
	case errors.Is(err, models.ErrForbidden):
		respondError(c, http.StatusForbidden, models.CodeForbidden, err.Error())
	case errors.Is(err, models.ErrInvalidRequest):
		respondError(c, http.StatusBadRequest, models.CodeInvalidRequest, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, models.CodeInternal, fallback)
	}
}

func badRequest(c *gin.Context, message string) {
	respondError(c, http.StatusBadRequest, models.CodeInvalidRequest, message)
}

func forbidden(c *gin.Context, message string) {
	respondError(c, http.StatusForbidden, models.CodeForbidden, message)
}
