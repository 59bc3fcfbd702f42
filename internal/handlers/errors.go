package handlers

import (
	"errors"
	"net/http"

	"fan_controller/internal/models"
	"fan_controller/internal/service"

	"github.com/gin-gonic/gin"
)

const errInvalidBodyPref = "invalid body: "

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// serviceError maps validation failures to 400 and everything else to 500.
func (h *Handler) serviceError(c *gin.Context, userMsg, logKey string, err error) {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
	case errors.Is(err, service.ErrNotConfigured):
		h.logAndJSONError(c, http.StatusInternalServerError, err.Error(), logKey, err)
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, userMsg, logKey, err)
	}
}

func success(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}
