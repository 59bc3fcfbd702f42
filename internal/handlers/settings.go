package handlers

import (
	"net/http"

	"fan_controller/internal/models"
	"fan_controller/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errGetSettings     = "failed to load settings"
	errUpdateSettings  = "failed to store settings"
	errUpdateRetention = "failed to store retention policy"
)

// RetentionResponse describes the active retention policy.
type RetentionResponse struct {
	RetentionDays int   `json:"retention_days" example:"30"`
	Allowed       []int `json:"allowed"`
}

// RetentionRequest is the body of PUT /api/settings/retention.
type RetentionRequest struct {
	RetentionDays int `json:"retention_days" binding:"required" example:"90"`
}

// @Summary      Get controller settings
// @Description  The stored password is returned as ******.
// @Tags         settings
// @Produce      json
// @Success      200  {object}  models.ControlConfig
// @Failure      500  {object}  map[string]string
// @Router       /api/settings [get]
func (h *Handler) getSettings(c *gin.Context) {
	cfg, err := h.services.Settings.GetSettings(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetSettings, "settings_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// @Summary      Update controller settings
// @Description  Partial update; omitted fields keep their value. interval must be 5..300 seconds.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body   service.SettingsUpdate  true  "Fields to change"
// @Success      200   {object}  map[string]bool
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/settings [put]
func (h *Handler) putSettings(c *gin.Context) {
	var req service.SettingsUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.services.Settings.UpdateSettings(c.Request.Context(), req); err != nil {
		h.serviceError(c, errUpdateSettings, "settings_update_failed", err)
		return
	}
	success(c)
}

// @Summary      Get retention policy
// @Tags         settings
// @Produce      json
// @Success      200  {object}  RetentionResponse
// @Router       /api/settings/retention [get]
func (h *Handler) getRetention(c *gin.Context) {
	c.JSON(http.StatusOK, RetentionResponse{
		RetentionDays: h.services.Retention.RetentionDays(),
		Allowed:       models.AllowedRetentionDays,
	})
}

// @Summary      Update retention policy
// @Description  Applies from the next daily cleanup.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body   RetentionRequest  true  "Retention in days"  Enums(7,30,90,365)
// @Success      200   {object}  map[string]bool
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/settings/retention [put]
func (h *Handler) putRetention(c *gin.Context) {
	var req RetentionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.services.Retention.SetRetentionDays(c.Request.Context(), req.RetentionDays); err != nil {
		h.serviceError(c, errUpdateRetention, "retention_update_failed", err)
		return
	}
	success(c)
}
