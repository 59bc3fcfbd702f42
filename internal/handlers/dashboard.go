package handlers

import (
	"net/http"

	"fan_controller/internal/models"
	"fan_controller/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	errGetHistory  = "failed to load history"
	errRestoreAuto = "failed to restore automatic fan control"
)

// HistoryResponse wraps the readings of a history window.
type HistoryResponse struct {
	Data []models.TelemetryReading `json:"data"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Current status
// @Description  Latest temperature, applied fan speed, power draw and control mode.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  models.Status
// @Router       /api/dashboard/status [get]
func (h *Handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Dashboard.Status())
}

// @Summary      Telemetry history
// @Tags         dashboard
// @Produce      json
// @Param        range  query   string  false  "Lookback window"  Enums(1h,6h,24h,7d)  default(1h)
// @Success      200    {object}  HistoryResponse
// @Failure      500    {object}  map[string]string
// @Router       /api/dashboard/history [get]
func (h *Handler) getHistory(c *gin.Context) {
	rangeKey := c.DefaultQuery("range", service.DefaultHistoryRange)
	readings, err := h.services.Dashboard.History(c.Request.Context(), rangeKey)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetHistory, "history_query_failed", err, "range", rangeKey)
		return
	}
	if readings == nil {
		readings = []models.TelemetryReading{}
	}
	c.JSON(http.StatusOK, HistoryResponse{Data: readings})
}

// @Summary      Restore automatic fan control
// @Description  Hands fan control back to the iDRAC until the next settings change.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  map[string]bool
// @Failure      500  {object}  map[string]string
// @Router       /api/dashboard/restore-auto [post]
func (h *Handler) restoreAuto(c *gin.Context) {
	if err := h.services.Dashboard.RestoreAutoControl(c.Request.Context()); err != nil {
		h.serviceError(c, errRestoreAuto, "restore_auto_failed", err)
		return
	}
	success(c)
}
