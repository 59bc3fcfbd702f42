package handlers

import (
	"net/http"

	"fan_controller/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	errGetCurve    = "failed to load fan curve"
	errUpdateCurve = "failed to store fan curve"
)

// CurveRequest is both the body of PUT /api/curve and the GET response.
type CurveRequest struct {
	Points []models.CurvePoint `json:"points" binding:"required"`
}

// @Summary      Get fan curve
// @Tags         curve
// @Produce      json
// @Success      200  {object}  CurveRequest
// @Failure      500  {object}  map[string]string
// @Router       /api/curve [get]
func (h *Handler) getCurve(c *gin.Context) {
	points, err := h.services.Curve.GetCurve(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetCurve, "curve_get_failed", err)
		return
	}
	if points == nil {
		points = []models.CurvePoint{}
	}
	c.JSON(http.StatusOK, CurveRequest{Points: points})
}

// @Summary      Replace fan curve
// @Description  At least 2 points; temp and speed in 0..100; temperatures unique.
// @Tags         curve
// @Accept       json
// @Produce      json
// @Param        body  body   CurveRequest  true  "Curve points"
// @Success      200   {object}  map[string]bool
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/curve [put]
func (h *Handler) putCurve(c *gin.Context) {
	var req CurveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.services.Curve.ReplaceCurve(c.Request.Context(), req.Points); err != nil {
		h.serviceError(c, errUpdateCurve, "curve_update_failed", err)
		return
	}
	success(c)
}
