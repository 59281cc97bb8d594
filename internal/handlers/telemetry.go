package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// telemetryPath is the only push path that drives the safety engine.
// Devices also push "counter" and raw sensor paths; those are ignored.
const telemetryPath = "millis"

// telemetryRequest is the device-cloud webhook body.
type telemetryRequest struct {
	Path     string `json:"path"`
	DeviceID string `json:"device_id"`
	Data     any    `json:"data,omitempty"`
}

// @Summary      Telemetry push webhook
// @Description  Receives device-cloud push events. Only path "millis" triggers a safety cycle; everything else is acknowledged and ignored.
// @Tags         telemetry
// @Accept       json
// @Produce      plain
// @Param        body  body  telemetryRequest  true  "Push event"
// @Success      200  {string}  string  "ok"
// @Failure      400  {object}  map[string]string
// @Router       /data [post]
func (h *Handler) telemetry(c *gin.Context) {
	var req telemetryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}

	if req.Path == telemetryPath && req.DeviceID != "" {
		// Failures here are logged only; the cloud must not retry the push,
		// the next tick re-evaluates anyway.
		if err := h.services.Safety.HandleTelemetry(c.Request.Context(), req.DeviceID); err != nil {
			if h.log != nil {
				h.log.Errorw("telemetry_cycle_failed", "device_id", req.DeviceID, "err", err)
			}
		}
	}

	c.Header("Connection", "close")
	c.String(http.StatusOK, "ok")
}
