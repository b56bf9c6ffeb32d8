package handlers

import (
	"errors"
	"net/http"

	"incubator_console/internal/models"
	"incubator_console/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errListDevices    = "failed to load devices"
	errGetDevice      = "failed to load device"
	errGetTelemetry   = "failed to load telemetry history"
	errGetStats       = "failed to load stats"
	errSendCommand    = "failed to send command"
	errUpdateSettings = "failed to update settings"
	errAnalyze        = "analysis failed"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// cmdRequest mirrors the backend command envelope; only the boolean state
// param is accepted here, SET_CONFIG goes through the settings route.
type cmdRequest struct {
	Cmd    string `json:"cmd" binding:"required"`
	Params struct {
		State bool `json:"state"`
	} `json:"params"`
}

// @Summary      List devices with derived liveness
// @Tags         devices
// @Produce      json
// @Success      200  {array}   service.DeviceView
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/devices [get]
func (h *Handler) listDevices(c *gin.Context) {
	views, err := h.services.Devices.List(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errListDevices, "device_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// @Summary      Device detail (cached)
// @Tags         devices
// @Produce      json
// @Success      200  {object}  service.DeviceView
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/devices/{id} [get]
func (h *Handler) getDevice(c *gin.Context) {
	id := c.Param("id")
	view, err := h.services.Devices.Get(c.Request.Context(), id)
	if err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errGetDevice, "device_get_failed", err, "device", id)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary      Telemetry history as a chart-ready series
// @Tags         devices
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "ready, points"
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/devices/{id}/telemetry [get]
func (h *Handler) getTelemetry(c *gin.Context) {
	id := c.Param("id")
	series, ready, err := h.services.History.Series(c.Request.Context(), id)
	if err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errGetTelemetry, "telemetry_failed", err, "device", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": ready, "points": series.Points})
}

// @Summary      Current-day stats
// @Tags         devices
// @Produce      json
// @Success      200  {object}  models.DeviceStats
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/devices/{id}/stats [get]
func (h *Handler) getStats(c *gin.Context) {
	id := c.Param("id")
	stats, err := h.services.Devices.Stats(c.Request.Context(), id)
	if err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errGetStats, "stats_failed", err, "device", id)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// @Summary      Dispatch an actuator command
// @Description  Applies the optimistic projection, then confirms or rolls back.
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        body  body  cmdRequest  true  "Command payload"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/devices/{id}/cmd [post]
func (h *Handler) sendCommand(c *gin.Context) {
	id := c.Param("id")
	var req cmdRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	err := h.services.Commands.Send(c.Request.Context(), id, req.Cmd, req.Params.State)
	if err != nil {
		if errors.Is(err, service.ErrUnknownCommand) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		// Rolled back; the operator must re-trigger.
		h.logAndJSONError(c, http.StatusBadGateway, errSendCommand, "command_failed", err,
			"device", id, "cmd", req.Cmd)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "confirmed", "cmd": req.Cmd})
}

// @Summary      Update configuration thresholds (two-phase)
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        body  body  models.DeviceConfig  true  "Configuration"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/devices/{id}/settings [put]
func (h *Handler) updateSettings(c *gin.Context) {
	id := c.Param("id")
	var cfg models.DeviceConfig
	if ok := h.bindJSONOrBadRequest(c, &cfg); !ok {
		return
	}

	err := h.services.Commands.UpdateSettings(c.Request.Context(), id, cfg)
	if err != nil {
		if errors.Is(err, service.ErrInvalidConfig) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		// Either phase failed; the settings dialog stays open for retry.
		h.logAndJSONError(c, http.StatusBadGateway, errUpdateSettings, "settings_failed", err, "device", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// @Summary      Run the external health analysis
// @Tags         devices
// @Produce      json
// @Success      200  {object}  models.Analysis
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/devices/{id}/analyze [post]
func (h *Handler) analyze(c *gin.Context) {
	id := c.Param("id")
	analysis, err := h.services.Devices.Analyze(c.Request.Context(), id)
	if err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errAnalyze, "analyze_failed", err, "device", id)
		return
	}
	c.JSON(http.StatusOK, analysis)
}
