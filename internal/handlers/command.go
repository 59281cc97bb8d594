package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"jacuzzi_controller/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errDeviceNotFound = "device not found"
	errDispatch       = "failed to execute command"
)

// @Summary      Execute a chat command
// @Description  Resolves the device by tag and executes the numbered command (1-9, digit or emoji-digit). Without a command, or with unrecognized text, returns the status report.
// @Tags         device
// @Produce      json
// @Param        deviceTag  path   string  true   "Device tag (first segment of the composite name)"
// @Param        command    path   string  false  "Numbered command 1-9"
// @Param        temp       query  number  false  "Target temperature (command 2)"
// @Param        isAdmin    query  bool    false  "Caller is an administrator"
// @Success      200  {object}  service.CommandReply
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /device/{deviceTag}/{command} [get]
func (h *Handler) deviceCommand(c *gin.Context) {
	cmd := service.ParseCommand(c.Param("command"))

	params := service.CommandParams{
		DeviceTag: c.Param("deviceTag"),
		Command:   cmd,
		IsAdmin:   parseBoolish(c.Query("isAdmin")),
	}
	if q := c.Query("temp"); q != "" {
		if t, err := strconv.ParseFloat(q, 64); err == nil {
			params.Temp = t
			params.TempSet = true
		}
	}

	reply, err := h.services.Commands.Dispatch(c.Request.Context(), params)
	if err != nil {
		if errors.Is(err, service.ErrDeviceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errDeviceNotFound})
			return
		}
		h.logAndJSONError(c, http.StatusBadGateway, errDispatch, "command_dispatch_failed", err,
			"device_tag", params.DeviceTag, "command", cmd)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// parseBoolish accepts the loose truthy forms chat transports send.
func parseBoolish(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
