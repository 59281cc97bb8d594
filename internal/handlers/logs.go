package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"jacuzzi_controller/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errFromInvalid = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid   = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

// isDateOnly reports whether the query string has no time component.
func isDateOnly(s string) bool {
	return !strings.ContainsAny(s, "T ")
}

// @Summary      List control events
// @Description  Filter audit events by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'), type and device. A date-only 'to' is treated as end-of-day inclusive.
// @Tags         logs
// @Produce      json
// @Param        from       query   string  false  "Start of range"  example(2026-08-01)
// @Param        to         query   string  false  "End of range; date-only treated as end of day"  example(2026-08-31)
// @Param        type       query   string  false  "Event type"  Enums(COMMAND,EMERGENCY,SHUTDOWN_STAGED,SHUTDOWN_COMPLETE)
// @Param        device_id  query   string  false  "Device id"
// @Success      200   {object}  map[string]interface{}  "count, events"
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /logs [get]
func (h *Handler) getLogs(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		from, to time.Time
		err      error
	)
	if qs := c.Query("from"); qs != "" {
		from, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errFromInvalid})
			return
		}
	}
	if qs := c.Query("to"); qs != "" {
		to, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errToInvalid})
			return
		}
		if isDateOnly(qs) {
			to = to.Add(24*time.Hour - time.Nanosecond).UTC()
		}
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'from' must be <= 'to'"})
		return
	}

	events, err := h.services.EventLog.List(ctx, service.LogFilter{
		From:     from,
		To:       to,
		Type:     strings.ToUpper(strings.TrimSpace(c.Query("type"))),
		DeviceID: c.Query("device_id"),
	})
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load logs", "logs_list_failed", err,
			"from", from, "to", to)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}

func parseQueryTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time format %q", s)
}
