package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Device is a cloud-provisioned unit. The name is a composite
// "<tag>|<displayName>"; the tag is the stable short identifier users type.
type Device struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Tag returns the first segment of the composite name.
func (d Device) Tag() string {
	return strings.SplitN(d.Name, "|", 2)[0]
}

// DisplayName returns the human-facing part of the composite name,
// falling back to the tag when no separator is present.
func (d Device) DisplayName() string {
	parts := strings.SplitN(d.Name, "|", 2)
	if len(parts) == 2 {
		return parts[1]
	}
	return parts[0]
}

// DeviceState is the typed snapshot of a device's LightDB fields.
// The remote store is untyped; parsing and serialization happen here so
// everything above this boundary works with real types.
type DeviceState struct {
	Active          bool          `json:"active"`
	Clean           bool          `json:"clean"`
	Bubbles         bool          `json:"bubbles"`
	Heater          bool          `json:"heater"`
	LevelSensor     int           `json:"level_sensor"`
	CanBubbles      int           `json:"can_active_bubbles"`
	CanHeater       int           `json:"can_active_heater"`
	Temp            float64       `json:"temp"`
	TempTarget      float64       `json:"temp_target"`
	BubblesShutdown time.Time     `json:"bubbles_shutdown"` // zero means no timer pending
	ShutdownUsers   time.Duration `json:"shutdown_users"`   // zero means use the default
}

// MarshalJSON emits the timer fields in the store's encoding: epoch
// milliseconds for the shutdown timestamp (omitted while no timer is
// pending) and plain milliseconds for the auto-off override.
func (s DeviceState) MarshalJSON() ([]byte, error) {
	type plain DeviceState
	out := struct {
		plain
		BubblesShutdown int64 `json:"bubbles_shutdown,omitempty"`
		ShutdownUsers   int64 `json:"shutdown_users,omitempty"`
	}{
		plain:         plain(s),
		ShutdownUsers: s.ShutdownUsers.Milliseconds(),
	}
	if !s.BubblesShutdown.IsZero() {
		out.BubblesShutdown = s.BubblesShutdown.UnixMilli()
	}
	return json.Marshal(out)
}

// HasShutdownTimer reports whether a shutdown evaluation is scheduled.
func (s DeviceState) HasShutdownTimer() bool {
	return !s.BubblesShutdown.IsZero()
}

// DeviceFlags are the derived booleans the dispatcher and status report use.
type DeviceFlags struct {
	Active        bool `json:"active"`
	On            bool `json:"on"`
	BubblesActive bool `json:"bubbles_active"`
	HeaterActive  bool `json:"heater_active"`
}

// Remote field paths. Every write targets one of these.
const (
	PathActive          = "active"
	PathClean           = "clean"
	PathBubbles         = "bubbles"
	PathHeater          = "heater"
	PathTempTarget      = "temp_target"
	PathBubblesShutdown = "bubbles_shutdown"
)

// ParseDeviceState builds a typed snapshot from the raw LightDB data map.
// The firmware and the web console write fields in mixed encodings (real
// booleans, "true"/"1" strings, JSON numbers), so every field is parsed
// leniently; absent or unparseable fields keep their zero value.
func ParseDeviceState(raw map[string]any) DeviceState {
	var s DeviceState
	s.Active = parseBool(raw["active"])
	s.Clean = parseBool(raw["clean"])
	s.Bubbles = parseBool(raw["bubbles"])
	s.Heater = parseBool(raw["heater"])
	s.LevelSensor = parseInt(raw["level_sensor"])
	s.CanBubbles = parseInt(raw["can_active_bubbles"])
	s.CanHeater = parseInt(raw["can_active_heater"])
	s.Temp = parseFloat(raw["temp"])
	s.TempTarget = parseFloat(raw["temp_target"])
	if ms := parseInt64(raw["bubbles_shutdown"]); ms > 0 {
		s.BubblesShutdown = time.UnixMilli(ms).UTC()
	}
	if ms := parseInt64(raw["shutdown_users"]); ms > 0 {
		s.ShutdownUsers = time.Duration(ms) * time.Millisecond
	}
	return s
}

// FormatBool serializes a boolean the way the store expects ("true"/"false").
func FormatBool(v bool) string {
	return strconv.FormatBool(v)
}

// FormatMillis serializes a timestamp as a decimal epoch-millisecond string.
func FormatMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// FormatFloat serializes a float without trailing zero noise.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true" || t == "1"
	case float64:
		return t != 0
	}
	return false
}

func parseInt(v any) int {
	return int(parseInt64(v))
}

func parseInt64(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case int:
		return int64(t)
	case int64:
		return t
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
			return n
		}
	case bool:
		if t {
			return 1
		}
	}
	return 0
}

func parseFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f
		}
	}
	return 0
}
