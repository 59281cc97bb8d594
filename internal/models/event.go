package models

import "time"

// Control-event types appended by the safety engine and the dispatcher.
const (
	EventCommand          = "COMMAND"
	EventEmergency        = "EMERGENCY"
	EventShutdownStaged   = "SHUTDOWN_STAGED"
	EventShutdownComplete = "SHUTDOWN_COMPLETE"
)

// ControlEvent is a single audit log entry. The controller only ever
// appends these; decisions are always taken from the remote store.
type ControlEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	DeviceID    string    `json:"device_id"`
	Type        string    `json:"type"`        // COMMAND | EMERGENCY | SHUTDOWN_STAGED | SHUTDOWN_COMPLETE
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
