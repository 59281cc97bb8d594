package service

import (
	"context"
	"time"

	"jacuzzi_controller/internal/config"
	"jacuzzi_controller/internal/logger"
	"jacuzzi_controller/internal/models"
	"jacuzzi_controller/internal/repository"
)

// Safety reacts to telemetry ticks: over-temperature interlock and the
// staged heater-then-bubbles shutdown.
type Safety interface {
	HandleTelemetry(ctx context.Context, deviceID string) error
}

// Commands resolves a device tag and executes one numbered chat command.
type Commands interface {
	Dispatch(ctx context.Context, p CommandParams) (CommandReply, error)
}

// Monitoring exposes a typed read-only snapshot (flags + raw state).
type Monitoring interface {
	Status(ctx context.Context, deviceID string) (DeviceStatus, error)
}

// EventLog exposes the append-only audit log with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.ControlEvent, error)
}

// LogFilter narrows an audit query. Zero/empty fields mean "no bound".
type LogFilter struct {
	From     time.Time // inclusive
	To       time.Time // inclusive
	Type     string    // "", COMMAND, EMERGENCY, SHUTDOWN_STAGED, SHUTDOWN_COMPLETE
	DeviceID string
}

// Service aggregates all sub-services.
type Service struct {
	Safety
	Commands
	Monitoring
	EventLog
}

// NewService wires the repository layer into concrete services. The safety
// engine and the dispatcher share one lock registry so telemetry ticks and
// chat commands for the same device never interleave.
func NewService(repos *repository.Repository, cfg *config.Config, log *logger.Logger) *Service {
	locks := newDeviceLocks()
	return &Service{
		Safety:     NewSafetyService(repos.Cloud, repos.Events, cfg.Timers, locks, log),
		Commands:   NewCommandService(repos.Cloud, repos.Events, cfg.Timers, locks, log),
		Monitoring: NewMonitoringService(repos.Cloud),
		EventLog:   NewEventLogService(repos.Events),
	}
}
