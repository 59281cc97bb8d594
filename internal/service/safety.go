package service

import (
	"context"
	"fmt"
	"time"

	"jacuzzi_controller/internal/config"
	"jacuzzi_controller/internal/logger"
	"jacuzzi_controller/internal/models"
	"jacuzzi_controller/internal/repository"
)

// MaxTempC is the hard over-temperature cutoff. At or above it both
// actuators are forced off regardless of timers or commands.
const MaxTempC = 41.0

// SafetyService evaluates each telemetry tick against the interlock and the
// scheduled shutdown timer, and writes the resulting state back to the cloud.
type SafetyService struct {
	cloud  repository.DeviceCloud
	events repository.EventRepo
	timers config.Timers
	locks  *deviceLocks
	log    *logger.Logger
}

func NewSafetyService(cloud repository.DeviceCloud, events repository.EventRepo, timers config.Timers, locks *deviceLocks, log *logger.Logger) *SafetyService {
	return &SafetyService{cloud: cloud, events: events, timers: timers, locks: locks, log: log}
}

// HandleTelemetry runs one safety cycle for the device. When the state read
// fails the cycle is skipped entirely; the next tick re-evaluates. The
// interlock and the scheduled shutdown are independent checks, both applied
// in the same pass.
func (s *SafetyService) HandleTelemetry(ctx context.Context, deviceID string) error {
	unlock := s.locks.Lock(deviceID)
	defer unlock()

	st, err := s.cloud.GetState(ctx, deviceID)
	if err != nil {
		return fmt.Errorf("telemetry cycle skipped: %w", err)
	}

	if st.Temp >= MaxTempC {
		s.emergencyShutdown(ctx, deviceID, st)
	}

	if st.Bubbles && st.HasShutdownTimer() && !time.Now().Before(st.BubblesShutdown) {
		s.runStagedShutdown(ctx, deviceID, st)
	}
	return nil
}

// emergencyShutdown forces both actuators off. Unconditional: it bypasses
// the staged sequence because the heater must not stay on another grace
// interval at this temperature.
func (s *SafetyService) emergencyShutdown(ctx context.Context, deviceID string, st models.DeviceState) {
	s.log.Errorw("emergency shutdown: over temperature", "device_id", deviceID, "temp", st.Temp, "max", MaxTempC)
	s.set(ctx, deviceID, models.PathHeater, models.FormatBool(false))
	s.set(ctx, deviceID, models.PathBubbles, models.FormatBool(false))
	s.append(ctx, models.ControlEvent{
		DeviceID:    deviceID,
		Type:        models.EventEmergency,
		Description: "Over-temperature shutdown",
		Metadata:    map[string]any{"temp": st.Temp, "max_temp": MaxTempC},
	})
}

// runStagedShutdown performs one phase of the heater-then-bubbles sequence.
// Heater still on: turn it off and push the timer out by the grace interval,
// so bubbles keep circulating water past the element. Heater already off:
// turn bubbles off, drop the timer and end any cleaning cycle.
func (s *SafetyService) runStagedShutdown(ctx context.Context, deviceID string, st models.DeviceState) {
	if st.Heater {
		s.log.Infow("staged shutdown: heater off first", "device_id", deviceID)
		s.set(ctx, deviceID, models.PathHeater, models.FormatBool(false))
		next := time.Now().Add(s.timers.BubblesGrace)
		s.set(ctx, deviceID, models.PathBubblesShutdown, models.FormatMillis(next))
		s.append(ctx, models.ControlEvent{
			DeviceID:    deviceID,
			Type:        models.EventShutdownStaged,
			Description: "Heater off, bubbles rescheduled",
			Metadata:    map[string]any{"bubbles_shutdown": next.UnixMilli()},
		})
		return
	}

	s.log.Infow("staged shutdown: bubbles off", "device_id", deviceID)
	s.set(ctx, deviceID, models.PathBubbles, models.FormatBool(false))
	if err := s.cloud.DeleteState(ctx, deviceID, models.PathBubblesShutdown); err != nil {
		s.log.Errorw("delete shutdown timer failed", "device_id", deviceID, "err", err)
	}
	s.set(ctx, deviceID, models.PathClean, models.FormatBool(false))
	s.append(ctx, models.ControlEvent{
		DeviceID:    deviceID,
		Type:        models.EventShutdownComplete,
		Description: "Bubbles off, shutdown cycle complete",
	})
}

// set writes one field, logging failures. A failed write is left for the
// next telemetry tick to retry naturally.
func (s *SafetyService) set(ctx context.Context, deviceID, path, value string) {
	if err := s.cloud.SetState(ctx, deviceID, path, value); err != nil {
		s.log.Errorw("state write failed", "device_id", deviceID, "path", path, "err", err)
	}
}

// append records an audit event best-effort; auditing never blocks safety.
func (s *SafetyService) append(ctx context.Context, e models.ControlEvent) {
	if err := s.events.Append(ctx, e); err != nil {
		s.log.Errorw("audit append failed", "device_id", e.DeviceID, "type", e.Type, "err", err)
	}
}
