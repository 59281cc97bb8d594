package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"jacuzzi_controller/internal/models"
	"jacuzzi_controller/internal/repository"
)

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

var errInvalidTimeRange = errors.New("invalid time range: From must be <= To")

func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// List returns audit events matching the filter, oldest first.
func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.ControlEvent, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, errInvalidTimeRange
	}
	typ := strings.TrimSpace(strings.ToUpper(f.Type))
	return s.eventRepo.List(ctx, from, to, typ, strings.TrimSpace(f.DeviceID))
}
