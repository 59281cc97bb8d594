package repository

import (
	"context"
	"database/sql"
	"time"

	"jacuzzi_controller/internal/config"
	"jacuzzi_controller/internal/models"
)

// DeviceCloud is the typed surface over the device-cloud LightDB API.
// Every call can fail (transport, auth, cloud-side); callers treat an error
// as "state unknown, skip this cycle" rather than retrying.
type DeviceCloud interface {
	ListDevices(ctx context.Context) ([]models.Device, error)
	GetState(ctx context.Context, deviceID string) (models.DeviceState, error)
	SetState(ctx context.Context, deviceID, path, value string) error
	DeleteState(ctx context.Context, deviceID, path string) error
}

// EventRepo is the append-only control-event audit log.
type EventRepo interface {
	Append(ctx context.Context, e models.ControlEvent) error
	List(ctx context.Context, from, to time.Time, typ, deviceID string) ([]models.ControlEvent, error)
}

type Repository struct {
	Cloud  DeviceCloud
	Events EventRepo
}

func NewRepository(db *sql.DB, cfg *config.Golioth) *Repository {
	return &Repository{
		Cloud:  NewGoliothClient(cfg),
		Events: NewEventSQLite(db),
	}
}
