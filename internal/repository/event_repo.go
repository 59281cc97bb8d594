package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"jacuzzi_controller/internal/models"

	"github.com/google/uuid"
)

type EventSQLite struct {
	db *sql.DB
}

func NewEventSQLite(db *sql.DB) *EventSQLite { return &EventSQLite{db: db} }

const sqliteTimeLayout = "2006-01-02 15:04:05"

// Append inserts a new event. Missing EventID/OccurredAt are filled in.
func (r *EventSQLite) Append(ctx context.Context, e models.ControlEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	} else {
		e.OccurredAt = e.OccurredAt.UTC()
	}

	var metaPtr *string
	if e.Metadata != nil {
		if b, err := json.Marshal(e.Metadata); err == nil {
			s := string(b)
			metaPtr = &s
		}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO control_events (id, occurred_at, device_id, type, message, meta)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		e.EventID,
		e.OccurredAt.Format(sqliteTimeLayout),
		e.DeviceID,
		strings.ToUpper(strings.TrimSpace(e.Type)),
		e.Description,
		metaPtr,
	)
	return err
}

// List returns events filtered by [from, to] (inclusive), type and device,
// ordered by occurrence ascending. Zero/empty filters are skipped.
func (r *EventSQLite) List(ctx context.Context, from, to time.Time, typ, deviceID string) ([]models.ControlEvent, error) {
	var (
		conds []string
		args  []any
	)

	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, to.UTC())
	}
	if typ = strings.ToUpper(strings.TrimSpace(typ)); typ != "" {
		conds = append(conds, "type = ?")
		args = append(args, typ)
	}
	if deviceID = strings.TrimSpace(deviceID); deviceID != "" {
		conds = append(conds, "device_id = ?")
		args = append(args, deviceID)
	}

	q := `SELECT id, occurred_at, device_id, type, message, meta FROM control_events`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.ControlEvent, 0, 64)
	for rows.Next() {
		var ev models.ControlEvent
		var metaStr sql.NullString
		if err := rows.Scan(&ev.EventID, &ev.OccurredAt, &ev.DeviceID, &ev.Type, &ev.Description, &metaStr); err != nil {
			return nil, err
		}
		ev.OccurredAt = ev.OccurredAt.UTC()

		if metaStr.Valid && metaStr.String != "" {
			var v any
			if err := json.Unmarshal([]byte(metaStr.String), &v); err == nil {
				ev.Metadata = v
			} else {
				ev.Metadata = metaStr.String // keep raw if malformed
			}
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
