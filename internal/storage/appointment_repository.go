package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/slotbook/slotbook/internal/db"
	"github.com/slotbook/slotbook/internal/model"
	"github.com/slotbook/slotbook/internal/outbox"
)

// AppointmentRepository stores appointment records in Postgres. Every read
// is a full scan of the table; callers own ordering and uniqueness checks.
// The table carries no unique index on date_time, so two writers that pass
// the scan-then-check at the same time can both insert.
type AppointmentRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewAppointmentRepository(pool *db.Pool, outboxRepo *outbox.Repository) *AppointmentRepository {
	return &AppointmentRepository{pool: pool, outbox: outboxRepo}
}

func (r *AppointmentRepository) ListAll(ctx context.Context) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, date_time, name, email, COALESCE(phone, ''), COALESCE(reason, ''), created_at
		FROM appointments
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		var appt model.Appointment
		if err := rows.Scan(
			&appt.ID,
			&appt.DateTime,
			&appt.Name,
			&appt.Email,
			&appt.Phone,
			&appt.Reason,
			&appt.CreatedAt,
		); err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

// Insert persists the appointment and queues the booked event in the same
// transaction.
func (r *AppointmentRepository) Insert(ctx context.Context, appt model.Appointment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO appointments (id, date_time, name, email, phone, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, appt.ID, appt.DateTime, appt.Name, appt.Email, appt.Phone, appt.Reason, appt.CreatedAt)
	if err != nil {
		return err
	}

	if err := r.insertEvent(ctx, tx, "booking.appointment.booked.v1", appt.ID, map[string]any{
		"id":        appt.ID,
		"dateTime":  appt.DateTime,
		"name":      appt.Name,
		"email":     appt.Email,
		"createdAt": appt.CreatedAt.UTC().Format(time.RFC3339),
	}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// DeleteByID removes the record if it exists. Deleting an unknown id is
// not an error; no event is queued in that case.
func (r *AppointmentRepository) DeleteByID(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var dateTime string
	err = tx.QueryRow(ctx, `
		DELETE FROM appointments
		WHERE id = $1
		RETURNING date_time
	`, id).Scan(&dateTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return tx.Commit(ctx)
	}
	if err != nil {
		return err
	}

	if err := r.insertEvent(ctx, tx, "booking.appointment.canceled.v1", id, map[string]any{
		"id":       id,
		"dateTime": dateTime,
	}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *AppointmentRepository) insertEvent(ctx context.Context, tx pgx.Tx, eventType, id string, payload map[string]any) error {
	if r.outbox == nil {
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return r.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   id,
		EventType:     eventType,
		Payload:       body,
	})
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
