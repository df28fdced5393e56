package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/model"
)

const appointmentColumns = `id, service_id, client_name, client_phone, start_time, status, slug`

type AppointmentRepository struct {
	q querier
}

func NewAppointmentRepository(q querier) *AppointmentRepository {
	return &AppointmentRepository{q: q}
}

func insertAppointment(ctx context.Context, q querier, appt model.Appointment) (model.Appointment, error) {
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	_, err := q.Exec(ctx, `
		INSERT INTO appointments (id, service_id, client_name, client_phone, start_time, status, slug)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, appt.ID, appt.ServiceID, appt.ClientName, appt.ClientPhone, appt.Start, string(appt.Status), appt.Slug)
	if err != nil {
		return model.Appointment{}, fmt.Errorf("storage: create appointment: %w", err)
	}
	return appt, nil
}

// ListBetween returns appointments starting in [from, to) ordered by start.
func (r *AppointmentRepository) ListBetween(ctx context.Context, from, to time.Time) ([]model.Appointment, error) {
	return r.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE start_time >= $1 AND start_time < $2
		ORDER BY start_time ASC
	`, from, to)
}

func (r *AppointmentRepository) List(ctx context.Context) ([]model.Appointment, error) {
	return r.list(ctx, `SELECT `+appointmentColumns+` FROM appointments ORDER BY start_time ASC`)
}

func (r *AppointmentRepository) list(ctx context.Context, query string, args ...any) ([]model.Appointment, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list appointments: %w", err)
	}
	defer rows.Close()

	out := make([]model.Appointment, 0)
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan appointment: %w", err)
		}
		out = append(out, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list appointments: %w", err)
	}
	return out, nil
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id string, status model.Status) (model.Appointment, error) {
	appt, err := scanAppointment(r.q.QueryRow(ctx, `
		UPDATE appointments SET status = $2
		WHERE id = $1
		RETURNING `+appointmentColumns, id, string(status)))
	if err != nil {
		return model.Appointment{}, fmt.Errorf("storage: update status: %w", notFound(err))
	}
	return appt, nil
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var appt model.Appointment
	var status string
	if err := row.Scan(&appt.ID, &appt.ServiceID, &appt.ClientName, &appt.ClientPhone, &appt.Start, &status, &appt.Slug); err != nil {
		return model.Appointment{}, err
	}
	appt.Status = model.Status(status)
	return appt, nil
}
