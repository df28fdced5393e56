package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/model"
)

const serviceColumns = `id, name, description, duration_minutes, price::float8, active`

type ServiceRepository struct {
	q querier
}

func NewServiceRepository(q querier) *ServiceRepository {
	return &ServiceRepository{q: q}
}

func (r *ServiceRepository) Create(ctx context.Context, s model.Service) (model.Service, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO services (id, name, description, duration_minutes, price, active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.ID, s.Name, s.Description, s.DurationMinutes, s.Price, s.Active)
	if err != nil {
		return model.Service{}, fmt.Errorf("storage: create service: %w", err)
	}
	return s, nil
}

func (r *ServiceRepository) List(ctx context.Context) ([]model.Service, error) {
	return r.list(ctx, `SELECT `+serviceColumns+` FROM services ORDER BY created_at, name`)
}

func (r *ServiceRepository) Active(ctx context.Context) ([]model.Service, error) {
	return r.list(ctx, `SELECT `+serviceColumns+` FROM services WHERE active ORDER BY created_at, name`)
}

func (r *ServiceRepository) list(ctx context.Context, query string) ([]model.Service, error) {
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("storage: list services: %w", err)
	}
	defer rows.Close()

	out := make([]model.Service, 0)
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan service: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list services: %w", err)
	}
	return out, nil
}

func (r *ServiceRepository) Get(ctx context.Context, id string) (model.Service, error) {
	s, err := scanService(r.q.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id))
	if err != nil {
		return model.Service{}, fmt.Errorf("storage: get service: %w", notFound(err))
	}
	return s, nil
}

func (r *ServiceRepository) Toggle(ctx context.Context, id string) (model.Service, error) {
	s, err := scanService(r.q.QueryRow(ctx, `
		UPDATE services SET active = NOT active
		WHERE id = $1
		RETURNING `+serviceColumns, id))
	if err != nil {
		return model.Service{}, fmt.Errorf("storage: toggle service: %w", notFound(err))
	}
	return s, nil
}

func (r *ServiceRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.q.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("storage: delete service: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanService(row pgx.Row) (model.Service, error) {
	var s model.Service
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.DurationMinutes, &s.Price, &s.Active)
	return s, err
}
