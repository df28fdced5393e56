package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/roster"
)

const clientColumns = `id, name, phone, total_bookings, last_visit`

// ClientRepository is the Postgres roster. The unique phone_key column makes the upsert a
// single atomic statement.
type ClientRepository struct {
	q   querier
	key roster.PhoneKey
}

func NewClientRepository(q querier, key roster.PhoneKey) *ClientRepository {
	if key == nil {
		key = roster.ExactPhone
	}
	return &ClientRepository{q: q, key: key}
}

func (r *ClientRepository) Upsert(ctx context.Context, name, phone string, visit time.Time) (model.Client, error) {
	return upsertClient(ctx, r.q, r.key, name, phone, visit)
}

func upsertClient(ctx context.Context, q querier, key roster.PhoneKey, name, phone string, visit time.Time) (model.Client, error) {
	k := key(phone)
	if k == "" {
		return model.Client{}, roster.ErrEmptyPhone
	}
	c, err := scanClient(q.QueryRow(ctx, `
		INSERT INTO clients (id, name, phone, phone_key, total_bookings, last_visit)
		VALUES ($1, $2, $3, $4, 1, $5)
		ON CONFLICT (phone_key) DO UPDATE
		SET name = EXCLUDED.name,
			total_bookings = clients.total_bookings + 1,
			last_visit = EXCLUDED.last_visit
		RETURNING `+clientColumns, uuid.NewString(), name, phone, k, visit))
	if err != nil {
		return model.Client{}, fmt.Errorf("storage: upsert client: %w", err)
	}
	return c, nil
}

// Search matches a case-insensitive name substring or a phone substring, most recent visit first.
// The term is matched literally, so % and _ are plain characters.
func (r *ClientRepository) Search(ctx context.Context, q string) ([]model.Client, error) {
	q = strings.TrimSpace(q)
	rows, err := r.q.Query(ctx, `
		SELECT `+clientColumns+`
		FROM clients
		WHERE $1::text = '' OR strpos(lower(name), lower($1::text)) > 0 OR strpos(phone, $1::text) > 0
		ORDER BY last_visit DESC
	`, q)
	if err != nil {
		return nil, fmt.Errorf("storage: search clients: %w", err)
	}
	defer rows.Close()

	out := make([]model.Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan client: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: search clients: %w", err)
	}
	return out, nil
}

func scanClient(row pgx.Row) (model.Client, error) {
	var c model.Client
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.TotalBookings, &c.LastVisit)
	return c, err
}
