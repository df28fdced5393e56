// Package storage persists the catalog, appointments and client roster in Postgres.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/bellabook/services/booking-service/internal/model"
)

var ErrNotFound = fmt.Errorf("storage: %w", model.ErrNotFound)

// querier is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func IsNotFound(err error) bool {
	return errors.Is(err, model.ErrNotFound) || errors.Is(err, pgx.ErrNoRows)
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
