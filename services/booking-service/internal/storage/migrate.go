package storage

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/bellabook/libs/db"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations applies every file under migrations/ in name order, one transaction per file.
// The statements are idempotent, so running on every start is safe.
func RunMigrations(ctx context.Context, b db.Beginner) error {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("storage: read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		stmt, err := fs.ReadFile(migrationsFS, "migrations/"+e.Name())
		if err != nil {
			return fmt.Errorf("storage: read %s: %w", e.Name(), err)
		}
		err = db.InTx(ctx, b, func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx, string(stmt))
			return err
		})
		if err != nil {
			return fmt.Errorf("storage: apply %s: %w", e.Name(), err)
		}
	}
	return nil
}
