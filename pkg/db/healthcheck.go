package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

var (
	// ErrHealthcheckFailed is returned when the database check fails.
	ErrHealthcheckFailed = errors.New("db: healthcheck failed")
	// ErrNotMigrated is joined in when the migrations table is missing.
	ErrNotMigrated = errors.New("db: schema not migrated, run migrate")
)

// Pinger is the part of a pool the health check needs.
type Pinger interface {
	Ping(ctx context.Context) error
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Healthcheck returns a check that pings the database and verifies the
// migrations table exists. Compatible with health.CheckFunc.
func Healthcheck(p Pinger, migrationsTable string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		if migrationsTable == "" {
			return nil
		}

		var migrated bool
		if err := p.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", migrationsTable).Scan(&migrated); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		if !migrated {
			return errors.Join(ErrHealthcheckFailed, ErrNotMigrated)
		}
		return nil
	}
}
