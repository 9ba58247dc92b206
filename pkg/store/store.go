package store

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/AbhinavGupta-de/mail-trigger/pkg/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations returns the goose migrations for the store's tables.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Querier is implemented by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is a Querier that can also open transactions.
type DB interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Store persists templates, recipients and the email history in PostgreSQL.
type Store struct {
	db     DB
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for non-fatal store events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Store on db.
func New(db DB, opts ...Option) *Store {
	s := &Store{db: db, logger: logger.NewNope()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// owner maps an account id onto the owner_id column. Global rows have NULL.
func owner(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

// visibleTo matches the account's own rows plus global ones.
func visibleTo(ownerID string) squirrel.Sqlizer {
	if ownerID == "" {
		return squirrel.Eq{"owner_id": nil}
	}
	return squirrel.Or{
		squirrel.Eq{"owner_id": ownerID},
		squirrel.Eq{"owner_id": nil},
	}
}

// ownedBy matches only rows the account may modify.
func ownedBy(ownerID string) squirrel.Sqlizer {
	if ownerID == "" {
		return squirrel.Eq{"owner_id": nil}
	}
	return squirrel.Eq{"owner_id": ownerID}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
