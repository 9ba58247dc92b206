// Package app wires configuration, storage, the mail provider and the job
// queue into the services the mailtrigger commands run on.
package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AbhinavGupta-de/mail-trigger/internal/config"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/compose"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/db"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/health"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/job"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/logger"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/mailer"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/store"
)

const defaultShutdownTimeout = 10 * time.Second

// App holds the long-lived services of one process.
type App struct {
	Config config.Config
	Logger *slog.Logger
	Pool   *pgxpool.Pool
	Store  *store.Store

	shutdownHooks []func(context.Context) error
}

// Option configures Open.
type Option func(*options)

type options struct {
	logOutput io.Writer
}

// WithLogOutput sets where logs are written. Defaults to stderr so command
// output on stdout stays clean.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.logOutput = w
		}
	}
}

// Open builds the logger and connects to the database.
func Open(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	o := &options{logOutput: os.Stderr}
	for _, opt := range opts {
		opt(o)
	}

	log, err := logger.NewFromConfig(cfg.Logger, o.logOutput, logger.AccountID, logger.CompositionID)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: log}
	if cfg.Logger.Sentry.DSN != "" {
		a.OnShutdown(func(context.Context) error {
			sentry.Flush(2 * time.Second)
			return nil
		})
	}

	pool, err := db.Connect(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	a.Pool = pool
	a.OnShutdown(func(context.Context) error {
		pool.Close()
		return nil
	})

	a.Store = store.New(pool, store.WithLogger(log))
	return a, nil
}

// OnShutdown registers a hook run by Close, most recent first.
func (a *App) OnShutdown(fn func(context.Context) error) {
	if fn != nil {
		a.shutdownHooks = append(a.shutdownHooks, fn)
	}
}

// Close runs the shutdown hooks and returns their joined errors.
func (a *App) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	var errs []error
	for i := len(a.shutdownHooks) - 1; i >= 0; i-- {
		if err := a.shutdownHooks[i](ctx); err != nil {
			errs = append(errs, err)
			a.Logger.Error("shutdown hook failed", slog.String("error", err.Error()))
		}
	}
	a.shutdownHooks = nil
	return errors.Join(errs...)
}

// Migrate applies the store schema and the job queue schema.
func (a *App) Migrate(ctx context.Context) error {
	return db.Migrate(ctx, a.Pool, store.Migrations(), a.Config.Database.MigrationsTable, a.Logger)
}

// Fetcher returns the composition data source.
func (a *App) Fetcher() compose.Fetcher {
	return store.NewFetcher(a.Store)
}

// Mailer builds the transport for the configured provider. Send attempts are
// logged inline, or through the job queue when MAILER_ASYNC_LOG is set.
func (a *App) Mailer(ctx context.Context) (*mailer.Mailer, error) {
	sender, err := NewSender(ctx, a.Config)
	if err != nil {
		return nil, err
	}

	var logs mailer.LogWriter = a.Store
	if a.Config.Mailer.AsyncLog {
		enqueuer, err := job.NewEnqueuer(a.Pool, a.Logger)
		if err != nil {
			return nil, err
		}
		logs = job.NewEmailLogQueue(enqueuer, job.InQueue(a.Config.Jobs.Queue))
	}

	return mailer.New(sender, a.Config.Mailer,
		mailer.WithLogWriter(logs),
		mailer.WithLogger(a.Logger),
	), nil
}

// Worker builds the job manager that drains the email log queue.
func (a *App) Worker() (*job.Manager, error) {
	return job.NewManager(a.Pool,
		job.WithTask[compose.LogEntry](job.NewAppendEmailLog(a.Store)),
		job.WithQueue(a.Config.Jobs.Queue, a.Config.Jobs.MaxWorkers),
		job.WithMaxWorkers(a.Config.Jobs.MaxWorkers),
		job.WithLogger(a.Logger),
	)
}

// Checks returns the dependency checks run by the status command.
func (a *App) Checks() health.Checks {
	return health.Checks{
		"database": db.Healthcheck(a.Pool, a.Config.Database.MigrationsTable),
		"mailer": func(ctx context.Context) error {
			_, err := NewSender(ctx, a.Config)
			return err
		},
		"identity": func(context.Context) error {
			return a.Config.Identity.Validate()
		},
	}
}

// Status runs Checks with the app logger.
func (a *App) Status(ctx context.Context) health.Report {
	return health.Run(ctx, a.Checks(), health.WithLogger(a.Logger))
}
