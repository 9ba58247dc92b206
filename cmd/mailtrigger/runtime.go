package main

import (
	"context"
	"log/slog"

	"github.com/AbhinavGupta-de/mail-trigger/internal/app"
	"github.com/AbhinavGupta-de/mail-trigger/internal/config"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/compose"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/health"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/store"
)

// backend is the part of the store the commands use.
type backend interface {
	ListTemplates(ctx context.Context, ownerID string) ([]compose.Template, error)
	GetTemplate(ctx context.Context, ownerID, id string) (*compose.Template, error)
	CreateTemplate(ctx context.Context, t *compose.Template) error
	UpdateTemplate(ctx context.Context, ownerID, id string, patch store.TemplatePatch) (*compose.Template, error)
	DeleteTemplate(ctx context.Context, ownerID, id string) error
	Seed(ctx context.Context, ownerID string, templates []compose.Template) (int, error)

	ListRecipients(ctx context.Context, ownerID string) ([]compose.Recipient, error)
	CreateRecipient(ctx context.Context, r *compose.Recipient) error
	UpdateRecipient(ctx context.Context, ownerID, id string, patch store.RecipientPatch) (*compose.Recipient, error)
	DeleteRecipient(ctx context.Context, ownerID, id string) error

	ListLogs(ctx context.Context, ownerID string, limit int) ([]compose.LogEntry, error)
}

// runtime is what a command runs against.
type runtime struct {
	identity  config.Identity
	logger    *slog.Logger
	store     backend
	fetcher   compose.Fetcher
	transport func(ctx context.Context) (compose.Transport, error)
	migrate   func(ctx context.Context) error
	work      func(ctx context.Context) error
	status    func(ctx context.Context) health.Report
	close     func() error
}

// caller returns the operator identity, failing when it is not configured.
func (rt *runtime) caller() (compose.Identity, error) {
	if err := rt.identity.Validate(); err != nil {
		return compose.Identity{}, err
	}
	return rt.identity.Compose(), nil
}

// openRuntime loads the configuration and connects to the database.
func openRuntime(ctx context.Context, envFile string) (*runtime, error) {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, err
	}

	a, err := app.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &runtime{
		identity: cfg.Identity,
		logger:   a.Logger,
		store:    a.Store,
		fetcher:  a.Fetcher(),
		transport: func(ctx context.Context) (compose.Transport, error) {
			m, err := a.Mailer(ctx)
			if err != nil {
				return nil, err
			}
			return m, nil
		},
		migrate: a.Migrate,
		work: func(ctx context.Context) error {
			m, err := a.Worker()
			if err != nil {
				return err
			}
			return m.Run(ctx)
		},
		status: a.Status,
		close:  a.Close,
	}, nil
}

// owner returns the owner id rows are written for: none for global rows,
// the operator's account otherwise.
func (rt *runtime) owner(global bool) (string, error) {
	if global {
		return "", nil
	}
	id, err := rt.caller()
	if err != nil {
		return "", err
	}
	return id.AccountID, nil
}
