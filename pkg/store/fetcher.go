package store

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/AbhinavGupta-de/mail-trigger/pkg/compose"
)

// Fetcher serves compositions from the store.
type Fetcher struct {
	store *Store
}

// NewFetcher creates a compose.Fetcher backed by s.
func NewFetcher(s *Store) *Fetcher {
	return &Fetcher{store: s}
}

var _ compose.Fetcher = (*Fetcher)(nil)

// FetchPreview loads the template and the caller's default recipients concurrently.
func (f *Fetcher) FetchPreview(ctx context.Context, caller compose.Identity, templateID string) (*compose.Preview, error) {
	var (
		tpl      *compose.Template
		defaults compose.Defaults
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := f.store.GetTemplate(gctx, caller.AccountID, templateID)
		if err != nil {
			return notFound(err)
		}
		tpl = t
		return nil
	})
	g.Go(func() error {
		d, err := f.store.DefaultRecipients(gctx, caller.AccountID)
		if err != nil {
			return err
		}
		defaults = d
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return compose.PreviewOf(tpl, defaults), nil
}

// DefaultTemplate returns the id of the caller's default template.
func (f *Fetcher) DefaultTemplate(ctx context.Context, caller compose.Identity) (string, error) {
	id, err := f.store.DefaultTemplate(ctx, caller.AccountID)
	if err != nil {
		return "", notFound(err)
	}
	return id, nil
}

func notFound(err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidInput) {
		return errors.Join(compose.ErrTemplateNotFound, err)
	}
	return err
}
