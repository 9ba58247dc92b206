package compose

import (
	"context"
	"errors"
)

// Fetcher is the data-fetch collaborator.
type Fetcher interface {
	// FetchPreview returns the template text and the caller's default recipients.
	// It returns ErrTemplateNotFound when the template is missing or not visible.
	FetchPreview(ctx context.Context, caller Identity, templateID string) (*Preview, error)

	// DefaultTemplate returns the id of the caller's default template,
	// or ErrTemplateNotFound when none is flagged.
	DefaultTemplate(ctx context.Context, caller Identity) (string, error)
}

// SelectDefault fetches the preview of the caller's default template.
// It returns ErrTemplateNotFound when no template is flagged as default.
func SelectDefault(ctx context.Context, f Fetcher, caller Identity) (*Preview, error) {
	id, err := f.DefaultTemplate(ctx, caller)
	if err != nil {
		return nil, err
	}
	return f.FetchPreview(ctx, caller, id)
}

// Load seeds s with the named template. With an empty id it falls back to the
// caller's default template, and to a blank composition when there is none.
func Load(ctx context.Context, f Fetcher, s *Session, templateID string) error {
	if templateID == "" {
		p, err := SelectDefault(ctx, f, s.identity)
		switch {
		case errors.Is(err, ErrTemplateNotFound):
			return s.Start()
		case err != nil:
			return err
		}
		return s.Select(p)
	}

	p, err := f.FetchPreview(ctx, s.identity, templateID)
	if err != nil {
		return err
	}
	return s.Select(p)
}

// Request is a one-shot composition: what the operator would otherwise enter
// interactively.
type Request struct {
	// TemplateID selects a template; empty means a custom message.
	TemplateID string
	// Subject and Body replace the template text when non-empty.
	Subject   string
	Body      string
	Overrides Overrides
	Variables Bindings
}

// Compose runs a whole composition: select, apply the request, send.
// The returned session reflects the final state, including on failure.
func Compose(ctx context.Context, f Fetcher, t Transport, caller Identity, req Request, opts ...Option) (*Session, SendResult, error) {
	s := NewSession(caller, t, opts...)

	if req.TemplateID == "" {
		if err := s.Start(); err != nil {
			return s, SendResult{}, err
		}
	} else {
		p, err := f.FetchPreview(ctx, caller, req.TemplateID)
		if err != nil {
			return s, SendResult{}, err
		}
		if err := s.Select(p); err != nil {
			return s, SendResult{}, err
		}
	}

	if err := Apply(s, req); err != nil {
		return s, SendResult{}, err
	}

	res, err := s.Send(ctx)
	return s, res, err
}

// Apply copies the request's edits onto an active session.
func Apply(s *Session, req Request) error {
	if req.Subject != "" {
		if err := s.SetSubject(req.Subject); err != nil {
			return err
		}
	}
	if req.Body != "" {
		if err := s.SetBody(req.Body); err != nil {
			return err
		}
	}
	if req.Overrides.To.Provided() {
		if err := s.SetTo(req.Overrides.To.Addresses()...); err != nil {
			return err
		}
	}
	if req.Overrides.CC.Provided() {
		if err := s.SetCC(req.Overrides.CC.Addresses()...); err != nil {
			return err
		}
	}
	if len(req.Variables) > 0 {
		return s.BindAll(req.Variables)
	}
	return nil
}
