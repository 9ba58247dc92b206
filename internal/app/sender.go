package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AbhinavGupta-de/mail-trigger/internal/config"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/mailer"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/mailer/filesender"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/mailer/gmail"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/mailer/postmark"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/mailer/resend"
)

// Mail providers selectable with MAILER_PROVIDER.
const (
	ProviderResend   = "resend"
	ProviderPostmark = "postmark"
	ProviderGmail    = "gmail"
	ProviderFile     = "file"
)

// ErrUnknownProvider is returned for an unsupported MAILER_PROVIDER.
var ErrUnknownProvider = errors.New("app: unknown mail provider")

// NewSender builds the provider Sender named by cfg.Mailer.Provider.
func NewSender(ctx context.Context, cfg config.Config) (mailer.Sender, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Mailer.Provider)) {
	case ProviderResend:
		if err := cfg.Resend.Validate(); err != nil {
			return nil, err
		}
		return resend.New(cfg.Resend), nil
	case ProviderPostmark:
		return postmark.New(cfg.Postmark)
	case ProviderGmail:
		return gmail.New(ctx, cfg.Gmail)
	case ProviderFile, "":
		return filesender.New(cfg.File), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Mailer.Provider)
	}
}
