// Package postmark delivers email through Postmark's transactional API.
package postmark

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mrz1836/postmark"

	"github.com/AbhinavGupta-de/mail-trigger/pkg/mailer"
)

var (
	// ErrMissingConfig is returned by New when a required setting is absent.
	ErrMissingConfig = errors.New("postmark: POSTMARK_SERVER_TOKEN and POSTMARK_FROM_EMAIL are required")

	// ErrRejected indicates Postmark answered with a non-zero error code.
	ErrRejected = errors.New("postmark: message rejected")
)

// Config holds Postmark provider configuration.
type Config struct {
	ServerToken   string `env:"POSTMARK_SERVER_TOKEN"`
	AccountToken  string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail   string `env:"POSTMARK_FROM_EMAIL"`
	SenderName    string `env:"POSTMARK_FROM_NAME"`
	MessageStream string `env:"POSTMARK_MESSAGE_STREAM" envDefault:"outbound"`
	TrackOpens    bool   `env:"POSTMARK_TRACK_OPENS" envDefault:"false"`
}

// Sender implements mailer.Sender using Postmark.
type Sender struct {
	client *postmark.Client
	config Config
}

// New creates a Postmark sender.
func New(cfg Config) (*Sender, error) {
	if cfg.ServerToken == "" || cfg.SenderEmail == "" {
		return nil, ErrMissingConfig
	}
	return &Sender{
		client: postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		config: cfg,
	}, nil
}

// Send implements mailer.Sender.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) (string, error) {
	resp, err := s.client.SendEmail(ctx, s.buildEmail(email))
	if err != nil {
		return "", fmt.Errorf("postmark: %w", err)
	}
	if resp.ErrorCode > 0 {
		return "", fmt.Errorf("%w: %d - %s", ErrRejected, resp.ErrorCode, resp.Message)
	}
	return resp.MessageID, nil
}

func (s *Sender) buildEmail(email *mailer.Email) postmark.Email {
	from := email.From
	if from == "" {
		from = mailer.Recipient(s.config.SenderName, s.config.SenderEmail)
	}

	pm := postmark.Email{
		From:          from,
		To:            strings.Join(email.To, ","),
		Cc:            strings.Join(email.CC, ","),
		Subject:       email.Subject,
		Tag:           tag(email.Tags),
		HTMLBody:      email.HTML,
		TextBody:      email.Text,
		ReplyTo:       email.ReplyTo,
		MessageStream: s.config.MessageStream,
		TrackOpens:    s.config.TrackOpens && email.HTML != "",
	}
	if len(email.Headers) > 0 {
		names := make([]string, 0, len(email.Headers))
		for name := range email.Headers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			pm.Headers = append(pm.Headers, postmark.Header{Name: name, Value: email.Headers[name]})
		}
	}
	return pm
}

// tag picks the single tag Postmark supports: the template id when present,
// otherwise the first tag name in sorted order.
func tag(tags mailer.Tags) string {
	if v, ok := tags["template"].(string); ok {
		return v
	}
	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return names[0]
}
