package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AbhinavGupta-de/mail-trigger/pkg/compose"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/logger"
)

// SentMessage is the result message reported for a delivered email.
const SentMessage = "Email sent successfully"

// LogWriter records the outcome of every send attempt.
type LogWriter interface {
	AppendLog(ctx context.Context, entry compose.LogEntry) error
}

// LogWriterFunc adapts a function to LogWriter.
type LogWriterFunc func(ctx context.Context, entry compose.LogEntry) error

func (f LogWriterFunc) AppendLog(ctx context.Context, entry compose.LogEntry) error {
	return f(ctx, entry)
}

// Mailer sends composed messages through a provider. It implements
// compose.Transport.
type Mailer struct {
	sender   Sender
	renderer *Renderer
	logs     LogWriter
	logger   *slog.Logger
	now      func() time.Time
	config   Config
}

// Option configures a Mailer.
type Option func(*Mailer)

// WithRenderer replaces the default HTML renderer.
func WithRenderer(r *Renderer) Option {
	return func(m *Mailer) {
		if r != nil {
			m.renderer = r
		}
	}
}

// WithLogWriter records every send attempt in w.
func WithLogWriter(w LogWriter) Option {
	return func(m *Mailer) { m.logs = w }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Mailer) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock replaces time.Now for log timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Mailer) {
		if now != nil {
			m.now = now
		}
	}
}

// New creates a Mailer delivering through sender.
func New(sender Sender, cfg Config, opts ...Option) *Mailer {
	m := &Mailer{
		sender: sender,
		logger: logger.NewNope(),
		now:    time.Now,
		config: cfg,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.renderer == nil && cfg.HTML {
		m.renderer = NewRenderer()
	}
	return m
}

var _ compose.Transport = (*Mailer)(nil)

// Send delivers msg and reports the outcome. It never returns an error: a
// failure is a SendResult with Success false and a message for the operator.
// The attempt is logged either way; a log failure does not change the result.
func (m *Mailer) Send(ctx context.Context, msg compose.Message) compose.SendResult {
	res := m.deliver(ctx, msg)
	m.record(ctx, msg, res)
	return res
}

func (m *Mailer) deliver(ctx context.Context, msg compose.Message) compose.SendResult {
	email, err := m.build(msg)
	if err != nil {
		return failed(err)
	}

	id, err := m.SendRaw(ctx, email)
	if err != nil {
		m.logger.ErrorContext(ctx, "email send failed",
			slog.String("email", email.String()),
			slog.String("error", err.Error()),
		)
		return failed(err)
	}

	m.logger.InfoContext(ctx, "email sent",
		slog.String("email", email.String()),
		slog.String("message_id", id),
	)
	return compose.SendResult{Success: true, MessageID: id, Message: SentMessage}
}

// build turns a composed message into a provider email. The operator is the
// reply-to address so answers reach them whatever the provider's sender is.
func (m *Mailer) build(msg compose.Message) (*Email, error) {
	email := &Email{
		To:      msg.To,
		CC:      msg.CC,
		Subject: msg.Subject,
		Text:    msg.Body,
		ReplyTo: Recipient(msg.Sender.Name, msg.Sender.Email),
	}
	if msg.TemplateID != "" {
		email.Tags = Tags{"template": msg.TemplateID}
	}
	if m.renderer != nil && msg.Body != "" {
		html, err := m.renderer.RenderHTML(m.config.Layout, msg.Subject, msg.Body)
		if err != nil {
			return nil, err
		}
		email.HTML = html
	}
	return email, nil
}

// SendRaw sends a prepared email and returns the provider message id.
func (m *Mailer) SendRaw(ctx context.Context, email *Email) (string, error) {
	if err := email.Validate(); err != nil {
		return "", err
	}
	id, err := m.sender.Send(ctx, email)
	if err != nil {
		return "", errors.Join(ErrSendFailed, err)
	}
	return id, nil
}

func (m *Mailer) record(ctx context.Context, msg compose.Message, res compose.SendResult) {
	if m.logs == nil {
		return
	}
	entry := compose.NewLogEntry(msg, res, m.now())
	if err := m.logs.AppendLog(ctx, entry); err != nil {
		m.logger.WarnContext(ctx, "failed to record email log",
			slog.String("log_id", entry.ID),
			slog.String("error", err.Error()),
		)
	}
}

func failed(err error) compose.SendResult {
	return compose.SendResult{Message: fmt.Sprintf("Failed to send email: %s", cause(err))}
}

// cause drops the ErrSendFailed wrapper so the operator sees the provider's text.
func cause(err error) string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if !errors.Is(e, ErrSendFailed) {
				return e.Error()
			}
		}
	}
	return err.Error()
}
