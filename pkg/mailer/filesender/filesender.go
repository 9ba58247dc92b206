// Package filesender is a development mailer.Sender that writes each message
// to a directory instead of delivering it.
//
// Every send produces two files sharing a name: <stamp>_<subject>.eml with the
// full MIME message, and .json with the envelope. The returned message id is
// that shared name.
package filesender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AbhinavGupta-de/mail-trigger/pkg/mailer"
)

// ErrWriteFailed indicates the message could not be written to disk.
var ErrWriteFailed = errors.New("filesender: failed to write message")

// Config holds the output directory.
type Config struct {
	Dir string `env:"MAILER_FILE_DIR" envDefault:"./tmp/mail"`
}

// Sender implements mailer.Sender by writing files.
type Sender struct {
	dir string
	now func() time.Time
}

// New creates a file sender. The directory is created on first send.
func New(cfg Config) *Sender {
	return &Sender{dir: cfg.Dir, now: time.Now}
}

type envelope struct {
	ID        string   `json:"id"`
	Timestamp string   `json:"timestamp"`
	From      string   `json:"from,omitempty"`
	To        []string `json:"to"`
	CC        []string `json:"cc,omitempty"`
	ReplyTo   string   `json:"reply_to,omitempty"`
	Subject   string   `json:"subject"`
	Tags      []string `json:"tags,omitempty"`
	HasHTML   bool     `json:"has_html"`
}

// Send implements mailer.Sender.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	now := s.now()
	raw, err := mailer.BuildMIME(email, now)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create directory: %v", ErrWriteFailed, err)
	}

	id := fmt.Sprintf("%s_%s_%s", now.UTC().Format("2006_01_02_150405"), sanitizeFilename(email.Subject), uuid.NewString()[:8])

	if err := os.WriteFile(filepath.Join(s.dir, id+".eml"), raw, 0o644); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	env := envelope{
		ID:        id,
		Timestamp: now.UTC().Format(time.RFC3339),
		From:      email.From,
		To:        email.To,
		CC:        email.CC,
		ReplyTo:   email.ReplyTo,
		Subject:   email.Subject,
		HasHTML:   email.HTML != "",
	}
	for name := range email.Tags {
		env.Tags = append(env.Tags, name)
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, id+".json"), data, 0o644); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	return id, nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// sanitizeFilename turns a subject into a short lowercase file name.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "_")
	s = unsafeChars.ReplaceAllString(s, "")

	const maxLength = 60
	if len(s) > maxLength {
		s = s[:maxLength]
	}
	if s == "" {
		s = "email"
	}
	return strings.ToLower(s)
}
