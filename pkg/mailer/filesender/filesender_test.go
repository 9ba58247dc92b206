package filesender

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AbhinavGupta-de/mail-trigger/pkg/mailer"
)

func TestSender_Send(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	s := New(Config{Dir: dir})
	s.now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }

	id, err := s.Send(context.Background(), &mailer.Email{
		To:      []string{"warden@college.edu"},
		Subject: "Leave Application - 2024-05-01",
		Text:    "Dear Sir",
		HTML:    "<p>Dear Sir</p>",
		Tags:    mailer.Tags{"template": "tpl-leave"},
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(id, "2024_05_01_093000_leave_application_-_2024-05-01_"), id)

	eml, err := os.ReadFile(filepath.Join(dir, id+".eml"))
	require.NoError(t, err)
	require.Contains(t, string(eml), "Subject: Leave Application - 2024-05-01")
	require.Contains(t, string(eml), "multipart/alternative")

	data, err := os.ReadFile(filepath.Join(dir, id+".json"))
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(data, &env))
	require.Equal(t, id, env.ID)
	require.Equal(t, []string{"warden@college.edu"}, env.To)
	require.Equal(t, []string{"template"}, env.Tags)
	require.True(t, env.HasHTML)
}

func TestSender_Send_UniqueIDs(t *testing.T) {
	t.Parallel()

	s := New(Config{Dir: t.TempDir()})
	email := &mailer.Email{To: []string{"a@x.org"}, Subject: "same", Text: "t"}

	first, err := s.Send(context.Background(), email)
	require.NoError(t, err)
	second, err := s.Send(context.Background(), email)
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestSender_Send_InvalidEmail(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := New(Config{Dir: dir}).Send(context.Background(), &mailer.Email{Subject: "s", Text: "t"})
	require.ErrorIs(t, err, mailer.ErrNoRecipient)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestSender_Send_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Config{Dir: t.TempDir()}).Send(ctx, &mailer.Email{To: []string{"a@x.org"}, Subject: "s", Text: "t"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Leave Application": "leave_application",
		"  ":                "email",
		"Re: <urgent>!":     "re_urgent",
		strings.Repeat("a", 80): strings.Repeat("a", 60),
	}
	for in, want := range tests {
		require.Equal(t, want, sanitizeFilename(in), in)
	}
}
