package postmark

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AbhinavGupta-de/mail-trigger/pkg/mailer"
)

func TestNew_RequiresTokenAndSender(t *testing.T) {
	t.Parallel()

	_, err := New(Config{SenderEmail: "letters@college.edu"})
	require.ErrorIs(t, err, ErrMissingConfig)

	_, err = New(Config{ServerToken: "tok"})
	require.ErrorIs(t, err, ErrMissingConfig)

	s, err := New(Config{ServerToken: "tok", SenderEmail: "letters@college.edu"})
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestSender_BuildEmail(t *testing.T) {
	t.Parallel()

	s, err := New(Config{
		ServerToken:   "tok",
		SenderEmail:   "letters@college.edu",
		SenderName:    "Mail Trigger",
		MessageStream: "outbound",
		TrackOpens:    true,
	})
	require.NoError(t, err)

	pm := s.buildEmail(&mailer.Email{
		To:      []string{"warden@college.edu", "dean@college.edu"},
		CC:      []string{"hod@college.edu"},
		Subject: "Leave",
		Text:    "Dear Sir",
		HTML:    "<p>Dear Sir</p>",
		ReplyTo: "jane@college.edu",
		Tags:    mailer.Tags{"template": "tpl-leave"},
		Headers: map[string]string{"X-B": "2", "X-A": "1"},
	})

	require.Equal(t, `"Mail Trigger" <letters@college.edu>`, pm.From)
	require.Equal(t, "warden@college.edu,dean@college.edu", pm.To)
	require.Equal(t, "hod@college.edu", pm.Cc)
	require.Equal(t, "Dear Sir", pm.TextBody)
	require.Equal(t, "<p>Dear Sir</p>", pm.HTMLBody)
	require.Equal(t, "jane@college.edu", pm.ReplyTo)
	require.Equal(t, "tpl-leave", pm.Tag)
	require.Equal(t, "outbound", pm.MessageStream)
	require.True(t, pm.TrackOpens)
	require.Len(t, pm.Headers, 2)
	require.Equal(t, "X-A", pm.Headers[0].Name)
}

func TestSender_BuildEmail_TextOnly(t *testing.T) {
	t.Parallel()

	s, err := New(Config{ServerToken: "tok", SenderEmail: "letters@college.edu", TrackOpens: true})
	require.NoError(t, err)

	pm := s.buildEmail(&mailer.Email{To: []string{"a@x.org"}, Subject: "s", Text: "t"})

	require.Equal(t, "letters@college.edu", pm.From)
	require.Empty(t, pm.Cc)
	require.Empty(t, pm.Tag)
	require.False(t, pm.TrackOpens, "opens cannot be tracked without html")
}

func TestTag(t *testing.T) {
	t.Parallel()

	require.Empty(t, tag(nil))
	require.Equal(t, "tpl-1", tag(mailer.Tags{"template": "tpl-1", "a": struct{}{}}))
	require.Equal(t, "alpha", tag(mailer.SimpleTags("beta", "alpha")))
}
