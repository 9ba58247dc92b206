package mailer

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildMIME_TextOnly(t *testing.T) {
	t.Parallel()

	raw, err := BuildMIME(&Email{
		To:      []string{"warden@college.edu", "dean@college.edu"},
		CC:      []string{"hod@college.edu"},
		ReplyTo: "jane@college.edu",
		Subject: "Leave Application – 2024-05-01",
		Text:    "Dear Sir,\nI request leave.",
	}, fixedNow())
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)

	require.Equal(t, "warden@college.edu, dean@college.edu", msg.Header.Get("To"))
	require.Equal(t, "hod@college.edu", msg.Header.Get("Cc"))
	require.Empty(t, msg.Header.Get("From"))

	subject, err := new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject"))
	require.NoError(t, err)
	require.Equal(t, "Leave Application – 2024-05-01", subject)

	date, err := msg.Header.Date()
	require.NoError(t, err)
	require.True(t, date.Equal(fixedNow()))

	require.True(t, strings.HasPrefix(msg.Header.Get("Content-Type"), "text/plain"))
	body, err := io.ReadAll(msg.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "Dear Sir,")
}

func TestBuildMIME_Alternative(t *testing.T) {
	t.Parallel()

	raw, err := BuildMIME(&Email{
		From:    "Jane <jane@college.edu>",
		To:      []string{"warden@college.edu"},
		Subject: "Hi",
		Text:    "plain",
		HTML:    "<p>rich</p>",
		Headers: map[string]string{"x-template-id": "tpl-1"},
	}, time.Now())
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, "tpl-1", msg.Header.Get("X-Template-Id"))

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/alternative", mediaType)

	mr := multipart.NewReader(msg.Body, params["boundary"])
	var parts []string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		b, err := io.ReadAll(p)
		require.NoError(t, err)
		parts = append(parts, p.Header.Get("Content-Type")+"|"+string(b))
	}
	require.Equal(t, []string{
		"text/plain; charset=utf-8|plain",
		"text/html; charset=utf-8|<p>rich</p>",
	}, parts)
}

func TestBuildMIME_RejectsIncompleteEmail(t *testing.T) {
	t.Parallel()

	_, err := BuildMIME(&Email{Subject: "s", Text: "t"}, time.Now())
	require.ErrorIs(t, err, ErrNoRecipient)
}
