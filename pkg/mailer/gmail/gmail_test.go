package gmail_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/AbhinavGupta-de/mail-trigger/pkg/mailer"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/mailer/gmail"
)

func newSender(t *testing.T, srv *httptest.Server) *gmail.Sender {
	t.Helper()
	s, err := gmail.New(context.Background(), gmail.Config{BaseURL: srv.URL, User: "me"},
		gmail.WithHTTPClient(srv.Client()),
		gmail.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"})),
		gmail.WithClock(func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }),
	)
	require.NoError(t, err)
	return s
}

func TestNew_RequiresCredentials(t *testing.T) {
	t.Parallel()

	_, err := gmail.New(context.Background(), gmail.Config{ClientSecret: "s", RefreshToken: "r"})
	require.ErrorIs(t, err, gmail.ErrMissingClientID)

	_, err = gmail.New(context.Background(), gmail.Config{ClientID: "c", RefreshToken: "r"})
	require.ErrorIs(t, err, gmail.ErrMissingClientSecret)

	_, err = gmail.New(context.Background(), gmail.Config{ClientID: "c", ClientSecret: "s"})
	require.ErrorIs(t, err, gmail.ErrMissingRefreshToken)

	s, err := gmail.New(context.Background(), gmail.Config{ClientID: "c", ClientSecret: "s", RefreshToken: "r"})
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestSender_Send(t *testing.T) {
	t.Parallel()

	var raw []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/gmail/v1/users/me/messages/send", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var req struct {
			Raw string `json:"raw"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		var err error
		raw, err = base64.URLEncoding.DecodeString(req.Raw)
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"18f2a","threadId":"18f2a","labelIds":["SENT"]}`))
	}))
	defer srv.Close()

	id, err := newSender(t, srv).Send(context.Background(), &mailer.Email{
		To:      []string{"warden@college.edu"},
		CC:      []string{"hod@college.edu"},
		Subject: "Leave Application - 2024-05-01",
		Text:    "Dear Sir",
	})
	require.NoError(t, err)
	require.Equal(t, "18f2a", id)

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, "warden@college.edu", msg.Header.Get("To"))
	require.Equal(t, "hod@college.edu", msg.Header.Get("Cc"))
	require.Equal(t, "Leave Application - 2024-05-01", msg.Header.Get("Subject"))
}

func TestSender_Send_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"Insufficient Permission"}}`))
	}))
	defer srv.Close()

	_, err := newSender(t, srv).Send(context.Background(), &mailer.Email{
		To: []string{"a@x.org"}, Subject: "s", Text: "t",
	})
	require.ErrorIs(t, err, gmail.ErrRequestFailed)
	require.Contains(t, err.Error(), "Insufficient Permission")
}

func TestSender_Send_NonJSONError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newSender(t, srv).Send(context.Background(), &mailer.Email{
		To: []string{"a@x.org"}, Subject: "s", Text: "t",
	})
	require.ErrorIs(t, err, gmail.ErrRequestFailed)
	require.Contains(t, err.Error(), "status=502")
}

func TestSender_Send_InvalidEmail(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("api must not be called")
	}))
	defer srv.Close()

	_, err := newSender(t, srv).Send(context.Background(), &mailer.Email{Subject: "s", Text: "t"})
	require.ErrorIs(t, err, mailer.ErrNoRecipient)
}
