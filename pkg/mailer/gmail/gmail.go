// Package gmail sends email as the operator through the Gmail REST API.
//
// Authentication uses a long-lived OAuth refresh token with the gmail.send
// scope; access tokens are refreshed on demand by golang.org/x/oauth2.
package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	googleOAuth "golang.org/x/oauth2/google"

	"github.com/AbhinavGupta-de/mail-trigger/pkg/mailer"
)

// SendScope is the only scope the sender needs.
const SendScope = "https://www.googleapis.com/auth/gmail.send"

var (
	// ErrMissingClientID is returned when the OAuth client id is not provided.
	ErrMissingClientID = errors.New("gmail: missing client ID")

	// ErrMissingClientSecret is returned when the OAuth client secret is not provided.
	ErrMissingClientSecret = errors.New("gmail: missing client secret")

	// ErrMissingRefreshToken is returned when no refresh token is configured.
	ErrMissingRefreshToken = errors.New("gmail: missing refresh token")

	// ErrRequestFailed is returned when the API answers with a non-2xx status.
	ErrRequestFailed = errors.New("gmail: request failed")

	// ErrDecodeFailed is returned when the API response cannot be decoded.
	ErrDecodeFailed = errors.New("gmail: failed to decode response")
)

// Config holds Gmail provider configuration.
type Config struct {
	ClientID     string `env:"GMAIL_CLIENT_ID"`
	ClientSecret string `env:"GMAIL_CLIENT_SECRET"`
	RefreshToken string `env:"GMAIL_REFRESH_TOKEN"`
	// User is the mailbox to send from; "me" is the token's owner.
	User    string `env:"GMAIL_USER" envDefault:"me"`
	BaseURL string `env:"GMAIL_API_URL" envDefault:"https://gmail.googleapis.com"`
}

// Option configures a Sender.
type Option func(*options)

type options struct {
	httpClient  *http.Client
	tokenSource oauth2.TokenSource
	now         func() time.Time
}

// WithHTTPClient sets the HTTP client used for token refresh and API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

// WithTokenSource replaces the refresh-token source.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(o *options) { o.tokenSource = ts }
}

// WithClock replaces time.Now for the Date header.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Sender implements mailer.Sender using the Gmail API.
type Sender struct {
	client  *http.Client
	sendURL string
	now     func() time.Time
}

// New creates a Gmail sender. ctx scopes token refreshes.
func New(ctx context.Context, cfg Config, opts ...Option) (*Sender, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	if o.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
	}

	ts := o.tokenSource
	if ts == nil {
		switch {
		case cfg.ClientID == "":
			return nil, ErrMissingClientID
		case cfg.ClientSecret == "":
			return nil, ErrMissingClientSecret
		case cfg.RefreshToken == "":
			return nil, ErrMissingRefreshToken
		}
		oc := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       []string{SendScope},
			Endpoint:     googleOAuth.Endpoint,
		}
		ts = oc.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
	}

	user := cfg.User
	if user == "" {
		user = "me"
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://gmail.googleapis.com"
	}

	return &Sender{
		client:  oauth2.NewClient(ctx, ts),
		sendURL: fmt.Sprintf("%s/gmail/v1/users/%s/messages/send", base, url.PathEscape(user)),
		now:     o.now,
	}, nil
}

type sendRequest struct {
	Raw string `json:"raw"`
}

type sendResponse struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Send implements mailer.Sender. An empty From lets Gmail use the mailbox owner.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) (string, error) {
	raw, err := mailer.BuildMIME(email, s.now())
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(sendRequest{Raw: base64.URLEncoding.EncodeToString(raw)})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.sendURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gmail: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.Join(ErrDecodeFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e errorResponse
		if json.Unmarshal(body, &e) == nil && e.Error.Message != "" {
			return "", fmt.Errorf("%w: %d %s", ErrRequestFailed, resp.StatusCode, e.Error.Message)
		}
		return "", fmt.Errorf("%w: status=%d", ErrRequestFailed, resp.StatusCode)
	}

	var out sendResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", errors.Join(ErrDecodeFailed, err)
	}
	return out.ID, nil
}
