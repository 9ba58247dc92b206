package mailer

import (
	"fmt"
	"net/mail"
)

// Tags represents email tags that can be either presence-only (struct{}{})
// or key-value pairs. Postmark keeps only one tag name; Resend keeps name-value
// pairs, with presence-only tags sent as name="true".
type Tags map[string]any

// SimpleTags creates presence-only tags from a list of tag names.
func SimpleTags(names ...string) Tags {
	t := make(Tags, len(names))
	for _, n := range names {
		t[n] = struct{}{}
	}
	return t
}

// Recipient formats a name and email into RFC 5322 address format.
// Returns "Name <email>" if name is provided, otherwise just email.
func Recipient(name, email string) string {
	if name == "" {
		return email
	}
	return (&mail.Address{Name: name, Address: email}).String()
}

// Email is a fully prepared message ready for a provider.
type Email struct {
	Headers map[string]string
	Tags    Tags
	Subject string
	HTML    string // optional HTML alternative
	Text    string // plain text body, always sent
	From    string // empty means the provider's configured sender
	ReplyTo string
	To      []string
	CC      []string
}

// Validate reports the first missing required field.
func (e *Email) Validate() error {
	switch {
	case len(e.To) == 0:
		return ErrNoRecipient
	case e.Subject == "":
		return ErrNoSubject
	case e.Text == "" && e.HTML == "":
		return ErrNoContent
	}
	return nil
}

// String is used in logs; it never includes the body.
func (e *Email) String() string {
	return fmt.Sprintf("to=%v cc=%v subject=%q", e.To, e.CC, e.Subject)
}
