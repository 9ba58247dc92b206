package compose

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category groups templates by purpose.
type Category string

const (
	CategoryLeave        Category = "leave"
	CategoryComplaint    Category = "complaint"
	CategoryRequest      Category = "request"
	CategoryAnnouncement Category = "announcement"
	CategoryOther        Category = "other"
)

// Categories lists every known category.
var Categories = []Category{
	CategoryLeave,
	CategoryComplaint,
	CategoryRequest,
	CategoryAnnouncement,
	CategoryOther,
}

// Valid reports whether c is one of Categories.
func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

// ParseCategory maps a string onto a Category. An empty string means CategoryOther.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return CategoryOther, nil
	}
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: unknown category %q", ErrInvalidTemplate, s)
	}
	return c, nil
}

// Role is the header a recipient is addressed in.
type Role string

const (
	RoleTo Role = "to"
	RoleCC Role = "cc"
)

// Valid reports whether r is RoleTo or RoleCC.
func (r Role) Valid() bool {
	return r == RoleTo || r == RoleCC
}

// Template is a reusable form letter.
//
// Variables is derived from Subject and Body and must always equal
// ScanTemplate(Subject, Body). Call Refresh after changing the text.
type Template struct {
	ID string `json:"id"`
	// OwnerID is empty for global templates provisioned by an admin.
	OwnerID   string    `json:"owner_id,omitempty"`
	Name      string    `json:"name"`
	Category  Category  `json:"category"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Variables []string  `json:"variables"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}

// Refresh re-derives Variables from the current text.
func (t *Template) Refresh() {
	t.Variables = ScanTemplate(t.Subject, t.Body)
}

// Stale reports whether the stored Variables no longer match the text.
func (t *Template) Stale() bool {
	return !slices.Equal(t.Variables, ScanTemplate(t.Subject, t.Body))
}

// Validate checks the fields an author must supply.
func (t *Template) Validate() error {
	switch {
	case strings.TrimSpace(t.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	case strings.TrimSpace(t.Subject) == "":
		return fmt.Errorf("%w: subject is required", ErrInvalidTemplate)
	case strings.TrimSpace(t.Body) == "":
		return fmt.Errorf("%w: body is required", ErrInvalidTemplate)
	case t.Category != "" && !t.Category.Valid():
		return fmt.Errorf("%w: unknown category %q", ErrInvalidTemplate, t.Category)
	}
	return nil
}

// Recipient is an address book entry.
type Recipient struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"type"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}

// Contact is the {name, email} pair returned by the defaults fetch.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Defaults holds the default recipient set per role.
type Defaults struct {
	To []Contact `json:"to"`
	CC []Contact `json:"cc"`
}

// DefaultsFrom partitions recipients flagged as default by role.
func DefaultsFrom(recipients []Recipient) Defaults {
	var d Defaults
	for _, r := range recipients {
		if !r.IsDefault {
			continue
		}
		c := Contact{Name: r.Name, Email: r.Email}
		switch r.Role {
		case RoleTo:
			d.To = append(d.To, c)
		case RoleCC:
			d.CC = append(d.CC, c)
		}
	}
	return d
}

// Preview is the projection a composition is seeded from: the template text
// plus the caller's default recipients.
type Preview struct {
	TemplateID   string    `json:"template_id,omitempty"`
	TemplateName string    `json:"template_name"`
	Subject      string    `json:"subject"`
	Body         string    `json:"body"`
	Variables    []string  `json:"variables"`
	DefaultTo    []Contact `json:"default_to"`
	DefaultCC    []Contact `json:"default_cc"`
}

// PreviewOf builds a Preview from a template and a defaults fetch.
func PreviewOf(t *Template, d Defaults) *Preview {
	return &Preview{
		TemplateID:   t.ID,
		TemplateName: t.Name,
		Subject:      t.Subject,
		Body:         t.Body,
		Variables:    slices.Clone(t.Variables),
		DefaultTo:    slices.Clone(d.To),
		DefaultCC:    slices.Clone(d.CC),
	}
}

// Identity is the authenticated caller a composition runs on behalf of.
type Identity struct {
	AccountID string
	Name      string
	Email     string
}

// Message is the composed payload handed to the transport exactly once.
// Slices and maps are private copies; the session never touches them again.
type Message struct {
	TemplateID string            `json:"template_id,omitempty"`
	To         []string          `json:"to"`
	CC         []string          `json:"cc"`
	Subject    string            `json:"subject"`
	Body       string            `json:"body"`
	Variables  map[string]string `json:"variables"`

	// Sender is the identity the message goes out as.
	Sender Identity `json:"-"`
}

// SendResult is what a transport answers with.
type SendResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Message   string `json:"message"`
}

// LogStatus is the outcome recorded for a send attempt.
type LogStatus string

const (
	StatusSent   LogStatus = "sent"
	StatusFailed LogStatus = "failed"
)

// LogEntry is an append-only record of a send attempt.
type LogEntry struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id,omitempty"`
	TemplateID *string   `json:"template_id"`
	To         []string  `json:"to"`
	CC         []string  `json:"cc"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	Status     LogStatus `json:"status"`
	MessageID  string    `json:"message_id,omitempty"`
	Error      string    `json:"error,omitempty"`
	SentAt     time.Time `json:"sent_at"`
}

// NewLogEntry records the outcome of sending msg.
func NewLogEntry(msg Message, res SendResult, at time.Time) LogEntry {
	e := LogEntry{
		ID:        uuid.NewString(),
		OwnerID:   msg.Sender.AccountID,
		To:        slices.Clone(msg.To),
		CC:        slices.Clone(msg.CC),
		Subject:   msg.Subject,
		Body:      msg.Body,
		Status:    StatusSent,
		MessageID: res.MessageID,
		SentAt:    at.UTC(),
	}
	if msg.TemplateID != "" {
		id := msg.TemplateID
		e.TemplateID = &id
	}
	if !res.Success {
		e.Status = StatusFailed
		e.Error = res.Message
	}
	return e
}
