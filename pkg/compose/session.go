package compose

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AbhinavGupta-de/mail-trigger/pkg/logger"
)

// State is a composition's position in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateTemplateSelected
	StateVariablesBound
	StatePreviewed
	StateSent
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTemplateSelected:
		return "template_selected"
	case StateVariablesBound:
		return "variables_bound"
	case StatePreviewed:
		return "previewed"
	case StateSent:
		return "sent"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// active reports whether a composition exists and may still be edited or sent.
func (s State) active() bool {
	switch s {
	case StateTemplateSelected, StateVariablesBound, StatePreviewed, StateFailed:
		return true
	}
	return false
}

// Transport delivers a composed message. A failed delivery is reported through
// SendResult.Success, never by panicking; retries are the transport's business.
type Transport interface {
	Send(ctx context.Context, msg Message) SendResult
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, msg Message) SendResult

func (f TransportFunc) Send(ctx context.Context, msg Message) SendResult { return f(ctx, msg) }

// Draft is the rendered view of a composition.
type Draft struct {
	TemplateID string   `json:"template_id,omitempty"`
	To         []string `json:"to"`
	CC         []string `json:"cc"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	// Missing lists user-fill variables that are still unbound.
	Missing []string `json:"missing,omitempty"`
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces time.Now, used for the auto-filled date.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithID sets the composition id used in logs. A random UUID is used otherwise.
func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// WithLivePreview registers fn to receive the rendered draft after every edit.
// fn runs outside the session lock and may call back into the session.
func WithLivePreview(fn func(Draft)) Option {
	return func(s *Session) {
		s.onChange = fn
	}
}

// Session drives one composition for one operator. Methods are serialized;
// Send holds the session until the transport returns.
type Session struct {
	identity  Identity
	transport Transport
	now       func() time.Time
	log       *slog.Logger
	onChange  func(Draft)
	id        string

	state        State
	templateID   string
	templateName string
	subject      string
	body         string
	classes      Classification
	defaults     Defaults
	overrides    Overrides
	auto         Bindings
	user         Bindings
	failure      string
	result       *SendResult

	mu sync.Mutex
}

// NewSession creates an idle composition on behalf of identity.
func NewSession(identity Identity, transport Transport, opts ...Option) *Session {
	s := &Session{
		identity:  identity,
		transport: transport,
		now:       time.Now,
		log:       logger.NewNope(),
		id:        uuid.NewString(),
		classes:   Classification{AutoFill: []string{}, UserFill: []string{}},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(slog.String("composition_id", s.id))
	return s
}

// ID returns the composition id.
func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Failure returns the transport message of the last failed send.
func (s *Session) Failure() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// Result returns the transport answer once the message was sent.
func (s *Session) Result() (SendResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return SendResult{}, false
	}
	return *s.result, true
}

// Select seeds the composition from a template preview. Placeholders are
// discovered here from the template text; the preview's own variable list is
// not trusted. Selecting another template replaces recipients and drops
// user-fill values.
func (s *Session) Select(p *Preview) error {
	if p == nil {
		return ErrTemplateNotFound
	}
	s.mu.Lock()
	if s.state == StateSent {
		s.mu.Unlock()
		return ErrSessionClosed
	}

	names := ScanTemplate(p.Subject, p.Body)
	if p.Variables != nil && !slices.Equal(names, p.Variables) {
		s.log.Debug("template variable list is stale, using scanned names",
			slog.String("template_id", p.TemplateID),
			slog.Any("stored", p.Variables),
			slog.Any("scanned", names),
		)
	}

	s.seed(p.TemplateID, p.TemplateName, p.Subject, p.Body, names, Defaults{
		To: slices.Clone(p.DefaultTo),
		CC: slices.Clone(p.DefaultCC),
	})
	notify := s.changed()
	s.mu.Unlock()
	notify()
	return nil
}

// Start begins a blank composition with no template and no default recipients.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.state == StateSent {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.seed("", "", "", "", nil, Defaults{})
	notify := s.changed()
	s.mu.Unlock()
	notify()
	return nil
}

func (s *Session) seed(templateID, name, subject, body string, names []string, d Defaults) {
	from := s.state
	s.templateID = templateID
	s.templateName = name
	s.subject = subject
	s.body = body
	s.classes = Classify(names)
	s.defaults = d
	s.overrides = Overrides{}
	s.auto = AutoFill(s.identity, s.now())
	s.user = Bindings{}
	s.failure = ""
	s.state = StateTemplateSelected
	s.logTransition(from)
}

// Abandon discards the composition. Nothing has been sent or stored.
func (s *Session) Abandon() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSent {
		return ErrSessionClosed
	}
	from := s.state
	s.templateID, s.templateName = "", ""
	s.subject, s.body = "", ""
	s.classes = Classification{AutoFill: []string{}, UserFill: []string{}}
	s.defaults = Defaults{}
	s.overrides = Overrides{}
	s.auto, s.user = nil, nil
	s.failure = ""
	s.state = StateIdle
	s.logTransition(from)
	return nil
}

// edit applies fn to an active composition and moves it to VariablesBound.
// The live preview runs after the session is unlocked.
func (s *Session) edit(fn func()) error {
	s.mu.Lock()
	if err := s.checkActive(); err != nil {
		s.mu.Unlock()
		return err
	}
	fn()
	from := s.state
	s.state = StateVariablesBound
	if from != s.state {
		s.logTransition(from)
	}
	notify := s.changed()
	s.mu.Unlock()
	notify()
	return nil
}

func (s *Session) checkActive() error {
	switch {
	case s.state == StateSent:
		return ErrSessionClosed
	case !s.state.active():
		return ErrNoComposition
	}
	return nil
}

// SetSubject replaces the subject text. Placeholders are not rediscovered.
func (s *Session) SetSubject(subject string) error {
	return s.edit(func() { s.subject = subject })
}

// SetBody replaces the body text. Placeholders are not rediscovered.
func (s *Session) SetBody(body string) error {
	return s.edit(func() { s.body = body })
}

// SetTo makes addrs the To list. An empty call clears the defaults.
func (s *Session) SetTo(addrs ...string) error {
	return s.edit(func() { s.overrides.To = Replace(addrs...) })
}

// SetCC makes addrs the CC list. An empty call clears the defaults.
func (s *Session) SetCC(addrs ...string) error {
	return s.edit(func() { s.overrides.CC = Replace(addrs...) })
}

// ResetTo drops the operator's To list so the template defaults apply again.
func (s *Session) ResetTo() error {
	return s.edit(func() { s.overrides.To = Keep() })
}

// ResetCC drops the operator's CC list so the template defaults apply again.
func (s *Session) ResetCC() error {
	return s.edit(func() { s.overrides.CC = Keep() })
}

// AddTo appends addr to the current To list.
func (s *Session) AddTo(addr string) error {
	return s.edit(func() {
		cur := resolveRole(s.defaults.To, s.overrides.To)
		s.overrides.To = Replace(append(cur, addr)...)
	})
}

// AddCC appends addr to the current CC list.
func (s *Session) AddCC(addr string) error {
	return s.edit(func() {
		cur := resolveRole(s.defaults.CC, s.overrides.CC)
		s.overrides.CC = Replace(append(cur, addr)...)
	})
}

// RemoveTo drops addr (compared case-insensitively) from the current To list.
func (s *Session) RemoveTo(addr string) error {
	return s.edit(func() {
		s.overrides.To = Replace(without(resolveRole(s.defaults.To, s.overrides.To), addr)...)
	})
}

// RemoveCC drops addr (compared case-insensitively) from the current CC list.
func (s *Session) RemoveCC(addr string) error {
	return s.edit(func() {
		s.overrides.CC = Replace(without(resolveRole(s.defaults.CC, s.overrides.CC), addr)...)
	})
}

func without(addrs []string, addr string) []string {
	key := AddressKey(addr)
	return slices.DeleteFunc(addrs, func(a string) bool { return AddressKey(a) == key })
}

// Bind sets a variable value. Binding a reserved name overrides its auto-fill value.
func (s *Session) Bind(name, value string) error {
	name = strings.TrimSpace(name)
	return s.edit(func() { s.user[name] = value })
}

// BindAll sets several variable values at once.
func (s *Session) BindAll(b Bindings) error {
	return s.edit(func() {
		for k, v := range b {
			s.user[strings.TrimSpace(k)] = v
		}
	})
}

// Variables returns the classified variables found at selection time.
func (s *Session) Variables() Classification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Classification{
		AutoFill: slices.Clone(s.classes.AutoFill),
		UserFill: slices.Clone(s.classes.UserFill),
	}
}

// Bindings returns the effective bindings: auto-fill values overlaid by operator values.
func (s *Session) Bindings() Bindings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bindings()
}

func (s *Session) bindings() Bindings {
	b := make(Bindings, len(s.auto)+len(s.user))
	maps.Copy(b, s.auto)
	maps.Copy(b, s.user)
	return b
}

// Recipients returns the current To and CC lists.
func (s *Session) Recipients() Recipients {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ResolveRecipients(s.defaults, s.overrides)
}

// TemplateID returns the selected template id, empty for a blank composition.
func (s *Session) TemplateID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.templateID
}

// TemplateName returns the selected template name.
func (s *Session) TemplateName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.templateName
}

// Draft renders the composition without changing state.
func (s *Session) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft()
}

func (s *Session) draft() Draft {
	b := s.bindings()
	subject, body := RenderMessage(s.subject, s.body, b)
	rec := ResolveRecipients(s.defaults, s.overrides)
	return Draft{
		TemplateID: s.templateID,
		To:         rec.To,
		CC:         rec.CC,
		Subject:    subject,
		Body:       body,
		Missing:    s.missing(b),
	}
}

func (s *Session) missing(b Bindings) []string {
	var out []string
	for _, name := range s.classes.UserFill {
		if strings.TrimSpace(b[name]) == "" {
			out = append(out, name)
		}
	}
	return out
}

// changed snapshots the draft for the live preview. The returned func must be
// called without s.mu held.
func (s *Session) changed() func() {
	fn := s.onChange
	if fn == nil {
		return func() {}
	}
	d := s.draft()
	return func() { fn(d) }
}

// Preview renders the composition and moves it to Previewed. It may be called
// any number of times.
func (s *Session) Preview() (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkActive(); err != nil {
		return Draft{}, err
	}
	from := s.state
	s.state = StatePreviewed
	if from != s.state {
		s.logTransition(from)
	}
	return s.draft(), nil
}

// Validate runs the pre-send checks without sending.
func (s *Session) Validate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkActive(); err != nil {
		return err
	}
	return s.validate(s.draft())
}

func (s *Session) validate(d Draft) error {
	verr := &ValidationError{}
	if len(d.To) == 0 {
		verr.add("to", ErrNoRecipients)
	}
	if bad := invalidAddresses(d.To, d.CC); len(bad) > 0 {
		verr.add("recipients", ErrInvalidAddress, bad...)
	}
	if strings.TrimSpace(d.Subject) == "" {
		verr.add("subject", ErrNoSubject)
	}
	if strings.TrimSpace(d.Body) == "" {
		verr.add("body", ErrNoBody)
	}
	if len(d.Missing) > 0 {
		verr.add("variables", ErrUnboundVariables, d.Missing...)
	}
	return verr.orNil()
}

// Send validates, renders and hands the message to the transport. A validation
// failure leaves the state untouched and never reaches the transport. A
// transport failure moves the session to Failed with every field preserved,
// so Send may simply be called again. Caller cancellation does not interrupt
// a send that has already been issued.
func (s *Session) Send(ctx context.Context) (SendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkActive(); err != nil {
		return SendResult{}, err
	}

	d := s.draft()
	if err := s.validate(d); err != nil {
		s.log.InfoContext(ctx, "composition rejected", slog.String("error", err.Error()))
		return SendResult{}, err
	}

	msg := Message{
		TemplateID: s.templateID,
		To:         d.To,
		CC:         d.CC,
		Subject:    d.Subject,
		Body:       d.Body,
		Variables:  s.bindings(),
		Sender:     s.identity,
	}

	res := s.transport.Send(context.WithoutCancel(ctx), msg)
	from := s.state
	if !res.Success {
		s.state = StateFailed
		s.failure = res.Message
		s.logTransition(from)
		s.log.WarnContext(ctx, "send failed", slog.String("message", res.Message))
		return res, &TransportError{Message: res.Message}
	}

	s.state = StateSent
	s.failure = ""
	s.result = &res
	s.logTransition(from)
	s.log.InfoContext(ctx, "message sent",
		slog.String("template_id", s.templateID),
		slog.String("message_id", res.MessageID),
		slog.Int("to", len(msg.To)),
		slog.Int("cc", len(msg.CC)),
	)
	return res, nil
}

func (s *Session) logTransition(from State) {
	s.log.Debug("composition state changed",
		slog.String("from", from.String()),
		slog.String("to", s.state.String()),
	)
}
