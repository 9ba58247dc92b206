package compose

import (
	"errors"
	"strings"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("compose: validation failed")

	// ErrNoRecipients indicates the final To list is empty.
	ErrNoRecipients = errors.New("at least one recipient is required")

	// ErrInvalidAddress indicates a To or CC entry is not a valid email address.
	ErrInvalidAddress = errors.New("invalid email address")

	// ErrNoSubject indicates the subject is blank.
	ErrNoSubject = errors.New("subject is required")

	// ErrNoBody indicates the body is blank.
	ErrNoBody = errors.New("body is required")

	// ErrUnboundVariables indicates one or more user-fill variables have no value.
	ErrUnboundVariables = errors.New("variables must be filled in")

	// ErrTransport matches every *TransportError.
	ErrTransport = errors.New("compose: transport failed")

	// ErrNoComposition is returned when an operation needs a template to be selected
	// (or a blank composition to be started) first.
	ErrNoComposition = errors.New("compose: no composition in progress")

	// ErrSessionClosed is returned by every mutator once the message was sent.
	ErrSessionClosed = errors.New("compose: message already sent")

	// ErrTemplateNotFound is returned by fetchers when the template does not exist
	// or is not visible to the caller.
	ErrTemplateNotFound = errors.New("compose: template not found")

	// ErrInvalidTemplate indicates a template failed its own validation.
	ErrInvalidTemplate = errors.New("compose: invalid template")
)

// FieldError describes a single failed check.
type FieldError struct {
	Field string
	Err   error
	// Names lists the offending values (addresses or variable names), if any.
	Names []string
}

func (f FieldError) String() string {
	if len(f.Names) == 0 {
		return f.Err.Error()
	}
	return f.Err.Error() + ": " + strings.Join(f.Names, ", ")
}

// ValidationError is returned before anything reaches the transport.
// It collects every failed check so the operator sees them all at once.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return strings.Join(parts, "; ")
}

// Is reports ErrValidation and any per-field sentinel.
func (e *ValidationError) Is(target error) bool {
	if target == ErrValidation {
		return true
	}
	for _, f := range e.Fields {
		if errors.Is(f.Err, target) {
			return true
		}
	}
	return false
}

// Missing returns the user-fill variable names that were not bound.
func (e *ValidationError) Missing() []string {
	for _, f := range e.Fields {
		if errors.Is(f.Err, ErrUnboundVariables) {
			return f.Names
		}
	}
	return nil
}

func (e *ValidationError) add(field string, err error, names ...string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Err: err, Names: names})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// TransportError carries the transport's own message verbatim.
type TransportError struct {
	Message string
}

func (e *TransportError) Error() string { return e.Message }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }
