package mailer

import "errors"

var (
	// ErrNoRecipient indicates no recipient was specified.
	ErrNoRecipient = errors.New("mailer: email must have at least one recipient")

	// ErrNoSubject indicates no subject was provided.
	ErrNoSubject = errors.New("mailer: email must have a subject")

	// ErrNoContent indicates neither a text nor an HTML body was provided.
	ErrNoContent = errors.New("mailer: email must have content")

	// ErrLayoutNotFound indicates the layout file was not found.
	ErrLayoutNotFound = errors.New("mailer: layout not found")

	// ErrRenderFailed indicates the HTML alternative could not be rendered.
	ErrRenderFailed = errors.New("mailer: failed to render html body")

	// ErrSendFailed indicates the provider rejected or could not deliver the email.
	ErrSendFailed = errors.New("mailer: failed to send email")
)
