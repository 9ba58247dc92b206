package logger

import "log/slog"

// NewNope returns a logger that drops everything. Library packages here
// (compose, mailer, store, job, health) fall back to it when no logger is given.
func NewNope() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
