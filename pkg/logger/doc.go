// Package logger builds the application's slog logger: JSON or text output,
// a configurable level, context-extracted attributes and optional Sentry
// fan-out.
//
// Context extractors run on every log call:
//
//	log := logger.New(logger.AccountID, logger.CompositionID)
//	ctx = logger.WithAccountID(ctx, "acc-1")
//	log.InfoContext(ctx, "message sent")
//	// {"level":"INFO","msg":"message sent","account_id":"acc-1"}
//
// With a Sentry DSN configured, warnings and errors are also forwarded to
// Sentry; errors create issues. An empty DSN or a failed Sentry init falls
// back to local output only.
package logger
