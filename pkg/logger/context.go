package logger

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	accountIDKey ctxKey = iota
	compositionIDKey
)

// WithAccountID stores the operator account id for log enrichment.
func WithAccountID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, accountIDKey, id)
}

// WithCompositionID stores the composition id for log enrichment.
func WithCompositionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, compositionIDKey, id)
}

// AccountID adds account_id to every record logged with a context carrying one.
func AccountID(ctx context.Context) (slog.Attr, bool) {
	return stringAttr(ctx, accountIDKey, "account_id")
}

// CompositionID adds composition_id to every record logged with a context carrying one.
func CompositionID(ctx context.Context) (slog.Attr, bool) {
	return stringAttr(ctx, compositionIDKey, "composition_id")
}

func stringAttr(ctx context.Context, key ctxKey, name string) (slog.Attr, bool) {
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return slog.String(name, v), true
	}
	return slog.Attr{}, false
}
