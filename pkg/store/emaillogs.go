package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/AbhinavGupta-de/mail-trigger/pkg/compose"
	"github.com/AbhinavGupta-de/mail-trigger/pkg/job"
)

const (
	// DefaultHistoryLimit is the number of log entries ListLogs returns when no limit is given.
	DefaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

var logColumns = []string{
	"id", "owner_id", "template_id", "to_addrs", "cc_addrs", "subject", "body",
	"status", "message_id", "error", "sent_at",
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// AppendLog stores a send attempt. Storing the same entry twice reports
// job.ErrDuplicate so a retried background write is treated as done.
func (s *Store) AppendLog(ctx context.Context, e compose.LogEntry) error {
	if e.ID == "" || e.OwnerID == "" {
		return fmt.Errorf("%w: log entry needs an id and an owner", ErrInvalidInput)
	}

	query, args, err := psql.Insert("email_logs").
		Columns(logColumns...).
		Values(e.ID, e.OwnerID, e.TemplateID, nonNil(e.To), nonNil(e.CC), e.Subject, e.Body,
			string(e.Status), e.MessageID, e.Error, e.SentAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert log query: %w", err)
	}

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		err = mapError(err, "email log", e.ID)
		if errors.Is(err, ErrAlreadyExists) {
			return errors.Join(job.ErrDuplicate, err)
		}
		return err
	}
	return nil
}

// ListLogs returns the account's latest send attempts, newest first.
// A limit of zero or less means DefaultHistoryLimit.
func (s *Store) ListLogs(ctx context.Context, ownerID string, limit int) ([]compose.LogEntry, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)

	query, args, err := psql.Select(logColumns...).
		From("email_logs").
		Where(squirrel.Eq{"owner_id": ownerID}).
		OrderBy("sent_at DESC", "id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list logs query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list email logs: %w", err)
	}
	logs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (compose.LogEntry, error) {
		var (
			e      compose.LogEntry
			status string
		)
		err := row.Scan(&e.ID, &e.OwnerID, &e.TemplateID, &e.To, &e.CC, &e.Subject, &e.Body,
			&status, &e.MessageID, &e.Error, &e.SentAt)
		e.Status = compose.LogStatus(status)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("list email logs: %w", err)
	}
	return logs, nil
}
