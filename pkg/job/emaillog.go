package job

import (
	"context"
	"errors"
	"fmt"

	"github.com/AbhinavGupta-de/mail-trigger/pkg/compose"
)

// AppendEmailLogTask is the task name of the email log writer.
const AppendEmailLogTask = "append_email_log"

// LogAppender persists email log entries.
type LogAppender interface {
	AppendLog(ctx context.Context, entry compose.LogEntry) error
}

// AppendEmailLog writes an email log entry in the background.
type AppendEmailLog struct {
	logs LogAppender
}

// NewAppendEmailLog creates the task around logs.
func NewAppendEmailLog(logs LogAppender) *AppendEmailLog {
	return &AppendEmailLog{logs: logs}
}

func (t *AppendEmailLog) Name() string { return AppendEmailLogTask }

// Handle stores the entry. Entries carry their own id, so a retried job
// that already succeeded is not an error.
func (t *AppendEmailLog) Handle(ctx context.Context, entry compose.LogEntry) error {
	if entry.ID == "" || entry.OwnerID == "" {
		return fmt.Errorf("%w: log entry without id or owner", ErrInvalidPayload)
	}
	err := t.logs.AppendLog(ctx, entry)
	if errors.Is(err, ErrDuplicate) {
		return nil
	}
	return err
}

// ErrDuplicate may be wrapped by a LogAppender to report an entry that is
// already stored.
var ErrDuplicate = errors.New("job: duplicate entry")

// Inserter enqueues jobs. Enqueuer and Manager implement it.
type Inserter interface {
	Enqueue(ctx context.Context, name string, payload any, opts ...EnqueueOption) error
}

// EmailLogQueue is a mailer log writer that defers the write to a worker.
type EmailLogQueue struct {
	jobs Inserter
	opts []EnqueueOption
}

// NewEmailLogQueue creates a log writer enqueuing through jobs.
func NewEmailLogQueue(jobs Inserter, opts ...EnqueueOption) *EmailLogQueue {
	return &EmailLogQueue{jobs: jobs, opts: opts}
}

// AppendLog enqueues the entry.
func (q *EmailLogQueue) AppendLog(ctx context.Context, entry compose.LogEntry) error {
	return q.jobs.Enqueue(ctx, AppendEmailLogTask, entry, q.opts...)
}
