// Package job runs background tasks on a PostgreSQL-backed River queue.
//
// Tasks are typed: Name identifies the task and Handle receives the decoded
// JSON payload. All tasks share one River job kind and are dispatched by name.
//
//	m, err := job.NewManager(pool,
//		job.WithLogger(log),
//		job.WithTask[compose.LogEntry](job.NewAppendEmailLog(logs)),
//	)
//	...
//	return m.Run(ctx)
//
// Processes that only dispatch work use an Enqueuer. EmailLogQueue adapts
// either one to the mailer's log writer, so a send records its log entry
// without waiting on the database.
package job
