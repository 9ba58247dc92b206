// Package health runs named dependency checks and aggregates their results.
//
// A check is any func(context.Context) error. Run executes them concurrently
// under a shared timeout and returns a Report:
//
//	report := health.Run(ctx, health.Checks{
//		"database": db.Healthcheck(pool),
//		"mailer":   senderCheck,
//	}, health.WithTimeout(3*time.Second))
//	if !report.Healthy() {
//		return report.Err()
//	}
//
// A check that does not return before the timeout is reported as failed with
// [ErrCheckTimeout]. [Report.Err] joins [ErrCheckFailed] with one error per
// failing check, sorted by name.
package health
