package health

import "errors"

var (
	// ErrCheckFailed is returned by Report.Err when any check failed.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout is recorded for a check that outlived the run timeout.
	ErrCheckTimeout = errors.New("health: check timeout")
)
