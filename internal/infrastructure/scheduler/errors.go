package scheduler

import "errors"

var (
	// ErrJanitorRunning is returned when registering a task on a started janitor
	ErrJanitorRunning = errors.New("janitor is already running")

	// ErrInvalidInterval is returned for a non-positive sweep interval
	ErrInvalidInterval = errors.New("sweep interval must be positive")
)
