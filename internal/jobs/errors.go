package jobs

import "errors"

// Store errors.
var (
	ErrJobNotFound       = errors.New("acquisition job not found")
	ErrInvalidTransition = errors.New("invalid job status transition")
)

// Runner errors.
var (
	ErrQueueFull     = errors.New("acquisition queue is full")
	ErrRunnerStopped = errors.New("acquisition runner is stopped")
)
