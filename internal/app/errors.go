package service

import "errors"

var (
	// ErrNotStarted is returned by async operations before Start.
	ErrNotStarted = errors.New("service not started")
	// ErrBackpressure is returned when the job queue cannot take more work.
	ErrBackpressure = errors.New("job queue is full")
)
