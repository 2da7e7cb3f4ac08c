package worker

import "errors"

// ErrRunnerPanic marks a job whose run panicked.
var ErrRunnerPanic = errors.New("runner panicked")
