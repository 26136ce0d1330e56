package llm

import (
	"errors"
	"time"
)

// RetryConfig controls how transient completion failures are retried.
type RetryConfig struct {
	MaxAttempts       int           // total attempts per request, including the first
	BackoffBase       time.Duration // delay before the first retry
	BackoffMultiplier float64       // growth factor applied per retry
	MaxBackoff        time.Duration // ceiling on any single delay
}

// DefaultRetryConfig is tuned for slow local inference endpoints:
// few attempts, generous spacing.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       2 * time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        30 * time.Second,
	}
}

// TransientError is a temporary failure that may succeed on retry.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string { return e.err.Error() }

func (e *TransientError) Unwrap() error { return e.err }

// NewTransientError wraps an error as retryable.
func NewTransientError(err error) error {
	return &TransientError{err: err}
}

// FatalError is a permanent failure that retrying cannot fix.
type FatalError struct {
	err error
}

func (e *FatalError) Error() string { return e.err.Error() }

func (e *FatalError) Unwrap() error { return e.err }

// NewFatalError wraps an error as non-retryable.
func NewFatalError(err error) error {
	return &FatalError{err: err}
}

// IsFatal reports whether err should stop the retry loop.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}
