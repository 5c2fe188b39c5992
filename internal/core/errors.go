// Package core holds the small error contracts shared between service
// clients and the worker pool.
package core

// TransientError marks an error as retryable by worker implementations.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient error"
	}
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// LimitedTransientError is retryable but carries its own retry budget,
// capping the worker's configured maximum. Useful for quota errors where
// hammering the service is pointless.
type LimitedTransientError struct {
	Err     error
	Retries int
}

func (e *LimitedTransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient error"
	}
	return e.Err.Error()
}

func (e *LimitedTransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// MaxExtraRetries implements the retry-cap contract checked by the worker.
func (e *LimitedTransientError) MaxExtraRetries() int {
	if e == nil || e.Retries < 0 {
		return 0
	}
	return e.Retries
}
