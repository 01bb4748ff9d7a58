package pool

import (
	"errors"
	"fmt"
)

// Error codes for pool operations
const (
	codeInvalidConfig  = "config_invalid"
	codeAcquireTimeout = "acquire_timeout"
	codeBackendConnect = "backend_connect"
	codeInvalidRelease = "invalid_release"
	codeBackendExecute = "backend_execute"
	codeConnInvalid    = "connection_invalid"
	codePoolClosed     = "pool_closed"
)

// Error constants for pool operations
var (
	// ErrInvalidConfig is returned by New when the configuration is invalid
	ErrInvalidConfig = &PoolError{code: codeInvalidConfig, msg: "invalid pool configuration"}

	// ErrAcquireTimeout is returned when no connection became available
	// within the configured connect timeout
	ErrAcquireTimeout = &PoolError{code: codeAcquireTimeout, msg: "timed out waiting for a connection"}

	// ErrBackendConnect is returned when the backend adapter failed to
	// establish a new connection
	ErrBackendConnect = &PoolError{code: codeBackendConnect, msg: "backend connect failed"}

	// ErrInvalidRelease is returned when releasing a connection that is
	// not currently in use by this pool
	ErrInvalidRelease = &PoolError{code: codeInvalidRelease, msg: "connection is not in use by this pool"}

	// ErrBackendExecute is returned when the backend adapter failed to
	// execute a query on a borrowed connection
	ErrBackendExecute = &PoolError{code: codeBackendExecute, msg: "backend execute failed"}

	// ErrConnInvalid is returned when operating on a connection handle
	// that is no longer valid
	ErrConnInvalid = &PoolError{code: codeConnInvalid, msg: "connection is no longer valid"}

	// ErrPoolClosed is returned when operating on a destroyed pool
	ErrPoolClosed = &PoolError{code: codePoolClosed, msg: "connection pool is closed"}
)

// PoolError represents a pool-specific error
type PoolError struct {
	code string
	msg  string
	err  error // wrapped error
}

// Error implements the error interface
func (e *PoolError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

// Code returns the error code
func (e *PoolError) Code() string {
	return e.code
}

// Unwrap returns the wrapped error
func (e *PoolError) Unwrap() error {
	return e.err
}

// Is checks if the error matches the target
func (e *PoolError) Is(target error) bool {
	if t, ok := target.(*PoolError); ok {
		return e.code == t.code
	}
	return false
}

// newPoolError creates a new PoolError with a formatted message
func newPoolError(code, format string, args ...interface{}) *PoolError {
	return &PoolError{
		code: code,
		msg:  fmt.Sprintf(format, args...),
	}
}

// wrapPoolError wraps an existing error with a pool error
func wrapPoolError(err error, code, format string, args ...interface{}) *PoolError {
	return &PoolError{
		code: code,
		msg:  fmt.Sprintf(format, args...),
		err:  err,
	}
}

// IsPoolError checks if an error is a PoolError
func IsPoolError(err error) bool {
	var target *PoolError
	return errors.As(err, &target)
}

// IsTimeout checks if an error indicates an acquire timeout
func IsTimeout(err error) bool {
	return errors.Is(err, ErrAcquireTimeout)
}

// IsInvalidRelease checks if an error indicates an invalid release
func IsInvalidRelease(err error) bool {
	return errors.Is(err, ErrInvalidRelease)
}
