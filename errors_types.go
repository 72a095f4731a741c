package mailpool

import (
	"fmt"
	"time"
)

// ErrorCode classifies pool errors.
type ErrorCode int

const (
	// ErrCodeUnknown represents an unclassified error
	ErrCodeUnknown ErrorCode = iota

	// Configuration errors
	ErrCodeInvalidConfig

	// Transport errors
	ErrCodeConnect
	ErrCodeSend

	// Message assembly errors
	ErrCodeEncode

	// Lifecycle errors
	ErrCodePoolClosed
	ErrCodeAborted
	ErrCodeDrainTimeout

	// Dead-letter spool errors
	ErrCodeSpoolWrite
)

// DispatchError is a structured error with the operation and server context
// attached.
type DispatchError struct {
	Code    ErrorCode
	Op      string // Operation that failed (e.g., "send", "drain", "spool")
	Server  string // Remote address or spool path if applicable
	Err     error  // Underlying error
	Time    time.Time
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	if e.Server != "" {
		return fmt.Sprintf("[%s] %s operation failed on %s: %v",
			e.Time.Format("2006-01-02 15:04:05"), e.Op, e.Server, e.Err)
	}
	return fmt.Sprintf("[%s] %s operation failed: %v",
		e.Time.Format("2006-01-02 15:04:05"), e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Is matches either another DispatchError with the same code or the
// underlying error.
func (e *DispatchError) Is(target error) bool {
	if target == nil {
		return false
	}
	if targetErr, ok := target.(*DispatchError); ok {
		return e.Code == targetErr.Code
	}
	return e.Err != nil && e.Err == target
}

// NewDispatchError creates a new DispatchError.
func NewDispatchError(code ErrorCode, op, server string, err error) *DispatchError {
	return &DispatchError{
		Code:   code,
		Op:     op,
		Server: server,
		Err:    err,
		Time:   time.Now(),
	}
}

// WithContext attaches additional context to the error.
func (e *DispatchError) WithContext(key string, value interface{}) *DispatchError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Helper constructors for common errors

// NewConfigError creates a configuration error.
func NewConfigError(err error) *DispatchError {
	return NewDispatchError(ErrCodeInvalidConfig, "config", "", err)
}

// NewDrainTimeoutError creates the error reported when a drain deadline
// expires with work still outstanding.
func NewDrainTimeoutError(timeout time.Duration, pending int) *DispatchError {
	err := NewDispatchError(ErrCodeDrainTimeout, "drain", "",
		fmt.Errorf("drain timed out after %v with %d messages outstanding", timeout, pending))
	return err.WithContext("timeout", timeout).WithContext("pending", pending)
}

// NewSpoolWriteError creates a dead-letter spool write error.
func NewSpoolWriteError(path string, err error) *DispatchError {
	return NewDispatchError(ErrCodeSpoolWrite, "spool", path, err)
}
