package mailpool

import "errors"

// Common errors returned by pool operations
var (
	// ErrPoolClosed is returned by Send once the pool has begun shutting
	// down.
	ErrPoolClosed = errors.New("mail pool is closed")

	// ErrAborted is the terminal error of envelopes abandoned when a drain
	// times out.
	ErrAborted = errors.New("send aborted during drain")

	// ErrInvalidConcurrency is returned when the configured maximum
	// concurrency is less than one.
	ErrInvalidConcurrency = errors.New("max concurrency must be at least 1")

	// ErrNoTransport is returned when the pool is built without a sender
	// factory.
	ErrNoTransport = errors.New("no transport factory configured")

	// ErrNilMail is returned when Send is handed a nil mail.
	ErrNilMail = errors.New("nil mail")

	// ErrNoSender is returned when a message has no sender address.
	ErrNoSender = errors.New("message has no sender address")

	// ErrNoRecipients is returned when a message has no recipients.
	ErrNoRecipients = errors.New("message has no recipients")
)
