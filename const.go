package mailpool

import "time"

const (
	// DefaultMaxConcurrency caps the number of simultaneous outbound
	// connections when none is configured.
	DefaultMaxConcurrency = 2

	// DefaultDrainTimeout bounds how long Close waits for in-flight and
	// queued mail before abandoning it.
	DefaultDrainTimeout = 5 * time.Second

	defaultErrorChannelSize = 100
)

// Status is the lifecycle state of an Envelope.
type Status int32

const (
	// StatusPending means the envelope is queued, waiting for a worker.
	StatusPending Status = iota
	// StatusInFlight means a worker owns the envelope and is transmitting it.
	StatusInFlight
	// StatusSucceeded is terminal: the transmission completed.
	StatusSucceeded
	// StatusFailed is terminal: the transport reported an error.
	StatusFailed
	// StatusAborted is terminal: the pool gave up on the envelope during
	// drain before it could be delivered.
	StatusAborted
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusInFlight:
		return "in-flight"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusAborted
}
