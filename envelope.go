package mailpool

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/Cayan-LLC/syslog4net/pkg/transports"
)

// Callback is invoked exactly once when an envelope reaches a terminal
// state. err is nil on successful delivery. The callback runs on a worker or
// drain goroutine, never under the pool lock, so it may call back into the
// pool (including Send).
type Callback func(env *Envelope, err error)

// Envelope is the handle returned from Send. It carries one outbound mail
// from submission through delivery or failure. The pool owns the envelope
// while it is queued or in flight and drops its reference once the terminal
// state is reached.
type Envelope struct {
	mail      *transports.Mail
	callback  Callback
	submitted time.Time

	status atomic.Int32

	// err is written once, before done is closed; readers must gate on
	// Done().
	err  error
	done chan struct{}
}

func newEnvelope(mail *transports.Mail, cb Callback) *Envelope {
	return &Envelope{
		mail:      mail,
		callback:  cb,
		submitted: time.Now(),
		done:      make(chan struct{}),
	}
}

// Mail returns the payload this envelope carries.
func (e *Envelope) Mail() *transports.Mail {
	return e.mail
}

// Status returns the current lifecycle state.
func (e *Envelope) Status() Status {
	return Status(e.status.Load())
}

// Done returns a channel closed when the envelope reaches a terminal state.
func (e *Envelope) Done() <-chan struct{} {
	return e.done
}

// Err returns the terminal error, nil before completion or on success.
func (e *Envelope) Err() error {
	select {
	case <-e.done:
		return e.err
	default:
		return nil
	}
}

// markInFlight records the hand-off to a worker. Only the pool calls this,
// under its dispatch lock discipline.
func (e *Envelope) markInFlight() {
	e.status.CompareAndSwap(int32(StatusPending), int32(StatusInFlight))
}

// complete attempts the transition into a terminal state. It returns false
// when another path already completed the envelope, which is how the drain
// abort and a racing transport result settle on exactly one outcome. The
// callback is NOT invoked here; the pool does that after recording the
// terminal state.
func (e *Envelope) complete(err error) bool {
	terminal := StatusSucceeded
	switch {
	case err == nil:
	case errors.Is(err, ErrAborted):
		terminal = StatusAborted
	default:
		terminal = StatusFailed
	}

	for {
		current := Status(e.status.Load())
		if current.Terminal() {
			return false
		}
		if e.status.CompareAndSwap(int32(current), int32(terminal)) {
			e.err = err
			close(e.done)
			return true
		}
	}
}
