package transports

import (
	"context"

	"github.com/pkg/errors"
)

// Mail is a single outbound message: the reverse-path, the recipient list,
// and the already-encoded message body. The dispatch pool treats it as an
// opaque value; only senders look inside.
type Mail struct {
	// From is the envelope sender address (MAIL FROM).
	From string

	// Rcpt lists every envelope recipient (RCPT TO). To/Cc/Bcc distinctions
	// live in the encoded Data, not here.
	Rcpt []string

	// Data is the full RFC 5322 message, headers included.
	Data []byte
}

// Validate checks that the mail is complete enough to hand to a sender.
func (m *Mail) Validate() error {
	if m == nil {
		return errors.New("transports: nil mail")
	}
	if m.From == "" {
		return errors.New("transports: empty sender address")
	}
	if len(m.Rcpt) == 0 {
		return errors.New("transports: no recipients")
	}
	return nil
}

// Sender is a single outbound connection capable of one transmission at a
// time. The pool guarantees it never calls Send concurrently on the same
// Sender; Close may be called concurrently with an in-flight Send and must
// unblock it.
type Sender interface {
	// Send transmits one mail. It blocks until the transmission finishes or
	// fails. Implementations should honor ctx cancellation where the
	// underlying protocol allows it.
	Send(ctx context.Context, m *Mail) error

	// Close releases the connection. Safe to call while a Send is in flight
	// and safe to call more than once.
	Close() error
}

// Factory creates a new Sender. It is invoked from worker goroutines, never
// from the submitting goroutine, so it may dial.
type Factory func() (Sender, error)
