package mailpool

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/Cayan-LLC/syslog4net/pkg/transports"
)

// worker is one capacity slot: a goroutine owning at most one live outbound
// connection, transmitting one envelope at a time. Workers are created on
// demand by Send and retire themselves the moment the queue is empty.
type worker struct {
	id   int64
	pool *Pool

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sender   transports.Sender
	current  *Envelope
	disposed bool
}

func (p *Pool) newWorkerLocked() *worker {
	p.nextWorkerID++
	w := &worker{
		id:   p.nextWorkerID,
		pool: p,
	}
	w.ctx, w.cancel = context.WithCancel(context.Background())
	return w
}

// run is the worker goroutine body. It delivers the first envelope, then
// keeps pulling from the pool's queue until the queue is empty, reusing the
// same connection for each send. When the pool retires it, the worker closes
// its sender and exits.
func (w *worker) run(first *Envelope) {
	env := first
	for {
		err := w.deliver(env)
		w.pool.finish(env, err)

		next, ok := w.pool.nextOrRetire(w)
		if !ok {
			break
		}
		env = next
	}
	w.shutdown()
}

// deliver transmits one envelope, creating the sender on first use. The
// worker mutex is held only for pointer bookkeeping; the send itself runs
// unlocked so dispose can interrupt it.
func (w *worker) deliver(env *Envelope) error {
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return ErrAborted
	}
	sender := w.sender
	w.mu.Unlock()

	if sender == nil {
		created, err := w.pool.factory()
		if err != nil {
			return errors.Wrap(err, "creating transport sender")
		}

		w.mu.Lock()
		if w.disposed {
			w.mu.Unlock()
			created.Close()
			return ErrAborted
		}
		w.sender = created
		w.mu.Unlock()
		sender = created
	}

	w.mu.Lock()
	w.current = env
	w.mu.Unlock()

	err := sender.Send(w.ctx, env.mail)

	w.mu.Lock()
	w.current = nil
	w.mu.Unlock()

	return err
}

// dispose forcibly tears the worker down: cancels its context, closes the
// sender to unblock any in-flight send, and aborts the envelope it was
// carrying. Called by the pool when a drain times out. The envelope abort
// and the unblocked send race; Envelope.complete lets exactly one win.
func (w *worker) dispose() {
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return
	}
	w.disposed = true
	sender := w.sender
	current := w.current
	w.mu.Unlock()

	w.cancel()
	if sender != nil {
		sender.Close()
	}
	if current != nil {
		w.pool.finish(current, ErrAborted)
	}
}

// shutdown releases the connection on the normal retirement path.
func (w *worker) shutdown() {
	w.mu.Lock()
	sender := w.sender
	w.sender = nil
	disposed := w.disposed
	w.mu.Unlock()

	w.cancel()
	if sender != nil && !disposed {
		if err := sender.Close(); err != nil {
			w.pool.reportError("close", "closing transport sender", err)
		}
	}
}
