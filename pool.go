package mailpool

import (
	"context"
	"sync"
	"time"

	internalmetrics "github.com/Cayan-LLC/syslog4net/internal/metrics"
	"github.com/Cayan-LLC/syslog4net/pkg/transports"
)

// Pool dispatches outbound mail through a bounded number of concurrent
// connections. Send never blocks on network I/O: the mail is queued and a
// worker goroutine (created on demand, up to the configured maximum)
// performs the transmission and reports the result through the envelope.
//
// The queue and the active worker set are guarded by one mutex; every
// compound operation on them (enqueue + capacity check, dequeue + retire
// check) runs under that single lock so the concurrency cap holds under
// arbitrary interleavings.
type Pool struct {
	maxConcurrency int
	drainTimeout   time.Duration
	factory        transports.Factory

	mu           sync.Mutex
	queue        []*Envelope
	workers      map[*worker]struct{}
	closed       bool
	aborted      bool
	drainSignal  bool
	drained      chan struct{}
	nextWorkerID int64

	errorHandler ErrorHandler
	errorChan    chan PoolError

	spool   *DeadLetter
	metrics *internalmetrics.Collector
}

// New creates a pool from functional options. A transport factory is
// required; everything else has defaults.
func New(options ...Option) (*Pool, error) {
	config := &Config{
		MaxConcurrency: DefaultMaxConcurrency,
		DrainTimeout:   DefaultDrainTimeout,
	}
	for _, opt := range options {
		if err := opt(config); err != nil {
			return nil, err
		}
	}
	return NewWithConfig(config)
}

// NewWithConfig creates a pool from an explicit configuration.
func NewWithConfig(config *Config) (*Pool, error) {
	if config.MaxConcurrency < 1 {
		return nil, NewConfigError(ErrInvalidConcurrency).
			WithContext("max_concurrency", config.MaxConcurrency)
	}
	if config.Factory == nil {
		return nil, NewConfigError(ErrNoTransport)
	}
	drainTimeout := config.DrainTimeout
	if drainTimeout <= 0 {
		drainTimeout = DefaultDrainTimeout
	}

	p := &Pool{
		maxConcurrency: config.MaxConcurrency,
		drainTimeout:   drainTimeout,
		factory:        config.Factory,
		workers:        make(map[*worker]struct{}),
		drained:        make(chan struct{}),
		errorHandler:   config.ErrorHandler,
		metrics:        internalmetrics.NewCollector(),
	}
	if config.DeadLetterPath != "" {
		p.spool = NewDeadLetter(config.DeadLetterPath)
	}
	return p, nil
}

// Send queues one mail for asynchronous delivery and returns its envelope
// immediately. cb may be nil. Safe to call from any number of goroutines.
//
// Under one critical section the mail is appended to the FIFO queue and, if
// the worker count is below the maximum, the HEAD of the queue is dequeued
// and handed to a fresh worker. Dequeuing the head rather than the new mail
// keeps submission order intact even when capacity frees up mid-burst.
func (p *Pool) Send(mail *transports.Mail, cb Callback) (*Envelope, error) {
	if mail == nil {
		return nil, ErrNilMail
	}

	env := newEnvelope(mail, cb)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	p.queue = append(p.queue, env)

	var w *worker
	var first *Envelope
	if len(p.workers) < p.maxConcurrency {
		first = p.queue[0]
		p.queue = p.queue[1:]
		w = p.newWorkerLocked()
		p.workers[w] = struct{}{}
	}
	p.mu.Unlock()

	p.metrics.IncSubmitted()
	if w != nil {
		p.metrics.IncSpawned()
		first.markInFlight()
		go w.run(first)
	}
	return env, nil
}

// SendMessage assembles a structured message into a mail, queues it, and
// wraps the callback so that message-owned resources (attachment readers)
// are released once the envelope completes.
func (p *Pool) SendMessage(msg *Message, cb Callback) (*Envelope, error) {
	mail, closers, err := msg.Encode()
	if err != nil {
		for _, c := range closers {
			c.Close()
		}
		return nil, err
	}

	wrapped := cb
	if len(closers) > 0 {
		wrapped = func(env *Envelope, err error) {
			for _, c := range closers {
				c.Close()
			}
			if cb != nil {
				cb(env, err)
			}
		}
	}

	env, err := p.Send(mail, wrapped)
	if err != nil {
		for _, c := range closers {
			c.Close()
		}
		return nil, err
	}
	return env, nil
}

// nextOrRetire is called by a worker that just finished a send. If queued
// work remains the worker takes the head and keeps its connection alive;
// otherwise it is removed from the active set. The dequeue and the retire
// decision share the pool lock with Send so an envelope is never both queued
// and assigned.
func (p *Pool) nextOrRetire(w *worker) (*Envelope, bool) {
	p.mu.Lock()
	if !p.aborted && len(p.queue) > 0 {
		env := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()
		env.markInFlight()
		return env, true
	}

	delete(p.workers, w)
	var signal bool
	if p.closed && len(p.workers) == 0 && !p.drainSignal {
		p.drainSignal = true
		signal = true
	}
	p.mu.Unlock()

	p.metrics.IncRetired()
	if signal {
		close(p.drained)
	}
	return nil, false
}

// finish moves an envelope into a terminal state, updates accounting, spools
// undeliverable mail, and fires the callback. Exactly one caller wins the
// transition; the rest are no-ops. Runs with no pool lock held so the
// callback may re-enter the pool.
func (p *Pool) finish(env *Envelope, err error) {
	if !env.complete(err) {
		return
	}

	p.metrics.ObserveSend(time.Since(env.submitted))
	switch env.Status() {
	case StatusSucceeded:
		p.metrics.IncDelivered()
	case StatusAborted:
		p.metrics.IncAborted()
	default:
		p.metrics.IncFailed()
	}

	if err != nil {
		p.reportError("send", "mail delivery failed", err)
		if p.spool != nil {
			if werr := p.spool.Write(env.mail, err); werr != nil {
				p.reportError("spool", "writing dead letter", werr)
			} else {
				p.metrics.IncSpooled()
			}
		}
	}

	if env.callback != nil {
		p.invokeCallback(env, err)
	}
}

// invokeCallback shields the pool from a panicking continuation; one bad
// callback must not take down the worker that other envelopes depend on.
func (p *Pool) invokeCallback(env *Envelope, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.reportError("callback", "completion callback panicked",
				NewDispatchError(ErrCodeUnknown, "callback", "", nil).
					WithContext("panic", r))
		}
	}()
	env.callback(env, err)
}

// Drain stops intake and waits up to timeout for queued and in-flight mail
// to finish. On timeout, everything still queued is completed with
// ErrAborted and the remaining workers are forcibly disposed; their
// in-flight envelopes abort as well unless the transport wins the race.
// Drain always returns within roughly the given timeout.
func (p *Pool) Drain(timeout time.Duration) {
	if p.closeIntake() {
		return
	}

	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-p.drained:
			return
		case <-timer.C:
		}
	}

	p.abort(timeout)
}

// Shutdown drains the pool, bounded by the context. It returns nil when the
// pool went idle before the context expired; otherwise outstanding work is
// aborted and the context error is returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	if p.closeIntake() {
		return ctx.Err()
	}

	select {
	case <-p.drained:
		return ctx.Err()
	case <-ctx.Done():
		p.abort(p.drainTimeout)
		return ctx.Err()
	}
}

// closeIntake rejects further submissions and reports whether the pool is
// already idle. Idempotent.
func (p *Pool) closeIntake() (idle bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	idle = len(p.workers) == 0 && len(p.queue) == 0
	if idle && !p.drainSignal {
		p.drainSignal = true
		close(p.drained)
	}
	return idle
}

// abort abandons whatever is still queued or in flight. The timeout is only
// reported, not enforced here; the grace period already elapsed.
func (p *Pool) abort(timeout time.Duration) {
	p.mu.Lock()
	if p.aborted {
		p.mu.Unlock()
		return
	}
	p.aborted = true
	pending := p.queue
	p.queue = nil
	active := make([]*worker, 0, len(p.workers))
	for w := range p.workers {
		active = append(active, w)
	}
	p.mu.Unlock()

	if len(pending) > 0 || len(active) > 0 {
		p.reportError("drain", "drain timed out",
			NewDrainTimeoutError(timeout, len(pending)+len(active)))
	}
	for _, env := range pending {
		p.finish(env, ErrAborted)
	}
	for _, w := range active {
		w.dispose()
	}
}

// Close drains the pool with the configured default timeout.
func (p *Pool) Close() error {
	p.Drain(p.drainTimeout)
	return nil
}

// QueueDepth returns the number of envelopes waiting for a worker.
func (p *Pool) QueueDepth() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// ActiveWorkers returns the number of live workers.
func (p *Pool) ActiveWorkers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

// MaxConcurrency returns the configured concurrency cap.
func (p *Pool) MaxConcurrency() int {
	return p.maxConcurrency
}

// Closed reports whether the pool has begun shutting down.
func (p *Pool) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
