// Package mailpool provides bounded-concurrency asynchronous mail dispatch
// for logging and alerting pipelines. Callers queue outbound mail without
// ever blocking on network I/O; a capped set of workers, each owning one
// live connection, drains the queue and reports per-message results through
// completion callbacks.
//
// Key Features:
//
//   - Non-blocking submission from any number of goroutines
//   - Strict FIFO dispatch with a fixed concurrency cap
//   - Connection reuse: a freed worker takes the next queued message
//     instead of forcing a new connection setup
//   - Workers spin up on demand and retire when the queue empties
//   - Exactly-once completion callbacks, safe to re-enter the pool
//   - Bounded best-effort drain for process shutdown
//   - SMTP and NATS relay transports, pluggable via transports.Factory
//   - Optional flock-guarded dead-letter spool for undeliverable mail
//
// Basic Usage:
//
//	pool, err := mailpool.New(
//		mailpool.WithSMTP("smtp.example.com:587"),
//		mailpool.WithMaxConcurrency(4),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pool.Close()
//
//	env, err := pool.SendMessage(&mailpool.Message{
//		From:    "alerts@example.com",
//		To:      []string{"oncall@example.com"},
//		Subject: "disk almost full",
//		Body:    "/var at 97%",
//	}, func(env *mailpool.Envelope, err error) {
//		if err != nil {
//			log.Printf("alert mail failed: %v", err)
//		}
//	})
//
// Using Builder Pattern:
//
//	pool, err := mailpool.NewBuilder().
//		WithSMTP("smtp.example.com:587").
//		WithMaxConcurrency(4).
//		WithDeadLetter("/var/spool/app/mail.dead").
//		Build()
//
// Shutdown:
//
// The host owns the pool lifecycle. Call Drain (or Close, or Shutdown with a
// context deadline) from the shutdown sequence; the call returns within the
// given grace period whether or not outstanding mail finished, and anything
// left over completes with ErrAborted.
package mailpool
