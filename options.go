package mailpool

import (
	"time"

	"github.com/Cayan-LLC/syslog4net/pkg/transports"
)

// Config holds the pool configuration.
type Config struct {
	// MaxConcurrency caps the number of simultaneous outbound connections.
	MaxConcurrency int

	// Factory creates the transport sender each worker uses.
	Factory transports.Factory

	// DrainTimeout is the grace period Close grants outstanding mail.
	DrainTimeout time.Duration

	// DeadLetterPath, when set, enables the flock-guarded spool file for
	// mail that fails or is aborted.
	DeadLetterPath string

	// ErrorHandler receives operational errors (transport failures, spool
	// write failures, drain timeouts).
	ErrorHandler ErrorHandler
}

// Option is a functional option for configuring a Pool.
type Option func(*Config) error

// WithTransport sets the sender factory.
func WithTransport(factory transports.Factory) Option {
	return func(c *Config) error {
		if factory == nil {
			return NewConfigError(ErrNoTransport)
		}
		c.Factory = factory
		return nil
	}
}

// WithSMTP configures an SMTP transport for addr ("host:port").
func WithSMTP(addr string, opts ...transports.SMTPOption) Option {
	return func(c *Config) error {
		c.Factory = transports.NewSMTPFactory(addr, opts...)
		return nil
	}
}

// WithNATS configures a NATS relay transport.
func WithNATS(url, subject string) Option {
	return func(c *Config) error {
		c.Factory = transports.NewNATSFactory(url, subject)
		return nil
	}
}

// WithMaxConcurrency sets the concurrency cap.
func WithMaxConcurrency(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return NewConfigError(ErrInvalidConcurrency).
				WithContext("max_concurrency", n)
		}
		c.MaxConcurrency = n
		return nil
	}
}

// WithDrainTimeout sets the default grace period used by Close.
func WithDrainTimeout(d time.Duration) Option {
	return func(c *Config) error {
		c.DrainTimeout = d
		return nil
	}
}

// WithDeadLetter enables the dead-letter spool at path.
func WithDeadLetter(path string) Option {
	return func(c *Config) error {
		c.DeadLetterPath = path
		return nil
	}
}

// WithErrorHandler sets the operational error handler.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(c *Config) error {
		c.ErrorHandler = handler
		return nil
	}
}
