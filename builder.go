package mailpool

import (
	"time"

	"github.com/Cayan-LLC/syslog4net/pkg/transports"
)

// Builder provides a fluent way to configure a Pool.
//
//	pool, err := mailpool.NewBuilder().
//		WithSMTP("smtp.example.com:587").
//		WithMaxConcurrency(4).
//		WithDeadLetter("/var/spool/app/mail.dead").
//		Build()
type Builder struct {
	config Config
}

// NewBuilder creates a builder with defaults applied.
func NewBuilder() *Builder {
	return &Builder{
		config: Config{
			MaxConcurrency: DefaultMaxConcurrency,
			DrainTimeout:   DefaultDrainTimeout,
		},
	}
}

// WithTransport sets the sender factory.
func (b *Builder) WithTransport(factory transports.Factory) *Builder {
	b.config.Factory = factory
	return b
}

// WithSMTP configures an SMTP transport.
func (b *Builder) WithSMTP(addr string, opts ...transports.SMTPOption) *Builder {
	b.config.Factory = transports.NewSMTPFactory(addr, opts...)
	return b
}

// WithNATS configures a NATS relay transport.
func (b *Builder) WithNATS(url, subject string) *Builder {
	b.config.Factory = transports.NewNATSFactory(url, subject)
	return b
}

// WithMaxConcurrency sets the concurrency cap.
func (b *Builder) WithMaxConcurrency(n int) *Builder {
	b.config.MaxConcurrency = n
	return b
}

// WithDrainTimeout sets the default grace period used by Close.
func (b *Builder) WithDrainTimeout(d time.Duration) *Builder {
	b.config.DrainTimeout = d
	return b
}

// WithDeadLetter enables the dead-letter spool at path.
func (b *Builder) WithDeadLetter(path string) *Builder {
	b.config.DeadLetterPath = path
	return b
}

// WithErrorHandler sets the operational error handler.
func (b *Builder) WithErrorHandler(handler ErrorHandler) *Builder {
	b.config.ErrorHandler = handler
	return b
}

// Build validates the configuration and creates the pool.
func (b *Builder) Build() (*Pool, error) {
	return NewWithConfig(&b.config)
}
