package transports

import (
	"context"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
)

// Header names attached to relayed mail messages.
const (
	HeaderFrom = "Mail-From"
	HeaderRcpt = "Mail-Rcpt"
)

// NATSSender relays mail through a NATS subject instead of speaking SMTP
// itself; a downstream consumer performs the actual delivery. The envelope
// addressing travels in message headers, the encoded mail in the body.
type NATSSender struct {
	conn    *nats.Conn
	subject string
	owned   bool
}

// NewNATSSender wraps an existing connection. The caller keeps ownership of
// conn; Close does not close it.
func NewNATSSender(conn *nats.Conn, subject string) (*NATSSender, error) {
	if conn == nil {
		return nil, errors.New("nats: nil connection")
	}
	if subject == "" {
		return nil, errors.New("nats: empty subject")
	}
	return &NATSSender{conn: conn, subject: subject}, nil
}

// NewNATSFactory returns a Factory that connects to url and publishes to
// subject. Each pool worker gets its own connection, closed when the worker
// retires.
func NewNATSFactory(url, subject string, opts ...nats.Option) Factory {
	return func() (Sender, error) {
		conn, err := nats.Connect(url, opts...)
		if err != nil {
			return nil, errors.Wrapf(err, "nats: connect %s failed", url)
		}
		s, err := NewNATSSender(conn, subject)
		if err != nil {
			conn.Close()
			return nil, err
		}
		s.owned = true
		return s, nil
	}
}

// Send publishes the mail and waits for the server round-trip so that
// delivery failures surface here rather than in a background flush.
func (s *NATSSender) Send(ctx context.Context, m *Mail) error {
	if err := m.Validate(); err != nil {
		return err
	}

	msg := nats.NewMsg(s.subject)
	msg.Header.Set(HeaderFrom, m.From)
	for _, rcpt := range m.Rcpt {
		msg.Header.Add(HeaderRcpt, rcpt)
	}
	msg.Data = m.Data

	if err := s.conn.PublishMsg(msg); err != nil {
		return errors.Wrapf(err, "nats: publish to %s failed", s.subject)
	}
	if err := s.conn.FlushWithContext(ctx); err != nil {
		return errors.Wrap(err, "nats: flush failed")
	}
	return nil
}

// Close closes the connection when this sender owns it.
func (s *NATSSender) Close() error {
	if s.owned && !s.conn.IsClosed() {
		s.conn.Close()
	}
	return nil
}
