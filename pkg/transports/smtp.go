package transports

import (
	"context"
	"crypto/tls"
	"net"
	"net/smtp"
	"sync"

	"github.com/pkg/errors"
)

// SMTPSender is a Sender backed by one SMTP connection. The connection is
// dialed lazily on the first Send and reused for subsequent sends; on any
// protocol or transport error the connection is discarded so the next Send
// redials.
type SMTPSender struct {
	addr      string
	host      string
	localName string
	auth      smtp.Auth
	tlsConfig *tls.Config
	startTLS  bool

	mu     sync.Mutex
	conn   net.Conn
	client *smtp.Client
	closed bool
}

// SMTPOption configures an SMTPSender.
type SMTPOption func(*SMTPSender)

// WithAuth sets the authentication used after the greeting exchange.
func WithAuth(auth smtp.Auth) SMTPOption {
	return func(s *SMTPSender) { s.auth = auth }
}

// WithStartTLS upgrades the connection with STARTTLS before authenticating.
// A nil config uses the server name derived from the address.
func WithStartTLS(config *tls.Config) SMTPOption {
	return func(s *SMTPSender) {
		s.startTLS = true
		s.tlsConfig = config
	}
}

// WithLocalName sets the client name announced in EHLO. Defaults to
// "localhost" per net/smtp.
func WithLocalName(name string) SMTPOption {
	return func(s *SMTPSender) { s.localName = name }
}

// NewSMTPSender creates an SMTP sender for addr ("host:port"). No network
// activity happens until the first Send.
func NewSMTPSender(addr string, opts ...SMTPOption) (*SMTPSender, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, errors.Wrapf(err, "smtp: invalid address %q", addr)
	}
	s := &SMTPSender{addr: addr, host: host}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewSMTPFactory returns a Factory producing independent SMTP senders, one
// per pool worker.
func NewSMTPFactory(addr string, opts ...SMTPOption) Factory {
	return func() (Sender, error) {
		return NewSMTPSender(addr, opts...)
	}
}

// Send transmits one mail over the connection, dialing first if needed.
func (s *SMTPSender) Send(ctx context.Context, m *Mail) error {
	if err := m.Validate(); err != nil {
		return err
	}

	client, err := s.ensureClient(ctx)
	if err != nil {
		return err
	}

	if err := s.transmit(client, m); err != nil {
		// The session state is unknown after a failure; drop the
		// connection so the next send starts clean.
		s.discard()
		return errors.Wrapf(err, "smtp: send to %s failed", s.addr)
	}
	return nil
}

func (s *SMTPSender) transmit(client *smtp.Client, m *Mail) error {
	if err := client.Mail(m.From); err != nil {
		return err
	}
	for _, rcpt := range m.Rcpt {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	wc, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := wc.Write(m.Data); err != nil {
		wc.Close()
		return err
	}
	return wc.Close()
}

// ensureClient returns the live client, dialing and handshaking if there is
// none. The sender mutex is only held for pointer bookkeeping, never across
// network I/O involving an already-published connection.
func (s *SMTPSender) ensureClient(ctx context.Context) (*smtp.Client, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, errors.New("smtp: sender closed")
	}
	if s.client != nil {
		client := s.client
		s.mu.Unlock()
		return client, nil
	}
	s.mu.Unlock()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return nil, errors.Wrapf(err, "smtp: dial %s failed", s.addr)
	}

	// Publish the raw conn first so Close can interrupt a stalled handshake.
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return nil, errors.New("smtp: sender closed")
	}
	s.conn = conn
	s.mu.Unlock()

	client, err := s.handshake(conn)
	if err != nil {
		s.discard()
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		client.Close()
		return nil, errors.New("smtp: sender closed")
	}
	s.client = client
	s.mu.Unlock()
	return client, nil
}

func (s *SMTPSender) handshake(conn net.Conn) (*smtp.Client, error) {
	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return nil, errors.Wrapf(err, "smtp: greeting from %s failed", s.addr)
	}
	if s.localName != "" {
		if err := client.Hello(s.localName); err != nil {
			return nil, errors.Wrap(err, "smtp: EHLO failed")
		}
	}
	if s.startTLS {
		config := s.tlsConfig
		if config == nil {
			config = &tls.Config{ServerName: s.host}
		}
		if err := client.StartTLS(config); err != nil {
			return nil, errors.Wrap(err, "smtp: STARTTLS failed")
		}
	}
	if s.auth != nil {
		if err := client.Auth(s.auth); err != nil {
			return nil, errors.Wrap(err, "smtp: auth failed")
		}
	}
	return client, nil
}

// discard drops the current connection without the QUIT exchange.
func (s *SMTPSender) discard() {
	s.mu.Lock()
	client := s.client
	conn := s.conn
	s.client = nil
	s.conn = nil
	s.mu.Unlock()

	if client != nil {
		client.Close()
	} else if conn != nil {
		conn.Close()
	}
}

// Close terminates the connection without the QUIT exchange. QUIT would have
// to share the wire with a possibly in-flight Send; closing the conn directly
// is what guarantees that Send unblocks.
func (s *SMTPSender) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	client := s.client
	conn := s.conn
	s.client = nil
	s.conn = nil
	s.mu.Unlock()

	if client != nil {
		return client.Close()
	}
	if conn != nil {
		return conn.Close()
	}
	return nil
}
