// Package smtprelay implements a Provider that transmits email over a
// single shared, authenticated SMTP connection.
//
// The connection is the one piece of shared mutable state in the process.
// At most one send may hold it at a time; waiters are bounded by a timeout
// so a slow relay cannot stall every concurrent request. A transport
// failure marks the connection broken and the next holder dials a fresh
// one.
package smtprelay

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"github.com/prateekraj3711-alt/onboarding-bot/internal/email"
)

// dialTimeout bounds the TCP connect to the relay.
const dialTimeout = 30 * time.Second

// sendTimeout bounds one full SMTP transaction on the wire.
const sendTimeout = 2 * time.Minute

// defaultAcquireTimeout is how long a send waits for exclusive use of the
// shared connection before giving up with a transport failure.
const defaultAcquireTimeout = 10 * time.Second

// heloName identifies this client in EHLO.
const heloName = "onboarding-bot"

// Config holds the settings for the outbound relay connection.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string

	// AcquireTimeout overrides the wait bound on the shared connection.
	// Zero means the default.
	AcquireTimeout time.Duration
}

// relayClient is the subset of *smtp.Client the provider drives.
// It exists so tests can substitute a fake transport.
type relayClient interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (WriteCloser, error)
	Quit() error
	Close() error
}

// WriteCloser mirrors io.WriteCloser for the DATA payload writer.
type WriteCloser interface {
	Write(p []byte) (int, error)
	Close() error
}

// dialFunc establishes an authenticated relay connection.
type dialFunc func(ctx context.Context) (relayClient, error)

// Provider sends email through the shared relay connection.
type Provider struct {
	dial           dialFunc
	acquireTimeout time.Duration

	// sem is a capacity-1 semaphore serializing use of client. A channel
	// rather than a mutex because acquisition must be abandonable on
	// timeout or context cancellation.
	sem chan struct{}

	// client is the live connection. Only touched while holding sem.
	// nil means the next holder must dial.
	client relayClient
}

// New creates a relay provider. The connection is established lazily on
// the first send.
func New(cfg Config) *Provider {
	acquireTimeout := cfg.AcquireTimeout
	if acquireTimeout <= 0 {
		acquireTimeout = defaultAcquireTimeout
	}

	return &Provider{
		dial:           makeDialer(cfg),
		acquireTimeout: acquireTimeout,
		sem:            make(chan struct{}, 1),
	}
}

// newWithDialer creates a relay provider with a custom dialer, used for testing.
func newWithDialer(dial dialFunc, acquireTimeout time.Duration) *Provider {
	if acquireTimeout <= 0 {
		acquireTimeout = defaultAcquireTimeout
	}
	return &Provider{
		dial:           dial,
		acquireTimeout: acquireTimeout,
		sem:            make(chan struct{}, 1),
	}
}

// makeDialer returns a dialFunc that connects, negotiates STARTTLS when
// offered, and authenticates.
func makeDialer(cfg Config) dialFunc {
	return func(ctx context.Context) (relayClient, error) {
		addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
		dialer := &net.Dialer{Timeout: dialTimeout}
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", addr, err)
		}

		if err := conn.SetDeadline(time.Now().Add(sendTimeout)); err != nil {
			conn.Close()
			return nil, fmt.Errorf("set deadline: %w", err)
		}

		client, err := smtp.NewClient(conn, cfg.Host)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("new client: %w", err)
		}

		if err := client.Hello(heloName); err != nil {
			client.Close()
			return nil, fmt.Errorf("helo: %w", err)
		}

		if ok, _ := client.Extension("STARTTLS"); ok {
			tlsConf := &tls.Config{
				ServerName: cfg.Host,
				MinVersion: tls.VersionTLS12,
			}
			if err := client.StartTLS(tlsConf); err != nil {
				client.Close()
				return nil, fmt.Errorf("starttls: %w", err)
			}
		}

		if cfg.Username != "" {
			auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
			if err := client.Auth(auth); err != nil {
				client.Close()
				return nil, fmt.Errorf("auth: %w", err)
			}
		}

		return &smtpClient{client: client, conn: conn}, nil
	}
}

// Send transmits the message over the shared connection. It blocks until
// the connection is free, bounded by the acquire timeout; hitting the
// bound is reported as a transport failure, not a hang.
func (p *Provider) Send(ctx context.Context, msg *email.Email) error {
	if err := p.acquire(ctx); err != nil {
		return err
	}
	defer p.release()

	client, err := p.current(ctx)
	if err != nil {
		return err
	}

	if err := p.transmit(client, msg); err != nil {
		// The connection state after a failed transaction is unknown;
		// drop it so the next send starts from a fresh dial.
		p.invalidate()
		return err
	}

	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "smtp-relay"
}

// acquire takes the connection semaphore or fails after the wait bound.
func (p *Provider) acquire(ctx context.Context) error {
	timer := time.NewTimer(p.acquireTimeout)
	defer timer.Stop()

	select {
	case p.sem <- struct{}{}:
		return nil
	case <-timer.C:
		return fmt.Errorf("relay busy: gave up after %s waiting for connection", p.acquireTimeout)
	case <-ctx.Done():
		return fmt.Errorf("relay acquire: %w", ctx.Err())
	}
}

// release returns the connection semaphore.
func (p *Provider) release() {
	<-p.sem
}

// current returns the live connection, dialing if necessary.
// The caller must hold sem.
func (p *Provider) current(ctx context.Context) (relayClient, error) {
	if p.client != nil {
		return p.client, nil
	}

	client, err := p.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect to relay: %w", err)
	}
	p.client = client
	return client, nil
}

// invalidate closes and discards the connection. The caller must hold sem.
func (p *Provider) invalidate() {
	if p.client != nil {
		_ = p.client.Close()
		p.client = nil
	}
}

// transmit runs one MAIL/RCPT/DATA transaction.
func (p *Provider) transmit(client relayClient, msg *email.Email) error {
	if err := client.Mail(msg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data start: %w", err)
	}
	if _, err := w.Write(msg.Render()); err != nil {
		return fmt.Errorf("data write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("data close: %w", err)
	}
	return nil
}

// Close shuts down the shared connection if one is open.
func (p *Provider) Close() error {
	select {
	case p.sem <- struct{}{}:
	case <-time.After(defaultAcquireTimeout):
		return fmt.Errorf("close: connection still busy")
	}
	defer p.release()

	if p.client == nil {
		return nil
	}
	err := p.client.Quit()
	p.client = nil
	return err
}

// smtpClient adapts *smtp.Client to the relayClient interface and keeps
// the send deadline fresh per transaction.
type smtpClient struct {
	client *smtp.Client
	conn   net.Conn
}

func (c *smtpClient) Mail(from string) error {
	if err := c.conn.SetDeadline(time.Now().Add(sendTimeout)); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}
	return c.client.Mail(from)
}

func (c *smtpClient) Rcpt(to string) error {
	return c.client.Rcpt(to)
}

func (c *smtpClient) Data() (WriteCloser, error) {
	return c.client.Data()
}

func (c *smtpClient) Quit() error {
	return c.client.Quit()
}

func (c *smtpClient) Close() error {
	return c.client.Close()
}
