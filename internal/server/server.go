// Package server implements the HTTP boundary of the onboarding bot:
// the webhook endpoints, the liveness probe, and the request handler
// that chains verification, parsing, and dispatch.
package server

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// shutdownTimeout is the maximum time to wait for in-flight requests
// during graceful shutdown.
const shutdownTimeout = 30 * time.Second

// Dispatcher sends one onboarding email. A nil return means sent.
type Dispatcher interface {
	Dispatch(ctx context.Context, toAddress, displayName string) error
}

// Notifier posts an acknowledgment message back to a Slack channel.
type Notifier interface {
	PostMessage(ctx context.Context, channel, text string) error
}

// Config holds the configuration for the webhook server.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":5000").
	ListenAddr string

	// SigningSecret verifies inbound request signatures.
	SigningSecret string

	// Dispatcher delivers onboarding emails.
	Dispatcher Dispatcher

	// Notifier posts outcomes back for mention events. May be nil in
	// tests; posting is then skipped.
	Notifier Notifier

	// TLSConfig enables HTTPS when non-nil.
	TLSConfig *tls.Config

	// Now overrides the clock used for replay-window checks. Nil means
	// time.Now.
	Now func() time.Time
}

// Server serves the Slack webhook endpoints.
type Server struct {
	config Config
	now    func() time.Time
	http   *http.Server

	// mu guards listener, which is set once serving starts.
	mu       sync.Mutex
	listener net.Listener
}

// New creates a webhook Server with the given configuration.
func New(cfg Config) *Server {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		config: cfg,
		now:    now,
	}
	s.http = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.Handler(),
		TLSConfig:         cfg.TLSConfig,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
	return s
}

// Handler returns the route table. Exposed for httptest-based tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/slack/events", s.handleEvents)
	mux.HandleFunc("/slack/command", s.handleCommand)
	mux.HandleFunc("/", s.handleNotFound)
	return mux
}

// ListenAndServe starts the server and blocks until the context is
// cancelled, then drains in-flight requests for up to 30 seconds.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	slog.Info("webhook server listening",
		"addr", ln.Addr().String(),
		"tls_enabled", s.config.TLSConfig != nil,
	)

	errCh := make(chan error, 1)
	go func() {
		if s.config.TLSConfig != nil {
			errCh <- s.http.ServeTLS(ln, "", "")
			return
		}
		errCh <- s.http.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down webhook server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown timeout reached, forcing close", "error", err)
			return s.http.Close()
		}
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// Addr returns the listener address, or empty string if not listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
