package mailer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prateekraj3711-alt/onboarding-bot/internal/email"
)

// mockProvider implements provider.Provider for testing.
type mockProvider struct {
	lastMsg *email.Email
	sendErr error
}

func (m *mockProvider) Send(_ context.Context, msg *email.Email) error {
	m.lastMsg = msg
	return m.sendErr
}

func (m *mockProvider) Name() string {
	return "mock"
}

func TestDispatch_Success(t *testing.T) {
	t.Parallel()

	mock := &mockProvider{}
	d := New("bot@example.com", mock)

	if err := d.Dispatch(context.Background(), "jane@co.com", "Jane Smith"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if mock.lastMsg == nil {
		t.Fatal("provider was not called")
	}
	if mock.lastMsg.From != "bot@example.com" {
		t.Errorf("From: got %q, want %q", mock.lastMsg.From, "bot@example.com")
	}
	if mock.lastMsg.To != "jane@co.com" {
		t.Errorf("To: got %q, want %q", mock.lastMsg.To, "jane@co.com")
	}
	if mock.lastMsg.Subject != email.Subject {
		t.Errorf("Subject: got %q, want %q", mock.lastMsg.Subject, email.Subject)
	}
	if !strings.Contains(mock.lastMsg.TextBody, "Hi Jane Smith,") {
		t.Errorf("TextBody missing greeting: %q", mock.lastMsg.TextBody)
	}
}

func TestDispatch_TransportFailure(t *testing.T) {
	t.Parallel()

	transportErr := errors.New("connection reset")
	mock := &mockProvider{sendErr: transportErr}
	d := New("bot@example.com", mock)

	err := d.Dispatch(context.Background(), "jane@co.com", "Jane Smith")

	var dispatchErr *DispatchError
	if !errors.As(err, &dispatchErr) {
		t.Fatalf("expected *DispatchError, got %v", err)
	}
	if dispatchErr.Recipient != "jane@co.com" {
		t.Errorf("Recipient: got %q, want %q", dispatchErr.Recipient, "jane@co.com")
	}
	if dispatchErr.Reason != "transport" {
		t.Errorf("Reason: got %q, want %q", dispatchErr.Reason, "transport")
	}
	if !errors.Is(err, transportErr) {
		t.Error("DispatchError does not wrap the transport error")
	}
}
