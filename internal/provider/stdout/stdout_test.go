package stdout

import (
	"context"
	"strings"
	"testing"

	"github.com/prateekraj3711-alt/onboarding-bot/internal/email"
)

func TestName(t *testing.T) {
	t.Parallel()
	if got := New().Name(); got != "stdout" {
		t.Errorf("Name(): got %q, want %q", got, "stdout")
	}
}

func TestSend_PrintsMessage(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	p := NewWithWriter(&out)

	msg := &email.Email{
		From:     "bot@example.com",
		To:       "jane@co.com",
		Subject:  "Welcome",
		TextBody: "Hi Jane,\n\nWelcome aboard!",
	}

	if err := p.Send(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	printed := out.String()
	for _, want := range []string{
		"From: bot@example.com",
		"To: jane@co.com",
		"Subject: Welcome",
		"Hi Jane,",
	} {
		if !strings.Contains(printed, want) {
			t.Errorf("output missing %q in %q", want, printed)
		}
	}
}
