// Package provider defines the interface for email delivery backends.
package provider

import (
	"context"

	"github.com/prateekraj3711-alt/onboarding-bot/internal/email"
)

// Provider is the interface that email delivery backends must implement.
// Each provider handles the actual transmission of a composed onboarding
// email to the outside world (SMTP relay, AWS SES, stdout for development).
type Provider interface {
	// Send delivers an email message through this provider.
	// It returns an error if the delivery fails.
	Send(ctx context.Context, msg *email.Email) error

	// Name returns the human-readable name of this provider.
	Name() string
}
