// Package mailer turns a validated onboarding request into a sent email:
// it renders the template and hands the message to the delivery provider.
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prateekraj3711-alt/onboarding-bot/internal/email"
	"github.com/prateekraj3711-alt/onboarding-bot/internal/provider"
)

// DispatchError reports a failed delivery attempt. Reason and Recipient
// are for logging; the user-facing acknowledgment never includes them.
type DispatchError struct {
	Recipient string
	Reason    string
	Err       error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch to %s failed: %s", e.Recipient, e.Reason)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Dispatcher renders and transmits onboarding emails.
type Dispatcher struct {
	from     string
	provider provider.Provider
}

// New creates a Dispatcher sending from the given address through prov.
func New(from string, prov provider.Provider) *Dispatcher {
	return &Dispatcher{from: from, provider: prov}
}

// Dispatch sends one onboarding email to toAddress greeting displayName.
// A nil return means the message was handed off to the relay. Any failure
// comes back as a *DispatchError; there is no automatic retry.
func (d *Dispatcher) Dispatch(ctx context.Context, toAddress, displayName string) error {
	msg, err := email.NewOnboarding(d.from, toAddress, displayName)
	if err != nil {
		return &DispatchError{Recipient: toAddress, Reason: "render", Err: err}
	}

	slog.Info("sending onboarding email",
		"to", toAddress,
		"name", displayName,
		"provider", d.provider.Name(),
	)

	if err := d.provider.Send(ctx, msg); err != nil {
		slog.Error("onboarding email failed",
			"to", toAddress,
			"name", displayName,
			"provider", d.provider.Name(),
			"error", err,
		)
		return &DispatchError{Recipient: toAddress, Reason: "transport", Err: err}
	}

	slog.Info("onboarding email sent", "to", toAddress, "name", displayName)
	return nil
}
