// Package email defines the email data model and the onboarding template.
package email

import (
	"fmt"
	"strings"
	"text/template"
)

// Subject is the subject line carried by every onboarding email.
const Subject = "Welcome to [Your Company Name]!"

// bodyTemplate is parsed once at process start; rendering only
// interpolates the recipient's display name.
var bodyTemplate = template.Must(template.New("onboarding").Parse(`Hi {{.Name}},

Welcome aboard! We're thrilled to have you with us.

Feel free to reach out if you need any help getting started.

Best,
The Team`))

// Email represents a composed message handed to a delivery provider.
type Email struct {
	From     string
	To       string
	Subject  string
	TextBody string
}

// NewOnboarding renders the onboarding template for the given recipient.
func NewOnboarding(from, to, displayName string) (*Email, error) {
	var body strings.Builder
	if err := bodyTemplate.Execute(&body, struct{ Name string }{Name: displayName}); err != nil {
		return nil, fmt.Errorf("render onboarding template: %w", err)
	}

	return &Email{
		From:     from,
		To:       to,
		Subject:  Subject,
		TextBody: body.String(),
	}, nil
}

// Render returns the message as RFC 5322 text suitable for an SMTP DATA
// payload. Headers and body are joined with CRLF line endings.
func (e *Email) Render() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", e.From)
	fmt.Fprintf(&b, "To: %s\r\n", e.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", e.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(e.TextBody, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}
