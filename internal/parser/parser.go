// Package parser extracts a display name and an email address from the
// free text of an onboarding command.
package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// ParseReason identifies why command text could not be parsed.
type ParseReason string

const (
	// ReasonMalformedText means the text did not contain both a name and an email.
	ReasonMalformedText ParseReason = "malformed_text"

	// ReasonInvalidEmail means the trailing token failed the email syntax check.
	ReasonInvalidEmail ParseReason = "invalid_email"
)

// ParseError is returned when command text cannot be parsed. Reason and
// Email are safe to echo back to the invoking user.
type ParseError struct {
	Reason ParseReason
	Email  string
}

func (e *ParseError) Error() string {
	if e.Email != "" {
		return fmt.Sprintf("parse command: %s (%s)", e.Reason, e.Email)
	}
	return fmt.Sprintf("parse command: %s", e.Reason)
}

// Command is a validated onboarding request. It is only constructed when
// both fields pass validation.
type Command struct {
	Name  string
	Email string
}

var (
	// mentionPattern matches bot mention tokens like <@U0LAN3SLACK>.
	mentionPattern = regexp.MustCompile(`<@[A-Z0-9]+>\s*`)

	// mailtoPattern matches Slack's autolinked addresses: <mailto:addr|label>.
	mailtoPattern = regexp.MustCompile(`<mailto:([^|>]+)\|[^>]*>`)
)

// Parse extracts a name and email from command text shaped like
// "First Last email@domain". The last whitespace-delimited token is the
// email; everything before it becomes the name. Mention tokens and Slack
// mailto autolinks are stripped first.
func Parse(text string) (Command, error) {
	clean := strings.TrimSpace(mentionPattern.ReplaceAllString(text, ""))

	// Slack rewrites typed addresses into mailto autolinks; unwrap them
	// back to the bare address before tokenizing.
	clean = mailtoPattern.ReplaceAllString(clean, "$1")

	tokens := strings.Fields(clean)
	if len(tokens) < 2 {
		return Command{}, &ParseError{Reason: ReasonMalformedText}
	}

	address := tokens[len(tokens)-1]
	if !validEmail(address) {
		return Command{}, &ParseError{Reason: ReasonInvalidEmail, Email: address}
	}

	name := strings.Join(tokens[:len(tokens)-1], " ")
	if name == "" {
		return Command{}, &ParseError{Reason: ReasonMalformedText}
	}

	return Command{Name: name, Email: address}, nil
}

// validEmail applies a syntactic check: exactly one @, a non-empty local
// part, and a domain containing at least one dot. Whitespace is already
// impossible here because the input is a single field token.
func validEmail(address string) bool {
	at := strings.Index(address, "@")
	if at <= 0 || at != strings.LastIndex(address, "@") {
		return false
	}
	domain := address[at+1:]
	if domain == "" || !strings.Contains(domain, ".") {
		return false
	}
	if strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}
	return true
}
