package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/prateekraj3711-alt/onboarding-bot/internal/parser"
	"github.com/prateekraj3711-alt/onboarding-bot/internal/slack"
)

// maxBodySize bounds inbound request bodies. Slack payloads are small;
// anything bigger is not a legitimate webhook call.
const maxBodySize = 1 << 20

// User-facing acknowledgment strings. Parse errors echo the expected
// format; dispatch failures never expose the internal cause.
const (
	ackInvalidFormat = "❌ Invalid format. Please use: `@onboarding-bot John Doe john@example.com`"
	ackInvalidEmail  = "❌ Invalid email format: %s"
	ackSendFailed    = "❌ Failed to send email to %s (%s). Please try again or contact support."
	ackSent          = "✅ Onboarding email sent to %s (%s)"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Endpoint not found"})
}

// handleCommand serves slash-command submissions. The acknowledgment is
// returned synchronously in the response body; Slack renders it in the
// invoking channel.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	body, ok := s.verifiedBody(w, r)
	if !ok {
		return
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Malformed form body"})
		return
	}

	cmd := slack.ParseSlashCommand(form)
	slog.Info("slash command received", "command", cmd.Command, "user", cmd.UserName)

	ack := s.onboard(r.Context(), cmd.Text)
	writeJSON(w, http.StatusOK, map[string]string{
		"response_type": "in_channel",
		"text":          ack,
	})
}

// handleEvents serves the Events API callback: the one-time URL
// verification challenge and app_mention events. The outcome of a
// mention is posted back to the originating channel via the Web API.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	body, ok := s.verifiedBody(w, r)
	if !ok {
		return
	}

	cb, err := slack.DecodeEventCallback(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Malformed event payload"})
		return
	}

	switch cb.Type {
	case slack.CallbackURLVerification:
		writeJSON(w, http.StatusOK, map[string]string{"challenge": cb.Challenge})
		return

	case slack.CallbackEvent:
		if cb.Event.Type != slack.EventAppMention {
			break
		}
		slog.Info("bot mentioned", "channel", cb.Event.Channel, "user", cb.Event.User)

		ack := s.onboard(r.Context(), cb.Event.Text)
		s.notify(r.Context(), cb.Event.Channel, ack)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// onboard runs the shared parse-and-dispatch core and returns the
// user-facing acknowledgment. Both triggers (slash command and mention)
// funnel through here.
func (s *Server) onboard(ctx context.Context, text string) string {
	cmd, err := parser.Parse(text)
	if err != nil {
		var parseErr *parser.ParseError
		if errors.As(err, &parseErr) && parseErr.Reason == parser.ReasonInvalidEmail {
			return fmt.Sprintf(ackInvalidEmail, parseErr.Email)
		}
		return ackInvalidFormat
	}

	if err := s.config.Dispatcher.Dispatch(ctx, cmd.Email, cmd.Name); err != nil {
		// Cause already logged by the dispatcher; the user only sees a
		// generic failure.
		return fmt.Sprintf(ackSendFailed, cmd.Name, cmd.Email)
	}

	return fmt.Sprintf(ackSent, cmd.Name, cmd.Email)
}

// verifiedBody reads the raw body and authenticates the request. On
// failure it writes the response and returns ok=false. Verification runs
// over the exact received bytes, before any decoding.
func (s *Server) verifiedBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Unreadable body"})
		return nil, false
	}

	err = slack.VerifySignature(
		s.config.SigningSecret,
		r.Header.Get(slack.HeaderTimestamp),
		r.Header.Get(slack.HeaderSignature),
		body,
		s.now(),
	)
	if err != nil {
		var rejected *slack.RejectedError
		reason := "unknown"
		if errors.As(err, &rejected) {
			reason = string(rejected.Reason)
		}
		slog.Warn("unauthorized request", "path", r.URL.Path, "reason", reason)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return nil, false
	}

	return body, true
}

// notify posts an acknowledgment to a channel, logging but not failing
// the request if the post itself fails.
func (s *Server) notify(ctx context.Context, channel, text string) {
	if s.config.Notifier == nil || channel == "" {
		return
	}
	if err := s.config.Notifier.PostMessage(ctx, channel, text); err != nil {
		slog.Error("failed to post acknowledgment", "channel", channel, "error", err)
	}
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
