package slack

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// Outer callback types Slack posts to the events endpoint.
const (
	CallbackURLVerification = "url_verification"
	CallbackEvent           = "event_callback"
)

// EventAppMention is the inner event type emitted when the bot is mentioned.
const EventAppMention = "app_mention"

// SlashCommand carries the fields of a slash-command form submission.
type SlashCommand struct {
	Command  string
	Text     string
	UserName string
	Channel  string
}

// ParseSlashCommand extracts the slash-command fields from decoded form values.
func ParseSlashCommand(form url.Values) SlashCommand {
	return SlashCommand{
		Command:  form.Get("command"),
		Text:     form.Get("text"),
		UserName: form.Get("user_name"),
		Channel:  form.Get("channel_id"),
	}
}

// EventCallback is the envelope Slack posts to the events endpoint. For
// url_verification callbacks only Type and Challenge are populated.
type EventCallback struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge,omitempty"`
	Event     Event  `json:"event,omitempty"`
}

// Event is the inner event of an event_callback envelope.
type Event struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	Channel string `json:"channel"`
	User    string `json:"user"`
}

// DecodeEventCallback parses an events-endpoint JSON body.
func DecodeEventCallback(body []byte) (*EventCallback, error) {
	var cb EventCallback
	if err := json.Unmarshal(body, &cb); err != nil {
		return nil, fmt.Errorf("decode event callback: %w", err)
	}
	return &cb, nil
}
