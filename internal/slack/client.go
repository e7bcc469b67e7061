package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// defaultAPIBaseURL is the Slack Web API root.
const defaultAPIBaseURL = "https://slack.com/api"

// requestTimeout bounds a single Web API call.
const requestTimeout = 30 * time.Second

// APIError is a Slack Web API call that returned ok=false.
type APIError struct {
	Method string
	Reason string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack %s failed: %s", e.Method, e.Reason)
}

// Client posts messages to Slack channels with a bot token.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Web API client authenticated with the given bot token.
func NewClient(token string) *Client {
	return &Client{
		token:      token,
		baseURL:    defaultAPIBaseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// newClientWithBaseURL creates a client targeting a custom API root with a
// custom HTTP client, used for testing.
func newClientWithBaseURL(token, baseURL string, httpClient *http.Client) *Client {
	return &Client{
		token:      token,
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// postMessageRequest is the chat.postMessage request body.
type postMessageRequest struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

// apiResponse is the subset of the Web API response envelope we inspect.
type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// PostMessage posts text to a channel via chat.postMessage.
func (c *Client) PostMessage(ctx context.Context, channel, text string) error {
	payload, err := json.Marshal(postMessageRequest{Channel: channel, Text: text})
	if err != nil {
		return fmt.Errorf("marshal chat.postMessage request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat.postMessage", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create chat.postMessage request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chat.postMessage request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read chat.postMessage response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("chat.postMessage returned %d: %s", resp.StatusCode, string(body))
	}

	var api apiResponse
	if err := json.Unmarshal(body, &api); err != nil {
		return fmt.Errorf("parse chat.postMessage response: %w", err)
	}
	if !api.OK {
		return &APIError{Method: "chat.postMessage", Reason: api.Error}
	}

	return nil
}
