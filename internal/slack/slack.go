// Package slack posts messages to a Slack channel via chat.postMessage.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	postMessageURL = "https://slack.com/api/chat.postMessage"
	requestTimeout = 10 * time.Second
)

// Client sends messages to one configured channel.
type Client struct {
	token      string
	channelID  string
	httpClient *http.Client
	apiURL     string
}

// NewClient creates a Client for the given bot token and channel.
func NewClient(token, channelID string) *Client {
	return &Client{
		token:      token,
		channelID:  channelID,
		httpClient: &http.Client{Timeout: requestTimeout},
		apiURL:     postMessageURL,
	}
}

// Enabled reports whether both the token and the channel are set.
func (c *Client) Enabled() bool {
	return c.token != "" && c.channelID != ""
}

type postMessageRequest struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

type postMessageResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// PostMessage sends text to the configured channel.
func (c *Client) PostMessage(ctx context.Context, text string) error {
	if !c.Enabled() {
		return errors.New("slack is not configured")
	}

	payload, err := json.Marshal(postMessageRequest{Channel: c.channelID, Text: text})
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var result postMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !result.OK {
		if result.Error == "" {
			result.Error = "unknown error"
		}
		return fmt.Errorf("slack api error: %s", result.Error)
	}
	return nil
}
