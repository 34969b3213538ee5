package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTokenURL is Discord's OAuth2 token endpoint.
const DefaultTokenURL = "https://discord.com/api/oauth2/token"

// Config holds the OAuth application credentials. The secret stays on the
// server; clients only ever send an authorization code.
type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Timeout      time.Duration
}

// APIError is returned when Discord answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discord returned status code: %d, response: %s", e.StatusCode, string(e.Body))
}

// Client exchanges OAuth authorization codes for access tokens.
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient creates a token exchange client.
func NewClient(cfg Config) *Client {
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// ExchangeCode trades an authorization code for Discord's token response,
// returned verbatim.
func (c *Client) ExchangeCode(ctx context.Context, code string) (json.RawMessage, error) {
	form := url.Values{}
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: asJSON(body)}
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("discord returned a non-JSON token response")
	}
	return json.RawMessage(body), nil
}

// asJSON keeps a JSON body as is and quotes anything else as a JSON string.
func asJSON(body []byte) json.RawMessage {
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, _ := json.Marshal(string(body))
	return json.RawMessage(quoted)
}
