// Package email sends account lifecycle notifications. It is glue, not core:
// the only design constraints are a bounded request timeout and retries with
// backoff on transient failures (5xx/429) only — a 4xx means the request
// itself is wrong and retrying cannot help.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	defaultBaseURL = "https://api.postmarkapp.com"
	requestTimeout = 10 * time.Second
	maxRetries     = 3
)

type Client struct {
	serverToken string
	fromEmail   string
	baseURL     string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func WithBaseURL(u string) Option {
	return func(cl *Client) {
		cl.baseURL = u
	}
}

func NewClient(serverToken, fromEmail string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type message struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	TextBody string `json:"TextBody"`
}

// SendWelcome notifies a newly registered account holder.
func (c *Client) SendWelcome(ctx context.Context, toEmail, username string) error {
	return c.send(ctx, message{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  "Welcome to Authcore",
		TextBody: fmt.Sprintf("Hi %s,\n\nYour account has been created.\n", username),
	})
}

// SendPasswordChanged notifies an account holder that their password was
// updated, so a hijacked change does not go unnoticed.
func (c *Client) SendPasswordChanged(ctx context.Context, toEmail, username string) error {
	return c.send(ctx, message{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  "Your password was changed",
		TextBody: fmt.Sprintf("Hi %s,\n\nYour password was just changed. If this wasn't you, contact support immediately.\n", username),
	})
}

// send posts the message, retrying with fibonacci backoff only when the
// provider answers with a transient status.
func (c *Client) send(ctx context.Context, m message) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	backoff := retry.WithMaxRetries(maxRetries, retry.NewFibonacci(500*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/email", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Postmark-Server-Token", c.serverToken)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("send email: %w", err))
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return retry.RetryableError(fmt.Errorf("email provider status %d", resp.StatusCode))
		case resp.StatusCode >= 400:
			return fmt.Errorf("email provider rejected request: status %d", resp.StatusCode)
		}
		return nil
	})
}
