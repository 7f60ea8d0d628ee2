// Package notify delivers customer order notifications through an HTTP
// messaging gateway (SMS/WhatsApp bridge). Delivery is fire-and-forget:
// the core never blocks on it and failures are logged, not propagated.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/finjaanapp/finjaan/internal/model"
)

type Client struct {
	gatewayURL string
	apiKey     string
	sender     string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

type Option func(*Client)

// WithHTTPClient overrides the HTTP client, used in tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSender sets the sender id shown to the customer.
func WithSender(sender string) Option {
	return func(c *Client) { c.sender = sender }
}

// NewClient creates a gateway client. An empty gatewayURL disables
// delivery entirely (Notify becomes a no-op).
func NewClient(gatewayURL, apiKey string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		gatewayURL: gatewayURL,
		apiKey:     apiKey,
		sender:     "Finjaan",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		timeout:    30 * time.Second,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type message struct {
	To     string `json:"to"`
	Sender string `json:"sender"`
	Body   string `json:"body"`
}

// Notify sends the status message for an order in the background.
func (c *Client) Notify(o *model.Order, event string) {
	if c.gatewayURL == "" || o.CustomerPhone == "" {
		return
	}

	msg := message{
		To:     o.CustomerPhone,
		Sender: c.sender,
		Body:   bodyFor(o, event),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		if err := c.deliver(ctx, msg); err != nil {
			c.logger.Error("notification delivery failed",
				"order_id", o.ID, "event", event, "error", err)
			return
		}
		c.logger.Info("notification sent", "order_id", o.ID, "event", event)
	}()
}

func bodyFor(o *model.Order, event string) string {
	switch event {
	case "ready":
		return fmt.Sprintf("Order #%d is ready for pickup. Thank you for choosing Finjaan!", o.Number)
	case "completed":
		return fmt.Sprintf("Order #%d is complete. Total %s SAR. See you soon!", o.Number, o.Total)
	}
	return fmt.Sprintf("Order #%d update: %s", o.Number, event)
}

// deliver posts the message, retrying transient failures with fibonacci
// backoff. 4xx responses are permanent and not retried.
func (c *Client) deliver(ctx context.Context, msg message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(500*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL+"/messages", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode < 300:
			return nil
		case resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("gateway returned %d", resp.StatusCode))
		default:
			return fmt.Errorf("gateway rejected message: %d", resp.StatusCode)
		}
	})
}
