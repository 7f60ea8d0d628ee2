// Package payment wraps the card-payment processor. Cash orders never
// touch it; card checkouts create a PaymentIntent the storefront
// confirms client-side.
package payment

import (
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"

	"github.com/finjaanapp/finjaan/internal/money"
)

type Config struct {
	SecretKey string
}

type Client struct {
	enabled bool
}

// NewClient configures the processor. An empty secret key leaves card
// payments disabled; checkout then accepts cash only.
func NewClient(cfg Config) *Client {
	if cfg.SecretKey == "" {
		return &Client{}
	}
	stripe.Key = cfg.SecretKey
	return &Client{enabled: true}
}

func (c *Client) Enabled() bool {
	return c.enabled
}

// Intent is what the storefront needs to confirm a card payment.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// CreateIntent opens a PaymentIntent for the order total. Amounts are
// already in halalas, which is Stripe's minor unit for SAR.
func (c *Client) CreateIntent(total money.Amount, orderPublicID string) (*Intent, error) {
	if !c.enabled {
		return nil, fmt.Errorf("card payments not configured")
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(total)),
		Currency: stripe.String(string(stripe.CurrencySAR)),
	}
	params.AddMetadata("order_public_id", orderPublicID)

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}
