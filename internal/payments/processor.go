// Package payments wraps the card payment processor.
package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// ErrNotConfigured is returned when no processor key is set.
var ErrNotConfigured = errors.New("payment processor not configured")

// Processor creates payment intents and returns their client secret.
// Amounts are in the currency's minor unit.
type Processor interface {
	CreateIntent(ctx context.Context, amount int64, currency string) (string, error)
}

type StripeProcessor struct {
	sc *client.API
}

// NewStripe returns nil when key is empty so callers can report ErrNotConfigured.
func NewStripe(key string) *StripeProcessor {
	if key == "" {
		return nil
	}
	return &StripeProcessor{sc: client.New(key, nil)}
}

func (p *StripeProcessor) CreateIntent(ctx context.Context, amount int64, currency string) (string, error) {
	if p == nil {
		return "", ErrNotConfigured
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	pi, err := p.sc.PaymentIntents.New(params)
	if err != nil {
		return "", fmt.Errorf("create payment intent: %w", err)
	}
	return pi.ClientSecret, nil
}
