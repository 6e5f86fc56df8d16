package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

// StripeLogger defines the logging contract for Stripe provider operations.
type StripeLogger func(ctx context.Context, event string, fields map[string]any)

type stripeSessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// StripeProviderConfig configures the StripeProvider.
type StripeProviderConfig struct {
	APIKey   string
	Logger   StripeLogger
	Clock    func() time.Time
	Sessions stripeSessionAPI
}

// StripeProvider implements the Provider interface using Stripe Checkout sessions.
type StripeProvider struct {
	sessions stripeSessionAPI
	clock    func() time.Time
	logger   StripeLogger
}

// NewStripeProvider constructs a Stripe Provider using the given configuration.
func NewStripeProvider(cfg StripeProviderConfig) (*StripeProvider, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" && cfg.Sessions == nil {
		return nil, errors.New("stripe: api key is required")
	}

	sessions := cfg.Sessions
	if sessions == nil {
		sc := client.New(apiKey, nil)
		sessions = sc.CheckoutSessions
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &StripeProvider{
		sessions: sessions,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// CreatePreference creates a Stripe Checkout session carrying the order id as
// the client reference, so the payment webhook can route back to the ledger.
func (p *StripeProvider) CreatePreference(ctx context.Context, req PreferenceRequest) (Preference, error) {
	if p == nil || p.sessions == nil {
		return Preference{}, errors.New("stripe: provider is not initialised")
	}
	reference := strings.TrimSpace(req.ExternalReference)
	if reference == "" {
		return Preference{}, errors.New("stripe: external reference is required")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(reference),
	}
	params.Context = ctx
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		params.SetIdempotencyKey(key)
	}

	metadata := make(map[string]string, len(req.Metadata)+1)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	metadata["external_reference"] = reference
	params.Metadata = metadata
	params.PaymentIntentData = &stripe.CheckoutSessionPaymentIntentDataParams{
		Metadata: metadata,
	}

	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "ars"
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		quantity := item.Quantity
		if quantity < 1 {
			quantity = 1
		}
		itemCurrency := strings.ToLower(strings.TrimSpace(item.Currency))
		if itemCurrency == "" {
			itemCurrency = currency
		}
		line := &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(itemCurrency),
				UnitAmount: stripe.Int64(item.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
		}
		if item.Description != "" {
			line.PriceData.ProductData.Description = stripe.String(item.Description)
		}
		lineItems = append(lineItems, line)
	}
	if len(lineItems) == 0 {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(req.Amount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Pedido " + reference),
				},
			},
		})
	}
	params.LineItems = lineItems

	session, err := p.sessions.New(params)
	if err != nil {
		p.logger(ctx, "stripe.preference_failed", map[string]any{
			"externalReference": reference,
			"error":             err.Error(),
		})
		return Preference{}, fmt.Errorf("stripe: create checkout session: %w", err)
	}

	preference := Preference{
		ID:                session.ID,
		Provider:          "stripe",
		ExternalReference: reference,
		RedirectURL:       session.URL,
	}
	if session.ExpiresAt > 0 {
		preference.ExpiresAt = time.Unix(session.ExpiresAt, 0).UTC()
	}

	p.logger(ctx, "stripe.preference_created", map[string]any{
		"sessionId":         session.ID,
		"externalReference": reference,
	})
	return preference, nil
}
