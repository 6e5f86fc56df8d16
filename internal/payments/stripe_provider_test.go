package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/stripe/stripe-go/v78"
)

type stubSessionAPI struct {
	params  *stripe.CheckoutSessionParams
	session *stripe.CheckoutSession
	err     error
}

func (s *stubSessionAPI) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	s.params = params
	if s.err != nil {
		return nil, s.err
	}
	return s.session, nil
}

func TestNewStripeProviderRequiresKey(t *testing.T) {
	if _, err := NewStripeProvider(StripeProviderConfig{}); err == nil {
		t.Fatalf("expected error without api key or sessions client")
	}
}

func TestCreatePreference(t *testing.T) {
	api := &stubSessionAPI{session: &stripe.CheckoutSession{
		ID:        "cs_123",
		URL:       "https://checkout.stripe.com/pay/cs_123",
		ExpiresAt: 1700000000,
	}}
	provider, err := NewStripeProvider(StripeProviderConfig{Sessions: api})
	if err != nil {
		t.Fatalf("NewStripeProvider failed: %v", err)
	}

	pref, err := provider.CreatePreference(context.Background(), PreferenceRequest{
		ExternalReference: "01HV5K",
		Amount:            9800,
		Items: []PreferenceLineItem{
			{Name: "Cheeseburger", Quantity: 2, UnitAmount: 4200},
			{Name: "Envio", UnitAmount: 1400},
		},
	})
	if err != nil {
		t.Fatalf("CreatePreference failed: %v", err)
	}
	if pref.ID != "cs_123" || pref.RedirectURL != "https://checkout.stripe.com/pay/cs_123" {
		t.Fatalf("unexpected preference: %+v", pref)
	}
	if pref.ExternalReference != "01HV5K" {
		t.Fatalf("unexpected external reference: %q", pref.ExternalReference)
	}

	params := api.params
	if params.ClientReferenceID == nil || *params.ClientReferenceID != "01HV5K" {
		t.Fatalf("client reference missing on session params")
	}
	if params.Metadata["external_reference"] != "01HV5K" {
		t.Fatalf("external reference missing from metadata")
	}
	if len(params.LineItems) != 2 {
		t.Fatalf("expected two line items, got %d", len(params.LineItems))
	}
	if *params.LineItems[0].PriceData.Currency != "ars" {
		t.Fatalf("expected ars default currency, got %q", *params.LineItems[0].PriceData.Currency)
	}
	if *params.LineItems[1].Quantity != 1 {
		t.Fatalf("expected quantity floor of 1")
	}
}

func TestCreatePreferenceWithoutItemsFallsBackToTotal(t *testing.T) {
	api := &stubSessionAPI{session: &stripe.CheckoutSession{ID: "cs_9"}}
	provider, _ := NewStripeProvider(StripeProviderConfig{Sessions: api})

	if _, err := provider.CreatePreference(context.Background(), PreferenceRequest{
		ExternalReference: "ref9",
		Amount:            5600,
	}); err != nil {
		t.Fatalf("CreatePreference failed: %v", err)
	}
	if len(api.params.LineItems) != 1 {
		t.Fatalf("expected synthetic line item")
	}
	if *api.params.LineItems[0].PriceData.UnitAmount != 5600 {
		t.Fatalf("expected total carried on synthetic line item")
	}
}

func TestCreatePreferenceErrors(t *testing.T) {
	api := &stubSessionAPI{err: errors.New("stripe down")}
	provider, _ := NewStripeProvider(StripeProviderConfig{Sessions: api})

	if _, err := provider.CreatePreference(context.Background(), PreferenceRequest{ExternalReference: "r"}); err == nil {
		t.Fatalf("expected session error to surface")
	}
	if _, err := provider.CreatePreference(context.Background(), PreferenceRequest{}); err == nil {
		t.Fatalf("expected error for missing external reference")
	}
}
