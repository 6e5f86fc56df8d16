package payments

import (
	"context"
	"time"
)

// PreferenceLineItem describes a single cart line included in a payment preference.
type PreferenceLineItem struct {
	Name        string
	Description string
	Quantity    int64
	UnitAmount  int64
	Currency    string
}

// PreferenceRequest captures the payload required to create a payment
// preference. ExternalReference carries the order id so the asynchronous
// payment notification can locate the ledger record later.
type PreferenceRequest struct {
	ExternalReference string
	Amount            int64
	Currency          string
	SuccessURL        string
	CancelURL         string
	PayerPhone        string
	Metadata          map[string]string
	IdempotencyKey    string
	Items             []PreferenceLineItem
}

// Preference represents the PSP session handed back to the storefront.
type Preference struct {
	ID                string
	Provider          string
	ExternalReference string
	RedirectURL       string
	ExpiresAt         time.Time
}

// Provider defines the contract for PSP adapters to implement.
type Provider interface {
	CreatePreference(ctx context.Context, req PreferenceRequest) (Preference, error)
}
