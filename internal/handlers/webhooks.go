package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/tomychi/anhelo-dashboard-sub001/internal/platform/httpx"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/platform/observability"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/services"
)

// WebhookHandlers receives asynchronous payment notifications from the PSP.
// The endpoint always answers 200 for payloads it cannot act on: the PSP
// retries on anything else and a malformed notification never becomes valid.
type WebhookHandlers struct {
	orders services.OrderService
	clock  func() time.Time
}

// WebhookOption customises webhook handler construction.
type WebhookOption func(*WebhookHandlers)

// NewWebhookHandlers constructs the PSP notification handlers.
func NewWebhookHandlers(orders services.OrderService, opts ...WebhookOption) *WebhookHandlers {
	h := &WebhookHandlers{
		orders: orders,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// WithWebhookClock overrides the clock used to locate the day bucket.
func WithWebhookClock(clock func() time.Time) WebhookOption {
	return func(h *WebhookHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// Routes registers webhook endpoints under the provided router.
func (h *WebhookHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/payments", h.paymentNotification)
}

type paymentNotification struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
	ExternalReference string `json:"external_reference"`
	Status            string `json:"status"`
	Payer             string `json:"payer"`
}

func (h *WebhookHandlers) paymentNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		logger.Warn("payment notification body unreadable", zap.Error(err))
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	var notification paymentNotification
	if err := json.Unmarshal(body, &notification); err != nil {
		logger.Warn("payment notification is not valid JSON", zap.Error(err))
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	reference := strings.TrimSpace(notification.ExternalReference)
	if reference == "" {
		logger.Warn("payment notification without external reference",
			zap.String("type", notification.Type),
			zap.String("paymentId", notification.Data.ID),
		)
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	if !strings.EqualFold(notification.Status, "approved") {
		logger.Info("payment notification skipped",
			zap.String("externalReference", reference),
			zap.String("status", notification.Status),
		)
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "skipped"})
		return
	}

	day := h.clock()
	err = h.orders.MarkPaid(ctx, day, reference)
	if errors.Is(err, services.ErrOrderNotFound) {
		// Payments can settle after midnight for an order taken late the
		// previous evening, so probe yesterday's bucket before giving up.
		err = h.orders.MarkPaid(ctx, day.AddDate(0, 0, -1), reference)
	}
	if err != nil {
		// Acknowledged anyway: retrying will not make the record appear.
		logger.Error("payment notification could not mark order paid",
			zap.String("externalReference", reference),
			zap.String("paymentId", notification.Data.ID),
			zap.Error(err),
		)
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "unmatched"})
		return
	}

	logger.Info("order marked paid from payment notification",
		zap.String("externalReference", reference),
		zap.String("paymentId", notification.Data.ID),
		zap.String("payer", notification.Payer),
	)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "processed"})
}
