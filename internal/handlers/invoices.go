package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomychi/anhelo-dashboard-sub001/internal/platform/httpx"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/services"
)

// InvoiceHandlers exposes synthetic invoice batch generation to the back office.
type InvoiceHandlers struct {
	billing services.BillingService
}

// NewInvoiceHandlers constructs the invoice handlers.
func NewInvoiceHandlers(billing services.BillingService) *InvoiceHandlers {
	return &InvoiceHandlers{billing: billing}
}

// Routes registers invoice endpoints under the provided router.
func (h *InvoiceHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/invoices/batches", h.generateBatch)
}

type generateBatchRequest struct {
	Total int    `json:"total"`
	Count int    `json:"count"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Date  string `json:"date"`
}

func (h *InvoiceHandlers) generateBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req generateBatchRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var date time.Time
	if req.Date != "" {
		parsed, err := parseDateParam(req.Date)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "date must be an ISO date", http.StatusBadRequest))
			return
		}
		date = parsed
	}

	amounts, err := h.billing.GenerateBatch(ctx, services.GenerateBatchCommand{
		Total: req.Total,
		Count: req.Count,
		Min:   req.Min,
		Max:   req.Max,
		Date:  date,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"amounts": amounts,
		"count":   len(amounts),
		"total":   req.Total,
	})
}
