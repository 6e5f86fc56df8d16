package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomychi/anhelo-dashboard-sub001/internal/platform/httpx"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/services"
)

// ExportHandlers exposes ledger CSV exports to the back office.
type ExportHandlers struct {
	exports services.ExportService
}

// NewExportHandlers constructs the export handlers.
func NewExportHandlers(exports services.ExportService) *ExportHandlers {
	return &ExportHandlers{exports: exports}
}

// Routes registers export endpoints under the provided router.
func (h *ExportHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/exports/orders", h.exportOrders)
	r.Post("/exports/expenses", h.exportExpenses)
}

func (h *ExportHandlers) exportOrders(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, h.exports.ExportOrders)
}

func (h *ExportHandlers) exportExpenses(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, h.exports.ExportExpenses)
}

func (h *ExportHandlers) export(w http.ResponseWriter, r *http.Request, run func(ctx context.Context, from, to time.Time) (services.ExportResult, error)) {
	ctx := r.Context()
	if h.exports == nil {
		httpx.WriteError(ctx, w, httpx.NewError("exports_unavailable", "exports are disabled", http.StatusServiceUnavailable))
		return
	}

	from, err := parseDateParam(r.URL.Query().Get("from"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "from must be an ISO date", http.StatusBadRequest))
		return
	}
	to, err := parseDateParam(r.URL.Query().Get("to"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "to must be an ISO date", http.StatusBadRequest))
		return
	}

	result, err := run(ctx, from, to)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"bucket": result.Bucket,
		"object": result.Object,
		"rows":   result.Rows,
	})
}
