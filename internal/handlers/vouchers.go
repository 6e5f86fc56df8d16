package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomychi/anhelo-dashboard-sub001/internal/platform/httpx"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/services"
)

// VoucherHandlers exposes voucher campaign management to the back office.
type VoucherHandlers struct {
	vouchers services.VoucherService
}

// NewVoucherHandlers constructs the voucher handlers.
func NewVoucherHandlers(vouchers services.VoucherService) *VoucherHandlers {
	return &VoucherHandlers{vouchers: vouchers}
}

// Routes registers voucher endpoints under the provided router.
func (h *VoucherHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/vouchers/campaigns", h.createCampaign)
}

type createCampaignRequest struct {
	Titulo string `json:"titulo"`
	Count  int    `json:"count"`
	Date   string `json:"date"`
}

func (h *VoucherHandlers) createCampaign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createCampaignRequest
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

	result, err := h.vouchers.CreateCampaign(ctx, services.CreateCampaignCommand{
		Titulo: req.Titulo,
		Count:  req.Count,
		Date:   date,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"titulo": result.Titulo,
		"key":    result.Key,
		"codes":  result.Codes,
	})
}
