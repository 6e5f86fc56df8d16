package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomychi/anhelo-dashboard-sub001/internal/platform/httpx"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/services"
)

// OrderHandlers exposes the back office order surface. Every mutation is
// keyed by (date, orderId) because orders live inside day buckets.
type OrderHandlers struct {
	orders services.OrderService
}

// NewOrderHandlers constructs the order handlers.
func NewOrderHandlers(orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{orders: orders}
}

// Routes registers order endpoints under the provided router.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/orders", h.listRange)
	r.Get("/orders/{date}", h.listDay)
	r.Post("/orders/{date}/{orderID}/accept", h.accept)
	r.Post("/orders/{date}/{orderID}/elaborate", h.markElaborated)
	r.Post("/orders/{date}/{orderID}/deliver", h.markDelivered)
	r.Post("/orders/{date}/{orderID}/pay", h.markPaid)
	r.Patch("/orders/{date}/{orderID}/address", h.editAddress)
	r.Patch("/orders/{date}/{orderID}/time", h.editTime)
	r.Patch("/orders/{date}/{orderID}/total", h.editTotal)
	r.Patch("/orders/{date}/{orderID}/delivery-method", h.editDeliveryMethod)
	r.Patch("/orders/{date}/{orderID}/courier", h.assignCourier)
	r.Patch("/orders/{date}/{orderID}/route", h.setRoute)
	r.Delete("/orders/{date}/{orderID}", h.delete)
}

func (h *OrderHandlers) listDay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}
	orders, err := h.orders.ListDay(ctx, date)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *OrderHandlers) listRange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
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
	orders, err := h.orders.ListRange(ctx, from, to)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *OrderHandlers) accept(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, h.orders.Accept)
}

func (h *OrderHandlers) markElaborated(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, h.orders.MarkElaborated)
}

func (h *OrderHandlers) markDelivered(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, h.orders.MarkDelivered)
}

func (h *OrderHandlers) markPaid(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, h.orders.MarkPaid)
}

func (h *OrderHandlers) delete(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, h.orders.Delete)
}

func (h *OrderHandlers) simpleTransition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, date time.Time, orderID string) error) {
	ctx := r.Context()
	date, orderID, ok := h.orderParams(w, r)
	if !ok {
		return
	}
	if err := op(ctx, date, orderID); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandlers) editAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date, orderID, ok := h.orderParams(w, r)
	if !ok {
		return
	}
	var req struct {
		Direccion string `json:"direccion"`
		MapURL    string `json:"mapUrl"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	if err := h.orders.EditAddress(ctx, date, orderID, req.Direccion, req.MapURL); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandlers) editTime(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date, orderID, ok := h.orderParams(w, r)
	if !ok {
		return
	}
	var req struct {
		Hora string `json:"hora"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	if err := h.orders.EditTime(ctx, date, orderID, req.Hora); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandlers) editTotal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date, orderID, ok := h.orderParams(w, r)
	if !ok {
		return
	}
	var req struct {
		Total float64 `json:"total"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	if err := h.orders.EditTotal(ctx, date, orderID, req.Total); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandlers) editDeliveryMethod(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date, orderID, ok := h.orderParams(w, r)
	if !ok {
		return
	}
	var req struct {
		DeliveryMethod string `json:"deliveryMethod"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	if err := h.orders.EditDeliveryMethod(ctx, date, orderID, req.DeliveryMethod); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandlers) assignCourier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date, orderID, ok := h.orderParams(w, r)
	if !ok {
		return
	}
	var req struct {
		Cadete string `json:"cadete"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	if err := h.orders.AssignCourier(ctx, date, orderID, req.Cadete); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandlers) setRoute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date, orderID, ok := h.orderParams(w, r)
	if !ok {
		return
	}
	var req struct {
		Kms     float64 `json:"kms"`
		Minutos float64 `json:"minutosDistancia"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	if err := h.orders.SetRoute(ctx, date, orderID, req.Kms, req.Minutos); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandlers) dateParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	date, err := parseDateParam(chi.URLParam(r, "date"))
	if err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "date must be an ISO date", http.StatusBadRequest))
		return time.Time{}, false
	}
	return date, true
}

func (h *OrderHandlers) orderParams(w http.ResponseWriter, r *http.Request) (time.Time, string, bool) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return time.Time{}, "", false
	}
	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return time.Time{}, "", false
	}
	return date, orderID, true
}
