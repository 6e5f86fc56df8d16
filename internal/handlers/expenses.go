package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/tomychi/anhelo-dashboard-sub001/internal/platform/httpx"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/services"
)

// ExpenseHandlers exposes the purchase ledger to the back office.
type ExpenseHandlers struct {
	expenses services.ExpenseService
	newID    func() string
}

// ExpenseOption customises expense handler construction.
type ExpenseOption func(*ExpenseHandlers)

// NewExpenseHandlers constructs the expense handlers.
func NewExpenseHandlers(expenses services.ExpenseService, opts ...ExpenseOption) *ExpenseHandlers {
	h := &ExpenseHandlers{
		expenses: expenses,
		newID:    func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// WithExpenseIDGenerator overrides the expense id generator.
func WithExpenseIDGenerator(gen func() string) ExpenseOption {
	return func(h *ExpenseHandlers) {
		if gen != nil {
			h.newID = gen
		}
	}
}

// Routes registers expense endpoints under the provided router.
func (h *ExpenseHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/expenses", h.listRange)
	r.Post("/expenses/{date}", h.create)
	r.Post("/expenses/{date}/{expenseID}/pay", h.markPaid)
	r.Delete("/expenses/{date}/{expenseID}", h.delete)
}

type createExpenseRequest struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Total    float64 `json:"total"`
	Category string  `json:"category"`
}

func (h *ExpenseHandlers) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date, err := parseDateParam(chi.URLParam(r, "date"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "date must be an ISO date", http.StatusBadRequest))
		return
	}

	var req createExpenseRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	created, err := h.expenses.Create(ctx, date, services.Expense{
		ID:       h.newID(),
		Name:     req.Name,
		Quantity: req.Quantity,
		Unit:     req.Unit,
		Total:    req.Total,
		Category: req.Category,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, created)
}

func (h *ExpenseHandlers) markPaid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date, expenseID, ok := h.expenseParams(w, r)
	if !ok {
		return
	}
	if err := h.expenses.MarkPaid(ctx, date, expenseID); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ExpenseHandlers) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date, expenseID, ok := h.expenseParams(w, r)
	if !ok {
		return
	}
	if err := h.expenses.Delete(ctx, date, expenseID); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ExpenseHandlers) listRange(w http.ResponseWriter, r *http.Request) {
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
	expenses, err := h.expenses.ListRange(ctx, from, to)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"expenses": expenses})
}

func (h *ExpenseHandlers) expenseParams(w http.ResponseWriter, r *http.Request) (time.Time, string, bool) {
	date, err := parseDateParam(chi.URLParam(r, "date"))
	if err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "date must be an ISO date", http.StatusBadRequest))
		return time.Time{}, "", false
	}
	expenseID := strings.TrimSpace(chi.URLParam(r, "expenseID"))
	if expenseID == "" {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "expense id is required", http.StatusBadRequest))
		return time.Time{}, "", false
	}
	return date, expenseID, true
}
