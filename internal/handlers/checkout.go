package handlers

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/tomychi/anhelo-dashboard-sub001/internal/domain"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/payments"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/platform/httpx"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/services"
)

// CheckoutHandlers exposes the storefront order submission endpoint.
type CheckoutHandlers struct {
	orders   services.OrderService
	vouchers services.VoucherService
	provider payments.Provider
	clock    func() time.Time
	newID    func() string
}

// CheckoutOption customises checkout handler construction.
type CheckoutOption func(*CheckoutHandlers)

// NewCheckoutHandlers constructs the storefront checkout handlers.
func NewCheckoutHandlers(orders services.OrderService, vouchers services.VoucherService, provider payments.Provider, opts ...CheckoutOption) *CheckoutHandlers {
	h := &CheckoutHandlers{
		orders:   orders,
		vouchers: vouchers,
		provider: provider,
		clock:    time.Now,
		newID:    func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// WithCheckoutClock overrides the clock used to bucket new orders.
func WithCheckoutClock(clock func() time.Time) CheckoutOption {
	return func(h *CheckoutHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// WithCheckoutIDGenerator overrides the order id generator.
func WithCheckoutIDGenerator(gen func() string) CheckoutOption {
	return func(h *CheckoutHandlers) {
		if gen != nil {
			h.newID = gen
		}
	}
}

// Routes registers checkout endpoints under the provided router.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/checkout", h.submit)
	r.Post("/vouchers/redeem", h.redeemVoucher)
}

type checkoutCartItem struct {
	Burger        string   `json:"burger"`
	Toppings      []string `json:"toppings"`
	Quantity      int      `json:"quantity"`
	PriceBurger   float64  `json:"priceBurger"`
	PriceToppings float64  `json:"priceToppings"`
	SubTotal      float64  `json:"subTotal"`
}

type checkoutValues struct {
	Direccion      string `json:"direccion"`
	Referencias    string `json:"referencias"`
	Ubicacion      string `json:"ubicacion"`
	Telefono       string `json:"telefono"`
	Hora           string `json:"hora"`
	MetodoPago     string `json:"metodoPago"`
	Aclaraciones   string `json:"aclaraciones"`
	DeliveryMethod string `json:"deliveryMethod"`
}

type checkoutRequest struct {
	UpdatedValues   checkoutValues     `json:"updatedValues"`
	Cart            []checkoutCartItem `json:"cart"`
	MapURL          string             `json:"mapUrl"`
	CouponCodes     []string           `json:"couponCodes"`
	Envio           float64            `json:"envio"`
	DiscountedTotal float64            `json:"discountedTotal"`
	SuccessURL      string             `json:"successUrl"`
	CancelURL       string             `json:"cancelUrl"`
}

type checkoutResponse struct {
	OrderID     string `json:"orderId"`
	Fecha       string `json:"fecha"`
	RedirectURL string `json:"redirectUrl,omitempty"`
}

func (h *CheckoutHandlers) submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req checkoutRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	if len(req.Cart) == 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "cart must contain at least one item", http.StatusBadRequest))
		return
	}

	if !h.redeemCoupons(ctx, w, req.CouponCodes) {
		return
	}

	now := h.clock()
	orderID := h.newID()
	lat, lng := services.ExtractMapCoords(req.MapURL)

	order := services.Order{
		ID:                     orderID,
		Total:                  req.DiscountedTotal,
		Envio:                  req.Envio,
		Items:                  make([]domain.Item, 0, len(req.Cart)),
		PendingOfBeingAccepted: true,
		Hora:                   req.UpdatedValues.Hora,
		Direccion:              req.UpdatedValues.Direccion,
		Ubicacion:              req.UpdatedValues.Ubicacion,
		Referencias:            req.UpdatedValues.Referencias,
		Map:                    [2]float64{lat, lng},
		DeliveryMethod:         req.UpdatedValues.DeliveryMethod,
		Telefono:               req.UpdatedValues.Telefono,
		MetodoPago:             req.UpdatedValues.MetodoPago,
		Aclaraciones:           req.UpdatedValues.Aclaraciones,
		CouponCodes:            req.CouponCodes,
	}
	var subTotal float64
	for _, item := range req.Cart {
		order.Items = append(order.Items, domain.Item{
			Burger:        item.Burger,
			Toppings:      item.Toppings,
			Quantity:      item.Quantity,
			PriceBurger:   item.PriceBurger,
			PriceToppings: item.PriceToppings,
			SubTotal:      item.SubTotal,
		})
		subTotal += item.SubTotal
	}
	order.SubTotal = subTotal

	// The payment preference is created first: an order only enters the
	// ledger once the PSP accepted the session.
	redirectURL := ""
	if h.requiresPreference(order.MetodoPago) {
		preference, err := h.provider.CreatePreference(ctx, payments.PreferenceRequest{
			ExternalReference: orderID,
			Amount:            toCents(req.DiscountedTotal),
			SuccessURL:        req.SuccessURL,
			CancelURL:         req.CancelURL,
			PayerPhone:        order.Telefono,
			IdempotencyKey:    orderID,
			Items:             preferenceItems(req),
		})
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("payment_unavailable", "could not create the payment preference", http.StatusBadGateway))
			return
		}
		redirectURL = preference.RedirectURL
	}

	created, err := h.orders.Create(ctx, now, order)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, checkoutResponse{
		OrderID:     created.ID,
		Fecha:       created.Fecha,
		RedirectURL: redirectURL,
	})
}

func (h *CheckoutHandlers) redeemCoupons(ctx context.Context, w http.ResponseWriter, codes []string) bool {
	if h.vouchers == nil {
		return true
	}
	for _, code := range codes {
		if strings.TrimSpace(code) == "" {
			continue
		}
		if _, err := h.vouchers.Redeem(ctx, code); err != nil {
			writeServiceError(ctx, w, err)
			return false
		}
	}
	return true
}

func (h *CheckoutHandlers) requiresPreference(metodoPago string) bool {
	if h.provider == nil {
		return false
	}
	return !strings.EqualFold(strings.TrimSpace(metodoPago), "efectivo")
}

func preferenceItems(req checkoutRequest) []payments.PreferenceLineItem {
	items := make([]payments.PreferenceLineItem, 0, len(req.Cart)+1)
	for _, item := range req.Cart {
		quantity := int64(item.Quantity)
		if quantity < 1 {
			quantity = 1
		}
		items = append(items, payments.PreferenceLineItem{
			Name:       item.Burger,
			Quantity:   quantity,
			UnitAmount: toCents(item.PriceBurger + item.PriceToppings),
		})
	}
	if req.Envio > 0 {
		items = append(items, payments.PreferenceLineItem{
			Name:       "Envio",
			Quantity:   1,
			UnitAmount: toCents(req.Envio),
		})
	}
	return items
}

// toCents converts a decimal amount to integer cents. Rounding matters:
// binary floats put values like 19.99*100 just below the integer and a bare
// conversion would truncate a cent away.
func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

type redeemRequest struct {
	Code string `json:"code"`
}

func (h *CheckoutHandlers) redeemVoucher(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.vouchers == nil {
		httpx.WriteError(ctx, w, httpx.NewError("vouchers_unavailable", "voucher redemption is disabled", http.StatusServiceUnavailable))
		return
	}

	var req redeemRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	result, err := h.vouchers.Redeem(ctx, req.Code)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"codigo": result.Codigo,
		"titulo": result.Titulo,
	})
}
