package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tomychi/anhelo-dashboard-sub001/internal/payments"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/services"
)

type stubVoucherService struct {
	redeemed    []string
	redeemErr   error
	campaignCmd services.CreateCampaignCommand
	campaignErr error
}

func (s *stubVoucherService) CreateCampaign(_ context.Context, cmd services.CreateCampaignCommand) (services.CampaignResult, error) {
	s.campaignCmd = cmd
	if s.campaignErr != nil {
		return services.CampaignResult{}, s.campaignErr
	}
	return services.CampaignResult{
		Titulo: cmd.Titulo,
		Key:    "CUMPLEANOS",
		Codes:  []string{"AAAA1111", "BBBB2222"},
	}, nil
}

func (s *stubVoucherService) Redeem(_ context.Context, code string) (services.RedemptionResult, error) {
	if s.redeemErr != nil {
		return services.RedemptionResult{}, s.redeemErr
	}
	s.redeemed = append(s.redeemed, code)
	return services.RedemptionResult{Codigo: code, Titulo: "2x1"}, nil
}

type stubPaymentsProvider struct {
	requests []payments.PreferenceRequest
	err      error
}

func (s *stubPaymentsProvider) CreatePreference(_ context.Context, req payments.PreferenceRequest) (payments.Preference, error) {
	if s.err != nil {
		return payments.Preference{}, s.err
	}
	s.requests = append(s.requests, req)
	return payments.Preference{
		ID:                "cs_1",
		Provider:          "stripe",
		ExternalReference: req.ExternalReference,
		RedirectURL:       "https://checkout.example/cs_1",
	}, nil
}

const checkoutBody = `{
	"updatedValues": {
		"direccion": "Obispo Oro 312",
		"telefono": "3584123456",
		"metodoPago": "online",
		"deliveryMethod": "delivery"
	},
	"cart": [{"burger": "Cheeseburger", "quantity": 2, "priceBurger": 4200, "subTotal": 8400}],
	"mapUrl": "https://www.google.com/maps?q=-31.42,-64.18",
	"couponCodes": ["FRESH"],
	"envio": 1400,
	"discountedTotal": 9800
}`

func newCheckoutTestRouter(orders services.OrderService, vouchers services.VoucherService, provider payments.Provider) http.Handler {
	handler := NewCheckoutHandlers(orders, vouchers, provider,
		WithCheckoutIDGenerator(func() string { return "01TEST" }),
	)
	return NewRouter(WithStoreRoutes(handler.Routes))
}

func TestCheckoutSubmit(t *testing.T) {
	orders := &stubOrderService{}
	vouchers := &stubVoucherService{}
	provider := &stubPaymentsProvider{}
	router := newCheckoutTestRouter(orders, vouchers, provider)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/store/checkout", strings.NewReader(checkoutBody)))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var body checkoutResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response does not parse: %v", err)
	}
	if body.OrderID != "01TEST" {
		t.Fatalf("unexpected order id: %q", body.OrderID)
	}
	if body.RedirectURL != "https://checkout.example/cs_1" {
		t.Fatalf("unexpected redirect: %q", body.RedirectURL)
	}

	if len(vouchers.redeemed) != 1 || vouchers.redeemed[0] != "FRESH" {
		t.Fatalf("expected coupon redemption, got %v", vouchers.redeemed)
	}
	if len(provider.requests) != 1 || provider.requests[0].ExternalReference != "01TEST" {
		t.Fatalf("expected preference with order id reference, got %+v", provider.requests)
	}
	if len(orders.created) != 1 {
		t.Fatalf("expected one persisted order, got %d", len(orders.created))
	}
	created := orders.created[0]
	if !created.PendingOfBeingAccepted {
		t.Fatalf("new orders must await acceptance")
	}
	if created.Map != [2]float64{-31.42, -64.18} {
		t.Fatalf("unexpected coords: %v", created.Map)
	}
	if created.SubTotal != 8400 || created.Total != 9800 {
		t.Fatalf("unexpected amounts: subTotal=%v total=%v", created.SubTotal, created.Total)
	}
}

func TestCheckoutSubmitRoundsCents(t *testing.T) {
	orders := &stubOrderService{}
	provider := &stubPaymentsProvider{}
	router := newCheckoutTestRouter(orders, &stubVoucherService{}, provider)

	// 19.99*100 sits just below 1999 in binary floating point.
	body := `{
		"updatedValues": {"direccion": "Obispo Oro 312", "metodoPago": "online"},
		"cart": [{"burger": "Cheeseburger", "quantity": 1, "priceBurger": 19.99}],
		"envio": 10.29,
		"discountedTotal": 30.28
	}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/store/checkout", strings.NewReader(body)))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(provider.requests) != 1 {
		t.Fatalf("expected one preference, got %d", len(provider.requests))
	}
	req := provider.requests[0]
	if req.Amount != 3028 {
		t.Fatalf("expected total of 3028 cents, got %d", req.Amount)
	}
	if len(req.Items) != 2 {
		t.Fatalf("expected burger and envio lines, got %+v", req.Items)
	}
	if req.Items[0].UnitAmount != 1999 {
		t.Fatalf("expected 1999 cents for the burger, got %d", req.Items[0].UnitAmount)
	}
	if req.Items[1].UnitAmount != 1029 {
		t.Fatalf("expected 1029 cents for envio, got %d", req.Items[1].UnitAmount)
	}
}

func TestToCents(t *testing.T) {
	cases := map[float64]int64{
		0:       0,
		19.99:   1999,
		10.29:   1029,
		4200:    420000,
		9800.55: 980055,
	}
	for amount, want := range cases {
		if got := toCents(amount); got != want {
			t.Fatalf("toCents(%v) = %d, want %d", amount, got, want)
		}
	}
}

func TestCheckoutSubmitPreferenceFailureDoesNotPersist(t *testing.T) {
	orders := &stubOrderService{}
	provider := &stubPaymentsProvider{err: errors.New("psp down")}
	router := newCheckoutTestRouter(orders, &stubVoucherService{}, provider)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/store/checkout", strings.NewReader(checkoutBody)))

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(orders.created) != 0 {
		t.Fatalf("order must not persist when the preference fails")
	}
}

func TestCheckoutSubmitCashSkipsPreference(t *testing.T) {
	orders := &stubOrderService{}
	provider := &stubPaymentsProvider{}
	router := newCheckoutTestRouter(orders, &stubVoucherService{}, provider)

	body := strings.Replace(checkoutBody, `"metodoPago": "online"`, `"metodoPago": "efectivo"`, 1)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/store/checkout", strings.NewReader(body)))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(provider.requests) != 0 {
		t.Fatalf("cash orders must not create preferences")
	}
	if len(orders.created) != 1 {
		t.Fatalf("expected persisted order")
	}
}

func TestCheckoutSubmitInvalidCouponRejects(t *testing.T) {
	orders := &stubOrderService{}
	vouchers := &stubVoucherService{redeemErr: services.ErrVoucherUsed}
	provider := &stubPaymentsProvider{}
	router := newCheckoutTestRouter(orders, vouchers, provider)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/store/checkout", strings.NewReader(checkoutBody)))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(orders.created) != 0 || len(provider.requests) != 0 {
		t.Fatalf("used coupon must stop the checkout")
	}
}

func TestCheckoutSubmitEmptyCart(t *testing.T) {
	router := newCheckoutTestRouter(&stubOrderService{}, &stubVoucherService{}, &stubPaymentsProvider{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/store/checkout", strings.NewReader(`{"cart": []}`)))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestRedeemVoucherEndpoint(t *testing.T) {
	vouchers := &stubVoucherService{}
	router := newCheckoutTestRouter(&stubOrderService{}, vouchers, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/store/vouchers/redeem", strings.NewReader(`{"code":"FRESH"}`)))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response does not parse: %v", err)
	}
	if body["codigo"] != "FRESH" || body["titulo"] != "2x1" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestRedeemVoucherNotFound(t *testing.T) {
	vouchers := &stubVoucherService{redeemErr: services.ErrVoucherNotFound}
	router := newCheckoutTestRouter(&stubOrderService{}, vouchers, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/store/vouchers/redeem", strings.NewReader(`{"code":"NOPE"}`)))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
