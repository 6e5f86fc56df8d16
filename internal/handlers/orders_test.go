package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomychi/anhelo-dashboard-sub001/internal/services"
)

// stubOrderService records calls and serves canned responses for handler tests.
type stubOrderService struct {
	created     []services.Order
	createErr   error
	calls       []string
	callErr     error
	payDays     []string
	payErrByDay map[string]error
	listOrders  []services.Order
	listErr     error
}

func (s *stubOrderService) Create(_ context.Context, _ time.Time, order services.Order) (services.Order, error) {
	if s.createErr != nil {
		return services.Order{}, s.createErr
	}
	order.Fecha = "05/03/2024"
	s.created = append(s.created, order)
	return order, nil
}

func (s *stubOrderService) call(name, orderID string) error {
	if s.callErr != nil {
		return s.callErr
	}
	s.calls = append(s.calls, name+":"+orderID)
	return nil
}

func (s *stubOrderService) Accept(_ context.Context, _ time.Time, id string) error {
	return s.call("accept", id)
}
func (s *stubOrderService) MarkElaborated(_ context.Context, _ time.Time, id string) error {
	return s.call("elaborate", id)
}
func (s *stubOrderService) MarkDelivered(_ context.Context, _ time.Time, id string) error {
	return s.call("deliver", id)
}
func (s *stubOrderService) MarkPaid(_ context.Context, date time.Time, id string) error {
	day := date.Format("2006-01-02")
	s.payDays = append(s.payDays, day)
	if err, ok := s.payErrByDay[day]; ok {
		return err
	}
	return s.call("pay", id)
}
func (s *stubOrderService) EditAddress(_ context.Context, _ time.Time, id, _, _ string) error {
	return s.call("address", id)
}
func (s *stubOrderService) EditTime(_ context.Context, _ time.Time, id, _ string) error {
	return s.call("time", id)
}
func (s *stubOrderService) EditTotal(_ context.Context, _ time.Time, id string, _ float64) error {
	return s.call("total", id)
}
func (s *stubOrderService) EditDeliveryMethod(_ context.Context, _ time.Time, id, _ string) error {
	return s.call("delivery-method", id)
}
func (s *stubOrderService) AssignCourier(_ context.Context, _ time.Time, id, _ string) error {
	return s.call("courier", id)
}
func (s *stubOrderService) SetRoute(_ context.Context, _ time.Time, id string, _, _ float64) error {
	return s.call("route", id)
}
func (s *stubOrderService) Delete(_ context.Context, _ time.Time, id string) error {
	return s.call("delete", id)
}

func (s *stubOrderService) ListDay(context.Context, time.Time) ([]services.Order, error) {
	return s.listOrders, s.listErr
}

func (s *stubOrderService) ListRange(context.Context, time.Time, time.Time) ([]services.Order, error) {
	return s.listOrders, s.listErr
}

func newOrderTestRouter(svc services.OrderService) http.Handler {
	return NewRouter(WithAdminRoutes(NewOrderHandlers(svc).Routes))
}

func TestOrderHandlersListDay(t *testing.T) {
	svc := &stubOrderService{listOrders: []services.Order{{ID: "o1", Total: 9800}}}
	router := newOrderTestRouter(svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders/2024-03-05", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Orders []services.Order `json:"orders"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response does not parse: %v", err)
	}
	if len(body.Orders) != 1 || body.Orders[0].ID != "o1" {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}

func TestOrderHandlersListDayRejectsBadDate(t *testing.T) {
	router := newOrderTestRouter(&stubOrderService{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders/not-a-date", nil))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestOrderHandlersListRangeRequiresWindow(t *testing.T) {
	router := newOrderTestRouter(&stubOrderService{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders?from=2024-03-01", nil))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing to, got %d", rr.Code)
	}
}

func TestOrderHandlersTransitions(t *testing.T) {
	svc := &stubOrderService{}
	router := newOrderTestRouter(svc)

	posts := []string{"accept", "elaborate", "deliver", "pay"}
	for _, action := range posts {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/admin/orders/2024-03-05/o1/"+action, nil))
		if rr.Code != http.StatusNoContent {
			t.Fatalf("%s: expected 204, got %d: %s", action, rr.Code, rr.Body.String())
		}
	}
	if len(svc.calls) != len(posts) {
		t.Fatalf("expected %d service calls, got %v", len(posts), svc.calls)
	}
}

func TestOrderHandlersPatchEndpoints(t *testing.T) {
	svc := &stubOrderService{}
	router := newOrderTestRouter(svc)

	patches := map[string]string{
		"address":         `{"direccion":"Nueva 742","mapUrl":"maps?q=1,2"}`,
		"time":            `{"hora":"22:30"}`,
		"total":           `{"total":8400}`,
		"delivery-method": `{"deliveryMethod":"takeaway"}`,
		"courier":         `{"cadete":"maxi"}`,
		"route":           `{"kms":3.5,"minutosDistancia":12}`,
	}
	for path, body := range patches {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/orders/2024-03-05/o1/"+path, strings.NewReader(body))
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusNoContent {
			t.Fatalf("%s: expected 204, got %d: %s", path, rr.Code, rr.Body.String())
		}
	}
	if len(svc.calls) != len(patches) {
		t.Fatalf("expected %d service calls, got %v", len(patches), svc.calls)
	}
}

func TestOrderHandlersNotFoundMapsTo404(t *testing.T) {
	svc := &stubOrderService{callErr: services.ErrOrderNotFound}
	router := newOrderTestRouter(svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/admin/orders/2024-03-05/ghost/pay", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rr.Code, rr.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("error envelope does not parse: %v", err)
	}
	if body["error"] != "not_found" {
		t.Fatalf("unexpected error code: %v", body["error"])
	}
}

func TestOrderHandlersDelete(t *testing.T) {
	svc := &stubOrderService{}
	router := newOrderTestRouter(svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/v1/admin/orders/2024-03-05/o1", nil))

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if len(svc.calls) != 1 || svc.calls[0] != "delete:o1" {
		t.Fatalf("unexpected calls: %v", svc.calls)
	}
}
