package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/tomychi/anhelo-dashboard-sub001/internal/domain"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/ledger"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/repositories"
)

var (
	// ErrOrderInvalidInput indicates the caller supplied invalid order parameters.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the referenced order does not exist in its day bucket.
	ErrOrderNotFound = errors.New("order: not found")
)

// mapsCoordsPattern extracts latitude and longitude from a shared maps URL
// of the form ...maps?q=<lat>,<lng>... An unmatched URL yields (0, 0).
var mapsCoordsPattern = regexp.MustCompile(`maps\?q=(-?[0-9.]+),(-?[0-9.]+)`)

// OrderServiceDeps bundles collaborators required to construct an order service instance.
type OrderServiceDeps struct {
	Records   repositories.RecordStore
	Phones    repositories.PhoneDirectory
	Events    OrderEventPublisher
	Sanitizer *bluemonday.Policy
	Clock     func() time.Time
	Logger    func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	records  repositories.RecordStore
	phones   repositories.PhoneDirectory
	events   OrderEventPublisher
	sanitize *bluemonday.Policy
	clock    func() time.Time
	logger   func(ctx context.Context, event string, fields map[string]any)
}

// NewOrderService constructs a service that drives the order lifecycle on
// top of the pedidos day buckets.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Records == nil {
		return nil, errors.New("order service: record store is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	sanitize := deps.Sanitizer
	if sanitize == nil {
		sanitize = bluemonday.StrictPolicy()
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		records:  deps.Records,
		phones:   deps.Phones,
		events:   deps.Events,
		sanitize: sanitize,
		clock:    clock,
		logger:   logger,
	}, nil
}

func (s *orderService) Create(ctx context.Context, date time.Time, order Order) (Order, error) {
	if strings.TrimSpace(order.ID) == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	if len(order.Items) == 0 {
		return Order{}, fmt.Errorf("%w: order must contain at least one item", ErrOrderInvalidInput)
	}

	order.Direccion = s.sanitize.Sanitize(order.Direccion)
	order.Referencias = s.sanitize.Sanitize(order.Referencias)
	order.Ubicacion = s.sanitize.Sanitize(order.Ubicacion)
	order.Aclaraciones = s.sanitize.Sanitize(order.Aclaraciones)

	// Client submissions never decide payment or proximity state.
	order.Paid = false
	order.Cerca = false

	order.Fecha = domain.FormatFecha(date)
	if order.Hora == "" {
		order.Hora = s.clock().Format("15:04")
	}

	if err := s.records.Mutate(ctx, ledger.Orders, date, ledger.Append(order.ToRecord())); err != nil {
		return Order{}, err
	}

	if s.phones != nil && strings.TrimSpace(order.Telefono) != "" {
		if err := s.phones.Save(ctx, order.Telefono, order.Direccion); err != nil {
			s.logger(ctx, "order.phone_save_failed", map[string]any{
				"orderId": order.ID,
				"error":   err.Error(),
			})
		}
	}

	s.publish(ctx, OrderEvent{
		Type:       OrderEventCreated,
		OrderID:    order.ID,
		Day:        order.Fecha,
		Total:      order.Total,
		OccurredAt: s.clock(),
	})
	return order, nil
}

func (s *orderService) Accept(ctx context.Context, date time.Time, orderID string) error {
	return s.mutateOrder(ctx, date, orderID, ledger.ReplaceFieldByID(orderID, "pendingOfBeingAccepted", false))
}

func (s *orderService) MarkElaborated(ctx context.Context, date time.Time, orderID string) error {
	now := s.clock()
	return s.mutateOrder(ctx, date, orderID, func(records []ledger.Record) ([]ledger.Record, error) {
		elapsed := elapsedSince(recordHora(records, orderID), now)
		return ledger.SetFieldsByID(orderID, map[string]any{
			"elaborado":       true,
			"tiempoElaborado": elapsed,
		})(records)
	})
}

func (s *orderService) MarkDelivered(ctx context.Context, date time.Time, orderID string) error {
	stamp := s.clock().Format("15:04")
	err := s.mutateOrder(ctx, date, orderID, ledger.SetFieldsByID(orderID, map[string]any{
		"entregado":       true,
		"tiempoEntregado": stamp,
	}))
	if err != nil {
		return err
	}
	s.publish(ctx, OrderEvent{
		Type:       OrderEventDelivered,
		OrderID:    orderID,
		Day:        domain.FormatFecha(date),
		OccurredAt: s.clock(),
	})
	return nil
}

func (s *orderService) MarkPaid(ctx context.Context, date time.Time, orderID string) error {
	if err := s.mutateOrder(ctx, date, orderID, ledger.ReplaceFieldByID(orderID, "paid", true)); err != nil {
		return err
	}
	s.publish(ctx, OrderEvent{
		Type:       OrderEventPaid,
		OrderID:    orderID,
		Day:        domain.FormatFecha(date),
		OccurredAt: s.clock(),
	})
	return nil
}

func (s *orderService) EditAddress(ctx context.Context, date time.Time, orderID string, direccion, mapURL string) error {
	lat, lng := ExtractMapCoords(mapURL)
	return s.mutateOrder(ctx, date, orderID, ledger.SetFieldsByID(orderID, map[string]any{
		"direccion": s.sanitize.Sanitize(direccion),
		"map":       []any{lat, lng},
	}))
}

func (s *orderService) EditTime(ctx context.Context, date time.Time, orderID, hora string) error {
	if _, err := time.Parse("15:04", hora); err != nil {
		return fmt.Errorf("%w: hora must be HH:MM", ErrOrderInvalidInput)
	}
	return s.mutateOrder(ctx, date, orderID, ledger.ReplaceFieldByID(orderID, "hora", hora))
}

func (s *orderService) EditTotal(ctx context.Context, date time.Time, orderID string, total float64) error {
	if total < 0 {
		return fmt.Errorf("%w: total must not be negative", ErrOrderInvalidInput)
	}
	return s.mutateOrder(ctx, date, orderID, ledger.ReplaceFieldByID(orderID, "total", total))
}

func (s *orderService) EditDeliveryMethod(ctx context.Context, date time.Time, orderID, method string) error {
	method = strings.TrimSpace(method)
	if method == "" {
		return fmt.Errorf("%w: delivery method is required", ErrOrderInvalidInput)
	}
	// Legacy records predate deliveryMethod; the patch adds the field.
	return s.mutateOrder(ctx, date, orderID, ledger.ReplaceFieldByID(orderID, "deliveryMethod", method))
}

func (s *orderService) AssignCourier(ctx context.Context, date time.Time, orderID, cadete string) error {
	cadete = strings.TrimSpace(cadete)
	if cadete == "" {
		cadete = domain.CourierUnassigned
	}
	return s.mutateOrder(ctx, date, orderID, ledger.ReplaceFieldByID(orderID, "cadete", cadete))
}

func (s *orderService) SetRoute(ctx context.Context, date time.Time, orderID string, kms, minutos float64) error {
	return s.mutateOrder(ctx, date, orderID, ledger.SetFieldsByID(orderID, map[string]any{
		"kms":              kms,
		"minutosDistancia": minutos,
	}))
}

func (s *orderService) Delete(ctx context.Context, date time.Time, orderID string) error {
	return s.mutateOrder(ctx, date, orderID, ledger.DeleteByID(orderID))
}

func (s *orderService) ListDay(ctx context.Context, date time.Time) ([]Order, error) {
	records, err := s.records.Read(ctx, ledger.Orders, date)
	if err != nil {
		return nil, err
	}
	return ordersFromRecords(records), nil
}

func (s *orderService) ListRange(ctx context.Context, from, to time.Time) ([]Order, error) {
	records, err := s.records.ReadRange(ctx, ledger.Orders, from, to)
	if err != nil {
		return nil, err
	}
	return ordersFromRecords(records), nil
}

func (s *orderService) mutateOrder(ctx context.Context, date time.Time, orderID string, mutate ledger.Mutator) error {
	if strings.TrimSpace(orderID) == "" {
		return fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	err := s.records.Mutate(ctx, ledger.Orders, date, mutate)
	if errors.Is(err, ledger.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s on %s", ErrOrderNotFound, orderID, domain.FormatFecha(date))
	}
	return err
}

func (s *orderService) publish(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "order.event_publish_failed", map[string]any{
			"type":    event.Type,
			"orderId": event.OrderID,
			"error":   err.Error(),
		})
	}
}

// ExtractMapCoords pulls (lat, lng) out of a shared maps URL. URLs that do
// not carry a q= coordinate pair resolve to (0, 0).
func ExtractMapCoords(mapURL string) (float64, float64) {
	match := mapsCoordsPattern.FindStringSubmatch(mapURL)
	if match == nil {
		return 0, 0
	}
	lat, errLat := strconv.ParseFloat(match[1], 64)
	lng, errLng := strconv.ParseFloat(match[2], 64)
	if errLat != nil || errLng != nil {
		return 0, 0
	}
	return lat, lng
}

func ordersFromRecords(records []ledger.Record) []Order {
	orders := make([]Order, 0, len(records))
	for _, rec := range records {
		orders = append(orders, domain.OrderFromRecord(rec))
	}
	return orders
}

func recordHora(records []ledger.Record, orderID string) string {
	for _, rec := range records {
		if rec.ID() == orderID {
			return rec.String("hora")
		}
	}
	return ""
}

// elapsedSince renders the wall time between an HH:MM order timestamp and
// now as HH:MM. A stamp later than now is assumed to cross midnight.
func elapsedSince(hora string, now time.Time) string {
	start, err := time.Parse("15:04", hora)
	if err != nil {
		return "00:00"
	}
	minutes := (now.Hour()*60 + now.Minute()) - (start.Hour()*60 + start.Minute())
	if minutes < 0 {
		minutes += 24 * 60
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
