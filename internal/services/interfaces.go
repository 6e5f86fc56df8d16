package services

import (
	"context"
	"time"

	"github.com/tomychi/anhelo-dashboard-sub001/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Order   = domain.Order
	Item    = domain.Item
	Voucher = domain.Voucher
	Expense = domain.Expense
)

// Order lifecycle event types published to the notification pipeline.
const (
	OrderEventCreated   = "order.created"
	OrderEventPaid      = "order.paid"
	OrderEventDelivered = "order.delivered"
)

// OrderEvent is the message emitted after an order lifecycle transition
// commits. Day carries the bucket date in dd/mm/yyyy form so consumers can
// locate the record without a cross-bucket index.
type OrderEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"orderId"`
	Day        string    `json:"day"`
	Total      float64   `json:"total,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// OrderEventPublisher accepts order lifecycle notifications for downstream processing.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

// OrderService exposes the order lifecycle: every mutation is one bucket
// transaction applying one mutator to the pedidos ledger.
type OrderService interface {
	Create(ctx context.Context, date time.Time, order Order) (Order, error)
	Accept(ctx context.Context, date time.Time, orderID string) error
	MarkElaborated(ctx context.Context, date time.Time, orderID string) error
	MarkDelivered(ctx context.Context, date time.Time, orderID string) error
	MarkPaid(ctx context.Context, date time.Time, orderID string) error
	EditAddress(ctx context.Context, date time.Time, orderID string, direccion, mapURL string) error
	EditTime(ctx context.Context, date time.Time, orderID, hora string) error
	EditTotal(ctx context.Context, date time.Time, orderID string, total float64) error
	EditDeliveryMethod(ctx context.Context, date time.Time, orderID, method string) error
	AssignCourier(ctx context.Context, date time.Time, orderID, cadete string) error
	SetRoute(ctx context.Context, date time.Time, orderID string, kms, minutos float64) error
	Delete(ctx context.Context, date time.Time, orderID string) error
	ListDay(ctx context.Context, date time.Time) ([]Order, error)
	ListRange(ctx context.Context, from, to time.Time) ([]Order, error)
}

// VoucherService handles voucher campaign creation and code redemption.
type VoucherService interface {
	CreateCampaign(ctx context.Context, cmd CreateCampaignCommand) (CampaignResult, error)
	Redeem(ctx context.Context, code string) (RedemptionResult, error)
}

// BillingService generates synthetic invoice amount batches on the
// facturacion ledger.
type BillingService interface {
	GenerateBatch(ctx context.Context, cmd GenerateBatchCommand) ([]int, error)
}

// ExpenseService tracks purchases and recurring costs on the gastos ledger.
type ExpenseService interface {
	Create(ctx context.Context, date time.Time, expense Expense) (Expense, error)
	MarkPaid(ctx context.Context, date time.Time, expenseID string) error
	Delete(ctx context.Context, date time.Time, expenseID string) error
	ListRange(ctx context.Context, from, to time.Time) ([]Expense, error)
}

// ExportService dumps a ledger date window as CSV to object storage.
type ExportService interface {
	ExportOrders(ctx context.Context, from, to time.Time) (ExportResult, error)
	ExportExpenses(ctx context.Context, from, to time.Time) (ExportResult, error)
}
