package di

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/tomychi/anhelo-dashboard-sub001/internal/payments"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/platform/config"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/repositories"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Orders   services.OrderService
	Vouchers services.VoucherService
	Billing  services.BillingService
	Expenses services.ExpenseService
	Exports  services.ExportService
}

// ContainerDeps carries the externally constructed collaborators.
type ContainerDeps struct {
	Registry repositories.Registry
	Events   services.OrderEventPublisher
	Payments payments.Provider
	Uploader services.ObjectUploader
	Logger   *zap.Logger
}

// Container wires repositories, services, and background infrastructure for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Payments     payments.Provider
	Services     Services
}

// NewContainer constructs the runtime dependencies. Production wiring provides
// real implementations, while tests can supply in-memory registries.
func NewContainer(ctx context.Context, cfg config.Config, deps ContainerDeps) (*Container, error) {
	if deps.Registry == nil {
		return nil, errors.New("repositories registry is required")
	}

	svc, err := buildServices(cfg, deps)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: deps.Registry,
		Payments:     deps.Payments,
		Services:     svc,
	}, nil
}

// Close releases resources such as repository clients.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(cfg config.Config, deps ContainerDeps) (Services, error) {
	var svc Services
	reg := deps.Registry

	serviceLogger := func(ctx context.Context, event string, fields map[string]any) {
		if deps.Logger == nil {
			return
		}
		zapFields := make([]zap.Field, 0, len(fields))
		for k, v := range fields {
			zapFields = append(zapFields, zap.Any(k, v))
		}
		deps.Logger.Info(event, zapFields...)
	}

	orders, err := services.NewOrderService(services.OrderServiceDeps{
		Records: reg.Records(),
		Phones:  reg.Phones(),
		Events:  deps.Events,
		Logger:  serviceLogger,
	})
	if err != nil {
		return svc, err
	}
	svc.Orders = orders

	if cfg.Features.EnableVouchers {
		vouchers, err := services.NewVoucherService(services.VoucherServiceDeps{
			Vouchers: reg.Vouchers(),
			Records:  reg.Records(),
		})
		if err != nil {
			return svc, err
		}
		svc.Vouchers = vouchers
	}

	billing, err := services.NewBillingService(services.BillingServiceDeps{
		Records: reg.Records(),
	})
	if err != nil {
		return svc, err
	}
	svc.Billing = billing

	expenses, err := services.NewExpenseService(services.ExpenseServiceDeps{
		Records: reg.Records(),
	})
	if err != nil {
		return svc, err
	}
	svc.Expenses = expenses

	if cfg.Features.EnableExports && deps.Uploader != nil {
		exports, err := services.NewExportService(services.ExportServiceDeps{
			Records:  reg.Records(),
			Uploader: deps.Uploader,
		})
		if err != nil {
			return svc, err
		}
		svc.Exports = exports
	}

	return svc, nil
}
