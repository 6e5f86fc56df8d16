package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/tomychi/anhelo-dashboard-sub001/internal/domain"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/ledger"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/repositories"
)

// ErrExportInvalidInput indicates the requested export window is invalid.
var ErrExportInvalidInput = errors.New("export: invalid input")

// ObjectUploader persists a finished export artifact.
type ObjectUploader interface {
	Upload(ctx context.Context, object, contentType string, data []byte) error
	Bucket() string
}

// ExportResult describes where an export landed and how many rows it carries.
type ExportResult struct {
	Bucket string
	Object string
	Rows   int
}

// ExportServiceDeps bundles collaborators required to construct an export service instance.
type ExportServiceDeps struct {
	Records  repositories.RecordStore
	Uploader ObjectUploader
	Clock    func() time.Time
}

type exportService struct {
	records  repositories.RecordStore
	uploader ObjectUploader
	clock    func() time.Time
}

// NewExportService constructs the CSV export service for bookkeeping pulls.
func NewExportService(deps ExportServiceDeps) (ExportService, error) {
	if deps.Records == nil {
		return nil, errors.New("export service: record store is required")
	}
	if deps.Uploader == nil {
		return nil, errors.New("export service: uploader is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &exportService{
		records:  deps.Records,
		uploader: deps.Uploader,
		clock:    clock,
	}, nil
}

func (s *exportService) ExportOrders(ctx context.Context, from, to time.Time) (ExportResult, error) {
	if to.Before(from) {
		return ExportResult{}, fmt.Errorf("%w: window end precedes start", ErrExportInvalidInput)
	}

	records, err := s.records.ReadRange(ctx, ledger.Orders, from, to)
	if err != nil {
		return ExportResult{}, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"id", "fecha", "hora", "total", "envio", "metodoPago", "deliveryMethod", "cadete", "paid", "elaborado", "entregado", "direccion"}
	if err := w.Write(header); err != nil {
		return ExportResult{}, err
	}
	for _, rec := range records {
		order := domain.OrderFromRecord(rec)
		row := []string{
			order.ID,
			order.Fecha,
			order.Hora,
			formatAmount(order.Total),
			formatAmount(order.Envio),
			order.MetodoPago,
			order.DeliveryMethod,
			order.Cadete,
			strconv.FormatBool(order.Paid),
			strconv.FormatBool(order.Elaborado),
			strconv.FormatBool(order.Entregado),
			order.Direccion,
		}
		if err := w.Write(row); err != nil {
			return ExportResult{}, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return ExportResult{}, err
	}

	return s.upload(ctx, "pedidos", from, to, len(records), buf.Bytes())
}

func (s *exportService) ExportExpenses(ctx context.Context, from, to time.Time) (ExportResult, error) {
	if to.Before(from) {
		return ExportResult{}, fmt.Errorf("%w: window end precedes start", ErrExportInvalidInput)
	}

	records, err := s.records.ReadRange(ctx, ledger.Expenses, from, to)
	if err != nil {
		return ExportResult{}, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "fecha", "name", "quantity", "unit", "total", "category", "estado"}); err != nil {
		return ExportResult{}, err
	}
	for _, rec := range records {
		expense := domain.ExpenseFromRecord(rec)
		row := []string{
			expense.ID,
			expense.Fecha,
			expense.Name,
			formatAmount(expense.Quantity),
			expense.Unit,
			formatAmount(expense.Total),
			expense.Category,
			expense.Estado,
		}
		if err := w.Write(row); err != nil {
			return ExportResult{}, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return ExportResult{}, err
	}

	return s.upload(ctx, "gastos", from, to, len(records), buf.Bytes())
}

func (s *exportService) upload(ctx context.Context, name string, from, to time.Time, rows int, data []byte) (ExportResult, error) {
	object := fmt.Sprintf("exports/%s/%s_%s_%s.csv",
		name,
		from.Format("20060102"),
		to.Format("20060102"),
		s.clock().Format("20060102T150405Z"),
	)
	if err := s.uploader.Upload(ctx, object, "text/csv", data); err != nil {
		return ExportResult{}, fmt.Errorf("upload %s export: %w", name, err)
	}
	return ExportResult{Bucket: s.uploader.Bucket(), Object: object, Rows: rows}, nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
