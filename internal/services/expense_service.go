package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomychi/anhelo-dashboard-sub001/internal/domain"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/ledger"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/repositories"
)

var (
	// ErrExpenseInvalidInput indicates the caller supplied invalid expense parameters.
	ErrExpenseInvalidInput = errors.New("expense: invalid input")
	// ErrExpenseNotFound indicates the referenced expense does not exist in its day bucket.
	ErrExpenseNotFound = errors.New("expense: not found")
)

// ExpenseServiceDeps bundles collaborators required to construct an expense service instance.
type ExpenseServiceDeps struct {
	Records repositories.RecordStore
}

type expenseService struct {
	records repositories.RecordStore
}

// NewExpenseService constructs the purchase tracking service over the gastos ledger.
func NewExpenseService(deps ExpenseServiceDeps) (ExpenseService, error) {
	if deps.Records == nil {
		return nil, errors.New("expense service: record store is required")
	}
	return &expenseService{records: deps.Records}, nil
}

func (s *expenseService) Create(ctx context.Context, date time.Time, expense Expense) (Expense, error) {
	if strings.TrimSpace(expense.ID) == "" {
		return Expense{}, fmt.Errorf("%w: expense id is required", ErrExpenseInvalidInput)
	}
	if strings.TrimSpace(expense.Name) == "" {
		return Expense{}, fmt.Errorf("%w: name is required", ErrExpenseInvalidInput)
	}
	if expense.Total < 0 {
		return Expense{}, fmt.Errorf("%w: total must not be negative", ErrExpenseInvalidInput)
	}

	expense.Fecha = domain.FormatFecha(date)
	if expense.Estado == "" {
		expense.Estado = domain.ExpensePending
	}

	if err := s.records.Mutate(ctx, ledger.Expenses, date, ledger.Append(expense.ToRecord())); err != nil {
		return Expense{}, err
	}
	return expense, nil
}

func (s *expenseService) MarkPaid(ctx context.Context, date time.Time, expenseID string) error {
	return s.mutateExpense(ctx, date, expenseID, ledger.ReplaceFieldByID(expenseID, "estado", domain.ExpensePaid))
}

func (s *expenseService) Delete(ctx context.Context, date time.Time, expenseID string) error {
	return s.mutateExpense(ctx, date, expenseID, ledger.DeleteByID(expenseID))
}

func (s *expenseService) ListRange(ctx context.Context, from, to time.Time) ([]Expense, error) {
	records, err := s.records.ReadRange(ctx, ledger.Expenses, from, to)
	if err != nil {
		return nil, err
	}
	expenses := make([]Expense, 0, len(records))
	for _, rec := range records {
		expenses = append(expenses, domain.ExpenseFromRecord(rec))
	}
	return expenses, nil
}

func (s *expenseService) mutateExpense(ctx context.Context, date time.Time, expenseID string, mutate ledger.Mutator) error {
	if strings.TrimSpace(expenseID) == "" {
		return fmt.Errorf("%w: expense id is required", ErrExpenseInvalidInput)
	}
	err := s.records.Mutate(ctx, ledger.Expenses, date, mutate)
	if errors.Is(err, ledger.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s on %s", ErrExpenseNotFound, expenseID, domain.FormatFecha(date))
	}
	return err
}
