package domain

import "github.com/tomychi/anhelo-dashboard-sub001/internal/ledger"

// Expense states as persisted.
const (
	ExpensePending = "pendiente"
	ExpensePaid    = "pagado"
)

// Expense is the typed view of an expense record inside the gastos ledger.
type Expense struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Total    float64 `json:"total"`
	Category string  `json:"category"`
	Fecha    string  `json:"fecha"`
	Estado   string  `json:"estado"`
}

// ToRecord converts the expense into its persisted open-mapping shape.
func (e Expense) ToRecord() ledger.Record {
	estado := e.Estado
	if estado == "" {
		estado = ExpensePending
	}
	return ledger.Record{
		"id":       e.ID,
		"name":     e.Name,
		"quantity": e.Quantity,
		"unit":     e.Unit,
		"total":    e.Total,
		"category": e.Category,
		"fecha":    e.Fecha,
		"estado":   estado,
	}
}

// ExpenseFromRecord hydrates the typed view from a persisted record.
func ExpenseFromRecord(rec ledger.Record) Expense {
	return Expense{
		ID:       rec.ID(),
		Name:     rec.String("name"),
		Quantity: rec.Float("quantity"),
		Unit:     rec.String("unit"),
		Total:    rec.Float("total"),
		Category: rec.String("category"),
		Fecha:    rec.String("fecha"),
		Estado:   rec.String("estado"),
	}
}
