package ledger

import (
	"fmt"
	"time"
)

// Name identifies one logical ledger. Each ledger keeps its records in its
// own top-level collection of day buckets.
type Name string

const (
	// Orders holds customer orders ("pedidos").
	Orders Name = "pedidos"
	// Expenses holds back-office expenses ("gastos").
	Expenses Name = "gastos"
	// Vouchers holds voucher codes grouped by campaign title.
	Vouchers Name = "vouchers"
	// Billing holds generated invoice amounts.
	Billing Name = "facturacion"
)

// Field returns the document field under which the record array is stored.
func (n Name) Field() string {
	return string(n)
}

// Path addresses a single day bucket: one collection, a year document, a
// month subcollection, and the day as the leaf document id.
type Path struct {
	Collection string
	Year       string
	Month      string
	Day        string
}

// BucketPath maps a date to the bucket holding that calendar day's records.
// Deterministic and injective over distinct (year, month, day) triples.
func BucketPath(n Name, date time.Time) Path {
	year, month, day := date.Date()
	return Path{
		Collection: string(n),
		Year:       fmt.Sprintf("%04d", year),
		Month:      fmt.Sprintf("%02d", int(month)),
		Day:        fmt.Sprintf("%02d", day),
	}
}

// String renders the slash-separated document path.
func (p Path) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", p.Collection, p.Year, p.Month, p.Day)
}

// Days enumerates every calendar day between from and to inclusive, in
// order. Used by range reads, which concatenate one bucket per day.
func Days(from, to time.Time) []time.Time {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location())
	if end.Before(start) {
		return nil
	}

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
