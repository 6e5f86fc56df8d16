package repositories

import (
	"context"
	"time"

	"github.com/tomychi/anhelo-dashboard-sub001/internal/domain"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/ledger"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Records() RecordStore
	Vouchers() VoucherRepository
	Phones() PhoneDirectory
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// RecordStore is the transactional read-modify-write boundary over day
// buckets. Every mutation reads the whole bucket inside a transaction,
// applies a pure mutator to the record array, and writes the array back as
// a full-document overwrite that preserves every other bucket field.
//
// The linear id scan lives behind this interface so an indexed
// implementation could replace it without touching call sites.
type RecordStore interface {
	// Mutate applies the mutator to the bucket for the given ledger and
	// day. A missing bucket is treated as empty, never as an error; a
	// mutator error aborts the transaction with no write. Transaction
	// aborts from concurrent writers are retried by the implementation.
	Mutate(ctx context.Context, name ledger.Name, date time.Time, mutate ledger.Mutator) error

	// Read returns the bucket's records for one day; empty when absent.
	Read(ctx context.Context, name ledger.Name, date time.Time) ([]ledger.Record, error)

	// ReadRange concatenates the record arrays of every day bucket between
	// from and to inclusive. There is no cross-bucket index.
	ReadRange(ctx context.Context, name ledger.Name, from, to time.Time) ([]ledger.Record, error)
}

// VoucherRepository persists voucher codes, one document per code.
type VoucherRepository interface {
	// Redeem atomically flips a voucher from disponible to usado. It
	// returns false for unknown codes and for codes already used; two
	// concurrent redemptions of the same fresh code see true exactly once.
	Redeem(ctx context.Context, code string) (bool, error)

	Create(ctx context.Context, voucher domain.Voucher) error
	Find(ctx context.Context, code string) (domain.Voucher, error)
}

// PhoneDirectory stores the courtesy customer phone book. Saves are
// best-effort: a duplicate entry is expected behaviour, not a fault.
type PhoneDirectory interface {
	Save(ctx context.Context, phone, name string) error
}
