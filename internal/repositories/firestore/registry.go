package firestore

import (
	"context"
	"errors"

	pfirestore "github.com/tomychi/anhelo-dashboard-sub001/internal/platform/firestore"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/repositories"
)

// Registry wires the Firestore-backed repositories over one shared provider.
type Registry struct {
	provider *pfirestore.Provider
	records  *BucketStore
	vouchers *VoucherRepository
	phones   *PhoneRepository
}

// NewRegistry constructs the repository registry.
func NewRegistry(provider *pfirestore.Provider, txOpts ...pfirestore.TxOption) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry requires firestore provider")
	}

	records, err := NewBucketStore(provider, txOpts...)
	if err != nil {
		return nil, err
	}
	vouchers, err := NewVoucherRepository(provider)
	if err != nil {
		return nil, err
	}
	phones, err := NewPhoneRepository(provider)
	if err != nil {
		return nil, err
	}

	return &Registry{
		provider: provider,
		records:  records,
		vouchers: vouchers,
		phones:   phones,
	}, nil
}

// Records returns the day-bucket record store.
func (r *Registry) Records() repositories.RecordStore { return r.records }

// Vouchers returns the voucher repository.
func (r *Registry) Vouchers() repositories.VoucherRepository { return r.vouchers }

// Phones returns the courtesy phone directory.
func (r *Registry) Phones() repositories.PhoneDirectory { return r.phones }

// Close releases the shared Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close(ctx)
}
