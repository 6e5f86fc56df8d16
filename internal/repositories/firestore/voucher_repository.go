package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tomychi/anhelo-dashboard-sub001/internal/domain"
	pfirestore "github.com/tomychi/anhelo-dashboard-sub001/internal/platform/firestore"
)

const voucherCollection = "voucherCodes"

// VoucherRepository implements repositories.VoucherRepository, one document
// per code, keyed by the code itself.
type VoucherRepository struct {
	provider *pfirestore.Provider
	vouchers *pfirestore.BaseRepository[domain.Voucher]
}

// NewVoucherRepository constructs a Firestore-backed voucher repository.
func NewVoucherRepository(provider *pfirestore.Provider) (*VoucherRepository, error) {
	if provider == nil {
		return nil, errors.New("voucher repository requires firestore provider")
	}
	return &VoucherRepository{
		provider: provider,
		vouchers: pfirestore.NewBaseRepository[domain.Voucher](provider, voucherCollection, nil),
	}, nil
}

// Redeem atomically flips the voucher from disponible to usado.
//
// All three branches (missing, already used, flip) run inside one
// transaction so two concurrent redemptions of the same code can never both
// observe disponible: the second transaction re-reads the committed usado
// state and returns false.
func (r *VoucherRepository) Redeem(ctx context.Context, code string) (bool, error) {
	if r == nil || r.provider == nil {
		return false, errors.New("voucher repository not initialised")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return false, nil
	}

	ref, err := r.vouchers.DocumentRef(ctx, code)
	if err != nil {
		return false, err
	}

	redeemed := false
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			// Unknown code: invalid, not an exception.
			redeemed = false
			return nil
		}
		if err != nil {
			return err
		}

		var voucher domain.Voucher
		if err := snap.DataTo(&voucher); err != nil {
			return err
		}
		if !voucher.Available() {
			redeemed = false
			return nil
		}

		if err := tx.Update(ref, []firestore.Update{
			{Path: "estado", Value: domain.VoucherUsed},
		}); err != nil {
			return err
		}
		redeemed = true
		return nil
	})
	if err != nil {
		return false, pfirestore.WrapError("vouchers.redeem", err)
	}
	return redeemed, nil
}

// Create inserts a voucher document, failing on duplicate codes.
func (r *VoucherRepository) Create(ctx context.Context, voucher domain.Voucher) error {
	if r == nil {
		return errors.New("voucher repository not initialised")
	}
	code := strings.TrimSpace(voucher.Codigo)
	if code == "" {
		return errors.New("voucher code is required")
	}
	_, err := r.vouchers.Create(ctx, code, voucher)
	return err
}

// Find loads a voucher by code.
func (r *VoucherRepository) Find(ctx context.Context, code string) (domain.Voucher, error) {
	doc, err := r.vouchers.Get(ctx, strings.TrimSpace(code))
	if err != nil {
		return domain.Voucher{}, err
	}
	return doc.Data, nil
}
