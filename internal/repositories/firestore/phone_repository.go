package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	pfirestore "github.com/tomychi/anhelo-dashboard-sub001/internal/platform/firestore"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/repositories"
)

const phoneCollection = "telefonos"

type phoneDocument struct {
	Phone     string    `firestore:"telefono"`
	Name      string    `firestore:"nombre"`
	CreatedAt time.Time `firestore:"createdAt"`
}

// PhoneRepository implements repositories.PhoneDirectory, one document per
// phone number.
type PhoneRepository struct {
	phones *pfirestore.BaseRepository[phoneDocument]
	clock  func() time.Time
}

// NewPhoneRepository constructs a Firestore-backed phone directory.
func NewPhoneRepository(provider *pfirestore.Provider) (*PhoneRepository, error) {
	if provider == nil {
		return nil, errors.New("phone repository requires firestore provider")
	}
	return &PhoneRepository{
		phones: pfirestore.NewBaseRepository[phoneDocument](provider, phoneCollection, nil),
		clock:  time.Now,
	}, nil
}

// Save inserts the phone entry. A duplicate number is expected behaviour
// for returning customers and reports success.
func (r *PhoneRepository) Save(ctx context.Context, phone, name string) error {
	if r == nil {
		return errors.New("phone repository not initialised")
	}
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil
	}

	_, err := r.phones.Create(ctx, phone, phoneDocument{
		Phone:     phone,
		Name:      strings.TrimSpace(name),
		CreatedAt: r.clock().UTC(),
	})
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsConflict() {
			return nil
		}
		return err
	}
	return nil
}
