package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tomychi/anhelo-dashboard-sub001/internal/domain"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/ledger"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/repositories"
)

// ErrBillingInvalidInput indicates the partition parameters cannot produce a valid batch.
var ErrBillingInvalidInput = errors.New("billing: invalid input")

// GenerateBatchCommand describes one synthetic invoice batch.
type GenerateBatchCommand struct {
	Total int
	Count int
	Min   int
	Max   int
	Date  time.Time
}

// BillingServiceDeps bundles collaborators required to construct a billing service instance.
type BillingServiceDeps struct {
	Records repositories.RecordStore
	Clock   func() time.Time
	Rand    *rand.Rand
	NewID   func() string
}

type billingService struct {
	records repositories.RecordStore
	clock   func() time.Time
	rng     *rand.Rand
	newID   func() string
}

// NewBillingService constructs the invoice batch generator over the facturacion ledger.
func NewBillingService(deps BillingServiceDeps) (BillingService, error) {
	if deps.Records == nil {
		return nil, errors.New("billing service: record store is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	newID := deps.NewID
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}

	return &billingService{
		records: deps.Records,
		clock:   clock,
		rng:     rng,
		newID:   newID,
	}, nil
}

func (s *billingService) GenerateBatch(ctx context.Context, cmd GenerateBatchCommand) ([]int, error) {
	amounts, err := s.partition(cmd.Total, cmd.Count, cmd.Min, cmd.Max)
	if err != nil {
		return nil, err
	}

	date := cmd.Date
	if date.IsZero() {
		date = s.clock()
	}
	fecha := domain.FormatFecha(date)

	entries := make([]ledger.Record, 0, len(amounts))
	for _, amount := range amounts {
		entries = append(entries, ledger.Record{
			"id":    s.newID(),
			"monto": amount,
			"fecha": fecha,
		})
	}

	// One transaction for the whole batch.
	err = s.records.Mutate(ctx, ledger.Billing, date, func(records []ledger.Record) ([]ledger.Record, error) {
		next := records
		for _, entry := range entries {
			var appendErr error
			next, appendErr = ledger.Append(entry)(next)
			if appendErr != nil {
				return nil, appendErr
			}
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	return amounts, nil
}

// partition splits total into count values, each within [min, max], summing
// exactly to total. Each draw is bounded by the band that keeps the
// remaining positions feasible, so the walk can never paint itself into a
// corner; the last position takes the remainder.
func (s *billingService) partition(total, count, min, max int) ([]int, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive", ErrBillingInvalidInput)
	}
	if min <= 0 || max < min {
		return nil, fmt.Errorf("%w: bounds must satisfy 0 < min <= max", ErrBillingInvalidInput)
	}
	if total < min*count || total > max*count {
		return nil, fmt.Errorf("%w: total %d outside [%d, %d] for %d amounts",
			ErrBillingInvalidInput, total, min*count, max*count, count)
	}

	amounts := make([]int, 0, count)
	remaining := total
	for left := count; left > 1; left-- {
		low := remaining - (left-1)*max
		if low < min {
			low = min
		}
		high := remaining - (left-1)*min
		if high > max {
			high = max
		}
		value := low + s.rng.Intn(high-low+1)
		amounts = append(amounts, value)
		remaining -= value
	}
	amounts = append(amounts, remaining)

	sum := 0
	for _, v := range amounts {
		sum += v
	}
	if sum != total {
		return nil, fmt.Errorf("billing: partition sum %d does not match total %d", sum, total)
	}
	return amounts, nil
}

// PartitionAmounts is the pure partitioner behind GenerateBatch, seeded
// from the supplied source.
func PartitionAmounts(rng *rand.Rand, total, count, min, max int) ([]int, error) {
	svc := &billingService{rng: rng}
	return svc.partition(total, count, min, max)
}
