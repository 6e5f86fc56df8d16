package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/tomychi/anhelo-dashboard-sub001/internal/ledger"
)

func TestPartitionAmountsProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	cases := []struct {
		total, count, min, max int
	}{
		{1000, 10, 50, 200},
		{500, 1, 500, 500},
		{999, 3, 1, 999},
		{120, 4, 30, 30},
		{7500, 25, 100, 600},
	}
	for _, tc := range cases {
		name := fmt.Sprintf("%d_%d_%d_%d", tc.total, tc.count, tc.min, tc.max)
		t.Run(name, func(t *testing.T) {
			for trial := 0; trial < 200; trial++ {
				amounts, err := PartitionAmounts(rng, tc.total, tc.count, tc.min, tc.max)
				if err != nil {
					t.Fatalf("PartitionAmounts failed: %v", err)
				}
				if len(amounts) != tc.count {
					t.Fatalf("expected %d amounts, got %d", tc.count, len(amounts))
				}
				sum := 0
				for _, v := range amounts {
					if v < tc.min || v > tc.max {
						t.Fatalf("amount %d outside [%d, %d]: %v", v, tc.min, tc.max, amounts)
					}
					sum += v
				}
				if sum != tc.total {
					t.Fatalf("sum %d != total %d: %v", sum, tc.total, amounts)
				}
			}
		})
	}
}

func TestPartitionAmountsInfeasible(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	cases := []struct {
		name                   string
		total, count, min, max int
	}{
		{"total too small", 99, 10, 10, 50},
		{"total too large", 501, 10, 10, 50},
		{"zero count", 100, 0, 10, 50},
		{"negative min", 100, 5, -1, 50},
		{"inverted bounds", 100, 5, 50, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := PartitionAmounts(rng, tc.total, tc.count, tc.min, tc.max); !errors.Is(err, ErrBillingInvalidInput) {
				t.Fatalf("expected ErrBillingInvalidInput, got %v", err)
			}
		})
	}
}

func TestBillingServiceGenerateBatch(t *testing.T) {
	store := newStubRecordStore()
	seq := 0
	svc, err := NewBillingService(BillingServiceDeps{
		Records: store,
		Clock:   fixedClock(time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC)),
		Rand:    rand.New(rand.NewSource(7)),
		NewID: func() string {
			seq++
			return fmt.Sprintf("f%03d", seq)
		},
	})
	if err != nil {
		t.Fatalf("NewBillingService failed: %v", err)
	}

	day := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	amounts, err := svc.GenerateBatch(context.Background(), GenerateBatchCommand{
		Total: 90000,
		Count: 30,
		Min:   1000,
		Max:   9000,
		Date:  day,
	})
	if err != nil {
		t.Fatalf("GenerateBatch failed: %v", err)
	}

	records, _ := store.Read(context.Background(), ledger.Billing, day)
	if len(records) != 30 {
		t.Fatalf("expected 30 bucket records, got %d", len(records))
	}
	sum := 0
	for i, rec := range records {
		if rec.ID() == "" {
			t.Fatalf("record %d missing id: %#v", i, rec)
		}
		if rec.String("fecha") != "05/03/2024" {
			t.Fatalf("unexpected fecha on record %d: %#v", i, rec)
		}
		sum += int(rec.Float("monto"))
	}
	if sum != 90000 {
		t.Fatalf("persisted amounts sum %d, want 90000", sum)
	}
	if len(amounts) != 30 {
		t.Fatalf("expected 30 returned amounts, got %d", len(amounts))
	}
}

func TestBillingServiceGenerateBatchInfeasibleWritesNothing(t *testing.T) {
	store := newStubRecordStore()
	svc, err := NewBillingService(BillingServiceDeps{Records: store})
	if err != nil {
		t.Fatalf("NewBillingService failed: %v", err)
	}

	day := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	if _, err := svc.GenerateBatch(context.Background(), GenerateBatchCommand{
		Total: 10, Count: 5, Min: 100, Max: 200, Date: day,
	}); !errors.Is(err, ErrBillingInvalidInput) {
		t.Fatalf("expected ErrBillingInvalidInput, got %v", err)
	}
	if records, _ := store.Read(context.Background(), ledger.Billing, day); len(records) != 0 {
		t.Fatalf("validation failure must not write: %#v", records)
	}
}
