package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tomychi/anhelo-dashboard-sub001/internal/ledger"
	pfirestore "github.com/tomychi/anhelo-dashboard-sub001/internal/platform/firestore"
)

// BucketStore implements repositories.RecordStore on Firestore day buckets.
//
// One bucket document holds one calendar day of one ledger. All records for
// the day live in a single array field, so every mutation contends on that
// one document: the transaction serialises concurrent writers per bucket
// and retries aborted attempts up to the configured limit.
type BucketStore struct {
	provider *pfirestore.Provider
	txOpts   []pfirestore.TxOption
}

// NewBucketStore constructs a BucketStore bound to the shared provider.
func NewBucketStore(provider *pfirestore.Provider, txOpts ...pfirestore.TxOption) (*BucketStore, error) {
	if provider == nil {
		return nil, errors.New("bucket store requires firestore provider")
	}
	return &BucketStore{provider: provider, txOpts: txOpts}, nil
}

// Mutate runs one transactional read-modify-write against the day bucket.
//
// The write is a full-document Set of {previous fields..., <ledger>: records}:
// fields this code version does not know about are read back and merged in
// explicitly, never updated field-by-field, so legacy bucket fields survive
// every write untouched.
func (s *BucketStore) Mutate(ctx context.Context, name ledger.Name, date time.Time, mutate ledger.Mutator) error {
	if s == nil || s.provider == nil {
		return errors.New("bucket store not initialised")
	}
	if mutate == nil {
		return errors.New("bucket store: mutator is required")
	}

	path := ledger.BucketPath(name, date)
	ref, err := s.bucketRef(ctx, path)
	if err != nil {
		return err
	}

	err = s.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		extra, records, err := readBucket(tx, ref, name)
		if err != nil {
			return err
		}

		updated, err := mutate(records)
		if err != nil {
			// Domain failure: abort with no write, surfaced verbatim.
			return fmt.Errorf("%s: %w", path, err)
		}

		payload := make(map[string]any, len(extra)+1)
		for k, v := range extra {
			payload[k] = v
		}
		payload[name.Field()] = recordsPayload(updated)
		return tx.Set(ref, payload)
	}, s.txOpts...)
	if err != nil {
		if errors.Is(err, ledger.ErrRecordNotFound) {
			return err
		}
		return pfirestore.WrapError(fmt.Sprintf("%s.mutate", name), err)
	}
	return nil
}

// Read returns the records stored in one day bucket; absent buckets read as empty.
func (s *BucketStore) Read(ctx context.Context, name ledger.Name, date time.Time) ([]ledger.Record, error) {
	if s == nil || s.provider == nil {
		return nil, errors.New("bucket store not initialised")
	}

	path := ledger.BucketPath(name, date)
	ref, err := s.bucketRef(ctx, path)
	if err != nil {
		return nil, err
	}

	snap, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, pfirestore.WrapError(fmt.Sprintf("%s.read", name), err)
	}
	return decodeRecords(snap.Data()[name.Field()]), nil
}

// ReadRange concatenates every day bucket between from and to inclusive.
func (s *BucketStore) ReadRange(ctx context.Context, name ledger.Name, from, to time.Time) ([]ledger.Record, error) {
	var all []ledger.Record
	for _, day := range ledger.Days(from, to) {
		records, err := s.Read(ctx, name, day)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}

func (s *BucketStore) bucketRef(ctx context.Context, path ledger.Path) (*firestore.DocumentRef, error) {
	client, err := s.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(path.Collection).
		Doc(path.Year).
		Collection(path.Month).
		Doc(path.Day), nil
}

// readBucket loads the bucket inside the transaction, splitting the record
// array from every other document field. Missing documents read as empty.
func readBucket(tx *firestore.Transaction, ref *firestore.DocumentRef, name ledger.Name) (map[string]any, []ledger.Record, error) {
	snap, err := tx.Get(ref)
	if status.Code(err) == codes.NotFound {
		return map[string]any{}, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	data := snap.Data()
	if data == nil {
		data = map[string]any{}
	}

	records := decodeRecords(data[name.Field()])
	extra := make(map[string]any, len(data))
	for k, v := range data {
		if k == name.Field() {
			continue
		}
		extra[k] = v
	}
	return extra, records, nil
}

func decodeRecords(raw any) []ledger.Record {
	entries, ok := raw.([]any)
	if !ok {
		return nil
	}
	records := make([]ledger.Record, 0, len(entries))
	for _, entry := range entries {
		if m, ok := entry.(map[string]any); ok {
			records = append(records, ledger.Record(m))
		}
	}
	return records
}

func recordsPayload(records []ledger.Record) []any {
	out := make([]any, 0, len(records))
	for _, rec := range records {
		out = append(out, map[string]any(rec))
	}
	return out
}
