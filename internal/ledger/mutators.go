package ledger

import (
	"errors"
	"fmt"
)

// ErrRecordNotFound reports that a mutation targeted an id not present in
// the bucket. Surfaced verbatim to the caller; the bucket is left unwritten.
var ErrRecordNotFound = errors.New("ledger: record not found")

// Mutator is a pure transform over a bucket's record array. It must not
// modify its input; the store applies it inside a transaction and writes
// the result back as the new array.
type Mutator func(records []Record) ([]Record, error)

// Append returns a mutator that pushes rec to the end of the array.
// Uniqueness of rec's id within the bucket is a caller precondition and is
// never checked here; callers generate ids at the edge (ULIDs).
func Append(rec Record) Mutator {
	return func(records []Record) ([]Record, error) {
		out := make([]Record, 0, len(records)+1)
		out = append(out, records...)
		out = append(out, rec)
		return out, nil
	}
}

// PatchByID returns a mutator that replaces the record with the given id by
// patch(record). The record is located by linear scan. A patch may set
// fields that do not exist yet on older records; they are simply added.
func PatchByID(id string, patch func(Record) Record) Mutator {
	return func(records []Record) ([]Record, error) {
		idx := indexByID(records, id)
		if idx < 0 {
			return nil, fmt.Errorf("%w: id %q", ErrRecordNotFound, id)
		}
		out := make([]Record, len(records))
		copy(out, records)
		out[idx] = patch(records[idx].Clone())
		return out, nil
	}
}

// DeleteByID returns a mutator that removes the record with the given id.
func DeleteByID(id string) Mutator {
	return func(records []Record) ([]Record, error) {
		idx := indexByID(records, id)
		if idx < 0 {
			return nil, fmt.Errorf("%w: id %q", ErrRecordNotFound, id)
		}
		out := make([]Record, 0, len(records)-1)
		out = append(out, records[:idx]...)
		out = append(out, records[idx+1:]...)
		return out, nil
	}
}

// ReplaceFieldByID returns a mutator that sets a single field on the record
// with the given id, leaving every other field untouched.
func ReplaceFieldByID(id, field string, value any) Mutator {
	return PatchByID(id, func(rec Record) Record {
		rec[field] = value
		return rec
	})
}

// SetFieldsByID returns a mutator that sets several fields on the record
// with the given id in one pass.
func SetFieldsByID(id string, fields map[string]any) Mutator {
	return PatchByID(id, func(rec Record) Record {
		for k, v := range fields {
			rec[k] = v
		}
		return rec
	})
}

func indexByID(records []Record, id string) int {
	for i, rec := range records {
		if rec.ID() == id {
			return i
		}
	}
	return -1
}
