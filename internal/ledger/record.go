package ledger

// Record is one logical entity stored inside a day bucket. Records are open
// mappings: fields a given code version does not know about must survive
// every mutation untouched, so buckets written by older or newer versions
// are never corrupted.
type Record map[string]any

// ID returns the record identifier, or "" when absent. Records are located
// only by id; there is no secondary index.
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Clone copies the record's top-level mapping. Mutators patch records at
// the top level only, so a shallow copy is enough to keep the caller's
// slice untouched on failure.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// String returns the named field as a string when present.
func (r Record) String(field string) string {
	v, _ := r[field].(string)
	return v
}

// Bool returns the named field as a bool when present.
func (r Record) Bool(field string) bool {
	v, _ := r[field].(bool)
	return v
}

// Float returns the named field as a float64, accepting the integer shapes
// Firestore hands back for numbers written as ints.
func (r Record) Float(field string) float64 {
	switch v := r[field].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}
