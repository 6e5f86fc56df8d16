package ledger

import "testing"

func TestRecordAccessors(t *testing.T) {
	rec := Record{
		"id":       "01HX",
		"paid":     true,
		"total":    int64(7400),
		"envio":    500,
		"subTotal": 6900.0,
		"cadete":   "NO ASIGNADO",
	}

	if rec.ID() != "01HX" {
		t.Fatalf("unexpected id: %q", rec.ID())
	}
	if !rec.Bool("paid") || rec.Bool("missing") {
		t.Fatal("bool accessor mismatch")
	}
	if rec.String("cadete") != "NO ASIGNADO" || rec.String("total") != "" {
		t.Fatal("string accessor mismatch")
	}
	for field, want := range map[string]float64{
		"total":    7400,
		"envio":    500,
		"subTotal": 6900,
		"missing":  0,
		"cadete":   0,
	} {
		if got := rec.Float(field); got != want {
			t.Fatalf("Float(%q) = %v, want %v", field, got, want)
		}
	}
}

func TestRecordIDAbsentOrUntyped(t *testing.T) {
	if (Record{}).ID() != "" {
		t.Fatal("missing id should read as empty")
	}
	if (Record{"id": 42}).ID() != "" {
		t.Fatal("non-string id should read as empty")
	}
}

func TestRecordClone(t *testing.T) {
	original := Record{"id": "a", "extra": "keep"}
	clone := original.Clone()

	clone["id"] = "b"
	clone["added"] = true

	if original.ID() != "a" {
		t.Fatal("clone mutation leaked into the original")
	}
	if _, ok := original["added"]; ok {
		t.Fatal("clone addition leaked into the original")
	}
	if clone.String("extra") != "keep" {
		t.Fatal("clone dropped a field")
	}

	var nilRecord Record
	if nilRecord.Clone() != nil {
		t.Fatal("nil record should clone to nil")
	}
}
