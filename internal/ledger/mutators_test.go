package ledger

import (
	"errors"
	"reflect"
	"testing"
)

func TestAppend(t *testing.T) {
	base := []Record{{"id": "A1", "total": 1000.0}}

	out, err := Append(Record{"id": "A2", "total": 500.0})(base)
	if err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	if len(out) != 2 || out[1].ID() != "A2" {
		t.Fatalf("expected appended record at the end, got %#v", out)
	}
	if len(base) != 1 {
		t.Fatalf("input slice must not be modified, got %#v", base)
	}
}

func TestPatchByID(t *testing.T) {
	base := []Record{
		{"id": "A1", "total": 1000.0, "paid": false, "legacyField": "x"},
		{"id": "A2", "total": 500.0, "paid": false},
	}

	out, err := PatchByID("A2", func(rec Record) Record {
		rec["elaborado"] = true
		return rec
	})(base)
	if err != nil {
		t.Fatalf("PatchByID returned error: %v", err)
	}

	if !out[1].Bool("elaborado") {
		t.Fatalf("expected elaborado on A2, got %#v", out[1])
	}
	// Sibling records and unknown fields must round-trip untouched.
	if !reflect.DeepEqual(out[0], base[0]) {
		t.Fatalf("A1 changed: %#v", out[0])
	}
	if base[1].Bool("elaborado") {
		t.Fatalf("input record mutated: %#v", base[1])
	}
	if out[0].String("legacyField") != "x" {
		t.Fatalf("unknown field dropped: %#v", out[0])
	}
}

func TestPatchByIDAddsMissingField(t *testing.T) {
	base := []Record{{"id": "A1"}}

	out, err := ReplaceFieldByID("A1", "deliveryMethod", "delivery")(base)
	if err != nil {
		t.Fatalf("ReplaceFieldByID returned error: %v", err)
	}
	if out[0].String("deliveryMethod") != "delivery" {
		t.Fatalf("field absent on legacy record must be added, got %#v", out[0])
	}
}

func TestPatchByIDNotFound(t *testing.T) {
	base := []Record{{"id": "A1"}}

	out, err := PatchByID("missing", func(rec Record) Record { return rec })(base)
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	if out != nil {
		t.Fatalf("failed patch must not produce an array, got %#v", out)
	}
	if len(base) != 1 || base[0].ID() != "A1" {
		t.Fatalf("failed patch mutated input: %#v", base)
	}
}

func TestDeleteByID(t *testing.T) {
	base := []Record{{"id": "A1"}, {"id": "A2"}, {"id": "A3"}}

	out, err := DeleteByID("A2")(base)
	if err != nil {
		t.Fatalf("DeleteByID returned error: %v", err)
	}
	if len(out) != 2 || out[0].ID() != "A1" || out[1].ID() != "A3" {
		t.Fatalf("unexpected result: %#v", out)
	}

	if _, err := DeleteByID("A2")(out); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound for deleted id, got %v", err)
	}
}

func TestSetFieldsByID(t *testing.T) {
	base := []Record{{"id": "A1", "elaborado": false}}

	out, err := SetFieldsByID("A1", map[string]any{
		"elaborado":       true,
		"tiempoElaborado": "00:25",
	})(base)
	if err != nil {
		t.Fatalf("SetFieldsByID returned error: %v", err)
	}
	if !out[0].Bool("elaborado") || out[0].String("tiempoElaborado") != "00:25" {
		t.Fatalf("unexpected record: %#v", out[0])
	}
}
