package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tomychi/anhelo-dashboard-sub001/internal/ledger"
)

type stubUploader struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newStubUploader() *stubUploader {
	return &stubUploader{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (s *stubUploader) Upload(_ context.Context, object, contentType string, data []byte) error {
	if s.err != nil {
		return s.err
	}
	s.objects[object] = append([]byte(nil), data...)
	s.types[object] = contentType
	return nil
}

func (s *stubUploader) Bucket() string { return "anhelo-exports" }

func newTestExportService(t *testing.T, store *stubRecordStore, uploader *stubUploader) ExportService {
	t.Helper()
	svc, err := NewExportService(ExportServiceDeps{
		Records:  store,
		Uploader: uploader,
		Clock:    fixedClock(time.Date(2024, time.April, 1, 8, 30, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("NewExportService failed: %v", err)
	}
	return svc
}

func TestExportServiceExportOrders(t *testing.T) {
	store := newStubRecordStore()
	uploader := newStubUploader()
	svc := newTestExportService(t, store, uploader)
	ctx := context.Background()

	day1 := time.Date(2024, time.March, 30, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	store.buckets[store.key(ledger.Orders, day1)] = []ledger.Record{
		{"id": "a", "fecha": "30/03/2024", "hora": "20:10", "total": 9800.0, "paid": true, "cadete": "maxi"},
	}
	store.buckets[store.key(ledger.Orders, day2)] = []ledger.Record{
		{"id": "b", "fecha": "31/03/2024", "hora": "21:00", "total": 5400.0},
	}

	result, err := svc.ExportOrders(ctx, day1, day2)
	if err != nil {
		t.Fatalf("ExportOrders failed: %v", err)
	}
	if result.Bucket != "anhelo-exports" || result.Rows != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if !strings.HasPrefix(result.Object, "exports/pedidos/20240330_20240331_") {
		t.Fatalf("unexpected object name: %q", result.Object)
	}
	if uploader.types[result.Object] != "text/csv" {
		t.Fatalf("unexpected content type: %q", uploader.types[result.Object])
	}

	rows, err := csv.NewReader(bytes.NewReader(uploader.objects[result.Object])).ReadAll()
	if err != nil {
		t.Fatalf("exported CSV does not parse: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus two rows, got %d", len(rows))
	}
	if rows[1][0] != "a" || rows[1][3] != "9800" || rows[1][8] != "true" {
		t.Fatalf("unexpected first row: %v", rows[1])
	}
	if rows[2][0] != "b" || rows[2][3] != "5400" {
		t.Fatalf("unexpected second row: %v", rows[2])
	}
}

func TestExportServiceExportExpenses(t *testing.T) {
	store := newStubRecordStore()
	uploader := newStubUploader()
	svc := newTestExportService(t, store, uploader)
	ctx := context.Background()

	day := time.Date(2024, time.March, 30, 0, 0, 0, 0, time.UTC)
	store.buckets[store.key(ledger.Expenses, day)] = []ledger.Record{
		{"id": "g1", "name": "Carne", "quantity": 40.0, "unit": "kg", "total": 180000.0, "estado": "pagado"},
	}

	result, err := svc.ExportExpenses(ctx, day, day)
	if err != nil {
		t.Fatalf("ExportExpenses failed: %v", err)
	}
	rows, err := csv.NewReader(bytes.NewReader(uploader.objects[result.Object])).ReadAll()
	if err != nil {
		t.Fatalf("exported CSV does not parse: %v", err)
	}
	if len(rows) != 2 || rows[1][2] != "Carne" || rows[1][7] != "pagado" {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

func TestExportServiceValidatesWindow(t *testing.T) {
	svc := newTestExportService(t, newStubRecordStore(), newStubUploader())

	from := time.Date(2024, time.March, 30, 0, 0, 0, 0, time.UTC)
	if _, err := svc.ExportOrders(context.Background(), from, from.AddDate(0, 0, -1)); !errors.Is(err, ErrExportInvalidInput) {
		t.Fatalf("expected ErrExportInvalidInput, got %v", err)
	}
}

func TestExportServiceUploadFailure(t *testing.T) {
	store := newStubRecordStore()
	uploader := newStubUploader()
	uploader.err = errors.New("bucket unreachable")
	svc := newTestExportService(t, store, uploader)

	day := time.Date(2024, time.March, 30, 0, 0, 0, 0, time.UTC)
	if _, err := svc.ExportOrders(context.Background(), day, day); err == nil {
		t.Fatalf("expected upload error to surface")
	}
}
