package secrets

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type stubSecretClient struct {
	calls  int
	values map[string]string
}

func (s *stubSecretClient) AccessSecretVersion(_ context.Context, req *secretmanagerpb.AccessSecretVersionRequest, _ ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	s.calls++
	value, ok := s.values[req.GetName()]
	if !ok {
		return nil, errors.New("secret not found")
	}
	return &secretmanagerpb.AccessSecretVersionResponse{
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(value)},
	}, nil
}

func (s *stubSecretClient) Close() error { return nil }

func TestResolveShortName(t *testing.T) {
	stub := &stubSecretClient{values: map[string]string{
		"projects/anhelo/secrets/stripe-key/versions/latest": "sk_test_123",
	}}

	fetcher, err := NewFetcher(context.Background(),
		WithSecretManagerClient(stub),
		WithDefaultProject("anhelo"),
	)
	if err != nil {
		t.Fatalf("NewFetcher returned error: %v", err)
	}

	value, err := fetcher.Resolve(context.Background(), "stripe-key")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if value != "sk_test_123" {
		t.Fatalf("unexpected value %q", value)
	}
}

func TestResolveCaches(t *testing.T) {
	stub := &stubSecretClient{values: map[string]string{
		"projects/anhelo/secrets/stripe-key/versions/latest": "sk_test_123",
	}}

	fetcher, err := NewFetcher(context.Background(),
		WithSecretManagerClient(stub),
		WithDefaultProject("anhelo"),
		WithCacheTTL(time.Minute),
	)
	if err != nil {
		t.Fatalf("NewFetcher returned error: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := fetcher.Resolve(context.Background(), "stripe-key"); err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
	}
	if stub.calls != 1 {
		t.Fatalf("expected 1 backend call, got %d", stub.calls)
	}
}

func TestResolveFullResourceName(t *testing.T) {
	stub := &stubSecretClient{values: map[string]string{
		"projects/other/secrets/key/versions/3": "v3",
	}}

	fetcher, err := NewFetcher(context.Background(), WithSecretManagerClient(stub))
	if err != nil {
		t.Fatalf("NewFetcher returned error: %v", err)
	}

	value, err := fetcher.Resolve(context.Background(), "projects/other/secrets/key/versions/3")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if value != "v3" {
		t.Fatalf("unexpected value %q", value)
	}
}

func TestResolveRecordsMetrics(t *testing.T) {
	stub := &stubSecretClient{values: map[string]string{
		"projects/anhelo/secrets/stripe-key/versions/latest": "sk_test_123",
	}}
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	fetcher, err := NewFetcher(context.Background(),
		WithSecretManagerClient(stub),
		WithDefaultProject("anhelo"),
		WithCacheTTL(time.Minute),
		WithMeter(provider.Meter("secrets-test")),
	)
	if err != nil {
		t.Fatalf("NewFetcher returned error: %v", err)
	}

	// First resolve hits the backend, second is served from cache.
	for i := 0; i < 2; i++ {
		if _, err := fetcher.Resolve(context.Background(), "stripe-key"); err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}

	var cacheHits int64
	var latencySamples uint64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			switch m.Name {
			case "secrets.fetch.cache_hits":
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok {
					t.Fatalf("cache_hits has unexpected data type %T", m.Data)
				}
				for _, dp := range sum.DataPoints {
					cacheHits += dp.Value
				}
			case "secrets.fetch.latency":
				hist, ok := m.Data.(metricdata.Histogram[float64])
				if !ok {
					t.Fatalf("latency has unexpected data type %T", m.Data)
				}
				for _, dp := range hist.DataPoints {
					latencySamples += dp.Count
				}
			}
		}
	}

	if cacheHits != 1 {
		t.Fatalf("expected 1 cache hit, got %d", cacheHits)
	}
	if latencySamples != 2 {
		t.Fatalf("expected 2 latency samples, got %d", latencySamples)
	}
}

func TestResolveShortNameWithoutProject(t *testing.T) {
	fetcher, err := NewFetcher(context.Background(), WithSecretManagerClient(&stubSecretClient{}))
	if err != nil {
		t.Fatalf("NewFetcher returned error: %v", err)
	}

	if _, err := fetcher.Resolve(context.Background(), "stripe-key"); err == nil {
		t.Fatalf("expected error for short reference without default project")
	}
}
