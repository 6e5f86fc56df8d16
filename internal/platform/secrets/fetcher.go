package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const (
	defaultCacheTTL = 5 * time.Minute
	metricNamespace = "github.com/tomychi/anhelo-dashboard-sub001/internal/platform/secrets"
)

var secretManagerClientFactory = func(ctx context.Context, opts ...option.ClientOption) (*secretmanager.Client, error) {
	return secretmanager.NewClient(ctx, opts...)
}

type secretManagerClient interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

// Fetcher resolves sm:// references through Google Secret Manager with a
// small in-process cache. Resolutions are instrumented so slow Secret
// Manager calls during config load show up alongside request traces.
type Fetcher struct {
	client     secretManagerClient
	ownsClient bool
	logger     *zap.Logger
	projectID  string
	cacheTTL   time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry

	latency          metric.Float64Histogram
	latencyEnabled   bool
	cacheHits        metric.Int64Counter
	cacheHitsEnabled bool
}

type cacheEntry struct {
	value     string
	fetchedAt time.Time
}

type fetcherConfig struct {
	logger     *zap.Logger
	projectID  string
	cacheTTL   time.Duration
	meter      metric.Meter
	client     secretManagerClient
	clientOpts []option.ClientOption
}

// Option customises Fetcher construction.
type Option func(*fetcherConfig)

// WithLogger sets the logger used for diagnostic output.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *fetcherConfig) {
		cfg.logger = logger
	}
}

// WithDefaultProject configures the project used for short secret names.
func WithDefaultProject(projectID string) Option {
	return func(cfg *fetcherConfig) {
		cfg.projectID = strings.TrimSpace(projectID)
	}
}

// WithCacheTTL overrides how long resolved secrets are reused.
func WithCacheTTL(ttl time.Duration) Option {
	return func(cfg *fetcherConfig) {
		if ttl > 0 {
			cfg.cacheTTL = ttl
		}
	}
}

// WithMeter injects a custom OpenTelemetry meter.
func WithMeter(m metric.Meter) Option {
	return func(cfg *fetcherConfig) {
		cfg.meter = m
	}
}

// WithSecretManagerClient injects a preconfigured client (primarily for tests).
func WithSecretManagerClient(client secretManagerClient) Option {
	return func(cfg *fetcherConfig) {
		cfg.client = client
	}
}

// WithClientOptions forwards Cloud client options when constructing the client.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(cfg *fetcherConfig) {
		cfg.clientOpts = append(cfg.clientOpts, opts...)
	}
}

// NewFetcher constructs a Fetcher, creating a Secret Manager client unless one was injected.
func NewFetcher(ctx context.Context, opts ...Option) (*Fetcher, error) {
	cfg := fetcherConfig{cacheTTL: defaultCacheTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	meter := cfg.meter
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(metricNamespace)
	}
	latency, latencyErr := meter.Float64Histogram(
		"secrets.fetch.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("Latency in milliseconds for secret fetch attempts"),
	)
	if latencyErr != nil {
		cfg.logger.Warn("secrets: unable to register latency metric", zap.Error(latencyErr))
	}
	cacheHits, cacheErr := meter.Int64Counter(
		"secrets.fetch.cache_hits",
		metric.WithDescription("Count of cache hits when resolving secrets"),
	)
	if cacheErr != nil {
		cfg.logger.Warn("secrets: unable to register cache hit metric", zap.Error(cacheErr))
	}

	fetcher := &Fetcher{
		client:           cfg.client,
		logger:           cfg.logger,
		projectID:        cfg.projectID,
		cacheTTL:         cfg.cacheTTL,
		cache:            map[string]cacheEntry{},
		latency:          latency,
		latencyEnabled:   latencyErr == nil,
		cacheHits:        cacheHits,
		cacheHitsEnabled: cacheErr == nil,
	}
	if fetcher.client == nil {
		client, err := secretManagerClientFactory(ctx, cfg.clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("secrets: create client: %w", err)
		}
		fetcher.client = client
		fetcher.ownsClient = true
	}
	return fetcher, nil
}

// Resolve fetches the secret payload for the given reference. A reference is
// either a full Secret Manager resource name or a short secret name resolved
// against the default project at its latest version.
func (f *Fetcher) Resolve(ctx context.Context, ref string) (string, error) {
	if f == nil || f.client == nil {
		return "", errors.New("secrets: fetcher not initialised")
	}
	start := time.Now()
	name, err := f.canonicalName(ref)
	if err != nil {
		return "", err
	}

	f.mu.RLock()
	entry, ok := f.cache[name]
	f.mu.RUnlock()
	if ok && time.Since(entry.fetchedAt) < f.cacheTTL {
		f.recordCacheHit(ctx, name)
		f.recordLatency(ctx, time.Since(start), "cache", nil)
		return entry.value, nil
	}

	resp, err := f.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		f.recordLatency(ctx, time.Since(start), "error", err)
		return "", fmt.Errorf("secrets: access %s: %w", name, err)
	}
	value := string(resp.GetPayload().GetData())

	f.mu.Lock()
	f.cache[name] = cacheEntry{value: value, fetchedAt: time.Now()}
	f.mu.Unlock()

	f.recordLatency(ctx, time.Since(start), "remote", nil)
	f.logger.Debug("secret resolved", zap.String("name", name))
	return value, nil
}

// Close releases the Secret Manager client when owned by the fetcher.
func (f *Fetcher) Close() error {
	if f == nil || f.client == nil || !f.ownsClient {
		return nil
	}
	return f.client.Close()
}

func (f *Fetcher) canonicalName(ref string) (string, error) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return "", errors.New("secrets: reference is empty")
	}
	if strings.HasPrefix(trimmed, "projects/") {
		if strings.Contains(trimmed, "/versions/") {
			return trimmed, nil
		}
		return trimmed + "/versions/latest", nil
	}
	if f.projectID == "" {
		return "", fmt.Errorf("secrets: short reference %q requires a default project", trimmed)
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", f.projectID, trimmed), nil
}

func (f *Fetcher) recordLatency(ctx context.Context, d time.Duration, source string, err error) {
	if !f.latencyEnabled {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("source", source)}
	if err != nil {
		attrs = append(attrs, attribute.String("error", err.Error()))
	}
	f.latency.Record(ctx, float64(d)/float64(time.Millisecond), metric.WithAttributes(attrs...))
}

func (f *Fetcher) recordCacheHit(ctx context.Context, name string) {
	if !f.cacheHitsEnabled {
		return
	}
	f.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("secret", name)))
}
