package config

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second

	secretPrefix = "sm://"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Firestore FirestoreConfig
	Firebase  FirebaseConfig
	PSP       PSPConfig
	Events    EventsConfig
	Exports   ExportsConfig
	Features  FeatureFlags
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// FirestoreConfig stores database parameters.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// FirebaseConfig stores Firebase project settings used for auth.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
}

// PSPConfig collects secrets for the payment provider.
type PSPConfig struct {
	StripeAPIKey string
}

// EventsConfig configures the Pub/Sub order event topic.
type EventsConfig struct {
	ProjectID string
	Topic     string
}

// ExportsConfig names the Cloud Storage bucket receiving ledger exports.
type ExportsConfig struct {
	Bucket string
}

// FeatureFlags toggle optional behaviour without redeploying.
type FeatureFlags struct {
	EnableVouchers bool
	EnableExports  bool
}

// SecretResolver resolves references to external secrets (sm:// URIs).
type SecretResolver interface {
	ResolveSecret(ctx context.Context, ref string) (string, error)
}

// SecretResolverFunc adapts ordinary functions to SecretResolver.
type SecretResolverFunc func(context.Context, string) (string, error)

// ResolveSecret resolves the secret using the wrapped function.
func (f SecretResolverFunc) ResolveSecret(ctx context.Context, ref string) (string, error) {
	return f(ctx, ref)
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// SecretError describes failures while resolving a secret reference.
type SecretError struct {
	Ref string
	Err error
}

// Error implements the error interface.
func (e *SecretError) Error() string {
	return fmt.Sprintf("secret resolution failed for ref %q: %v", e.Ref, e.Err)
}

// Unwrap exposes the underlying error.
func (e *SecretError) Unwrap() error { return e.Err }

var errSecretResolverNotConfigured = errors.New("secret resolver not configured")

type options struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
	secret       SecretResolver
}

// Option customises the Load behaviour.
type Option func(*options)

// WithEnvFile overrides the env file location.
func WithEnvFile(path string) Option {
	return func(o *options) {
		o.envFile = path
	}
}

// WithEnvMap overlays explicit values on top of the environment, mainly for tests.
func WithEnvMap(values map[string]string) Option {
	return func(o *options) {
		o.envMap = values
	}
}

// WithoutSystemEnv ignores the process environment entirely.
func WithoutSystemEnv() Option {
	return func(o *options) {
		o.useSystemEnv = false
	}
}

// WithSecretResolver sets a custom secret resolver used for sm:// references.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(o *options) {
		if resolver != nil {
			o.secret = resolver
		}
	}
}

// Load reads configuration from the env file, process environment, and
// overlays, resolving sm:// secret references through the configured resolver.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	values, resolver, err := environment(opts...)
	if err != nil {
		return Config{}, err
	}

	get := func(key string) string { return strings.TrimSpace(values[key]) }
	getDefault := func(key, fallback string) string {
		if v := get(key); v != "" {
			return v
		}
		return fallback
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         getDefault("PORT", defaultPort),
			ReadTimeout:  durationValue(values, "SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationValue(values, "SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationValue(values, "SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Firestore: FirestoreConfig{
			ProjectID:    get("FIRESTORE_PROJECT_ID"),
			EmulatorHost: get("FIRESTORE_EMULATOR_HOST"),
		},
		Firebase: FirebaseConfig{
			ProjectID:       getDefault("FIREBASE_PROJECT_ID", get("FIRESTORE_PROJECT_ID")),
			CredentialsFile: get("FIREBASE_CREDENTIALS_FILE"),
		},
		Events: EventsConfig{
			ProjectID: getDefault("EVENTS_PROJECT_ID", get("FIRESTORE_PROJECT_ID")),
			Topic:     get("EVENTS_TOPIC"),
		},
		Exports: ExportsConfig{
			Bucket: get("EXPORTS_BUCKET"),
		},
		Features: FeatureFlags{
			EnableVouchers: boolValue(values, "FEATURE_VOUCHERS", true),
			EnableExports:  boolValue(values, "FEATURE_EXPORTS", false),
		},
	}

	stripeKey, err := resolveSecret(ctx, get("STRIPE_API_KEY"), resolver)
	if err != nil {
		return Config{}, err
	}
	cfg.PSP.StripeAPIKey = stripeKey

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func environment(opts ...Option) (map[string]string, SecretResolver, error) {
	options := options{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
		secret: SecretResolverFunc(func(ctx context.Context, ref string) (string, error) {
			return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
		}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	values := map[string]string{}
	if options.envFile != "" {
		fileValues, err := readEnvFile(options.envFile)
		if err != nil {
			return nil, nil, err
		}
		for k, v := range fileValues {
			values[k] = v
		}
	}
	if options.useSystemEnv {
		for _, entry := range os.Environ() {
			key, value, ok := strings.Cut(entry, "=")
			if !ok {
				continue
			}
			values[key] = value
		}
	}
	for k, v := range options.envMap {
		values[k] = v
	}
	return values, options.secret, nil
}

func readEnvFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("config: open env file %s: %w", path, err)
	}
	defer file.Close()

	values := map[string]string{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		if key != "" {
			values[key] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: read env file %s: %w", path, err)
	}
	return values, nil
}

func resolveSecret(ctx context.Context, value string, resolver SecretResolver) (string, error) {
	if !strings.HasPrefix(value, secretPrefix) {
		return value, nil
	}
	ref := strings.TrimPrefix(value, secretPrefix)
	if resolver == nil {
		return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
	}
	resolved, err := resolver.ResolveSecret(ctx, ref)
	if err != nil {
		return "", &SecretError{Ref: ref, Err: err}
	}
	return resolved, nil
}

func validateConfig(cfg Config) error {
	var missing []string
	if strings.TrimSpace(cfg.Firestore.ProjectID) == "" {
		missing = append(missing, "FIRESTORE_PROJECT_ID")
	}
	if _, err := strconv.Atoi(cfg.Server.Port); err != nil {
		missing = append(missing, "PORT")
	}
	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func durationValue(values map[string]string, key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(values[key])
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func boolValue(values map[string]string, key string, fallback bool) bool {
	raw := strings.TrimSpace(values[key])
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
