package config

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile        = ".env"
	defaultPort           = "8080"
	defaultReadTimeout    = 15 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second
	defaultRequestTimeout = 30 * time.Second
	defaultLogLevel       = "info"
	defaultVisitsBackend  = BackendMemory
	defaultSQLitePath     = "visits.db"
	defaultCounterID      = "site:visits"
	defaultCookieName     = "JBAI_VISITOR"
	defaultCookieTTL      = 365 * 24 * time.Hour
	defaultRefresh        = 30 * time.Second
	defaultAPIBaseURL     = "http://localhost:8080"
	defaultLang           = "en"
	defaultTxAttempts     = 5
	defaultTxTimeout      = 15 * time.Second
	defaultDialTimeout    = 10 * time.Second
)

// Visit counter storage backends.
const (
	BackendMemory    = "memory"
	BackendSQLite    = "sqlite"
	BackendFirestore = "firestore"
)

// Config captures runtime configuration organised by concern.
type Config struct {
	Server  ServerConfig
	Log     LogConfig
	Catalog CatalogConfig
	Visits  VisitsConfig
	Cookie  CookieConfig
	Client  ClientConfig
	Cloud   CloudConfig
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
	DevMode        bool
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level string
}

// CatalogConfig points at the content file. An empty Path selects the embedded catalog.
type CatalogConfig struct {
	Path  string
	Watch bool
	Lang  string
}

// VisitsConfig selects and configures the visit counter backend.
type VisitsConfig struct {
	Backend           string
	CounterID         string
	SQLitePath        string
	FirestoreProject  string
	FirestoreEmulator string
	TxAttempts        int
	TxTimeout         time.Duration
	DialTimeout       time.Duration
}

// CloudConfig holds settings shared by the Google Cloud clients.
type CloudConfig struct {
	CredentialsFile string
}

// CookieConfig configures the signed visitor cookie. SigningKey may be a secret:// or sm://
// reference, resolved by Load.
type CookieConfig struct {
	Name       string
	SigningKey string
	TTL        time.Duration
	Secure     bool
}

// ClientConfig configures the terminal browser's connection to the web server.
type ClientConfig struct {
	BaseURL         string
	RefreshInterval time.Duration
	StateDir        string
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the offending field names.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// SecretResolver resolves secret references into concrete values.
type SecretResolver interface {
	ResolveSecret(ctx context.Context, ref string) (string, error)
}

// SecretResolverFunc adapts a function into a SecretResolver.
type SecretResolverFunc func(ctx context.Context, ref string) (string, error)

// ResolveSecret implements SecretResolver.
func (f SecretResolverFunc) ResolveSecret(ctx context.Context, ref string) (string, error) {
	return f(ctx, ref)
}

// SecretError reports a secret reference that could not be resolved.
type SecretError struct {
	Field string
	Ref   string
	Err   error
}

func (e *SecretError) Error() string {
	return fmt.Sprintf("config: resolve %s (%s): %v", e.Field, e.Ref, e.Err)
}

func (e *SecretError) Unwrap() error {
	return e.Err
}

var errSecretResolverNotConfigured = errors.New("secret resolver not configured")

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile        string
	envMap         map[string]string
	useSystemEnv   bool
	secretResolver SecretResolver
}

// WithSecretResolver sets the resolver used for secret:// and sm:// values.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(o *loaderOptions) {
		o.secretResolver = resolver
	}
}

// WithEnvFile overrides the .env file path.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects explicit values that take precedence over the process environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv stops Load from consulting os.LookupEnv.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

func newLoaderOptions(opts []Option) loaderOptions {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func (o loaderOptions) lookup() (func(string) (string, bool), error) {
	dotEnv, err := loadDotEnv(o.envFile)
	if err != nil {
		return nil, err
	}
	return func(key string) (string, bool) {
		if v, ok := o.envMap[key]; ok {
			return v, true
		}
		if o.useSystemEnv {
			if v, ok := os.LookupEnv(key); ok {
				return v, true
			}
		}
		if v, ok := dotEnv[key]; ok {
			return v, true
		}
		return "", false
	}, nil
}

// EnvironmentValues returns the merged .env, process environment and explicit values with the
// same precedence Load uses. It lets callers build a secret resolver before calling Load.
func EnvironmentValues(opts ...Option) (map[string]string, error) {
	options := newLoaderOptions(opts)
	dotEnv, err := loadDotEnv(options.envFile)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string, len(dotEnv))
	for key, value := range dotEnv {
		values[key] = value
	}
	if options.useSystemEnv {
		for _, entry := range os.Environ() {
			key, value, ok := strings.Cut(entry, "=")
			if !ok || strings.TrimSpace(key) == "" {
				continue
			}
			values[key] = value
		}
	}
	for key, value := range options.envMap {
		values[key] = value
	}
	return values, nil
}

// Load assembles configuration from defaults, the .env file, the process environment,
// and any explicit map, in increasing order of precedence. Secret references are resolved
// through the configured SecretResolver.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	options := newLoaderOptions(opts)
	lookup, err := options.lookup()
	if err != nil {
		return Config{}, err
	}

	port := stringWithDefault(lookup, "APP_SERVER_PORT", "")
	if port == "" {
		// Cloud Run injects PORT.
		port = stringWithDefault(lookup, "PORT", defaultPort)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:           port,
			ReadTimeout:    durationWithDefault(lookup, "APP_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:   durationWithDefault(lookup, "APP_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:    durationWithDefault(lookup, "APP_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
			RequestTimeout: durationWithDefault(lookup, "APP_SERVER_REQUEST_TIMEOUT", defaultRequestTimeout),
			DevMode:        boolWithDefault(lookup, "APP_DEV", false),
		},
		Log: LogConfig{
			Level: stringWithDefault(lookup, "LOG_LEVEL", defaultLogLevel),
		},
		Catalog: CatalogConfig{
			Path: stringWithDefault(lookup, "APP_CATALOG_PATH", ""),
			Lang: strings.ToLower(stringWithDefault(lookup, "APP_CATALOG_LANG", defaultLang)),
		},
		Visits: VisitsConfig{
			Backend:           strings.ToLower(stringWithDefault(lookup, "APP_VISITS_BACKEND", defaultVisitsBackend)),
			CounterID:         stringWithDefault(lookup, "APP_VISITS_COUNTER_ID", defaultCounterID),
			SQLitePath:        stringWithDefault(lookup, "APP_VISITS_SQLITE_PATH", defaultSQLitePath),
			FirestoreProject:  stringWithDefault(lookup, "APP_FIRESTORE_PROJECT_ID", stringWithDefault(lookup, "GOOGLE_CLOUD_PROJECT", "")),
			FirestoreEmulator: stringWithDefault(lookup, "FIRESTORE_EMULATOR_HOST", ""),
			TxAttempts:        intWithDefault(lookup, "APP_FIRESTORE_TX_ATTEMPTS", defaultTxAttempts),
			TxTimeout:         durationWithDefault(lookup, "APP_FIRESTORE_TX_TIMEOUT", defaultTxTimeout),
			DialTimeout:       durationWithDefault(lookup, "APP_FIRESTORE_DIAL_TIMEOUT", defaultDialTimeout),
		},
		Cookie: CookieConfig{
			Name:       stringWithDefault(lookup, "APP_COOKIE_NAME", defaultCookieName),
			SigningKey: stringWithDefault(lookup, "APP_COOKIE_SIGNING_KEY", ""),
			TTL:        durationWithDefault(lookup, "APP_COOKIE_TTL", defaultCookieTTL),
			Secure:     boolWithDefault(lookup, "APP_COOKIE_SECURE", false),
		},
		Client: ClientConfig{
			BaseURL:         stringWithDefault(lookup, "APP_API_BASE_URL", defaultAPIBaseURL),
			RefreshInterval: durationWithDefault(lookup, "APP_VISITS_REFRESH", defaultRefresh),
			StateDir:        stringWithDefault(lookup, "APP_STATE_DIR", ""),
		},
		Cloud: CloudConfig{
			CredentialsFile: stringWithDefault(lookup, "APP_GCP_CREDENTIALS_FILE", ""),
		},
	}
	// Hot reload only makes sense for a file on disk.
	cfg.Catalog.Watch = cfg.Server.DevMode && cfg.Catalog.Path != ""

	signingKey, err := resolveSecret(ctx, "Cookie.SigningKey", cfg.Cookie.SigningKey, options.secretResolver)
	if err != nil {
		return Config{}, err
	}
	cfg.Cookie.SigningKey = signingKey

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var invalid []string

	if strings.TrimSpace(cfg.Server.Port) == "" {
		invalid = append(invalid, "Server.Port")
	}
	if cfg.Server.RequestTimeout <= 0 {
		invalid = append(invalid, "Server.RequestTimeout")
	}
	switch cfg.Visits.Backend {
	case BackendMemory:
	case BackendSQLite:
		if strings.TrimSpace(cfg.Visits.SQLitePath) == "" {
			invalid = append(invalid, "Visits.SQLitePath")
		}
	case BackendFirestore:
		if strings.TrimSpace(cfg.Visits.FirestoreProject) == "" {
			invalid = append(invalid, "Visits.FirestoreProject")
		}
	default:
		invalid = append(invalid, "Visits.Backend")
	}
	if cfg.Visits.TxAttempts <= 0 {
		invalid = append(invalid, "Visits.TxAttempts")
	}
	if strings.TrimSpace(cfg.Visits.CounterID) == "" {
		invalid = append(invalid, "Visits.CounterID")
	}
	if strings.TrimSpace(cfg.Cookie.Name) == "" {
		invalid = append(invalid, "Cookie.Name")
	}
	if cfg.Cookie.TTL <= 0 {
		invalid = append(invalid, "Cookie.TTL")
	}
	if cfg.Client.RefreshInterval <= 0 {
		invalid = append(invalid, "Client.RefreshInterval")
	}

	if len(invalid) > 0 {
		return &ValidationError{fields: invalid}
	}
	return nil
}

func resolveSecret(ctx context.Context, field, value string, resolver SecretResolver) (string, error) {
	if !isSecretReference(value) {
		return value, nil
	}
	ref := normalizeSecretReference(value)
	if resolver == nil {
		return "", &SecretError{Field: field, Ref: ref, Err: errSecretResolverNotConfigured}
	}
	resolved, err := resolver.ResolveSecret(ctx, ref)
	if err != nil {
		return "", &SecretError{Field: field, Ref: ref, Err: err}
	}
	return strings.TrimSpace(resolved), nil
}

func isSecretReference(value string) bool {
	value = strings.TrimSpace(value)
	return strings.HasPrefix(value, "secret://") || strings.HasPrefix(value, "sm://")
}

func normalizeSecretReference(value string) string {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "sm://") {
		return "secret://" + strings.TrimPrefix(value, "sm://")
	}
	return value
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}

// Addr returns the listen address derived from the port.
func (s ServerConfig) Addr() string {
	if strings.Contains(s.Port, ":") {
		return s.Port
	}
	return ":" + s.Port
}
