// Package config loads kiosk runtime configuration from defaults, an
// optional .env file, environment variables, and explicit overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile            = ".env"
	defaultPort               = "8080"
	defaultReadTimeout        = 15 * time.Second
	defaultWriteTimeout       = 30 * time.Second
	defaultIdleTimeout        = 120 * time.Second
	defaultShutdownTimeout    = 10 * time.Second
	defaultMachineID          = "machine-001"
	defaultMachineTimeout     = 10 * time.Second
	defaultInventoryRefresh   = 30 * time.Second
	defaultSessionTTL         = 30 * time.Minute
	defaultAlertDuration      = 3 * time.Second
	defaultOrderPollInterval  = 2 * time.Second
	defaultOrderPollTimeout   = 5 * time.Minute
	defaultIdempotencyHeader  = "Idempotency-Key"
	defaultIdempotencyTTL     = 24 * time.Hour
	defaultIdempotencySweep   = time.Hour
	defaultLogLevel           = "info"
	defaultPaymentProcessing  = 3 * time.Second
	defaultPaymentFailureRate = 0.0
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server      ServerConfig
	Machine     MachineConfig
	Session     SessionConfig
	Orders      OrderConfig
	Idempotency IdempotencyConfig
	Log         LogConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// MachineConfig points the kiosk at its vending machine backend.
type MachineConfig struct {
	BaseURL          string
	MachineID        string
	RequestTimeout   time.Duration
	InventoryRefresh time.Duration
}

// SessionConfig controls per-shopper session behaviour.
type SessionConfig struct {
	TTL           time.Duration
	AlertDuration time.Duration
}

// OrderConfig controls order submission and status polling.
type OrderConfig struct {
	PollInterval       time.Duration
	PollTimeout        time.Duration
	PaymentDelay       time.Duration
	PaymentFailureRate float64
}

// IdempotencyConfig controls the order-submission replay guard.
type IdempotencyConfig struct {
	Header string
	TTL    time.Duration
	Sweep  time.Duration
}

// LogConfig controls logger construction.
type LogConfig struct {
	Level string
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

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values
// in the map take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided
// maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the kiosk configuration by combining defaults, .env
// overrides, and environment variables.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}

	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            stringWithDefault(lookup, "KIOSK_SERVER_PORT", defaultPort),
			ReadTimeout:     durationWithDefault(lookup, "KIOSK_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:    durationWithDefault(lookup, "KIOSK_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:     durationWithDefault(lookup, "KIOSK_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
			ShutdownTimeout: durationWithDefault(lookup, "KIOSK_SERVER_SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		},
		Machine: MachineConfig{
			BaseURL:          stringWithDefault(lookup, "KIOSK_MACHINE_BASE_URL", ""),
			MachineID:        stringWithDefault(lookup, "KIOSK_MACHINE_ID", defaultMachineID),
			RequestTimeout:   durationWithDefault(lookup, "KIOSK_MACHINE_REQUEST_TIMEOUT", defaultMachineTimeout),
			InventoryRefresh: durationWithDefault(lookup, "KIOSK_MACHINE_INVENTORY_REFRESH", defaultInventoryRefresh),
		},
		Session: SessionConfig{
			TTL:           durationWithDefault(lookup, "KIOSK_SESSION_TTL", defaultSessionTTL),
			AlertDuration: durationWithDefault(lookup, "KIOSK_SESSION_ALERT_DURATION", defaultAlertDuration),
		},
		Orders: OrderConfig{
			PollInterval:       durationWithDefault(lookup, "KIOSK_ORDER_POLL_INTERVAL", defaultOrderPollInterval),
			PollTimeout:        durationWithDefault(lookup, "KIOSK_ORDER_POLL_TIMEOUT", defaultOrderPollTimeout),
			PaymentDelay:       durationWithDefault(lookup, "KIOSK_PAYMENT_DELAY", defaultPaymentProcessing),
			PaymentFailureRate: floatWithDefault(lookup, "KIOSK_PAYMENT_FAILURE_RATE", defaultPaymentFailureRate),
		},
		Idempotency: IdempotencyConfig{
			Header: stringWithDefault(lookup, "KIOSK_IDEMPOTENCY_HEADER", defaultIdempotencyHeader),
			TTL:    durationWithDefault(lookup, "KIOSK_IDEMPOTENCY_TTL", defaultIdempotencyTTL),
			Sweep:  durationWithDefault(lookup, "KIOSK_IDEMPOTENCY_SWEEP", defaultIdempotencySweep),
		},
		Log: LogConfig{
			Level: strings.ToLower(stringWithDefault(lookup, "KIOSK_LOG_LEVEL", defaultLogLevel)),
		},
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validate(cfg Config) error {
	var missing []string
	if strings.TrimSpace(cfg.Machine.BaseURL) == "" {
		missing = append(missing, "Machine.BaseURL")
	}
	if strings.TrimSpace(cfg.Server.Port) == "" {
		missing = append(missing, "Server.Port")
	}
	if cfg.Orders.PaymentFailureRate < 0 || cfg.Orders.PaymentFailureRate > 1 {
		missing = append(missing, "Orders.PaymentFailureRate")
	}
	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: read env file %s: %w", path, err)
	}
	return values, nil
}

type lookupFunc func(key string) (string, bool)

func stringWithDefault(lookup lookupFunc, key, fallback string) string {
	if value, ok := lookup(key); ok {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func durationWithDefault(lookup lookupFunc, key string, fallback time.Duration) time.Duration {
	value, ok := lookup(key)
	if !ok {
		return fallback
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func floatWithDefault(lookup lookupFunc, key string, fallback float64) float64 {
	value, ok := lookup(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return parsed
}
