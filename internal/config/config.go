package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// LogConfig controls the zap logger built in each binary.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"` // json or console
}

// HTTPConfig holds server settings. The port default differs per binary
// and is filled in by the Load* function when HTTP_PORT is unset.
type HTTPConfig struct {
	Port            string        `envconfig:"HTTP_PORT"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"5s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"10s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// DatabaseConfig is shared by the backend (pgxpool) and the consumer (database/sql).
type DatabaseConfig struct {
	URL            string `envconfig:"DATABASE_URL" required:"true"`
	MaxConns       int32  `envconfig:"DB_MAX_CONNS" default:"5"`
	MinConns       int32  `envconfig:"DB_MIN_CONNS" default:"1"`
	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"file://migrations"`
	MigrateOnStart bool   `envconfig:"MIGRATE_ON_START" default:"true"`
}

// NATSConfig describes the JetStream stream carrying submitted names.
type NATSConfig struct {
	URL               string `envconfig:"NATS_URL" default:"nats://localhost:4222"`
	Stream            string `envconfig:"NATS_STREAM" default:"HELLO_GAME"`
	Subject           string `envconfig:"NATS_SUBJECT" default:"hello-game.names"`
	DeadLetterSubject string `envconfig:"NATS_DEAD_LETTER_SUBJECT" default:"hello-game.names.dead-letter"`
	MaxReconnects     int    `envconfig:"NATS_MAX_RECONNECTS" default:"-1"`
}

func (c HTTPConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Port, validation.Required),
		validation.Field(&c.ShutdownTimeout, validation.Required, validation.Min(time.Second)),
	)
}

func (c DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.URL, validation.Required),
		validation.Field(&c.MaxConns, validation.Required, validation.Min(int32(1))),
		validation.Field(&c.MinConns, validation.Min(int32(0)), validation.Max(c.MaxConns)),
		validation.Field(&c.MigrationsPath, validation.Required),
	)
}

// Validate rejects a dead-letter subject equal to the names subject, which
// would feed failed messages straight back to the consumer.
func (c NATSConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.URL, validation.Required),
		validation.Field(&c.Stream, validation.Required),
		validation.Field(&c.Subject, validation.Required),
		validation.Field(&c.DeadLetterSubject, validation.Required, validation.NotIn(c.Subject)),
	)
}

// Backend is the configuration of cmd/backend.
type Backend struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	Log         LogConfig
	HTTP        HTTPConfig
	Database    DatabaseConfig

	HealthProbeDelay    time.Duration `envconfig:"HEALTH_PROBE_DELAY" default:"10s"`
	HealthProbeInterval time.Duration `envconfig:"HEALTH_PROBE_INTERVAL" default:"30s"`
}

// Frontend is the configuration of cmd/frontend.
type Frontend struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	Log         LogConfig
	HTTP        HTTPConfig
	NATS        NATSConfig

	PublishTimeout time.Duration `envconfig:"PUBLISH_TIMEOUT" default:"5s"`
	PlayRateLimit  int           `envconfig:"PLAY_RATE_LIMIT" default:"20"`

	BackendURL       string        `envconfig:"BACKEND_URL" default:"http://localhost:8081"`
	BackendTimeout   time.Duration `envconfig:"BACKEND_TIMEOUT" default:"5s"`
	BackendAuthToken string        `envconfig:"BACKEND_AUTH_TOKEN"`
}

// Consumer is the configuration of cmd/consumer. Its HTTP server only
// exposes /metrics.
type Consumer struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	Log         LogConfig
	HTTP        HTTPConfig
	Database    DatabaseConfig
	NATS        NATSConfig

	Durable      string          `envconfig:"CONSUMER_DURABLE" default:"hello-game-function"`
	Workers      int             `envconfig:"CONSUMER_WORKERS" default:"4"`
	AckWait      time.Duration   `envconfig:"CONSUMER_ACK_WAIT" default:"30s"`
	MaxDeliver   int             `envconfig:"CONSUMER_MAX_DELIVER" default:"5"`
	RetryBackoff []time.Duration `envconfig:"CONSUMER_RETRY_BACKOFF" default:"1s,5s,30s"`
}

// LoadBackend reads the backend configuration from the environment.
// DATABASE_URL is required.
func LoadBackend() (*Backend, error) {
	var cfg Backend
	if err := process(&cfg); err != nil {
		return nil, err
	}
	if cfg.HTTP.Port == "" {
		cfg.HTTP.Port = "8081"
	}
	err := validation.ValidateStruct(&cfg,
		validation.Field(&cfg.HTTP),
		validation.Field(&cfg.Database),
		validation.Field(&cfg.HealthProbeDelay, validation.Min(time.Duration(0))),
		validation.Field(&cfg.HealthProbeInterval, validation.Required, validation.Min(time.Second)),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid backend config: %w", err)
	}
	return &cfg, nil
}

// LoadFrontend reads the frontend configuration from the environment.
func LoadFrontend() (*Frontend, error) {
	var cfg Frontend
	if err := process(&cfg); err != nil {
		return nil, err
	}
	if cfg.HTTP.Port == "" {
		cfg.HTTP.Port = "8080"
	}
	err := validation.ValidateStruct(&cfg,
		validation.Field(&cfg.HTTP),
		validation.Field(&cfg.NATS),
		validation.Field(&cfg.PublishTimeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&cfg.PlayRateLimit, validation.Required, validation.Min(1)),
		validation.Field(&cfg.BackendURL, validation.Required),
		validation.Field(&cfg.BackendTimeout, validation.Required, validation.Min(time.Millisecond)),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid frontend config: %w", err)
	}
	return &cfg, nil
}

// LoadConsumer reads the consumer configuration from the environment.
// DATABASE_URL is required.
func LoadConsumer() (*Consumer, error) {
	var cfg Consumer
	if err := process(&cfg); err != nil {
		return nil, err
	}
	if cfg.HTTP.Port == "" {
		cfg.HTTP.Port = "9090"
	}
	err := validation.ValidateStruct(&cfg,
		validation.Field(&cfg.HTTP),
		validation.Field(&cfg.Database),
		validation.Field(&cfg.NATS),
		validation.Field(&cfg.Durable, validation.Required),
		validation.Field(&cfg.Workers, validation.Required, validation.Min(1)),
		validation.Field(&cfg.AckWait, validation.Required, validation.Min(time.Second)),
		validation.Field(&cfg.MaxDeliver, validation.Required, validation.Min(1)),
		validation.Field(&cfg.RetryBackoff, validation.Required, validation.Each(validation.Min(time.Duration(0)))),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid consumer config: %w", err)
	}
	return &cfg, nil
}

// process loads an optional .env file, then overlays the real environment.
// Variables already set in the environment are never overwritten by .env.
func process(spec any) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	if err := envconfig.Process("", spec); err != nil {
		return fmt.Errorf("process environment: %w", err)
	}
	return nil
}
