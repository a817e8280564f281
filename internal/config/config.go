package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config aggregates runtime configuration for the service.
// Nested groups are read with their tag as prefix, e.g. POSTGRES_DSN or OPENAI_API_KEY.
type Config struct {
	App          AppConfig          `envconfig:"APP"`
	Postgres     PostgresConfig     `envconfig:"POSTGRES"`
	Redis        RedisConfig        `envconfig:"REDIS"`
	Logger       LoggerConfig       `envconfig:"LOG"`
	Auth         AuthConfig         `envconfig:"AUTH"`
	Admin        AdminConfig        `envconfig:"ADMIN"`
	OpenAI       OpenAIConfig       `envconfig:"OPENAI"`
	Assistant    AssistantConfig    `envconfig:"ASSISTANT"`
	RateLimit    RateLimitConfig    `envconfig:"CHAT_RATE"`
	Notification NotificationConfig `envconfig:"NOTIFY"`
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `envconfig:"NAME" default:"sales-assistant"`
	Env                   string `envconfig:"ENV" default:"development"`
	Host                  string `envconfig:"HOST" default:"0.0.0.0"`
	Port                  string `envconfig:"PORT" default:"8080"`
	Version               string `envconfig:"VERSION" default:"dev"`
	RequestTimeoutSeconds int    `envconfig:"REQUEST_TIMEOUT_SECONDS" default:"60"`
}

// PostgresConfig holds DB connection values. DSN is the database location.
type PostgresConfig struct {
	DSN            string `envconfig:"DSN"`
	MaxConns       int32  `envconfig:"MAX_CONNS" default:"10"`
	MinConns       int32  `envconfig:"MIN_CONNS" default:"2"`
	RunMigrations  bool   `envconfig:"RUN_MIGRATIONS" default:"true"`
	ConnMaxIdleSec int32  `envconfig:"CONN_MAX_IDLE_SECONDS" default:"30"`
	ConnMaxLifeSec int32  `envconfig:"CONN_MAX_LIFE_SECONDS" default:"300"`
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string `envconfig:"ADDR" default:"127.0.0.1:6379"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `envconfig:"LEVEL" default:"info"`
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string `envconfig:"JWT_SECRET" default:"dev-secret"`
	AccessTokenTTLMinutes int    `envconfig:"ACCESS_TOKEN_TTL_MINUTES" default:"1440"`
	BcryptCost            int    `envconfig:"BCRYPT_COST" default:"12"`
}

// AdminConfig describes the bootstrap administrator created at startup.
// Leaving Username empty disables seeding.
type AdminConfig struct {
	Username string `envconfig:"USERNAME"`
	Password string `envconfig:"PASSWORD"`
}

// OpenAIConfig configures the chat completions client.
type OpenAIConfig struct {
	APIKey  string        `envconfig:"API_KEY"`
	BaseURL string        `envconfig:"BASE_URL" default:"https://api.openai.com/v1"`
	Model   string        `envconfig:"MODEL" default:"gpt-4-turbo-preview"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"60s"`
}

// AssistantConfig holds the tool-calling loop policy.
type AssistantConfig struct {
	MaxIterations   int           `envconfig:"MAX_ITERATIONS" default:"5"`
	FollowUpHorizon time.Duration `envconfig:"FOLLOW_UP_HORIZON" default:"48h"`
	ListLimit       int           `envconfig:"LIST_LIMIT" default:"50"`
}

// RateLimitConfig bounds chat requests per user within a fixed window.
type RateLimitConfig struct {
	Limit  int           `envconfig:"LIMIT" default:"30"`
	Window time.Duration `envconfig:"WINDOW" default:"1m"`
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string `envconfig:"EMAIL_FROM" default:"noreply@example.com"`
	WebhookURL string `envconfig:"WEBHOOK_URL"`
}

// Load reads configuration from a .env file (when present) and the environment, applying defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	if c.Assistant.MaxIterations < 1 {
		return errors.New("ASSISTANT_MAX_ITERATIONS must be at least 1")
	}
	if c.Assistant.ListLimit < 1 {
		return errors.New("ASSISTANT_LIST_LIMIT must be at least 1")
	}
	if c.Assistant.FollowUpHorizon < 0 {
		return errors.New("ASSISTANT_FOLLOW_UP_HORIZON must not be negative")
	}
	if c.Admin.Username != "" && len(c.Admin.Password) < 8 {
		return errors.New("ADMIN_PASSWORD must be at least 8 characters when ADMIN_USERNAME is set")
	}
	if c.App.Env == "production" && c.Auth.JWTSecret == "dev-secret" {
		return errors.New("AUTH_JWT_SECRET must be set in production")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}
