package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	EmailTransportSMTP = "smtp"
	EmailTransportSES  = "ses"

	devJWTSecret = "reqforge-dev-secret-change-me"
)

type Config struct {
	Port     int    `envconfig:"PORT" default:"5000"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	GinMode  string `envconfig:"GIN_MODE" default:"debug"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DBDriver          string        `envconfig:"DB_DRIVER" default:"postgres"`
	DatabaseURL       string        `envconfig:"DATABASE_URL"`
	DBHost            string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort            string        `envconfig:"DB_PORT" default:"5432"`
	DBUser            string        `envconfig:"DB_USER" default:"reqforge"`
	DBPassword        string        `envconfig:"DB_PASSWORD" default:"reqforge"`
	DBName            string        `envconfig:"DB_NAME" default:"reqforge"`
	DBSSLMode         string        `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	DBMaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	DBConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`

	JWTSecret    string        `envconfig:"JWT_SECRET"`
	JWTExpiresIn time.Duration `envconfig:"JWT_EXPIRES_IN" default:"168h"`

	// Empty disables token revocation on logout.
	RedisURL string `envconfig:"REDIS_URL"`

	// EMAIL_TRANSPORT selects smtp or ses; smtp without EMAIL_HOST only logs.
	EmailTransport string `envconfig:"EMAIL_TRANSPORT" default:"smtp"`
	SESRegion      string `envconfig:"SES_REGION" default:"eu-central-1"`
	SESAccessKey   string `envconfig:"SES_ACCESS_KEY"`
	SESSecretKey   string `envconfig:"SES_SECRET_KEY"`

	EmailHost     string `envconfig:"EMAIL_HOST"`
	EmailPort     string `envconfig:"EMAIL_PORT" default:"587"`
	EmailUser     string `envconfig:"EMAIL_USER"`
	EmailPassword string `envconfig:"EMAIL_PASS"`
	EmailFrom     string `envconfig:"EMAIL_FROM"`
	EmailFromName string `envconfig:"EMAIL_FROM_NAME" default:"ReqForge"`

	// Bounds a single send; invitation sends hold a DB transaction open.
	EmailSendTimeout time.Duration `envconfig:"EMAIL_SEND_TIMEOUT" default:"10s"`

	FrontendURL   string        `envconfig:"FRONTEND_URL" default:"http://localhost:5173"`
	InvitationTTL time.Duration `envconfig:"INVITATION_TTL" default:"168h"`
	CORSOrigins   []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET is required in production")
		}
		c.JWTSecret = devJWTSecret
	}

	switch c.DBDriver {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.EmailTransport {
	case EmailTransportSMTP:
	case EmailTransportSES:
		if c.EmailFrom == "" {
			return errors.New("EMAIL_FROM is required for the ses transport")
		}
	default:
		return fmt.Errorf("unsupported EMAIL_TRANSPORT %q", c.EmailTransport)
	}

	if _, err := url.Parse(c.FrontendURL); err != nil {
		return fmt.Errorf("invalid FRONTEND_URL: %w", err)
	}

	if c.EmailSendTimeout < 0 {
		return errors.New("EMAIL_SEND_TIMEOUT cannot be negative")
	}
	if c.InvitationTTL < 0 {
		return errors.New("INVITATION_TTL cannot be negative")
	}

	return nil
}

// IsProduction reports whether the app runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}

	if c.DBDriver == "mysql" {
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			c.DBUser,
			c.DBPassword,
			c.DBHost,
			c.DBPort,
			c.DBName,
		)
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.DBHost,
		c.DBPort,
		c.DBUser,
		c.DBPassword,
		c.DBName,
		c.DBSSLMode,
	)
}

// EmailConfigured reports whether real delivery can be attempted.
func (c *Config) EmailConfigured() bool {
	if c.EmailTransport == EmailTransportSES {
		return c.EmailFrom != ""
	}
	return c.EmailHost != "" && c.EmailPort != "" && c.EmailFrom != ""
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
