// Package config loads the service configuration from the environment.
//
// A .env file in the working directory is read first when present; real
// environment variables always win over it. The resulting Config is built
// once in main and handed to the constructors that need it.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Mail transports understood by MAIL_TRANSPORT.
const (
	TransportSMTP = "smtp"
	TransportSES  = "ses"
	TransportStub = "stub"
)

var (
	ErrParsingConfig = errors.New("failed to parse environment variables into config")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config is the full runtime configuration of the intake service.
type Config struct {
	Env  string `env:"APP_ENV" envDefault:"development"`
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port int    `env:"PORT" envDefault:"6000"`

	DB    DB
	Mail  Mail
	Log   Log
	Admin Admin

	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// DB holds PostgreSQL pool settings.
type DB struct {
	URL            string        `env:"DATABASE_URL,required,notEmpty"`
	MaxConns       int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	MinConns       int32         `env:"DB_MIN_CONNS" envDefault:"2"`
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"10s"`
	PingAttempts   int           `env:"DB_CONNECT_ATTEMPTS" envDefault:"5"`
}

// Mail holds outbound email settings. Address is both the sender and,
// unless InternalAddress is set, the mailbox that receives new-submission
// alerts.
type Mail struct {
	Transport       string        `env:"MAIL_TRANSPORT" envDefault:"smtp"`
	SMTPServer      string        `env:"SMTP_SERVER" envDefault:"mail.privateemail.com"`
	SMTPPort        int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPTimeout     time.Duration `env:"SMTP_TIMEOUT" envDefault:"30s"`
	Address         string        `env:"EMAIL"`
	Password        string        `env:"EMAIL_PASSWORD"`
	FromName        string        `env:"FROM_NAME" envDefault:"تیم پیکسوفرم"`
	InternalAddress string        `env:"INTERNAL_EMAIL"`

	AWSRegion          string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
}

// Log configures the process logger.
type Log struct {
	Level string `env:"LOG_LEVEL"`
	File  string `env:"LOG_FILE"`
}

// Admin holds the static bearer token guarding the submissions listing.
type Admin struct {
	Token string `env:"ADMIN_TOKEN"`
}

// Load reads .env (if any) and the environment into a validated Config.
func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()
	return Parse()
}

// Parse builds a Config from the current environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, errors.Join(ErrParsingConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field requirements env tags cannot express.
func (c *Config) Validate() error {
	var problems []string

	switch c.Mail.Transport {
	case TransportSMTP:
		if c.Mail.Address == "" {
			problems = append(problems, "EMAIL is required")
		}
		if c.Mail.Password == "" {
			problems = append(problems, "EMAIL_PASSWORD is required")
		}
	case TransportSES:
		if c.Mail.Address == "" {
			problems = append(problems, "EMAIL is required")
		}
	case TransportStub:
	default:
		problems = append(problems, fmt.Sprintf("MAIL_TRANSPORT %q is not one of smtp, ses, stub", c.Mail.Transport))
	}

	if c.Port <= 0 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("PORT %d is out of range", c.Port))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// IsProduction reports whether debug-only routes must be disabled.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production") || strings.EqualFold(c.Env, "prod")
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// AlertRecipient is the mailbox that receives new-submission alerts.
func (m Mail) AlertRecipient() string {
	if m.InternalAddress != "" {
		return m.InternalAddress
	}
	return m.Address
}
