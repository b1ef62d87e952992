package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	RabbitMQ  RabbitMQConfig
	Auth      AuthConfig
	Submitter SubmitterConfig
	Events    EventsConfig
}

type ServerConfig struct {
	Port string
	Host string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RabbitMQConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	VHost    string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// SubmitterConfig tunes the outbound invoice submission pipeline.
type SubmitterConfig struct {
	RemoteURL           string
	VATConditionURL     string
	HTTPTimeout         time.Duration
	MaxAttempts         int
	BackoffStep         time.Duration
	MaxResponseBodySize int
}

type EventsConfig struct {
	OutcomeQueue string
}

func Load() (*Config, error) {
	var missing []string

	get := func(key string) string {
		val := os.Getenv(key)
		if val == "" {
			missing = append(missing, key)
		}
		return val
	}

	getDefault := func(key, fallback string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		return fallback
	}

	getInt := func(key string, fallback int) int {
		if val := os.Getenv(key); val != "" {
			if n, err := strconv.Atoi(val); err == nil {
				return n
			}
		}
		return fallback
	}

	config := &Config{
		Server: ServerConfig{
			Port: get("SERVER_PORT"),
			Host: get("SERVER_HOST"),
		},
		Database: DatabaseConfig{
			Host:     get("DB_HOST"),
			Port:     get("DB_PORT"),
			User:     get("DB_USER"),
			Password: get("DB_PASSWORD"),
			DBName:   get("DB_NAME"),
			SSLMode:  get("DB_SSLMODE"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      os.Getenv("RABBITMQ_URL"),
			Host:     get("RABBITMQ_HOST"),
			Port:     get("RABBITMQ_PORT"),
			User:     get("RABBITMQ_USER"),
			Password: get("RABBITMQ_PASSWORD"),
			VHost:    get("RABBITMQ_VHOST"),
		},
		Auth: AuthConfig{
			JWTSecret: get("JWT_SECRET"),
			TokenTTL:  time.Duration(getInt("JWT_TTL_HOURS", 24)) * time.Hour,
		},
		Submitter: SubmitterConfig{
			RemoteURL:           getDefault("FACTURADOR_URL", "https://facturador-production.up.railway.app/facturas"),
			VATConditionURL:     getDefault("FACTURADOR_VAT_CONDITION_URL", "https://facturador-production.up.railway.app/consultar-condicion-iva"),
			HTTPTimeout:         time.Duration(getInt("FACTURADOR_TIMEOUT_SECONDS", 15)) * time.Second,
			MaxAttempts:         getInt("FACTURADOR_MAX_ATTEMPTS", 2),
			BackoffStep:         time.Duration(getInt("FACTURADOR_BACKOFF_STEP_MS", 500)) * time.Millisecond,
			MaxResponseBodySize: getInt("FACTURADOR_MAX_RESPONSE_BODY_SIZE", 64*1024),
		},
		Events: EventsConfig{
			OutcomeQueue: getDefault("OUTCOME_QUEUE", "invoice-submission-outcomes"),
		},
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missing)
	}

	return config, nil
}

// ConnectionString returns a DSN string for GORM
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode)
}

// MigrationURL returns a postgres:// URL for golang-migrate
func (c *DatabaseConfig) MigrationURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

func (c *RabbitMQConfig) ConnectionURL() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%s%s",
		c.User, c.Password, c.Host, c.Port, c.VHost)
}
