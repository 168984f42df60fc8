// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values. In development a local
'.env' file is loaded first with 'joho/godotenv'; variables already present in
the environment always win.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// # Configuration Schema

// Config holds all runtime configuration for the contactbook API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// PublicBaseURL prefixes links in outgoing mail. Empty means "derive from the request".
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis) backing the session store
	RedisURL string `env:"REDIS_URL,required,notEmpty"`

	// BcryptCost is the work factor for password hashing.
	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`

	// Token signing
	JWT JWTConfig `envPrefix:"JWT_"`

	// Object Storage (S3-compatible) for avatars
	S3 S3Config `envPrefix:"S3_"`

	// Outbound mail queue
	AMQP AMQPConfig `envPrefix:"AMQP_"`

	// Cross-Origin Resource Sharing
	AllowedOriginSuffix string `env:"CORS_ORIGIN_SUFFIX"`
}

// JWTConfig configures the HMAC token codec.
type JWTConfig struct {
	Secret            string `env:"SECRET,required,notEmpty"`
	Algorithm         string `env:"ALGORITHM"          envDefault:"HS256"`
	ExpirationSeconds int    `env:"EXPIRATION_SECONDS" envDefault:"3600"`
}

// AccessTTL is the lifetime of access tokens.
func (c JWTConfig) AccessTTL() time.Duration {
	return time.Duration(c.ExpirationSeconds) * time.Second
}

// S3Config configures the avatar bucket.
type S3Config struct {
	Bucket       string `env:"BUCKET"`
	Region       string `env:"REGION"         envDefault:"us-east-1"`
	Endpoint     string `env:"ENDPOINT"`
	AccessKey    string `env:"ACCESS_KEY"`
	SecretKey    string `env:"SECRET_KEY"`
	PublicURL    string `env:"PUBLIC_URL"`
	UsePathStyle bool   `env:"USE_PATH_STYLE" envDefault:"true"`
}

// Enabled reports whether avatar uploads can be served.
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// AMQPConfig configures the mail broker. An empty URL disables publishing.
type AMQPConfig struct {
	URL   string `env:"URL"`
	Queue string `env:"QUEUE" envDefault:"mail.outbound"`
}

// SMTPConfig configures outgoing mail delivery for the mail worker.
type SMTPConfig struct {
	Host     string `env:"HOST,required"`
	Port     int    `env:"PORT"      envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM,required"`
	FromName string `env:"FROM_NAME" envDefault:"Contactbook"`
}

// MailerConfig holds the configuration of the mail worker process.
type MailerConfig struct {
	Environment string     `env:"ENVIRONMENT" envDefault:"development"`
	Debug       bool       `env:"DEBUG"       envDefault:"false"`
	AMQP        AMQPConfig `envPrefix:"AMQP_"`
	SMTP        SMTPConfig `envPrefix:"SMTP_"`

	// MetricsAddr is the listen address of the worker's /metrics endpoint. Empty disables it.
	MetricsAddr string `env:"METRICS_ADDR"`
}

// MigrateConfig holds the configuration of the migration tool.
type MigrateConfig struct {
	DatabaseURL   string `env:"DATABASE_URL,required,notEmpty"`
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	// Initialize an empty config struct
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadMailer parses the environment of the mail worker.
func LoadMailer() (*MailerConfig, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &MailerConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if cfg.AMQP.URL == "" {
		return nil, errors.New("config: AMQP_URL is required for the mail worker")
	}

	return cfg, nil
}

// LoadMigrate parses the environment of the migration tool.
func LoadMigrate() (*MigrateConfig, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &MigrateConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	switch c.JWT.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("config: JWT_ALGORITHM must be HS256, HS384 or HS512, got %q", c.JWT.Algorithm)
	}

	if c.JWT.ExpirationSeconds <= 0 {
		return fmt.Errorf("config: JWT_EXPIRATION_SECONDS must be positive, got %d", c.JWT.ExpirationSeconds)
	}

	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// loadDotEnv reads ./.env when present. A missing file is not an error.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: failed to read .env: %w", err)
	}
	return nil
}
