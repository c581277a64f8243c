package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store backends for link records.
const (
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// MinBcryptCost is the lowest hashing cost accepted for link passwords.
const MinBcryptCost = 12

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Links    LinksConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	App      AppConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"SERVER_PORT" required:"true"`
	Host            string        `envconfig:"SERVER_HOST" required:"true"`
	BaseURL         string        `envconfig:"SERVER_BASE_URL" required:"true"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" required:"true"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" required:"true"`
	IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" required:"true"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" required:"true"`
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if c.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive")
	}
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("idle timeout must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	return nil
}

// LinksConfig controls how links are stored and protected.
type LinksConfig struct {
	Store         string        `envconfig:"LINK_STORE" default:"postgres"`
	BcryptCost    int           `envconfig:"LINK_BCRYPT_COST" default:"12"`
	KeyTokenBytes int           `envconfig:"LINK_KEY_TOKEN_BYTES" default:"32"`
	SweepInterval time.Duration `envconfig:"LINK_SWEEP_INTERVAL" default:"0s"`
}

// Validate validates the links configuration.
func (c *LinksConfig) Validate() error {
	switch c.Store {
	case StorePostgres, StoreRedis:
	default:
		return fmt.Errorf("invalid link store: %s (must be one of: postgres, redis)", c.Store)
	}
	if c.BcryptCost < MinBcryptCost || c.BcryptCost > 31 {
		return fmt.Errorf("bcrypt cost must be between %d and 31, got %d", MinBcryptCost, c.BcryptCost)
	}
	if c.KeyTokenBytes < 16 {
		return fmt.Errorf("key token bytes must be at least 16, got %d", c.KeyTokenBytes)
	}
	if c.SweepInterval < 0 {
		return fmt.Errorf("sweep interval cannot be negative")
	}
	return nil
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" required:"true"`
	Port     string `envconfig:"DB_PORT" required:"true"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	Name     string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSLMODE" required:"true"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" required:"true"`
	MinConns int32  `envconfig:"DB_MIN_CONNS" required:"true"`
}

// Validate validates the database configuration.
func (c *DatabaseConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if c.User == "" {
		return fmt.Errorf("user cannot be empty")
	}
	if c.Password == "" {
		return fmt.Errorf("password cannot be empty")
	}
	if c.Name == "" {
		return fmt.Errorf("database name cannot be empty")
	}
	if c.MaxConns <= 0 {
		return fmt.Errorf("max connections must be positive")
	}
	if c.MinConns <= 0 {
		return fmt.Errorf("min connections must be positive")
	}
	if c.MinConns > c.MaxConns {
		return fmt.Errorf("min connections (%d) cannot be greater than max connections (%d)", c.MinConns, c.MaxConns)
	}

	validSSLModes := map[string]bool{
		"disable":     true,
		"require":     true,
		"verify-ca":   true,
		"verify-full": true,
	}
	if !validSSLModes[c.SSLMode] {
		return fmt.Errorf("invalid SSL mode: %s (must be one of: disable, require, verify-ca, verify-full)", c.SSLMode)
	}
	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// RedisConfig is only read when links live in Redis.
type RedisConfig struct {
	Addr      string `envconfig:"REDIS_ADDR" required:"true"`
	Password  string `envconfig:"REDIS_PASSWORD"`
	DB        int    `envconfig:"REDIS_DB" default:"0"`
	KeyPrefix string `envconfig:"REDIS_KEY_PREFIX" default:"filelink:"`
}

// Validate validates the redis configuration.
func (c *RedisConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("address cannot be empty")
	}
	if c.DB < 0 {
		return fmt.Errorf("db index cannot be negative")
	}
	if c.KeyPrefix == "" {
		return fmt.Errorf("key prefix cannot be empty")
	}
	return nil
}

// StorageConfig describes the S3 bucket holding uploaded files.
type StorageConfig struct {
	Bucket          string        `envconfig:"S3_BUCKET" required:"true"`
	Region          string        `envconfig:"AWS_REGION" required:"true"`
	Endpoint        string        `envconfig:"S3_ENDPOINT"` // for S3-compatible stores such as MinIO
	UsePathStyle    bool          `envconfig:"S3_USE_PATH_STYLE" default:"false"`
	AccessKeyID     string        `envconfig:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string        `envconfig:"S3_SECRET_ACCESS_KEY"`
	PresignTTL      time.Duration `envconfig:"S3_PRESIGN_TTL" default:"5m"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("bucket cannot be empty")
	}
	if c.Region == "" {
		return fmt.Errorf("region cannot be empty")
	}
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return fmt.Errorf("access key id and secret access key must be set together")
	}
	if c.PresignTTL < time.Second || c.PresignTTL > 7*24*time.Hour {
		return fmt.Errorf("presign TTL must be between 1s and 168h, got %v", c.PresignTTL)
	}
	return nil
}

// AppConfig holds application-specific configuration.
type AppConfig struct {
	Environment    string `envconfig:"APP_ENV" required:"true"`   // development, staging, production, test
	LogLevel       string `envconfig:"LOG_LEVEL" required:"true"` // debug, info, warn, error
	ServiceName    string `envconfig:"SERVICE_NAME" default:"filedrop"`
	ServiceVersion string `envconfig:"SERVICE_VERSION" default:"dev"`
}

// Validate validates the app configuration.
func (c *AppConfig) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
		"test":        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s (must be one of: development, staging, production, test)", c.Environment)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	if c.ServiceName == "" {
		return fmt.Errorf("service name cannot be empty")
	}
	return nil
}

type section interface {
	Validate() error
}

func process(name string, s section) error {
	if err := envconfig.Process("", s); err != nil {
		return fmt.Errorf("failed to load %s config: %w", name, err)
	}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid %s config: %w", name, err)
	}
	return nil
}

// Load loads configuration from environment variables only.
// (Do .env loading in cmd/server/main.go for dev, not here.)
// Database and Redis sections are only read for the selected link store.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := process("Server", &cfg.Server); err != nil {
		return nil, err
	}
	if err := process("Links", &cfg.Links); err != nil {
		return nil, err
	}

	switch cfg.Links.Store {
	case StorePostgres:
		if err := process("Database", &cfg.Database); err != nil {
			return nil, err
		}
	case StoreRedis:
		if err := process("Redis", &cfg.Redis); err != nil {
			return nil, err
		}
	}

	if err := process("Storage", &cfg.Storage); err != nil {
		return nil, err
	}
	if err := process("App", &cfg.App); err != nil {
		return nil, err
	}

	return cfg, nil
}
