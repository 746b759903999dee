package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all service configuration
type Config struct {
	Service  ServiceConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
	EnablePprof bool
	PprofPort   int
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	MaxConns    int
	MinConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

// RedisConfig holds Redis connection settings for the event stream
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// StorageConfig holds filesystem layout and extraction limits
type StorageConfig struct {
	// Root is the directory under which uploads and extracted
	// site sandboxes live. All persisted paths are relative to it.
	Root string

	// UploadsPrefix and SitesPrefix are subdirectories of Root.
	UploadsPrefix string
	SitesPrefix   string

	// EntryDocument is the file name that marks a site bundle's entry point.
	EntryDocument string

	// Extraction ceilings. An archive that would exceed either
	// fails before exhausting disk space.
	MaxArchiveBytes   int64
	MaxArchiveEntries int
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", 8080),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"), // Default to text for development
			EnablePprof: getEnvBool("ENABLE_PPROF", false),
			PprofPort:   getEnvInt("PPROF_PORT", 6060),
		},
		Database: DatabaseConfig{
			Host:        getEnv("POSTGRES_HOST", "localhost"),
			Port:        getEnvInt("POSTGRES_PORT", 5432),
			Database:    getEnv("POSTGRES_DB", "media"),
			User:        getEnv("POSTGRES_USER", "media"),
			Password:    getEnv("POSTGRES_PASSWORD", "media"),
			MaxConns:    getEnvInt("POSTGRES_MAX_CONNS", 50),
			MinConns:    getEnvInt("POSTGRES_MIN_CONNS", 10),
			MaxIdleTime: getEnvDuration("POSTGRES_MAX_IDLE_TIME", 30*time.Minute),
			MaxLifetime: getEnvDuration("POSTGRES_MAX_LIFETIME", 1*time.Hour),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Storage: StorageConfig{
			Root:              getEnv("MEDIA_ROOT", "./media"),
			UploadsPrefix:     getEnv("MEDIA_UPLOADS_PREFIX", "uploads"),
			SitesPrefix:       getEnv("MEDIA_SITES_PREFIX", "html_sites"),
			EntryDocument:     getEnv("MEDIA_ENTRY_DOCUMENT", "index.html"),
			MaxArchiveBytes:   getEnvInt64("MEDIA_MAX_ARCHIVE_BYTES", 512<<20),
			MaxArchiveEntries: getEnvInt("MEDIA_MAX_ARCHIVE_ENTRIES", 10000),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns must be >= min_conns")
	}

	if c.Storage.Root == "" {
		return fmt.Errorf("media root is required")
	}

	if c.Storage.MaxArchiveBytes <= 0 || c.Storage.MaxArchiveEntries <= 0 {
		return fmt.Errorf("archive ceilings must be positive")
	}

	return nil
}

// IsDevelopment reports whether the service runs in a development-style
// deployment. The site gateway disables response caching in this mode so
// edits to an extracted tree are immediately visible.
func (c *Config) IsDevelopment() bool {
	return c.Service.Environment != "production"
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
	)
}

// RedisAddr returns the host:port address of the Redis server
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// AbsStorageRoot returns the storage root as an absolute path
func (c *Config) AbsStorageRoot() (string, error) {
	abs, err := filepath.Abs(c.Storage.Root)
	if err != nil {
		return "", fmt.Errorf("resolve media root: %w", err)
	}
	return abs, nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
