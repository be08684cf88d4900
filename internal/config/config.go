package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"

	"usda-import/internal/sr"
)

// Config holds all importer configuration.
type Config struct {
	Database DatabaseConfig
	Logger   LoggerConfig
	Source   SourceConfig
	Import   ImportConfig
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json", "console" or "auto"
}

// SourceConfig describes the SR release files inside the import folder.
type SourceConfig struct {
	GroupFile       string
	DescriptionFile string
	Charset         string
}

// ImportConfig holds import behaviour switches.
type ImportConfig struct {
	// CategoryType is the name of the category type food groups are filed under.
	CategoryType string

	// ReportUnknownGroups logs every description row whose food group code has
	// no category at warn level instead of debug.
	ReportUnknownGroups bool
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "pantry"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 4),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 1),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "auto"),
		},
		Source: SourceConfig{
			GroupFile:       getEnv("SOURCE_GROUP_FILE", "FD_GROUP.txt"),
			DescriptionFile: getEnv("SOURCE_DESCRIPTION_FILE", "FOOD_DES.txt"),
			Charset:         getEnv("SOURCE_CHARSET", string(sr.CharsetLatin1)),
		},
		Import: ImportConfig{
			CategoryType:        getEnv("IMPORT_CATEGORY_TYPE", "Ingredient"),
			ReportUnknownGroups: getEnvAsBool("IMPORT_REPORT_UNKNOWN_GROUPS", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	validSSLModes := map[string]bool{
		"disable":     true,
		"allow":       true,
		"prefer":      true,
		"require":     true,
		"verify-ca":   true,
		"verify-full": true,
	}

	if !validSSLModes[c.Database.SSLMode] {
		return fmt.Errorf("invalid database sslmode: %s", c.Database.SSLMode)
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" && c.Logger.Format != "auto" {
		return fmt.Errorf("invalid log format: %s (must be json, console, or auto)", c.Logger.Format)
	}

	if c.Source.GroupFile == "" {
		return fmt.Errorf("source group file name is required")
	}

	if c.Source.DescriptionFile == "" {
		return fmt.Errorf("source description file name is required")
	}

	if _, err := sr.ParseCharset(c.Source.Charset); err != nil {
		return err
	}

	if c.Import.CategoryType == "" {
		return fmt.Errorf("import category type is required")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=" + url.QueryEscape(c.sslMode()),
	}
	return u.String()
}

func (c *DatabaseConfig) sslMode() string {
	if c.SSLMode == "" {
		return "disable"
	}
	return c.SSLMode
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
