package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const VERSION = "1.0"

type Config struct {
	Database    DatabaseConfig
	Editor      EditorConfig
	Environment string
	LogLevel    string
	Version     string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type EditorConfig struct {
	// AutosaveInterval is how often the dirty-model checkpoint fires.
	AutosaveInterval time.Duration
	// GenerationTimeout bounds a single AI generation call.
	GenerationTimeout time.Duration
}

// ConnectionString builds the Postgres DSN.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// Load reads configuration from environment variables with sensible
// defaults for local development.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "campaignforge")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("AUTOSAVE_INTERVAL", "60s")
	v.SetDefault("GENERATION_TIMEOUT", "90s")

	autosave, err := time.ParseDuration(v.GetString("AUTOSAVE_INTERVAL"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTOSAVE_INTERVAL: %w", err)
	}
	genTimeout, err := time.ParseDuration(v.GetString("GENERATION_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid GENERATION_TIMEOUT: %w", err)
	}

	return &Config{
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Editor: EditorConfig{
			AutosaveInterval:  autosave,
			GenerationTimeout: genTimeout,
		},
		Environment: v.GetString("ENVIRONMENT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		Version:     VERSION,
	}, nil
}
