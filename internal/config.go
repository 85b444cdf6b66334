package internal

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"http_server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Security     SecurityConfig     `mapstructure:"security"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	BaseURL        string        `mapstructure:"base_url"`
	AllowedOrigins string        `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
}

type DatabaseConfig struct {
	Source       string `mapstructure:"source"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type SecurityConfig struct {
	AccessTokenSecret    string        `mapstructure:"access_token_secret"`
	RefreshTokenSecret   string        `mapstructure:"refresh_token_secret"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration"`
	BCryptCost           int           `mapstructure:"bcrypt_cost"`
}

// NotificationConfig points at the ntfy-compatible push relay used for
// best-effort event notifications.
type NotificationConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	RelayURL     string        `mapstructure:"relay_url"`
	DefaultTopic string        `mapstructure:"default_topic"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("http_server.port must be positive, got %d", c.Server.Port)
	}
	if c.Database.Source == "" {
		return fmt.Errorf("database.source is required")
	}
	if c.Security.AccessTokenSecret == "" || c.Security.RefreshTokenSecret == "" {
		return fmt.Errorf("security token secrets are required")
	}
	if c.Notification.Enabled && c.Notification.RelayURL == "" {
		return fmt.Errorf("notification.relay_url is required when notifications are enabled")
	}
	return nil
}

// LoadConfigFromEnv builds a Config from environment variables for container
// deployments where no config file is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           envInt("SERVER_PORT", 8080),
			BaseURL:        os.Getenv("SERVER_BASE_URL"),
			AllowedOrigins: envOr("SERVER_ALLOWED_ORIGINS", "*"),
			ReadTimeout:    envDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   envDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    envDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Source:       os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Security: SecurityConfig{
			AccessTokenSecret:    os.Getenv("JWT_ACCESS_SECRET"),
			RefreshTokenSecret:   os.Getenv("JWT_REFRESH_SECRET"),
			AccessTokenDuration:  envDuration("JWT_ACCESS_DURATION", 15*time.Minute),
			RefreshTokenDuration: envDuration("JWT_REFRESH_DURATION", 7*24*time.Hour),
			BCryptCost:           envInt("BCRYPT_COST", 10),
		},
		Notification: NotificationConfig{
			Enabled:      envBool("NOTIFY_ENABLED", false),
			RelayURL:     os.Getenv("NOTIFY_RELAY_URL"),
			DefaultTopic: envOr("NOTIFY_TOPIC", "clinic-ops"),
			Timeout:      envDuration("NOTIFY_TIMEOUT", 5*time.Second),
		},
		Logging: LoggingConfig{
			Level:  envOr("LOG_LEVEL", "info"),
			Format: envOr("LOG_FORMAT", "json"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
