// Package config loads settings for the backend server and the CLI client
// from defaults, an optional config file and FEIRA_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Server configures the development backend.
type Server struct {
	Addr         string
	DBDriver     string
	DSN          string
	JWTSecret    string
	TokenTTL     time.Duration
	RabbitMQURL  string
	OTLPEndpoint string
	Seed         bool
}

// Client configures the SDK and CLI.
type Client struct {
	BaseURL         string
	Timeout         time.Duration
	StorePath       string
	Passphrase      string
	Platform        string
	SyncMaxAttempts int
}

// Config is the complete configuration.
type Config struct {
	LogLevel string
	Server   Server
	Client   Client
}

func defaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.db_driver", "sqlite")
	v.SetDefault("server.dsn", "feira.db")
	v.SetDefault("server.jwt_secret", "dev-secret")
	v.SetDefault("server.token_ttl", 24*time.Hour)
	v.SetDefault("server.rabbitmq_url", "")
	v.SetDefault("server.otlp_endpoint", "")
	v.SetDefault("server.seed", true)

	v.SetDefault("client.base_url", "http://localhost:8080")
	v.SetDefault("client.timeout", 15*time.Second)
	v.SetDefault("client.store_path", "feira-client.db")
	v.SetDefault("client.passphrase", "")
	v.SetDefault("client.platform", "web")
	v.SetDefault("client.sync_max_attempts", 5)
}

// Load reads configuration. file may be empty.
func Load(file string) (*Config, error) {
	v := viper.New()
	defaults(v)
	v.SetEnvPrefix("FEIRA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		LogLevel: v.GetString("log_level"),
		Server: Server{
			Addr:         v.GetString("server.addr"),
			DBDriver:     strings.ToLower(v.GetString("server.db_driver")),
			DSN:          v.GetString("server.dsn"),
			JWTSecret:    v.GetString("server.jwt_secret"),
			TokenTTL:     v.GetDuration("server.token_ttl"),
			RabbitMQURL:  v.GetString("server.rabbitmq_url"),
			OTLPEndpoint: v.GetString("server.otlp_endpoint"),
			Seed:         v.GetBool("server.seed"),
		},
		Client: Client{
			BaseURL:         strings.TrimRight(v.GetString("client.base_url"), "/"),
			Timeout:         v.GetDuration("client.timeout"),
			StorePath:       v.GetString("client.store_path"),
			Passphrase:      v.GetString("client.passphrase"),
			Platform:        v.GetString("client.platform"),
			SyncMaxAttempts: v.GetInt("client.sync_max_attempts"),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Server.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("server.db_driver must be sqlite or postgres, got %q", c.Server.DBDriver)
	}
	if c.Server.DSN == "" {
		return fmt.Errorf("server.dsn is required")
	}
	if c.Server.JWTSecret == "" {
		return fmt.Errorf("server.jwt_secret is required")
	}
	if c.Client.BaseURL == "" {
		return fmt.Errorf("client.base_url is required")
	}
	if c.Client.Timeout <= 0 {
		return fmt.Errorf("client.timeout must be positive")
	}
	return nil
}

// Logger builds the process logger at the configured level.
func (c *Config) Logger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
