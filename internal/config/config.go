package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	WebSocket WebSocketConfig
	Bus       BusConfig
	Storage   StorageConfig
	Accounts  AccountsConfig
	Shell     ShellConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string   `envconfig:"PORT" default:"8000"`
	Host           string   `envconfig:"HOST" default:"0.0.0.0"`
	MaxConnections int      `envconfig:"MAX_CONNECTIONS" default:"1024"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds per-IP HTTP rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// WebSocketConfig holds terminal connection limits.
type WebSocketConfig struct {
	ReadLimit      int64         `envconfig:"WS_READ_LIMIT" default:"65536"`
	FramesPerSec   int           `envconfig:"WS_FRAMES_PER_SECOND" default:"50"`
	FrameBurst     int           `envconfig:"WS_FRAME_BURST" default:"100"`
	WriteTimeout   time.Duration `envconfig:"WS_WRITE_TIMEOUT" default:"10s"`
	PingInterval   time.Duration `envconfig:"WS_PING_INTERVAL" default:"30s"`
	SendBufferSize int           `envconfig:"WS_SEND_BUFFER" default:"256"`
}

// BusConfig holds message bus settings.
type BusConfig struct {
	RequestTimeout time.Duration `envconfig:"BUS_TIMEOUT" default:"1s"`
}

// StorageConfig holds storage backend locations.
type StorageConfig struct {
	SQLitePath      string        `envconfig:"SQLITE_PATH" default:"nnoitra.db"`
	RemoteURL       string        `envconfig:"REMOTE_STORAGE_URL"`
	RemoteTimeout   time.Duration `envconfig:"REMOTE_STORAGE_TIMEOUT" default:"5s"`
	RemoteRetries   int           `envconfig:"REMOTE_STORAGE_RETRIES" default:"3"`
	RemoteRateLimit float64       `envconfig:"REMOTE_STORAGE_RPS" default:"10"`
}

// AccountsConfig holds login settings.
type AccountsConfig struct {
	TokenTTL   time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
	BcryptCost int           `envconfig:"BCRYPT_COST" default:"10"`
}

// ShellConfig holds terminal defaults.
type ShellConfig struct {
	ProfilePath string `envconfig:"PROFILE_PATH"`
	Hostname    string `envconfig:"TERMINAL_HOSTNAME"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8000",
			Host:           "0.0.0.0",
			MaxConnections: 1024,
			AllowedOrigins: []string{"*"},
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		WebSocket: WebSocketConfig{
			ReadLimit:      64 << 10,
			FramesPerSec:   50,
			FrameBurst:     100,
			WriteTimeout:   10 * time.Second,
			PingInterval:   30 * time.Second,
			SendBufferSize: 256,
		},
		Bus: BusConfig{
			RequestTimeout: time.Second,
		},
		Storage: StorageConfig{
			SQLitePath:      "nnoitra.db",
			RemoteTimeout:   5 * time.Second,
			RemoteRetries:   3,
			RemoteRateLimit: 10,
		},
		Accounts: AccountsConfig{
			TokenTTL:   24 * time.Hour,
			BcryptCost: 10,
		},
	}
}
