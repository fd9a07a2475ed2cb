package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"   validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth"       validate:"required"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Realtime   RealtimeConfig   `mapstructure:"realtime"   validate:"required"`
	Automation AutomationConfig `mapstructure:"automation" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"               validate:"required,url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"    validate:"gte=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
}

// AuthConfig contains the settings used to verify bearer tokens.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0,lt=44640"` // Max 31 days
}

// RedisConfig configures the shared broadcast fabric. When disabled, broadcasts
// only reach connections of the local process.
type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addr      string `mapstructure:"addr"      validate:"omitempty,hostname_port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"        validate:"gte=0,lte=15"`
	Namespace string `mapstructure:"namespace" validate:"required,alphanum"`
}

// RealtimeConfig tunes websocket connections.
type RealtimeConfig struct {
	// SendBuffer is the number of outbound envelopes queued per connection
	// before further envelopes are dropped.
	SendBuffer   int           `mapstructure:"send_buffer"   validate:"required,gt=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"required,gt=0"`
	PongTimeout  time.Duration `mapstructure:"pong_timeout"  validate:"required,gt=0"`
	// AllowedOrigins lists accepted Origin headers. Empty allows any origin.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AutomationConfig tunes the asynchronous automation runner.
type AutomationConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0,lte=64"`
	QueueSize   int `mapstructure:"queue_size"   validate:"required,gt=0"`
	// ActionTimeout bounds each action's collaborator calls. Zero means no limit.
	ActionTimeout time.Duration `mapstructure:"action_timeout" validate:"gte=0"`
}
