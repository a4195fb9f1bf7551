package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"      validate:"required"`
	Pipeline PipelineConfig `mapstructure:"pipeline" validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains the settings for the privileged admin surface.
// AdminPasswordHash is a bcrypt hash; the plaintext never appears in
// configuration.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	AdminEmail           string `mapstructure:"admin_email"            validate:"required,email"`
	AdminPasswordHash    string `mapstructure:"admin_password_hash"    validate:"required"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// LLMConfig contains all batch-generation provider settings.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name"     validate:"required"`
	// RequestsPerMinute caps provider status/download calls client-side.
	RequestsPerMinute int `mapstructure:"requests_per_minute" validate:"required,gt=0"`
}

// PipelineConfig tunes the poll cycle.
type PipelineConfig struct {
	// PollInterval is the cadence between poll cycles (reference: 3h).
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"required"`
	// CycleTimeout is the hard wall-clock budget for one cycle.
	CycleTimeout time.Duration `mapstructure:"cycle_timeout" validate:"required"`
	// Retention is how long terminal jobs are kept before the janitor
	// deletes them.
	Retention time.Duration `mapstructure:"retention" validate:"required"`
	// WeekendOnly restricts cycles to the Friday-evening-to-Monday-morning
	// window the weekly workload runs in.
	WeekendOnly bool `mapstructure:"weekend_only"`
}

// RedisConfig configures the optional poll-cycle lease. With LeaseEnabled
// false the scheduler relies on the store's monotonic transition checks
// alone, which is safe on platforms with single-instance cron guarantees.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	LeaseEnabled bool          `mapstructure:"lease_enabled"`
	LeaseTTL     time.Duration `mapstructure:"lease_ttl"`
}
