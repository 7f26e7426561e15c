package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"      validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database"    validate:"required"`
	Auth        AuthConfig        `mapstructure:"auth"        validate:"required"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains authentication settings for the bearer-token
// identity middleware. Token issuance itself lives in a separate service;
// this API only needs to verify tokens and extract the user ID.
type AuthConfig struct {
	JWTSecret          string `mapstructure:"jwt_secret"           validate:"required,min=32"`
	TokenLifetimeHours int    `mapstructure:"token_lifetime_hours" validate:"gte=0"`
}

// MaintenanceConfig controls the background maintenance sweep that
// refreshes priority scores and marks overdue spaced reviews.
type MaintenanceConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Hour is the local hour of day (0-23) at which the daily sweep runs.
	Hour int `mapstructure:"hour" validate:"gte=0,lte=23"`
}
