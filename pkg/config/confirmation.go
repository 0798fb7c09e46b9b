package config

import "time"

// ConfirmationConfig holds the confirmation policy knobs and the persistence
// selection for the account store.
type ConfirmationConfig struct {
	// BaseUrl is the externally reachable origin used to build confirmation links
	BaseUrl string `env:"CONFIRM_BASE_URL" env-default:"http://localhost:4000"`

	// TokenExpiry bounds how long an issued confirmation token stays valid
	TokenExpiry time.Duration `env:"CONFIRM_TOKEN_EXPIRY" env-default:"72h"`

	// ResendInterval is the minimum gap between confirmation emails per account
	ResendInterval time.Duration `env:"CONFIRM_RESEND_INTERVAL" env-default:"60s"`

	// Persistence selects the account store backend: "postgres" or "file"
	Persistence string `env:"CONFIRM_PERSISTENCE" env-default:"postgres"`

	// DataDir is where the file backend keeps its state
	DataDir string `env:"CONFIRM_DATA_DIR" env-default:"./data"`
}

// NewConfirmationConfigFromEnv creates a ConfirmationConfig from environment
// variables, for callers that do not go through cleanenv
func NewConfirmationConfigFromEnv() ConfirmationConfig {
	return ConfirmationConfig{
		BaseUrl:        GetEnvOrDefault("CONFIRM_BASE_URL", "http://localhost:4000"),
		TokenExpiry:    GetEnvDuration("CONFIRM_TOKEN_EXPIRY", 72*time.Hour),
		ResendInterval: GetEnvDuration("CONFIRM_RESEND_INTERVAL", 60*time.Second),
		Persistence:    GetEnvOrDefault("CONFIRM_PERSISTENCE", "postgres"),
		DataDir:        GetEnvOrDefault("CONFIRM_DATA_DIR", "./data"),
	}
}
