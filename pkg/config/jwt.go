package config

// JwtConfig holds the signing secret for the HS256 token middleware
type JwtConfig struct {
	JwtSecret string `env:"CONFIRM_JWT_SECRET" env-default:"very-secure-jwt-secret"`
}
