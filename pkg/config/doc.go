// Package config centralizes environment-driven configuration for the
// confirmation service. Structs carry cleanenv tags so a command can load
// everything with a single cleanenv.ReadEnv call; conversion helpers hand the
// values to the packages that consume them (db-utils for the pool, the
// notification package for SMTP).
package config
