// Package config provides client configuration for archivekit.
//
// It uses Viper to load an archive.yml file merged with ARCHIVE_-prefixed
// environment variables (optionally from a .env file via godotenv), and
// resolves the password interactively when neither the file nor the
// environment carries one.
//
// # Usage
//
//	var cfg config.Config
//	if err := config.Load(&cfg); err != nil { ... }
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil { ... }
//
// Environment variables override file values using the ARCHIVE_ prefix
// with underscore-separated paths (e.g. ARCHIVE_AUTH_URL,
// ARCHIVE_LOGGING_LEVEL).
package config
