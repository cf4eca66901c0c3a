// Package config provides configuration loading and validation for the
// flowrun runtime.
//
// It uses Viper to load configuration from files and environment variables,
// supporting multiple formats (YAML, JSON, TOML) and environment-specific
// overrides.
//
// # Usage
//
//	var cfg RuntimeConfig
//	err := config.LoadConfig("flowrun", &cfg)
//
// Environment variables override file values by matching
// UPPER_CASE_WITH_UNDERSCORES names against nested config keys (e.g.
// SERVER_PORT overrides server.port).
package config
