// Package config loads runtime configuration for the cityai CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the platform backend
//	-d string   path of the local credential database
//	-t int      request timeout (seconds)
//	-i int      online status check interval (seconds)
//	-l string   log level
//
// # JSON schema
//
// Durations go through timex.Duration, so values can be either strings like
// "10s" or integer nanoseconds. Keys that are absent keep their defaults:
//
//	{
//	  "base_url": "https://ai.city.example",
//	  "database_path": "/var/lib/cityai/cityai.db",
//	  "request_timeout": "10s",
//	  "online_check_interval": "5s",
//	  "log_level": "info"
//	}
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
