// Package config loads runtime configuration for the factfeed CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   data service base URL
//	-k string   public API key
//	-d string   local SQLite database path
//	-i int      online status check interval (seconds)
//	-t int      request timeout (seconds, 0 = none)
//	-s          discard stale fetch responses
//	-l string   log level
//
// # JSON schema
//
//	{
//	  "service_url": "http://127.0.0.1:8080",
//	  "api_key": "factfeed-anon-key",
//	  "database_path": "factfeed.db",
//	  "online_check_interval": "3s",
//	  "request_timeout": "10s",
//	  "discard_stale_fetches": true,
//	  "log_level": "warn"
//	}
package config
