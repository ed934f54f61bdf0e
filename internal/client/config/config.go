package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the factfeed CLI.
type Config struct {
	// ServiceURL is the base URL of the data service, e.g. http://127.0.0.1:8080.
	ServiceURL string
	// APIKey is the service's public (anon) key sent as the apikey header.
	APIKey string
	// DatabasePath is the SQLite file holding the persisted session.
	DatabasePath string
	// OnlineCheckInterval is how often the client probes the service.
	OnlineCheckInterval time.Duration
	// RequestTimeout bounds every HTTP request; zero waits indefinitely.
	RequestTimeout time.Duration
	// DiscardStaleFetches drops list responses overtaken by a newer fetch.
	DiscardStaleFetches bool
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServiceURL = "http://127.0.0.1:8080"
	c.APIKey = "factfeed-anon-key"
	c.DatabasePath = "factfeed.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.RequestTimeout = 0
	c.DiscardStaleFetches = false
	c.LogLevel = "warn"
}

// LoadConfig builds a Config from os.Args: defaults, then the JSON file
// named by -c/-config, then flags. Later sources take precedence.
func LoadConfig() *Config {
	return Load(os.Args[1:])
}

// Load is LoadConfig over an explicit argument list (without the program
// name). It panics on unreadable files or malformed values.
func Load(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}
