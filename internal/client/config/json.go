package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/factfeed/internal/flagx"
	"github.com/dmitrijs2005/factfeed/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations
// accept strings like "3s" or integer nanoseconds.
type JsonConfig struct {
	ServiceURL          string         `json:"service_url"`
	APIKey              string         `json:"api_key"`
	DatabasePath        string         `json:"database_path"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	DiscardStaleFetches *bool          `json:"discard_stale_fetches"`
	LogLevel            string         `json:"log_level"`
}

// parseJson overlays Config with the fields present in the JSON file named
// by -c or -config. Missing fields keep their current value. It panics on
// read or unmarshal errors.
func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServiceURL != "" {
		cfg.ServiceURL = jc.ServiceURL
	}
	if jc.APIKey != "" {
		cfg.APIKey = jc.APIKey
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.OnlineCheckInterval.Duration != 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.DiscardStaleFetches != nil {
		cfg.DiscardStaleFetches = *jc.DiscardStaleFetches
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
}
