package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/factfeed/internal/flagx"
)

var ownedFlags = flagx.Owned{
	Value: []string{"a", "k", "d", "i", "t", "l"},
	Bool:  []string{"s"},
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   data service base URL
//	-k string   public API key
//	-d string   path of the local SQLite database
//	-i int      online check interval in seconds
//	-t int      request timeout in seconds (0 = none)
//	-s          discard stale fetch responses
//	-l string   log level
//
// Only the flags listed above are parsed; anything else on the command line
// is left to other stages.
func parseFlags(cfg *Config, args []string) {
	fs := flag.NewFlagSet("client", flag.ContinueOnError)

	fs.StringVar(&cfg.ServiceURL, "a", cfg.ServiceURL, "data service base URL")
	fs.StringVar(&cfg.APIKey, "k", cfg.APIKey, "public API key")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local database path")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds, 0 = none)")
	fs.BoolVar(&cfg.DiscardStaleFetches, "s", cfg.DiscardStaleFetches, "discard stale fetch responses")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(ownedFlags.Filter(args)); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
