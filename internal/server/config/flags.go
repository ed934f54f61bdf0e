package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/factfeed/internal/flagx"
)

var ownedFlags = flagx.Owned{
	Value: []string{"a", "g", "d", "r", "s", "k", "t", "f", "w", "u", "p", "b", "e", "l"},
	Bool:  []string{"m"},
}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-g string   gRPC health bind address
//	-d string   PostgreSQL DSN
//	-r string   Redis URL
//	-s string   JWT HMAC secret key
//	-k string   anon API key
//	-t int      access token validity, minutes
//	-f int      refresh token validity, hours
//	-m          auto-confirm signups (-m=false to require confirmation)
//	-w int      archive interval, minutes (0 disables)
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-l string   log level
//
// Duration flags are integers in the stated unit.
func parseFlags(config *Config, args []string) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.GRPCHealthAddr, "g", config.GRPCHealthAddr, "address and port of the gRPC health service")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisURL, "r", config.RedisURL, "redis URL")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.AnonKey, "k", config.AnonKey, "anon API key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	refreshTokenValidityDuration := fs.Int("f", int(config.RefreshTokenValidityDuration.Hours()), "refresh_token_validity_duration (in hours)")
	fs.BoolVar(&config.AutoConfirm, "m", config.AutoConfirm, "auto-confirm new users")
	archiveInterval := fs.Int("w", int(config.ArchiveInterval.Minutes()), "archive interval (in minutes, 0 = off)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(ownedFlags.Filter(args)); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Hour
	config.ArchiveInterval = time.Duration(*archiveInterval) * time.Minute
}
