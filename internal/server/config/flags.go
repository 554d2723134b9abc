package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-g string   gRPC health bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   access token secret
//	-S string   refresh token secret
//	-t string   access token lifetime ("15m", "900", "1d")
//	-r string   refresh token lifetime
//	-m int      max sessions per user
//	-l string   log level
//
// os.Args is filtered with flagx.FilterArgs first, so -c/-config and other
// foreign flags do not break parsing.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-d", "-s", "-S", "-t", "-r", "-m", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "http address and port to run server")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "grpc health address")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.AccessTokenSecret, "s", config.AccessTokenSecret, "access token secret")
	fs.StringVar(&config.RefreshTokenSecret, "S", config.RefreshTokenSecret, "refresh token secret")

	accessTTL := fs.String("t", "", "access token validity duration")
	refreshTTL := fs.String("r", "", "refresh token validity duration")

	fs.IntVar(&config.MaxSessionsPerUser, "m", config.MaxSessionsPerUser, "max sessions per user")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	if *accessTTL != "" {
		d, err := timex.ParseDuration(*accessTTL)
		if err != nil {
			panic(err)
		}
		config.AccessTokenValidityDuration = d
	}
	if *refreshTTL != "" {
		d, err := timex.ParseDuration(*refreshTTL)
		if err != nil {
			panic(err)
		}
		config.RefreshTokenValidityDuration = d
	}
}
