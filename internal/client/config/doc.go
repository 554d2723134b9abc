// Package config loads runtime configuration for the gophauth CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the HTTP API
//	-g string   address:port of the gRPC health endpoint
//	-i int      online status check interval (seconds)
//
// # JSON schema
//
// Durations are timex.Duration values, so "3s", "1m" or integer nanoseconds
// are accepted:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "health_addr": "127.0.0.1:50051",
//	  "request_timeout": "10s",
//	  "online_check_interval": "3s"
//	}
package config
