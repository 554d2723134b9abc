// Package config handles configuration for the server component:
// defaults, an optional JSON file, environment variables and command-line
// flags, applied in that order.
package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	MailModeSMTP = "smtp"
	MailModeLog  = "log"
)

// Config holds runtime settings for the gophauth server. It is built once at
// startup and treated as read-only afterwards.
//
// Fields:
//   - HTTPAddr: bind address of the JSON API.
//   - GRPCAddr: bind address of the gRPC health endpoint.
//   - DatabaseDSN: PostgreSQL DSN (pgx).
//   - AccessTokenSecret / RefreshTokenSecret: HMAC secrets (HS256), must differ.
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: token lifetimes.
//   - MaxSessionsPerUser: active refresh tokens kept per user, oldest evicted first.
//   - RefreshRequiresSession: refresh also checks the session registry, not only the signature.
//   - MailMode: "smtp" delivers reset codes by mail, "log" only logs that a code was issued.
//   - SMTPHost / SMTPPort / SMTPUser / SMTPPassword / MailFrom: outbound mail settings.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	HTTPAddr                     string
	GRPCAddr                     string
	DatabaseDSN                  string
	AccessTokenSecret            string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenSecret           string
	RefreshTokenValidityDuration time.Duration
	MaxSessionsPerUser           int
	RefreshRequiresSession       bool
	MailMode                     string
	SMTPHost                     string
	SMTPPort                     int
	SMTPUser                     string
	SMTPPassword                 string
	MailFrom                     string
	LogLevel                     string
}

// LoadDefaults populates Config with development defaults. Secrets and the
// DSN have no defaults and must be supplied.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.GRPCAddr = ":50051"
	c.AccessTokenValidityDuration = 15 * time.Minute
	c.RefreshTokenValidityDuration = 7 * 24 * time.Hour
	c.MaxSessionsPerUser = 10
	c.RefreshRequiresSession = true
	c.MailMode = MailModeSMTP
	c.SMTPHost = "smtp.gmail.com"
	c.SMTPPort = 587
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
// Malformed sources panic; call Validate on the result.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

// Validate reports every missing or inconsistent setting.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http address is required"))
	}
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database DSN is required"))
	}
	if c.AccessTokenSecret == "" {
		errs = append(errs, errors.New("access token secret is required"))
	}
	if c.RefreshTokenSecret == "" {
		errs = append(errs, errors.New("refresh token secret is required"))
	}
	if c.AccessTokenSecret != "" && c.AccessTokenSecret == c.RefreshTokenSecret {
		errs = append(errs, errors.New("access and refresh token secrets must differ"))
	}
	if c.AccessTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("access token lifetime must be positive"))
	}
	if c.RefreshTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("refresh token lifetime must be positive"))
	}
	if c.MaxSessionsPerUser <= 0 {
		errs = append(errs, errors.New("max sessions per user must be positive"))
	}

	switch c.MailMode {
	case MailModeSMTP:
		if c.SMTPHost == "" || c.SMTPPort <= 0 {
			errs = append(errs, errors.New("smtp host and port are required"))
		}
		if c.SMTPUser == "" || c.SMTPPassword == "" {
			errs = append(errs, errors.New("smtp credentials are required"))
		}
	case MailModeLog:
	default:
		errs = append(errs, fmt.Errorf("unknown mail mode %q", c.MailMode))
	}

	return errors.Join(errs...)
}

// Sender returns the From address for outbound mail.
func (c *Config) Sender() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return c.SMTPUser
}
