package config

import (
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// EnvConfig maps environment variables onto Config. The short names
// (ACS_TKN_SCT, ND_USER, ...) are kept for deployments that already set them.
// Durations are strings parsed by timex.ParseDuration ("900", "15m", "7d").
type EnvConfig struct {
	Port                   string `env:"PORT"`
	HTTPAddr               string `env:"HTTP_ADDR"`
	GRPCAddr               string `env:"GRPC_ADDR"`
	DatabaseDSN            string `env:"DB_CONNECT"`
	AccessTokenSecret      string `env:"ACS_TKN_SCT"`
	AccessTokenTTL         string `env:"ACS_TKN_EXP"`
	RefreshTokenSecret     string `env:"RFS_TKN_SCT"`
	RefreshTokenTTL        string `env:"RFS_TKN_EXP"`
	MaxSessionsPerUser     int    `env:"MAX_SESSIONS_PER_USER"`
	RefreshRequiresSession *bool  `env:"REFRESH_REQUIRES_SESSION"`
	MailMode               string `env:"MAIL_MODE"`
	SMTPHost               string `env:"SMTP_HOST"`
	SMTPPort               int    `env:"SMTP_PORT"`
	SMTPUser               string `env:"ND_USER"`
	SMTPPassword           string `env:"ND_PASS"`
	MailFrom               string `env:"MAIL_FROM"`
	LogLevel               string `env:"LOG_LEVEL"`
}

// parseEnv overlays values found in the process environment. Unset variables
// leave config untouched; malformed values panic.
func parseEnv(config *Config) {
	c := EnvConfig{}
	if err := env.Parse(&c); err != nil {
		panic(err)
	}

	if c.Port != "" {
		config.HTTPAddr = portToAddr(c.Port)
	}
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.AccessTokenSecret, c.AccessTokenSecret)
	setString(&config.RefreshTokenSecret, c.RefreshTokenSecret)

	if c.AccessTokenTTL != "" {
		d, err := timex.ParseDuration(c.AccessTokenTTL)
		if err != nil {
			panic(err)
		}
		config.AccessTokenValidityDuration = d
	}
	if c.RefreshTokenTTL != "" {
		d, err := timex.ParseDuration(c.RefreshTokenTTL)
		if err != nil {
			panic(err)
		}
		config.RefreshTokenValidityDuration = d
	}

	setInt(&config.MaxSessionsPerUser, c.MaxSessionsPerUser)
	if c.RefreshRequiresSession != nil {
		config.RefreshRequiresSession = *c.RefreshRequiresSession
	}
	setString(&config.MailMode, c.MailMode)
	setString(&config.SMTPHost, c.SMTPHost)
	setInt(&config.SMTPPort, c.SMTPPort)
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.MailFrom, c.MailFrom)
	setString(&config.LogLevel, c.LogLevel)
}

// portToAddr turns a bare port number into a listen address.
func portToAddr(port string) string {
	if strings.Contains(port, ":") {
		return port
	}
	if _, err := strconv.Atoi(port); err != nil {
		return port
	}
	return ":" + port
}
