package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, ":50051", c.GRPCAddr)
	assert.Empty(t, c.DatabaseDSN)
	assert.Empty(t, c.AccessTokenSecret)
	assert.Empty(t, c.RefreshTokenSecret)
	assert.Equal(t, 15*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, 7*24*time.Hour, c.RefreshTokenValidityDuration)
	assert.Equal(t, 10, c.MaxSessionsPerUser)
	assert.True(t, c.RefreshRequiresSession)
	assert.Equal(t, MailModeSMTP, c.MailMode)
	assert.Equal(t, "info", c.LogLevel)
}

func TestLoadConfig_Precedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Setenv("CONFIG", "")
	t.Setenv("DB_CONNECT", "postgres://env")
	t.Setenv("ACS_TKN_SCT", "env-access")
	t.Setenv("RFS_TKN_SCT", "env-refresh")
	t.Setenv("ACS_TKN_EXP", "600")

	os.Args = []string{"testbin", "-s", "flag-access", "-t", "2m"}

	c := LoadConfig()
	require.NotNil(t, c)

	assert.Equal(t, "postgres://env", c.DatabaseDSN)
	assert.Equal(t, "flag-access", c.AccessTokenSecret)
	assert.Equal(t, "env-refresh", c.RefreshTokenSecret)
	assert.Equal(t, 2*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, 7*24*time.Hour, c.RefreshTokenValidityDuration)
}

func validConfig() *Config {
	c := &Config{}
	c.LoadDefaults()
	c.DatabaseDSN = "postgres://localhost/gophauth"
	c.AccessTokenSecret = "access"
	c.RefreshTokenSecret = "refresh"
	c.SMTPUser = "mailer@example.com"
	c.SMTPPassword = "app-password"
	return c
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing dsn", mutate: func(c *Config) { c.DatabaseDSN = "" }, wantErr: "database DSN is required"},
		{name: "missing access secret", mutate: func(c *Config) { c.AccessTokenSecret = "" }, wantErr: "access token secret is required"},
		{name: "missing refresh secret", mutate: func(c *Config) { c.RefreshTokenSecret = "" }, wantErr: "refresh token secret is required"},
		{name: "equal secrets", mutate: func(c *Config) { c.RefreshTokenSecret = c.AccessTokenSecret }, wantErr: "must differ"},
		{name: "zero access ttl", mutate: func(c *Config) { c.AccessTokenValidityDuration = 0 }, wantErr: "access token lifetime"},
		{name: "negative refresh ttl", mutate: func(c *Config) { c.RefreshTokenValidityDuration = -time.Second }, wantErr: "refresh token lifetime"},
		{name: "zero session cap", mutate: func(c *Config) { c.MaxSessionsPerUser = 0 }, wantErr: "max sessions"},
		{name: "smtp without credentials", mutate: func(c *Config) { c.SMTPPassword = "" }, wantErr: "smtp credentials"},
		{name: "log mode needs no smtp", mutate: func(c *Config) {
			c.MailMode = MailModeLog
			c.SMTPUser, c.SMTPPassword = "", ""
		}},
		{name: "unknown mail mode", mutate: func(c *Config) { c.MailMode = "pigeon" }, wantErr: "unknown mail mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	c := &Config{}
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database DSN is required")
	assert.Contains(t, err.Error(), "access token secret is required")
	assert.Contains(t, err.Error(), "unknown mail mode")
}

func TestSender(t *testing.T) {
	c := &Config{SMTPUser: "user@example.com"}
	assert.Equal(t, "user@example.com", c.Sender())

	c.MailFrom = "noreply@example.com"
	assert.Equal(t, "noreply@example.com", c.Sender())
}
