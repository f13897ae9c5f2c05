// AngelaMos | 2026
// config_test.go

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/identity")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("TOKEN_SECRET", testSecret)
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	c, err := load("")
	require.NoError(t, err)

	assert.Equal(t, 60, c.Token.AccessTokenExpiryMinutes)
	assert.Equal(t, 7, c.Token.RefreshTokenExpiryDays)
	assert.Equal(t, time.Hour, c.Token.AccessTokenTTL())
	assert.Equal(t, 7*24*time.Hour, c.Token.RefreshTokenTTL())
	assert.Equal(t, "admin@identity.local", c.Seed.AdminEmail)
	assert.Equal(t, "john.doe@email.com", c.Seed.BasicEmail)
	assert.Equal(t, 30*time.Second, c.Server.ReadTimeout)
	assert.False(t, c.Events.Enabled)
	assert.True(t, c.IsDevelopment())
	assert.Equal(t, "0.0.0.0:8080", c.Server.Address())
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TOKEN_EXPIRY_MINUTES", "15")
	t.Setenv("REFRESH_TOKEN_EXPIRY_DAYS", "3")
	t.Setenv("SEED_ADMIN_EMAIL", "  Root@Example.COM ")
	t.Setenv("PORT", "9090")

	c, err := load("")
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, c.Token.AccessTokenTTL())
	assert.Equal(t, 3*24*time.Hour, c.Token.RefreshTokenTTL())
	assert.Equal(t, "root@example.com", c.Seed.AdminEmail)
	assert.Equal(t, 9090, c.Server.Port)
}

func TestLoadYAMLFile(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := strings.Join([]string{
		"token:",
		"  issuer: yaml-issuer",
		"  audience: yaml-audience",
		"log:",
		"  level: debug",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	c, err := load(path)
	require.NoError(t, err)

	assert.Equal(t, "yaml-issuer", c.Token.Issuer)
	assert.Equal(t, "yaml-audience", c.Token.Audience)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "short secret",
			env:     map[string]string{"TOKEN_SECRET": "too-short"},
			wantErr: "TOKEN_SECRET must be at least 32 bytes",
		},
		{
			name:    "missing secret",
			env:     map[string]string{"TOKEN_SECRET": ""},
			wantErr: "TOKEN_SECRET is required",
		},
		{
			name:    "zero access expiry",
			env:     map[string]string{"TOKEN_EXPIRY_MINUTES": "0"},
			wantErr: "access_token_expiry_minutes",
		},
		{
			name:    "negative refresh expiry",
			env:     map[string]string{"REFRESH_TOKEN_EXPIRY_DAYS": "-1"},
			wantErr: "refresh_token_expiry_days",
		},
		{
			name: "default admin password in production",
			env: map[string]string{
				"ENVIRONMENT": "production",
			},
			wantErr: "SEED_ADMIN_PASSWORD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnvKeyReplacerIgnoresUnmapped(t *testing.T) {
	assert.Equal(t, "token.secret", envKeyReplacer("TOKEN_SECRET"))
	assert.Empty(t, envKeyReplacer("HOME"))
}
