package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"15m", 15 * time.Minute, false},
		{"7d", 7 * 24 * time.Hour, false},
		{"1h30m", 90 * time.Minute, false},
		{"0d", 0, true},
		{"-5m", 0, true},
		{"xd", 0, true},
		{"forever", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))
	return dir
}

func TestLoadConfigFromFileAndEnv(t *testing.T) {
	dir := writeConfig(t, `
database:
  driver: memory
jwt:
  secret: file-access
  refresh_secret: file-refresh
`)
	t.Setenv("JWT_SECRET", "env-access")
	t.Setenv("CLIENT_URL", "https://app.jevencare.in")
	t.Setenv("JWT_REFRESH_EXPIRE", "30d")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "env-access", cfg.JWT.Secret)
	assert.Equal(t, "file-refresh", cfg.JWT.RefreshSecret)
	assert.Equal(t, "https://app.jevencare.in", cfg.CORS.ClientURL)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, 10*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, "+91", cfg.OTP.DefaultCountryCode)
	assert.True(t, cfg.OTP.TestMode)

	ttl, err := cfg.JWT.RefreshTTL()
	require.NoError(t, err)
	assert.Equal(t, 30*24*time.Hour, ttl)
}

func TestLoadConfigRejectsSharedSecrets(t *testing.T) {
	dir := writeConfig(t, `
database:
  driver: memory
jwt:
  secret: same
  refresh_secret: same
`)
	_, err := LoadConfig(dir)
	assert.ErrorContains(t, err, "must differ")
}

func TestValidateProductionNeedsTwilio(t *testing.T) {
	cfg := &Config{
		App:      AppConfig{Env: EnvProduction},
		Database: DatabaseConfig{Driver: "memory"},
		JWT:      JWTConfig{Secret: "a", RefreshSecret: "b", AccessExpire: "15m", RefreshExpire: "7d"},
		OTP:      OTPConfig{Store: "memory"},
	}
	assert.ErrorContains(t, cfg.Validate(), "twilio")

	cfg.Twilio = TwilioConfig{AccountSID: "AC1", AuthToken: "tok", PhoneNumber: "+15550000000"}
	assert.NoError(t, cfg.Validate())

	cfg.OTP.TestMode = true
	assert.ErrorContains(t, cfg.Validate(), "test mode")
}

func TestValidateDriver(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Driver: "postgres"},
		JWT:      JWTConfig{Secret: "a", RefreshSecret: "b", AccessExpire: "15m", RefreshExpire: "7d"},
		OTP:      OTPConfig{Store: "memory", TestMode: true},
	}
	assert.ErrorContains(t, cfg.Validate(), "database url")

	cfg.Database.Driver = "mongo"
	assert.ErrorContains(t, cfg.Validate(), "unsupported database driver")

	cfg.Database.Driver = "memory"
	cfg.OTP.Store = "redis"
	assert.ErrorContains(t, cfg.Validate(), "redis url")
}
