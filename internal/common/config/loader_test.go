package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfig(t, "app:\n  name: loan-console\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5279/api", cfg.API.BaseURL)
	assert.Equal(t, 30000, cfg.API.Timeout)
	assert.Equal(t, 2000, cfg.API.RedirectDelay)
	assert.Equal(t, "NGN", cfg.Intake.CurrencyCode)
	assert.False(t, cfg.Payments.PreselectFirstDue)
	assert.Equal(t, 10, cfg.Payments.PageSize)
	assert.False(t, cfg.Session.RedisEnabled())
	assert.Equal(t, "loan-console:jwt_token", cfg.Session.Key("jwt_token"))
}

func TestLoadFromFile_FileValuesAndNormalization(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: "https://lois.example.com/api/"
  timeout: 5000
session:
  redis:
    address: "127.0.0.1:6379"
  key_prefix: ""
intake:
  currency_code: "ngn"
payments:
  preselect_first_due: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://lois.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, GetDuration(cfg.API.Timeout))
	assert.True(t, cfg.Session.RedisEnabled())
	assert.Equal(t, "jwt_token", cfg.Session.Key("jwt_token"))
	assert.Equal(t, "NGN", cfg.Intake.CurrencyCode)
	assert.True(t, cfg.Payments.PreselectFirstDue)
}

func TestLoadFromFile_EnvOverride(t *testing.T) {
	t.Setenv("LOAN_CONSOLE_API_BASE_URL", "https://override.example.com/api")
	t.Setenv("LOAN_CONSOLE_PAYMENTS_PAGE_SIZE", "25")
	path := writeConfig(t, "api:\n  base_url: https://file.example.com/api\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://override.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 25, cfg.Payments.PageSize)
}

func TestLoadFromFile_ExpandsPlaceholders(t *testing.T) {
	t.Setenv("LOIS_TOKEN", "secret-token")
	path := writeConfig(t, "session:\n  token: ${LOIS_TOKEN}\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-token", cfg.Session.Token)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"relative base url", "api:\n  base_url: /api\n", "api.base_url must be an absolute URL"},
		{"bad currency", "intake:\n  currency_code: NAIRA\n", "intake.currency_code"},
		{"negative timeout", "api:\n  timeout: -1\n", "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
