package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_DefaultsWhenNothingSet(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingFilesAreSkipped(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "nope.yaml"), filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
}

func TestLoad_Layering(t *testing.T) {
	yamlPath := writeFile(t, "party.yaml", `
listen: ":9000"
timezone: "UTC"
rate_limit: 5
token_ttl: 2h
reminder_cron: "30 8 * * *"
`)
	envPath := writeFile(t, ".env", "PARTY_RATE_LIMIT=7\nPARTY_ADMIN_EMAIL=dotenv@festas.com\n")
	t.Setenv("PARTY_ADMIN_EMAIL", "env@festas.com")
	t.Setenv("PARTY_REQUEST_TIMEOUT", "3s")
	t.Setenv("PARTY_OUTBOX_RETRY_CRON", "")
	// godotenv writes into the process environment; clear what it sets.
	t.Cleanup(func() { os.Unsetenv("PARTY_RATE_LIMIT") })

	cfg, err := Load(yamlPath, envPath)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Listen, "yaml over default")
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "30 8 * * *", cfg.ReminderCron)
	assert.Equal(t, 7, cfg.RateLimit, ".env over yaml")
	assert.Equal(t, "env@festas.com", cfg.AdminEmail, "environment over .env")
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Empty(t, cfg.OutboxRetryCron, "set but empty disables the retry job")
	assert.Equal(t, "partyplanner.db", cfg.DBPath, "untouched default")
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeFile(t, "bad.yaml", "listen: [oops"), "")
	assert.Error(t, err)
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("PARTY_RATE_LIMIT", "lots")
	_, err := Load("", "")
	assert.Error(t, err)
}

func TestValidateServer(t *testing.T) {
	cfg := Default()
	err := cfg.ValidateServer()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "ADMIN_PASSWORD_HASH")

	cfg.JWTSecret = "0123456789abcdef0123456789abcdef"
	cfg.AdminEmail = "admin@festas.com"
	cfg.AdminPasswordHash = "$2a$10$abcdefghijklmnopqrstuv"
	assert.NoError(t, cfg.ValidateServer())

	cfg.Timezone = "Mars/Olympus"
	assert.Error(t, cfg.ValidateServer())
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		cfg := &Config{LogLevel: in}
		assert.Equal(t, want, cfg.SlogLevel(), in)
	}
}

func TestLocation(t *testing.T) {
	cfg := Default()
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Sao_Paulo", loc.String())
}
