package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 3, cfg.Game.MinPlayers)
	assert.Equal(t, 16, cfg.Game.MaxPlayers)
	assert.Equal(t, 5*time.Second, cfg.Game.RoleRevealDelay)
	assert.Equal(t, 3*time.Second, cfg.Game.NightDelay)
	assert.True(t, cfg.Game.MultipleMafiaKills)
	assert.Equal(t, 30*time.Second, cfg.Janitor.Interval)
	assert.Equal(t, 5*time.Minute, cfg.Janitor.RoomExpiry)
	assert.Equal(t, 2*time.Minute, cfg.Janitor.PlayerGrace)
	assert.Equal(t, 5, cfg.Chat.RateCount)
	assert.Equal(t, 10*time.Second, cfg.Chat.RateWindow)
	assert.Equal(t, 200, cfg.Chat.MaxLength)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("PUBLIC_URL", "https://mafia.example.com/")
	t.Setenv("MIN_PLAYERS", "5")
	t.Setenv("MULTIPLE_MAFIA_KILLS", "false")
	t.Setenv("ROOM_EXPIRY", "10m")
	t.Setenv("PLAYER_GRACE", "45")
	t.Setenv("JANITOR_INTERVAL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "https://mafia.example.com", cfg.Server.PublicURL)
	assert.Equal(t, 5, cfg.Game.MinPlayers)
	assert.False(t, cfg.Game.MultipleMafiaKills)
	assert.Equal(t, 10*time.Minute, cfg.Janitor.RoomExpiry)
	assert.Equal(t, 45*time.Second, cfg.Janitor.PlayerGrace)
	assert.Equal(t, 30*time.Second, cfg.Janitor.Interval)

	rules := cfg.Rules()
	assert.Equal(t, 5, rules.MinPlayers)
	assert.False(t, rules.MultipleMafiaKills)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	cfg.Game.MinPlayers = 2
	cfg.Game.MaxPlayers = 1
	cfg.Chat.MaxLength = 0
	cfg.Logging.Format = "xml"

	err = cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 4)
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, loadDotEnv(filepath.Join(dir, "missing.env")))

	good := filepath.Join(dir, "good.env")
	require.NoError(t, os.WriteFile(good, []byte("MAFIA_TEST_DOTENV=loaded\n"), 0o600))
	t.Setenv("MAFIA_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("MAFIA_TEST_DOTENV"))
	require.NoError(t, loadDotEnv(good))
	assert.Equal(t, "loaded", os.Getenv("MAFIA_TEST_DOTENV"))

	bad := filepath.Join(dir, "bad.env")
	require.NoError(t, os.WriteFile(bad, []byte("BROKEN=\"unterminated\n"), 0o600))
	err := loadDotEnv(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.env")
}

func TestEnvironmentNames(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Env: "production"}}
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())

	cfg.Server.Env = "development"
	assert.False(t, cfg.IsProduction())
	assert.True(t, cfg.IsDevelopment())
}
