package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadDefault()
	require.NoError(t, err)

	assert.Equal(t, "scamshield", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 20*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "NG", cfg.Scoring.DefaultRegion)
	assert.Equal(t, 10, cfg.Community.SubmitPoints)
	assert.Equal(t, 50, cfg.Community.VerifiedSubmitterPoints)
	assert.Equal(t, 25, cfg.Community.VerifierPoints)
	assert.Len(t, cfg.Scoring.SeedBlacklist, 3)
	assert.False(t, cfg.Database.Enabled)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := []byte(`
server:
  http_port: 9000
redis:
  enabled: true
  host: cache.internal
community:
  leaderboard_max_limit: 50
`)
	require.NoError(t, os.WriteFile(path, yaml, 0o600))
	t.Setenv("SCAMSHIELD_JWT_SECRET", "s3cret")
	t.Setenv("SCAMSHIELD_REDIS_HOST", "redis.from.env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.HTTPPort)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis.from.env:6379", cfg.Redis.Addr())
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, 50, cfg.Community.LeaderboardMaxLimit)
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestJWTValidate(t *testing.T) {
	assert.Error(t, JWTConfig{}.Validate())
	assert.Error(t, JWTConfig{Secret: "   "}.Validate())
	assert.NoError(t, JWTConfig{Secret: "s3cret"}.Validate())

	chdir(t, t.TempDir())
	t.Setenv("SCAMSHIELD_JWT_SECRET", "")
	cfg, err := LoadDefault()
	require.NoError(t, err)
	assert.Error(t, cfg.JWT.Validate())
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{User: "u", Password: "p", Host: "db", Port: 5432, DBName: "scam", SSLMode: "disable", Schema: "public"}
	assert.Equal(t, "postgres://u:p@db:5432/scam?sslmode=disable&search_path=public", c.DSN())
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(prev)) })
}
