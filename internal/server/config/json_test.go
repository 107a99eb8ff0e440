package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJson_Overlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{
		"database_dsn": "postgres://example/sessions",
		"signing_keys": [
			{"id": "2025-06", "secret": "topsecret"},
			{"id": "2024-12", "secret": "oldsecret"}
		],
		"access_token_ttl": "5m",
		"refresh_token_ttl": "720h",
		"max_failures": 3,
		"lockout_base": "1m"
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	orig := os.Args
	defer func() { os.Args = orig }()
	os.Args = []string{"cmd", "-c", path}

	var c Config
	c.LoadDefaults()
	parseJson(&c)

	assert.Equal(t, c.DatabaseDSN, "postgres://example/sessions")
	require.Len(t, c.SigningKeys, 2)
	assert.Equal(t, c.SigningKeys[0], SigningKey{ID: "2025-06", Secret: "topsecret"})
	assert.Equal(t, c.AccessTokenTTL, 5*time.Minute)
	assert.Equal(t, c.RefreshTokenTTL, 720*time.Hour)
	assert.Equal(t, c.MaxFailures, 3)
	assert.Equal(t, c.LockoutBase, time.Minute)
	// Untouched fields keep their defaults.
	assert.Equal(t, c.LockoutMax, 15*time.Minute)
	assert.Equal(t, c.EscalationWindow, 24*time.Hour)
}

func TestParseJson_NoFileGiven(t *testing.T) {
	orig := os.Args
	defer func() { os.Args = orig }()
	os.Args = []string{"cmd"}

	var c Config
	c.LoadDefaults()
	parseJson(&c)

	assert.Equal(t, c.MaxFailures, 5)
}

func TestParseJson_BadFilePanics(t *testing.T) {
	orig := os.Args
	defer func() { os.Args = orig }()
	os.Args = []string{"cmd", "-c", "/nonexistent/config.json"}

	var c Config
	c.LoadDefaults()

	assert.Panics(t, func() { parseJson(&c) })
}
