package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", false)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "cardsCollection", cfg.Content.Collection)
}

func TestLoad_MissingOptionalFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "homeview.yaml"), false)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load(filepath.Join(t.TempDir(), "homeview.yaml"), true)
	assert.Error(t, err)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "homeview.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
content:
  endpoint: https://graphql.example.com/content
  timeout: 3s
persistence:
  redis_url: redis://localhost:6379/0
  ttl: 24h
  redact_name: true
menu:
  items: [Account, Log out]
`), 0o644))

	t.Setenv("HOMEVIEW_LOG_LEVEL", "warn")
	t.Setenv("HOMEVIEW_CONTENT_TOKEN", "secret")
	t.Setenv("HOMEVIEW_SERVER_ADDR", ":9090")
	t.Setenv("HOMEVIEW_PERSISTENCE_FALLBACK_KEYS", "a,b")

	cfg, err := Load(path, true)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level, "env overrides file")
	assert.Equal(t, "text", cfg.Log.Format, "defaults survive")
	assert.Equal(t, "https://graphql.example.com/content", cfg.Content.Endpoint)
	assert.Equal(t, 3*time.Second, cfg.Content.Timeout)
	assert.Equal(t, "secret", cfg.Content.Token)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Persistence.RedisURL)
	assert.Equal(t, 24*time.Hour, cfg.Persistence.TTL)
	assert.True(t, cfg.Persistence.RedactName)
	assert.Equal(t, []string{"a", "b"}, cfg.Persistence.FallbackKeys)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"Account", "Log out"}, cfg.Menu.Items)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "homeview.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: [unterminated"), 0o644))

	_, err := Load(path, true)
	assert.Error(t, err)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("HOMEVIEW_CONTENT_TIMEOUT", "soon")

	_, err := Load("", false)
	assert.Error(t, err)
}

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	require.Len(t, c.Logos, 6)
	assert.Equal(t, "Framer X", c.Logos[0].Text)
	assert.Equal(t, "Sketch", c.Logos[5].Text)

	require.Len(t, c.Courses, 4)
	for _, course := range c.Courses {
		assert.Equal(t, "Harold Portocarrero", course.Author)
	}
	assert.Equal(t, "React for Designers", c.Courses[1].Title)
	assert.Equal(t, "12 sections", c.Courses[1].Subtitle)
}
