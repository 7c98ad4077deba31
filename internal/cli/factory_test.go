package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/homeview/internal/config"
	"github.com/aretw0/homeview/internal/logging"
	"github.com/aretw0/homeview/internal/testutils"
	"github.com/aretw0/homeview/pkg/domain"
	"github.com/aretw0/homeview/pkg/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Profile.Enabled = false
	return cfg
}

func build(t *testing.T, cfg config.Config) *Components {
	t.Helper()
	c, err := Build(context.Background(), cfg, BuildOptions{Output: &bytes.Buffer{}, Logger: logging.NewNop()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// start runs the loop and the App until the test ends.
func start(t *testing.T, c *Components) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = c.Loop.Run(ctx) }()
	require.NoError(t, c.App.Start(ctx))
	t.Cleanup(func() {
		c.App.Stop()
		cancel()
	})
}

func TestBuild_Defaults(t *testing.T) {
	c := build(t, testConfig())

	catalog := c.App.Catalog()
	assert.Len(t, catalog.Logos, 6)
	assert.Len(t, catalog.Courses, 4)
	assert.Equal(t, query.Pending, c.App.Cards().Phase)

	start(t, c)
	require.Eventually(t, func() bool { return c.App.Cards().Phase == query.Resolved }, time.Second, 5*time.Millisecond)
	assert.Empty(t, c.App.Cards().Data.Items)
}

func TestBuild_FixtureAndRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{
		"cards.json": `{"items":[{"title":"React Native for Designers","caption":"1 of 12 sections"}]}`,
	})

	cfg := testConfig()
	cfg.Content.Fixture = filepath.Join(dir, "cards.json")
	cfg.Persistence.RedisURL = "redis://" + mr.Addr()
	cfg.Persistence.Key = "kiosk"

	first, err := Build(context.Background(), cfg, BuildOptions{Logger: logging.NewNop()})
	require.NoError(t, err)
	start(t, first)

	require.Eventually(t, func() bool { return first.App.Cards().Phase == query.Resolved }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "React Native for Designers", first.App.Cards().Data.Items[0].Title)

	first.App.Dispatch(domain.UpdateName("Grace"))
	first.App.Stop()
	require.NoError(t, first.Close())
	assert.True(t, mr.Exists("homeview:snapshot:kiosk"))

	second := build(t, cfg)
	assert.Equal(t, "Grace", second.App.State().Name)
}

func TestBuild_EncryptedSnapshots(t *testing.T) {
	mr := miniredis.RunT(t)
	oldKey := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{1}, 32))
	newKey := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{2}, 32))

	cfg := testConfig()
	cfg.Persistence.RedisURL = "redis://" + mr.Addr()
	cfg.Persistence.Key = "kiosk"
	cfg.Persistence.EncryptionKey = oldKey

	first, err := Build(context.Background(), cfg, BuildOptions{Logger: logging.NewNop()})
	require.NoError(t, err)
	start(t, first)
	first.App.Dispatch(domain.UpdateName("Grace"))
	first.App.Stop()
	require.NoError(t, first.Close())

	raw, err := mr.Get("homeview:snapshot:kiosk")
	require.NoError(t, err)
	assert.NotContains(t, raw, "Grace")

	cfg.Persistence.EncryptionKey = newKey
	cfg.Persistence.FallbackKeys = []string{oldKey}
	second := build(t, cfg)
	assert.Equal(t, "Grace", second.App.State().Name)
}

func TestBuild_CatalogDir(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{
		"logos/swift.md": "---\ntext: Swift\nimage: logo-swift.png\n---\n",
		"courses/swiftui.md": "---\ntitle: SwiftUI Advanced\nauthor: Meng To\n---\nBuild an app with SwiftUI\n",
	})

	cfg := testConfig()
	cfg.Catalog.Dir = dir
	c := build(t, cfg)

	catalog := c.App.Catalog()
	require.Len(t, catalog.Logos, 1)
	assert.Equal(t, "Swift", catalog.Logos[0].Text)
	require.Len(t, catalog.Courses, 1)
	assert.Equal(t, "SwiftUI Advanced", catalog.Courses[0].Title)
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"bad log level", func(c *config.Config) { c.Log.Level = "loud" }, "invalid log level"},
		{"missing fixture", func(c *config.Config) { c.Content.Fixture = "/does/not/exist.json" }, "failed to read fixture"},
		{"bad redis url", func(c *config.Config) { c.Persistence.RedisURL = "postgres://nope" }, "failed to connect to redis"},
		{"bad collection", func(c *config.Config) {
			c.Content.Endpoint = "http://localhost:1/graphql"
			c.Content.Collection = "cards.items"
		}, "content.collection"},
		{"short key", func(c *config.Config) { c.Persistence.EncryptionKey = "c2hvcnQ=" }, "32 bytes"},
		{"key not base64", func(c *config.Config) { c.Persistence.EncryptionKey = "%%%" }, "invalid encryption_key"},
		{"fallback alone", func(c *config.Config) { c.Persistence.FallbackKeys = []string{"x"} }, "without encryption_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			_, err := Build(context.Background(), cfg, BuildOptions{})
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestRun_JSON(t *testing.T) {
	var out bytes.Buffer
	err := Run(context.Background(), testConfig(), RunOptions{
		JSON:   true,
		Input:  strings.NewReader("menu\nquit\n"),
		Output: &out,
	})
	require.NoError(t, err)

	first, _, _ := strings.Cut(out.String(), "\n")
	var frame map[string]any
	require.NoError(t, json.Unmarshal([]byte(first), &frame))
	assert.Equal(t, "home", frame["screen"])
}
