// Package config loads homeview settings: built-in defaults, then an optional
// YAML file, then HOMEVIEW_* environment variables.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aretw0/homeview/pkg/domain"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Config is the full application configuration.
type Config struct {
	Log         Log         `yaml:"log" envPrefix:"LOG_"`
	Content     Content     `yaml:"content" envPrefix:"CONTENT_"`
	Profile     Profile     `yaml:"profile" envPrefix:"PROFILE_"`
	Persistence Persistence `yaml:"persistence" envPrefix:"PERSISTENCE_"`
	Catalog     Catalog     `yaml:"catalog" envPrefix:"CATALOG_"`
	Server      Server      `yaml:"server" envPrefix:"SERVER_"`
	Menu        Menu        `yaml:"menu" envPrefix:"MENU_"`
}

// Log selects the slog level and handler.
type Log struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Content points at the GraphQL endpoint serving the cards collection.
// With an empty endpoint the cards come from Fixture (or an empty list).
type Content struct {
	Endpoint   string        `yaml:"endpoint" env:"ENDPOINT"`
	Token      string        `yaml:"token" env:"TOKEN"`
	Collection string        `yaml:"collection" env:"COLLECTION"`
	Timeout    time.Duration `yaml:"timeout" env:"TIMEOUT"`
	Fixture    string        `yaml:"fixture" env:"FIXTURE"`
}

// Profile configures the avatar/name lookup.
type Profile struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	URL     string `yaml:"url" env:"URL"`
}

// Persistence configures snapshot storage. An empty RedisURL keeps snapshots in memory.
//
// EncryptionKey is a base64 encoded 32-byte AES key. When set, snapshots are
// stored sealed; FallbackKeys still open snapshots written under older keys.
// RedactName keeps the display name out of the backend altogether.
type Persistence struct {
	RedisURL      string        `yaml:"redis_url" env:"REDIS_URL"`
	Key           string        `yaml:"key" env:"KEY"`
	TTL           time.Duration `yaml:"ttl" env:"TTL"`
	EncryptionKey string        `yaml:"encryption_key" env:"ENCRYPTION_KEY"`
	FallbackKeys  []string      `yaml:"fallback_keys" env:"FALLBACK_KEYS" envSeparator:","`
	RedactName    bool          `yaml:"redact_name" env:"REDACT_NAME"`
}

// Catalog selects where logos and courses come from. An empty Dir uses the built-in catalog.
type Catalog struct {
	Dir string `yaml:"dir" env:"DIR"`
}

// Server configures the HTTP surface.
type Server struct {
	Addr string `yaml:"addr" env:"ADDR"`
}

// Menu lists the entries of the slide-in menu panel.
type Menu struct {
	Items []string `yaml:"items" env:"ITEMS" envSeparator:","`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: Log{Level: "info", Format: "text"},
		Content: Content{
			Collection: domain.CardsCollection,
			Timeout:    15 * time.Second,
		},
		Profile: Profile{
			Enabled: true,
			URL:     "https://uinames.com/api/?ext",
		},
		Persistence: Persistence{
			Key: "default",
		},
		Server: Server{Addr: ":8080"},
		Menu: Menu{
			Items: []string{"Account", "Billing", "Learn React", "Log out"},
		},
	}
}

// Load builds the configuration. A missing file at path is not an error
// unless required is true; an empty path skips the file layer.
func Load(path string, required bool) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist) && !required:
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "HOMEVIEW_"}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// DefaultCatalog parses the built-in logos and popular courses.
func DefaultCatalog() (domain.Catalog, error) {
	var c domain.Catalog
	if err := yaml.Unmarshal(defaultCatalog, &c); err != nil {
		return domain.Catalog{}, fmt.Errorf("failed to parse built-in catalog: %w", err)
	}
	return c, nil
}
