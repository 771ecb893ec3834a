// Package config loads grappling-events settings.
//
// Values come from built-in defaults, then an optional YAML file, then
// environment variables. Command-line flags are applied last by the cli
// package.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/grappling-events/internal/event"
	"github.com/pfrederiksen/grappling-events/internal/logger"
	"github.com/pfrederiksen/grappling-events/internal/scraper"
	"github.com/pfrederiksen/grappling-events/internal/storage"
)

const (
	DefaultDataDir         = "~/.local/share/grappling-events"
	DefaultConfigPath      = "~/.config/grappling-events/config.yaml"
	DefaultStaleCutoffDays = 60

	minSourceTimeout = time.Second
	maxSourceTimeout = 60 * time.Second
)

// Config is the full runtime configuration.
type Config struct {
	DataDir         string                  `yaml:"data_dir"`
	StaleCutoffDays int                     `yaml:"stale_cutoff_days"`
	UserAgent       string                  `yaml:"user_agent"`
	Store           StoreConfig             `yaml:"store"`
	Log             LogConfig               `yaml:"log"`
	Geocode         GeocodeConfig           `yaml:"geocode"`
	Sources         map[string]SourceConfig `yaml:"sources"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Driver         string `yaml:"driver"`
	DatabaseURL    string `yaml:"database_url"`
	MaxConnections int    `yaml:"max_connections"`
}

// LogConfig controls logger output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// GeocodeConfig configures the Mapbox provider.
type GeocodeConfig struct {
	Token   string        `yaml:"token"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// SourceConfig holds per-source overrides. A nil Enabled means enabled.
type SourceConfig struct {
	Enabled *bool         `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		DataDir:         DefaultDataDir,
		StaleCutoffDays: DefaultStaleCutoffDays,
		UserAgent:       scraper.UserAgent,
		Store: StoreConfig{
			Driver:         storage.DriverSQLite,
			MaxConnections: 4,
		},
		Log: LogConfig{
			Level:  string(logger.LevelInfo),
			Format: string(logger.FormatJSON),
		},
		Geocode: GeocodeConfig{
			Timeout: 10 * time.Second,
		},
	}
}

// Load builds a Config from defaults, the YAML file at path and the
// environment. An empty path reads DefaultConfigPath if it exists.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}
	expanded, err := storage.ExpandPath(path)
	if err != nil {
		return Config{}, fmt.Errorf("expanding config path: %w", err)
	}

	data, err := os.ReadFile(expanded)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", filepath.Base(expanded), err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("MAPBOX_SECRET_TOKEN"); v != "" {
		c.Geocode.Token = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Store.DatabaseURL = v
	}
	if v := os.Getenv("GRAPPLING_STORE_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv("GRAPPLING_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("GRAPPLING_STALE_CUTOFF_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid GRAPPLING_STALE_CUTOFF_DAYS: %w", err)
		}
		c.StaleCutoffDays = days
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case storage.DriverSQLite, storage.DriverJSON:
	case storage.DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return errors.New("store.database_url (or DATABASE_URL) is required for the postgres driver")
		}
	default:
		return fmt.Errorf("store.driver %q: must be one of sqlite, postgres, json", c.Store.Driver)
	}

	if c.Store.MaxConnections < 0 {
		return fmt.Errorf("store.max_connections must not be negative")
	}
	if c.StaleCutoffDays < 0 {
		return fmt.Errorf("stale_cutoff_days must not be negative")
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level %q: %w", c.Log.Level, err)
	}
	switch logger.Format(strings.ToLower(c.Log.Format)) {
	case logger.FormatJSON, logger.FormatText:
	default:
		return fmt.Errorf("log.format %q: must be json or text", c.Log.Format)
	}

	if err := checkTimeout("geocode.timeout", c.Geocode.Timeout); err != nil {
		return err
	}
	for name, sc := range c.Sources {
		if _, err := event.ParseSource(name); err != nil {
			return fmt.Errorf("sources: %w", err)
		}
		if sc.Timeout == 0 {
			continue
		}
		if err := checkTimeout("sources."+name+".timeout", sc.Timeout); err != nil {
			return err
		}
	}
	return nil
}

func checkTimeout(field string, d time.Duration) error {
	if d < minSourceTimeout || d > maxSourceTimeout {
		return fmt.Errorf("%s %s: must be between %s and %s", field, d, minSourceTimeout, maxSourceTimeout)
	}
	return nil
}

// Logger builds the logger described by c.Log, writing to w.
func (c Config) Logger(w io.Writer) *logger.Logger {
	level, _ := logger.ParseLevel(c.Log.Level)
	return logger.New(level, w, logger.Format(strings.ToLower(c.Log.Format)))
}

// EnabledSources returns the sources not disabled in the file, in canonical
// order.
func (c Config) EnabledSources() []event.Source {
	sources := make([]event.Source, 0, len(event.Sources))
	for _, s := range event.Sources {
		sc, ok := c.Sources[string(s)]
		if ok && sc.Enabled != nil && !*sc.Enabled {
			continue
		}
		sources = append(sources, s)
	}
	return sources
}

// ScraperOptions returns adapter options for source.
func (c Config) ScraperOptions(source event.Source, log *logger.Logger) scraper.Options {
	return scraper.Options{
		Timeout:     c.Sources[string(source)].Timeout,
		UserAgent:   c.UserAgent,
		StaleCutoff: time.Duration(c.StaleCutoffDays) * 24 * time.Hour,
		Logger:      log,
	}
}

// StoreOptions returns the storage options.
func (c Config) StoreOptions() storage.Options {
	return storage.Options{
		Driver:         c.Store.Driver,
		DataDir:        c.DataDir,
		DatabaseURL:    c.Store.DatabaseURL,
		MaxConnections: c.Store.MaxConnections,
	}
}
