// ABOUTME: Location configuration management with backend selection
// ABOUTME: Merges the XDG config file, .env, and environment, then builds the store

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/harper/location/internal/influx"
	"github.com/harper/location/internal/localstore"
	"github.com/harper/location/internal/position"
	"github.com/harper/location/internal/tsdb"
)

// Backend names.
const (
	BackendInflux = "influxdb"
	BackendLocal  = "local"
)

// DefaultInfluxURL is used when neither the file nor the environment set one.
const DefaultInfluxURL = "localhost:8086"

// Config stores location configuration.
type Config struct {
	// Backend selects the store: "influxdb" (default) or "local".
	Backend string `json:"backend,omitempty"`

	// InfluxURL is the InfluxDB address. A bare host:port is accepted.
	InfluxURL string `json:"influx_url,omitempty"`

	Bucket string `json:"bucket,omitempty"`
	Org    string `json:"org,omitempty"`

	// DataDir is where the local backend keeps its database.
	// Supports ~ expansion. Defaults to ~/.local/share/location.
	DataDir string `json:"data_dir,omitempty"`

	LogLevel string `json:"log_level,omitempty"`

	// Token authenticates against InfluxDB. It only ever comes from the
	// environment and is never saved.
	Token string `json:"-"`
}

// envOverrides mirrors the settings that may come from the environment.
type envOverrides struct {
	InfluxURL string `env:"INFLUXDB_URL"`
	Token     string `env:"INFLUXDB_TOKEN"`
	Bucket    string `env:"INFLUXDB_BUCKET"`
	Org       string `env:"INFLUXDB_ORG"`
	Backend   string `env:"LOCATION_BACKEND"`
	DataDir   string `env:"LOCATION_DATA_DIR"`
	LogLevel  string `env:"LOCATION_LOG_LEVEL"`
}

// GetBackend returns the configured backend, defaulting to influxdb.
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return BackendInflux
	}
	return strings.ToLower(c.Backend)
}

// GetInfluxURL returns the configured InfluxDB address or the default.
func (c *Config) GetInfluxURL() string {
	if c.InfluxURL == "" {
		return DefaultInfluxURL
	}
	return c.InfluxURL
}

// GetBucket returns the configured bucket or the default.
func (c *Config) GetBucket() string {
	if c.Bucket == "" {
		return position.DefaultBucket
	}
	return c.Bucket
}

// GetOrg returns the configured organization or the default.
func (c *Config) GetOrg() string {
	if c.Org == "" {
		return position.DefaultOrg
	}
	return c.Org
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return defaultDataDir()
	}
	return ExpandPath(c.DataDir)
}

// defaultDataDir returns the default XDG data directory for location.
func defaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "location")
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks that the selected backend has what it needs to start.
func (c *Config) Validate() error {
	switch c.GetBackend() {
	case BackendInflux:
		if strings.TrimSpace(c.Token) == "" {
			return errors.New("INFLUXDB_TOKEN is required for the influxdb backend")
		}
	case BackendLocal:
	default:
		return fmt.Errorf("unknown backend: %q", c.Backend)
	}
	if strings.TrimSpace(c.GetBucket()) == "" || strings.TrimSpace(c.GetOrg()) == "" {
		return errors.New("bucket and org must not be empty")
	}
	return nil
}

// OpenStore creates the unconnected store for the configured backend.
func (c *Config) OpenStore(logger *log.Logger) (tsdb.Store, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch c.GetBackend() {
	case BackendInflux:
		return influx.NewClient(influx.Settings{URL: c.GetInfluxURL(), Token: c.Token}, logger), nil
	default:
		return localstore.New(c.GetDataDir(), localstore.WithLogger(logger)), nil
	}
}

// OpenRepository wraps store in a position repository using the configured
// bucket and org.
func (c *Config) OpenRepository(store tsdb.Store) (*position.Repository, error) {
	return position.NewRepository(store,
		position.WithBucket(c.GetBucket()),
		position.WithOrg(c.GetOrg()),
	)
}

// ApplyEnv overlays environment settings on c. Unset variables leave the
// file values alone.
func (c *Config) ApplyEnv() error {
	var e envOverrides
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	overlay := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	overlay(&c.InfluxURL, e.InfluxURL)
	overlay(&c.Token, e.Token)
	overlay(&c.Bucket, e.Bucket)
	overlay(&c.Org, e.Org)
	overlay(&c.Backend, e.Backend)
	overlay(&c.DataDir, e.DataDir)
	overlay(&c.LogLevel, e.LogLevel)
	return nil
}

// LoadDotEnv loads variables from the named files (".env" when none are
// given) without overriding the real environment. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "location", "config.json")
}

// Load reads config from disk and applies .env and environment overrides.
// A missing file yields defaults; it is not created.
func Load() (*Config, error) {
	cfg, err := LoadFile(GetConfigPath())
	if err != nil {
		return nil, err
	}
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a config file without consulting the environment.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is the user's own config file
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes config to disk. The token is never written.
func (c *Config) Save() error {
	path := GetConfigPath()
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(path, data)
}

// atomicWrite writes data to a temp file beside path and renames it into place.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
