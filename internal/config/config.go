package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/julianstephens/daylog/internal/constants"
)

// Environment variables consulted by Load.
const (
	EnvStore        = "DAYLOG_STORE"
	EnvAddr         = "DAYLOG_ADDR"
	EnvURL          = "DAYLOG_URL"
	EnvDBConnection = "DAYLOG_DB_CONNECTION"
)

// Config is the root configuration, stored in ~/.config/daylog/config.yaml.
type Config struct {
	// Store selects the log store: a SQLite path, postgres://, mongodb://,
	// memory: or "keyring".
	Store  string       `yaml:"store"`
	Debug  bool         `yaml:"debug"`
	Server ServerConfig `yaml:"server"`
	Client ClientConfig `yaml:"client"`
}

// ServerConfig holds settings for `daylog serve`.
type ServerConfig struct {
	Addr          string `yaml:"addr"`
	BasePath      string `yaml:"base_path"`
	AllowedOrigin string `yaml:"allowed_origin"`
	// Durations are Go duration strings, e.g. "10s".
	ReadTimeout  string `yaml:"read_timeout"`
	WriteTimeout string `yaml:"write_timeout"`
}

// ClientConfig holds settings for commands that talk to a running server.
type ClientConfig struct {
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"`
}

// Overrides carries flag values. Empty fields leave the loaded value alone.
type Overrides struct {
	Store string
	Addr  string
	URL   string
	Debug bool
}

// Default returns a Config pre-filled with built-in defaults.
func Default() Config {
	return Config{
		Store: constants.DefaultStorePath,
		Server: ServerConfig{
			Addr:          constants.DefaultAddr,
			BasePath:      constants.DefaultBasePath,
			AllowedOrigin: constants.DefaultAllowedOrigin,
			ReadTimeout:   constants.DefaultReadTimeout.String(),
			WriteTimeout:  constants.DefaultWriteTimeout.String(),
		},
		Client: ClientConfig{
			URL:     "http://" + constants.DefaultAddr,
			Timeout: constants.DefaultClientTimeout.String(),
		},
	}
}

// Dir returns the daylog configuration directory with ~ expanded.
func Dir() (string, error) {
	return ExpandHome(constants.DefaultConfigDir)
}

// FilePath returns the default config file path.
func FilePath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, constants.DefaultConfigFile), nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (a missing file is not an error), then environment variables.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if v, ok := lookup(EnvStore); ok && v != "" {
		cfg.Store = v
	}
	if v, ok := lookup(EnvAddr); ok && v != "" {
		cfg.Server.Addr = v
	}
	if v, ok := lookup(EnvURL); ok && v != "" {
		cfg.Client.URL = v
	}

	return cfg, cfg.Validate()
}

// Apply layers flag overrides on top of c.
func (c Config) Apply(o Overrides) Config {
	if o.Store != "" {
		c.Store = o.Store
	}
	if o.Addr != "" {
		c.Server.Addr = o.Addr
	}
	if o.URL != "" {
		c.Client.URL = o.URL
	}
	if o.Debug {
		c.Debug = true
	}
	return c
}

// Validate checks that the duration fields parse and the base path is rooted.
func (c Config) Validate() error {
	for name, v := range map[string]string{
		"server.read_timeout":  c.Server.ReadTimeout,
		"server.write_timeout": c.Server.WriteTimeout,
		"client.timeout":       c.Client.Timeout,
	} {
		if _, err := parseDuration(v); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, v, err)
		}
	}
	if !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("invalid server.base_path %q: must start with /", c.Server.BasePath)
	}
	return nil
}

func (s ServerConfig) ReadTimeoutDuration() time.Duration {
	return durationOr(s.ReadTimeout, constants.DefaultReadTimeout)
}

func (s ServerConfig) WriteTimeoutDuration() time.Duration {
	return durationOr(s.WriteTimeout, constants.DefaultWriteTimeout)
}

func (c ClientConfig) TimeoutDuration() time.Duration {
	return durationOr(c.Timeout, constants.DefaultClientTimeout)
}

// ResolveStore turns the configured store value into a concrete connection
// string or path. "keyring" reads the connection string from
// DAYLOG_DB_CONNECTION, then from the OS keyring via fromKeyring.
func (c Config) ResolveStore(fromKeyring func() (string, error)) (string, error) {
	return resolveStore(c.Store, os.LookupEnv, fromKeyring)
}

func resolveStore(store string, lookup func(string) (string, bool), fromKeyring func() (string, error)) (string, error) {
	if store != constants.KeyringStore {
		return ExpandHome(store)
	}
	if v, ok := lookup(EnvDBConnection); ok && v != "" {
		return v, nil
	}
	if fromKeyring == nil {
		return "", errors.New("no keyring available to resolve store")
	}
	connStr, err := fromKeyring()
	if err != nil {
		return "", fmt.Errorf("failed to read store connection string from keyring: %w", err)
	}
	return connStr, nil
}

// WriteTemplate writes the default configuration to path unless a file is
// already there. It reports whether a file was written.
func WriteTemplate(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return false, err
	}
	header := "# daylog configuration. Environment variables " +
		strings.Join([]string{EnvStore, EnvAddr, EnvURL, EnvDBConnection}, ", ") +
		" override these values.\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0600); err != nil {
		return false, fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return true, nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func durationOr(s string, fallback time.Duration) time.Duration {
	d, err := parseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
