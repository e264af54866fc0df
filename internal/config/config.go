// Package config loads the apiplay YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable that points at a config file
const EnvVar = "APIPLAY_CONFIG"

const (
	localConfigPath   = ".apiplay.yaml"
	defaultConfigPath = "~/.apiplay/config.yaml"
)

// Config is the apiplay configuration
type Config struct {
	GraceDelay time.Duration `yaml:"grace_delay"`
	NoColor    bool          `yaml:"no_color"`
	Log        LogConfig     `yaml:"log"`
	Mock       MockConfig    `yaml:"mock"`
}

// LogConfig controls the logger built by the commands
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// File receives log output; empty means stderr for one-shot commands and
	// nowhere for the TUI.
	File string `yaml:"file,omitempty"`
}

// MockConfig controls the in-process mock API
type MockConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Store      string  `yaml:"store"`
	DelayScale float64 `yaml:"delay_scale"`
	Addr       string  `yaml:"addr"`
	SeedFile   string  `yaml:"seed_file,omitempty"`
}

// DefaultConfig is the default configuration.
func DefaultConfig() *Config {
	return &Config{
		GraceDelay: 200 * time.Millisecond,
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Mock: MockConfig{
			Store:      "memory",
			DelayScale: 1,
			Addr:       ":3000",
		},
	}
}

// ReadConfig reads and parses configuration on top of the defaults. Unknown
// keys are rejected.
func ReadConfig(r io.Reader) (*Config, error) {
	c := DefaultConfig()
	d := yaml.NewDecoder(r)
	d.KnownFields(true)
	if err := d.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return c, nil
}

// Resolve returns the config file to load: explicit, then $APIPLAY_CONFIG,
// then ./.apiplay.yaml, then ~/.apiplay/config.yaml. The empty string means
// none exists and defaults apply.
func Resolve(explicit string) (string, error) {
	if explicit != "" {
		return expandPath(explicit)
	}
	if env := os.Getenv(EnvVar); env != "" {
		return expandPath(env)
	}

	for _, candidate := range []string{localConfigPath, defaultConfigPath} {
		path, err := expandPath(candidate)
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

// Load resolves, reads and validates the configuration. It returns the path
// it was read from, or "" when defaults were used.
func Load(explicit string) (*Config, string, error) {
	path, err := Resolve(explicit)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		return DefaultConfig(), "", nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, path, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	c, err := ReadConfig(f)
	if err != nil {
		return nil, path, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return c, path, nil
}

// Validate checks value ranges and enumerations
func (c *Config) Validate() error {
	var errs []error
	if c.GraceDelay < 0 {
		errs = append(errs, fmt.Errorf("grace_delay must not be negative"))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of text, json", c.Log.Format))
	}
	switch c.Mock.Store {
	case "memory", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("mock.store %q is not one of memory, sqlite", c.Mock.Store))
	}
	if c.Mock.DelayScale < 0 {
		errs = append(errs, fmt.Errorf("mock.delay_scale must not be negative"))
	}
	return errors.Join(errs...)
}

// Write encodes c as YAML
func (c *Config) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}

func expandPath(p string) (string, error) {
	if len(p) > 0 && p[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, p[1:]), nil
	}
	return p, nil
}
