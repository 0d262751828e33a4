// Package config loads the demo CLI's optional preferences file,
// ~/.watchfs.yaml, in the style of obsidian-cli's CLI preferences file:
// a small YAML document with sensible zero values if it's missing.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/watchfs/watchfs/pkg/logging"
)

// Config is the on-disk shape of ~/.watchfs.yaml.
type Config struct {
	// LogLevel names a logging.Level ("disabled", "error", "warn", "info",
	// "debug", "trace"). Empty means "use the default".
	LogLevel string `yaml:"logLevel"`
	// Include lists glob-style name patterns that should be watched. An
	// empty list means "everything".
	Include []string `yaml:"include"`
	// Exclude lists glob-style name patterns that should never be watched;
	// a name matching Exclude is rejected even if it matches Include.
	Exclude []string `yaml:"exclude"`
}

// Path returns the default location of the preferences file,
// $HOME/.watchfs.yaml.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "config: unable to determine home directory")
	}
	return filepath.Join(home, ".watchfs.yaml"), nil
}

// Load reads and parses the preferences file at Path. A missing file is not
// an error: it yields a zero-value Config, matching the CLI's documented
// "no preferences file" default behavior.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, errors.Wrapf(err, "config: unable to read %s", path)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "config: unable to parse %s", path)
	}
	return cfg, nil
}

// Level parses the configured log level name, falling back to
// logging.LevelInfo if LogLevel is empty or unrecognized.
func (c *Config) Level() logging.Level {
	if c == nil || c.LogLevel == "" {
		return logging.LevelInfo
	}
	level, ok := logging.NameToLevel(c.LogLevel)
	if !ok {
		return logging.LevelInfo
	}
	return level
}

// Filter builds an entry filter predicate from Include/Exclude: a name
// passes if (Include is empty or the name matches a pattern in it) and the
// name does not match any pattern in Exclude. Matching uses
// filepath.Match against the base name only, not the full path.
func (c *Config) Filter() func(name, parentPath string) bool {
	include := append([]string(nil), c.Include...)
	exclude := append([]string(nil), c.Exclude...)
	return func(name, parentPath string) bool {
		if matchesAny(exclude, name) {
			return false
		}
		if len(include) == 0 {
			return true
		}
		return matchesAny(include, name)
	}
}

func matchesAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, err := filepath.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}
