// Package config loads the user configuration for skillaudit from
// ~/.skillaudit/config.yml, ~/.skillaudit/.env, and SKILLAUDIT_* environment
// variables. The working directory and the audited skill tree are never
// consulted.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/garagon/skillaudit/internal/rules"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override. Tags carry the full
// variable name so unprefixed variables such as NO_COLOR are never read.
const EnvPrefix = "SKILLAUDIT"

// DotenvFile is the name of the dotenv file read from the config directory.
const DotenvFile = ".env"

// maxConfigSize caps the config file (1 MB).
const maxConfigSize = 1 << 20

// CategoryOverride changes a category's base severity or disables it.
type CategoryOverride struct {
	Severity string `yaml:"severity,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// Config is the merged user configuration.
type Config struct {
	Catalog            string                      `yaml:"catalog,omitempty" envconfig:"SKILLAUDIT_CATALOG"`
	Format             string                      `yaml:"format,omitempty" envconfig:"SKILLAUDIT_FORMAT"`
	FetchBinary        string                      `yaml:"fetch_binary,omitempty" envconfig:"SKILLAUDIT_FETCH_BINARY"`
	HistoryDB          string                      `yaml:"history_db,omitempty" envconfig:"SKILLAUDIT_HISTORY_DB"`
	StatePath          string                      `yaml:"state_path,omitempty" envconfig:"SKILLAUDIT_STATE_PATH"`
	LogLevel           string                      `yaml:"log_level,omitempty" envconfig:"SKILLAUDIT_LOG_LEVEL"`
	NoColor            bool                        `yaml:"no_color,omitempty" envconfig:"SKILLAUDIT_NO_COLOR"`
	Rules              string                      `yaml:"rules,omitempty" envconfig:"SKILLAUDIT_RULES"`
	DisabledCategories []string                    `yaml:"disabled_categories,omitempty" envconfig:"SKILLAUDIT_DISABLED_CATEGORIES"`
	CategoryOverrides  map[string]CategoryOverride `yaml:"category_overrides,omitempty" ignored:"true"`
}

// Dir returns the per-user configuration directory, ~/.skillaudit.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, ".skillaudit"), nil
}

// Defaults returns the built-in settings rooted at dir.
func Defaults(dir string) Config {
	return Config{
		Format:      "human",
		FetchBinary: "clawhub",
		HistoryDB:   filepath.Join(dir, "history.db"),
		StatePath:   filepath.Join(dir, "state.json"),
		LogLevel:    "warn",
	}
}

// LoadFile parses a config file. A missing file yields a zero Config and
// an error satisfying errors.Is(err, os.ErrNotExist).
func LoadFile(path string) (Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if info.IsDir() {
		return Config{}, fmt.Errorf("reading %s: is a directory", path)
	}
	if info.Size() > maxConfigSize {
		return Config{}, fmt.Errorf("config file too large: %s (%d bytes, max 1 MB)", path, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Load builds the effective configuration: built-in defaults, then the
// config file, then the environment (after loading .env from the config
// directory). An empty path means ~/.skillaudit/config.yml, which may be
// absent; an explicit path must exist.
func Load(path string) (Config, error) {
	dir, err := Dir()
	if err != nil {
		dir = ".skillaudit"
	}
	cfg := Defaults(dir)

	explicit := path != ""
	if !explicit {
		path = filepath.Join(dir, "config.yml")
	}
	file, err := LoadFile(path)
	switch {
	case err == nil:
		cfg.merge(file)
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, err
	}

	if err := ApplyEnv(&cfg, filepath.Join(dir, DotenvFile)); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv loads the given dotenv files (missing ones are ignored) and
// then applies SKILLAUDIT_* variables on top of cfg. Variables already set
// in the process environment win over dotenv values.
func ApplyEnv(cfg *Config, dotenvFiles ...string) error {
	for _, f := range dotenvFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("reading %s_* environment: %w", EnvPrefix, err)
	}
	return nil
}

// Overrides returns the category overrides in the form the rule compiler
// consumes, folding DisabledCategories in as disabled entries.
func (c Config) Overrides() map[string]rules.Override {
	out := make(map[string]rules.Override, len(c.CategoryOverrides)+len(c.DisabledCategories))
	for id, o := range c.CategoryOverrides {
		out[id] = rules.Override{Severity: o.Severity, Disabled: o.Disabled}
	}
	for _, id := range c.DisabledCategories {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		o := out[id]
		o.Disabled = true
		out[id] = o
	}
	return out
}

func (c *Config) merge(f Config) {
	if f.Catalog != "" {
		c.Catalog = f.Catalog
	}
	if f.Format != "" {
		c.Format = f.Format
	}
	if f.FetchBinary != "" {
		c.FetchBinary = f.FetchBinary
	}
	if f.HistoryDB != "" {
		c.HistoryDB = f.HistoryDB
	}
	if f.StatePath != "" {
		c.StatePath = f.StatePath
	}
	if f.LogLevel != "" {
		c.LogLevel = f.LogLevel
	}
	if f.NoColor {
		c.NoColor = true
	}
	if f.Rules != "" {
		c.Rules = f.Rules
	}
	c.DisabledCategories = append(c.DisabledCategories, f.DisabledCategories...)
	if len(f.CategoryOverrides) > 0 {
		c.CategoryOverrides = f.CategoryOverrides
	}
}

// Template is the commented config written by `skillaudit init`.
const Template = `# skillaudit configuration
# Environment variables (SKILLAUDIT_CATALOG, SKILLAUDIT_LOG_LEVEL, ...)
# override these values; command-line flags override both.

# Extra indicator catalog (JSON or YAML)
# catalog: ~/.skillaudit/ioc-database.json

# Default output: human, json, sarif, markdown
format: human

# Binary used by --slug to fetch a published skill
fetch_binary: clawhub

# Audit history database and drift-monitor state
# history_db: ~/.skillaudit/history.db
# state_path: ~/.skillaudit/state.json

# debug, info, warn, error
log_level: warn

# no_color: true

# Directory of additional category YAML files
# rules: ~/.skillaudit/rules

# disabled_categories:
#   - crypto_wallet

# category_overrides:
#   env_access:
#     severity: LOW
#   dynamic_imports:
#     disabled: true
`
