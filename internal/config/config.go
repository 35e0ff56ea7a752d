// Package config handles the repocli configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the repocli configuration.
type Config struct {
	// SystemName is shown in the interactive prompt.
	SystemName string `toml:"system_name"`

	// Project is the ID prefix used when new object IDs are generated.
	Project string `toml:"project"`

	// StorePath is the repository database. Relative paths resolve against
	// the config file directory.
	StorePath string `toml:"store_path"`

	// FailurePolicy is "cancel" or "skip".
	FailurePolicy string `toml:"failure_policy"`

	RecoveryFile string `toml:"recovery_file"`
	FailedFile   string `toml:"failed_file"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// HistoryFile keeps the interactive prompt history.
	HistoryFile string `toml:"history_file"`

	UI        UIConfig        `toml:"ui"`
	Providers ProvidersConfig `toml:"providers"`

	// Properties seed the ${name} expansion table.
	Properties map[string]string `toml:"properties"`

	// path is the file the config was loaded from, if any.
	path string
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an optional accent color for CLI output and markdown rendering.
	// Supported values are ANSI color codes ("0" to "255") or hex colors ("#RRGGBB").
	Accent string `toml:"accent"`
}

// ProvidersConfig lists the command providers to load. Both values are
// comma or semicolon separated lists of provider names.
type ProvidersConfig struct {
	Internal string `toml:"internal"`
	External string `toml:"external"`
}

// Defaults used when the corresponding key is unset.
const (
	DefaultSystemName   = "repocli"
	DefaultStoreFile    = "repository.db"
	DefaultRecoveryFile = "unprocessed-commands.txt"
	DefaultFailedFile   = "failed-commands.txt"
	DefaultLogLevel     = "warn"
)

// Path returns the file the config was loaded from, or "" for defaults.
func (c *Config) Path() string { return c.path }

// InternalProviders returns the internal provider list in order.
func (c *Config) InternalProviders() []string { return SplitList(c.Providers.Internal) }

// ExternalProviders returns the external provider list in order.
func (c *Config) ExternalProviders() []string { return SplitList(c.Providers.External) }

// SplitList splits a comma or semicolon separated list, dropping blanks.
func SplitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// GetSystemName returns the prompt name, falling back to DefaultSystemName.
func (c *Config) GetSystemName() string {
	return valueOr(c.SystemName, DefaultSystemName)
}

// GetLogLevel returns the configured log level or DefaultLogLevel.
func (c *Config) GetLogLevel() string {
	return valueOr(c.LogLevel, DefaultLogLevel)
}

// GetStorePath returns the resolved repository database path.
func (c *Config) GetStorePath() string {
	return c.Resolve(valueOr(c.StorePath, DefaultStoreFile))
}

// GetRecoveryFile returns the resolved recovery file path.
func (c *Config) GetRecoveryFile() string {
	return c.Resolve(valueOr(c.RecoveryFile, DefaultRecoveryFile))
}

// GetFailedFile returns the resolved failed-commands file path.
func (c *Config) GetFailedFile() string {
	return c.Resolve(valueOr(c.FailedFile, DefaultFailedFile))
}

// GetHistoryFile returns the resolved history file, or "" when history is off.
func (c *Config) GetHistoryFile() string {
	if strings.TrimSpace(c.HistoryFile) == "" {
		return ""
	}
	return c.Resolve(c.HistoryFile)
}

// Resolve makes p absolute relative to the config file directory. Without
// a config file, p is left relative to the working directory. A leading ~
// expands to the home directory.
func (c *Config) Resolve(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[1:])
		}
	}
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) || c.path == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(filepath.Dir(c.path), p)
}

func valueOr(v, fallback string) string {
	if v = strings.TrimSpace(v); v == "" {
		return fallback
	}
	return v
}

// Validate checks values that have a closed set of options.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.FailurePolicy)) {
	case "", "cancel", "skip":
	default:
		return fmt.Errorf("failure_policy must be cancel or skip, got %q", c.FailurePolicy)
	}
	switch strings.ToLower(c.GetLogLevel()) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return nil
}

// Load loads the configuration from the default location.
// Returns a default config if the file doesn't exist.
func Load() (*Config, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &Config{}, nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	var config Config
	md, err := toml.DecodeFile(path, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q in config %s", undecoded[0].String(), path)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	config.path = path
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &config, nil
}

// ResolveConfigPath resolves the effective config path from an optional override.
func ResolveConfigPath(explicitConfigPath string) string {
	if strings.TrimSpace(explicitConfigPath) != "" {
		return explicitConfigPath
	}
	return DefaultPath()
}

// LoadResolved loads the config at explicitPath. Without an explicit path the
// default location is used and a missing file yields the defaults; an
// explicit path must exist.
func LoadResolved(explicitPath string) (*Config, error) {
	if strings.TrimSpace(explicitPath) == "" {
		return Load()
	}
	return LoadFrom(explicitPath)
}

// DefaultPath returns the default config file path.
// Checks ~/.config/repocli/config.toml first (XDG style),
// then falls back to OS-specific location.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "repocli", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "repocli", "config.toml")
	}

	return filepath.Join(".", "config.toml")
}

const defaultConfig = `# repocli configuration

# Name shown in the interactive prompt
# system_name = "repocli"

# Project prefix for generated object IDs (<project>_<type>_<number>)
# project = "DocPortal"

# Repository database; relative paths resolve against this file's directory
# store_path = "repository.db"

# What happens when a command fails:
#   cancel - save the failing command and the rest of the queue, then stop
#   skip   - record the failing command and continue
# failure_policy = "cancel"

# recovery_file = "unprocessed-commands.txt"
# failed_file = "failed-commands.txt"

# log_level = "warn"
# history_file = "history"

# [ui]
# accent = "39"

# Command providers, comma or semicolon separated, loaded in order
# [providers]
# internal = "repocli.providers.ObjectCommands; repocli.providers.LinkCommands"
# external = ""

# Values for ${name} expansion in commands
# [properties]
# export_dir = "/var/exports"
`

// CreateDefault creates a default config file at path (DefaultPath when
// empty) if it doesn't exist, and returns the path.
func CreateDefault(path string) (string, error) {
	configPath := ResolveConfigPath(path)

	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return configPath, nil
}
