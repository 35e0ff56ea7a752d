package config

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/docportal/repocli/internal/atomicfile"
)

type persistedConfig struct {
	SystemName    *string                    `toml:"system_name,omitempty"`
	Project       *string                    `toml:"project,omitempty"`
	StorePath     *string                    `toml:"store_path,omitempty"`
	FailurePolicy *string                    `toml:"failure_policy,omitempty"`
	RecoveryFile  *string                    `toml:"recovery_file,omitempty"`
	FailedFile    *string                    `toml:"failed_file,omitempty"`
	LogLevel      *string                    `toml:"log_level,omitempty"`
	HistoryFile   *string                    `toml:"history_file,omitempty"`
	UI            *persistedUISettings       `toml:"ui,omitempty"`
	Providers     *persistedProviderSettings `toml:"providers,omitempty"`
	Properties    map[string]string          `toml:"properties,omitempty"`
}

type persistedUISettings struct {
	Accent *string `toml:"accent,omitempty"`
}

type persistedProviderSettings struct {
	Internal *string `toml:"internal,omitempty"`
	External *string `toml:"external,omitempty"`
}

func nonEmptyPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// SaveTo writes the config to a specific path atomically. Comments of an
// existing file are not preserved.
func SaveTo(path string, cfg *Config) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config path is required")
	}
	if cfg == nil {
		cfg = &Config{}
	}

	out := persistedConfig{
		SystemName:    nonEmptyPtr(cfg.SystemName),
		Project:       nonEmptyPtr(cfg.Project),
		StorePath:     nonEmptyPtr(cfg.StorePath),
		FailurePolicy: nonEmptyPtr(cfg.FailurePolicy),
		RecoveryFile:  nonEmptyPtr(cfg.RecoveryFile),
		FailedFile:    nonEmptyPtr(cfg.FailedFile),
		LogLevel:      nonEmptyPtr(cfg.LogLevel),
		HistoryFile:   nonEmptyPtr(cfg.HistoryFile),
	}
	if len(cfg.Properties) > 0 {
		out.Properties = cfg.Properties
	}
	if accent := nonEmptyPtr(cfg.UI.Accent); accent != nil {
		out.UI = &persistedUISettings{Accent: accent}
	}
	internal := nonEmptyPtr(cfg.Providers.Internal)
	external := nonEmptyPtr(cfg.Providers.External)
	if internal != nil || external != nil {
		out.Providers = &persistedProviderSettings{Internal: internal, External: external}
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(out); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := atomicfile.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}

	return nil
}

// settable maps the scalar keys accepted by Set onto their fields.
func (c *Config) settable() map[string]*string {
	return map[string]*string{
		"system_name":        &c.SystemName,
		"project":            &c.Project,
		"store_path":         &c.StorePath,
		"failure_policy":     &c.FailurePolicy,
		"recovery_file":      &c.RecoveryFile,
		"failed_file":        &c.FailedFile,
		"log_level":          &c.LogLevel,
		"history_file":       &c.HistoryFile,
		"ui.accent":          &c.UI.Accent,
		"providers.internal": &c.Providers.Internal,
		"providers.external": &c.Providers.External,
	}
}

// SettableKeys lists the keys accepted by Set.
func SettableKeys() []string {
	keys := make([]string, 0)
	for k := range (&Config{}).settable() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set assigns one key. Keys of the form "properties.<name>" set an
// expansion property. The result is validated.
func (c *Config) Set(key, value string) error {
	key = strings.TrimSpace(key)
	if name, ok := strings.CutPrefix(key, "properties."); ok && name != "" {
		if c.Properties == nil {
			c.Properties = make(map[string]string)
		}
		c.Properties[name] = value
		return nil
	}
	field, ok := c.settable()[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (known: %s, properties.<name>)", key, strings.Join(SettableKeys(), ", "))
	}
	prev := *field
	*field = value
	if err := c.Validate(); err != nil {
		*field = prev
		return err
	}
	return nil
}
