// Package config loads .subtree/config.json, the per-repository defaults
// for split/merge/pull/push runs: the ambient defaults (log level,
// telemetry opt-in) plus per-prefix remembered options so a recurring
// `subtree split --prefix vendor/lib` doesn't need every flag respelled
// each time.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/subtreecli/subtree/cmd/subtree/cli/paths"
)

// PrefixDefaults holds remembered flags for one subdirectory, keyed by its
// prefix in the top-level Config.Prefixes map.
type PrefixDefaults struct {
	// Remote is the default remote repository URL for pull/push against
	// this prefix, when one was previously recorded with --remote.
	Remote string `json:"remote,omitempty"`
	// Branch is the default remote branch for pull/push against this prefix.
	Branch string `json:"branch,omitempty"`
	// Squash defaults --squash for this prefix's pull/split runs.
	Squash bool `json:"squash,omitempty"`
	// IgnoreJoins defaults --ignore-joins for this prefix's split runs.
	IgnoreJoins bool `json:"ignore_joins,omitempty"`
}

// Config represents .subtree/config.json merged with any
// .subtree/config.local.json override.
type Config struct {
	// LogLevel sets the logging verbosity (debug, info, warn, error).
	// Can be overridden by SUBTREE_LOG_LEVEL. Defaults to "info".
	LogLevel string `json:"log_level,omitempty"`

	// Telemetry controls anonymous usage analytics.
	// nil = not asked yet (show prompt), true = opted in, false = opted out.
	Telemetry *bool `json:"telemetry,omitempty"`

	// SecretScan controls whether push runs the pre-push secret scan.
	// Defaults to true.
	SecretScan *bool `json:"secret_scan,omitempty"`

	// Prefixes maps a subdirectory prefix to its remembered defaults.
	Prefixes map[string]PrefixDefaults `json:"prefixes,omitempty"`
}

// Load reads .subtree/config.json relative to the repository root, then
// applies any overrides from .subtree/config.local.json. Neither file
// existing is not an error: it yields the zero-value defaults.
func Load() (*Config, error) {
	cfg, err := loadFromFile(configPath(paths.SubtreeConfigFile))
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	localData, err := os.ReadFile(configPath(paths.SubtreeConfigLocalFile)) //nolint:gosec // path is from AbsPath or a fixed constant
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading local config file: %w", err)
		}
	} else if err := mergeJSON(cfg, localData); err != nil {
		return nil, fmt.Errorf("merging local config: %w", err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

func configPath(rel string) string {
	abs, err := paths.AbsPath(rel)
	if err != nil {
		return rel
	}
	return abs
}

func loadFromFile(filePath string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(filePath) //nolint:gosec // path is from configPath
	if err != nil {
		if os.IsNotExist(err) {
			applyDefaults(cfg)
			return cfg, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

// mergeJSON applies every field present in data onto cfg, leaving fields
// absent from data untouched.
func mergeJSON(cfg *Config, data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}

	if logLevelRaw, ok := raw["log_level"]; ok {
		var ll string
		if err := json.Unmarshal(logLevelRaw, &ll); err != nil {
			return fmt.Errorf("parsing log_level field: %w", err)
		}
		if ll != "" {
			cfg.LogLevel = ll
		}
	}

	if telemetryRaw, ok := raw["telemetry"]; ok {
		var t bool
		if err := json.Unmarshal(telemetryRaw, &t); err != nil {
			return fmt.Errorf("parsing telemetry field: %w", err)
		}
		cfg.Telemetry = &t
	}

	if secretScanRaw, ok := raw["secret_scan"]; ok {
		var s bool
		if err := json.Unmarshal(secretScanRaw, &s); err != nil {
			return fmt.Errorf("parsing secret_scan field: %w", err)
		}
		cfg.SecretScan = &s
	}

	if prefixesRaw, ok := raw["prefixes"]; ok {
		var prefixes map[string]PrefixDefaults
		if err := json.Unmarshal(prefixesRaw, &prefixes); err != nil {
			return fmt.Errorf("parsing prefixes field: %w", err)
		}
		if cfg.Prefixes == nil {
			cfg.Prefixes = prefixes
		} else {
			for k, v := range prefixes {
				cfg.Prefixes[k] = v
			}
		}
	}

	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.SecretScan == nil {
		enabled := true
		cfg.SecretScan = &enabled
	}
}

// Save writes cfg to .subtree/config.json, creating the .subtree directory
// if necessary.
func Save(cfg *Config) error {
	if _, err := paths.EnsureSubtreeDir(); err != nil {
		return err
	}
	path := configPath(paths.SubtreeConfigFile)
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// PrefixDefaultsFor returns the remembered defaults for prefix, or the
// zero value if none were recorded.
func (c *Config) PrefixDefaultsFor(prefix string) PrefixDefaults {
	if c.Prefixes == nil {
		return PrefixDefaults{}
	}
	return c.Prefixes[prefix]
}

// RememberPrefixDefaults stores d as the remembered defaults for prefix.
func (c *Config) RememberPrefixDefaults(prefix string, d PrefixDefaults) {
	if c.Prefixes == nil {
		c.Prefixes = make(map[string]PrefixDefaults)
	}
	c.Prefixes[prefix] = d
}
