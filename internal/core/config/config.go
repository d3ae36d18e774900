// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gitshlc/gitshlc/internal/core/request"
	"gopkg.in/yaml.v3"
)

// Constants for default paths
const (
	DefaultConfigDir      = ".gitshlc"
	DefaultConfigFileName = "config.yaml"
)

// Config holds the global application configuration. It provides
// defaults for request fields that are commonly the same across runs:
// tool path hints, the default branch name, and named ssh presets.
type Config struct {
	// Tool path hints. Empty means resolve from PATH.
	GitPath string `yaml:"git_path"`
	SSHPath string `yaml:"ssh_path"`

	// DefaultBranch is used when a request leaves the branch empty.
	DefaultBranch string `yaml:"default_branch"`

	// Output format for outcome documents: json (default) or yaml.
	Output string `yaml:"output"`

	// LogLevel controls stderr logging: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// SSHPresets are named connection profiles that a request can
	// reference instead of spelling out host/user/port/key.
	SSHPresets map[string]request.SSHConfig `yaml:"ssh_presets"`
}

// NewDefaultConfig creates a default configuration
func NewDefaultConfig() *Config {
	return &Config{
		DefaultBranch: "main",
		Output:        "json",
		LogLevel:      "info",
		SSHPresets:    map[string]request.SSHConfig{},
	}
}

// ExpandPathWithTilde expands ~ to user home directory.
// It respects the GITSHLC_HOME environment variable for testing purposes.
func ExpandPathWithTilde(path string) string {
	if path == "~" {
		home := getHomeDir()
		if home == "" {
			return path // Return original if can't expand
		}
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home := getHomeDir()
		if home == "" {
			return path // Return original if can't expand
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// getHomeDir returns the home directory, respecting GITSHLC_HOME for testing
func getHomeDir() string {
	if override := os.Getenv("GITSHLC_HOME"); override != "" {
		return override
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "" // Return empty if can't determine
	}
	return home
}

// GlobalConfigFilePath returns the absolute path to the global config file.
// It respects the GITSHLC_HOME environment variable for testing purposes.
func GlobalConfigFilePath() (string, error) {
	var home string

	if override := os.Getenv("GITSHLC_HOME"); override != "" {
		home = override
	} else {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not get user home directory: %w", err)
		}
	}

	return filepath.Join(home, DefaultConfigDir, DefaultConfigFileName), nil
}

// LoadConfig loads the application configuration.
// It starts with default settings, then merges settings from the global
// configuration file. The globalConfigPathOverride parameter allows
// specifying a custom path for the global config file, primarily for
// testing. If empty, the default path (~/.gitshlc/config.yaml) is used.
// A missing global config file is not an error.
func LoadConfig(globalConfigPathOverride string) (*Config, error) {
	config := NewDefaultConfig()

	var globalConfigPath string
	var err error
	if globalConfigPathOverride != "" {
		globalConfigPath = ExpandPathWithTilde(globalConfigPathOverride)
	} else {
		globalConfigPath, err = GlobalConfigFilePath()
		if err != nil {
			// Non-fatal, the tool works without a global config.
			fmt.Fprintf(os.Stderr, "Warning: could not determine global config path: %v\n", err)
			globalConfigPath = ""
		}
	}

	globalConfig, err := LoadConfigFile(globalConfigPath)
	if err == nil {
		mergeConfigs(config, globalConfig)
	} else if !os.IsNotExist(err) && globalConfigPath != "" {
		// Only warn when the file exists but could not be parsed.
		fmt.Fprintf(os.Stderr, "Warning: could not load global config file '%s': %v\n", globalConfigPath, err)
	}

	return config, nil
}

// LoadConfigFile loads a configuration from a specific file path
func LoadConfigFile(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config file path cannot be empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return config, nil
}

// mergeConfigs merges source config into target config.
// Only non-zero values from source override target.
func mergeConfigs(target, source *Config) {
	if source.GitPath != "" {
		target.GitPath = ExpandPathWithTilde(source.GitPath)
	}
	if source.SSHPath != "" {
		target.SSHPath = ExpandPathWithTilde(source.SSHPath)
	}
	if source.DefaultBranch != "" {
		target.DefaultBranch = source.DefaultBranch
	}
	if source.Output != "" {
		target.Output = source.Output
	}
	if source.LogLevel != "" {
		target.LogLevel = source.LogLevel
	}
	for name, preset := range source.SSHPresets {
		if preset.KeyPath != "" {
			preset.KeyPath = ExpandPathWithTilde(preset.KeyPath)
		}
		target.SSHPresets[name] = preset
	}
}

// ApplyDefaults fills empty request fields from the configuration.
// Explicit request values always win over configured defaults.
func (c *Config) ApplyDefaults(req *request.RunActionRequest) {
	if req.GitPath == "" {
		req.GitPath = c.GitPath
	}
	if req.SSHPath == "" {
		req.SSHPath = c.SSHPath
	}
	if req.Branch == "" {
		req.Branch = c.DefaultBranch
	}
}

// ResolvePreset returns the named ssh preset, or an error if it does not exist.
func (c *Config) ResolvePreset(name string) (request.SSHConfig, error) {
	preset, ok := c.SSHPresets[name]
	if !ok {
		return request.SSHConfig{}, fmt.Errorf("unknown ssh preset %q", name)
	}
	return preset, nil
}

// SaveGlobalConfig saves the provided configuration to the user's global config path.
func SaveGlobalConfig(config *Config) error {
	globalPath, err := GlobalConfigFilePath()
	if err != nil {
		return fmt.Errorf("could not determine global config path for saving: %w", err)
	}

	globalDir := filepath.Dir(globalPath)
	if err := os.MkdirAll(globalDir, 0755); err != nil {
		return fmt.Errorf("error creating global config directory '%s': %w", globalDir, err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("error marshaling global config: %w", err)
	}

	if err := os.WriteFile(globalPath, data, 0644); err != nil {
		return fmt.Errorf("error writing global config file '%s': %w", globalPath, err)
	}

	return nil
}
