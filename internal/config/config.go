// Package config handles configuration loading and validation.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/zeroentropy-ai/mcp-rerank/pkg/types"
)

// Config represents the complete configuration. The server runs with
// defaults when no config file exists. Nothing here ever holds an API
// key; the credential arrives on each tool call.
type Config struct {
	Reranker RerankerConfig `mapstructure:"reranker" yaml:"reranker"`
	Plugins  PluginsConfig  `mapstructure:"plugins" yaml:"plugins"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// RerankerConfig contains reranker provider configuration.
type RerankerConfig struct {
	Provider     string `mapstructure:"provider" yaml:"provider"`           // zeroentropy, openai, none, plugin:<name>
	Model        string `mapstructure:"model" yaml:"model"`                 // model name, for providers that take one
	Endpoint     string `mapstructure:"endpoint" yaml:"endpoint"`           // API endpoint override
	Timeout      string `mapstructure:"timeout" yaml:"timeout"`             // HTTP client timeout
	MaxDocuments int    `mapstructure:"max_documents" yaml:"max_documents"` // documents per call
}

// PluginsConfig contains plugin host configuration.
type PluginsConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"` // plugins directory, default <root>/.mcp-rerank/plugins
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text, json
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Reranker: RerankerConfig{
			Provider:     "zeroentropy",
			Timeout:      "30s",
			MaxDocuments: types.MaxDocuments,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ConfigDir returns the configuration directory.
func ConfigDir(root string) string {
	return filepath.Join(root, ".mcp-rerank")
}

// ConfigPath returns the path to config.yaml.
func ConfigPath(root string) string {
	return filepath.Join(ConfigDir(root), "config.yaml")
}

// PluginsDir returns the effective plugins directory.
func PluginsDir(root string, cfg *Config) string {
	if cfg != nil && cfg.Plugins.Dir != "" {
		return cfg.Plugins.Dir
	}
	return filepath.Join(ConfigDir(root), "plugins")
}

// Load loads configuration from file, falling back to defaults.
func Load(root string) (*Config, []string, error) {
	cfg := DefaultConfig()
	warnings := []string{}

	configPath := ConfigPath(root)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		warnings = append(warnings, "No config file found, using defaults")
		return cfg, warnings, nil
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Apply defaults for missing values
	if cfg.Reranker.Provider == "" {
		cfg.Reranker.Provider = "zeroentropy"
		warnings = append(warnings, "Using default reranker provider: zeroentropy")
	}
	if cfg.Reranker.Timeout == "" {
		cfg.Reranker.Timeout = "30s"
	}
	if cfg.Reranker.MaxDocuments == 0 {
		cfg.Reranker.MaxDocuments = types.MaxDocuments
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	return cfg, warnings, nil
}

// Save saves configuration to file.
func Save(root string, cfg *Config) error {
	configDir := ConfigDir(root)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(ConfigPath(root))
	v.SetConfigType("yaml")

	v.Set("reranker", cfg.Reranker)
	v.Set("plugins", cfg.Plugins)
	v.Set("logging", cfg.Logging)

	return v.WriteConfig()
}

// Validate validates the configuration.
func Validate(cfg *Config) []error {
	var errs []error

	validProviders := map[string]bool{
		"zeroentropy": true,
		"openai":      true,
		"none":        true,
	}
	if !validProviders[cfg.Reranker.Provider] && !strings.HasPrefix(cfg.Reranker.Provider, "plugin:") {
		errs = append(errs, fmt.Errorf("invalid reranker provider: %s", cfg.Reranker.Provider))
	}

	if cfg.Reranker.Timeout != "" {
		if _, err := time.ParseDuration(cfg.Reranker.Timeout); err != nil {
			errs = append(errs, fmt.Errorf("invalid reranker timeout: %s", cfg.Reranker.Timeout))
		}
	}

	if cfg.Reranker.MaxDocuments < 0 || cfg.Reranker.MaxDocuments > types.MaxDocuments {
		errs = append(errs, fmt.Errorf("max_documents must be between 1 and %d", types.MaxDocuments))
	}

	validLevels := map[string]bool{"": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, fmt.Errorf("invalid logging level: %s", cfg.Logging.Level))
	}

	validFormats := map[string]bool{"": true, "text": true, "json": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, fmt.Errorf("invalid logging format: %s", cfg.Logging.Format))
	}

	return errs
}

// Hash returns a hash of the settings the running server reacts to.
// Used by the config watcher to skip no-op reloads.
func (c *Config) Hash() string {
	data := fmt.Sprintf("%s:%s:%s:%s:%d:%s:%s",
		c.Reranker.Provider,
		c.Reranker.Model,
		c.Reranker.Endpoint,
		c.Reranker.Timeout,
		c.Reranker.MaxDocuments,
		c.Logging.Level,
		c.Logging.Format,
	)
	h := sha256.Sum256([]byte(data))
	return hex.EncodeToString(h[:])
}
