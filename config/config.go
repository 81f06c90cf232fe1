// Package config holds the CLI configuration: per-provider credentials,
// base URLs and debug-capture settings, loaded from a YAML file. The
// library itself never reads this; the CLI maps it onto [relay.Options].
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level CLI configuration.
type Config struct {
	Default   string              `yaml:"default"` // Provider id used when none is given on the command line
	Providers map[string]Provider `yaml:"providers"`
}

// Provider holds the settings for one provider id. APIKey supports
// ${VAR} expansion so config files can reference environment variables
// instead of embedding secrets.
type Provider struct {
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// Load reads the config from path. A missing file returns an empty config
// rather than an error, so the CLI can run on environment variables alone.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("error reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("error parsing config %s: %w", path, err)
	}

	for id, provider := range cfg.Providers {
		provider.APIKey = os.ExpandEnv(provider.APIKey)
		cfg.Providers[id] = provider
	}

	return cfg, nil
}

// Provider returns the settings for the given provider id, or a zero value
// when the id is not configured.
func (c Config) Provider(id string) (Provider, bool) {
	provider, ok := c.Providers[id]
	return provider, ok
}
