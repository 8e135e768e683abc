package core

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StoreConfig configures the content-addressed effect store's LRU cache.
type StoreConfig struct {
	CacheSize int `yaml:"cache_size"`
}

// RouterConfig configures the unified router's default strategy.
type RouterConfig struct {
	DefaultStrategy string `yaml:"default_strategy"`
}

func (c RouterConfig) ToRoutingStrategy() (RoutingStrategy, error) {
	switch c.DefaultStrategy {
	case "", "minimize_cost":
		return MinimizeCostStrategy(), nil
	case "direct":
		return DirectStrategy(), nil
	case "minimize_hops":
		return MinimizeHopsStrategy(), nil
	case "minimize_latency":
		return MinimizeLatencyStrategy(), nil
	default:
		return RoutingStrategy{}, fmt.Errorf("config: unknown default_strategy %q", c.DefaultStrategy)
	}
}

// Config is the root configuration tree for a causality deployment,
// loaded from a single YAML document (§6 ambient stack).
type Config struct {
	Machine MachineConfig `yaml:"machine"`
	Store   StoreConfig   `yaml:"store"`
	Router  RouterConfig  `yaml:"router"`
}

func DefaultConfig() Config {
	return Config{
		Machine: DefaultMachineConfig(),
		Store:   StoreConfig{CacheSize: 1024},
		Router:  RouterConfig{DefaultStrategy: "minimize_cost"},
	}
}

// LoadConfig reads and parses a YAML config file, layering it over
// DefaultConfig so a partial file is valid.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
