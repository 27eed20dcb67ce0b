package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Backend names accepted in the configuration file.
const (
	BackendFile   = "file"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

// Config holds the full daemon configuration.
type Config struct {
	// DataDir is where the backend keeps persistent state.
	DataDir string `yaml:"dataDir"`
	// Backend selects the persistence backend: file, bolt or memory.
	Backend string `yaml:"backend"`

	Listen   ListenConfig   `yaml:"listen"`
	Log      LogConfig      `yaml:"log"`
	Identity IdentityConfig `yaml:"identity"`
	Gateway  GatewayConfig  `yaml:"gateway"`
}

// ListenConfig holds the service addresses.
type ListenConfig struct {
	// Gateway is the address of the query endpoint.
	Gateway string `yaml:"gateway"`
	// Health is the address of the health, readiness and metrics endpoints.
	Health string `yaml:"health"`
}

// LogConfig holds the logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// IdentityConfig seeds the entity registry and names the identity the
// daemon itself operates under.
type IdentityConfig struct {
	User     string       `yaml:"user"`
	Group    string       `yaml:"group"`
	Entities []EntitySpec `yaml:"entities"`
}

// EntitySpec declares one entity and the entities it inherits credentials
// from.
type EntitySpec struct {
	Name   string   `yaml:"name"`
	Layers []string `yaml:"layers,omitempty"`
}

// GatewayConfig holds query endpoint settings.
type GatewayConfig struct {
	// DefaultAsset answers queries that do not name an asset.
	DefaultAsset string `yaml:"defaultAsset"`
	// MaxBodySize caps request bodies in bytes. Zero keeps the built-in
	// limit.
	MaxBodySize int64 `yaml:"maxBodySize"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		DataDir: "./hoard-data",
		Backend: BackendFile,
		Listen: ListenConfig{
			Gateway: "127.0.0.1:8080",
			Health:  "127.0.0.1:9090",
		},
		Log: LogConfig{
			Level: "info",
			JSON:  true,
		},
		Identity: IdentityConfig{
			User:  "root",
			Group: "system",
			Entities: []EntitySpec{
				{Name: "root"},
				{Name: "system"},
			},
		},
		Gateway: GatewayConfig{
			DefaultAsset: "www.index",
		},
	}
}

// Load reads a YAML configuration file. Settings not present in the file
// keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFile, BackendBolt, BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Backend != BackendMemory && c.DataDir == "" {
		return fmt.Errorf("dataDir is required for the %s backend", c.Backend)
	}
	if c.Listen.Gateway == "" {
		return fmt.Errorf("listen.gateway is required")
	}
	if c.Identity.User == "" || c.Identity.Group == "" {
		return fmt.Errorf("identity.user and identity.group are required")
	}
	for _, e := range c.Identity.Entities {
		if e.Name == "" {
			return fmt.Errorf("identity entity without a name")
		}
	}
	return nil
}

// Write marshals the configuration to a YAML file.
func (c *Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
