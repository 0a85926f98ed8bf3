package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App       AppConfig                 `json:"app" yaml:"app"`
	Gateways  map[string]GatewayConfig  `json:"gateways" yaml:"gateways"`
	Providers map[string]ProviderConfig `json:"providers" yaml:"providers"`
	Memory    MemoryConfig              `json:"memory" yaml:"memory"`
}

type AppConfig struct {
	Name      string `json:"name" yaml:"name"`
	Workspace string `json:"workspace" yaml:"workspace"`
}

type GatewayConfig struct {
	Token   string `json:"token" yaml:"token"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

type ProviderConfig struct {
	APIKey  string `json:"api_key" yaml:"api_key"`
	Model   string `json:"model" yaml:"model"`
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

type MemoryConfig struct {
	Type string `json:"type" yaml:"type"`
	Path string `json:"path" yaml:"path"`
}

// DefaultConfig is what you get with no config file: a local Ollama
// instance and the console gateway only.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:      "ATLAS",
			Workspace: "workspace",
		},
		Providers: map[string]ProviderConfig{
			"ollama": {
				Model:   "jobautomation/OpenEuroLLM-Polish:latest",
				BaseURL: "http://localhost:11434",
				Enabled: true,
			},
		},
		Memory: MemoryConfig{
			Type: "sqlite",
			Path: "atlas.db",
		},
	}
}

// LoadConfig reads the config file at path, accepting JSON or YAML by
// extension. A missing file is not an error; defaults apply.
func LoadConfig(path string) *Config {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("No config file at %s, using defaults", path)
			return DefaultConfig()
		}
		log.Fatalf("failed to read config file: %v", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("failed to decode config file: %v", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("failed to decode config file: %v", err)
		}
	}
	return &cfg
}

// providerOrder breaks ties between enabled providers. Local first.
var providerOrder = []string{"ollama", "openai", "openrouter"}

// GetDefaultProvider returns the preferred enabled provider.
func (c *Config) GetDefaultProvider() (string, ProviderConfig) {
	for _, name := range providerOrder {
		if p, ok := c.Providers[name]; ok && p.Enabled {
			return name, p
		}
	}
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if p := c.Providers[name]; p.Enabled {
			return name, p
		}
	}
	return "", ProviderConfig{}
}

// GetTelegramConfig returns telegram config if enabled
func (c *Config) GetTelegramConfig() (GatewayConfig, bool) {
	tg, ok := c.Gateways["telegram"]
	if ok && tg.Enabled {
		return tg, true
	}
	return GatewayConfig{}, false
}

// GetDiscordConfig returns discord config if enabled
func (c *Config) GetDiscordConfig() (GatewayConfig, bool) {
	dc, ok := c.Gateways["discord"]
	if ok && dc.Enabled {
		return dc, true
	}
	return GatewayConfig{}, false
}
