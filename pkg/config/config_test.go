package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	if cfg.App.Name != "ATLAS" {
		t.Errorf("App.Name = %q", cfg.App.Name)
	}
	name, p := cfg.GetDefaultProvider()
	if name != "ollama" || !p.Enabled {
		t.Errorf("default provider = %q enabled=%v", name, p.Enabled)
	}
	if p.BaseURL != "http://localhost:11434" {
		t.Errorf("BaseURL = %q", p.BaseURL)
	}
}

func TestLoadConfigJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"app": {"name": "ATLAS", "workspace": "ws"},
		"gateways": {
			"telegram": {"token": "tg-token", "enabled": true},
			"discord": {"token": "dc-token", "enabled": false}
		},
		"providers": {
			"openai": {"api_key": "sk-x", "model": "gpt-4o-mini", "enabled": true}
		}
	}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := LoadConfig(path)
	if cfg.App.Workspace != "ws" {
		t.Errorf("Workspace = %q", cfg.App.Workspace)
	}
	if tg, ok := cfg.GetTelegramConfig(); !ok || tg.Token != "tg-token" {
		t.Errorf("telegram = %+v ok=%v", tg, ok)
	}
	if _, ok := cfg.GetDiscordConfig(); ok {
		t.Error("disabled discord gateway reported as enabled")
	}
}

func TestLoadConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
app:
  name: ATLAS
  workspace: ws
providers:
  ollama:
    model: llama3.2
    base_url: http://localhost:11434
    enabled: true
  openai:
    api_key: sk-x
    model: gpt-4o-mini
    enabled: true
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := LoadConfig(path)
	name, p := cfg.GetDefaultProvider()
	if name != "ollama" {
		t.Errorf("preferred provider = %q, want ollama", name)
	}
	if p.Model != "llama3.2" {
		t.Errorf("Model = %q", p.Model)
	}
}
