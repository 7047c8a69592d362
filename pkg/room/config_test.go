package room

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaultsAndExpansion(t *testing.T) {
	t.Setenv("ROOM_API_TOKEN", "secret-token")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
api:
  base_url: https://api.example.com
  token: ${ROOM_API_TOKEN}
embed:
  provider: hosted
  settings:
    api_key: ${ROOM_API_TOKEN}
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.API.Token != "secret-token" {
		t.Fatalf("expected env-expanded token, got %q", cfg.API.Token)
	}
	if cfg.Embed.Provider != "hosted" {
		t.Fatalf("expected hosted provider, got %q", cfg.Embed.Provider)
	}
	if cfg.Embed.Settings["api_key"] != "secret-token" {
		t.Fatalf("expected expanded embed settings, got %v", cfg.Embed.Settings)
	}
	if cfg.Recording.DelayMS != 2000 || cfg.Recording.MaxAttempts != 5 {
		t.Fatalf("expected recording defaults, got %+v", cfg.Recording)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Fatalf("expected logging defaults, got %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestNewEmbedRegistry(t *testing.T) {
	if _, err := NewEmbed(EmbedConfig{Provider: "mock"}, nil); err != nil {
		t.Fatalf("mock provider: %v", err)
	}
	if _, err := NewEmbed(EmbedConfig{Provider: "nope"}, nil); err == nil {
		t.Fatalf("expected unknown provider error")
	}
	if _, err := NewEmbed(EmbedConfig{
		Provider: "hosted",
		Settings: map[string]any{"api_key": "k"},
	}, nil); err != nil {
		t.Fatalf("hosted provider: %v", err)
	}
	if _, err := NewEmbed(EmbedConfig{
		Provider: "hosted",
		Settings: map[string]any{"unexpected": "x"},
	}, nil); err == nil {
		t.Fatalf("expected settings validation error")
	}
	if _, err := NewEmbed(EmbedConfig{
		Provider: "livekit",
		Settings: map[string]any{"control_url": "ws://localhost:9000/control"},
	}, nil); err != nil {
		t.Fatalf("livekit provider: %v", err)
	}
}
