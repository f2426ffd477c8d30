package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := defaults()

	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected http port 8080, got %d", cfg.HTTP.Port)
	}
	if cfg.NATS.Port != 4222 {
		t.Errorf("expected nats port 4222, got %d", cfg.NATS.Port)
	}
	if cfg.Store.Path != DefaultStorePath {
		t.Errorf("expected store path %s, got %s", DefaultStorePath, cfg.Store.Path)
	}
	if cfg.Room.LeaderLeaseTTL != 30*time.Second {
		t.Errorf("expected leader lease ttl 30s, got %v", cfg.Room.LeaderLeaseTTL)
	}
	if cfg.Room.ActivityThreshold != 200 {
		t.Errorf("expected activity threshold 200, got %d", cfg.Room.ActivityThreshold)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("SWARM_CONFIG", "/nonexistent/config.yaml")
	t.Setenv("SWARM_AUTH_TOKEN", "test-token-123")
	t.Setenv("SWARM_HTTP_PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTP.Token != "test-token-123" {
		t.Errorf("expected token test-token-123, got %s", cfg.HTTP.Token)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected http port 9090, got %d", cfg.HTTP.Port)
	}
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yamlBody := `
http:
  port: 3000
  token: "yaml-token"
room:
  leader_lease_ttl: 45s
  activity_threshold: 50
`
	if err := os.WriteFile(cfgPath, []byte(yamlBody), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SWARM_CONFIG", cfgPath)
	t.Setenv("SWARM_AUTH_TOKEN", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTP.Port != 3000 {
		t.Errorf("expected http port 3000, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.Token != "yaml-token" {
		t.Errorf("expected yaml-token, got %s", cfg.HTTP.Token)
	}
	if cfg.Room.LeaderLeaseTTL != 45*time.Second {
		t.Errorf("expected leader lease ttl 45s, got %v", cfg.Room.LeaderLeaseTTL)
	}
	if cfg.Room.ActivityThreshold != 50 {
		t.Errorf("expected activity threshold 50, got %d", cfg.Room.ActivityThreshold)
	}
}
