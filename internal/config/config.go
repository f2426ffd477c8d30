// Package config loads the hub's configuration from YAML plus environment
// variable overrides, following the layered load/override pattern used
// throughout this codebase.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP  HTTPConfig  `yaml:"http"`
	NATS  NATSConfig  `yaml:"nats"`
	Store StoreConfig `yaml:"store"`
	Room  RoomConfig  `yaml:"room"`
}

// HTTPConfig controls the gateway's listener and auth.
type HTTPConfig struct {
	Port  int    `yaml:"port"`
	Token string `yaml:"token"`
}

// NATSConfig controls the embedded event bus used to fan broadcast frames
// out to each room's WebSocket subscribers.
type NATSConfig struct {
	Port    int    `yaml:"port"`
	DataDir string `yaml:"data_dir"`
}

// StoreConfig controls the durable key/value store backing room state.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// RoomConfig carries the tunable timings a room dispatcher applies to
// leases, locks, and log/timeline truncation. These are safe to change at
// runtime via SIGHUP because they only affect future commands.
type RoomConfig struct {
	LeaderLeaseTTL    time.Duration `yaml:"leader_lease_ttl"`
	DefaultLockTTL    time.Duration `yaml:"default_lock_ttl"`
	PulseStaleAfter   time.Duration `yaml:"pulse_stale_after"`
	ActivityWindow    time.Duration `yaml:"activity_window"`
	ActivityThreshold int           `yaml:"activity_threshold"`
	EventLogMax       int           `yaml:"event_log_max"`
	TimelineMax       int           `yaml:"timeline_max"`
	KnowledgeMax      int           `yaml:"knowledge_max"`
}

const (
	DefaultConfigPath = "config/hub.yaml"
	DefaultStorePath  = "data/hub.db"
)

func defaults() Config {
	return Config{
		HTTP: HTTPConfig{
			Port: 8080,
		},
		NATS: NATSConfig{
			Port:    4222,
			DataDir: "data/nats",
		},
		Store: StoreConfig{
			Path: DefaultStorePath,
		},
		Room: RoomConfig{
			LeaderLeaseTTL:    30 * time.Second,
			DefaultLockTTL:    60 * time.Second,
			PulseStaleAfter:   10 * time.Minute,
			ActivityWindow:    5 * time.Minute,
			ActivityThreshold: 200,
			EventLogMax:       500,
			TimelineMax:       200,
			KnowledgeMax:      50,
		},
	}
}

// Load reads the config file named by SWARM_CONFIG (or DefaultConfigPath,
// if the file exists), expands $VAR references, then applies environment
// overrides on top.
func Load() (*Config, error) {
	cfg := defaults()

	path := os.Getenv("SWARM_CONFIG")
	if path == "" {
		path = DefaultConfigPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found — defaults + env only.
	} else {
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SWARM_AUTH_TOKEN"); v != "" {
		cfg.HTTP.Token = v
	}
	if v := os.Getenv("SWARM_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Port = port
		}
	}
	if v := os.Getenv("SWARM_DATA_DIR"); v != "" {
		cfg.Store.Path = v + "/hub.db"
		cfg.NATS.DataDir = v + "/nats"
	}
}

// Path returns the config file path this process was loaded from,
// resolving the same way Load does.
func Path() string {
	if v := os.Getenv("SWARM_CONFIG"); v != "" {
		return v
	}
	return DefaultConfigPath
}
