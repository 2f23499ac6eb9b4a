package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rpggio/spacetracker/internal/domain/reward"
	"github.com/rpggio/spacetracker/internal/domain/space"
	"github.com/rpggio/spacetracker/internal/domain/tracker"
	"gopkg.in/yaml.v3"
)

// Config defines server and agent configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	DB      DBConfig      `yaml:"db"`
	Log     LogConfig     `yaml:"log"`
	Auth    AuthConfig    `yaml:"auth"`
	Rewards RewardsConfig `yaml:"rewards"`
	Tracker TrackerConfig `yaml:"tracker"`
	Agent   AgentConfig   `yaml:"agent"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

type AuthConfig struct {
	// Enabled gates the MCP endpoint. REST endpoints always require a token.
	Enabled bool `yaml:"enabled"`
	// DefaultUser is the MCP user when auth is disabled.
	DefaultUser string `yaml:"default_user"`
}

const (
	PolicySeeded        = "seeded"
	PolicyUnconditional = "unconditional"
)

type RewardsConfig struct {
	DailyCap      int                              `yaml:"daily_cap"`
	Policy        string                           `yaml:"policy"`
	Probabilities map[reward.Category]float64      `yaml:"probabilities"`
	Ranges        map[reward.Category]reward.Range `yaml:"ranges"`
}

type TrackerConfig struct {
	MinDurationMinutes float64       `yaml:"min_duration_minutes"`
	AbandonTimeout     time.Duration `yaml:"abandon_timeout"`
	PollInterval       time.Duration `yaml:"poll_interval"`
	CoalesceDelay      time.Duration `yaml:"coalesce_delay"`
	SweepInterval      time.Duration `yaml:"sweep_interval"`
	FailureThreshold   int           `yaml:"failure_threshold"`
	HistoryLimit       int           `yaml:"history_limit"`
}

type AgentConfig struct {
	BackendURL  string `yaml:"backend_url"`
	Token       string `yaml:"token"`
	ObserverURL string `yaml:"observer_url"`
	StatePath   string `yaml:"state_path"`
	ControlAddr string `yaml:"control_addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	runner := tracker.DefaultRunnerConfig()
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "spacetracker.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Auth: AuthConfig{
			Enabled:     true,
			DefaultUser: "local",
		},
		Rewards: RewardsConfig{
			DailyCap:      reward.DefaultDailyCap,
			Policy:        PolicySeeded,
			Probabilities: reward.DefaultProbabilities(),
			Ranges:        reward.DefaultRanges(),
		},
		Tracker: TrackerConfig{
			MinDurationMinutes: space.DefaultMinDurationMinutes,
			AbandonTimeout:     space.DefaultAbandonTimeout,
			PollInterval:       runner.PollInterval,
			CoalesceDelay:      runner.CoalesceDelay,
			SweepInterval:      runner.SweepInterval,
			FailureThreshold:   runner.FailureThreshold,
			HistoryLimit:       space.HistoryLimit,
		},
		Agent: AgentConfig{
			BackendURL:  "http://localhost:8080",
			StatePath:   "spacetracker-agent.db",
			ControlAddr: "127.0.0.1:8787",
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("SPACETRACKER_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("SPACETRACKER_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("SPACETRACKER_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid SPACETRACKER_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("SPACETRACKER_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("SPACETRACKER_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("SPACETRACKER_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if v := os.Getenv("SPACETRACKER_AUTH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SPACETRACKER_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = enabled
	}
	if v := os.Getenv("SPACETRACKER_MIN_DURATION_MINUTES"); v != "" {
		minutes, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid SPACETRACKER_MIN_DURATION_MINUTES: %w", err)
		}
		cfg.Tracker.MinDurationMinutes = minutes
	}
	if v := os.Getenv("SPACETRACKER_DAILY_CAP"); v != "" {
		dailyCap, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SPACETRACKER_DAILY_CAP: %w", err)
		}
		cfg.Rewards.DailyCap = dailyCap
	}
	if v := os.Getenv("SPACETRACKER_REWARD_POLICY"); v != "" {
		cfg.Rewards.Policy = v
	}
	if v := os.Getenv("SPACETRACKER_BACKEND_URL"); v != "" {
		cfg.Agent.BackendURL = v
	}
	if v := os.Getenv("SPACETRACKER_TOKEN"); v != "" {
		cfg.Agent.Token = v
	}
	if v := os.Getenv("SPACETRACKER_OBSERVER_URL"); v != "" {
		cfg.Agent.ObserverURL = v
	}
	if v := os.Getenv("SPACETRACKER_STATE_PATH"); v != "" {
		cfg.Agent.StatePath = v
	}
	return nil
}

// Validate rejects values the services would otherwise silently replace.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Rewards.DailyCap <= 0 {
		return fmt.Errorf("daily_cap must be positive, got %d", c.Rewards.DailyCap)
	}
	if c.Rewards.Policy != PolicySeeded && c.Rewards.Policy != PolicyUnconditional {
		return fmt.Errorf("unknown reward policy %q", c.Rewards.Policy)
	}
	for cat, p := range c.Rewards.Probabilities {
		if !cat.Valid() {
			return fmt.Errorf("unknown reward category %q", cat)
		}
		if p < 0 || p > 1 {
			return fmt.Errorf("probability for %s must be within [0, 1], got %v", cat, p)
		}
	}
	for cat, r := range c.Rewards.Ranges {
		if !cat.Valid() {
			return fmt.Errorf("unknown reward category %q", cat)
		}
		if r.Min < 1 || r.Max < r.Min {
			return fmt.Errorf("invalid range for %s: %d-%d", cat, r.Min, r.Max)
		}
	}
	if c.Tracker.MinDurationMinutes < 0 {
		return fmt.Errorf("min_duration_minutes must not be negative")
	}
	return nil
}

// RewardPolicy builds the ledger policy described by the rewards section.
func (c RewardsConfig) RewardPolicy() reward.Policy {
	ranges := reward.DefaultRanges()
	for cat, r := range c.Ranges {
		ranges[cat] = r
	}
	if c.Policy == PolicyUnconditional {
		return reward.Unconditional{Ranges: ranges}
	}
	probs := reward.DefaultProbabilities()
	for cat, p := range c.Probabilities {
		probs[cat] = p
	}
	return reward.SeededGate{Probabilities: probs, Ranges: ranges}
}

// RunnerConfig returns the tracker loop timings.
func (c TrackerConfig) RunnerConfig() tracker.RunnerConfig {
	return tracker.RunnerConfig{
		PollInterval:     c.PollInterval,
		CoalesceDelay:    c.CoalesceDelay,
		SweepInterval:    c.SweepInterval,
		FailureThreshold: c.FailureThreshold,
	}
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
