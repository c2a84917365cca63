package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full server configuration. Values come from the YAML file,
// then environment variables override the handful of deploy-specific ones.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	Game      GameConfig      `yaml:"game"`
	Bots      BotsConfig      `yaml:"bots"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`             // listen address, e.g. ":8080"
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default 10s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default 10s
	AllowedOrigins  []string      `yaml:"allowed_origins"`  // CORS; empty allows all
	AdminPasscode   string        `yaml:"admin_passcode"`   // default passcode for new sessions
}

type DatabaseConfig struct {
	Path string `yaml:"path"` // sqlite file path; ":memory:" for ephemeral
}

type LoggingConfig struct {
	Level  string `yaml:"level"`   // debug|info|warn|error
	Format string `yaml:"format"`  // json|text
	Output string `yaml:"output"`  // stdout|stderr|file path
	MaxAge int    `yaml:"max_age"` // days to keep rotated files
}

// GameConfig holds the defaults applied to sessions created without
// explicit experiment parameters.
type GameConfig struct {
	MarketSize    int           `yaml:"market_size"`
	RoundCount    int           `yaml:"round_count"`
	RoundDuration time.Duration `yaml:"round_duration"`
	Endowment     float64       `yaml:"endowment"`
}

type BotsConfig struct {
	Enabled       bool          `yaml:"enabled"`
	DAMinInterval time.Duration `yaml:"da_min_interval"`
	DAMaxInterval time.Duration `yaml:"da_max_interval"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{Path: "econgames.db"},
		Logging:  LoggingConfig{Level: "info", Format: "text", Output: "stdout"},
		Game: GameConfig{
			MarketSize:    8,
			RoundCount:    5,
			RoundDuration: 120 * time.Second,
			Endowment:     20,
		},
		Bots: BotsConfig{
			Enabled:       true,
			DAMinInterval: 3 * time.Second,
			DAMaxInterval: 12 * time.Second,
		},
		RateLimit: RateLimitConfig{RequestsPerSecond: 10, Burst: 20},
	}
}

// Load reads the YAML file at path on top of the defaults, then applies
// environment overrides. An empty path skips the file entirely.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = strings.TrimSpace(v)
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.Database.Path = strings.TrimSpace(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.TrimSpace(v)
	}
	if v := os.Getenv("ADMIN_PASSCODE"); v != "" {
		cfg.Server.AdminPasscode = v
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if cfg.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if cfg.Game.MarketSize <= 0 {
		return fmt.Errorf("game.market_size must be greater than 0")
	}
	if cfg.Game.RoundCount <= 0 {
		return fmt.Errorf("game.round_count must be greater than 0")
	}
	if cfg.Bots.Enabled && cfg.Bots.DAMaxInterval < cfg.Bots.DAMinInterval {
		return fmt.Errorf("bots.da_max_interval must be at least bots.da_min_interval")
	}
	if cfg.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate_limit.requests_per_second must be greater than 0")
	}
	return nil
}
