// internal/config/config.go
package config

import (
    "fmt"
    "os"
    "time"

    "gopkg.in/yaml.v3"
)

// Version is reported by the -version flag and the health endpoint.
const Version = "1.0.0"

// Config holds process configuration. Runtime tunables (poll interval,
// thresholds, retention) live in the settings store, not here, because the
// dashboard edits them at runtime.
type Config struct {
    Server     ServerConfig     `yaml:"server"`
    Database   DatabaseConfig   `yaml:"database"`
    Agent      AgentConfig      `yaml:"agent"`
    Prometheus PrometheusConfig `yaml:"prometheus"`
    Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
    Port         string        `yaml:"port"`
    ReadTimeout  time.Duration `yaml:"read_timeout"`
    WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
    Path string `yaml:"path"`
}

type AgentConfig struct {
    Timeout      time.Duration `yaml:"timeout"`
    DiscoverPort int           `yaml:"discover_port"`
    // Workers caps how many devices one poll cycle touches concurrently.
    Workers int `yaml:"workers"`
}

type PrometheusConfig struct {
    Enabled     bool   `yaml:"enabled"`
    MetricsPath string `yaml:"metrics_path"`
}

type LoggingConfig struct {
    Level  string `yaml:"level"`
    Format string `yaml:"format"`
}

func Load(filename string) (*Config, error) {
    config := &Config{}

    if filename != "" {
        data, err := os.ReadFile(filename)
        if err != nil {
            return nil, fmt.Errorf("failed to read config file: %w", err)
        }
        if err := yaml.Unmarshal(data, config); err != nil {
            return nil, fmt.Errorf("failed to parse YAML: %w", err)
        }
    }

    setDefaults(config)

    if err := validate(config); err != nil {
        return nil, fmt.Errorf("invalid configuration: %w", err)
    }

    return config, nil
}

func setDefaults(cfg *Config) {
    if cfg.Server.Port == "" {
        cfg.Server.Port = ":8000"
    }
    if cfg.Server.ReadTimeout == 0 {
        cfg.Server.ReadTimeout = 15 * time.Second
    }

    if cfg.Database.Path == "" {
        cfg.Database.Path = "./data/piwatch.db"
    }

    if cfg.Agent.Timeout == 0 {
        cfg.Agent.Timeout = 5 * time.Second
    }
    if cfg.Agent.DiscoverPort == 0 {
        cfg.Agent.DiscoverPort = 9100
    }
    if cfg.Agent.Workers == 0 {
        cfg.Agent.Workers = 8
    }

    if cfg.Prometheus.MetricsPath == "" {
        cfg.Prometheus.MetricsPath = "/metrics"
    }

    if cfg.Logging.Level == "" {
        cfg.Logging.Level = "info"
    }
    if cfg.Logging.Format == "" {
        cfg.Logging.Format = "text"
    }
}

func validate(cfg *Config) error {
    if cfg.Agent.Workers < 1 {
        return fmt.Errorf("agent.workers must be at least 1")
    }
    if cfg.Agent.Timeout <= 0 {
        return fmt.Errorf("agent.timeout must be positive")
    }
    if cfg.Agent.DiscoverPort < 1 || cfg.Agent.DiscoverPort > 65535 {
        return fmt.Errorf("agent.discover_port must be a valid port")
    }
    if cfg.Database.Path == "" {
        return fmt.Errorf("database.path cannot be empty")
    }
    return nil
}
