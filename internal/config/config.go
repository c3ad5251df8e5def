// ABOUTME: Configuration loading for the hearth hub.
// ABOUTME: Loads TOML with ${VAR} expansion, HEARTH_* overrides, and defaults.

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the complete hub configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Logging  LoggingConfig  `toml:"logging"`
	Agents   []AgentConfig  `toml:"agents"`
	Plugins  PluginsConfig  `toml:"plugins"`
	Bindings BindingsConfig `toml:"bindings"`
	Signals  SignalsConfig  `toml:"signals"`
	Metrics  MetricsConfig  `toml:"metrics"`
}

// ServerConfig holds the HTTP listener configuration.
type ServerConfig struct {
	ListenAddr      string        `toml:"listen_addr"`
	ShutdownTimeout time.Duration `toml:"-"`

	ShutdownTimeoutRaw string `toml:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// AgentConfig declares an agent registered at startup.
type AgentConfig struct {
	ID           string        `toml:"id"`
	Type         string        `toml:"type"`
	Capabilities []string      `toml:"capabilities"`
	WorkDelay    time.Duration `toml:"-"`

	WorkDelayRaw string `toml:"work_delay"`
}

// PluginsConfig names the plugins loaded at startup.
type PluginsConfig struct {
	Enabled []string `toml:"enabled"`
}

// BindingsConfig points at the panel bindings file.
type BindingsConfig struct {
	Path string `toml:"path"`
}

// SignalsConfig holds webhook delivery deduplication settings.
type SignalsConfig struct {
	DedupeTTL time.Duration `toml:"-"`
	DedupeMax int           `toml:"dedupe_max"`

	DedupeTTLRaw string `toml:"dedupe_ttl"`
}

// MetricsConfig holds the Prometheus endpoint configuration.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:      "127.0.0.1:8700",
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Agents: []AgentConfig{
			{ID: "mock-1", Type: "mock", Capabilities: []string{"chat"}},
		},
		Plugins: PluginsConfig{
			Enabled: []string{"builtin"},
		},
		Signals: SignalsConfig{
			DedupeTTL: 5 * time.Minute,
			DedupeMax: 4096,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load reads the configuration at path, expanding ${VAR} references before
// parsing and applying HEARTH_* environment overrides after. A missing file
// yields the defaults; a malformed one is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		} else {
			expanded := expandEnvVars(string(data))
			if _, err := toml.Decode(expanded, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR} with environment variable values.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(varName)
	})
}

// applyEnvOverrides lets a few high-traffic settings be set without a file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HEARTH_LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("HEARTH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("HEARTH_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("HEARTH_BINDINGS_PATH"); v != "" {
		cfg.Bindings.Path = v
	}
}

// parseDurations converts the raw duration strings into time.Duration values.
func parseDurations(cfg *Config) error {
	var err error

	if raw := cfg.Server.ShutdownTimeoutRaw; raw != "" {
		cfg.Server.ShutdownTimeout, err = time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("parsing server.shutdown_timeout %q: %w", raw, err)
		}
	}

	if raw := cfg.Signals.DedupeTTLRaw; raw != "" {
		cfg.Signals.DedupeTTL, err = time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("parsing signals.dedupe_ttl %q: %w", raw, err)
		}
	}

	for i := range cfg.Agents {
		if raw := cfg.Agents[i].WorkDelayRaw; raw != "" {
			cfg.Agents[i].WorkDelay, err = time.ParseDuration(raw)
			if err != nil {
				return fmt.Errorf("parsing agents[%d].work_delay %q: %w", i, raw, err)
			}
		}
	}

	return nil
}

// Validate checks that required fields are present and valid.
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json")
	}

	seen := make(map[string]struct{}, len(c.Agents))
	for i, a := range c.Agents {
		if a.ID == "" {
			return fmt.Errorf("agents[%d].id is required", i)
		}
		if _, dup := seen[a.ID]; dup {
			return fmt.Errorf("agents[%d]: duplicate agent id %q", i, a.ID)
		}
		seen[a.ID] = struct{}{}
	}

	if c.Signals.DedupeMax < 0 {
		return fmt.Errorf("signals.dedupe_max must not be negative")
	}

	if c.Metrics.Enabled && c.Metrics.Path == "" {
		return fmt.Errorf("metrics.path is required when metrics are enabled")
	}

	return nil
}
