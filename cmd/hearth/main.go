// ABOUTME: Entry point for the hearth orchestration hub.
// ABOUTME: Subcommands: serve, init, health, agents.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/2389/hearth/internal/agent"
	"github.com/2389/hearth/internal/bindings"
	"github.com/2389/hearth/internal/config"
	"github.com/2389/hearth/internal/dedupe"
	"github.com/2389/hearth/internal/event"
	"github.com/2389/hearth/internal/metrics"
	"github.com/2389/hearth/internal/orchestrator"
	"github.com/2389/hearth/internal/plugin"
	"github.com/2389/hearth/internal/registry"
	"github.com/2389/hearth/internal/server"
	"github.com/2389/hearth/internal/state"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
 _                     _   _
| |__   ___  __ _ _ __| |_| |__
| '_ \ / _ \/ _' | '__| __| '_ \
| | | |  __/ (_| | |  | |_| | | |
|_| |_|\___|\__,_|_|   \__|_| |_|
`

// getConfigPath returns the path to the hub config file.
// Priority: HEARTH_CONFIG env var > ./hearth.toml > ~/.config/hearth/hearth.toml
func getConfigPath() string {
	if envPath := os.Getenv("HEARTH_CONFIG"); envPath != "" {
		return envPath
	}

	if _, err := os.Stat("hearth.toml"); err == nil {
		return "hearth.toml"
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "hearth.toml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "hearth", "hearth.toml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: hearth <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve    Start the hub")
		fmt.Println("  init     Create a starter config file")
		fmt.Println("  health   Check hub health")
		fmt.Println("  agents   List registered agents")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "health":
		err = runHealth(ctx)
	case "agents":
		err = runAgents(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:     %s\n", cfg.Server.ListenAddr)
	green.Print("    ▶ ")
	fmt.Printf("Plugins:  %v\n", cfg.Plugins.Enabled)
	if cfg.Metrics.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Metrics:  %s\n", cfg.Metrics.Path)
	}
	fmt.Println()

	logger.Info("starting hearth",
		"config", configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"agents", len(cfg.Agents),
	)

	bus := event.NewBus(logger)
	store := state.NewStore(bus, logger)
	defer store.Close()

	orch := orchestrator.New(bus, store, logger)
	for _, a := range cfg.Agents {
		orch.RegisterAgent(newMockAgent(a, logger))
	}

	actions := registry.NewActionRegistry(orch, logger)
	signals := registry.NewSignalRegistry(logger)

	if cfg.Metrics.Enabled {
		metrics.Bind(bus, actions, signals, store)
	}

	reg := &plugin.Registry{
		Actions:      actions,
		Signals:      signals,
		State:        store,
		Events:       bus,
		Orchestrator: orch,
	}
	if err := plugin.Load(cfg.Plugins.Enabled, reg); err != nil {
		return fmt.Errorf("loading plugins: %w", err)
	}

	binds, err := bindings.Load(cfg.Bindings.Path)
	if err != nil {
		return fmt.Errorf("loading bindings: %w", err)
	}

	tracker := dedupe.NewTracker(cfg.Signals.DedupeTTL, cfg.Signals.DedupeMax)
	defer tracker.Close()

	srv := server.New(server.Options{
		Orchestrator: orch,
		Actions:      actions,
		Signals:      signals,
		Bindings:     bindings.NewResolver(binds),
		Deliveries:   tracker,
		Config:       cfg.Server,
		Metrics:      cfg.Metrics,
		Logger:       logger,
	})

	return srv.Run(ctx)
}

// newMockAgent builds a mock agent from its config block.
func newMockAgent(a config.AgentConfig, logger *slog.Logger) *agent.Mock {
	opts := []agent.MockOption{
		agent.WithLogger(logger),
		agent.WithCapabilities(a.Capabilities),
	}
	if a.WorkDelay > 0 {
		delay := a.WorkDelay
		opts = append(opts, agent.WithWork(func(ctx context.Context) error {
			select {
			case <-time.After(delay):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}))
	}
	return agent.NewMock(a.ID, opts...)
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

const starterConfig = `# hearth configuration
# Created by hearth init

[server]
listen_addr = "127.0.0.1:8700"
shutdown_timeout = "10s"

[logging]
level = "info"   # debug, info, warn, error
format = "text"  # text, json

[[agents]]
id = "mock-1"
type = "mock"
capabilities = ["chat"]

[plugins]
enabled = ["builtin"]

[signals]
dedupe_ttl = "5m"
dedupe_max = 4096

[metrics]
enabled = true
path = "/metrics"
`

// runInit writes a starter config file unless one already exists.
func runInit() error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config already exists at %s", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(starterConfig), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("✓ Created config: %s\n", configPath)
	fmt.Println("  Edit it, then run: hearth serve")
	return nil
}

func runHealth(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/health", cfg.Server.ListenAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

func runAgents(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/agents", cfg.Server.ListenAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("listing agents failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("listing agents: status %d: %s", resp.StatusCode, body)
	}

	var infos []agent.Info
	if err := json.NewDecoder(resp.Body).Decode(&infos); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Agents")
	cyan.Println("  ------")

	if len(infos) == 0 {
		fmt.Println("  (no agents registered)")
		fmt.Println()
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tTYPE\tSTATUS\tCAPABILITIES")
	fmt.Fprintln(w, "  --\t----\t------\t------------")
	for _, info := range infos {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%v\n", info.ID, info.Type, info.Status, info.Capabilities)
	}
	w.Flush()
	fmt.Println()

	return nil
}
