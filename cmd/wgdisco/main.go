// wgdisco advertises WireGuard endpoints as DNS-SD records and discovers
// peers by walking the PTR/SRV/TXT/A chain back out of DNS. Records are
// published through pluggable providers (RFC 2136, Cloudflare, remote zone
// files).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/wgdisco/internal/config"
	"gitlab.bluewillows.net/root/wgdisco/internal/metrics"
	"gitlab.bluewillows.net/root/wgdisco/pkg/provider"
	"gitlab.bluewillows.net/root/wgdisco/providers/cloudflare"
	"gitlab.bluewillows.net/root/wgdisco/providers/rfc2136"
	"gitlab.bluewillows.net/root/wgdisco/providers/zonefile"
)

// Version and BuildDate are set via ldflags during build.
// Example: -ldflags="-X main.Version=v1.0.0 -X main.BuildDate=2026-08-25"
var (
	Version   = "dev"
	BuildDate = "unknown"
)

// defaultConfigFile is used when --config is not given and the
// WGDISCO_CONFIG environment variable is unset.
const defaultConfigFile = "wgdisco.yaml"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "wgdisco",
		Short:   "DNS-SD advertisement and discovery for WireGuard endpoints",
		Version: Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Show help by default when no subcommand is provided.
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultConfig := os.Getenv("WGDISCO_CONFIG")
	if defaultConfig == "" {
		defaultConfig = defaultConfigFile
	}
	cmd.PersistentFlags().String("config", defaultConfig, "Configuration file (env WGDISCO_CONFIG)")
	cmd.PersistentFlags().String("log-level", "", "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().String("log-format", "", "Log format (text|json)")
	cmd.PersistentFlags().String("metrics-file", "", "Write Prometheus textfile-collector metrics here on exit")

	cmd.AddCommand(newCmdAnnounce())
	cmd.AddCommand(newCmdRenounce())
	cmd.AddCommand(newCmdDiscover())
	cmd.AddCommand(newCmdPing())

	return cmd
}

// app carries per-invocation state shared by the subcommands.
type app struct {
	cfg         *config.Config
	logger      *slog.Logger
	metricsPath string
}

// newApp loads configuration and sets up logging for a command run.
// A missing config file is only an error when --config was set explicitly;
// discover can run entirely from flags.
func newApp(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg := &config.Config{}
	if _, err := os.Stat(path); err == nil {
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	} else if cmd.Flags().Changed("config") {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	level, _ := cmd.Flags().GetString("log-level")
	if level == "" {
		level = cfg.Logging.Level
	}
	format, _ := cmd.Flags().GetString("log-format")
	if format == "" {
		format = cfg.Logging.Format
	}

	logger := setupLogger(level, format)
	slog.SetDefault(logger)

	metrics.SetBuildInfo(Version, runtime.Version())

	metricsPath, _ := cmd.Flags().GetString("metrics-file")
	if metricsPath == "" {
		metricsPath = cfg.Metrics.TextfilePath
	}

	return &app{cfg: cfg, logger: logger, metricsPath: metricsPath}, nil
}

// writeMetrics dumps collected metrics in textfile-collector format if a
// target path is configured. Failures are logged, not fatal: the DNS work
// already happened.
func (a *app) writeMetrics() {
	if a.metricsPath == "" {
		return
	}
	if err := metrics.WriteTextfile(a.metricsPath); err != nil {
		a.logger.Warn("writing metrics textfile failed",
			slog.String("path", a.metricsPath),
			slog.String("error", err.Error()),
		)
	}
}

// buildProvider selects the configured provider instance for a domain and
// instantiates it.
func (a *app) buildProvider(domain string) (provider.Provider, error) {
	if len(a.cfg.Providers) == 0 {
		return nil, fmt.Errorf("no providers configured; announce and renounce need a config file")
	}

	pc, err := a.cfg.SelectProvider(domain)
	if err != nil {
		return nil, err
	}

	registry := newProviderRegistry()
	p, err := registry.CreateInstance(pc.Type, pc.Name, pc.Settings)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("provider selected",
		slog.String("domain", domain),
		slog.String("provider", pc.Name),
		slog.String("type", pc.Type),
	)
	return p, nil
}

// newProviderRegistry returns a registry with all built-in provider
// factories registered.
func newProviderRegistry() *provider.Registry {
	registry := provider.NewRegistry()
	registry.RegisterFactory("rfc2136", rfc2136.Factory())
	registry.RegisterFactory("cloudflare", cloudflare.Factory())
	registry.RegisterFactory("zonefile", zonefile.Factory())
	return registry
}

func setupLogger(level, format string) *slog.Logger {
	logLevel := parseLogLevel(level)

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	}

	return slog.New(handler)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	root.SetContext(ctx)

	if err := root.Execute(); err != nil {
		slog.Error("fatal error", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}
