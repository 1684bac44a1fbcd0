package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/a3tai/mandat-pdf/internal/api"
	"github.com/a3tai/mandat-pdf/internal/config"
	"github.com/a3tai/mandat-pdf/internal/logging"
	"github.com/a3tai/mandat-pdf/internal/mandate"
	"github.com/a3tai/mandat-pdf/internal/mcp"
	"github.com/a3tai/mandat-pdf/internal/metrics"
	"github.com/a3tai/mandat-pdf/internal/pdf/template"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

func main() {
	cfg, err := config.LoadFromFlags()
	switch {
	case errors.Is(err, config.ErrVersionRequested):
		printVersion(os.Stdout)
		return
	case errors.Is(err, pflag.ErrHelp):
		return
	case err != nil:
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if version != "dev" {
		cfg.Version = version
	}

	// stdout carries the MCP protocol in stdio mode
	log, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Debug:  cfg.Debug,
		Stderr: cfg.IsStdioMode(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Server error", zap.Error(err))
		os.Exit(1)
	}
	log.Info("Server stopped successfully")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	if cfg.IsDebug() {
		log.Debug("Starting with configuration", zap.String("config", cfg.String()))
	}

	mapping, err := mandate.LoadMapping(cfg.MappingFile)
	if err != nil {
		return err
	}

	loader := template.NewLoader(cfg.TemplateDir, cfg.MaxFileSize)
	if path, err := loader.Path(); err != nil {
		// Not fatal: the template may be deployed after start-up.
		log.Warn("Mandate template not available yet", zap.Error(err))
	} else {
		log.Info("Mandate template found", zap.String("path", path))
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	generator := mandate.NewGenerator(loader, mapping,
		mandate.WithLogger(log.Named("mandate")),
		mandate.WithRecorder(m),
	)

	if cfg.IsStdioMode() {
		server, err := mcp.NewServer(cfg, generator, loader, log.Named("mcp"))
		if err != nil {
			return fmt.Errorf("failed to create MCP server: %w", err)
		}
		return server.Run(ctx)
	}

	server := api.NewServer(generator, api.Options{
		Logger:   log.Named("http"),
		Observer: m,
	})
	server.SetupRoutes()
	return server.Start(ctx, cfg.Address())
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "Mandat PDF\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
