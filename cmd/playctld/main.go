// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command playctld hosts video players behind an HTTP control API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/playctl/internal/config"
	"github.com/ManuGH/playctl/internal/daemon"
	"github.com/ManuGH/playctl/internal/health"
	xglog "github.com/ManuGH/playctl/internal/log"
	"github.com/ManuGH/playctl/internal/telemetry"
	"github.com/ManuGH/playctl/internal/version"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			os.Exit(runConfigCLI(os.Args[2:]))
		case "healthcheck":
			os.Exit(runHealthcheckCLI(os.Args[2:]))
		}
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Safe defaults until config is loaded.
	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: "playctl",
		Version: version.Version,
	})
	logger := xglog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := strings.TrimSpace(*configPath)
	if path == "" {
		path = strings.TrimSpace(config.ParseString(config.EnvPrefix+"CONFIG", ""))
	}

	// Precedence: ENV > File > Defaults
	loader := config.NewLoader(path, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "config.load_failed").
			Str("config_path", path).
			Msg("failed to load configuration")
	}

	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: cfg.Version,
	})

	source := "env+defaults"
	if path != "" {
		source = "file"
	}
	logger.Info().
		Str(xglog.FieldEvent, "config.loaded").
		Str("source", source).
		Str("path", path).
		Msg("configuration loaded")

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "startup.check_failed").
			Msg("Startup checks failed. Please verify configuration and permissions.")
	}

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.LogService,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		logger.Fatal().Err(err).Str(xglog.FieldEvent, "telemetry.init_failed").Msg("failed to initialize tracing")
	}

	holder := config.NewHolder(cfg, loader)
	rt := newRuntime(holder)

	logger.Info().
		Str(xglog.FieldEvent, "startup").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("build_date", version.Date).
		Str("addr", cfg.Server.ListenAddr).
		Str(xglog.FieldEngine, cfg.Engine.Kind).
		Bool("ads", cfg.Ads.Enabled).
		Int("max_sessions", cfg.Server.MaxSessions).
		Msg("starting playctld")

	deps := daemon.Deps{
		Logger:     logger,
		APIHandler: rt.handler(cfg.Server.MetricsAddr == ""),
	}
	if cfg.Server.MetricsAddr != "" {
		deps.MetricsHandler = promhttp.Handler()
		deps.MetricsAddr = cfg.Server.MetricsAddr
	}

	mgr, err := daemon.NewManager(cfg.Server, deps)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "manager.creation.failed").
			Msg("failed to create daemon manager")
	}
	mgr.RegisterShutdownHook("telemetry", tp.Shutdown)
	mgr.RegisterShutdownHook("sessions", rt.registry.DisposeAll)

	app := daemon.NewApp(logger, mgr, holder, rt.apply)
	if err := app.Run(ctx); err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "manager.failed").
			Msg("daemon app failed")
	}

	logger.Info().Msg("server exiting")
}
