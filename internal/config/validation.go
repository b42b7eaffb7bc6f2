// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/rs/zerolog"
)

// Validate reports every problem in cfg, joined. Each wraps ErrInvalidConfig.
func Validate(cfg AppConfig) error {
	var errs []error
	bad := func(field, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s: %s", ErrInvalidConfig, field, fmt.Sprintf(format, args...)))
	}

	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil || cfg.LogLevel == "" {
		bad("logLevel", "unknown level %q", cfg.LogLevel)
	}

	if _, _, err := net.SplitHostPort(cfg.Server.ListenAddr); err != nil {
		bad("server.listenAddr", "%v", err)
	}
	if cfg.Server.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(cfg.Server.MetricsAddr); err != nil {
			bad("server.metricsAddr", "%v", err)
		}
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		bad("server.shutdownTimeout", "must be positive")
	}
	if cfg.Server.RateLimit < 0 {
		bad("server.rateLimit", "must not be negative")
	}
	if cfg.Server.MaxSessions <= 0 {
		bad("server.maxSessions", "must be positive")
	}

	switch cfg.Engine.Kind {
	case EngineSim:
		if cfg.Engine.Sim.Duration <= 0 {
			bad("engine.sim.duration", "must be positive")
		}
		if cfg.Engine.Sim.BufferDelay < 0 {
			bad("engine.sim.bufferDelay", "must not be negative")
		}
		switch cfg.Engine.Sim.Rotation {
		case 0, 90, 180, 270:
		default:
			bad("engine.sim.rotation", "must be one of 0, 90, 180, 270")
		}
	case EngineMPV:
		if cfg.Engine.MPV.Binary == "" {
			bad("engine.mpv.binary", "must be set")
		}
	default:
		bad("engine.kind", "unknown engine %q (want %s or %s)", cfg.Engine.Kind, EngineSim, EngineMPV)
	}

	if cfg.Ads.Enabled {
		if cfg.Ads.BreakerThreshold <= 0 {
			bad("ads.breakerThreshold", "must be positive")
		}
		if cfg.Ads.MaxOverlays <= 0 {
			bad("ads.maxOverlays", "must be positive")
		}
	}

	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.Exporter != "grpc" && cfg.Telemetry.Exporter != "http" {
			bad("telemetry.exporter", "unknown exporter %q", cfg.Telemetry.Exporter)
		}
		if cfg.Telemetry.Endpoint == "" {
			bad("telemetry.endpoint", "must be set")
		}
	}
	if cfg.Telemetry.SamplingRate < 0 || cfg.Telemetry.SamplingRate > 1 {
		bad("telemetry.samplingRate", "must be within [0,1]")
	}

	return errors.Join(errs...)
}
