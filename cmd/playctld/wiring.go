// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/playctl/internal/config"
	v1 "github.com/ManuGH/playctl/internal/control/http/v1"
	"github.com/ManuGH/playctl/internal/control/middleware"
	"github.com/ManuGH/playctl/internal/domain/playback/model"
	"github.com/ManuGH/playctl/internal/domain/playback/ports"
	"github.com/ManuGH/playctl/internal/domain/playback/session"
	"github.com/ManuGH/playctl/internal/domain/playback/source"
	"github.com/ManuGH/playctl/internal/health"
	"github.com/ManuGH/playctl/internal/infra/ads/vast"
	"github.com/ManuGH/playctl/internal/infra/engine/mpv"
	"github.com/ManuGH/playctl/internal/infra/engine/sim"
	"github.com/ManuGH/playctl/internal/infra/overlay"
	"github.com/ManuGH/playctl/internal/infra/texture"
	xglog "github.com/ManuGH/playctl/internal/log"
	"github.com/ManuGH/playctl/internal/platform/httpx"
	"github.com/ManuGH/playctl/internal/version"
)

// runtime is the wired object graph of one daemon.
type runtime struct {
	holder    *config.Holder
	registry  *session.Registry
	health    *health.Manager
	rateLimit int
}

type engineFactory interface {
	ports.EngineFactory
	Available() error
}

type simFactory struct{ *sim.Factory }

func (simFactory) Available() error { return nil }

func newEngineFactory(cfg config.EngineConfig) engineFactory {
	if cfg.Kind == config.EngineMPV {
		return mpv.NewFactory(mpv.Config{
			Binary:         cfg.MPV.Binary,
			SocketDir:      cfg.MPV.SocketDir,
			ExtraArgs:      cfg.MPV.ExtraArgs,
			ConnectTimeout: cfg.MPV.ConnectTimeout,
		})
	}
	sc := sim.DefaultConfig()
	sc.BufferDelay = cfg.Sim.BufferDelay
	sc.Duration = cfg.Sim.Duration
	sc.Width, sc.Height = cfg.Sim.Width, cfg.Sim.Height
	sc.Rotation = cfg.Sim.Rotation
	sc.FailOn = cfg.Sim.FailOn
	return simFactory{sim.NewFactory(sc)}
}

// adsGate consults the live configuration before every ad engine is created,
// so toggling ads.enabled takes effect without a restart.
type adsGate struct {
	holder *config.Holder
	next   ports.AdEngineFactory
}

func (g adsGate) NewAdEngine(ctx context.Context, tag string, l ports.AdEventListener) (ports.AdEngine, error) {
	if !g.holder.Get().Ads.Enabled {
		return nil, fmt.Errorf("%w: ad insertion disabled", model.ErrOverlayUnavailable)
	}
	return g.next.NewAdEngine(ctx, tag, l)
}

func newRuntime(holder *config.Holder) *runtime {
	cfg := holder.Get()

	engines := newEngineFactory(cfg.Engine)

	fetcher := vast.NewFetcher(
		httpx.NewClient(cfg.Ads.FetchTimeout, httpx.WithTracing("vast.fetch")),
		vast.NewBreaker(cfg.Ads.BreakerThreshold, cfg.Ads.BreakerReset),
		cfg.Ads.FetchTimeout,
	)

	registry := session.NewRegistry(session.Deps{
		Engines:    engines,
		EngineName: cfg.Engine.Kind,
		Surfaces:   texture.NewRegistry(),
		Overlays:   overlay.NewRegistry(cfg.Ads.MaxOverlays),
		Ads:        adsGate{holder: holder, next: vast.NewFactory(fetcher)},
		Source:     source.Options{UserAgent: cfg.Player.UserAgent},
	}, session.WithMaxSessions(cfg.Server.MaxSessions))

	hm := health.NewManager(version.Version)
	hm.RegisterChecker(health.NewEngineChecker(cfg.Engine.Kind, engines.Available))
	hm.RegisterChecker(health.NewSessionCapacityChecker(registry.Len, cfg.Server.MaxSessions))

	return &runtime{
		holder:    holder,
		registry:  registry,
		health:    hm,
		rateLimit: cfg.Server.RateLimit,
	}
}

// handler builds the HTTP surface: control API, health endpoints and optionally /metrics.
func (rt *runtime) handler(withMetrics bool) http.Handler {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableMetrics:  true,
		TracingService: "playctl-api",
		EnableLogging:  true,
	})

	r.Get("/healthz", rt.health.ServeHealth)
	r.Get("/readyz", rt.health.ServeReady)
	if withMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Group(func(r chi.Router) {
		if rt.rateLimit > 0 {
			r.Use(middleware.RateLimit(middleware.RateLimitConfig{
				RequestLimit: rt.rateLimit,
				WindowSize:   time.Minute,
			}))
		}
		r.Mount("/api/v1", v1.NewServer(rt.registry).Routes())
	})
	return r
}

// apply reacts to a reloaded configuration. Only the log level and the ads
// toggle (read live by adsGate) take effect without a restart.
func (rt *runtime) apply(cfg config.AppConfig) {
	if err := xglog.SetLevel(cfg.LogLevel); err != nil {
		logger := xglog.WithComponent("daemon")
		logger.Warn().Err(err).Str("level", cfg.LogLevel).Msg("ignoring invalid log level")
	}
}
