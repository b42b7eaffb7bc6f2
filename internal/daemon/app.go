// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/playctl/internal/config"
	"github.com/ManuGH/playctl/internal/log"
)

// App owns the long-lived runtime lifecycle (config watcher, reload wiring)
// and delegates server management to Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	cfgHolder    *config.Holder
	apply        func(config.AppConfig)
	reloadSignal os.Signal
}

// NewApp creates a new App orchestrator. apply, when set, runs on every
// successful config reload.
func NewApp(logger zerolog.Logger, manager Manager, cfgHolder *config.Holder, apply func(config.AppConfig)) *App {
	return &App{
		logger:       logger,
		manager:      manager,
		cfgHolder:    cfgHolder,
		apply:        apply,
		reloadSignal: syscall.SIGHUP,
	}
}

// Run starts all owned background subsystems and blocks until ctx is cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	if a.cfgHolder != nil {
		// Best-effort: startup does not fail if the watcher cannot start.
		if err := a.cfgHolder.StartWatcher(ctx); err != nil {
			a.logger.Warn().Err(err).Str(log.FieldEvent, "config.watcher_start_failed").Msg("failed to start config watcher")
		}
		defer a.cfgHolder.Stop()

		if a.apply != nil {
			applyCh := make(chan config.AppConfig, 1)
			a.cfgHolder.RegisterListener(applyCh)
			g.Go(func() error {
				for {
					select {
					case <-ctx.Done():
						return nil
					case cfg := <-applyCh:
						a.apply(cfg)
					}
				}
			})
		}

		if a.reloadSignal != nil {
			g.Go(func() error {
				hupChan := make(chan os.Signal, 1)
				signal.Notify(hupChan, a.reloadSignal)
				defer signal.Stop(hupChan)

				for {
					select {
					case <-ctx.Done():
						return nil
					case <-hupChan:
						a.logger.Info().
							Str(log.FieldEvent, "config.reload_signal").
							Str("signal", a.reloadSignal.String()).
							Msg("received reload signal, reloading config")

						if err := a.cfgHolder.Reload(context.WithoutCancel(ctx)); err != nil {
							a.logger.Warn().
								Err(err).
								Str(log.FieldEvent, "config.reload_failed").
								Msg("config reload failed")
						}
					}
				}
			})
		}
	}

	g.Go(func() error {
		err := a.manager.Start(ctx)
		if err != nil {
			_ = a.manager.Shutdown(context.Background())
		}
		return err
	})

	return g.Wait()
}
