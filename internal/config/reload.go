// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/ManuGH/playctl/internal/log"
)

const defaultDebounce = 500 * time.Millisecond

// Holder holds configuration with atomic reloading capability.
type Holder struct {
	mu       sync.RWMutex
	current  AppConfig
	loader   *Loader
	logger   zerolog.Logger
	debounce time.Duration

	watchMu sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}

	listenMu  sync.RWMutex
	listeners []chan<- AppConfig
}

// NewHolder creates a holder with an already loaded initial config.
func NewHolder(initial AppConfig, loader *Loader) *Holder {
	return &Holder{
		current:  initial,
		loader:   loader,
		logger:   log.WithComponent("config"),
		debounce: defaultDebounce,
	}
}

// Get returns the current configuration.
func (h *Holder) Get() AppConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Reload loads and validates the configuration again. On failure the old
// configuration stays active.
func (h *Holder) Reload(_ context.Context) error {
	h.logger.Info().Str(log.FieldEvent, "config.reload_start").Msg("reloading configuration")

	next, err := h.loader.Load()
	if err != nil {
		h.logger.Error().Err(err).Str(log.FieldEvent, "config.reload_failed").Msg("failed to load new configuration")
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	prev := h.current
	h.current = next
	h.mu.Unlock()

	h.logChanges(prev, next)
	h.notify(next)

	h.logger.Info().Str(log.FieldEvent, "config.reload_success").Msg("configuration reloaded successfully")
	return nil
}

// StartWatcher watches the config file and reloads it after changes settle.
// Without a config file this is a no-op.
func (h *Holder) StartWatcher(ctx context.Context) error {
	path := h.loader.Path()
	if path == "" {
		h.logger.Info().Str(log.FieldEvent, "config.watcher_disabled").
			Msg("config file watcher disabled (using ENV-only configuration)")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory: editors and config management replace the file.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}

	h.watchMu.Lock()
	h.watcher = watcher
	h.done = make(chan struct{})
	done := h.done
	h.watchMu.Unlock()

	h.logger.Info().Str(log.FieldEvent, "config.watcher_started").Str("path", path).Msg("watching config file for changes")
	go h.watchLoop(ctx, watcher, filepath.Clean(path), done)
	return nil
}

func (h *Holder) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, path string, done chan struct{}) {
	defer close(done)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			_ = watcher.Close()
			h.logger.Info().Str(log.FieldEvent, "config.watcher_stopped").Msg("config watcher stopped")
			return

		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			h.logger.Debug().Str(log.FieldEvent, "config.file_changed").Str("op", ev.Op.String()).Msg("config file changed")
			if timer == nil {
				timer = time.NewTimer(h.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(h.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := h.Reload(ctx); err != nil {
				h.logger.Error().Err(err).Str(log.FieldEvent, "config.auto_reload_failed").Msg("automatic config reload failed")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Str(log.FieldEvent, "config.watcher_error").Msg("config watcher error")
		}
	}
}

// Stop closes the watcher and waits for its loop to exit.
func (h *Holder) Stop() {
	h.watchMu.Lock()
	watcher, done := h.watcher, h.done
	h.watcher, h.done = nil, nil
	h.watchMu.Unlock()

	if watcher == nil {
		return
	}
	_ = watcher.Close()
	<-done
}

// RegisterListener registers a channel to receive every successfully
// reloaded config. Sends never block; a full channel misses the update.
func (h *Holder) RegisterListener(ch chan<- AppConfig) {
	h.listenMu.Lock()
	defer h.listenMu.Unlock()
	h.listeners = append(h.listeners, ch)
}

func (h *Holder) notify(cfg AppConfig) {
	h.listenMu.RLock()
	defer h.listenMu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- cfg:
		default:
			h.logger.Warn().Str(log.FieldEvent, "config.listener_full").Msg("config listener channel full, skipping notification")
		}
	}
}

func (h *Holder) logChanges(prev, next AppConfig) {
	if prev.LogLevel != next.LogLevel {
		h.logger.Info().Str("old", prev.LogLevel).Str("new", next.LogLevel).Msg("log level changed")
	}
	if prev.Engine.Kind != next.Engine.Kind {
		h.logger.Warn().Str("old", prev.Engine.Kind).Str("new", next.Engine.Kind).
			Msg("engine kind changed; applies after restart")
	}
	if prev.Server.ListenAddr != next.Server.ListenAddr {
		h.logger.Warn().Str("old", prev.Server.ListenAddr).Str("new", next.Server.ListenAddr).
			Msg("listen address changed; applies after restart")
	}
	if prev.Ads.Enabled != next.Ads.Enabled {
		h.logger.Info().Bool("enabled", next.Ads.Enabled).Msg("ad insertion toggled")
	}
}
