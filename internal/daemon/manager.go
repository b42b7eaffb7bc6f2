// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/playctl/internal/config"
	"github.com/ManuGH/playctl/internal/log"
)

// ShutdownHook is a function that performs cleanup during graceful shutdown.
// Hooks are executed in reverse registration order (LIFO).
type ShutdownHook func(ctx context.Context) error

// Manager manages the daemon lifecycle: starting servers, handling shutdown.
type Manager interface {
	// Start starts all configured servers and blocks until shutdown
	Start(ctx context.Context) error

	// Shutdown gracefully shuts down all servers
	Shutdown(ctx context.Context) error

	// RegisterShutdownHook registers a function to be called during shutdown
	RegisterShutdownHook(name string, hook ShutdownHook)

	// Addr returns the bound API address once Start has listened.
	Addr() string
}

type manager struct {
	serverCfg config.ServerConfig
	deps      Deps

	apiServer     *http.Server
	metricsServer *http.Server
	apiAddr       string

	shutdownHooks []namedHook

	started  bool
	stopping bool
	mu       sync.Mutex

	logger zerolog.Logger
}

type namedHook struct {
	name string
	hook ShutdownHook
}

// NewManager creates a new daemon manager with the given configuration and dependencies.
func NewManager(serverCfg config.ServerConfig, deps Deps) (Manager, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}

	return &manager{
		serverCfg:     serverCfg,
		deps:          deps,
		logger:        deps.Logger.With().Str(log.FieldComponent, "manager").Logger(),
		shutdownHooks: make([]namedHook, 0),
	}, nil
}

// Start listens on the configured addresses and blocks until ctx is
// cancelled or a server fails, then shuts down.
func (m *manager) Start(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("start context is nil")
	}

	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return fmt.Errorf("manager already started")
	}
	m.started = true
	m.mu.Unlock()

	m.logger.Info().
		Str("listen", m.serverCfg.ListenAddr).
		Str("metrics_listen", m.deps.MetricsAddr).
		Dur("shutdown_timeout", m.serverCfg.ShutdownTimeout).
		Msg("Starting daemon manager")

	errChan := make(chan error, 2)

	if m.deps.MetricsHandler != nil && m.deps.MetricsAddr != "" {
		if err := m.startMetricsServer(errChan); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	if err := m.startAPIServer(errChan); err != nil {
		m.shutdownWithTimeout(ctx)
		return fmt.Errorf("failed to start API server: %w", err)
	}

	select {
	case err := <-errChan:
		m.logger.Error().Err(err).Msg("Server error, initiating shutdown")
		if shutdownErr := m.shutdownWithTimeout(ctx); shutdownErr != nil {
			return fmt.Errorf("server error and shutdown failure: %w", errors.Join(err, shutdownErr))
		}
		return err
	case <-ctx.Done():
		m.logger.Info().Msg("Shutdown signal received")
		return m.shutdownWithTimeout(ctx)
	}
}

// shutdownWithTimeout uses a detached-but-bounded context so shutdown can
// complete even though the parent is cancelled.
func (m *manager) shutdownWithTimeout(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	return m.Shutdown(shutdownCtx)
}

func (m *manager) startAPIServer(errChan chan<- error) error {
	ln, err := net.Listen("tcp", m.serverCfg.ListenAddr)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.apiAddr = ln.Addr().String()
	m.apiServer = &http.Server{
		Handler:           m.deps.APIHandler,
		ReadHeaderTimeout: m.serverCfg.ReadHeaderTimeout,
		MaxHeaderBytes:    1 << 20,
	}
	srv := m.apiServer
	m.mu.Unlock()

	go func() {
		m.logger.Info().
			Str("addr", ln.Addr().String()).
			Msg("API server listening (HTTP)")

		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error().
				Err(err).
				Str(log.FieldEvent, "api.server.failed").
				Msg("API server (HTTP) failed")
			errChan <- fmt.Errorf("API server (HTTP): %w", err)
		}
	}()

	return nil
}

func (m *manager) startMetricsServer(errChan chan<- error) error {
	ln, err := net.Listen("tcp", m.deps.MetricsAddr)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.metricsServer = &http.Server{
		Handler:           m.deps.MetricsHandler,
		ReadHeaderTimeout: m.serverCfg.ReadHeaderTimeout,
	}
	srv := m.metricsServer
	m.mu.Unlock()

	go func() {
		m.logger.Info().
			Str("addr", ln.Addr().String()).
			Msg("Metrics server listening")

		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error().
				Err(err).
				Str(log.FieldEvent, "metrics.server.failed").
				Msg("Metrics server failed")
			errChan <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	return nil
}

func (m *manager) Addr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apiAddr
}

func (m *manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("shutdown context is nil")
	}

	m.mu.Lock()
	if m.stopping {
		m.mu.Unlock()
		return nil
	}
	if !m.started {
		m.mu.Unlock()
		return ErrManagerNotStarted
	}
	m.stopping = true
	apiServer, metricsServer := m.apiServer, m.metricsServer
	hooks := append([]namedHook(nil), m.shutdownHooks...)
	m.mu.Unlock()

	m.logger.Info().Msg("Shutting down daemon manager")

	timeout := m.serverCfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	var errs []error

	// Stop accepting requests before hooks tear down the sessions they reach.
	if apiServer != nil {
		m.logger.Debug().Msg("Shutting down API server")
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("API server shutdown: %w", err))
		}
	}

	for i := len(hooks) - 1; i >= 0; i-- {
		hook := hooks[i]
		m.logger.Debug().Str("hook", hook.name).Msg("Executing shutdown hook")

		hookStart := time.Now()
		if err := hook.hook(shutdownCtx); err != nil {
			m.logger.Error().
				Err(err).
				Str("hook", hook.name).
				Int64(log.FieldDuration, time.Since(hookStart).Milliseconds()).
				Msg("Shutdown hook failed")
			errs = append(errs, fmt.Errorf("hook %s: %w", hook.name, err))
		} else {
			m.logger.Debug().
				Str("hook", hook.name).
				Int64(log.FieldDuration, time.Since(hookStart).Milliseconds()).
				Msg("Shutdown hook completed")
		}
	}

	// Metrics last so the teardown above stays scrapeable.
	if metricsServer != nil {
		m.logger.Debug().Msg("Shutting down metrics server")
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		m.logger.Error().
			Int("error_count", len(errs)).
			Msg("Shutdown completed with errors")
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	m.logger.Info().Msg("Daemon manager stopped cleanly")
	return nil
}

// RegisterShutdownHook registers a cleanup function to be called during shutdown.
// Hooks are executed in reverse registration order (LIFO).
func (m *manager) RegisterShutdownHook(name string, hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shutdownHooks = append(m.shutdownHooks, namedHook{
		name: name,
		hook: hook,
	})
	m.logger.Debug().Str("hook", name).Msg("Registered shutdown hook")
}
