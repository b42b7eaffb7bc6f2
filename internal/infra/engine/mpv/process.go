// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package mpv

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/ManuGH/playctl/internal/domain/playback/ports"
	"github.com/ManuGH/playctl/internal/log"
)

// Config controls how mpv processes are launched.
type Config struct {
	Binary         string
	SocketDir      string
	ExtraArgs      []string
	ConnectTimeout time.Duration
	// DialInterval paces connection attempts while mpv creates its socket.
	DialInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.Binary == "" {
		c.Binary = "mpv"
	}
	if c.SocketDir == "" {
		c.SocketDir = os.TempDir()
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.DialInterval <= 0 {
		c.DialInterval = 100 * time.Millisecond
	}
	return c
}

// Factory launches one mpv process per session.
type Factory struct {
	cfg Config
}

func NewFactory(cfg Config) *Factory {
	return &Factory{cfg: cfg.withDefaults()}
}

// Available reports whether the mpv binary can be resolved.
func (f *Factory) Available() error {
	_, err := exec.LookPath(f.cfg.Binary)
	return err
}

// NewEngine implements ports.EngineFactory.
func (f *Factory) NewEngine(ctx context.Context, sessionID string) (ports.Engine, error) {
	logger := log.WithComponentFromContext(ctx, "engine.mpv")
	socket := filepath.Join(f.cfg.SocketDir, "playctl-"+sessionID+".sock")

	args := append([]string{
		"--idle=yes",
		"--no-terminal",
		"--keep-open=no",
		"--input-ipc-server=" + socket,
	}, f.cfg.ExtraArgs...)

	cmd := exec.Command(f.cfg.Binary, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start mpv: %w", err)
	}
	logger.Info().Int("pid", cmd.Process.Pid).Str("socket", socket).Msg("mpv started")

	exited := make(chan struct{})
	go func() {
		if err := cmd.Wait(); err != nil {
			logger.Debug().Err(err).Msg("mpv exited")
		}
		close(exited)
	}()

	reap := func() error {
		select {
		case <-exited:
		case <-time.After(3 * time.Second):
			_ = cmd.Process.Kill()
			<-exited
		}
		if err := os.Remove(socket); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}

	conn, err := dial(ctx, socket, f.cfg.ConnectTimeout, f.cfg.DialInterval, exited)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = reap()
		return nil, err
	}

	e, err := NewEngine(ctx, conn, sessionID, reap)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// dial connects to the IPC socket, retrying at a fixed pace until the
// timeout expires or the process exits.
func dial(ctx context.Context, socket string, timeout, interval time.Duration, exited <-chan struct{}) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(interval), 1)
	var d net.Dialer
	var lastErr error
	for {
		if err := limiter.Wait(ctx); err != nil {
			if lastErr != nil {
				return nil, fmt.Errorf("connect mpv socket %s: %w", socket, lastErr)
			}
			return nil, fmt.Errorf("connect mpv socket %s: %w", socket, err)
		}
		select {
		case <-exited:
			return nil, errors.New("mpv exited before accepting ipc connections")
		default:
		}
		conn, err := d.DialContext(ctx, "unix", socket)
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
}
