// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config captures options for configuring the global logger.
type Config struct {
	Level   string    // optional log level ("debug", "info", etc.)
	Output  io.Writer // optional writer (defaults to os.Stdout)
	Service string    // optional service name attached to every log entry
	Version string    // optional build version attached to every log entry
}

var (
	once sync.Once
	mu   sync.RWMutex
	base zerolog.Logger
)

// Configure initialises the global zerolog logger exactly once.
func Configure(cfg Config) {
	once.Do(func() {
		zerolog.SetGlobalLevel(parseLevel(cfg.Level, os.Getenv("PLAYCTL_LOG_LEVEL")))
		zerolog.TimeFieldFormat = time.RFC3339

		writer := cfg.Output
		if writer == nil {
			writer = os.Stdout
		}

		service := cfg.Service
		if service == "" {
			service = os.Getenv("PLAYCTL_LOG_SERVICE")
			if service == "" {
				service = "playctl"
			}
		}

		version := cfg.Version
		if version == "" {
			version = os.Getenv("VERSION")
		}

		mu.Lock()
		base = zerolog.New(writer).With().
			Timestamp().
			Str("service", service).
			Str("version", version).
			Logger()
		mu.Unlock()
	})
}

func parseLevel(candidates ...string) zerolog.Level {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if parsed, err := zerolog.ParseLevel(c); err == nil {
			return parsed
		}
	}
	return zerolog.InfoLevel
}

// SetLevel changes the global level at runtime. Unknown levels are rejected.
func SetLevel(level string) error {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(parsed)
	return nil
}

func logger() zerolog.Logger {
	Configure(Config{})
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// L returns a pointer to a copy of the base logger.
func L() *zerolog.Logger {
	l := logger()
	return &l
}

// Base returns the configured base logger instance.
func Base() zerolog.Logger {
	return logger()
}

// WithComponent returns a child logger annotated with the given component name.
func WithComponent(component string) zerolog.Logger {
	l := logger().With().Str(FieldComponent, component).Logger()
	return l
}

// Derive attaches arbitrary fields to a child logger using the provided builder function.
func Derive(build func(*zerolog.Context)) zerolog.Logger {
	ctx := logger().With()
	if build != nil {
		build(&ctx)
	}
	return ctx.Logger()
}
