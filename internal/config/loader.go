// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence.
type Loader struct {
	configPath string
	version    string
}

// NewLoader creates a loader for the optional YAML file at configPath.
func NewLoader(configPath, version string) *Loader {
	return &Loader{configPath: configPath, version: version}
}

// Path returns the watched file path, empty when running from env only.
func (l *Loader) Path() string { return l.configPath }

// Load loads configuration with precedence: ENV > File > Defaults, then validates it.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	mergeEnv(&cfg)
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadFile decodes the YAML file over cfg with STRICT parsing.
// Unknown fields are fatal so typos never silently fall back to defaults.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "not found in type") {
			return fmt.Errorf("strict config parse error: %w: %v", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

func env(name string) string { return EnvPrefix + name }

// mergeEnv overrides cfg with PLAYCTL_* variables.
func mergeEnv(cfg *AppConfig) {
	cfg.LogLevel = ParseString(env("LOG_LEVEL"), cfg.LogLevel)
	cfg.LogService = ParseString(env("LOG_SERVICE"), cfg.LogService)

	cfg.Server.ListenAddr = ParseString(env("LISTEN_ADDR"), cfg.Server.ListenAddr)
	cfg.Server.ReadHeaderTimeout = ParseDuration(env("READ_HEADER_TIMEOUT"), cfg.Server.ReadHeaderTimeout)
	cfg.Server.ShutdownTimeout = ParseDuration(env("SHUTDOWN_TIMEOUT"), cfg.Server.ShutdownTimeout)
	cfg.Server.RateLimit = ParseInt(env("RATE_LIMIT"), cfg.Server.RateLimit)
	cfg.Server.MaxSessions = ParseInt(env("MAX_SESSIONS"), cfg.Server.MaxSessions)
	cfg.Server.MetricsAddr = ParseString(env("METRICS_ADDR"), cfg.Server.MetricsAddr)

	cfg.Engine.Kind = ParseString(env("ENGINE"), cfg.Engine.Kind)
	cfg.Engine.Sim.BufferDelay = ParseDuration(env("SIM_BUFFER_DELAY"), cfg.Engine.Sim.BufferDelay)
	cfg.Engine.Sim.Duration = ParseDuration(env("SIM_DURATION"), cfg.Engine.Sim.Duration)
	cfg.Engine.Sim.FailOn = ParseString(env("SIM_FAIL_ON"), cfg.Engine.Sim.FailOn)
	cfg.Engine.MPV.Binary = ParseString(env("MPV_BIN"), cfg.Engine.MPV.Binary)
	cfg.Engine.MPV.SocketDir = ParseString(env("MPV_SOCKET_DIR"), cfg.Engine.MPV.SocketDir)
	cfg.Engine.MPV.ExtraArgs = ParseList(env("MPV_EXTRA_ARGS"), cfg.Engine.MPV.ExtraArgs)
	cfg.Engine.MPV.ConnectTimeout = ParseDuration(env("MPV_CONNECT_TIMEOUT"), cfg.Engine.MPV.ConnectTimeout)

	cfg.Ads.Enabled = ParseBool(env("ADS_ENABLED"), cfg.Ads.Enabled)
	cfg.Ads.FetchTimeout = ParseDuration(env("ADS_FETCH_TIMEOUT"), cfg.Ads.FetchTimeout)
	cfg.Ads.BreakerThreshold = ParseInt(env("ADS_BREAKER_THRESHOLD"), cfg.Ads.BreakerThreshold)
	cfg.Ads.BreakerReset = ParseDuration(env("ADS_BREAKER_RESET"), cfg.Ads.BreakerReset)
	cfg.Ads.MaxOverlays = ParseInt(env("ADS_MAX_OVERLAYS"), cfg.Ads.MaxOverlays)

	cfg.Player.UserAgent = ParseString(env("USER_AGENT"), cfg.Player.UserAgent)

	cfg.Telemetry.Enabled = ParseBool(env("OTEL_ENABLED"), cfg.Telemetry.Enabled)
	cfg.Telemetry.Environment = ParseString(env("ENVIRONMENT"), cfg.Telemetry.Environment)
	cfg.Telemetry.Exporter = ParseString(env("OTEL_EXPORTER"), cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = ParseString(env("OTEL_ENDPOINT"), cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = ParseFloat(env("OTEL_SAMPLING_RATE"), cfg.Telemetry.SamplingRate)
}
