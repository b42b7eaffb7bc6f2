// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// Engine kinds.
const (
	EngineSim = "sim"
	EngineMPV = "mpv"
)

// AppConfig is the complete daemon configuration.
type AppConfig struct {
	// Version is stamped from the binary, never read from the file.
	Version string `yaml:"-"`

	LogLevel   string `yaml:"logLevel"`
	LogService string `yaml:"logService"`

	Server    ServerConfig    `yaml:"server"`
	Engine    EngineConfig    `yaml:"engine"`
	Ads       AdsConfig       `yaml:"ads"`
	Player    PlayerConfig    `yaml:"player"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig configures the HTTP control API.
type ServerConfig struct {
	ListenAddr        string        `yaml:"listenAddr"`
	ReadHeaderTimeout time.Duration `yaml:"readHeaderTimeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdownTimeout"`
	// RateLimit is the number of API requests allowed per client IP and minute; 0 disables limiting.
	RateLimit   int `yaml:"rateLimit"`
	MaxSessions int `yaml:"maxSessions"`
	// MetricsAddr serves /metrics on a separate listener; empty mounts it on the API router.
	MetricsAddr string `yaml:"metricsAddr"`
}

// EngineConfig selects and configures the playback engine.
type EngineConfig struct {
	Kind string    `yaml:"kind"`
	Sim  SimConfig `yaml:"sim"`
	MPV  MPVConfig `yaml:"mpv"`
}

// SimConfig configures the simulated engine.
type SimConfig struct {
	BufferDelay time.Duration `yaml:"bufferDelay"`
	Duration    time.Duration `yaml:"duration"`
	Width       int           `yaml:"width"`
	Height      int           `yaml:"height"`
	Rotation    int           `yaml:"rotation"`
	FailOn      string        `yaml:"failOn"`
}

// MPVConfig configures the mpv engine.
type MPVConfig struct {
	Binary         string        `yaml:"binary"`
	SocketDir      string        `yaml:"socketDir"`
	ExtraArgs      []string      `yaml:"extraArgs"`
	ConnectTimeout time.Duration `yaml:"connectTimeout"`
}

// AdsConfig configures ad-tag resolution.
type AdsConfig struct {
	Enabled          bool          `yaml:"enabled"`
	FetchTimeout     time.Duration `yaml:"fetchTimeout"`
	BreakerThreshold int           `yaml:"breakerThreshold"`
	BreakerReset     time.Duration `yaml:"breakerReset"`
	MaxOverlays      int           `yaml:"maxOverlays"`
}

// PlayerConfig holds per-session playback defaults.
type PlayerConfig struct {
	UserAgent string `yaml:"userAgent"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Environment  string  `yaml:"environment"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		LogLevel:   "info",
		LogService: "playctl",
		Server: ServerConfig{
			ListenAddr:        ":8088",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   15 * time.Second,
			RateLimit:         600,
			MaxSessions:       32,
		},
		Engine: EngineConfig{
			Kind: EngineSim,
			Sim: SimConfig{
				BufferDelay: 300 * time.Millisecond,
				Duration:    time.Minute,
				Width:       1920,
				Height:      1080,
			},
			MPV: MPVConfig{
				Binary:         "mpv",
				ConnectTimeout: 5 * time.Second,
			},
		},
		Ads: AdsConfig{
			Enabled:          true,
			FetchTimeout:     5 * time.Second,
			BreakerThreshold: 3,
			BreakerReset:     30 * time.Second,
			MaxOverlays:      64,
		},
		Player: PlayerConfig{
			UserAgent: "playctl",
		},
		Telemetry: TelemetryConfig{
			Environment:  "production",
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
	}
}
