// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := NewLoader("", "1.2.3").Load()
	require.NoError(t, err)

	want := Defaults()
	want.Version = "1.2.3"
	assert.Equal(t, want, cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, "playctl.yaml", `
logLevel: debug
server:
  listenAddr: "127.0.0.1:9000"
  maxSessions: 4
engine:
  kind: sim
  sim:
    duration: 90s
    rotation: 90
ads:
  enabled: false
player:
  userAgent: "kiosk/2"
`)
	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.ListenAddr)
	assert.Equal(t, 4, cfg.Server.MaxSessions)
	assert.Equal(t, 90*time.Second, cfg.Engine.Sim.Duration)
	assert.Equal(t, 90, cfg.Engine.Sim.Rotation)
	assert.False(t, cfg.Ads.Enabled)
	assert.Equal(t, "kiosk/2", cfg.Player.UserAgent)
	// untouched keys keep their defaults
	assert.Equal(t, Defaults().Server.ShutdownTimeout, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 1920, cfg.Engine.Sim.Width)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "playctl.yml", "logLevel: debug\nengine:\n  kind: sim\n")
	t.Setenv("PLAYCTL_LOG_LEVEL", "warn")
	t.Setenv("PLAYCTL_MAX_SESSIONS", "7")
	t.Setenv("PLAYCTL_ADS_ENABLED", "no")
	t.Setenv("PLAYCTL_SIM_DURATION", "2m")
	t.Setenv("PLAYCTL_MPV_EXTRA_ARGS", "--hwdec=auto, --vo=null")
	t.Setenv("PLAYCTL_OTEL_SAMPLING_RATE", "0.25")
	t.Setenv("PLAYCTL_RATE_LIMIT", "not-a-number")

	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 7, cfg.Server.MaxSessions)
	assert.False(t, cfg.Ads.Enabled)
	assert.Equal(t, 2*time.Minute, cfg.Engine.Sim.Duration)
	assert.Equal(t, []string{"--hwdec=auto", "--vo=null"}, cfg.Engine.MPV.ExtraArgs)
	assert.InDelta(t, 0.25, cfg.Telemetry.SamplingRate, 1e-9)
	assert.Equal(t, Defaults().Server.RateLimit, cfg.Server.RateLimit, "invalid values fall back")
}

func TestLoad_StrictFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
		unknown bool
	}{
		{name: "unknown key", file: "c.yaml", body: "server:\n  listen: \":1\"\n", unknown: true},
		{name: "multiple documents", file: "c.yaml", body: "logLevel: info\n---\nlogLevel: debug\n", wantErr: "multiple documents"},
		{name: "wrong extension", file: "c.json", body: "{}", wantErr: "only YAML supported"},
		{name: "bad duration", file: "c.yaml", body: "server:\n  shutdownTimeout: soon\n", wantErr: "strict config parse error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(writeConfig(t, tt.file, tt.body), "").Load()
			require.Error(t, err)
			if tt.unknown {
				require.ErrorIs(t, err, ErrUnknownConfigField)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader(writeConfig(t, "empty.yaml", ""), "").Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults().Engine, cfg.Engine)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "nope.yaml"), "").Load()
	require.ErrorContains(t, err, "read file")
}
