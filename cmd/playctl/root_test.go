// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/ManuGH/playctl/internal/control/http/v1"
	"github.com/ManuGH/playctl/internal/domain/playback/ports"
	"github.com/ManuGH/playctl/internal/domain/playback/session"
	"github.com/ManuGH/playctl/internal/testutil"
)

func startDaemon(t *testing.T) (string, *testutil.FakeEngine) {
	t.Helper()
	engine := &testutil.FakeEngine{DurationMs: 1000}
	registry := session.NewRegistry(session.Deps{
		Engines: ports.EngineFactoryFunc(func(context.Context, string) (ports.Engine, error) {
			return engine, nil
		}),
		EngineName: "fake",
		Surfaces:   &testutil.FakeSurfaces{},
	})
	r := chi.NewRouter()
	r.Mount("/api/v1", v1.NewServer(registry).Routes())
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		_ = registry.DisposeAll(context.Background())
		srv.Close()
	})
	return srv.URL, engine
}

func run(t *testing.T, server string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--server", server}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_OpenAndControl(t *testing.T) {
	server, engine := startDaemon(t)

	out, err := run(t, server, "open", "--format", "dash", "-H", "Authorization=Bearer x", "https://cdn.example/a")
	require.NoError(t, err)
	var created v1.CreatePlayerResponse
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, "dash", created.StreamType)
	assert.Contains(t, engine.Calls(), "SetSource(dash)")

	for _, args := range [][]string{
		{"play", created.ID},
		{"volume", created.ID, "0.5"},
		{"speed", created.ID, "2"},
		{"loop", created.ID, "on"},
		{"seek", created.ID, "250"},
	} {
		_, err := run(t, server, args...)
		require.NoError(t, err, strings.Join(args, " "))
	}
	assert.Subset(t, engine.Calls(), []string{
		"SetPlayWhenReady(true)", "SetVolume(0.5)", "SetPlaybackSpeed(2)", "SetRepeatMode(true)", "SeekTo(250)",
	})

	out, err = run(t, server, "position", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "250\n", out)

	out, err = run(t, server, "list")
	require.NoError(t, err)
	assert.Contains(t, out, created.ID)

	_, err = run(t, server, "dispose", created.ID)
	require.NoError(t, err)
	_, err = run(t, server, "status", created.ID)
	require.Error(t, err)
}

func TestCLI_ArgumentErrors(t *testing.T) {
	server, _ := startDaemon(t)

	_, err := run(t, server, "open", "-H", "novalue", "https://cdn.example/a.mp4")
	assert.ErrorContains(t, err, "invalid header")

	_, err = run(t, server, "loop", "id", "maybe")
	assert.ErrorContains(t, err, "invalid loop value")

	_, err = run(t, server, "seek", "id", "soon")
	assert.ErrorContains(t, err, "invalid position")

	_, err = run(t, server, "play")
	assert.Error(t, err)
}
