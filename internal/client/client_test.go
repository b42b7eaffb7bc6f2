// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	v1 "github.com/ManuGH/playctl/internal/control/http/v1"
	"github.com/ManuGH/playctl/internal/domain/playback/model"
	"github.com/ManuGH/playctl/internal/domain/playback/ports"
	"github.com/ManuGH/playctl/internal/domain/playback/session"
	"github.com/ManuGH/playctl/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

type fixture struct {
	client   *Client
	registry *session.Registry

	mu      sync.Mutex
	engines []*testutil.FakeEngine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{}
	f.registry = session.NewRegistry(session.Deps{
		Engines: ports.EngineFactoryFunc(func(context.Context, string) (ports.Engine, error) {
			e := &testutil.FakeEngine{DurationMs: 30000, Format: model.VideoFormat{Width: 640, Height: 360}, HasVideo: true}
			f.mu.Lock()
			f.engines = append(f.engines, e)
			f.mu.Unlock()
			return e, nil
		}),
		EngineName: "fake",
		Surfaces:   &testutil.FakeSurfaces{},
	})

	r := chi.NewRouter()
	r.Mount("/api/v1", v1.NewServer(f.registry, v1.WithPingInterval(25*time.Millisecond)).Routes())
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		_ = f.registry.DisposeAll(context.Background())
		srv.Close()
	})

	c, err := New(srv.URL+"/", srv.Client())
	require.NoError(t, err)
	f.client = c
	return f
}

func (f *fixture) engine(i int) *testutil.FakeEngine {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.engines[i]
}

func TestNew_RejectsBadScheme(t *testing.T) {
	_, err := New("ftp://example", nil)
	require.Error(t, err)
}

func TestClient_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.client.Create(ctx, v1.CreatePlayerRequest{URI: "https://cdn.example/live.m3u8"})
	require.NoError(t, err)
	assert.Equal(t, "hls", created.StreamType)

	list, err := f.client.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	require.NoError(t, f.client.Play(ctx, created.ID))
	require.NoError(t, f.client.SetVolume(ctx, created.ID, 0.25))
	require.NoError(t, f.client.SetSpeed(ctx, created.ID, 1.5))
	require.NoError(t, f.client.SetLooping(ctx, created.ID, true))
	require.NoError(t, f.client.Seek(ctx, created.ID, 4000))
	require.NoError(t, f.client.Pause(ctx, created.ID))

	pos, err := f.client.Position(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), pos)

	assert.Subset(t, f.engine(0).Calls(), []string{
		"SetPlayWhenReady(true)",
		"SetVolume(0.25)",
		"SetPlaybackSpeed(1.5)",
		"SetRepeatMode(true)",
		"SeekTo(4000)",
		"SetPlayWhenReady(false)",
	})

	require.NoError(t, f.client.Dispose(ctx, created.ID))
	_, err = f.client.Get(ctx, created.ID)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 404, perr.Status)
}

func TestClient_ProblemDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.client.Create(ctx, v1.CreatePlayerRequest{URI: "https://cdn.example/a.mp4"})
	require.NoError(t, err)

	err = f.client.SetSpeed(ctx, created.ID, 0)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 400, perr.Status)
	assert.NotEmpty(t, perr.Error())
}

func TestWatch_DeliversUntilStopped(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	created, err := f.client.Create(ctx, v1.CreatePlayerRequest{URI: "https://cdn.example/a.mp4"})
	require.NoError(t, err)
	f.engine(0).NotifyState(model.StateReady)

	var got []model.Event
	err = f.client.Watch(ctx, created.ID, func(ev model.Event) error {
		got = append(got, ev)
		return ErrStopWatching
	})
	require.NoError(t, err)
	assert.Equal(t, []model.Event{model.Initialized(30000, 640, 360, true)}, got)
}

func TestWatch_EndsWhenPlayerDisposed(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	created, err := f.client.Create(ctx, v1.CreatePlayerRequest{URI: "https://cdn.example/a.mp4"})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- f.client.Watch(ctx, created.ID, func(model.Event) error { return nil })
	}()

	require.Eventually(t, func() bool {
		p, err := f.client.Get(ctx, created.ID)
		return err == nil && p.Listening
	}, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, f.client.Dispose(ctx, created.ID))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not end after dispose")
	}
}

func TestWatch_CallbackErrorStops(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	created, err := f.client.Create(ctx, v1.CreatePlayerRequest{URI: "https://cdn.example/a.mp4"})
	require.NoError(t, err)
	f.engine(0).NotifyState(model.StateBuffering)

	boom := errors.New("boom")
	err = f.client.Watch(ctx, created.ID, func(model.Event) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestWatch_UnknownPlayer(t *testing.T) {
	f := newFixture(t)
	err := f.client.Watch(context.Background(), "missing", func(model.Event) error { return nil })
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 404, perr.Status)
}
