// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/playctl/internal/domain/playback/model"
	"github.com/ManuGH/playctl/internal/domain/playback/ports"
	"github.com/ManuGH/playctl/internal/domain/playback/sink"
	"github.com/ManuGH/playctl/internal/testutil"
)

type harness struct {
	engine   *testutil.FakeEngine
	surfaces *testutil.FakeSurfaces
	overlays *testutil.FakeOverlays
	ads      *testutil.FakeAdFactory
	deps     Deps
}

func newHarness() *harness {
	h := &harness{
		engine:   &testutil.FakeEngine{DurationMs: 120000, BufferedMs: 4000, Format: model.VideoFormat{Width: 1080, Height: 1920, RotationDegrees: 90}, HasVideo: true},
		surfaces: &testutil.FakeSurfaces{},
		overlays: &testutil.FakeOverlays{},
		ads:      &testutil.FakeAdFactory{},
	}
	h.deps = Deps{
		Engines: ports.EngineFactoryFunc(func(context.Context, string) (ports.Engine, error) {
			return h.engine, nil
		}),
		EngineName: "fake",
		Surfaces:   h.surfaces,
		Overlays:   h.overlays,
		Ads:        h.ads,
	}
	return h
}

func (h *harness) open(t *testing.T, opts Options) *Session {
	t.Helper()
	s, err := Open(context.Background(), "sess-1", h.deps, opts)
	require.NoError(t, err)
	return s
}

var hlsOpts = Options{URI: "https://cdn.example/live/master.m3u8", MixWithOthers: true}

func TestOpen_WiresEngineBeforePrepare(t *testing.T) {
	h := newHarness()
	s := h.open(t, hlsOpts)

	assert.Equal(t, []string{
		"AddListener",
		"SetVideoSurface",
		"SetAudioAttributes(true)",
		"SetSource(hls)",
		"Prepare",
	}, h.engine.Calls())
	assert.Equal(t, int64(1), s.TextureID())
	assert.Equal(t, model.StreamHLS, s.Source().Type)
	assert.True(t, h.engine.Source.Remote)
	assert.Equal(t, PhaseOpen, s.Phase())
}

func TestOpen_UnsupportedSourceAllocatesNothing(t *testing.T) {
	h := newHarness()
	_, err := Open(context.Background(), "x", h.deps, Options{URI: "https://cdn.example/a.bin", FormatHint: "bogus"})
	require.ErrorIs(t, err, model.ErrUnsupportedSource)
	assert.Nil(t, h.surfaces.Last)
	assert.Empty(t, h.engine.Calls())
}

func TestOpen_FailureReleasesAllocatedResources(t *testing.T) {
	t.Run("engine construction", func(t *testing.T) {
		h := newHarness()
		boom := errors.New("no decoder")
		h.deps.Engines = ports.EngineFactoryFunc(func(context.Context, string) (ports.Engine, error) { return nil, boom })

		_, err := Open(context.Background(), "x", h.deps, hlsOpts)
		require.ErrorIs(t, err, boom)
		assert.Equal(t, 1, h.surfaces.Last.ReleaseCount())
	})

	t.Run("overlay unavailable", func(t *testing.T) {
		h := newHarness()
		h.overlays.CreateErr = errors.New("no host view")

		opts := hlsOpts
		opts.AdTag = "https://ads.example/vast.xml"
		_, err := Open(context.Background(), "x", h.deps, opts)
		require.ErrorIs(t, err, model.ErrOverlayUnavailable)
		assert.Equal(t, 1, h.surfaces.Last.ReleaseCount())
		assert.Equal(t, []string{"Release"}, h.engine.Calls())
	})

	t.Run("prepare", func(t *testing.T) {
		h := newHarness()
		h.engine.PrepareErr = errors.New("io")
		_, err := Open(context.Background(), "x", h.deps, hlsOpts)
		require.Error(t, err)
		calls := h.engine.Calls()
		assert.Equal(t, "Release", calls[len(calls)-1])
	})
}

func TestCommands(t *testing.T) {
	h := newHarness()
	s := h.open(t, hlsOpts)

	require.NoError(t, s.Play())
	assert.True(t, h.engine.PlayWhenReady)
	require.NoError(t, s.Pause())
	assert.False(t, h.engine.PlayWhenReady)
	require.NoError(t, s.SetLooping(true))
	assert.True(t, h.engine.Loop)

	for _, tc := range []struct{ in, want float64 }{
		{-5, 0}, {5, 1}, {0.3, 0.3}, {math.NaN(), 0}, {math.Inf(1), 1},
	} {
		require.NoError(t, s.SetVolume(tc.in))
		assert.Equal(t, tc.want, h.engine.Volume, "volume %v", tc.in)
	}

	require.NoError(t, s.SetPlaybackSpeed(1.5))
	assert.Equal(t, 1.5, h.engine.Speed)
	for _, bad := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		require.ErrorIs(t, s.SetPlaybackSpeed(bad), model.ErrInvalidSpeed)
	}
	assert.Equal(t, 1.5, h.engine.Speed)

	require.NoError(t, s.SeekTo(30000))
	pos, err := s.Position()
	require.NoError(t, err)
	assert.Equal(t, int64(30000), pos)
}

func TestEvents_QueuedUntilAttach(t *testing.T) {
	h := newHarness()
	s := h.open(t, hlsOpts)

	h.engine.NotifyState(model.StateBuffering)
	h.engine.NotifyState(model.StateReady)
	h.engine.NotifyTimeline(model.TimelineSourceUpdate)

	rec := &testutil.EventRecorder{}
	s.Attach(rec)
	h.engine.NotifyState(model.StateEnded)

	want := []model.Event{
		model.BufferingStart(),
		model.BufferingUpdate(4000),
		model.Initialized(120000, 1920, 1080, true),
		model.BufferingEnd(),
		model.DurationChanged(120000),
		model.Completed(),
	}
	if diff := cmp.Diff(want, rec.Events()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, s.Initialized())
	assert.False(t, s.Buffering())
}

func TestEvents_AdBreakSharesStream(t *testing.T) {
	h := newHarness()
	opts := hlsOpts
	opts.AdTag = "https://ads.example/vast.xml"
	s := h.open(t, opts)
	require.NotNil(t, s.Source().AdBreak)
	assert.Equal(t, []string{"SetPlayer(engine)"}, h.ads.Last.Calls())

	rec := &testutil.EventRecorder{}
	s.Attach(rec)

	h.ads.Last.Signal(model.AdContentPauseRequested)
	assert.True(t, s.AdActive())
	h.engine.NotifyState(model.StateReady)
	h.ads.Last.Signal(model.AdContentResumeRequested)

	assert.Equal(t, []model.EventKind{
		model.EventAdvertisementStart,
		model.EventInitialized,
		model.EventAdvertisementEnd,
	}, rec.Kinds())
	assert.True(t, s.Initialized(), "ad events must not disturb playback state")
}

func TestDispose_OrderedTeardown(t *testing.T) {
	h := newHarness()
	opts := hlsOpts
	opts.AdTag = "https://ads.example/vast.xml"
	s := h.open(t, opts)
	rec := &testutil.EventRecorder{}
	s.Attach(rec)
	h.engine.NotifyState(model.StateReady)

	require.NoError(t, s.Dispose())

	calls := h.engine.Calls()
	assert.Equal(t, []string{"Stop", "Release"}, calls[len(calls)-2:])
	assert.Equal(t, []string{"SetPlayer(engine)", "SetPlayer(nil)", "Release"}, h.ads.Last.Calls())
	assert.Equal(t, 1, h.surfaces.Last.ReleaseCount())
	assert.Equal(t, PhaseDisposed, s.Phase())

	// second dispose is a no-op
	require.NoError(t, s.Dispose())
	assert.Equal(t, 1, h.surfaces.Last.ReleaseCount())
	assert.Equal(t, calls, h.engine.Calls())

	// late callbacks and commands
	before := len(rec.Events())
	h.engine.NotifyState(model.StateBuffering)
	h.engine.NotifyError(errors.New("late"))
	h.ads.Last.Signal(model.AdContentPauseRequested)
	assert.Len(t, rec.Events(), before)
	assert.ErrorIs(t, s.Play(), model.ErrDisposed)
	_, err := s.Position()
	assert.ErrorIs(t, err, model.ErrDisposed)
}

func TestDispose_SkipsStopWhenNotInitialized(t *testing.T) {
	h := newHarness()
	s := h.open(t, hlsOpts)
	require.NoError(t, s.Dispose())
	assert.NotContains(t, h.engine.Calls(), "Stop")
	assert.Contains(t, h.engine.Calls(), "Release")
}

func TestDispose_JoinsReleaseErrors(t *testing.T) {
	h := newHarness()
	h.engine.ReleaseErr = errors.New("engine busy")
	s := h.open(t, hlsOpts)
	err := s.Dispose()
	require.ErrorIs(t, err, h.engine.ReleaseErr)
	assert.Equal(t, 1, h.surfaces.Last.ReleaseCount(), "surface still released")
}

func TestDetachIf(t *testing.T) {
	h := newHarness()
	s := h.open(t, hlsOpts)
	first := s.Attach(&testutil.EventRecorder{})
	second := s.Attach(&testutil.EventRecorder{})
	assert.False(t, s.DetachIf(first))
	assert.True(t, s.DetachIf(second))
	assert.Equal(t, sink.Token(0), s.Attach(nil))
	s.Detach()
}
