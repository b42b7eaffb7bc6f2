// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ports

import (
	"context"

	"github.com/ManuGH/playctl/internal/domain/playback/model"
)

// Engine is the decode/render engine driven by a playback session.
// Implementations (infrastructure) handle the "how": mpv, a simulator, hardware players.
//
// Setters are fire-and-forget: the engine applies them asynchronously and
// reports consequences through Listener callbacks.
type Engine interface {
	SetSource(desc model.MediaSourceDescriptor) error
	Prepare() error

	SetPlayWhenReady(play bool)
	SetRepeatMode(loop bool)
	// SetVolume takes a linear gain in [0,1].
	SetVolume(volume float64)
	SetPlaybackSpeed(speed float64)
	// SeekTo takes an absolute position in milliseconds.
	SeekTo(positionMs int64)

	CurrentPosition() int64
	Duration() int64
	BufferedPosition() int64
	VideoFormat() (model.VideoFormat, bool)

	SetVideoSurface(s Surface)
	SetAudioAttributes(mixWithOthers bool)

	AddListener(l Listener)
	Stop()
	Release() error
}

// Listener receives asynchronous engine notifications.
// Callbacks may arrive on any goroutine but never concurrently for one engine.
type Listener interface {
	OnPlaybackStateChanged(state model.PlaybackState)
	OnTimelineChanged(reason model.TimelineReason)
	OnPlayerError(err error)
}

// EngineFactory constructs one engine per session.
type EngineFactory interface {
	NewEngine(ctx context.Context, sessionID string) (Engine, error)
}

// EngineFactoryFunc adapts a function to EngineFactory.
type EngineFactoryFunc func(ctx context.Context, sessionID string) (Engine, error)

func (f EngineFactoryFunc) NewEngine(ctx context.Context, sessionID string) (Engine, error) {
	return f(ctx, sessionID)
}
