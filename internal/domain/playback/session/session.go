// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package session implements a single playback session: it opens the engine
// for a classified source, exposes the host command surface and owns the
// ordered teardown of every resource it allocated.
package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/ManuGH/playctl/internal/domain/playback/ads"
	"github.com/ManuGH/playctl/internal/domain/playback/model"
	"github.com/ManuGH/playctl/internal/domain/playback/ports"
	"github.com/ManuGH/playctl/internal/domain/playback/sink"
	"github.com/ManuGH/playctl/internal/domain/playback/source"
	"github.com/ManuGH/playctl/internal/domain/playback/tracker"
	"github.com/ManuGH/playctl/internal/fsm"
	"github.com/ManuGH/playctl/internal/log"
)

// Deps are the collaborators a session is built from.
type Deps struct {
	Engines    ports.EngineFactory
	EngineName string
	Surfaces   ports.SurfaceProvider
	Overlays   ports.OverlayRegistrant
	Ads        ports.AdEngineFactory
	Source     source.Options
}

// Options describe what to play.
type Options struct {
	URI           string
	FormatHint    string
	Headers       map[string]string
	AdTag         string
	MixWithOthers bool
}

// Session is one player instance.
type Session struct {
	id        string
	textureID int64
	openedAt  time.Time
	desc      model.MediaSourceDescriptor
	logger    zerolog.Logger
	lifecycle *fsm.Machine[Phase, LifecycleEvent]

	// mu serializes commands against teardown.
	mu      sync.RWMutex
	engine  ports.Engine
	surface ports.Surface
	proxy   *sink.Proxy
	tracker *tracker.Tracker
	ads     *ads.Integrator
}

// Open classifies the source, allocates the surface and engine, wires the
// listeners and prepares playback. On failure everything allocated so far is
// released and the error is returned.
func Open(ctx context.Context, id string, deps Deps, opts Options) (*Session, error) {
	if deps.Engines == nil || deps.Surfaces == nil {
		return nil, errors.New("session: engine factory and surface provider are required")
	}

	desc, err := source.Classify(opts.URI, opts.FormatHint, opts.Headers, deps.Source)
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:        id,
		openedAt:  time.Now(),
		lifecycle: newLifecycle(),
		proxy:     sink.New(),
		logger: log.WithComponent("session").With().
			Str(log.FieldSessionID, id).Logger(),
	}

	fail := func(err error) (*Session, error) {
		s.logger.Warn().Err(err).Str(log.FieldEvent, "session.open_failed").Msg("open failed, releasing resources")
		_ = s.Dispose()
		return nil, err
	}

	surface, err := deps.Surfaces.CreateSurface()
	if err != nil {
		return fail(fmt.Errorf("create surface: %w", err))
	}
	s.surface = surface
	s.textureID = surface.ID()
	s.logger = s.logger.With().Int64(log.FieldTextureID, s.textureID).Logger()

	engine, err := deps.Engines.NewEngine(ctx, id)
	if err != nil {
		return fail(fmt.Errorf("create engine: %w", err))
	}
	s.engine = engine

	s.ads = ads.New(deps.Overlays, deps.Ads, s.proxy, s.textureID, id)
	desc, err = s.ads.Prepare(ctx, desc, opts.AdTag)
	if err != nil {
		return fail(err)
	}
	s.desc = desc

	s.tracker = tracker.New(engine, s.proxy, deps.EngineName, id)
	engine.AddListener(s.tracker)
	s.ads.Bind(engine)

	engine.SetVideoSurface(surface)
	engine.SetAudioAttributes(opts.MixWithOthers)
	if err := engine.SetSource(desc); err != nil {
		return fail(fmt.Errorf("set source: %w", err))
	}
	if err := engine.Prepare(); err != nil {
		return fail(fmt.Errorf("prepare: %w", err))
	}

	s.logger.Info().
		Str(log.FieldEvent, "session.opened").
		Str(log.FieldStreamType, string(desc.Type)).
		Bool("remote", desc.Remote).
		Bool("ad_break", desc.AdBreak != nil).
		Msg("playback session opened")
	return s, nil
}

func (s *Session) ID() string                          { return s.id }
func (s *Session) TextureID() int64                    { return s.textureID }
func (s *Session) Source() model.MediaSourceDescriptor { return s.desc }

// Phase returns the lifecycle phase.
func (s *Session) Phase() Phase { return s.lifecycle.State() }

// withEngine runs fn with the engine while the session is open.
func (s *Session) withEngine(fn func(e ports.Engine)) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lifecycle.State() != PhaseOpen || s.engine == nil {
		return model.ErrDisposed
	}
	fn(s.engine)
	return nil
}

func (s *Session) Play() error {
	return s.withEngine(func(e ports.Engine) { e.SetPlayWhenReady(true) })
}

func (s *Session) Pause() error {
	return s.withEngine(func(e ports.Engine) { e.SetPlayWhenReady(false) })
}

func (s *Session) SetLooping(loop bool) error {
	return s.withEngine(func(e ports.Engine) { e.SetRepeatMode(loop) })
}

// SetVolume clamps v into [0,1]. NaN is treated as silence.
func (s *Session) SetVolume(v float64) error {
	if math.IsNaN(v) {
		v = 0
	}
	v = lo.Clamp(v, 0, 1)
	return s.withEngine(func(e ports.Engine) { e.SetVolume(v) })
}

// SetPlaybackSpeed forwards a positive, finite speed factor.
func (s *Session) SetPlaybackSpeed(speed float64) error {
	if speed <= 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return fmt.Errorf("%w: %v", model.ErrInvalidSpeed, speed)
	}
	return s.withEngine(func(e ports.Engine) { e.SetPlaybackSpeed(speed) })
}

// SeekTo seeks to an absolute position in milliseconds. The engine defers the
// seek when playback is not initialized yet.
func (s *Session) SeekTo(positionMs int64) error {
	if positionMs < 0 {
		positionMs = 0
	}
	return s.withEngine(func(e ports.Engine) { e.SeekTo(positionMs) })
}

// Position returns the current playback position in milliseconds.
func (s *Session) Position() (int64, error) {
	var pos int64
	err := s.withEngine(func(e ports.Engine) { pos = e.CurrentPosition() })
	return pos, err
}

// Duration returns the engine-reported duration in milliseconds.
func (s *Session) Duration() (int64, error) {
	var d int64
	err := s.withEngine(func(e ports.Engine) { d = e.Duration() })
	return d, err
}

// Attach installs the event consumer and drains queued events into it.
func (s *Session) Attach(d ports.Delegate) sink.Token {
	return s.proxy.Attach(d)
}

// Detach removes the event consumer; later events are queued.
func (s *Session) Detach() {
	s.proxy.Detach()
}

// DetachIf removes the consumer only if tok is the current attachment.
func (s *Session) DetachIf(tok sink.Token) bool {
	return s.proxy.DetachIf(tok)
}

func (s *Session) Initialized() bool {
	if s.tracker == nil {
		return false
	}
	return s.tracker.State().Initialized
}

func (s *Session) Buffering() bool {
	if s.tracker == nil {
		return false
	}
	return s.tracker.State().Buffering
}

func (s *Session) AdActive() bool {
	if s.ads == nil {
		return false
	}
	return s.ads.Active()
}

// Dispose tears the session down. Every release step runs even if an earlier
// one failed or its resource was never allocated. Only the first call has an
// effect.
func (s *Session) Dispose() error {
	ctx := context.Background()
	if _, err := s.lifecycle.Fire(ctx, EvDispose); err != nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var initialized bool
	if s.tracker != nil {
		initialized = s.tracker.State().Initialized
		s.tracker.Close()
	}

	var errs []error
	if initialized && s.engine != nil {
		s.engine.Stop()
	}
	if s.ads != nil {
		s.ads.Release()
	}
	if s.surface != nil {
		if err := s.surface.Release(); err != nil {
			errs = append(errs, fmt.Errorf("release surface: %w", err))
		}
	}
	s.proxy.Detach()
	s.proxy.Close()
	if s.engine != nil {
		if err := s.engine.Release(); err != nil {
			errs = append(errs, fmt.Errorf("release engine: %w", err))
		}
	}

	if _, err := s.lifecycle.Fire(ctx, EvReleased); err != nil {
		errs = append(errs, err)
	}

	err := errors.Join(errs...)
	if err != nil {
		s.logger.Warn().Err(err).Str(log.FieldEvent, "session.dispose_errors").Msg("session disposed with errors")
	} else {
		s.logger.Info().Str(log.FieldEvent, "session.disposed").Msg("playback session disposed")
	}
	return err
}

// Status is a point-in-time view of a session.
type Status struct {
	ID          string
	TextureID   int64
	StreamType  model.StreamType
	URI         string
	OpenedAt    time.Time
	Phase       Phase
	Initialized bool
	Buffering   bool
	AdActive    bool
	PositionMs  int64
	DurationMs  int64
	Listening   bool
}

// Status returns a snapshot for diagnostics and the control API.
func (s *Session) Status() Status {
	st := Status{
		ID:          s.id,
		TextureID:   s.textureID,
		StreamType:  s.desc.Type,
		URI:         s.desc.URI,
		OpenedAt:    s.openedAt,
		Phase:       s.Phase(),
		Initialized: s.Initialized(),
		Buffering:   s.Buffering(),
		AdActive:    s.AdActive(),
		Listening:   s.proxy.Mode() == sink.ModeForwarding,
	}
	st.PositionMs, _ = s.Position()
	st.DurationMs, _ = s.Duration()
	return st
}
