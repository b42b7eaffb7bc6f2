// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package sim provides a deterministic in-process playback engine. It needs
// no media stack and drives the same notifications a real engine would.
package sim

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/playctl/internal/domain/playback/model"
	"github.com/ManuGH/playctl/internal/domain/playback/ports"
	"github.com/ManuGH/playctl/internal/log"
)

// Name identifies this engine in metrics and logs.
const Name = "sim"

// ErrNoSource is returned by Prepare before SetSource.
var ErrNoSource = errors.New("sim: no source set")

// Config shapes the simulated media.
type Config struct {
	// BufferDelay is the time spent buffering after Prepare and every seek.
	BufferDelay time.Duration
	// Tick is the clock resolution of the engine loop.
	Tick     time.Duration
	Duration time.Duration
	Width    int
	Height   int
	Rotation int
	// FailOn makes playback fail once buffering completes when the source URI contains it.
	FailOn string
}

// DefaultConfig returns a 1080p, one-minute clip.
func DefaultConfig() Config {
	return Config{
		BufferDelay: 500 * time.Millisecond,
		Tick:        50 * time.Millisecond,
		Duration:    time.Minute,
		Width:       1920,
		Height:      1080,
	}
}

// Factory implements ports.EngineFactory.
type Factory struct {
	cfg Config
}

func NewFactory(cfg Config) *Factory {
	return &Factory{cfg: cfg}
}

func (f *Factory) NewEngine(_ context.Context, sessionID string) (ports.Engine, error) {
	return New(f.cfg, sessionID), nil
}

type note struct {
	state  model.PlaybackState
	reason model.TimelineReason
	err    error
}

// Engine is a simulated player. All listener callbacks are issued from a
// single loop goroutine.
type Engine struct {
	cfg    Config
	logger zerolog.Logger

	mu            sync.Mutex
	listeners     []ports.Listener
	source        *model.MediaSourceDescriptor
	surface       ports.Surface
	mixWithOthers bool
	state         model.PlaybackState
	prepared      bool
	sourceKnown   bool
	playWhenReady bool
	loop          bool
	volume        float64
	speed         float64
	positionMs    float64
	bufferedMs    int64
	readyAt       time.Time
	pending       []note

	wake      chan struct{}
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// New starts a simulated engine.
func New(cfg Config, sessionID string) *Engine {
	def := DefaultConfig()
	if cfg.Tick <= 0 {
		cfg.Tick = def.Tick
	}
	if cfg.Duration <= 0 {
		cfg.Duration = def.Duration
	}
	e := &Engine{
		cfg:     cfg,
		logger:  log.WithComponent("engine.sim").With().Str(log.FieldSessionID, sessionID).Logger(),
		state:   model.StateIdle,
		volume:  1,
		speed:   1,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go e.run()
	return e
}

func (e *Engine) run() {
	defer close(e.stopped)
	ticker := time.NewTicker(e.cfg.Tick)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
		case <-e.wake:
		}
		now := time.Now()
		notes, listeners := e.step(now.Sub(last), now)
		last = now
		for _, n := range notes {
			for _, l := range listeners {
				deliver(l, n)
			}
		}
	}
}

func deliver(l ports.Listener, n note) {
	switch {
	case n.err != nil:
		l.OnPlayerError(n.err)
	case n.reason != "":
		l.OnTimelineChanged(n.reason)
	default:
		l.OnPlaybackStateChanged(n.state)
	}
}

// step advances the simulation by dt and returns the notifications to deliver.
func (e *Engine) step(dt time.Duration, now time.Time) ([]note, []ports.Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.prepared {
		switch e.state {
		case model.StateBuffering:
			e.bufferedMs = int64(e.positionMs)
			if !now.Before(e.readyAt) {
				e.finishBuffering()
			}
		case model.StateReady:
			if e.playWhenReady {
				e.advance(dt)
			}
		}
	}

	notes := e.pending
	e.pending = nil
	return notes, append([]ports.Listener(nil), e.listeners...)
}

func (e *Engine) finishBuffering() {
	if e.cfg.FailOn != "" && e.source != nil && strings.Contains(e.source.URI, e.cfg.FailOn) {
		e.prepared = false
		e.state = model.StateIdle
		e.push(note{err: fmt.Errorf("source error: cannot open %s", e.source.URI)})
		e.push(note{state: model.StateIdle})
		return
	}
	if !e.sourceKnown {
		e.sourceKnown = true
		e.push(note{reason: model.TimelineSourceUpdate})
	}
	e.bufferedMs = min(e.durationMs(), int64(e.positionMs)+10_000)
	e.state = model.StateReady
	e.push(note{state: model.StateReady})
}

func (e *Engine) advance(dt time.Duration) {
	e.positionMs += float64(dt.Milliseconds()) * e.speed
	e.bufferedMs = min(e.durationMs(), int64(e.positionMs)+10_000)
	if e.positionMs < float64(e.durationMs()) {
		return
	}
	if e.loop {
		e.positionMs = 0
		return
	}
	e.positionMs = float64(e.durationMs())
	e.state = model.StateEnded
	e.push(note{state: model.StateEnded})
}

func (e *Engine) durationMs() int64 {
	return e.cfg.Duration.Milliseconds()
}

// push queues a notification; caller holds mu.
func (e *Engine) push(n note) {
	e.pending = append(e.pending, n)
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *Engine) startBuffering() {
	e.state = model.StateBuffering
	e.readyAt = time.Now().Add(e.cfg.BufferDelay)
	e.push(note{state: model.StateBuffering})
}

func (e *Engine) SetSource(desc model.MediaSourceDescriptor) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.source = &desc
	e.sourceKnown = false
	e.positionMs = 0
	e.logger.Debug().
		Str(log.FieldStreamType, string(desc.Type)).
		Bool("ad_break", desc.AdBreak != nil).
		Msg("source set")
	return nil
}

func (e *Engine) Prepare() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.source == nil {
		return ErrNoSource
	}
	e.prepared = true
	e.push(note{reason: model.TimelinePlaylistChanged})
	e.startBuffering()
	return nil
}

func (e *Engine) SetPlayWhenReady(play bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playWhenReady = play
}

func (e *Engine) SetRepeatMode(loop bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loop = loop
}

func (e *Engine) SetVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = v
}

func (e *Engine) SetPlaybackSpeed(s float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speed = s
}

func (e *Engine) SeekTo(ms int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.positionMs = float64(max(0, min(ms, e.durationMs())))
	if e.prepared {
		e.startBuffering()
	}
}

func (e *Engine) CurrentPosition() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return int64(e.positionMs)
}

func (e *Engine) Duration() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.sourceKnown {
		return 0
	}
	return e.durationMs()
}

func (e *Engine) BufferedPosition() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bufferedMs
}

func (e *Engine) VideoFormat() (model.VideoFormat, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.sourceKnown || e.cfg.Width <= 0 || e.cfg.Height <= 0 {
		return model.VideoFormat{}, false
	}
	return model.VideoFormat{Width: e.cfg.Width, Height: e.cfg.Height, RotationDegrees: e.cfg.Rotation}, true
}

func (e *Engine) SetVideoSurface(s ports.Surface) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.surface = s
}

func (e *Engine) SetAudioAttributes(mixWithOthers bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mixWithOthers = mixWithOthers
}

func (e *Engine) AddListener(l ports.Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.prepared && e.state == model.StateIdle {
		return
	}
	e.prepared = false
	e.state = model.StateIdle
	e.push(note{state: model.StateIdle})
}

// Release stops the loop and waits for it to exit. It must not be called from
// a listener callback.
func (e *Engine) Release() error {
	e.closeOnce.Do(func() {
		close(e.done)
	})
	<-e.stopped
	e.mu.Lock()
	e.listeners = nil
	e.surface = nil
	e.mu.Unlock()
	return nil
}

// Snapshot exposes engine-side settings for diagnostics and tests.
type Snapshot struct {
	State         model.PlaybackState
	PlayWhenReady bool
	Loop          bool
	Volume        float64
	Speed         float64
	MixWithOthers bool
	HasSurface    bool
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		State:         e.state,
		PlayWhenReady: e.playWhenReady,
		Loop:          e.loop,
		Volume:        e.volume,
		Speed:         e.speed,
		MixWithOthers: e.mixWithOthers,
		HasSurface:    e.surface != nil,
	}
}
