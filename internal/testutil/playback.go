// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ManuGH/playctl/internal/domain/playback/model"
	"github.com/ManuGH/playctl/internal/domain/playback/ports"
)

// FakeEngine records every call it receives. Listener callbacks are driven
// by the test through Notify* helpers.
type FakeEngine struct {
	mu        sync.Mutex
	calls     []string
	listeners []ports.Listener

	Source        model.MediaSourceDescriptor
	DurationMs    int64
	PositionMs    int64
	BufferedMs    int64
	Format        model.VideoFormat
	HasVideo      bool
	Volume        float64
	Speed         float64
	Loop          bool
	PlayWhenReady bool
	Surface       ports.Surface
	MixWithOthers bool

	PrepareErr error
	ReleaseErr error
}

func (e *FakeEngine) record(format string, args ...any) {
	e.calls = append(e.calls, fmt.Sprintf(format, args...))
}

// Calls returns the recorded call log.
func (e *FakeEngine) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

func (e *FakeEngine) SetSource(desc model.MediaSourceDescriptor) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Source = desc
	e.record("SetSource(%s)", desc.Type)
	return nil
}

func (e *FakeEngine) Prepare() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("Prepare")
	return e.PrepareErr
}

func (e *FakeEngine) SetPlayWhenReady(play bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.PlayWhenReady = play
	e.record("SetPlayWhenReady(%t)", play)
}

func (e *FakeEngine) SetRepeatMode(loop bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Loop = loop
	e.record("SetRepeatMode(%t)", loop)
}

func (e *FakeEngine) SetVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Volume = v
	e.record("SetVolume(%g)", v)
}

func (e *FakeEngine) SetPlaybackSpeed(s float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Speed = s
	e.record("SetPlaybackSpeed(%g)", s)
}

func (e *FakeEngine) SeekTo(ms int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.PositionMs = ms
	e.record("SeekTo(%d)", ms)
}

func (e *FakeEngine) CurrentPosition() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.PositionMs
}

func (e *FakeEngine) Duration() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.DurationMs
}

func (e *FakeEngine) BufferedPosition() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.BufferedMs
}

func (e *FakeEngine) VideoFormat() (model.VideoFormat, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Format, e.HasVideo
}

func (e *FakeEngine) SetVideoSurface(s ports.Surface) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Surface = s
	e.record("SetVideoSurface")
}

func (e *FakeEngine) SetAudioAttributes(mix bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.MixWithOthers = mix
	e.record("SetAudioAttributes(%t)", mix)
}

func (e *FakeEngine) AddListener(l ports.Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
	e.record("AddListener")
}

func (e *FakeEngine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("Stop")
}

func (e *FakeEngine) Release() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("Release")
	return e.ReleaseErr
}

func (e *FakeEngine) snapshotListeners() []ports.Listener {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ports.Listener(nil), e.listeners...)
}

// NotifyState delivers a playback state change to every listener.
func (e *FakeEngine) NotifyState(s model.PlaybackState) {
	for _, l := range e.snapshotListeners() {
		l.OnPlaybackStateChanged(s)
	}
}

// NotifyTimeline delivers a timeline change to every listener.
func (e *FakeEngine) NotifyTimeline(r model.TimelineReason) {
	for _, l := range e.snapshotListeners() {
		l.OnTimelineChanged(r)
	}
}

// NotifyError delivers a player error to every listener.
func (e *FakeEngine) NotifyError(err error) {
	for _, l := range e.snapshotListeners() {
		l.OnPlayerError(err)
	}
}

// FakeAdEngine records SetPlayer/Release and exposes its listener.
type FakeAdEngine struct {
	mu       sync.Mutex
	calls    []string
	Listener ports.AdEventListener
	TagURI   string
	Player   ports.Engine
}

func (a *FakeAdEngine) SetPlayer(e ports.Engine) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Player = e
	if e == nil {
		a.calls = append(a.calls, "SetPlayer(nil)")
		return
	}
	a.calls = append(a.calls, "SetPlayer(engine)")
}

func (a *FakeAdEngine) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, "Release")
}

func (a *FakeAdEngine) Calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

// Signal delivers an ad event to the registered listener.
func (a *FakeAdEngine) Signal(kind model.AdEventKind) {
	a.Listener.OnAdEvent(model.AdEvent{Kind: kind})
}

// FakeAdFactory hands out FakeAdEngines and remembers the last one.
type FakeAdFactory struct {
	mu   sync.Mutex
	Last *FakeAdEngine
	Err  error
}

func (f *FakeAdFactory) NewAdEngine(_ context.Context, tagURI string, l ports.AdEventListener) (ports.AdEngine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	f.Last = &FakeAdEngine{Listener: l, TagURI: tagURI}
	return f.Last, nil
}

// FakeOverlay is an Overlay with a fixed id.
type FakeOverlay int64

func (o FakeOverlay) ID() int64 { return int64(o) }

// FakeOverlays is an in-memory OverlayRegistrant with injectable failures.
type FakeOverlays struct {
	mu           sync.Mutex
	Registered   map[int64]ports.Overlay
	Created      int
	Unregistered int
	CreateErr    error
	RegisterErr  error
}

func (r *FakeOverlays) FetchOverlay(id int64) (ports.Overlay, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.Registered[id]
	return o, ok
}

func (r *FakeOverlays) CreateOverlay(id int64) (ports.Overlay, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return nil, r.CreateErr
	}
	r.Created++
	return FakeOverlay(id), nil
}

func (r *FakeOverlays) RegisterOverlay(id int64, o ports.Overlay) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.RegisterErr != nil {
		return r.RegisterErr
	}
	if r.Registered == nil {
		r.Registered = make(map[int64]ports.Overlay)
	}
	r.Registered[id] = o
	return nil
}

func (r *FakeOverlays) UnregisterOverlay(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Registered[id]; ok {
		r.Unregistered++
	}
	delete(r.Registered, id)
}

// Len returns the number of registered overlays.
func (r *FakeOverlays) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Registered)
}

// FakeSurface counts releases.
type FakeSurface struct {
	mu       sync.Mutex
	id       int64
	Releases int
}

func (s *FakeSurface) ID() int64 { return s.id }

func (s *FakeSurface) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Releases++
	if s.Releases > 1 {
		return errors.New("surface already released")
	}
	return nil
}

// ReleaseCount returns how often Release was called.
func (s *FakeSurface) ReleaseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Releases
}

// FakeSurfaces allocates FakeSurfaces with increasing ids.
type FakeSurfaces struct {
	mu   sync.Mutex
	next int64
	Last *FakeSurface
	Err  error
}

func (p *FakeSurfaces) CreateSurface() (ports.Surface, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	p.next++
	p.Last = &FakeSurface{id: p.next}
	return p.Last, nil
}

// EventRecorder is a thread-safe Delegate.
type EventRecorder struct {
	mu     sync.Mutex
	events []model.Event
}

func (r *EventRecorder) Deliver(ev model.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the delivered events.
func (r *EventRecorder) Events() []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Event(nil), r.events...)
}

// Kinds returns the kinds of delivered events in order.
func (r *EventRecorder) Kinds() []model.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.EventKind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}
