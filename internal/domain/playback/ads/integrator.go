// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package ads wires an optional ad engine into a playback session and
// translates ad lifecycle signals into playback events.
package ads

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ManuGH/playctl/internal/domain/playback/model"
	"github.com/ManuGH/playctl/internal/domain/playback/ports"
	"github.com/ManuGH/playctl/internal/log"
	"github.com/ManuGH/playctl/internal/metrics"
)

// Emitter receives advertisement events.
type Emitter interface {
	Emit(ev model.Event)
}

// Integrator owns at most one ad engine for one session.
type Integrator struct {
	overlays ports.OverlayRegistrant
	factory  ports.AdEngineFactory
	emitter  Emitter
	viewID   int64
	logger   zerolog.Logger

	mu       sync.Mutex
	adEngine ports.AdEngine
	engine   ports.Engine
	active   bool
	released bool
	// registered is set when this integrator registered the view's overlay.
	registered bool
}

// New returns an integrator for the view identified by viewID.
func New(overlays ports.OverlayRegistrant, factory ports.AdEngineFactory, emitter Emitter, viewID int64, sessionID string) *Integrator {
	return &Integrator{
		overlays: overlays,
		factory:  factory,
		emitter:  emitter,
		viewID:   viewID,
		logger: log.WithComponent("ads").With().
			Str(log.FieldSessionID, sessionID).Logger(),
	}
}

// Prepare returns base unchanged when adTag is empty. Otherwise it obtains the
// overlay for the view, constructs the ad engine and returns base wrapped
// for ad insertion.
func (i *Integrator) Prepare(ctx context.Context, base model.MediaSourceDescriptor, adTag string) (model.MediaSourceDescriptor, error) {
	if adTag == "" {
		return base, nil
	}
	if i.overlays == nil || i.factory == nil {
		return base, fmt.Errorf("%w: ad insertion not configured", model.ErrOverlayUnavailable)
	}

	overlay, err := i.overlay()
	if err != nil {
		return base, err
	}

	adEngine, err := i.factory.NewAdEngine(ctx, adTag, i)
	if err != nil {
		return base, fmt.Errorf("create ad engine: %w", err)
	}

	i.mu.Lock()
	i.adEngine = adEngine
	i.mu.Unlock()

	i.logger.Info().
		Str(log.FieldEvent, "ads.prepared").
		Str(log.FieldAdTag, adTag).
		Int64("overlay_id", overlay.ID()).
		Msg("ad break prepared")

	return base.WithAdBreak(model.AdBreak{TagURI: adTag, OverlayID: overlay.ID()}), nil
}

func (i *Integrator) overlay() (ports.Overlay, error) {
	if o, ok := i.overlays.FetchOverlay(i.viewID); ok {
		return o, nil
	}
	o, err := i.overlays.CreateOverlay(i.viewID)
	if err != nil {
		return nil, fmt.Errorf("%w: create overlay %d: %v", model.ErrOverlayUnavailable, i.viewID, err)
	}
	if err := i.overlays.RegisterOverlay(i.viewID, o); err != nil {
		return nil, fmt.Errorf("%w: register overlay %d: %v", model.ErrOverlayUnavailable, i.viewID, err)
	}
	i.mu.Lock()
	i.registered = true
	i.mu.Unlock()
	return o, nil
}

// Bind attaches the ad engine to the playback engine.
func (i *Integrator) Bind(engine ports.Engine) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.released {
		return
	}
	i.engine = engine
	if i.adEngine != nil {
		i.adEngine.SetPlayer(engine)
	}
}

// OnAdEvent implements ports.AdEventListener. Events are emitted under the
// lock so nothing reaches the emitter once Release has returned; Emit must
// not block.
func (i *Integrator) OnAdEvent(ev model.AdEvent) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.released {
		return
	}

	switch ev.Kind {
	case model.AdContentPauseRequested:
		i.active = true
		metrics.ObserveAdBreak("start")
		i.emitter.Emit(model.AdvertisementStart(i.duration()))
	case model.AdContentResumeRequested:
		i.active = false
		metrics.ObserveAdBreak("end")
		i.emitter.Emit(model.AdvertisementEnd(i.duration()))
	}
}

func (i *Integrator) duration() int64 {
	if i.engine == nil {
		return 0
	}
	return i.engine.Duration()
}

// Active reports whether an ad break is in progress.
func (i *Integrator) Active() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.active
}

// Enabled reports whether an ad engine was constructed.
func (i *Integrator) Enabled() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.adEngine != nil
}

// Release unbinds and releases the ad engine, then drops the overlay this
// integrator registered. Safe without an ad engine and safe to call more
// than once.
func (i *Integrator) Release() {
	i.mu.Lock()
	adEngine := i.adEngine
	unregister := i.registered
	i.adEngine = nil
	i.engine = nil
	i.active = false
	i.released = true
	i.registered = false
	i.mu.Unlock()

	if adEngine != nil {
		adEngine.SetPlayer(nil)
		adEngine.Release()
		i.logger.Debug().Str(log.FieldEvent, "ads.released").Msg("ad engine released")
	}
	if unregister {
		i.overlays.UnregisterOverlay(i.viewID)
	}
}
