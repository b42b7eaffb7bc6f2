// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package vast

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/playctl/internal/domain/playback/model"
	"github.com/ManuGH/playctl/internal/domain/playback/ports"
	"github.com/ManuGH/playctl/internal/log"
)

// Factory builds one ad engine per tag.
type Factory struct {
	fetcher *Fetcher
}

// NewFactory returns a factory resolving tags through fetcher.
func NewFactory(fetcher *Fetcher) *Factory {
	return &Factory{fetcher: fetcher}
}

// NewAdEngine validates the tag and returns an idle engine. The tag is
// fetched once a player is bound.
func (f *Factory) NewAdEngine(_ context.Context, tag string, l ports.AdEventListener) (ports.AdEngine, error) {
	u, err := url.Parse(tag)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("vast: invalid ad tag %q", tag)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		fetcher:  f.fetcher,
		tag:      tag,
		listener: l,
		logger:   log.WithComponent("ads.vast").With().Str(log.FieldAdTag, tag).Logger(),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Engine plays a single pre-roll break. Binding the first player starts the
// break: content pause, the ad's duration, content resume.
type Engine struct {
	fetcher  *Fetcher
	tag      string
	listener ports.AdEventListener
	logger   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	player   ports.Engine
	started  bool
	released bool
}

// SetPlayer binds the content engine; nil unbinds it.
func (e *Engine) SetPlayer(p ports.Engine) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released {
		return
	}
	e.player = p
	if p == nil || e.started {
		return
	}
	e.started = true
	e.wg.Add(1)
	go e.run()
}

// Player returns the bound content engine.
func (e *Engine) Player() ports.Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.player
}

// Release stops a running break and waits for it to exit.
func (e *Engine) Release() {
	e.mu.Lock()
	if e.released {
		e.mu.Unlock()
		return
	}
	e.released = true
	e.player = nil
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()
}

func (e *Engine) run() {
	defer e.wg.Done()

	ad, err := e.fetcher.Fetch(e.ctx, e.tag)
	if err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, ErrNoLinearAd) {
			e.logger.Warn().Err(err).Msg("ad break skipped")
		}
		e.signal(model.AdAllCompleted)
		return
	}

	e.logger.Info().
		Str(log.FieldEvent, "ads.break.start").
		Str("ad_id", ad.ID).
		Int64(log.FieldDuration, ad.Duration.Milliseconds()).
		Msg("ad break starting")

	e.signal(model.AdLoaded)
	e.signal(model.AdContentPauseRequested)
	e.signal(model.AdStarted)

	timer := time.NewTimer(ad.Duration)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-e.ctx.Done():
		return
	}

	e.signal(model.AdCompleted)
	e.signal(model.AdContentResumeRequested)
	e.signal(model.AdAllCompleted)
}

func (e *Engine) signal(kind model.AdEventKind) {
	if e.ctx.Err() != nil {
		return
	}
	e.listener.OnAdEvent(model.AdEvent{Kind: kind})
}
