// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package mpv drives an mpv process over its JSON IPC socket.
package mpv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/playctl/internal/domain/playback/model"
	"github.com/ManuGH/playctl/internal/domain/playback/ports"
	"github.com/ManuGH/playctl/internal/log"
)

// Name identifies this engine in metrics and logs.
const Name = "mpv"

// observed properties and their ids
const (
	propPausedForCache = iota + 1
	propDuration
	propCacheTime
	propVideoParams
	propTimePos
)

var observed = map[int]string{
	propPausedForCache: "paused-for-cache",
	propDuration:       "duration",
	propCacheTime:      "demuxer-cache-time",
	propVideoParams:    "video-params",
	propTimePos:        "time-pos",
}

const callTimeout = 5 * time.Second

var errNoSource = errors.New("mpv: no source set")

type videoParams struct {
	Width  int `json:"w"`
	Height int `json:"h"`
	Rotate int `json:"rotate"`
}

// Engine implements ports.Engine on top of an mpv IPC connection.
type Engine struct {
	client *Client
	logger zerolog.Logger
	closer func() error // terminates the owning process, if any

	mu         sync.Mutex
	listeners  []ports.Listener
	source     *model.MediaSourceDescriptor
	loaded     bool
	buffering  bool
	durationS  float64
	cacheS     float64
	positionS  float64
	format     *videoParams
	surface    ports.Surface
	releaseErr error
	released   bool
}

// NewEngine wraps an established IPC connection. closer, if non-nil, is
// invoked on Release after the connection is closed.
func NewEngine(ctx context.Context, conn net.Conn, sessionID string, closer func() error) (*Engine, error) {
	e := &Engine{
		logger: log.WithComponent("engine.mpv").With().Str(log.FieldSessionID, sessionID).Logger(),
		closer: closer,
	}
	e.client = NewClient(conn, e.handle, e.logger)

	ids := make([]int, 0, len(observed))
	for id := range observed {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	for _, id := range ids {
		if _, err := e.client.Call(callCtx, "observe_property", id, observed[id]); err != nil {
			_ = e.Release()
			return nil, fmt.Errorf("observe %s: %w", observed[id], err)
		}
	}
	return e, nil
}

// handle runs on the client reader goroutine.
func (e *Engine) handle(msg Message) {
	var (
		state    model.PlaybackState
		timeline bool
		perr     error
	)

	e.mu.Lock()
	if e.released {
		e.mu.Unlock()
		return
	}
	switch msg.Event {
	case "start-file", "seek":
		e.buffering = true
		state = model.StateBuffering
	case "playback-restart":
		e.loaded = true
		e.buffering = false
		state = model.StateReady
	case "end-file":
		e.loaded = false
		e.buffering = false
		switch msg.Reason {
		case "eof":
			state = model.StateEnded
		case "error":
			perr = fmt.Errorf("mpv: %s", orDefault(msg.FileError, "playback failed"))
			state = model.StateIdle
		default:
			state = model.StateIdle
		}
	case "property-change":
		state, timeline = e.applyProperty(msg)
	}
	listeners := append([]ports.Listener(nil), e.listeners...)
	e.mu.Unlock()

	for _, l := range listeners {
		if perr != nil {
			l.OnPlayerError(perr)
		}
		if state != "" {
			l.OnPlaybackStateChanged(state)
		}
		if timeline {
			l.OnTimelineChanged(model.TimelineSourceUpdate)
		}
	}
}

// applyProperty updates cached properties; caller holds mu.
func (e *Engine) applyProperty(msg Message) (model.PlaybackState, bool) {
	if len(msg.Data) == 0 || string(msg.Data) == "null" {
		return "", false
	}
	switch msg.ID {
	case propPausedForCache:
		var paused bool
		if json.Unmarshal(msg.Data, &paused) != nil || !e.loaded || paused == e.buffering {
			return "", false
		}
		e.buffering = paused
		if paused {
			return model.StateBuffering, false
		}
		return model.StateReady, false
	case propDuration:
		var d float64
		if json.Unmarshal(msg.Data, &d) != nil || d == e.durationS {
			return "", false
		}
		e.durationS = d
		return "", true
	case propCacheTime:
		_ = json.Unmarshal(msg.Data, &e.cacheS)
	case propTimePos:
		_ = json.Unmarshal(msg.Data, &e.positionS)
	case propVideoParams:
		var vp videoParams
		if json.Unmarshal(msg.Data, &vp) == nil && vp.Width > 0 && vp.Height > 0 {
			e.format = &vp
		}
	}
	return "", false
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func (e *Engine) send(args ...any) {
	if err := e.client.Send(args...); err != nil {
		e.logger.Warn().Err(err).Interface("command", args[0]).Msg("mpv command failed")
	}
}

func (e *Engine) call(args ...any) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	_, err := e.client.Call(ctx, args...)
	return err
}

func (e *Engine) SetSource(desc model.MediaSourceDescriptor) error {
	headers := make([]string, 0, len(desc.Headers))
	for k, v := range desc.Headers {
		headers = append(headers, k+": "+v)
	}
	sort.Strings(headers)

	if err := e.call("set_property", "http-header-fields", headers); err != nil {
		return err
	}
	if desc.UserAgent != "" {
		if err := e.call("set_property", "user-agent", desc.UserAgent); err != nil {
			return err
		}
	}

	e.mu.Lock()
	e.source = &desc
	e.mu.Unlock()
	return nil
}

func (e *Engine) Prepare() error {
	e.mu.Lock()
	src := e.source
	e.mu.Unlock()
	if src == nil {
		return errNoSource
	}
	return e.call("loadfile", src.URI, "replace")
}

func (e *Engine) SetPlayWhenReady(play bool) {
	e.send("set_property", "pause", !play)
}

func (e *Engine) SetRepeatMode(loop bool) {
	mode := "no"
	if loop {
		mode = "inf"
	}
	e.send("set_property", "loop-file", mode)
}

// SetVolume maps a linear gain in [0,1] onto mpv's 0-100 scale.
func (e *Engine) SetVolume(v float64) {
	e.send("set_property", "volume", math.Round(v*100))
}

func (e *Engine) SetPlaybackSpeed(s float64) {
	e.send("set_property", "speed", s)
}

func (e *Engine) SeekTo(ms int64) {
	e.send("seek", float64(ms)/1000, "absolute")
}

func (e *Engine) CurrentPosition() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return int64(e.positionS * 1000)
}

func (e *Engine) Duration() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return int64(e.durationS * 1000)
}

func (e *Engine) BufferedPosition() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return int64(e.cacheS * 1000)
}

func (e *Engine) VideoFormat() (model.VideoFormat, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.format == nil {
		return model.VideoFormat{}, false
	}
	return model.VideoFormat{Width: e.format.Width, Height: e.format.Height, RotationDegrees: e.format.Rotate}, true
}

// SetVideoSurface binds the render target. Headless mpv renders to its own
// window; the surface is tracked so it is never used after release.
func (e *Engine) SetVideoSurface(s ports.Surface) {
	e.mu.Lock()
	e.surface = s
	e.mu.Unlock()
}

func (e *Engine) SetAudioAttributes(mixWithOthers bool) {
	e.send("set_property", "audio-exclusive", !mixWithOthers)
}

func (e *Engine) AddListener(l ports.Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

func (e *Engine) Stop() {
	e.send("stop")
}

// Release quits mpv, closes the connection and reaps the process.
func (e *Engine) Release() error {
	e.mu.Lock()
	if e.released {
		err := e.releaseErr
		e.mu.Unlock()
		return err
	}
	e.released = true
	e.listeners = nil
	e.surface = nil
	e.mu.Unlock()

	var errs []error
	if e.client != nil {
		_ = e.client.Send("quit")
		if err := e.client.Close(); err != nil && !errors.Is(err, ErrClosed) {
			errs = append(errs, err)
		}
	}
	if e.closer != nil {
		if err := e.closer(); err != nil {
			errs = append(errs, err)
		}
	}

	err := errors.Join(errs...)
	e.mu.Lock()
	e.releaseErr = err
	e.mu.Unlock()
	return err
}
