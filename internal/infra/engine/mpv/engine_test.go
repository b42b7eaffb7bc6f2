// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/playctl/internal/domain/playback/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeMPV answers every request with success and scripts events for loadfile.
type fakeMPV struct {
	conn net.Conn

	mu       sync.Mutex
	commands [][]any
	done     chan struct{}
}

func startFake(t *testing.T) (*fakeMPV, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	f := &fakeMPV{conn: server, done: make(chan struct{})}
	go f.serve()
	t.Cleanup(func() {
		_ = server.Close()
		<-f.done
	})
	return f, client
}

func (f *fakeMPV) serve() {
	defer close(f.done)
	scanner := bufio.NewScanner(f.conn)
	for scanner.Scan() {
		var req request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			continue
		}
		f.mu.Lock()
		f.commands = append(f.commands, req.Command)
		f.mu.Unlock()

		if !f.send(map[string]any{"request_id": req.RequestID, "error": "success"}) {
			return
		}
		switch req.Command[0] {
		case "loadfile":
			f.send(map[string]any{"event": "start-file"})
			f.send(map[string]any{"event": "property-change", "id": propDuration, "name": "duration", "data": 12.5})
			f.send(map[string]any{"event": "property-change", "id": propVideoParams, "name": "video-params", "data": map[string]any{"w": 1080, "h": 1920, "rotate": 90}})
			f.send(map[string]any{"event": "property-change", "id": propCacheTime, "name": "demuxer-cache-time", "data": 4.0})
			f.send(map[string]any{"event": "playback-restart"})
		case "quit":
			_ = f.conn.Close()
			return
		}
	}
}

func (f *fakeMPV) send(v any) bool {
	b, _ := json.Marshal(v)
	_, err := f.conn.Write(append(b, '\n'))
	return err == nil
}

// event pushes an unsolicited event to the client.
func (f *fakeMPV) event(v map[string]any) {
	f.send(v)
}

func (f *fakeMPV) sawCommand(name string) []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.commands {
		if c[0] == name {
			return c
		}
	}
	return nil
}

type listener struct {
	mu    sync.Mutex
	notes []string
}

func (l *listener) add(s string) {
	l.mu.Lock()
	l.notes = append(l.notes, s)
	l.mu.Unlock()
}
func (l *listener) OnPlaybackStateChanged(s model.PlaybackState) { l.add("state:" + string(s)) }
func (l *listener) OnTimelineChanged(r model.TimelineReason)     { l.add("timeline:" + string(r)) }
func (l *listener) OnPlayerError(err error)                      { l.add("error:" + err.Error()) }
func (l *listener) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.notes...)
}

func newTestEngine(t *testing.T) (*Engine, *fakeMPV, *listener) {
	t.Helper()
	fake, conn := startFake(t)
	e, err := NewEngine(context.Background(), conn, "s", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Release() })
	l := &listener{}
	e.AddListener(l)
	return e, fake, l
}

func TestEngine_ObservesProperties(t *testing.T) {
	_, fake, _ := newTestEngine(t)
	for _, name := range []string{"paused-for-cache", "duration", "demuxer-cache-time", "video-params", "time-pos"} {
		found := false
		fake.mu.Lock()
		for _, c := range fake.commands {
			if c[0] == "observe_property" && c[2] == name {
				found = true
			}
		}
		fake.mu.Unlock()
		assert.True(t, found, "observe %s", name)
	}
}

func TestEngine_LoadMapsEvents(t *testing.T) {
	e, fake, l := newTestEngine(t)

	require.NoError(t, e.SetSource(model.MediaSourceDescriptor{
		URI:       "https://cdn.example/a.m3u8",
		Headers:   map[string]string{"Authorization": "Bearer t"},
		UserAgent: "playctl",
	}))
	require.NoError(t, e.Prepare())

	require.Eventually(t, func() bool { return len(l.snapshot()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"state:buffering", "timeline:source_update", "state:ready"}, l.snapshot())

	assert.Equal(t, int64(12500), e.Duration())
	assert.Equal(t, int64(4000), e.BufferedPosition())
	f, ok := e.VideoFormat()
	require.True(t, ok)
	assert.Equal(t, model.VideoFormat{Width: 1080, Height: 1920, RotationDegrees: 90}, f)

	hdr := fake.sawCommand("set_property")
	require.NotNil(t, hdr)
	assert.Equal(t, "http-header-fields", hdr[1])
	assert.Equal(t, []any{"Authorization: Bearer t"}, hdr[2])
	assert.Equal(t, []any{"loadfile", "https://cdn.example/a.m3u8", "replace"}, fake.sawCommand("loadfile"))
}

func TestEngine_CacheStallsAndEndOfFile(t *testing.T) {
	e, fake, l := newTestEngine(t)
	require.NoError(t, e.SetSource(model.MediaSourceDescriptor{URI: "file:///a.mkv"}))
	require.NoError(t, e.Prepare())
	require.Eventually(t, func() bool { return len(l.snapshot()) == 3 }, time.Second, 5*time.Millisecond)

	fake.event(map[string]any{"event": "property-change", "id": propPausedForCache, "name": "paused-for-cache", "data": true})
	fake.event(map[string]any{"event": "property-change", "id": propPausedForCache, "name": "paused-for-cache", "data": true})
	fake.event(map[string]any{"event": "property-change", "id": propPausedForCache, "name": "paused-for-cache", "data": false})
	fake.event(map[string]any{"event": "end-file", "reason": "eof"})
	fake.event(map[string]any{"event": "end-file", "reason": "error", "file_error": "loading failed"})

	require.Eventually(t, func() bool { return len(l.snapshot()) == 8 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{
		"state:buffering", "state:ready",
		"state:ended",
		"error:mpv: loading failed", "state:idle",
	}, l.snapshot()[3:])
}

func TestEngine_CommandMapping(t *testing.T) {
	e, fake, _ := newTestEngine(t)

	e.SetVolume(0.25)
	e.SetPlayWhenReady(true)
	e.SeekTo(1500)
	e.SetRepeatMode(true)
	e.SetPlaybackSpeed(1.25)
	e.SetAudioAttributes(true)
	e.Stop()

	require.Eventually(t, func() bool { return fake.sawCommand("stop") != nil }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []any{"seek", 1.5, "absolute"}, fake.sawCommand("seek"))

	props := map[string]any{}
	fake.mu.Lock()
	for _, c := range fake.commands {
		if c[0] == "set_property" {
			props[fmt.Sprint(c[1])] = c[2]
		}
	}
	fake.mu.Unlock()
	assert.Equal(t, 25.0, props["volume"])
	assert.Equal(t, false, props["pause"])
	assert.Equal(t, "inf", props["loop-file"])
	assert.Equal(t, 1.25, props["speed"])
	assert.Equal(t, false, props["audio-exclusive"])
}

func TestEngine_ReleaseIsIdempotent(t *testing.T) {
	e, _, l := newTestEngine(t)
	closed := 0
	e.closer = func() error { closed++; return nil }

	require.NoError(t, e.Release())
	require.NoError(t, e.Release())
	assert.Equal(t, 1, closed)
	assert.Empty(t, l.snapshot())

	require.ErrorIs(t, e.Prepare(), errNoSource)
	require.ErrorIs(t, e.SetSource(model.MediaSourceDescriptor{URI: "file:///a"}), ErrClosed)
}

func TestDial_WaitsForSocket(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "m.sock")
	exited := make(chan struct{})

	go func() {
		time.Sleep(50 * time.Millisecond)
		ln, err := net.Listen("unix", socket)
		if err != nil {
			return
		}
		defer ln.Close()
		c, err := ln.Accept()
		if err == nil {
			_ = c.Close()
		}
	}()

	conn, err := dial(context.Background(), socket, 2*time.Second, 10*time.Millisecond, exited)
	require.NoError(t, err)
	_ = conn.Close()
}

func TestDial_ProcessExit(t *testing.T) {
	exited := make(chan struct{})
	close(exited)
	_, err := dial(context.Background(), filepath.Join(t.TempDir(), "none.sock"), time.Second, 10*time.Millisecond, exited)
	require.ErrorContains(t, err, "exited")
}
