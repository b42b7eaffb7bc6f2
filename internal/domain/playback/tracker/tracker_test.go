// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package tracker

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/playctl/internal/domain/playback/model"
)

type fakeProps struct {
	duration int64
	buffered int64
	format   model.VideoFormat
	hasVideo bool
	panics   bool
}

func (p *fakeProps) Duration() int64 {
	if p.panics {
		panic("engine released")
	}
	return p.duration
}
func (p *fakeProps) BufferedPosition() int64 { return p.buffered }
func (p *fakeProps) VideoFormat() (model.VideoFormat, bool) {
	return p.format, p.hasVideo
}

type collector struct{ events []model.Event }

func (c *collector) Emit(ev model.Event) { c.events = append(c.events, ev) }

func state(s model.PlaybackState) Notification {
	return Notification{Kind: NoteStateChanged, State: s}
}

func TestNext_Table(t *testing.T) {
	props := &fakeProps{duration: 60000, buffered: 1500, format: model.VideoFormat{Width: 1280, Height: 720}, hasVideo: true}
	boom := errors.New("decoder failure")

	tests := []struct {
		name       string
		from       State
		note       Notification
		wantState  State
		wantEvents []model.Event
	}{
		{
			name:       "buffering edge",
			from:       State{},
			note:       state(model.StateBuffering),
			wantState:  State{Buffering: true},
			wantEvents: []model.Event{model.BufferingStart(), model.BufferingUpdate(1500)},
		},
		{
			name:       "buffering while buffering only updates",
			from:       State{Buffering: true},
			note:       state(model.StateBuffering),
			wantState:  State{Buffering: true},
			wantEvents: []model.Event{model.BufferingUpdate(1500)},
		},
		{
			name:       "first ready initializes then ends buffering",
			from:       State{Buffering: true},
			note:       state(model.StateReady),
			wantState:  State{Initialized: true},
			wantEvents: []model.Event{model.Initialized(60000, 1280, 720, true), model.BufferingEnd()},
		},
		{
			name:       "ready again is silent",
			from:       State{Initialized: true},
			note:       state(model.StateReady),
			wantState:  State{Initialized: true},
			wantEvents: nil,
		},
		{
			name:       "ended while buffering",
			from:       State{Initialized: true, Buffering: true},
			note:       state(model.StateEnded),
			wantState:  State{Initialized: true},
			wantEvents: []model.Event{model.Completed(), model.BufferingEnd()},
		},
		{
			name:       "idle clears buffering",
			from:       State{Buffering: true},
			note:       state(model.StateIdle),
			wantState:  State{},
			wantEvents: []model.Event{model.BufferingEnd()},
		},
		{
			name:       "source update before init ignored",
			from:       State{},
			note:       Notification{Kind: NoteTimelineChanged, Reason: model.TimelineSourceUpdate},
			wantState:  State{},
			wantEvents: nil,
		},
		{
			name:       "source update after init",
			from:       State{Initialized: true},
			note:       Notification{Kind: NoteTimelineChanged, Reason: model.TimelineSourceUpdate},
			wantState:  State{Initialized: true},
			wantEvents: []model.Event{model.DurationChanged(60000)},
		},
		{
			name:       "playlist change ignored",
			from:       State{Initialized: true},
			note:       Notification{Kind: NoteTimelineChanged, Reason: model.TimelinePlaylistChanged},
			wantState:  State{Initialized: true},
			wantEvents: nil,
		},
		{
			name:       "error clears buffering silently",
			from:       State{Initialized: true, Buffering: true},
			note:       Notification{Kind: NotePlayerError, Err: boom},
			wantState:  State{Initialized: true},
			wantEvents: []model.Event{model.PlayerError(boom)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, events := Next(tt.from, tt.note, props)
			assert.Equal(t, tt.wantState, got)
			if diff := cmp.Diff(tt.wantEvents, events); diff != "" {
				t.Errorf("events mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNext_RotationSwapsDimensions(t *testing.T) {
	props := &fakeProps{duration: 1000, format: model.VideoFormat{Width: 1080, Height: 1920, RotationDegrees: 90}, hasVideo: true}
	_, events := Next(State{}, state(model.StateReady), props)
	require.Len(t, events, 1)
	assert.Equal(t, model.Initialized(1000, 1920, 1080, true), events[0])
}

func TestNext_NoVideoFormatOmitsSize(t *testing.T) {
	_, events := Next(State{}, state(model.StateReady), &fakeProps{duration: 3000})
	require.Len(t, events, 1)
	assert.False(t, events[0].HasSize)
	assert.Equal(t, int64(3000), events[0].Duration)
}

func TestTracker_RandomSequencesStayConsistent(t *testing.T) {
	states := []model.PlaybackState{model.StateIdle, model.StateBuffering, model.StateReady, model.StateEnded}
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 200; round++ {
		c := &collector{}
		tr := New(&fakeProps{duration: 10}, c, "test", "s")
		for i := 0; i < 50; i++ {
			switch rng.Intn(6) {
			case 0:
				tr.OnPlayerError(errors.New("x"))
			case 1:
				tr.OnTimelineChanged(model.TimelineSourceUpdate)
			default:
				tr.OnPlaybackStateChanged(states[rng.Intn(len(states))])
			}
		}

		buffering := false
		initialized := 0
		for _, ev := range c.events {
			switch ev.Kind {
			case model.EventBufferingStart:
				require.False(t, buffering, "round %d: BufferingStart while buffering", round)
				buffering = true
			case model.EventBufferingEnd:
				require.True(t, buffering, "round %d: BufferingEnd while not buffering", round)
				buffering = false
			case model.EventBufferingUpdate:
				require.True(t, buffering, "round %d: BufferingUpdate outside buffering", round)
			case model.EventError:
				buffering = false
			case model.EventInitialized:
				initialized++
			case model.EventDurationChanged:
				require.Equal(t, 1, initialized, "round %d: DurationChanged before Initialized", round)
			}
		}
		require.LessOrEqual(t, initialized, 1)
		assert.Equal(t, buffering, tr.State().Buffering)
	}
}

func TestTracker_ClosedIgnoresNotifications(t *testing.T) {
	c := &collector{}
	tr := New(&fakeProps{}, c, "test", "s")
	tr.Close()

	tr.OnPlaybackStateChanged(model.StateBuffering)
	tr.OnPlaybackStateChanged(model.StateReady)
	tr.OnPlayerError(errors.New("late"))

	assert.Empty(t, c.events)
	assert.Equal(t, State{}, tr.State())
}

func TestTracker_PropertyPanicBecomesErrorEvent(t *testing.T) {
	c := &collector{}
	tr := New(&fakeProps{panics: true}, c, "test", "s")

	assert.NotPanics(t, func() { tr.OnPlaybackStateChanged(model.StateReady) })
	require.Len(t, c.events, 1)
	assert.Equal(t, model.EventError, c.events[0].Kind)
	assert.Contains(t, c.events[0].Message, "engine released")
	assert.False(t, tr.State().Initialized)
}
