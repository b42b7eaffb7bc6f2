// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package tracker

import (
	"github.com/ManuGH/playctl/internal/domain/playback/model"
)

// State is the derived playback state of one session.
type State struct {
	Initialized bool
	Buffering   bool
}

// NotificationKind enumerates engine notifications.
type NotificationKind string

const (
	NoteStateChanged    NotificationKind = "state_changed"
	NoteTimelineChanged NotificationKind = "timeline_changed"
	NotePlayerError     NotificationKind = "player_error"
)

// Notification is one engine callback reduced to data.
type Notification struct {
	Kind   NotificationKind
	State  model.PlaybackState
	Reason model.TimelineReason
	Err    error
}

// Properties reads engine properties at the moment a notification is handled.
type Properties interface {
	Duration() int64
	BufferedPosition() int64
	VideoFormat() (model.VideoFormat, bool)
}

// Next applies n to s and returns the new state and the events to emit, in order.
func Next(s State, n Notification, props Properties) (State, []model.Event) {
	switch n.Kind {
	case NoteStateChanged:
		return onState(s, n.State, props)
	case NoteTimelineChanged:
		if n.Reason == model.TimelineSourceUpdate && s.Initialized {
			return s, []model.Event{model.DurationChanged(props.Duration())}
		}
		return s, nil
	case NotePlayerError:
		s.Buffering = false
		return s, []model.Event{model.PlayerError(n.Err)}
	}
	return s, nil
}

func onState(s State, st model.PlaybackState, props Properties) (State, []model.Event) {
	var out []model.Event

	switch st {
	case model.StateBuffering:
		if !s.Buffering {
			s.Buffering = true
			out = append(out, model.BufferingStart())
		}
		out = append(out, model.BufferingUpdate(props.BufferedPosition()))
		return s, out

	case model.StateReady:
		if !s.Initialized {
			s.Initialized = true
			out = append(out, initializedEvent(props))
		}
		return endBuffering(s, out)

	case model.StateEnded:
		out = append(out, model.Completed())
		return endBuffering(s, out)
	}

	return endBuffering(s, out)
}

func endBuffering(s State, out []model.Event) (State, []model.Event) {
	if s.Buffering {
		s.Buffering = false
		out = append(out, model.BufferingEnd())
	}
	return s, out
}

func initializedEvent(props Properties) model.Event {
	format, ok := props.VideoFormat()
	if !ok {
		return model.Initialized(props.Duration(), 0, 0, false)
	}
	w, h := format.DisplaySize()
	return model.Initialized(props.Duration(), w, h, true)
}
