// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import (
	"encoding/json"
	"fmt"
)

// EventKind is the wire discriminator of a playback event.
type EventKind string

const (
	EventInitialized        EventKind = "initialized"
	EventBufferingStart     EventKind = "bufferingStart"
	EventBufferingUpdate    EventKind = "bufferingUpdate"
	EventBufferingEnd       EventKind = "bufferingEnd"
	EventCompleted          EventKind = "completed"
	EventDurationChanged    EventKind = "durationUpdate"
	EventAdvertisementStart EventKind = "advertisementStart"
	EventAdvertisementEnd   EventKind = "advertisementEnd"
	EventError              EventKind = "error"
)

// ErrorCodeVideo is the code attached to every runtime playback error event.
const ErrorCodeVideo = "VideoError"

// Range is a closed [Start, End] interval in milliseconds.
type Range [2]int64

// Event is a single notification delivered to the session listener.
// Only the fields relevant to Kind are meaningful.
type Event struct {
	Kind     EventKind
	Duration int64 // ms; Initialized, DurationChanged, Advertisement*
	Width    int   // Initialized
	Height   int   // Initialized
	HasSize  bool  // Initialized carries width/height
	Ranges   []Range
	Message  string // Error
}

func Initialized(duration int64, width, height int, hasSize bool) Event {
	e := Event{Kind: EventInitialized, Duration: duration, HasSize: hasSize}
	if hasSize {
		e.Width, e.Height = width, height
	}
	return e
}

func BufferingStart() Event { return Event{Kind: EventBufferingStart} }

// BufferingUpdate reports a single buffered range [0, buffered].
func BufferingUpdate(buffered int64) Event {
	return Event{Kind: EventBufferingUpdate, Ranges: []Range{{0, buffered}}}
}

func BufferingEnd() Event { return Event{Kind: EventBufferingEnd} }

func Completed() Event { return Event{Kind: EventCompleted} }

func DurationChanged(duration int64) Event {
	return Event{Kind: EventDurationChanged, Duration: duration}
}

func AdvertisementStart(duration int64) Event {
	return Event{Kind: EventAdvertisementStart, Duration: duration}
}

func AdvertisementEnd(duration int64) Event {
	return Event{Kind: EventAdvertisementEnd, Duration: duration}
}

// PlayerError wraps a runtime engine error into an Error event.
func PlayerError(err error) Event {
	return Event{Kind: EventError, Message: fmt.Sprintf("Video player had error %v", err)}
}

func (e Event) String() string {
	switch e.Kind {
	case EventInitialized:
		if e.HasSize {
			return fmt.Sprintf("%s(duration=%d, %dx%d)", e.Kind, e.Duration, e.Width, e.Height)
		}
		return fmt.Sprintf("%s(duration=%d)", e.Kind, e.Duration)
	case EventDurationChanged, EventAdvertisementStart, EventAdvertisementEnd:
		return fmt.Sprintf("%s(duration=%d)", e.Kind, e.Duration)
	case EventBufferingUpdate:
		return fmt.Sprintf("%s(%v)", e.Kind, e.Ranges)
	case EventError:
		return fmt.Sprintf("%s(%s)", e.Kind, e.Message)
	default:
		return string(e.Kind)
	}
}

// Fields returns the keyed-record wire form with the "event" discriminator.
func (e Event) Fields() map[string]any {
	m := map[string]any{"event": string(e.Kind)}
	switch e.Kind {
	case EventInitialized:
		m["duration"] = e.Duration
		if e.HasSize {
			m["width"] = e.Width
			m["height"] = e.Height
		}
	case EventDurationChanged, EventAdvertisementStart, EventAdvertisementEnd:
		m["duration"] = e.Duration
	case EventBufferingUpdate:
		values := make([][]int64, 0, len(e.Ranges))
		for _, r := range e.Ranges {
			values = append(values, []int64{r[0], r[1]})
		}
		m["values"] = values
	case EventError:
		m["code"] = ErrorCodeVideo
		m["message"] = e.Message
	}
	return m
}

func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Fields())
}

type wireEvent struct {
	Event    EventKind  `json:"event"`
	Duration *int64     `json:"duration"`
	Width    *int       `json:"width"`
	Height   *int       `json:"height"`
	Values   [][2]int64 `json:"values"`
	Message  string     `json:"message"`
}

// ParseEvent decodes the wire form. Unknown discriminators yield ok=false
// and no error so that consumers can skip event kinds they do not know.
func ParseEvent(data []byte) (ev Event, ok bool, err error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return Event{}, false, fmt.Errorf("decode event: %w", err)
	}
	ev.Kind = w.Event
	switch w.Event {
	case EventInitialized:
		if w.Width != nil && w.Height != nil {
			ev.HasSize = true
			ev.Width, ev.Height = *w.Width, *w.Height
		}
	case EventDurationChanged, EventAdvertisementStart, EventAdvertisementEnd:
	case EventBufferingUpdate:
		for _, v := range w.Values {
			ev.Ranges = append(ev.Ranges, Range(v))
		}
	case EventBufferingStart, EventBufferingEnd, EventCompleted:
	case EventError:
		ev.Message = w.Message
	default:
		return Event{}, false, nil
	}
	if w.Duration != nil {
		ev.Duration = *w.Duration
	}
	return ev, true, nil
}
