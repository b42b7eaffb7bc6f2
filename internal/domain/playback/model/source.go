// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import "maps"

// StreamType selects the protocol handler for a media source.
type StreamType string

const (
	StreamSmooth StreamType = "ss"
	StreamDASH   StreamType = "dash"
	StreamHLS    StreamType = "hls"
	StreamOther  StreamType = "other"
)

// ParseStreamType maps a host format hint to a StreamType.
func ParseStreamType(hint string) (StreamType, bool) {
	switch StreamType(hint) {
	case StreamSmooth, StreamDASH, StreamHLS, StreamOther:
		return StreamType(hint), true
	}
	return "", false
}

func (t StreamType) String() string { return string(t) }

// AdBreak marks a descriptor wrapped for ad insertion.
type AdBreak struct {
	TagURI    string
	OverlayID int64
}

// MediaSourceDescriptor is the resolved, immutable description of what to load.
type MediaSourceDescriptor struct {
	Type                        StreamType
	URI                         string
	Headers                     map[string]string
	Remote                      bool
	AllowCrossProtocolRedirects bool
	UserAgent                   string
	AdBreak                     *AdBreak
}

// WithAdBreak returns a copy wrapped with the given ad break.
func (d MediaSourceDescriptor) WithAdBreak(ab AdBreak) MediaSourceDescriptor {
	out := d.clone()
	out.AdBreak = &ab
	return out
}

// HeaderMap returns a copy of the request headers.
func (d MediaSourceDescriptor) HeaderMap() map[string]string {
	return maps.Clone(d.Headers)
}

func (d MediaSourceDescriptor) clone() MediaSourceDescriptor {
	out := d
	out.Headers = maps.Clone(d.Headers)
	if d.AdBreak != nil {
		ab := *d.AdBreak
		out.AdBreak = &ab
	}
	return out
}
