// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package source resolves a URI and an optional format hint into a media
// source descriptor.
package source

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/ManuGH/playctl/internal/domain/playback/model"
)

// DefaultUserAgent is sent with remote requests when none is configured.
const DefaultUserAgent = "playctl"

// Options tunes remote data sources.
type Options struct {
	UserAgent string
}

// smooth streaming manifests: ".ism" or ".isml", optionally followed by
// "/manifest" with an optional "(format=...)" suffix.
var smoothPath = regexp.MustCompile(`\.ism(l)?(/manifest(\(.+\))?)?$`)

var extensionTypes = map[string]model.StreamType{
	".mpd":  model.StreamDASH,
	".m3u8": model.StreamHLS,
	".mp4":  model.StreamOther,
	".m4v":  model.StreamOther,
	".m4a":  model.StreamOther,
	".mov":  model.StreamOther,
	".mkv":  model.StreamOther,
	".webm": model.StreamOther,
	".ts":   model.StreamOther,
	".mp3":  model.StreamOther,
	".aac":  model.StreamOther,
	".3gp":  model.StreamOther,
	".flv":  model.StreamOther,
	".ogg":  model.StreamOther,
	".ogv":  model.StreamOther,
	".wav":  model.StreamOther,
}

// Infer derives a stream type from the URI path alone.
func Infer(u *url.URL) (model.StreamType, bool) {
	p := strings.ToLower(u.Path)
	if u.Path == "" && u.Opaque != "" {
		p = strings.ToLower(u.Opaque)
	}
	if smoothPath.MatchString(p) {
		return model.StreamSmooth, true
	}
	t, ok := extensionTypes[path.Ext(p)]
	return t, ok
}

// Classify selects the protocol handler for uri.
//
// A recognized hint wins. Otherwise the type is inferred from the path; an
// unrecognized extension without a hint is treated as progressive. An
// unrecognized hint that cannot be resolved from the path is fatal.
func Classify(uri, hint string, headers map[string]string, opts Options) (model.MediaSourceDescriptor, error) {
	if strings.TrimSpace(uri) == "" {
		return model.MediaSourceDescriptor{}, fmt.Errorf("%w: empty uri", model.ErrUnsupportedSource)
	}
	u, err := url.Parse(uri)
	if err != nil {
		return model.MediaSourceDescriptor{}, fmt.Errorf("%w: %v", model.ErrUnsupportedSource, err)
	}

	st, ok := model.ParseStreamType(hint)
	if !ok {
		inferred, found := Infer(u)
		switch {
		case found:
			st = inferred
		case hint == "":
			st = model.StreamOther
		default:
			return model.MediaSourceDescriptor{}, fmt.Errorf("%w: unknown format hint %q for %s", model.ErrUnsupportedSource, hint, u.Redacted())
		}
	}

	desc := model.MediaSourceDescriptor{Type: st, URI: uri}
	if IsRemote(u) {
		desc.Remote = true
		desc.AllowCrossProtocolRedirects = true
		desc.UserAgent = opts.UserAgent
		if desc.UserAgent == "" {
			desc.UserAgent = DefaultUserAgent
		}
		if len(headers) > 0 {
			desc.Headers = make(map[string]string, len(headers))
			for k, v := range headers {
				desc.Headers[k] = v
			}
		}
	}
	return desc, nil
}

// IsRemote reports whether u is fetched over HTTP(S).
func IsRemote(u *url.URL) bool {
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return true
	}
	return false
}
