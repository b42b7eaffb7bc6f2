// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package vast implements an ad engine driven by VAST ad tags.
package vast

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ErrNoLinearAd is returned when a tag resolves to a document without a
// playable linear creative.
var ErrNoLinearAd = errors.New("vast: no linear creative")

// Ad is the resolved linear break of a tag.
type Ad struct {
	ID       string
	Duration time.Duration
}

type document struct {
	XMLName xml.Name `xml:"VAST"`
	Version string   `xml:"version,attr"`
	Ads     []struct {
		ID     string `xml:"id,attr"`
		InLine *struct {
			Creatives []struct {
				Linear *struct {
					Duration string `xml:"Duration"`
				} `xml:"Linear"`
			} `xml:"Creatives>Creative"`
		} `xml:"InLine"`
	} `xml:"Ad"`
}

// Parse reads a VAST document and returns its first inline linear ad.
func Parse(r io.Reader) (Ad, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return Ad{}, fmt.Errorf("vast: decode: %w", err)
	}
	for _, ad := range doc.Ads {
		if ad.InLine == nil {
			continue
		}
		for _, c := range ad.InLine.Creatives {
			if c.Linear == nil {
				continue
			}
			d, err := ParseDuration(c.Linear.Duration)
			if err != nil {
				return Ad{}, err
			}
			return Ad{ID: ad.ID, Duration: d}, nil
		}
	}
	return Ad{}, ErrNoLinearAd
}

// ParseDuration parses the HH:MM:SS[.mmm] form used by VAST.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("vast: invalid duration %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 {
		return 0, fmt.Errorf("vast: invalid duration %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("vast: invalid duration %q", s)
	}
	sec, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || sec < 0 || sec >= 60 {
		return 0, fmt.Errorf("vast: invalid duration %q", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(sec*float64(time.Second)).Round(time.Millisecond), nil
}
