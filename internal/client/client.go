// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package client is a Go client for the playctl control API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	v1 "github.com/ManuGH/playctl/internal/control/http/v1"
	"github.com/ManuGH/playctl/internal/platform/httpx"
)

// Error is a problem document returned by the server.
type Error struct {
	Status int    `json:"status"`
	Type   string `json:"type"`
	Title  string `json:"title"`
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (%d %s): %s", e.Code, e.Status, e.Title, e.Detail)
	}
	return fmt.Sprintf("%s (%d %s)", e.Code, e.Status, e.Title)
}

// Client talks to one playctl daemon.
type Client struct {
	base *url.URL
	http *http.Client
}

// New returns a client for the daemon at baseURL (e.g. "http://127.0.0.1:8088").
// A nil httpClient selects a client with bounded timeouts.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported base url scheme %q", u.Scheme)
	}
	if httpClient == nil {
		httpClient = httpx.NewClient(30 * time.Second)
	}
	return &Client{base: u, http: httpClient}, nil
}

func (c *Client) endpoint(parts ...string) string {
	return c.base.JoinPath(append([]string{"api", "v1", "players"}, parts...)...).String()
}

func (c *Client) do(ctx context.Context, method, target string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		perr := &Error{Status: resp.StatusCode, Title: http.StatusText(resp.StatusCode)}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(perr)
		perr.Status = resp.StatusCode
		return perr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Create opens a player.
func (c *Client) Create(ctx context.Context, req v1.CreatePlayerRequest) (v1.CreatePlayerResponse, error) {
	var out v1.CreatePlayerResponse
	err := c.do(ctx, http.MethodPost, c.endpoint(), req, &out)
	return out, err
}

// List returns all open players.
func (c *Client) List(ctx context.Context) ([]v1.PlayerStatus, error) {
	var out v1.PlayerList
	err := c.do(ctx, http.MethodGet, c.endpoint(), nil, &out)
	return out.Players, err
}

// Get returns one player's status.
func (c *Client) Get(ctx context.Context, id string) (v1.PlayerStatus, error) {
	var out v1.PlayerStatus
	err := c.do(ctx, http.MethodGet, c.endpoint(id), nil, &out)
	return out, err
}

func (c *Client) Play(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, c.endpoint(id, "play"), nil, nil)
}

func (c *Client) Pause(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, c.endpoint(id, "pause"), nil, nil)
}

func (c *Client) SetLooping(ctx context.Context, id string, loop bool) error {
	return c.do(ctx, http.MethodPut, c.endpoint(id, "looping"), v1.BoolValue{Value: &loop}, nil)
}

func (c *Client) SetVolume(ctx context.Context, id string, volume float64) error {
	return c.do(ctx, http.MethodPut, c.endpoint(id, "volume"), v1.FloatValue{Value: &volume}, nil)
}

func (c *Client) SetSpeed(ctx context.Context, id string, speed float64) error {
	return c.do(ctx, http.MethodPut, c.endpoint(id, "speed"), v1.FloatValue{Value: &speed}, nil)
}

// Seek moves the playhead to positionMs.
func (c *Client) Seek(ctx context.Context, id string, positionMs int64) error {
	return c.do(ctx, http.MethodPost, c.endpoint(id, "seek"), v1.SeekRequest{Position: &positionMs}, nil)
}

// Position returns the playhead in milliseconds.
func (c *Client) Position(ctx context.Context, id string) (int64, error) {
	var out v1.PositionResponse
	err := c.do(ctx, http.MethodGet, c.endpoint(id, "position"), nil, &out)
	return out.Position, err
}

// Dispose releases the player.
func (c *Client) Dispose(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.endpoint(id), nil, nil)
}
