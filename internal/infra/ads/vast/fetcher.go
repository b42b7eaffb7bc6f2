// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package vast

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/ManuGH/playctl/internal/log"
	"github.com/ManuGH/playctl/internal/metrics"
	"github.com/ManuGH/playctl/internal/resilience"
)

const maxDocumentBytes = 1 << 20

// Fetcher resolves ad tags. Concurrent fetches of one tag share a request,
// and repeated upstream failures open the breaker.
type Fetcher struct {
	client  *http.Client
	breaker *resilience.CircuitBreaker
	timeout time.Duration
	logger  zerolog.Logger

	group singleflight.Group
}

// NewBreaker returns a breaker for ad servers. No-fill answers and caller
// cancellation do not count as failures.
func NewBreaker(threshold int, reset time.Duration) *resilience.CircuitBreaker {
	return resilience.NewCircuitBreaker("vast", threshold, reset,
		resilience.WithIgnore(func(err error) bool {
			return errors.Is(err, context.Canceled) || errors.Is(err, ErrNoLinearAd)
		}),
	)
}

// NewFetcher returns a fetcher using client. timeout bounds one shared fetch.
func NewFetcher(client *http.Client, breaker *resilience.CircuitBreaker, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Fetcher{
		client:  client,
		breaker: breaker,
		timeout: timeout,
		logger:  log.WithComponent("ads.vast"),
	}
}

// Fetch returns the linear ad for tag.
func (f *Fetcher) Fetch(ctx context.Context, tag string) (Ad, error) {
	ch := f.group.DoChan(tag, func() (any, error) {
		// shared by all waiters; must not inherit one caller's cancellation
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
		defer cancel()

		var ad Ad
		err := f.breaker.Execute(func() error {
			var err error
			ad, err = f.fetch(fetchCtx, tag)
			return err
		})
		return ad, err
	})

	select {
	case res := <-ch:
		result := "ok"
		switch {
		case errors.Is(res.Err, resilience.ErrCircuitOpen):
			result = "circuit_open"
		case errors.Is(res.Err, ErrNoLinearAd):
			result = "no_fill"
		case res.Err != nil:
			result = "error"
		}
		if !res.Shared {
			metrics.ObserveAdTagFetch(result)
		}
		if res.Err != nil {
			f.logger.Warn().Err(res.Err).Str(log.FieldAdTag, tag).Msg("ad tag fetch failed")
			return Ad{}, res.Err
		}
		return res.Val.(Ad), nil
	case <-ctx.Done():
		return Ad{}, ctx.Err()
	}
}

func (f *Fetcher) fetch(ctx context.Context, tag string) (Ad, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tag, nil)
	if err != nil {
		return Ad{}, fmt.Errorf("vast: build request: %w", err)
	}
	req.Header.Set("Accept", "application/xml, text/xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return Ad{}, fmt.Errorf("vast: fetch %s: %w", tag, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Ad{}, fmt.Errorf("vast: fetch %s: unexpected status %d", tag, resp.StatusCode)
	}
	return Parse(io.LimitReader(resp.Body, maxDocumentBytes))
}
