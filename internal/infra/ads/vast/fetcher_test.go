// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package vast

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/playctl/internal/platform/httpx"
	"github.com/ManuGH/playctl/internal/resilience"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

func vastBody(duration string) string {
	return fmt.Sprintf(`<VAST version="3.0"><Ad id="a1"><InLine><Creatives><Creative><Linear><Duration>%s</Duration></Linear></Creative></Creatives></InLine></Ad></VAST>`, duration)
}

func newFetcher(t *testing.T, threshold int) *Fetcher {
	t.Helper()
	return NewFetcher(httpx.NewClient(2*time.Second), NewBreaker(threshold, time.Minute), time.Second)
}

func TestFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept"), "xml")
		w.Header().Set("Content-Type", "application/xml")
		_, _ = fmt.Fprint(w, vastBody("00:00:02"))
	}))
	defer srv.Close()

	ad, err := newFetcher(t, 3).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "a1", ad.ID)
	assert.Equal(t, 2*time.Second, ad.Duration)
}

func TestFetcher_SharesConcurrentFetches(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = fmt.Fprint(w, vastBody("00:00:01"))
	}))
	defer srv.Close()

	f := newFetcher(t, 3)
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.Fetch(context.Background(), srv.URL)
			assert.NoError(t, err)
		}()
	}
	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
}

func TestFetcher_BreakerOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := newFetcher(t, 2)
	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), srv.URL)
		require.ErrorContains(t, err, "unexpected status 502")
	}
	_, err := f.Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetcher_NoFillKeepsBreakerClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<VAST version="3.0"/>`)
	}))
	defer srv.Close()

	f := newFetcher(t, 1)
	for i := 0; i < 3; i++ {
		_, err := f.Fetch(context.Background(), srv.URL)
		require.ErrorIs(t, err, ErrNoLinearAd)
	}
}

func TestFetcher_CallerCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := newFetcher(t, 3).Fetch(ctx, srv.URL)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
