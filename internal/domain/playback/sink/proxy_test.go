// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package sink

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/playctl/internal/domain/playback/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu     sync.Mutex
	events []model.Event
}

func (r *recorder) Deliver(ev model.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Event(nil), r.events...)
}

func TestProxy_QueuesUntilAttachThenDrainsInOrder(t *testing.T) {
	p := New()
	p.Emit(model.BufferingStart())
	p.Emit(model.BufferingUpdate(10))
	p.Emit(model.BufferingEnd())
	require.Equal(t, ModeQueuing, p.Mode())
	require.Equal(t, 3, p.Pending())

	rec := &recorder{}
	p.Attach(rec)
	assert.Equal(t, ModeForwarding, p.Mode())
	assert.Zero(t, p.Pending())

	p.Emit(model.Completed())

	want := []model.Event{model.BufferingStart(), model.BufferingUpdate(10), model.BufferingEnd(), model.Completed()}
	if diff := cmp.Diff(want, rec.snapshot()); diff != "" {
		t.Fatalf("delivered events mismatch (-want +got):\n%s", diff)
	}
}

func TestProxy_DetachRequeuesWithoutReplay(t *testing.T) {
	p := New()
	first := &recorder{}
	p.Attach(first)
	p.Emit(model.BufferingStart())
	p.Detach()

	p.Emit(model.BufferingEnd())
	assert.Equal(t, 1, p.Pending())

	second := &recorder{}
	p.Attach(second)

	assert.Equal(t, []model.Event{model.BufferingStart()}, first.snapshot())
	assert.Equal(t, []model.Event{model.BufferingEnd()}, second.snapshot())
}

func TestProxy_AttachReplacesDelegate(t *testing.T) {
	p := New()
	a, b := &recorder{}, &recorder{}
	p.Attach(a)
	p.Attach(b)
	p.Emit(model.Completed())

	assert.Empty(t, a.snapshot())
	assert.Equal(t, []model.Event{model.Completed()}, b.snapshot())
}

func TestProxy_DetachIfOnlyCurrentToken(t *testing.T) {
	p := New()
	old := p.Attach(&recorder{})
	cur := p.Attach(&recorder{})

	assert.False(t, p.DetachIf(old), "stale token must not detach the newer delegate")
	assert.Equal(t, ModeForwarding, p.Mode())
	assert.True(t, p.DetachIf(cur))
	assert.Equal(t, ModeQueuing, p.Mode())
	assert.False(t, p.DetachIf(cur))
}

func TestProxy_ClosedIsInert(t *testing.T) {
	p := New()
	p.Emit(model.Completed())
	p.Close()

	rec := &recorder{}
	assert.NotPanics(t, func() {
		p.Emit(model.Completed())
		p.Attach(rec)
		p.Detach()
		p.Close()
	})
	assert.Empty(t, rec.snapshot())
	assert.Equal(t, ModeClosed, p.Mode())
	assert.Zero(t, p.Pending())
}

func TestProxy_NilAttachDetaches(t *testing.T) {
	p := New()
	p.Attach(&recorder{})
	p.Attach(nil)
	assert.Equal(t, ModeQueuing, p.Mode())
}

// Producers emit while the consumer attaches concurrently; every event must be
// delivered exactly once and each producer's events must stay in order.
func TestProxy_ConcurrentEmitAndAttach(t *testing.T) {
	const producers = 8
	const perProducer = 500

	p := New()
	rec := &recorder{}

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			<-start
			for n := 0; n < perProducer; n++ {
				p.Emit(model.Event{Kind: model.EventDurationChanged, Width: id, Duration: int64(n)})
			}
		}(i)
	}

	close(start)
	p.Attach(rec)
	wg.Wait()

	got := rec.snapshot()
	require.Len(t, got, producers*perProducer)

	next := make([]int64, producers)
	for _, ev := range got {
		require.Equal(t, next[ev.Width], ev.Duration, "producer %d out of order", ev.Width)
		next[ev.Width]++
	}
}
