// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package sink buffers playback events until a consumer attaches and then
// forwards them in emission order.
package sink

import (
	"sync"

	"github.com/ManuGH/playctl/internal/domain/playback/model"
	"github.com/ManuGH/playctl/internal/domain/playback/ports"
	"github.com/ManuGH/playctl/internal/metrics"
)

// Mode is the current delivery mode of a Proxy.
type Mode string

const (
	ModeQueuing    Mode = "queuing"
	ModeForwarding Mode = "forwarding"
	ModeClosed     Mode = "closed"
)

// Token identifies one attachment. Tokens are never reused within a Proxy.
type Token uint64

// Proxy decouples event producers from an optional consumer.
//
// While no delegate is attached every event is queued. Attach drains the
// queue in FIFO order before any later event is delivered. Delivery happens
// under the proxy lock so the consumer observes the exact emission order.
type Proxy struct {
	mu       sync.Mutex
	delegate ports.Delegate
	token    Token
	nextTok  Token
	queue    []model.Event
	closed   bool
}

func New() *Proxy {
	return &Proxy{}
}

// Emit delivers ev to the attached delegate or queues it. It is a no-op after Close.
func (p *Proxy) Emit(ev model.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	if p.delegate == nil {
		p.queue = append(p.queue, ev)
		metrics.ObserveSinkEmit(string(ev.Kind), metrics.SinkModeQueued)
		return
	}
	p.delegate.Deliver(ev)
	metrics.ObserveSinkEmit(string(ev.Kind), metrics.SinkModeDelivered)
}

// Attach installs d, replacing any current delegate, and synchronously
// drains the backlog into it. A nil delegate is equivalent to Detach.
func (p *Proxy) Attach(d ports.Delegate) Token {
	if d == nil {
		p.Detach()
		return 0
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0
	}
	p.nextTok++
	p.token = p.nextTok
	p.delegate = d

	backlog := p.queue
	p.queue = nil
	for _, ev := range backlog {
		d.Deliver(ev)
	}
	metrics.ObserveSinkDrain(len(backlog))
	return p.token
}

// Detach clears the delegate. The queue is kept and nothing is replayed.
func (p *Proxy) Detach() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delegate = nil
	p.token = 0
}

// DetachIf clears the delegate only if tok is still the current attachment.
func (p *Proxy) DetachIf(tok Token) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if tok == 0 || p.token != tok {
		return false
	}
	p.delegate = nil
	p.token = 0
	return true
}

// Close detaches and drops the backlog. Later calls are no-ops.
func (p *Proxy) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.delegate = nil
	p.token = 0
	p.queue = nil
}

// Mode reports the current delivery mode.
func (p *Proxy) Mode() Mode {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.closed:
		return ModeClosed
	case p.delegate != nil:
		return ModeForwarding
	default:
		return ModeQueuing
	}
}

// Pending returns the number of queued events.
func (p *Proxy) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}
