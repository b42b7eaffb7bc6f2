// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sinkEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playctl_sink_events_total",
		Help: "Playback events accepted by the event sink, by event and delivery mode (delivered|queued)",
	}, []string{"event", "mode"})

	sinkDrainSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "playctl_sink_drain_size",
		Help:    "Number of queued events drained when a listener attaches",
		Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
	})

	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "playctl_sessions_active",
		Help: "Number of open playback sessions",
	})

	sessionOpenTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playctl_session_open_total",
		Help: "Playback session open attempts by result and reason",
	}, []string{"result", "reason"})

	engineErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playctl_engine_errors_total",
		Help: "Runtime errors reported by the playback engine",
	}, []string{"engine"})

	adBreaksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playctl_ad_breaks_total",
		Help: "Ad break edges observed (start|end)",
	}, []string{"edge"})

	adTagFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playctl_ad_tag_fetch_total",
		Help: "Ad tag fetches by result (ok|error|circuit_open)",
	}, []string{"result"})
)

const (
	SinkModeDelivered = "delivered"
	SinkModeQueued    = "queued"
)

// ObserveSinkEmit records one accepted event.
func ObserveSinkEmit(event, mode string) {
	if event == "" {
		event = "unknown"
	}
	sinkEventsTotal.WithLabelValues(event, mode).Inc()
}

// ObserveSinkDrain records the backlog size flushed on attach.
func ObserveSinkDrain(n int) {
	sinkDrainSize.Observe(float64(n))
}

// SessionOpened records a successful open and bumps the active gauge.
func SessionOpened() {
	sessionOpenTotal.WithLabelValues("ok", "none").Inc()
	sessionsActive.Inc()
}

// SessionOpenFailed records a rejected open with a bounded reason label.
func SessionOpenFailed(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	sessionOpenTotal.WithLabelValues("error", reason).Inc()
}

// SessionDisposed decrements the active gauge.
func SessionDisposed() {
	sessionsActive.Dec()
}

// IncEngineError records a runtime engine error.
func IncEngineError(engine string) {
	if engine == "" {
		engine = "unknown"
	}
	engineErrorsTotal.WithLabelValues(engine).Inc()
}

// ObserveAdBreak records an ad break edge ("start" or "end").
func ObserveAdBreak(edge string) {
	adBreaksTotal.WithLabelValues(edge).Inc()
}

// ObserveAdTagFetch records an ad tag fetch outcome.
func ObserveAdTagFetch(result string) {
	adTagFetchTotal.WithLabelValues(result).Inc()
}
