// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getGaugeValue(t *testing.T, gauge prometheus.Gauge) float64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, gauge.Write(metric))
	return metric.GetGauge().GetValue()
}

func getCounterVecValue(t *testing.T, counterVec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, counterVec.WithLabelValues(labels...).Write(metric))
	return metric.GetCounter().GetValue()
}

func TestObserveSinkEmit(t *testing.T) {
	before := getCounterVecValue(t, sinkEventsTotal, "completed", SinkModeQueued)
	ObserveSinkEmit("completed", SinkModeQueued)
	ObserveSinkEmit("completed", SinkModeQueued)
	assert.Equal(t, before+2, getCounterVecValue(t, sinkEventsTotal, "completed", SinkModeQueued))

	beforeUnknown := getCounterVecValue(t, sinkEventsTotal, "unknown", SinkModeDelivered)
	ObserveSinkEmit("", SinkModeDelivered)
	assert.Equal(t, beforeUnknown+1, getCounterVecValue(t, sinkEventsTotal, "unknown", SinkModeDelivered))
}

func TestSessionGauge(t *testing.T) {
	start := getGaugeValue(t, sessionsActive)
	okBefore := getCounterVecValue(t, sessionOpenTotal, "ok", "none")

	SessionOpened()
	SessionOpened()
	assert.Equal(t, start+2, getGaugeValue(t, sessionsActive))
	assert.Equal(t, okBefore+2, getCounterVecValue(t, sessionOpenTotal, "ok", "none"))

	SessionDisposed()
	SessionDisposed()
	assert.Equal(t, start, getGaugeValue(t, sessionsActive))

	failBefore := getCounterVecValue(t, sessionOpenTotal, "error", "unsupported_source")
	SessionOpenFailed("unsupported_source")
	assert.Equal(t, failBefore+1, getCounterVecValue(t, sessionOpenTotal, "error", "unsupported_source"))
}

func TestSetCircuitBreakerStateIsOneHot(t *testing.T) {
	SetCircuitBreakerState("ads", "open")
	for _, s := range circuitStates {
		want := 0.0
		if s == "open" {
			want = 1.0
		}
		assert.Equal(t, want, getGaugeValue(t, circuitBreakerState.WithLabelValues("ads", s)), s)
	}
}

func TestPromhttpExposure(t *testing.T) {
	ObserveAdBreak("start")

	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "playctl_ad_breaks_total"))
}
