// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package httpx builds outbound HTTP clients with bounded timeouts.
package httpx

import (
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultClientTimeout         = 5 * time.Second
	defaultDialTimeout           = 3 * time.Second
	defaultResponseHeaderTimeout = 3 * time.Second
	defaultIdleConnTimeout       = 30 * time.Second
	defaultExpectContinueTimeout = 1 * time.Second
	defaultMaxIdleConns          = 16
	defaultMaxIdleConnsPerHost   = 4
)

// Option customizes a client built by NewClient.
type Option func(*options)

type options struct {
	tracing   bool
	operation string
}

// WithTracing wraps the transport so each request produces a client span.
func WithTracing(operation string) Option {
	return func(o *options) {
		o.tracing = true
		o.operation = operation
	}
}

// NewClient returns a hardened HTTP client for outbound fetches such as ad tags.
func NewClient(timeout time.Duration, opts ...Option) *http.Client {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if timeout <= 0 {
		timeout = defaultClientTimeout
	}

	dialTimeout := timeout
	if dialTimeout > defaultDialTimeout {
		dialTimeout = defaultDialTimeout
	}

	responseHeaderTimeout := timeout
	if responseHeaderTimeout > defaultResponseHeaderTimeout {
		responseHeaderTimeout = defaultResponseHeaderTimeout
	}

	var transport http.RoundTripper = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          defaultMaxIdleConns,
		MaxIdleConnsPerHost:   defaultMaxIdleConnsPerHost,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   dialTimeout,
		ResponseHeaderTimeout: responseHeaderTimeout,
		ExpectContinueTimeout: defaultExpectContinueTimeout,
	}
	if o.tracing {
		operation := o.operation
		transport = otelhttp.NewTransport(transport,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return operation + " " + r.Method
			}),
		)
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
