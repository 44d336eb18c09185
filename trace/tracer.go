// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package trace builds the tracer every invocation span is opened on.
package trace

import (
	"context"
	"errors"
	"time"

	"github.com/ava-labs/avalanchego/trace"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/trace/noop"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const (
	DefaultEndpoint = "http://localhost:9411/api/v2/spans"

	exportTimeout = 10 * time.Second
	// Outlives exportTimeout so a pending batch can still be flushed.
	shutdownTimeout = 15 * time.Second
)

var (
	_ trace.Tracer = discard{}
	_ trace.Tracer = (*exporting)(nil)

	ErrInvalidSampleRate = errors.New("trace sample rate must be in [0, 1]")
)

type Config struct {
	Enabled bool `json:"enabled"`
	// Fraction of invocations whose spans are exported.
	TraceSampleRate float64 `json:"traceSampleRate"`
	// Zipkin collector URL.
	Endpoint string `json:"endpoint"`
	AppName  string `json:"appName"`
	Agent    string `json:"agent"`
	Version  string `json:"version"`
}

func NewDefaultConfig() Config {
	return Config{
		TraceSampleRate: 1,
		Endpoint:        DefaultEndpoint,
		AppName:         "hyperprog",
		Agent:           "hyperprog",
	}
}

func (c *Config) Validate() error {
	if c.TraceSampleRate < 0 || c.TraceSampleRate > 1 {
		return ErrInvalidSampleRate
	}
	return nil
}

// discard records nothing.
type discard struct {
	oteltrace.Tracer
}

func (discard) Close() error {
	return nil
}

// Noop returns a tracer that records nothing.
func Noop() trace.Tracer {
	return discard{Tracer: noop.NewTracerProvider().Tracer("")}
}

// exporting batches spans to a zipkin collector.
type exporting struct {
	oteltrace.Tracer

	provider *sdktrace.TracerProvider
}

func (e *exporting) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.provider.Shutdown(ctx)
}

// New returns a zipkin-backed tracer, or a discarding one when tracing is
// disabled.
func New(c *Config) (trace.Tracer, error) {
	if !c.Enabled {
		return discard{Tracer: noop.NewTracerProvider().Tracer(c.AppName)}, nil
	}

	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	exporter, err := zipkin.New(endpoint)
	if err != nil {
		return nil, err
	}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithExportTimeout(exportTimeout)),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			attribute.String("version", c.Version),
			semconv.ServiceNameKey.String(c.Agent),
		)),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(c.TraceSampleRate)),
	)
	return &exporting{
		Tracer:   provider.Tracer(c.AppName),
		provider: provider,
	}, nil
}
