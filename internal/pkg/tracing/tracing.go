// Package tracing installs the process-wide OpenTelemetry tracer provider.
package tracing

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// ShutdownFunc flushes pending spans and stops the exporter.
type ShutdownFunc func(context.Context) error

// Config controls span export.
type Config struct {
	Enabled     bool
	ServiceName string
	// Output receives one JSON document per span; nil means stdout.
	Output io.Writer
	// Sync exports each span as it ends instead of batching.
	Sync bool
}

// Setup registers a tracer provider exporting to cfg.Output. When tracing is
// disabled the global no-op provider stays in place and Shutdown is a no-op.
func Setup(cfg Config) (ShutdownFunc, error) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(out))
	if err != nil {
		return nil, fmt.Errorf("tracing: create exporter: %w", err)
	}

	spanOpt := sdktrace.WithBatcher(exporter)
	if cfg.Sync {
		spanOpt = sdktrace.WithSyncer(exporter)
	}
	provider := sdktrace.NewTracerProvider(
		spanOpt,
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))),
	)
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}

// Tracer returns a named tracer from the global provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer("github.com/yigit/edutransit/" + name)
}
