package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestSetupExportsSpans(t *testing.T) {
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })

	var buf bytes.Buffer
	shutdown, err := Setup(Config{Enabled: true, ServiceName: "edutransit-test", Output: &buf})
	require.NoError(t, err)

	_, span := Tracer("jobs").Start(context.Background(), "missed-boarding run")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	assert.Contains(t, buf.String(), `"Name":"missed-boarding run"`)
	assert.Contains(t, buf.String(), "edutransit-test")
}

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(Config{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	_, span := Tracer("jobs").Start(context.Background(), "ignored")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
}
