package telemetry

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitTracingDisabled(t *testing.T) {
	before := otel.GetTracerProvider()

	shutdown, err := InitTracing(TracingConfig{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, before, otel.GetTracerProvider())
}

func TestInitTracingWritesSpans(t *testing.T) {
	before := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(before) })

	var buf bytes.Buffer
	shutdown, err := InitTracing(TracingConfig{
		Enabled:     true,
		ServiceName: "kbapi-test",
		SampleRate:  1,
		Output:      &buf,
	})
	require.NoError(t, err)

	_, span := StartSpan(context.Background(), "unit.span")
	AddSpanAttributes(span, map[string]string{"kb.query": "vpn"})
	RecordSpanError(span, errors.New("boom"))
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "unit.span")
	assert.Contains(t, buf.String(), "kb.query")
}
