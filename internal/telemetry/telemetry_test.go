package telemetry_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"medimart/internal/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestInitExportsSpans(t *testing.T) {
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })

	var buf bytes.Buffer
	shutdown, err := telemetry.Init("medimart-test", &buf)
	require.NoError(t, err)

	_, span := telemetry.Tracer().Start(context.Background(), "order.checkout")
	telemetry.RecordError(span, errors.New("store payment: disk full"))
	telemetry.RecordError(span, nil)
	span.End()

	require.NoError(t, shutdown(context.Background()))
	out := buf.String()
	assert.Contains(t, out, "order.checkout")
	assert.Contains(t, out, "medimart-test")
	assert.Contains(t, out, "disk full")
}
