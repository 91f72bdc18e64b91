package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zero-day-ai/medqa/internal/contextkeys"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var m map[string]any
		require.NoError(t, dec.Decode(&m))
		out = append(out, m)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewLogger_FormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(LoggingConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "intent", "disease_symptom")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["msg"])
	assert.Equal(t, "disease_symptom", lines[0]["intent"])

	buf.Reset()
	logger, err = NewLogger(DefaultLoggingConfig(), &buf)
	require.NoError(t, err)
	logger.Info("plain")
	assert.Contains(t, buf.String(), "msg=plain")
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	_, err := NewLogger(LoggingConfig{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)
	_, err = NewLogger(LoggingConfig{Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNewLogger_Redaction(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(LoggingConfig{Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("connect", "password", "hunter2", "api_key", "k", "uri", "bolt://localhost:7687")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, Redacted, lines[0]["password"])
	assert.Equal(t, Redacted, lines[0]["api_key"])
	assert.Equal(t, "bolt://localhost:7687", lines[0]["uri"])
	assert.NotContains(t, buf.String(), "hunter2")
}

func TestTraceCorrelation(t *testing.T) {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(tracetest.NewInMemoryExporter()))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "answer")
	defer span.End()
	sc := span.SpanContext()

	var buf bytes.Buffer
	logger, err := NewLogger(LoggingConfig{Format: "json"}, &buf)
	require.NoError(t, err)

	logger.InfoContext(ctx, "with span")
	logger.InfoContext(context.Background(), "without span")
	WithTrace(ctx, logger).Info("bound")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)
	assert.Equal(t, sc.TraceID().String(), lines[0]["trace_id"])
	assert.Equal(t, sc.SpanID().String(), lines[0]["span_id"])
	assert.NotContains(t, lines[1], "trace_id")
	assert.Equal(t, sc.TraceID().String(), lines[2]["trace_id"])
}

func TestRequestCorrelation(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(LoggingConfig{Format: "json"}, &buf)
	require.NoError(t, err)

	logger.InfoContext(contextkeys.WithRequestID(context.Background(), "req-7"), "answered")
	logger.InfoContext(context.Background(), "idle")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "req-7", lines[0]["request_id"])
	assert.NotContains(t, lines[1], "request_id")
}

func TestWithTrace_NoSpan(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	assert.Same(t, logger, WithTrace(context.Background(), logger))
}
