package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/trace"
)

func spanContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("0102030405060708")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestNewWithWriter_Production(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("production", &buf)

	l.DebugContext(context.Background(), "hidden")
	l.InfoContext(spanContext(t), "Suggested recipes", "recipes", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "Suggested recipes", entry["msg"])
	assert.Equal(t, float64(3), entry["recipes"])
	assert.Equal(t, map[string]any{
		"trace_id": "0102030405060708090a0b0c0d0e0f10",
		"span_id":  "0102030405060708",
	}, entry["trace"])
}

func TestNewWithWriter_DevelopmentLogsDebug(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter("development", &buf).Debug("cache miss", "keywords", "fried rice")

	assert.Contains(t, buf.String(), "cache miss")
	assert.NotContains(t, buf.String(), "trace")
}

func TestWithTraceContext(t *testing.T) {
	attr := WithTraceContext(spanContext(t))
	assert.Equal(t, "trace", attr.Key)
	assert.Len(t, attr.Value.Group(), 2)

	assert.True(t, WithTraceContext(context.Background()).Equal(slog.Attr{}))
}

func TestSeverity(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  otellog.Severity
	}{
		{slog.LevelDebug, otellog.SeverityDebug},
		{slog.LevelInfo, otellog.SeverityInfo},
		{slog.LevelWarn, otellog.SeverityWarn},
		{slog.LevelError, otellog.SeverityError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, severity(tt.level), tt.level.String())
	}
}

func TestHandlerAttrsAndGroups(t *testing.T) {
	h := &otelHandler{handler: slog.NewTextHandler(io.Discard, nil)}
	child := h.WithAttrs([]slog.Attr{slog.String("user_id", "u1")}).(*otelHandler)
	grouped := child.WithGroup("job").WithAttrs([]slog.Attr{slog.Int("recipes", 3)}).(*otelHandler)

	require.Len(t, grouped.attrs, 2)
	assert.Equal(t, "user_id", grouped.attrs[0].Key)
	assert.Equal(t, "job.recipes", grouped.attrs[1].Key)
	assert.Len(t, child.attrs, 1, "parent handler attrs mutated")
}

func TestToOTelValue(t *testing.T) {
	assert.Equal(t, otellog.Int64Value(1500), toOTelValue(slog.DurationValue(1500*time.Millisecond)))
	assert.Equal(t, otellog.BoolValue(true), toOTelValue(slog.BoolValue(true)))

	group := toOTelValue(slog.GroupValue(slog.String("id", "j1")))
	assert.Equal(t, otellog.KindMap, group.Kind())
}
