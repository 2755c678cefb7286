package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/finsite/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func fieldMap(entry observer.LoggedEntry) map[string]zapcore.Field {
	m := make(map[string]zapcore.Field)
	for _, f := range entry.Context {
		m[f.Key] = f
	}
	return m
}

func TestFromContext_NotFound(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
}

func TestWithRequestID(t *testing.T) {
	ctx, enriched := WithRequestID(context.Background(), zap.NewNop(), "req-1")
	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, enriched, FromContext(ctx))
}

func TestContextLogger_EnrichesWithContextFields(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithContext(context.Background(), zap.New(core))
	ctx = context.WithValue(ctx, RequestIDKey, "req-2")
	ctx = WithSessionID(ctx, "sess-9")

	L(ctx).Info("refreshed", zap.Int("count", 3))

	require.Len(t, recorded.All(), 1)
	fields := fieldMap(recorded.All()[0])
	assert.Equal(t, "req-2", fields["request_id"].String)
	assert.Equal(t, "sess-9", fields["session_id"].String)
	assert.Contains(t, fields, "count")
	assert.NotContains(t, fields, "trace_id")
}

func TestContextLogger_AddsTraceIDs(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{1, 2, 3},
		SpanID:  trace.SpanID{4, 5, 6},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)

	WithLogger(ctx, zap.New(core)).Warn("slow")

	fields := fieldMap(recorded.All()[0])
	assert.Equal(t, spanCtx.TraceID().String(), fields["trace_id"].String)
	assert.Equal(t, spanCtx.TraceID().String(), GetTraceID(ctx))
}

func TestContextLogger_NilLogger(t *testing.T) {
	cl := WithLogger(context.Background(), nil)
	assert.NotPanics(t, func() {
		cl.With(zap.String("k", "v")).Info("ok")
	})
}

func TestErrorFields(t *testing.T) {
	accessErr := shared.NewStatusError("ticker.list", 503, "down")
	m := map[string]zapcore.Field{}
	for _, f := range ErrorFields(accessErr) {
		m[f.Key] = f
	}
	assert.Equal(t, "ticker.list", m["op"].String)
	assert.Equal(t, string(shared.KindServerError), m["kind"].String)
	assert.Equal(t, int64(503), m["status"].Integer)

	plain := ErrorFields(errors.New("boom"))
	require.Len(t, plain, 1)
	assert.Equal(t, "error", plain[0].Key)
}
