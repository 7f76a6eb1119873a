package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/mrops-br/product-catalog-api/internal/domain"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/config"
)

var otlpConfig = &config.OTLPConfig{ServiceName: "products-api-test", Environment: "test"}

func TestNewLogger_InjectsTraceContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, otlpConfig, slog.LevelInfo)

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	ctx = WithHTTPRoute(ctx, "/api/product/{id}")
	logger.InfoContext(ctx, "hello")
	span.End()

	doc := gjson.ParseBytes(buf.Bytes())
	assert.Equal(t, "hello", doc.Get("msg").String())
	assert.Equal(t, span.SpanContext().TraceID().String(), doc.Get("trace_id").String())
	assert.Equal(t, span.SpanContext().SpanID().String(), doc.Get("span_id").String())
	assert.Equal(t, "/api/product/{id}", doc.Get("http\\.route").String())
	assert.Equal(t, "products-api-test", doc.Get("service\\.name").String())
}

func TestNewLogger_InjectsRequestScope(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, otlpConfig, slog.LevelInfo)

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
	ctx = domain.WithActor(ctx, "alice")
	logger.InfoContext(ctx, "scoped")

	doc := gjson.ParseBytes(buf.Bytes())
	assert.Equal(t, "req-1", doc.Get("request_id").String())
	assert.Equal(t, "alice", doc.Get("enduser\\.id").String())
	assert.False(t, doc.Get("trace_id").Exists())
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, otlpConfig, slog.LevelWarn)

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.WithGroup("db").With(slog.String("table", "products")).Warn("kept")
	assert.Equal(t, "products", gjson.GetBytes(buf.Bytes(), "db.table").String())
}

func TestNewNoOpTelemetry(t *testing.T) {
	var buf bytes.Buffer
	telem, err := NewNoOpTelemetry(otlpConfig, NewLogger(&buf, otlpConfig, slog.LevelInfo))
	require.NoError(t, err)

	_, span := telem.TracerProvider.Tracer("test").Start(context.Background(), "op")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	counter, err := telem.MeterProvider.Meter("test").Int64Counter("test.counter")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	require.NoError(t, telem.Shutdown(context.Background()))
}
