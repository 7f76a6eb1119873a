package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mrops-br/product-catalog-api/internal/infrastructure/telemetry"
)

// RoutePattern returns the matched chi route pattern, or the raw path before routing.
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func requestAttrs(r *http.Request, extra ...attribute.KeyValue) []attribute.KeyValue {
	return append([]attribute.KeyValue{
		attribute.String("http.request.method", r.Method),
		attribute.String("http.route", RoutePattern(r)),
		attribute.String("server.address", r.Host),
	}, extra...)
}

func passThrough(next http.Handler) http.Handler { return next }

// ActiveRequestsMiddleware tracks in-flight requests per route.
// Register it after routing so the route pattern is resolved.
func ActiveRequestsMiddleware(meter metric.Meter) func(next http.Handler) http.Handler {
	active, err := meter.Int64UpDownCounter(
		"http.server.active_requests",
		metric.WithDescription("Number of active HTTP server requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return passThrough
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tw := &trackingWriter{ResponseWriter: w, request: r, active: active}
			defer tw.done()
			next.ServeHTTP(tw, r)
		})
	}
}

// trackingWriter increments the gauge on the first write, once chi has matched
// the route, and reuses the same attributes for the decrement.
type trackingWriter struct {
	http.ResponseWriter
	request *http.Request
	active  metric.Int64UpDownCounter
	opt     metric.AddOption
}

func (w *trackingWriter) WriteHeader(statusCode int) {
	w.start()
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *trackingWriter) Write(b []byte) (int, error) {
	w.start()
	return w.ResponseWriter.Write(b)
}

func (w *trackingWriter) start() {
	if w.opt != nil {
		return
	}
	w.opt = metric.WithAttributes(requestAttrs(w.request)...)
	w.active.Add(w.request.Context(), 1, w.opt)
}

func (w *trackingWriter) done() {
	w.start()
	w.active.Add(w.request.Context(), -1, w.opt)
}

// DurationMillisecondsMiddleware records request duration in milliseconds,
// alongside the seconds-based histogram otelhttp emits.
func DurationMillisecondsMiddleware(meter metric.Meter) func(next http.Handler) http.Handler {
	histogram, err := meter.Float64Histogram(
		"http.server.request.duration.ms",
		metric.WithDescription("HTTP server request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return passThrough
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			histogram.Record(r.Context(), float64(time.Since(start).Milliseconds()),
				metric.WithAttributes(requestAttrs(r,
					attribute.Int("http.response.status_code", statusOf(ww)))...),
			)
		})
	}
}

// HTTPRouteContext exposes the route pattern to the logger through the request context.
func HTTPRouteContext() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := telemetry.WithHTTPRoute(r.Context(), RoutePattern(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StructuredLogger logs one JSON line per request, replacing chi's text logger.
// Trace, request and actor ids are added by the logger's handler from the context.
func StructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			status := statusOf(ww)

			level := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}

			logger.LogAttrs(r.Context(), level, "HTTP request completed",
				slog.String("http.request.method", r.Method),
				slog.String("http.route", RoutePattern(r)),
				slog.String("url.path", r.URL.Path),
				slog.String("url.query", r.URL.RawQuery),
				slog.Int("http.response.status_code", status),
				slog.Int("http.response.body.size", ww.BytesWritten()),
				slog.Float64("duration_ms", float64(duration.Milliseconds())),
				slog.String("client.address", r.RemoteAddr),
				slog.String("user_agent", r.UserAgent()),
			)
		})
	}
}

// statusOf reports 200 for handlers that never wrote a header.
func statusOf(ww middleware.WrapResponseWriter) int {
	if status := ww.Status(); status != 0 {
		return status
	}
	return http.StatusOK
}
