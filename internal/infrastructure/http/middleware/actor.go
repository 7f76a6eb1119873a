package middleware

import (
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mrops-br/product-catalog-api/internal/domain"
)

// ActorHeader carries the identifier of the calling user.
const ActorHeader = "X-User-ID"

// ActorContext stores the calling user in the request context so that writes
// can be stamped with it.
func ActorContext() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := strings.TrimSpace(r.Header.Get(ActorHeader))
			if actor == "" {
				next.ServeHTTP(w, r)
				return
			}

			trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("enduser.id", actor))
			next.ServeHTTP(w, r.WithContext(domain.WithActor(r.Context(), actor)))
		})
	}
}
