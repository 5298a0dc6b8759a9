package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/laundryhub/laundry-backend/pkg/logger"
)

const (
	RequestIDHeader  = "X-Request-ID"
	cloudTraceHeader = "X-Cloud-Trace-Context"
)

// Inbound ids end up in logs and response headers; anything else is replaced.
var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{8,64}$`)

type requestIDKey struct{}

// RequestID assigns every request a correlation id. A well-formed
// X-Request-ID from the apps wins, then the Cloud Trace id set by the Google
// front end, then a fresh UUID.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := inboundRequestID(r.Header)
			w.Header().Set(RequestIDHeader, id)

			ctx := context.WithValue(r.Context(), requestIDKey{}, id)
			if logg != nil {
				ctx = logg.WithRequestID(ctx, id)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func inboundRequestID(h http.Header) string {
	if id := h.Get(RequestIDHeader); requestIDPattern.MatchString(id) {
		return id
	}
	// TRACE_ID/SPAN_ID;o=TRACE_TRUE
	if trace, _, _ := strings.Cut(h.Get(cloudTraceHeader), "/"); requestIDPattern.MatchString(trace) {
		return trace
	}
	return uuid.NewString()
}

// RequestIDFromContext returns the id RequestID assigned, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
