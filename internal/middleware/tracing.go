package middleware

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// Tracing starts a server span per request, named "METHOD /route/{param}".
// otelhttp renames the span with the formatter when the request it holds
// carries a pattern; when a later middleware replaced the request, only the
// explicit rename after next sees the routed chi context.
func Tracing(service string) func(http.Handler) http.Handler {
	otel := otelhttp.NewMiddleware(service, otelhttp.WithSpanNameFormatter(spanName))
	return func(next http.Handler) http.Handler {
		return otel(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			trace.SpanFromContext(r.Context()).SetName(spanName("", r))
		}))
	}
}

func spanName(_ string, r *http.Request) string {
	return r.Method + " " + routePattern(r)
}
