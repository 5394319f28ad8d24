package middleware

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// untraced paths are probes and scrapes
var untraced = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// Telemetry returns otelhttp instrumentation for the API. Spans are named
// after the route template so ids do not leak into span names.
func Telemetry(service string, opts ...otelhttp.Option) func(http.Handler) http.Handler {
	opts = append([]otelhttp.Option{
		otelhttp.WithFilter(func(r *http.Request) bool {
			return !untraced[r.URL.Path]
		}),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + routeOf(r.URL.Path)
		}),
	}, opts...)
	return otelhttp.NewMiddleware(service, opts...)
}
