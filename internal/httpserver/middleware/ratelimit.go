package middleware

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimit applies a single process-wide token bucket across all
// inbound requests. It exists as a best-effort guard against a
// misbehaving poller hammering the read API, not as a per-client quota.
func RateLimit(requestsPerSecond float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
