package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// panicResponse is the body returned on a recovered panic. Unlike a
// bare "Internal Server Error" string, it carries the request id so an
// operator looking at a client report can grep the structured log for
// the matching "panic recovered" line without first having to locate
// the response headers.
type panicResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// Recovery catches a panic inside the wrapped handler and converts it
// into a 500 with a short JSON body instead of crashing the process.
// It runs outermost in the chain (ahead of RequestID), so the request
// id is read back off the response header RequestID already wrote
// rather than off the request context, which Recovery's closure over
// the original *http.Request never sees updated.
func Recovery(logger zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					requestID := w.Header().Get("X-Request-ID")
					logger.Error().
						Interface("panic", err).
						Str("request_id", requestID).
						Bytes("stack", debug.Stack()).
						Msg("panic recovered in handler")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(panicResponse{
						Error:     "Internal Server Error",
						RequestID: requestID,
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
