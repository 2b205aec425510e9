// Package middleware holds the small, explicit http.Handler wrappers
// the analyzer's read API is built from: panic recovery, request-id
// tagging, structured request logging, and inbound rate limiting.
package middleware

import "net/http"

// Middleware wraps a handler with cross-cutting behavior. Chained with
// chi's Router.Use, first-registered runs outermost.
type Middleware func(http.Handler) http.Handler

// ResponseWriter wraps http.ResponseWriter to capture the status code
// and byte count written, for the structured request log line.
type ResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *ResponseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *ResponseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

func (rw *ResponseWriter) StatusCode() int { return rw.statusCode }
func (rw *ResponseWriter) BytesWritten() int { return rw.bytesWritten }
