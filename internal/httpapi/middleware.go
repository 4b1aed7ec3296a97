package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

const maxInboundRequestID = 128

type requestIDKey struct{}

// RequestID returns the id assigned to the request carried by ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// handle registers h under pattern with request id, rate limiting, metrics,
// and access logging.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	s.route(mux, pattern, h, true)
}

// handleOps registers an operational route that bypasses the rate limiter.
func (s *Server) handleOps(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	s.route(mux, pattern, h, false)
}

func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc, limited bool) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		started := s.now()

		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > maxInboundRequestID {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

		rec := &statusRecorder{ResponseWriter: w}
		if !limited || s.limiter.allow(clientKey(r), started) {
			h(rec, r)
		} else {
			s.metrics.rateLimited.Inc()
			writeError(rec, http.StatusTooManyRequests, "rate limit exceeded")
		}
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		s.metrics.observeRequest(pattern, rec.status)
		s.logger.Info("http request",
			"request_id", id,
			"method", r.Method,
			"route", pattern,
			"path", r.URL.Path,
			"status", rec.status,
			"latency_ms", time.Since(started).Milliseconds(),
			"remote", r.RemoteAddr,
		)
	})
}
