package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"

	sharedApplication "github.com/felixgeelhaar/studio/internal/shared/application"
	"github.com/felixgeelhaar/studio/pkg/observability"
)

// errRollback aborts the request transaction after an error response.
var errRollback = errors.New("rollback requested by error response")

// withRequestIDs adopts the caller's correlation and request ids, or
// generates them, and echoes both on the response.
func withRequestIDs(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := observability.WithCorrelationID(r.Context(), r.Header.Get(observability.CorrelationIDHeader))
		ctx = observability.WithRequestID(ctx, r.Header.Get(observability.RequestIDHeader))

		w.Header().Set(observability.CorrelationIDHeader, observability.CorrelationIDFromContext(ctx))
		w.Header().Set(observability.RequestIDHeader, observability.RequestIDFromContext(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// instrument logs the request and records its latency under route.
func (s *Server) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := observability.StartTimer(observability.T("route", route))
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		elapsed := timer.Stop(s.metrics, observability.MetricHTTPDuration, observability.MetricHTTPRequests,
			observability.T("status", strconv.Itoa(rec.status)))
		if rec.status >= http.StatusInternalServerError {
			s.metrics.Counter(observability.MetricHTTPErrors, 1, observability.T("route", route))
		}

		s.logger.InfoContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", rec.status,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}

// bufferedResponse holds a handler's response until its transaction ends.
type bufferedResponse struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{header: make(http.Header)}
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *bufferedResponse) flushTo(w http.ResponseWriter) {
	for key, values := range b.header {
		w.Header()[key] = values
	}
	if b.status == 0 {
		b.status = http.StatusOK
	}
	w.WriteHeader(b.status)
	_, _ = w.Write(b.body.Bytes())
}

// transactional runs the handler in one unit of work. Error responses roll
// back; a failed commit replaces the buffered response with a 500.
func (s *Server) transactional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := newBufferedResponse()
		err := sharedApplication.WithUnitOfWork(r.Context(), s.uow, func(ctx context.Context) error {
			next.ServeHTTP(buf, r.WithContext(ctx))
			if buf.status >= http.StatusBadRequest {
				return errRollback
			}
			return nil
		})
		if err != nil && !errors.Is(err, errRollback) {
			s.logger.ErrorContext(r.Context(), "request transaction failed",
				"path", r.URL.Path,
				"error", err,
			)
			writeAPIError(w, ErrInternalServer)
			return
		}
		buf.flushTo(w)
	})
}
