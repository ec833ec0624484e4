package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"ai-stylist/internal/session"
)

type ctxKey string

const (
	requestIDCtx ctxKey = "request_id"
	sessionCtx   ctxKey = "session"
)

const requestIDHeader = "X-Request-Id"

// withRequestID keeps an incoming request id or assigns a new one.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDCtx, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDCtx).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

func withLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			logger.Info("http",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"bytes", rec.bytes,
				"dur_ms", time.Since(start).Milliseconds(),
				"request_id", requestID(r.Context()),
			)
		})
	}
}

// sessionCtxMiddleware resolves {sessionID} and puts the orchestrator in ctx.
func (s *Server) sessionCtxMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")
		orch, ok := s.store.Get(id)
		if !ok {
			writeJSON(w, http.StatusNotFound, apiError{Error: "Session not found. Start a new session."})
			return
		}
		ctx := context.WithValue(r.Context(), sessionCtx, orch)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func orchestratorFromCtx(r *http.Request) *session.Orchestrator {
	orch, _ := r.Context().Value(sessionCtx).(*session.Orchestrator)
	return orch
}
