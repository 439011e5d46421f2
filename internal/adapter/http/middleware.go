package adapthttp

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dashboard/internal/app"
	"dashboard/internal/domain"
)

type contextKey string

const userContextKey contextKey = "user"

// userFrom returns the user stored by requireToken.
func userFrom(ctx context.Context) (domain.UserView, bool) {
	u, ok := ctx.Value(userContextKey).(domain.UserView)
	return u, ok
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// requireToken rejects requests without a valid bearer token.
func (s *Server) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}

		user, err := s.auth.Verify(r.Context(), token)
		if errors.Is(err, app.ErrInvalidToken) || errors.Is(err, domain.ErrSessionExpired) {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		if err != nil {
			s.log.Error(r.Context(), "token verification failed", "error", err)
			writeError(w, http.StatusInternalServerError, errors.New("internal error"))
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs each request and records its metrics.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		if s.requests != nil {
			s.requests.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
			s.duration.WithLabelValues(r.Method).Observe(elapsed.Seconds())
		}
		s.log.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", elapsed,
		)
	})
}
