package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"enroll/internal/platform/metrics"
	"enroll/pkg/httputil"
)

// Middleware applies a fixed-window per-IP limit to a route. Store errors fail
// open: losing the limiter must not take registration down with it.
type Middleware struct {
	store   Store
	limit   int
	window  time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New constructs the middleware. Metrics may be nil.
func New(store Store, limit int, window time.Duration, logger *slog.Logger, m *metrics.Metrics) *Middleware {
	return &Middleware{
		store:   store,
		limit:   limit,
		window:  window,
		logger:  logger,
		metrics: m,
	}
}

// Limit wraps next with the per-IP window check.
func (m *Middleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		count, err := m.store.Incr(r.Context(), "ratelimit:register:"+ip, m.window)
		if err != nil {
			m.logger.Error("rate limit check failed, allowing request", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		if count > int64(m.limit) {
			if m.metrics != nil {
				m.metrics.RateLimitRejections.Inc()
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(m.window.Seconds())))
			httputil.WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many registration attempts")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	// chi's RealIP middleware rewrites RemoteAddr from forwarding headers
	// when present.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
