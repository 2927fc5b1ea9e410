package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

func (s *Server) useMiddleware(r chi.Router) {
	r.Use(
		requestID,
		middleware.RealIP,
		requestLogger(s.logger),
		middleware.Recoverer,
		middleware.StripSlashes,
		cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
			ExposedHeaders:   []string{RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)
}

// requestID reuses the caller's X-Request-ID or assigns a UUID, and stores
// it where middleware.GetReqID finds it.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLogger logs one line per request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(r.Context(), level, "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("elapsed", time.Since(start)),
				slog.String("remote", r.RemoteAddr),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// staleAfter is how long an idle client keeps its limiter.
const staleAfter = 10 * time.Minute

// clientLimiter tracks a per-client rate limiter and when it was last seen.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterSet holds one token bucket per client address.
type limiterSet struct {
	cfg       RateLimit
	now       func() time.Time
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	lastSweep time.Time
}

func (ls *limiterSet) get(ip string) *rate.Limiter {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	now := ls.now()
	if now.Sub(ls.lastSweep) > staleAfter/2 {
		for key, cl := range ls.clients {
			if now.Sub(cl.lastSeen) > staleAfter {
				delete(ls.clients, key)
			}
		}
		ls.lastSweep = now
	}

	if cl, ok := ls.clients[ip]; ok {
		cl.lastSeen = now
		return cl.limiter
	}
	l := rate.NewLimiter(rate.Limit(ls.cfg.RequestsPerSecond), ls.cfg.Burst)
	ls.clients[ip] = &clientLimiter{limiter: l, lastSeen: now}
	return l
}

// rateLimiter enforces a per-client token bucket. When the limit is
// exceeded it responds with 429 Too Many Requests.
func rateLimiter(cfg RateLimit, now func() time.Time) func(http.Handler) http.Handler {
	if cfg.RequestsPerSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	ls := &limiterSet{cfg: cfg, now: now, clients: make(map[string]*clientLimiter)}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter := ls.get(clientIP(r))

			reservation := limiter.ReserveN(ls.now(), 1)
			if !reservation.OK() {
				writeTooManyRequests(w, 0)
				return
			}
			if delay := reservation.DelayFrom(ls.now()); delay > 0 {
				reservation.CancelAt(ls.now())
				writeTooManyRequests(w, int(math.Ceil(delay.Seconds())))
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Burst))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.TokensAt(ls.now()))))
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the request's remote host without the port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeTooManyRequests(w http.ResponseWriter, retryAfterSecs int) {
	if retryAfterSecs > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSecs))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(errorResponse{Detail: "rate limit exceeded"})
}
