package api

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/cubny/metro/internal/logging"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
	"golang.org/x/time/rate"
)

const requestIDHeader = "X-Request-ID"

// securityHeaders adds the security and CORS headers to all responses
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none';")

		if r.Header.Get("Origin") != "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Max-Age", "86400")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// requestLogging tags each request with an id and logs it once served
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(requestIDHeader)
			if _, err := uuid.Parse(requestID); err != nil {
				requestID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, requestID)

			reqLogger := logger.With(slog.String("request_id", requestID))
			r = r.WithContext(logging.WithLogger(r.Context(), reqLogger))

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			reqLogger.LogAttrs(r.Context(), slog.LevelInfo, "http_request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrapped.statusCode),
				slog.Float64("duration_ms", float64(time.Since(start).Nanoseconds())/1e6),
				slog.String("user_agent", r.Header.Get("User-Agent")))
		})
	}
}

// CompressionConfig holds configuration options for response compression
type CompressionConfig struct {
	// MinSize is the minimum response size in bytes to compress
	MinSize int
	// Level is the compression level 1-9
	Level int
}

// DefaultCompressionConfig returns the compression defaults
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize: 1024,
		Level:   6,
	}
}

func compression(config CompressionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		wrapper, err := gzhttp.NewWrapper(
			gzhttp.MinSize(config.MinSize),
			gzhttp.CompressionLevel(config.Level),
		)
		if err != nil {
			return gzhttp.GzipHandler(next)
		}
		return wrapper(next)
	}
}

// rateLimiter limits the requests per second of each client address
type rateLimiter struct {
	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
	limit       rate.Limit
	burst       int
	cleanupTick *time.Ticker
	done        chan struct{}
	stopOnce    sync.Once
}

// newRateLimiter allows perSecond requests per client, perSecond <= 0 disables limiting
func newRateLimiter(perSecond int) *rateLimiter {
	rl := &rateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Inf,
		burst:    perSecond,
		done:     make(chan struct{}),
	}
	if perSecond > 0 {
		rl.limit = rate.Every(time.Second / time.Duration(perSecond))
		rl.cleanupTick = time.NewTicker(5 * time.Minute)
		go rl.cleanup()
	}
	return rl
}

func (rl *rateLimiter) limiter(client string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, ok := rl.limiters[client]
	if !ok {
		limiter = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[client] = limiter
	}
	return limiter
}

func (rl *rateLimiter) middleware(api *API) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rl.limit == rate.Inf {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.limiter(clientAddress(r)).Allow() {
				w.Header().Set("Retry-After", "1")
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.burst))
				w.Header().Set("X-RateLimit-Remaining", "0")
				api.sendJSON(w, r, http.StatusTooManyRequests, response{Text: "rate limit exceeded, try again later"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// cleanup periodically drops the limiters of clients that are back to a full bucket
func (rl *rateLimiter) cleanup() {
	for {
		select {
		case <-rl.done:
			return
		case <-rl.cleanupTick.C:
			rl.mu.Lock()
			for client, limiter := range rl.limiters {
				if limiter.Tokens() >= float64(rl.burst) {
					delete(rl.limiters, client)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// stop stops the cleanup goroutine
func (rl *rateLimiter) stop() {
	if rl.cleanupTick == nil {
		return
	}
	rl.stopOnce.Do(func() {
		rl.cleanupTick.Stop()
		close(rl.done)
	})
}

func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
