package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/robert-radu/tablecmd/internal/config"
)

// Janitor intervals for dropping idle client buckets.
const (
	sweepInterval = 5 * time.Minute
	clientIdleTTL = 10 * time.Minute
)

// clientLimiter tracks a per-client token bucket and when it was last seen.
// lastSeen holds unix nanoseconds and is touched from concurrent request
// goroutines.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// RateLimiter enforces a per-client token-bucket limit on the statement API.
// Construct with NewRateLimiter and install via Handler; Close stops the
// background sweep of idle clients.
type RateLimiter struct {
	rps   rate.Limit
	burst int

	clients   sync.Map // map[string]*clientLimiter
	stop      chan struct{}
	closeOnce sync.Once
}

// NewRateLimiter builds a limiter from the service configuration and starts
// its janitor goroutine.
func NewRateLimiter(cfg *config.Config) *RateLimiter {
	rl := &RateLimiter{
		rps:   rate.Limit(cfg.RateLimitRPS),
		burst: cfg.RateLimitBurst,
		stop:  make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Close stops the janitor goroutine. Safe to call more than once.
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() { close(rl.stop) })
}

// sweep removes buckets for clients not seen within clientIdleTTL until
// Close is called.
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-clientIdleTTL).UnixNano()
			rl.clients.Range(func(key, value any) bool {
				if value.(*clientLimiter).lastSeen.Load() < cutoff {
					rl.clients.Delete(key)
				}
				return true
			})
		}
	}
}

func (rl *RateLimiter) limiterFor(ip string) *rate.Limiter {
	now := time.Now().UnixNano()
	if v, ok := rl.clients.Load(ip); ok {
		cl := v.(*clientLimiter)
		cl.lastSeen.Store(now)
		return cl.limiter
	}
	cl := &clientLimiter{limiter: rate.NewLimiter(rl.rps, rl.burst)}
	cl.lastSeen.Store(now)
	if existing, loaded := rl.clients.LoadOrStore(ip, cl); loaded {
		return existing.(*clientLimiter).limiter
	}
	return cl.limiter
}

// Handler wraps next with the rate limit. When the limit is exceeded it
// responds with 429 Too Many Requests in the API's error envelope and sets
// standard rate-limit headers.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter := rl.limiterFor(clientIP(r))

		reservation := limiter.Reserve()
		if !reservation.OK() {
			// Limiter cannot grant the request even with infinite wait.
			writeTooManyRequests(w, 0)
			return
		}

		delay := reservation.Delay()
		if delay > 0 {
			// Request would exceed the rate; cancel the reservation and reject.
			reservation.Cancel()
			writeTooManyRequests(w, int(delay.Seconds())+1)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.burst))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Second).Unix(), 10))

		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client IP address from the request, stripping the port.
// Only uses RemoteAddr — X-Forwarded-For is untrusted and ignored to prevent
// rate-limit bypass via header spoofing.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// rateLimitError matches the statement API's error envelope.
type rateLimitError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeTooManyRequests(w http.ResponseWriter, retryAfterSecs int) {
	if retryAfterSecs > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSecs))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(rateLimitError{
		Code:    http.StatusTooManyRequests,
		Message: "rate limit exceeded",
	})
}
