package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterEntry pairs a client's token bucket with its last use, so idle
// clients can be evicted.
type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

// RateLimiter applies a per-client-IP token bucket.
//
// TOKEN BUCKET (golang.org/x/time/rate):
// Each client gets a bucket holding up to burst tokens that refills at rps
// tokens per second. A request takes one token; an empty bucket means 429.
// With rps=10 and burst=20 a client can fire 20 requests at once and then
// sustain 10 per second.
//
// The map grows with every new client address. Sweep trims it, and the
// server calls Sweep on a ticker.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	ttl   time.Duration

	mu      sync.Mutex
	entries map[string]*limiterEntry
	now     func() time.Time
}

// NewRateLimiter allows each client rps requests per second with bursts of
// up to burst. Limiters idle for longer than ttl are dropped by Sweep.
func NewRateLimiter(rps float64, burst int, ttl time.Duration) *RateLimiter {
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		ttl:     ttl,
		entries: make(map[string]*limiterEntry),
		now:     time.Now,
	}
}

// limiterFor returns the bucket for ip, creating it on first use, and
// refreshes its last-use time.
func (l *RateLimiter) limiterFor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.entries[ip] = e
	}
	e.lastUse = l.now()
	return e.limiter
}

// Sweep removes limiters that have not been used within the TTL.
func (l *RateLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.ttl)
	for ip, e := range l.entries {
		if e.lastUse.Before(cutoff) {
			delete(l.entries, ip)
		}
	}
}

// Len reports how many clients are currently tracked.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Handler rejects requests over the limit with 429. The client is keyed by
// the host part of r.RemoteAddr. Proxy headers are not read here; the server
// installs chi's RealIP in front of the limiter only for a trusted proxy.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.limiterFor(clientIP(r)).Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate_limited","message":"Too many requests. Please slow down."}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port from r.RemoteAddr. A RemoteAddr without a port
// (as RealIP leaves it) is used as is.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
