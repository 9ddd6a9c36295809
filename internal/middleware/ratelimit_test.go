package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestFrom(addr string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/meals", nil)
	req.RemoteAddr = addr
	return req
}

func TestRateLimiter_BlocksAfterBurst(t *testing.T) {
	// A near-zero refill rate makes the burst the whole budget.
	l := NewRateLimiter(0.0001, 3, time.Minute)
	h := l.Handler(okHandler())

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, requestFrom("10.0.0.1:5000"))
		assert.Equal(t, http.StatusOK, rr.Code, "request %d", i)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, requestFrom("10.0.0.1:5001"))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.JSONEq(t, `{"error":"rate_limited","message":"Too many requests. Please slow down."}`, rr.Body.String())
}

func TestRateLimiter_PerClient(t *testing.T) {
	l := NewRateLimiter(0.0001, 1, time.Minute)
	h := l.Handler(okHandler())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, requestFrom("10.0.0.1:1"))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, requestFrom("10.0.0.2:1"))
	assert.Equal(t, http.StatusOK, rr.Code, "a second client has its own bucket")
}

func TestRateLimiter_Sweep(t *testing.T) {
	l := NewRateLimiter(1, 1, time.Minute)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.limiterFor("10.0.0.1")
	now = now.Add(30 * time.Second)
	l.limiterFor("10.0.0.2")
	assert.Equal(t, 2, l.Len())

	now = now.Add(45 * time.Second)
	l.Sweep()
	assert.Equal(t, 1, l.Len(), "only the idle client is evicted")
}

func TestClientIP(t *testing.T) {
	assert.Equal(t, "192.168.1.7", clientIP(requestFrom("192.168.1.7:443")))
	assert.Equal(t, "192.168.1.7", clientIP(requestFrom("192.168.1.7")))
}
