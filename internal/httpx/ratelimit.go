package httpx

import (
	"net"
	"net/http"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client IP. The least recently
// seen IPs are evicted once size is reached.
type RateLimiter struct {
	rps   rate.Limit
	burst int

	mu   sync.Mutex
	byIP *lru.Cache[string, *rate.Limiter]
}

func NewRateLimiter(rps float64, burst, size int) (*RateLimiter, error) {
	if size <= 0 {
		size = 10000
	}
	c, err := lru.New[string, *rate.Limiter](size)
	if err != nil {
		return nil, err
	}
	return &RateLimiter{rps: rate.Limit(rps), burst: burst, byIP: c}, nil
}

func (l *RateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	lim, ok := l.byIP.Get(ip)
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.byIP.Add(ip, lim)
	}
	l.mu.Unlock()
	return lim.Allow()
}

// Middleware answers 429 once the caller's bucket is empty. It expects
// middleware.RealIP to have run first.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(remoteIP(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
