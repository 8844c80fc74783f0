package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// defaultIdleTTL is how long an unused bucket survives before eviction.
const defaultIdleTTL = 10 * time.Minute

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client address. The address is
// taken from r.RemoteAddr only; forwarded headers are honoured only when a
// proxy-aware middleware such as chi's RealIP rewrote RemoteAddr upstream.
type IPRateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*clientBucket
	rate      rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewIPRateLimiter(rps float64, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		buckets: make(map[string]*clientBucket),
		rate:    rate.Limit(rps),
		burst:   burst,
		idleTTL: defaultIdleTTL,
		now:     time.Now,
	}
}

// GetLimiter returns the bucket for ip, creating it on first use. Idle
// buckets are evicted at most once per idle period.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.now()
	if now.Sub(i.lastSweep) >= i.idleTTL {
		i.evictIdle(now)
		i.lastSweep = now
	}

	b, ok := i.buckets[ip]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(i.rate, i.burst)}
		i.buckets[ip] = b
	}
	b.lastSeen = now
	return b.limiter
}

func (i *IPRateLimiter) evictIdle(now time.Time) {
	for ip, b := range i.buckets {
		if now.Sub(b.lastSeen) >= i.idleTTL {
			delete(i.buckets, ip)
		}
	}
}

// Clients reports how many buckets are held.
func (i *IPRateLimiter) Clients() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.buckets)
}

func (i *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !i.GetLimiter(clientIP(r)).Allow() {
			w.Header().Set("Retry-After", "1")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"success":false,"error":"Too many requests"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
