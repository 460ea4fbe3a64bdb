package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ipLimiter gives every client address its own token bucket. Buckets idle
// for two cleanup intervals are dropped.
type ipLimiter struct {
	limiters sync.Map // map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	interval time.Duration
	onReject func()

	stopCh   chan struct{}
	stopOnce sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	mu       sync.Mutex
	lastSeen time.Time
}

func newIPLimiter(perSecond float64, burst int, cleanup time.Duration, onReject func()) *ipLimiter {
	if burst < 1 {
		burst = 1
	}
	l := &ipLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		interval: cleanup,
		onReject: onReject,
		stopCh:   make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

func (l *ipLimiter) stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

func (l *ipLimiter) allow(ip string) bool {
	now := time.Now()
	v, _ := l.limiters.LoadOrStore(ip, &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)})
	entry := v.(*limiterEntry)
	entry.mu.Lock()
	entry.lastSeen = now
	entry.mu.Unlock()
	return entry.limiter.AllowN(now, 1)
}

func (l *ipLimiter) cleanupLoop() {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.cleanup(time.Now())
		}
	}
}

func (l *ipLimiter) cleanup(now time.Time) {
	cutoff := now.Add(-2 * l.interval)
	l.limiters.Range(func(key, value any) bool {
		entry := value.(*limiterEntry)
		entry.mu.Lock()
		idle := entry.lastSeen.Before(cutoff)
		entry.mu.Unlock()
		if idle {
			l.limiters.Delete(key)
		}
		return true
	})
}

// middleware rejects clients over their budget with 429. It expects
// RemoteAddr to have been resolved by middleware.RealIP.
func (l *ipLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		if !l.allow(ip) {
			if l.onReject != nil {
				l.onReject()
			}
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
