package httpapi

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/rbright/minerbridge/internal/config"
)

const limiterIdleTTL = 10 * time.Minute

// clientLimiter applies a token bucket per remote IP and periodically evicts
// idle entries. A nil limiter allows everything.
type clientLimiter struct {
	limit   rate.Limit
	burst   int
	mu      sync.Mutex
	byKey   map[string]*limiterEntry
	hits    uint64
	idleTTL time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newClientLimiter(cfg config.RateLimitConfig) *clientLimiter {
	if !cfg.Enabled || cfg.RPS <= 0 || cfg.Burst <= 0 {
		return nil
	}
	return &clientLimiter{
		limit:   rate.Limit(cfg.RPS),
		burst:   cfg.Burst,
		byKey:   make(map[string]*limiterEntry),
		idleTTL: limiterIdleTTL,
	}
}

func (l *clientLimiter) allow(key string, now time.Time) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.byKey[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byKey[key] = entry
	}
	entry.lastSeen = now
	allowed := entry.limiter.AllowN(now, 1)

	l.hits++
	if l.hits%512 == 0 {
		l.evictIdle(now)
	}
	return allowed
}

func (l *clientLimiter) evictIdle(now time.Time) {
	cutoff := now.Add(-l.idleTTL)
	for k, v := range l.byKey {
		if v.lastSeen.Before(cutoff) {
			delete(l.byKey, k)
		}
	}
}

func (l *clientLimiter) size() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byKey)
}

// clientKey identifies the caller by remote IP.
func clientKey(r *http.Request) string {
	remote := strings.TrimSpace(r.RemoteAddr)
	if remote == "" {
		return "ip:unknown"
	}
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		return "ip:" + remote
	}
	if strings.TrimSpace(host) == "" {
		return "ip:unknown"
	}
	return "ip:" + host
}
