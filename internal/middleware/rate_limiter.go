package middleware

import (
	"net/http"
	"sync"
	"time"

	"bookpos/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// visitor is one client IP's token bucket.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter hands out a token bucket per client IP and forgets idle IPs.
type ipLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	every    rate.Limit
	burst    int
	idle     time.Duration
}

func newIPLimiter(perMinute, burst int) *ipLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	if burst < 1 {
		burst = 1
	}
	return &ipLimiter{
		visitors: make(map[string]*visitor),
		every:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		idle:     purgeInterval,
	}
}

func (l *ipLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.every, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	l.mu.Unlock()
	return v.limiter.AllowN(now, 1)
}

// purge drops visitors idle for longer than l.idle and returns how many went.
func (l *ipLimiter) purge(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.idle {
			delete(l.visitors, ip)
			n++
		}
	}
	return n
}

func (l *ipLimiter) middleware(msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP(), time.Now()) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(msg))
			return
		}
		c.Next()
	}
}

// ── Purge goroutine ───────────────────────────────────────────────────────────
// Periodically removes idle visitors so IPs that never return do not pile up.

const purgeInterval = 5 * time.Minute

var (
	limiters   []*ipLimiter
	limitersMu sync.Mutex
	purgeOnce  sync.Once
)

func register(l *ipLimiter) *ipLimiter {
	limitersMu.Lock()
	limiters = append(limiters, l)
	limitersMu.Unlock()
	purgeOnce.Do(func() { go purgeIdleVisitors() })
	return l
}

func purgeIdleVisitors() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for now := range ticker.C {
		limitersMu.Lock()
		purged := 0
		for _, l := range limiters {
			purged += l.purge(now)
		}
		limitersMu.Unlock()
		if purged > 0 {
			log.Debug().Int("entries_purged", purged).Msg("rate limiter visitors purged")
		}
	}
}

// LoginRateLimiter allows 10 login attempts per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	return register(newIPLimiter(10, 5)).middleware("too many login attempts, try again in a minute")
}

// RateLimiter is the general API limiter: perMinute requests per IP with a
// burst of a tenth of that.
func RateLimiter(perMinute int) gin.HandlerFunc {
	return register(newIPLimiter(perMinute, perMinute/10)).middleware("too many requests, try again shortly")
}
