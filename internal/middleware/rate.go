package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig sizes the token buckets.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
	// IdleTTL is how long an unseen client's bucket is kept.
	IdleTTL time.Duration
}

// DefaultRateLimitConfig returns the limits used when none are configured.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		Burst:             200,
		IdleTTL:           10 * time.Minute,
	}
}

func (cfg RateLimitConfig) limiter() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
}

// buckets maps client IPs to limiters. Entries idle for longer than ttl
// are dropped, at most once per ttl.
type buckets struct {
	cfg RateLimitConfig
	ttl time.Duration

	mu        sync.Mutex
	byIP      map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	*rate.Limiter
	seen time.Time
}

func newBuckets(cfg RateLimitConfig) *buckets {
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = DefaultRateLimitConfig().IdleTTL
	}
	return &buckets{cfg: cfg, ttl: ttl, byIP: make(map[string]*bucket), lastSweep: time.Now()}
}

func (b *buckets) get(ip string, now time.Time) *rate.Limiter {
	b.mu.Lock()
	defer b.mu.Unlock()

	if now.Sub(b.lastSweep) > b.ttl {
		for k, v := range b.byIP {
			if now.Sub(v.seen) > b.ttl {
				delete(b.byIP, k)
			}
		}
		b.lastSweep = now
	}

	bk, ok := b.byIP[ip]
	if !ok {
		bk = &bucket{Limiter: b.cfg.limiter()}
		b.byIP[ip] = bk
	}
	bk.seen = now
	return bk.Limiter
}

func tooManyRequests(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
}

// RateLimit limits each client IP separately.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	clients := newBuckets(cfg)
	return func(c *gin.Context) {
		if !clients.get(c.ClientIP(), time.Now()).Allow() {
			tooManyRequests(c)
			return
		}
		c.Next()
	}
}

// GlobalRateLimit limits all clients together.
func GlobalRateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	limiter := cfg.limiter()
	return func(c *gin.Context) {
		if !limiter.Allow() {
			tooManyRequests(c)
			return
		}
		c.Next()
	}
}
