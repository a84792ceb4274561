// Package ratelimit provides per-client token bucket limits for the write endpoints of the survey API.
package ratelimit

import (
	"strings"
	"sync"
	"time"
)

// Rule limits requests whose method matches and whose path starts with Prefix.
type Rule struct {
	Method string
	Prefix string
	Limit  int           // requests per Window; 0 means unlimited
	Window time.Duration
	Burst  int // bucket capacity, defaults to Limit
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled bool
	Rules   []Rule
	// IdleTTL drops buckets unused for this long on the next sweep.
	IdleTTL time.Duration
}

// DefaultConfig limits state mutations and leaves reads unlimited.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		IdleTTL: time.Hour,
		Rules: []Rule{
			{Method: "POST", Prefix: "/api/pages/", Limit: 600, Window: time.Minute, Burst: 60},
			{Method: "POST", Prefix: "/api/state/scores", Limit: 600, Window: time.Minute, Burst: 60},
			{Method: "PATCH", Prefix: "/api/state/sections/", Limit: 600, Window: time.Minute, Burst: 60},
			{Method: "PUT", Prefix: "/api/state/accuracy-type", Limit: 120, Window: time.Minute, Burst: 10},
		},
	}
}

// Info describes the bucket state after a request.
type Info struct {
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type bucket struct {
	capacity   float64
	refillRate float64 // tokens per second
	tokens     float64
	lastRefill time.Time
	lastUsed   time.Time
}

func (b *bucket) take(now time.Time) bool {
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens = min(b.capacity, b.tokens+elapsed*b.refillRate)
	b.lastRefill = now
	b.lastUsed = now
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

func (b *bucket) retryAfter() time.Duration {
	missing := 1 - b.tokens
	if missing <= 0 || b.refillRate == 0 {
		return 0
	}
	return time.Duration(missing / b.refillRate * float64(time.Second))
}

// Limiter tracks one bucket per client and rule.
type Limiter struct {
	cfg     Config
	now     func() time.Time
	mu      sync.Mutex
	buckets map[string]*bucket
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// NewLimiter creates a limiter for cfg.
func NewLimiter(cfg Config, opts ...Option) *Limiter {
	l := &Limiter{cfg: cfg, now: time.Now, buckets: make(map[string]*bucket)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Match returns the rule that applies to method and path.
func (l *Limiter) Match(method, path string) (Rule, bool) {
	for _, r := range l.cfg.Rules {
		if r.Method == method && strings.HasPrefix(path, r.Prefix) {
			return r, true
		}
	}
	return Rule{}, false
}

// Allow consumes a token for clientID on the matching rule.
func (l *Limiter) Allow(clientID, method, path string) (bool, Info) {
	if !l.cfg.Enabled {
		return true, Info{}
	}
	rule, ok := l.Match(method, path)
	if !ok || rule.Limit <= 0 || rule.Window <= 0 {
		return true, Info{}
	}

	now := l.now()
	key := clientID + " " + rule.Method + " " + rule.Prefix

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		capacity := rule.Burst
		if capacity <= 0 {
			capacity = rule.Limit
		}
		b = &bucket{
			capacity:   float64(capacity),
			refillRate: float64(rule.Limit) / rule.Window.Seconds(),
			tokens:     float64(capacity),
			lastRefill: now,
		}
		l.buckets[key] = b
	}

	allowed := b.take(now)
	info := Info{Limit: rule.Limit, Remaining: int(b.tokens)}
	if !allowed {
		info.RetryAfter = b.retryAfter()
	}
	return allowed, info
}

// Sweep drops buckets idle for longer than the configured TTL and returns how many were dropped.
func (l *Limiter) Sweep() int {
	if l.cfg.IdleTTL <= 0 {
		return 0
	}
	cutoff := l.now().Add(-l.cfg.IdleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()
	dropped := 0
	for key, b := range l.buckets {
		if b.lastUsed.Before(cutoff) {
			delete(l.buckets, key)
			dropped++
		}
	}
	return dropped
}
