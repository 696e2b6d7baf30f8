package crawler

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterSettings configures token-bucket style rate limiting per host.
type RateLimiterSettings struct {
	Requests int
	Window   time.Duration
}

// Limiter enforces politeness between requests: a fixed inter-request
// delay applied after every processed URL, plus an optional per-domain
// token bucket. The fixed delay is the crawl's sole rate-limiting
// mechanism by default.
type Limiter struct {
	delay       time.Duration
	rate        RateLimiterSettings
	rateEnabled bool

	mu       sync.Mutex
	last     time.Time
	limiters map[string]*rate.Limiter
}

// NewLimiter creates a limiter with a fixed delay and optional
// per-domain rate limiting.
func NewLimiter(delay time.Duration, rateCfg RateLimiterSettings) *Limiter {
	limiter := &Limiter{delay: delay}
	if rateCfg.Requests > 0 && rateCfg.Window > 0 {
		limiter.rateEnabled = true
		limiter.rate = rateCfg
		limiter.limiters = make(map[string]*rate.Limiter)
	}
	return limiter
}

// Wait blocks until politeness constraints are satisfied: the fixed
// delay since the previous request, then the host's token bucket if
// rate limiting is enabled. Returns early with the context error on
// cancellation.
func (l *Limiter) Wait(ctx context.Context, host string) error {
	if l == nil {
		return nil
	}
	if l.delay <= 0 && !l.rateEnabled {
		return nil
	}
	host = strings.ToLower(host)

	var sleep time.Duration
	var limiter *rate.Limiter
	now := time.Now()

	l.mu.Lock()
	if l.delay > 0 && !l.last.IsZero() {
		rest := l.last.Add(l.delay).Sub(now)
		if rest > 0 {
			sleep = rest
		}
	}
	if l.rateEnabled && host != "" {
		limiter = l.ensureLimiterLocked(host)
	}
	l.mu.Unlock()

	if sleep > 0 {
		timer := time.NewTimer(sleep)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
	}

	l.mu.Lock()
	l.last = time.Now()
	l.mu.Unlock()
	return nil
}

func (l *Limiter) ensureLimiterLocked(host string) *rate.Limiter {
	limiter, ok := l.limiters[host]
	if ok {
		return limiter
	}
	interval := l.rate.Window / time.Duration(l.rate.Requests)
	if interval <= 0 {
		interval = time.Millisecond
	}
	burst := l.rate.Requests
	if burst <= 0 {
		burst = 1
	}
	limiter = rate.NewLimiter(rate.Every(interval), burst)
	l.limiters[host] = limiter
	return limiter
}
