package worker

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"

	"github.com/ppiankov/inspectra/internal/source"
)

// Limiter implements per-host rate limiting for remote documents.
// Local paths are never limited.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a new rate limiter. A non-positive rate disables limiting.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  limit,
		defaultBurst: burst,
	}
}

// Wait waits for rate limit clearance for the given location
func (l *Limiter) Wait(ctx context.Context, location string) error {
	host, err := extractHost(location)
	if err != nil || host == "" {
		return err
	}
	return l.getLimiter(host).Wait(ctx)
}

// Allow reports whether a fetch of location may start now without waiting
func (l *Limiter) Allow(location string) bool {
	host, err := extractHost(location)
	if err != nil {
		return false
	}
	if host == "" {
		return true
	}
	return l.getLimiter(host).Allow()
}

// getLimiter returns the rate limiter for a host
func (l *Limiter) getLimiter(host string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[host]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[host]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[host] = limiter

	return limiter
}

// extractHost returns the host of an http(s) URL, or "" for anything else
func extractHost(location string) (string, error) {
	if !source.IsRemote(location) {
		return "", nil
	}
	parsed, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	return parsed.Host, nil
}
