package validation

import (
	"sync"
	"time"
)

// RateLimiter implements a token bucket rate limiter per client
type RateLimiter struct {
	maxRequests int
	window      time.Duration
	clients     map[string]*clientLimiter
	mu          sync.Mutex
	cleanupTick *time.Ticker
	done        chan struct{}
	closeOnce   sync.Once
	now         func() time.Time
}

// clientLimiter tracks rate limiting state for a single client
type clientLimiter struct {
	tokens     int
	lastRefill time.Time
	lastSeen   time.Time
}

// NewRateLimiter creates a new rate limiter allowing maxRequests per window
// for each client.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		clients:     make(map[string]*clientLimiter),
		done:        make(chan struct{}),
		now:         time.Now,
	}

	rl.cleanupTick = time.NewTicker(window)
	go rl.cleanup()

	return rl
}

// Allow checks if a request should be allowed for the given client ID
func (rl *RateLimiter) Allow(clientID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	limiter, exists := rl.clients[clientID]
	if !exists {
		limiter = &clientLimiter{tokens: rl.maxRequests, lastRefill: now}
		rl.clients[clientID] = limiter
	}
	limiter.lastSeen = now

	rl.refill(limiter, now)

	if limiter.tokens > 0 {
		limiter.tokens--
		return true
	}
	return false
}

// refill adds the tokens earned since the last refill.
func (rl *RateLimiter) refill(cl *clientLimiter, now time.Time) {
	elapsed := now.Sub(cl.lastRefill)
	if elapsed <= 0 || cl.tokens >= rl.maxRequests {
		cl.lastRefill = now
		return
	}

	tokensToAdd := int(float64(rl.maxRequests) * float64(elapsed) / float64(rl.window))
	if tokensToAdd > 0 {
		cl.tokens = min(cl.tokens+tokensToAdd, rl.maxRequests)
		cl.lastRefill = now
	}
}

// cleanup removes inactive clients to prevent memory leaks
func (rl *RateLimiter) cleanup() {
	for {
		select {
		case <-rl.cleanupTick.C:
			rl.removeInactiveClients()
		case <-rl.done:
			return
		}
	}
}

// removeInactiveClients drops clients idle for two windows
func (rl *RateLimiter) removeInactiveClients() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-2 * rl.window)
	for clientID, limiter := range rl.clients {
		if limiter.lastSeen.Before(cutoff) {
			delete(rl.clients, clientID)
		}
	}
}

// Close stops the rate limiter and cleans up resources. It is safe to call
// more than once.
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() {
		close(rl.done)
		rl.cleanupTick.Stop()
	})
}
