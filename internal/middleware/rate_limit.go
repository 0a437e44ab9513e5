package middleware

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// DefaultRateLimit is the default number of chat commands per minute
	DefaultRateLimit = 30
	// DefaultBurstSize is the default burst size
	DefaultBurstSize = 5
	// CleanupInterval is how often idle limiters are swept
	CleanupInterval = 5 * time.Minute
	// LimiterTTL is how long an idle limiter is kept
	LimiterTTL = 10 * time.Minute
)

// RateLimiter throttles requests per workspace
type RateLimiter struct {
	limiters  map[int32]*limiterEntry
	mu        sync.Mutex
	perMinute int
	perSecond rate.Limit
	burstSize int
	stopCh    chan struct{}
	stopOnce  sync.Once
	now       func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a RateLimiter with the default limits
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithConfig(DefaultRateLimit, DefaultBurstSize)
}

// NewRateLimiterWithConfig creates a RateLimiter allowing requestsPerMinute
// with the given burst. It starts a background sweep that Stop ends.
func NewRateLimiterWithConfig(requestsPerMinute int, burstSize int) *RateLimiter {
	rl := &RateLimiter{
		limiters:  make(map[int32]*limiterEntry),
		perMinute: requestsPerMinute,
		perSecond: rate.Limit(float64(requestsPerMinute) / 60.0),
		burstSize: burstSize,
		stopCh:    make(chan struct{}),
		now:       time.Now,
	}
	go rl.cleanup()
	return rl
}

func (r *RateLimiter) entry(workspaceID int32) *limiterEntry {
	e, ok := r.limiters[workspaceID]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(r.perSecond, r.burstSize)}
		r.limiters[workspaceID] = e
	}
	e.lastSeen = r.now()
	return e
}

// Allow reports whether the workspace may make another request now
func (r *RateLimiter) Allow(workspaceID int32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entry(workspaceID).limiter.Allow()
}

// State returns the remaining burst and when it will be full again
func (r *RateLimiter) State(workspaceID int32) (remaining int, reset time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.limiters[workspaceID]
	if !ok {
		return r.burstSize, r.now()
	}
	remaining = int(e.limiter.Tokens())
	if remaining < 0 {
		remaining = 0
	}
	missing := float64(r.burstSize - remaining)
	return remaining, r.now().Add(time.Duration(missing / float64(r.perSecond) * float64(time.Second)))
}

// Len returns the number of tracked workspaces
func (r *RateLimiter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.limiters)
}

func (r *RateLimiter) sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for workspaceID, e := range r.limiters {
		if now.Sub(e.lastSeen) > LimiterTTL {
			delete(r.limiters, workspaceID)
			log.Debug().Int32("workspace_id", workspaceID).Msg("Dropped idle rate limiter")
		}
	}
}

func (r *RateLimiter) cleanup() {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep()
		case <-r.stopCh:
			return
		}
	}
}

// Stop ends the background sweep
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// RateLimitMiddleware throttles authenticated requests by workspace.
// Requests without a workspace in context pass through.
func RateLimitMiddleware(rl *RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			workspaceID := GetWorkspaceID(c)
			if workspaceID == 0 {
				return next(c)
			}

			header := c.Response().Header()
			header.Set("X-RateLimit-Limit", strconv.Itoa(rl.perMinute))

			if !rl.Allow(workspaceID) {
				_, reset := rl.State(workspaceID)
				retryAfter := int(time.Until(reset).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				header.Set("X-RateLimit-Remaining", "0")
				header.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
				header.Set("Retry-After", strconv.Itoa(retryAfter))

				log.Warn().
					Int32("workspace_id", workspaceID).
					Int("retry_after", retryAfter).
					Msg("Rate limit exceeded")

				return rateLimitError(c, fmt.Sprintf("Too many requests. Please retry after %d seconds.", retryAfter))
			}

			remaining, reset := rl.State(workspaceID)
			header.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			header.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
			return next(c)
		}
	}
}
