package ratelimiter

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// ActionLimiters holds one token bucket per action name, created on first use.
// Each limiter enforces a steady-state rate (e.g. 20 actions/sec) with burst
// equal to the rate, so a flood of worker pages cannot hammer the
// integration and a long dispatch chain cannot starve workers.
type ActionLimiters struct {
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

// New creates ActionLimiters with ratePerSec tokens per second per action.
func New(ratePerSec int) *ActionLimiters {
	if ratePerSec <= 0 {
		ratePerSec = 1
	}
	return &ActionLimiters{
		rate:     rate.Limit(ratePerSec),
		burst:    ratePerSec,
		limiters: map[string]*rate.Limiter{},
	}
}

// Wait blocks until the action's limiter grants a token.
// Returns a non-nil error only if ctx is cancelled while waiting.
func (al *ActionLimiters) Wait(ctx context.Context, action string) error {
	return al.limiter(action).Wait(ctx)
}

func (al *ActionLimiters) limiter(action string) *rate.Limiter {
	al.mu.Lock()
	defer al.mu.Unlock()
	l, ok := al.limiters[action]
	if !ok {
		l = rate.NewLimiter(al.rate, al.burst)
		al.limiters[action] = l
	}
	return l
}
