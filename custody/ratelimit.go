package custody

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/quorumvault/custody/errors"
	"github.com/quorumvault/custody/principal"
)

// adminRateLimiter bounds how often a single caller may attempt one of the
// four registry-admin instructions (create_registry, add_delegate,
// remove_delegate, set_paused). It is an ambient safety rail against a
// scripted flood of the admin surface, not part of §4.2's authorization
// matrix — a caller can be admin and still be throttled.
type adminRateLimiter struct {
	mu       sync.Mutex
	rps      rate.Limit
	burst    int
	limiters map[principal.ID]*rate.Limiter
}

func newAdminRateLimiter(rps float64, burst int) *adminRateLimiter {
	return &adminRateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		limiters: make(map[principal.ID]*rate.Limiter),
	}
}

func (l *adminRateLimiter) allow(caller principal.ID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[caller]
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.limiters[caller] = lim
	}
	return lim.Allow()
}

// WithAdminRateLimit enables a per-caller token bucket over the four
// registry-admin instructions. rps and burst follow
// golang.org/x/time/rate's semantics. An Engine built by NewEngine has no
// limiter configured and never rejects on this ground.
func (e *Engine) WithAdminRateLimit(rps float64, burst int) *Engine {
	e.adminLimiter = newAdminRateLimiter(rps, burst)
	return e
}

func (e *Engine) requireAdminRate(instruction string, caller principal.ID) error {
	if e.adminLimiter == nil {
		return nil
	}
	if !e.adminLimiter.allow(caller) {
		return errors.New(instruction, errors.KindRateLimited)
	}
	return nil
}
