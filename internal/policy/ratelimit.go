package policy

import (
	"sync"
	"time"

	"github.com/modelgate/modelgate/internal/domain"
)

// rateLimiter keeps a sliding window of invocation timestamps per task.
type rateLimiter struct {
	mu      sync.Mutex
	history map[domain.Task][]time.Time
	now     func() time.Time
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{
		history: make(map[domain.Task][]time.Time),
		now:     time.Now,
	}
}

// allow records one invocation and reports whether both the per-minute
// and per-hour counts stay within limit. A zero limit field means no
// cap on that window.
func (l *rateLimiter) allow(task domain.Task, limit *domain.RateLimit) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	hourAgo := now.Add(-time.Hour)
	minuteAgo := now.Add(-time.Minute)

	// Evict entries older than the widest window.
	kept := l.history[task][:0]
	for _, ts := range l.history[task] {
		if ts.After(hourAgo) {
			kept = append(kept, ts)
		}
	}

	perMinute := 0
	for _, ts := range kept {
		if ts.After(minuteAgo) {
			perMinute++
		}
	}

	if limit.PerHour > 0 && len(kept) >= limit.PerHour {
		l.history[task] = kept
		return false
	}
	if limit.PerMinute > 0 && perMinute >= limit.PerMinute {
		l.history[task] = kept
		return false
	}

	l.history[task] = append(kept, now)
	return true
}
