package insights

import (
	"sync"
	"time"
)

const exportLimitWindow = 2 * time.Second

// exportLimiter allows one export per client per window.
type exportLimiter struct {
	mu      sync.Mutex
	lastHit map[string]time.Time
	now     func() time.Time
	window  time.Duration
}

func newExportLimiter(window time.Duration, now func() time.Time) *exportLimiter {
	if now == nil {
		now = time.Now
	}
	if window <= 0 {
		window = exportLimitWindow
	}
	return &exportLimiter{
		lastHit: make(map[string]time.Time),
		now:     now,
		window:  window,
	}
}

func (l *exportLimiter) Allow(clientKey string) bool {
	if l == nil {
		return true
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if last, ok := l.lastHit[clientKey]; ok {
		if now.Sub(last) < l.window {
			return false
		}
	}
	l.lastHit[clientKey] = now
	for k, t := range l.lastHit {
		if now.Sub(t) >= l.window {
			delete(l.lastHit, k)
		}
	}
	return true
}

func (l *exportLimiter) RetryAfterSeconds() int {
	if l == nil {
		return int(exportLimitWindow.Seconds())
	}
	secs := int(l.window.Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}
