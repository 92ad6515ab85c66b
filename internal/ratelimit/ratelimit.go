package ratelimit

import (
	"sync"
	"time"
)

// entry tracks one origin's recent activity.
type entry struct {
	attempts    int
	windowStart time.Time
	banUntil    time.Time
}

// IPLimiter counts attempts per origin inside a fixed window and bans the
// origin once the count reaches the threshold. Entries expire on their own:
// an idle window resets the counter, and a ban lifts itself once its expiry
// passes. The service runs two independent instances, one for redemption
// errors and one for uploads.
type IPLimiter struct {
	mu        sync.Mutex
	entries   map[string]*entry
	threshold int
	window    time.Duration
	banFor    time.Duration
	now       func() time.Time
}

// NewIPLimiter creates a limiter that bans an origin for banFor once it has
// made threshold attempts within window.
func NewIPLimiter(threshold int, window, banFor time.Duration) *IPLimiter {
	return &IPLimiter{
		entries:   make(map[string]*entry),
		threshold: threshold,
		window:    window,
		banFor:    banFor,
		now:       time.Now,
	}
}

// IsBanned reports whether the origin is currently inside a ban window.
func (l *IPLimiter) IsBanned(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[ip]
	if !ok {
		return false
	}
	return l.now().Before(e.banUntil)
}

// Add records one attempt for the origin and returns the updated count.
// Crossing the threshold transitions the entry into a ban and resets the
// counter; the returned count is the one that triggered the ban. Attempts
// made while banned are not counted and do not extend the ban.
func (l *IPLimiter) Add(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[ip]
	if !ok {
		e = &entry{windowStart: now}
		l.entries[ip] = e
	}

	if now.Before(e.banUntil) {
		return l.threshold
	}
	if !e.banUntil.IsZero() {
		// Ban has elapsed; this attempt starts a fresh window.
		*e = entry{windowStart: now}
	}
	if now.Sub(e.windowStart) > l.window {
		*e = entry{windowStart: now}
	}

	e.attempts++
	count := e.attempts
	if e.attempts >= l.threshold {
		e.banUntil = now.Add(l.banFor)
		e.attempts = 0
	}
	return count
}

// Remaining returns how many attempts the origin has left before a ban
// would trigger. A banned origin has zero remaining.
func (l *IPLimiter) Remaining(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[ip]
	if !ok {
		return l.threshold
	}
	now := l.now()
	if now.Before(e.banUntil) {
		return 0
	}
	if !e.banUntil.IsZero() || now.Sub(e.windowStart) > l.window {
		return l.threshold
	}
	return l.threshold - e.attempts
}

// Sweep drops entries whose window and ban have both elapsed. The logic in
// Add and IsBanned never reads a stale entry, so this only frees memory.
func (l *IPLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for ip, e := range l.entries {
		if now.Sub(e.windowStart) > l.window && !now.Before(e.banUntil) {
			delete(l.entries, ip)
		}
	}
}
