package outreach

import (
	"math/rand"
	"sync"
	"time"
)

const (
	hourWindow = time.Hour
	dayWindow  = 24 * time.Hour

	// Upper bound on the stretched delay when hourly quota runs low.
	maxStretchDelay = 20 * time.Minute

	// Remaining hourly slots at or below which pacing switches from the base
	// range to stretching across the rest of the window.
	stretchThreshold = 3
)

type Limits struct {
	Hourly int
	Daily  int
}

var DefaultLimits = Limits{Hourly: 15, Daily: 200}

type Remaining struct {
	Hourly int
	Daily  int
}

type ResetTimes struct {
	Hourly time.Time
	Daily  time.Time
}

// window tracks one user's counts. Windows are anchored at first use, not at
// wall-clock boundaries, and advance in exact window-length steps.
type window struct {
	hourlyCount int
	hourlyReset time.Time
	dailyCount  int
	dailyReset  time.Time
}

// RateLimiter enforces per-user hourly and daily send quotas. State is
// in-memory and per-process; a restart resets all windows. One instance must
// be shared by every runner in the process so quota holds across campaigns.
type RateLimiter struct {
	mu       sync.Mutex
	limits   Limits
	minDelay time.Duration
	maxDelay time.Duration

	now     func() time.Time
	windows map[uint64]*window
}

func NewRateLimiter(limits Limits, minDelay, maxDelay time.Duration) *RateLimiter {
	if limits.Hourly <= 0 {
		limits.Hourly = DefaultLimits.Hourly
	}
	if limits.Daily <= 0 {
		limits.Daily = DefaultLimits.Daily
	}
	if minDelay <= 0 {
		minDelay = 2 * time.Minute
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &RateLimiter{
		limits:   limits,
		minDelay: minDelay,
		maxDelay: maxDelay,
		now:      time.Now,
		windows:  make(map[uint64]*window),
	}
}

// CanSend reports whether userID has quota left in both windows. The only
// mutation it performs is the lazy, idempotent window reset.
func (l *RateLimiter) CanSend(userID uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	w := l.windowFor(userID)
	return w.hourlyCount < l.limits.Hourly && w.dailyCount < l.limits.Daily
}

// RecordSend counts one send against both windows. Call exactly once per
// dispatched attempt, after CanSend returned true for that attempt.
func (l *RateLimiter) RecordSend(userID uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	w := l.windowFor(userID)
	w.hourlyCount++
	w.dailyCount++
}

// Remaining returns non-negative remaining counts.
func (l *RateLimiter) Remaining(userID uint64) Remaining {
	l.mu.Lock()
	defer l.mu.Unlock()
	w := l.windowFor(userID)
	return Remaining{
		Hourly: clampZero(l.limits.Hourly - w.hourlyCount),
		Daily:  clampZero(l.limits.Daily - w.dailyCount),
	}
}

// ResetTimes returns the absolute next reset per window.
func (l *RateLimiter) ResetTimes(userID uint64) ResetTimes {
	l.mu.Lock()
	defer l.mu.Unlock()
	w := l.windowFor(userID)
	return ResetTimes{Hourly: w.hourlyReset, Daily: w.dailyReset}
}

// OptimalDelay recommends how long to wait before the next send. With plenty
// of hourly quota it draws uniformly from the base range; with few slots left
// it spreads them across the rest of the window, never beyond maxStretchDelay.
func (l *RateLimiter) OptimalDelay(userID uint64) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	w := l.windowFor(userID)

	remaining := l.limits.Hourly - w.hourlyCount
	if remaining <= stretchThreshold {
		untilReset := w.hourlyReset.Sub(l.now())
		if untilReset < 0 {
			untilReset = 0
		}
		d := untilReset
		if remaining > 0 {
			d = untilReset / time.Duration(remaining)
		}
		if d > maxStretchDelay {
			d = maxStretchDelay
		}
		return d
	}

	spread := l.maxDelay - l.minDelay
	if spread <= 0 {
		return l.minDelay
	}
	return l.minDelay + time.Duration(rand.Int63n(int64(spread)))
}

// windowFor returns userID's window, creating it on first use and applying
// any due resets. Callers must hold l.mu.
func (l *RateLimiter) windowFor(userID uint64) *window {
	now := l.now()
	w, ok := l.windows[userID]
	if !ok {
		w = &window{
			hourlyReset: now.Add(hourWindow),
			dailyReset:  now.Add(dayWindow),
		}
		l.windows[userID] = w
		return w
	}

	if !now.Before(w.hourlyReset) {
		w.hourlyCount = 0
		for !w.hourlyReset.After(now) {
			w.hourlyReset = w.hourlyReset.Add(hourWindow)
		}
	}
	if !now.Before(w.dailyReset) {
		w.dailyCount = 0
		for !w.dailyReset.After(now) {
			w.dailyReset = w.dailyReset.Add(dayWindow)
		}
	}
	return w
}

func clampZero(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
