package outreach

import (
	"testing"
	"time"
)

// testClock gives the limiter a controllable now.
type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time { return c.t }

func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(limits Limits, clock *testClock) *RateLimiter {
	l := NewRateLimiter(limits, 2*time.Minute, 10*time.Minute)
	l.now = clock.now
	return l
}

func TestRateLimiterQuota(t *testing.T) {
	clock := &testClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	l := newTestLimiter(Limits{Hourly: 5, Daily: 100}, clock)

	if !l.CanSend(1) {
		t.Fatal("fresh user should have quota")
	}
	for i := 0; i < 5; i++ {
		l.RecordSend(1)
	}
	if l.CanSend(1) {
		t.Fatal("quota should be exhausted after 5 sends")
	}
	rem := l.Remaining(1)
	if rem.Hourly != 0 {
		t.Fatalf("remaining hourly = %d, want 0", rem.Hourly)
	}
	if rem.Daily != 95 {
		t.Fatalf("remaining daily = %d, want 95", rem.Daily)
	}
}

func TestRateLimiterRemainingNeverNegative(t *testing.T) {
	clock := &testClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	l := newTestLimiter(Limits{Hourly: 2, Daily: 3}, clock)

	for i := 0; i < 5; i++ {
		l.RecordSend(1)
	}
	rem := l.Remaining(1)
	if rem.Hourly != 0 || rem.Daily != 0 {
		t.Fatalf("remaining = %+v, want zeroes", rem)
	}
}

func TestRateLimiterUsersIndependent(t *testing.T) {
	clock := &testClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	l := newTestLimiter(Limits{Hourly: 1, Daily: 10}, clock)

	l.RecordSend(1)
	if l.CanSend(1) {
		t.Fatal("user 1 should be out of hourly quota")
	}
	if !l.CanSend(2) {
		t.Fatal("user 2 should be untouched")
	}
}

func TestRateLimiterHourlyReset(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 17, 0, 0, time.UTC)
	clock := &testClock{t: start}
	l := newTestLimiter(Limits{Hourly: 3, Daily: 100}, clock)

	// Window anchors at first use, not at the top of the hour.
	for i := 0; i < 3; i++ {
		l.RecordSend(1)
	}
	if l.CanSend(1) {
		t.Fatal("hourly quota should be gone")
	}
	resets := l.ResetTimes(1)
	if !resets.Hourly.Equal(start.Add(time.Hour)) {
		t.Fatalf("hourly reset = %v, want %v", resets.Hourly, start.Add(time.Hour))
	}

	clock.advance(time.Hour)
	if !l.CanSend(1) {
		t.Fatal("quota should be restored after the window elapses")
	}
	if rem := l.Remaining(1); rem.Hourly != 3 {
		t.Fatalf("remaining hourly after reset = %d, want 3", rem.Hourly)
	}
	resets = l.ResetTimes(1)
	if !resets.Hourly.Equal(start.Add(2 * time.Hour)) {
		t.Fatalf("next hourly reset = %v, want exactly one window later (%v)", resets.Hourly, start.Add(2*time.Hour))
	}
}

func TestRateLimiterResetSkipsIdleWindows(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := &testClock{t: start}
	l := newTestLimiter(Limits{Hourly: 3, Daily: 100}, clock)

	l.RecordSend(1)
	clock.advance(3*time.Hour + 30*time.Minute)

	if !l.CanSend(1) {
		t.Fatal("quota should be available after idle hours")
	}
	// The boundary advances in whole window steps, never drifting to "now".
	resets := l.ResetTimes(1)
	if !resets.Hourly.Equal(start.Add(4 * time.Hour)) {
		t.Fatalf("hourly reset = %v, want %v", resets.Hourly, start.Add(4*time.Hour))
	}
}

func TestRateLimiterDailyReset(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := &testClock{t: start}
	l := newTestLimiter(Limits{Hourly: 100, Daily: 2}, clock)

	l.RecordSend(1)
	l.RecordSend(1)
	if l.CanSend(1) {
		t.Fatal("daily quota should be gone")
	}

	clock.advance(2 * time.Hour)
	if l.CanSend(1) {
		t.Fatal("hourly reset must not restore daily quota")
	}

	clock.advance(22 * time.Hour)
	if !l.CanSend(1) {
		t.Fatal("daily quota should be restored after a day")
	}
}

func TestOptimalDelayBaseRange(t *testing.T) {
	clock := &testClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	l := newTestLimiter(Limits{Hourly: 15, Daily: 200}, clock)

	for i := 0; i < 50; i++ {
		d := l.OptimalDelay(1)
		if d < 2*time.Minute || d > 10*time.Minute {
			t.Fatalf("delay %v outside base range", d)
		}
	}
}

func TestOptimalDelayStretchesWhenQuotaLow(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := &testClock{t: start}
	l := newTestLimiter(Limits{Hourly: 5, Daily: 200}, clock)

	for i := 0; i < 3; i++ {
		l.RecordSend(1) // 2 remaining, at or below the stretch threshold
	}
	clock.advance(50 * time.Minute) // 10m until reset

	if d := l.OptimalDelay(1); d != 5*time.Minute {
		t.Fatalf("stretched delay = %v, want 5m (10m split over 2 slots)", d)
	}
}

func TestOptimalDelayCapped(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := &testClock{t: start}
	l := newTestLimiter(Limits{Hourly: 5, Daily: 200}, clock)

	for i := 0; i < 4; i++ {
		l.RecordSend(1) // 1 remaining, full window ahead
	}
	if d := l.OptimalDelay(1); d != maxStretchDelay {
		t.Fatalf("delay = %v, want cap %v", d, maxStretchDelay)
	}
}

func TestOptimalDelayZeroRemaining(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := &testClock{t: start}
	l := newTestLimiter(Limits{Hourly: 2, Daily: 200}, clock)

	l.RecordSend(1)
	l.RecordSend(1)
	clock.advance(45 * time.Minute)

	if d := l.OptimalDelay(1); d != 15*time.Minute {
		t.Fatalf("delay with no quota = %v, want time until reset (15m)", d)
	}
}
