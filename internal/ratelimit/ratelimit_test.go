package ratelimit

import (
	"sync"
	"testing"
	"time"
)

// fakeClock lets tests move time forward deterministically.
type fakeClock struct {
	mu  sync.Mutex
	cur time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(d)
}

func newTestLimiter(threshold int, window, banFor time.Duration) (*IPLimiter, *fakeClock) {
	clock := &fakeClock{cur: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewIPLimiter(threshold, window, banFor)
	l.now = clock.Now
	return l, clock
}

func TestBanAfterThreshold(t *testing.T) {
	l, _ := newTestLimiter(3, 10*time.Minute, 10*time.Minute)

	for i := 1; i <= 2; i++ {
		if l.IsBanned("1.2.3.4") {
			t.Fatalf("banned after %d attempts", i-1)
		}
		if got := l.Add("1.2.3.4"); got != i {
			t.Fatalf("Add returned %d, want %d", got, i)
		}
	}

	if got := l.Add("1.2.3.4"); got != 3 {
		t.Fatalf("Add returned %d, want 3", got)
	}
	if !l.IsBanned("1.2.3.4") {
		t.Fatal("expected ban after threshold attempts")
	}
}

func TestBanDoesNotExtendOnAttempt(t *testing.T) {
	l, clock := newTestLimiter(2, 10*time.Minute, 10*time.Minute)

	l.Add("1.2.3.4")
	l.Add("1.2.3.4")
	if !l.IsBanned("1.2.3.4") {
		t.Fatal("expected ban")
	}

	// Attempts during the ban must not count or extend it.
	clock.Advance(9 * time.Minute)
	l.Add("1.2.3.4")
	clock.Advance(90 * time.Second)
	if l.IsBanned("1.2.3.4") {
		t.Fatal("ban should have lifted after its duration")
	}
}

func TestFreshWindowAfterBan(t *testing.T) {
	l, clock := newTestLimiter(2, 10*time.Minute, 5*time.Minute)

	l.Add("1.2.3.4")
	l.Add("1.2.3.4")
	clock.Advance(6 * time.Minute)

	if l.IsBanned("1.2.3.4") {
		t.Fatal("ban should have expired")
	}
	if got := l.Add("1.2.3.4"); got != 1 {
		t.Fatalf("first attempt after ban counted as %d, want 1", got)
	}
}

func TestWindowExpiryResetsCounter(t *testing.T) {
	l, clock := newTestLimiter(3, 10*time.Minute, 10*time.Minute)

	l.Add("1.2.3.4")
	l.Add("1.2.3.4")
	clock.Advance(11 * time.Minute)

	if got := l.Add("1.2.3.4"); got != 1 {
		t.Fatalf("attempt in a new window counted as %d, want 1", got)
	}
	if l.IsBanned("1.2.3.4") {
		t.Fatal("should not be banned after window reset")
	}
}

func TestRemaining(t *testing.T) {
	l, _ := newTestLimiter(5, 10*time.Minute, 10*time.Minute)

	if got := l.Remaining("1.2.3.4"); got != 5 {
		t.Fatalf("fresh origin remaining = %d, want 5", got)
	}
	l.Add("1.2.3.4")
	l.Add("1.2.3.4")
	if got := l.Remaining("1.2.3.4"); got != 3 {
		t.Fatalf("remaining = %d, want 3", got)
	}
	for i := 0; i < 3; i++ {
		l.Add("1.2.3.4")
	}
	if got := l.Remaining("1.2.3.4"); got != 0 {
		t.Fatalf("banned origin remaining = %d, want 0", got)
	}
}

func TestOriginsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(2, 10*time.Minute, 10*time.Minute)

	l.Add("1.2.3.4")
	l.Add("1.2.3.4")
	if !l.IsBanned("1.2.3.4") {
		t.Fatal("expected ban for first origin")
	}
	if l.IsBanned("5.6.7.8") {
		t.Fatal("unrelated origin should not be banned")
	}
	if got := l.Add("5.6.7.8"); got != 1 {
		t.Fatalf("unrelated origin count = %d, want 1", got)
	}
}

func TestConcurrentAdds(t *testing.T) {
	l, _ := newTestLimiter(1000, time.Hour, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				l.Add("1.2.3.4")
			}
		}()
	}
	wg.Wait()

	if got := l.Remaining("1.2.3.4"); got != 500 {
		t.Fatalf("remaining = %d after 500 concurrent attempts, want 500", got)
	}
}

func TestSweepDropsIdleEntries(t *testing.T) {
	l, clock := newTestLimiter(3, 10*time.Minute, 10*time.Minute)

	l.Add("1.2.3.4")
	l.Add("5.6.7.8")
	clock.Advance(11 * time.Minute)
	l.Add("5.6.7.8") // refreshed, must survive the sweep

	l.Sweep()

	l.mu.Lock()
	_, stale := l.entries["1.2.3.4"]
	_, fresh := l.entries["5.6.7.8"]
	l.mu.Unlock()

	if stale {
		t.Fatal("idle entry survived sweep")
	}
	if !fresh {
		t.Fatal("active entry removed by sweep")
	}
}

func TestSweepKeepsBannedEntries(t *testing.T) {
	l, clock := newTestLimiter(2, time.Minute, time.Hour)

	l.Add("1.2.3.4")
	l.Add("1.2.3.4")
	clock.Advance(5 * time.Minute)

	l.Sweep()
	if !l.IsBanned("1.2.3.4") {
		t.Fatal("sweep must not lift an active ban")
	}
}
