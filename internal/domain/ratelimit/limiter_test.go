package ratelimit

import (
	"testing"
	"time"

	"github.com/vigiajus/vigiajus/internal/config"
	"github.com/vigiajus/vigiajus/pkg/clock"
)

func fixedBudget(b config.BudgetConfig) BudgetFunc {
	return func(string) config.BudgetConfig { return b }
}

func newTestLimiter(b config.BudgetConfig) (*Limiter, *clock.Mock) {
	mock := clock.NewMock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewLimiter(fixedBudget(b), mock, nil), mock
}

func TestMinuteWindow(t *testing.T) {
	l, _ := newTestLimiter(config.BudgetConfig{
		RequestsPerMinute: 5, RequestsPerHour: 100, RequestsPerDay: 1000,
		Cooldown: 15 * time.Minute,
	})

	for i := 0; i < 5; i++ {
		if d := l.Check("8.26"); !d.Allowed {
			t.Fatalf("request %d denied: %+v", i+1, d)
		}
	}

	d := l.Check("8.26")
	if d.Allowed {
		t.Fatal("sixth request allowed")
	}
	if d.Window != WindowMinute {
		t.Errorf("window = %q, want minute", d.Window)
	}
	if d.WaitTime != time.Minute {
		t.Errorf("wait = %v, want 60s hint", d.WaitTime)
	}
	// A minute-level denial sets no cooldown.
	if u := l.GetUsage("8.26"); u.BlockedUntil != nil {
		t.Errorf("cooldown set by minute denial: %+v", u)
	}
}

func TestMinuteWindowSlides(t *testing.T) {
	l, mock := newTestLimiter(config.BudgetConfig{
		RequestsPerMinute: 2, RequestsPerHour: 100, RequestsPerDay: 1000,
		Cooldown: 15 * time.Minute,
	})

	l.Check("8.26")
	l.Check("8.26")
	if d := l.Check("8.26"); d.Allowed {
		t.Fatal("third request within a minute allowed")
	}

	mock.Advance(61 * time.Second)
	if d := l.Check("8.26"); !d.Allowed {
		t.Fatalf("request after window slide denied: %+v", d)
	}
}

func TestHourWindowSetsCooldown(t *testing.T) {
	cooldown := 15 * time.Minute
	l, mock := newTestLimiter(config.BudgetConfig{
		RequestsPerMinute: 100, RequestsPerHour: 3, RequestsPerDay: 1000,
		Cooldown: cooldown,
	})

	for i := 0; i < 3; i++ {
		if d := l.Check("8.26"); !d.Allowed {
			t.Fatalf("request %d denied", i+1)
		}
		mock.Advance(2 * time.Minute) // stay under the minute budget
	}

	d := l.Check("8.26")
	if d.Allowed || d.Window != WindowHour {
		t.Fatalf("decision = %+v, want hour denial", d)
	}
	if d.WaitTime != cooldown {
		t.Errorf("wait = %v, want %v", d.WaitTime, cooldown)
	}

	// Subsequent checks hit the cooldown, not the window counters.
	mock.Advance(time.Minute)
	d = l.Check("8.26")
	if d.Allowed || d.Window != WindowCooldown {
		t.Fatalf("decision = %+v, want cooldown denial", d)
	}
	if d.WaitTime != cooldown-time.Minute {
		t.Errorf("remaining wait = %v", d.WaitTime)
	}

	// After the cooldown elapses and the hour window slides, allowed again.
	mock.Advance(2 * time.Hour)
	if d := l.Check("8.26"); !d.Allowed {
		t.Fatalf("post-cooldown request denied: %+v", d)
	}
}

func TestDayWindowBlocksUntilMidnight(t *testing.T) {
	l, mock := newTestLimiter(config.BudgetConfig{
		RequestsPerMinute: 100, RequestsPerHour: 100, RequestsPerDay: 2,
		Cooldown: 15 * time.Minute,
	})

	l.Check("8.26")
	l.Check("8.26")

	d := l.Check("8.26")
	if d.Allowed || d.Window != WindowDay {
		t.Fatalf("decision = %+v, want day denial", d)
	}
	// Clock is at 12:00 UTC, so midnight is 12h away.
	if d.WaitTime != 12*time.Hour {
		t.Errorf("wait = %v, want 12h", d.WaitTime)
	}

	mock.Advance(12*time.Hour + time.Second)
	if d := l.Check("8.26"); !d.Allowed {
		t.Fatalf("request after midnight denied: %+v", d)
	}
}

func TestBucketsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(config.BudgetConfig{
		RequestsPerMinute: 1, RequestsPerHour: 10, RequestsPerDay: 100,
		Cooldown: time.Minute,
	})

	if d := l.Check("8.26"); !d.Allowed {
		t.Fatal("first 8.26 denied")
	}
	if d := l.Check("8.26"); d.Allowed {
		t.Fatal("second 8.26 allowed")
	}
	// Another tribunal is unaffected.
	if d := l.Check("8.19"); !d.Allowed {
		t.Fatal("8.19 denied by 8.26 usage")
	}
}

func TestDeniedRequestsAreNotRecorded(t *testing.T) {
	l, mock := newTestLimiter(config.BudgetConfig{
		RequestsPerMinute: 1, RequestsPerHour: 100, RequestsPerDay: 1000,
		Cooldown: time.Minute,
	})

	l.Check("8.26")
	l.Check("8.26") // denied
	l.Check("8.26") // denied

	if u := l.GetUsage("8.26"); u.LastDay != 1 {
		t.Errorf("day count = %d, want 1 (denials recorded?)", u.LastDay)
	}

	mock.Advance(61 * time.Second)
	if d := l.Check("8.26"); !d.Allowed {
		t.Fatal("denials extended the window")
	}
}

func TestGetUsage(t *testing.T) {
	l, mock := newTestLimiter(config.BudgetConfig{
		RequestsPerMinute: 10, RequestsPerHour: 100, RequestsPerDay: 1000,
		Cooldown: time.Minute,
	})

	l.Check("8.26")
	l.Check("8.26")
	mock.Advance(2 * time.Minute)
	l.Check("8.26")

	u := l.GetUsage("8.26")
	if u.LastMinute != 1 || u.LastHour != 3 || u.LastDay != 3 {
		t.Errorf("usage = %+v", u)
	}

	if u := l.GetUsage("9.99"); u.LastDay != 0 {
		t.Errorf("unknown tribunal usage = %+v", u)
	}
}

func TestSweepDropsStaleBuckets(t *testing.T) {
	l, mock := newTestLimiter(config.BudgetConfig{
		RequestsPerMinute: 10, RequestsPerHour: 100, RequestsPerDay: 1000,
		Cooldown: time.Minute,
	})

	l.Check("8.26")
	l.Check("8.19")

	if removed := l.Sweep(); removed != 0 {
		t.Errorf("fresh buckets swept: %d", removed)
	}

	mock.Advance(25 * time.Hour)
	if removed := l.Sweep(); removed != 2 {
		t.Errorf("stale buckets removed = %d, want 2", removed)
	}
}

func TestSweepClearsExpiredCooldown(t *testing.T) {
	l, mock := newTestLimiter(config.BudgetConfig{
		RequestsPerMinute: 100, RequestsPerHour: 1, RequestsPerDay: 1000,
		Cooldown: 10 * time.Minute,
	})

	l.Check("8.26")
	l.Check("8.26") // hour denial sets the cooldown

	mock.Advance(25 * time.Hour)
	if removed := l.Sweep(); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
}
