package timeutil

import (
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clock := RealClock{}
	before := time.Now()
	now := clock.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Errorf("Now() = %v, expected between %v and %v", now, before, after)
	}
}

func TestRealClock_Since(t *testing.T) {
	clock := RealClock{}
	past := time.Now().Add(-time.Second)

	if d := clock.Since(past); d < time.Second {
		t.Errorf("Since() returned %v, expected >= 1s", d)
	}
}

func TestMockClock(t *testing.T) {
	start := time.Date(2026, 1, 7, 17, 31, 29, 0, time.UTC)
	clock := NewMockClock(start)

	if !clock.Now().Equal(start) {
		t.Errorf("Now() = %v, want %v", clock.Now(), start)
	}

	step := 1500 * time.Millisecond
	if got := clock.Advance(step); !got.Equal(start.Add(step)) {
		t.Errorf("Advance() = %v, want %v", got, start.Add(step))
	}
	if d := clock.Since(start); d != step {
		t.Errorf("Since() = %v, want %v", d, step)
	}

	later := start.Add(time.Hour)
	clock.Set(later)
	if !clock.Now().Equal(later) {
		t.Errorf("after Set, Now() = %v, want %v", clock.Now(), later)
	}
}

func TestUnixMillisRoundTrip(t *testing.T) {
	const ms int64 = 1750719826467
	ts := FromUnixMillis(ms)
	if got := ToUnixMillis(ts); got != ms {
		t.Errorf("ToUnixMillis() = %d, want %d", got, ms)
	}
	if ns := ts.Nanosecond(); ns != 467*int(time.Millisecond) {
		t.Errorf("Nanosecond() = %d, want %d", ns, 467*int(time.Millisecond))
	}
}

var _ Clock = RealClock{}
var _ Clock = (*MockClock)(nil)
