package clock

import (
	"testing"
	"time"
)

func TestReal_Now(t *testing.T) {
	before := time.Now()
	got := Real{}.Now()
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Errorf("Real.Now() returned time outside expected range")
	}
}

func TestMock_Advance(t *testing.T) {
	start := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	c := NewMock(start)

	if !c.Now().Equal(start) {
		t.Fatalf("expected %v, got %v", start, c.Now())
	}

	c.Advance(90 * time.Minute)
	want := start.Add(90 * time.Minute)
	if !c.Now().Equal(want) {
		t.Errorf("expected %v after advance, got %v", want, c.Now())
	}
}

func TestMock_Set(t *testing.T) {
	c := NewMock(time.Time{})
	target := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	c.Set(target)

	if !c.Now().Equal(target) {
		t.Errorf("expected %v, got %v", target, c.Now())
	}
}

func TestMock_Step(t *testing.T) {
	start := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	c := NewMock(start)
	c.SetStep(time.Second)

	first := c.Now()
	second := c.Now()

	if !first.Equal(start) {
		t.Errorf("first read = %v, want %v", first, start)
	}
	if got := second.Sub(first); got != time.Second {
		t.Errorf("step = %v, want 1s", got)
	}
}

func TestSecondsRoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 500_000_000, time.UTC)
	s := Seconds(ts)

	if s != float64(ts.Unix())+0.5 {
		t.Errorf("Seconds() = %f", s)
	}
	if back := FromSeconds(s); !back.Equal(ts) {
		t.Errorf("FromSeconds() = %v, want %v", back, ts)
	}
}
