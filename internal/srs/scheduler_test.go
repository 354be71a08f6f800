package srs

import (
	"math"
	"testing"
	"time"
)

var today = time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMissWithoutPriorEntry(t *testing.T) {
	next := Transition(nil, OutcomeMiss, today)

	if !almostEqual(next.Ease, 2.3) {
		t.Fatalf("ease = %v, want 2.3", next.Ease)
	}
	if next.IntervalDays != 0 {
		t.Fatalf("interval = %d, want 0", next.IntervalDays)
	}
	if !next.Due.Equal(today) {
		t.Fatalf("due = %v, want today", next.Due)
	}
	if next.Reps != 0 {
		t.Fatalf("reps = %d, want 0", next.Reps)
	}
	if next.Lapses != 1 {
		t.Fatalf("lapses = %d, want 1", next.Lapses)
	}
}

func TestFirstTrySuccessFromSeed(t *testing.T) {
	prev := &Entry{Ease: 2.5, IntervalDays: 0}
	next := Transition(prev, OutcomeFirstTrySuccess, today)

	if !almostEqual(next.Ease, 2.6) {
		t.Fatalf("ease = %v, want 2.6", next.Ease)
	}
	if next.IntervalDays != 1 {
		t.Fatalf("interval = %d, want 1", next.IntervalDays)
	}
	if !next.Due.Equal(today.AddDate(0, 0, 1)) {
		t.Fatalf("due = %v, want tomorrow", next.Due)
	}
	if next.Reps != 1 {
		t.Fatalf("reps = %d, want 1", next.Reps)
	}
	if next.Lapses != 0 {
		t.Fatalf("lapses = %d, want 0", next.Lapses)
	}
}

func TestSuccessGrowsIntervalByEase(t *testing.T) {
	prev := &Entry{Ease: 2.0, IntervalDays: 4, Reps: 3}
	next := Transition(prev, OutcomeFirstTrySuccess, today)

	// round(4 * 2.1) = 8
	if next.IntervalDays != 8 {
		t.Fatalf("interval = %d, want 8", next.IntervalDays)
	}
	if next.Reps != 4 {
		t.Fatalf("reps = %d, want 4", next.Reps)
	}
}

func TestTransitionIsDeterministic(t *testing.T) {
	prev := &Entry{Ease: 2.2, IntervalDays: 3, Reps: 2, Lapses: 1}
	first := Transition(prev, OutcomeFirstTrySuccess, today)
	second := Transition(prev, OutcomeFirstTrySuccess, today)
	if first != second {
		t.Fatalf("expected identical outputs, got %+v and %+v", first, second)
	}
	if prev.Ease != 2.2 || prev.IntervalDays != 3 {
		t.Fatalf("prev was mutated: %+v", prev)
	}
}

func TestEaseNeverDropsBelowFloor(t *testing.T) {
	entry := Seed()
	for i := 0; i < 20; i++ {
		entry = Transition(&entry, OutcomeMiss, today)
		if entry.Ease < MinEase {
			t.Fatalf("ease %v dropped below floor after %d misses", entry.Ease, i+1)
		}
	}
	if !almostEqual(entry.Ease, MinEase) {
		t.Fatalf("ease = %v, want floor %v after sustained misses", entry.Ease, MinEase)
	}
	if entry.Lapses != 20 {
		t.Fatalf("lapses = %d, want 20", entry.Lapses)
	}
}

func TestIntervalMonotonicOnSuccessStreak(t *testing.T) {
	entry := Seed()
	lastInterval := 0
	for i := 0; i < 10; i++ {
		entry = Transition(&entry, OutcomeFirstTrySuccess, today.AddDate(0, 0, i))
		if entry.IntervalDays < lastInterval {
			t.Fatalf("interval shrank from %d to %d on success streak", lastInterval, entry.IntervalDays)
		}
		lastInterval = entry.IntervalDays
	}
	if entry.Reps != 10 {
		t.Fatalf("reps = %d, want 10", entry.Reps)
	}
}

func TestOutcomeFor(t *testing.T) {
	cases := []struct {
		correct, firstTry bool
		want              Outcome
	}{
		{true, true, OutcomeFirstTrySuccess},
		{true, false, OutcomeMiss},
		{false, true, OutcomeMiss},
		{false, false, OutcomeMiss},
	}
	for _, tc := range cases {
		if got := OutcomeFor(tc.correct, tc.firstTry); got != tc.want {
			t.Fatalf("OutcomeFor(%v, %v) = %v, want %v", tc.correct, tc.firstTry, got, tc.want)
		}
	}
}
