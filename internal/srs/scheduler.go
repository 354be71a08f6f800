package srs

import (
	"math"
	"time"
)

const (
	// SeedEase is the ease factor assigned to a word on first practice.
	SeedEase = 2.5
	// MinEase is the floor below which the ease factor never drops.
	MinEase = 1.3

	successBonus = 0.1
	missPenalty  = 0.2
)

// Outcome is the practice result that drives a schedule transition.
type Outcome string

const (
	// OutcomeFirstTrySuccess means the word was spelled correctly on the
	// first attempt of the session.
	OutcomeFirstTrySuccess Outcome = "first_try_success"
	// OutcomeMiss covers an incorrect attempt and any success that needed
	// more than one try.
	OutcomeMiss Outcome = "miss"
)

// OutcomeFor maps a raw practice result onto the transition rule that applies.
func OutcomeFor(correct, firstTry bool) Outcome {
	if correct && firstTry {
		return OutcomeFirstTrySuccess
	}
	return OutcomeMiss
}

// Entry is the review schedule for one (child, word) pair.
type Entry struct {
	Ease         float64
	IntervalDays int
	Due          time.Time
	Reps         int
	Lapses       int
	UpdatedAt    time.Time
}

// Seed returns the schedule state used when a word has never been practiced.
func Seed() Entry {
	return Entry{Ease: SeedEase, IntervalDays: 0}
}

// Transition computes the next schedule state from the previous one and a
// practice outcome. It is pure: identical inputs always produce identical
// outputs, and prev is never mutated. A nil prev seeds a fresh entry before
// the rule is applied. today anchors the due-date arithmetic; callers pass the
// wall-clock date the outcome was confirmed.
func Transition(prev *Entry, outcome Outcome, today time.Time) Entry {
	current := Seed()
	if prev != nil {
		current = *prev
	}

	next := current
	next.UpdatedAt = today

	switch outcome {
	case OutcomeFirstTrySuccess:
		next.Ease = math.Max(MinEase, current.Ease+successBonus)
		if current.IntervalDays == 0 {
			next.IntervalDays = 1
		} else {
			next.IntervalDays = int(math.Round(float64(current.IntervalDays) * next.Ease))
		}
		next.Due = today.AddDate(0, 0, next.IntervalDays)
		next.Reps = current.Reps + 1
	default:
		next.Ease = math.Max(MinEase, current.Ease-missPenalty)
		next.IntervalDays = 0
		next.Due = today
		next.Lapses = current.Lapses + 1
	}

	return next
}
