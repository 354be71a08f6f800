// Package srs implements the spaced-repetition schedule transition for
// practiced words.
//
// Transition is a pure function from (previous entry, outcome, date) to the
// next entry: a first-try success grows the ease and review interval, any
// other result shrinks the ease, zeroes the interval, and records a lapse.
// The ease factor never drops below 1.3. The package performs no I/O; the
// sync orchestrator invokes it exactly once per confirmed attempt and
// persists the result.
package srs
