package queue

import (
	"strings"
	"time"
)

// Kind distinguishes the two queued record types.
type Kind string

const (
	KindAttempt Kind = "attempt"
	KindAudio   Kind = "audio"
)

// ParseKind converts a string into a known Kind.
func ParseKind(value string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindAttempt:
		return KindAttempt, true
	case KindAudio:
		return KindAudio, true
	default:
		return "", false
	}
}

// State represents the sync lifecycle of a queued item. Terminal failure is a
// separate absorbing flag so a failed item keeps its last state for display.
type State string

const (
	StatePending State = "pending"
	StateSyncing State = "syncing"
	StateSynced  State = "synced"
)

var allStates = []State{StatePending, StateSyncing, StateSynced}

// ParseState converts a string into a known State.
func ParseState(value string) (State, bool) {
	normalized := State(strings.ToLower(strings.TrimSpace(value)))
	for _, state := range allStates {
		if state == normalized {
			return normalized, true
		}
	}
	return "", false
}

// Mode identifies the practice exercise that produced an attempt.
type Mode string

const (
	ModeTyping    Mode = "typing"
	ModeDictation Mode = "dictation"
	ModeChoice    Mode = "choice"
	ModeScramble  Mode = "scramble"
)

var allModes = []Mode{ModeTyping, ModeDictation, ModeChoice, ModeScramble}

// AllModes returns the ordered list of known practice modes.
func AllModes() []Mode {
	cp := make([]Mode, len(allModes))
	copy(cp, allModes)
	return cp
}

// ParseMode converts a string into a known Mode.
func ParseMode(value string) (Mode, bool) {
	normalized := Mode(strings.ToLower(strings.TrimSpace(value)))
	for _, mode := range allModes {
		if mode == normalized {
			return normalized, true
		}
	}
	return "", false
}

// Attempt is a single practice event awaiting upload.
type Attempt struct {
	ID          int64
	AttemptKey  string
	ChildID     string
	ListID      string
	WordID      string
	Mode        Mode
	Correct     bool
	FirstTry    bool
	TypedAnswer string
	AudioID     *int64
	DurationMS  int64
	StartedAt   time.Time
	State       State
	RetryCount  int
	LastError   string
	Terminal    bool
	NextRetryAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Audio is a recorded clip awaiting upload, referenced by zero or more attempts.
type Audio struct {
	ID          int64
	DestPath    string
	Payload     []byte
	ContentType string
	State       State
	RetryCount  int
	LastError   string
	Terminal    bool
	RemotePath  string
	NextRetryAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HealthSummary aggregates queue counts per kind and lifecycle bucket.
// Pending and failed counts here are authoritative; the telemetry hub's
// cumulative counters are advisory.
type HealthSummary struct {
	PendingAttempts int
	PendingAudio    int
	FailedAttempts  int
	FailedAudio     int
	SyncingAttempts int
	SyncingAudio    int
}

// Total returns the number of live queue records across both kinds.
func (h HealthSummary) Total() int {
	return h.PendingAttempts + h.PendingAudio + h.FailedAttempts + h.FailedAudio +
		h.SyncingAttempts + h.SyncingAudio
}
