package breathing

import (
	"errors"
	"time"
)

const (
	DefaultInhale = 4 * time.Second
	DefaultHold   = 4 * time.Second
	DefaultExhale = 6 * time.Second
	MaxPhase      = time.Minute

	// Tick is how often a running exercise counts down.
	Tick = time.Second
)

var ErrInvalidPattern = errors.New("each phase must last a whole number of seconds between 1s and 1m")

// Phase is one part of a breathing cycle.
type Phase string

const (
	PhaseInhale Phase = "inhale"
	PhaseHold   Phase = "hold"
	PhaseExhale Phase = "exhale"
)

// Label is the instruction shown to the player during the phase.
func (p Phase) Label() string {
	switch p {
	case PhaseInhale:
		return "Breathe In"
	case PhaseHold:
		return "Hold"
	case PhaseExhale:
		return "Breathe Out"
	}
	return string(p)
}

// Pattern sets how long each phase lasts.
type Pattern struct {
	Inhale time.Duration `json:"inhale"`
	Hold   time.Duration `json:"hold"`
	Exhale time.Duration `json:"exhale"`
}

// DefaultPattern returns the 4-4-6 pattern.
func DefaultPattern() Pattern {
	return Pattern{Inhale: DefaultInhale, Hold: DefaultHold, Exhale: DefaultExhale}
}

// Validate checks that every phase is a whole number of seconds within range.
func (p Pattern) Validate() error {
	for _, d := range []time.Duration{p.Inhale, p.Hold, p.Exhale} {
		if d < Tick || d > MaxPhase || d%Tick != 0 {
			return ErrInvalidPattern
		}
	}
	return nil
}

// Seconds returns the length of phase in ticks.
func (p Pattern) Seconds(phase Phase) int {
	switch phase {
	case PhaseHold:
		return int(p.Hold / Tick)
	case PhaseExhale:
		return int(p.Exhale / Tick)
	default:
		return int(p.Inhale / Tick)
	}
}

// CycleLength is the duration of one full cycle.
func (p Pattern) CycleLength() time.Duration {
	return p.Inhale + p.Hold + p.Exhale
}

// State is an immutable snapshot of the exercise.
type State struct {
	Phase        Phase  `json:"phase"`
	Label        string `json:"label"`
	Countdown    int    `json:"countdown"`
	Cycles       int    `json:"cycles"`
	TargetCycles int    `json:"target_cycles,omitempty"`
	Running      bool   `json:"running"`
	Complete     bool   `json:"complete"`
}

// Change describes one tick of a running exercise.
type Change struct {
	State          *State `json:"state"`
	PhaseChanged   bool   `json:"phase_changed"`
	CycleCompleted bool   `json:"cycle_completed"`
}
