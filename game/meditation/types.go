package meditation

import (
	"errors"
	"time"
)

const (
	DefaultDuration = 5 * time.Minute
	MaxDuration     = 2 * time.Hour
	MaxPrompts      = 20

	// Tick is how often a running session counts down.
	Tick = time.Second
)

var (
	ErrInvalidDuration = errors.New("duration must be a whole number of seconds between 1s and 2h")
	ErrInvalidPrompts  = errors.New("prompts must be non-empty strings")
)

// DefaultPrompts are shown in order as the session progresses.
var DefaultPrompts = []string{
	"Focus on your breath...",
	"Let your thoughts flow...",
	"Feel the calm within you...",
	"Release all tension...",
	"You are at peace...",
}

// Phase is the stage of a session.
type Phase string

const (
	PhaseIntro      Phase = "intro"
	PhaseMeditation Phase = "meditation"
	PhaseComplete   Phase = "complete"
)

// State is an immutable snapshot of a session.
type State struct {
	Phase           Phase   `json:"phase"`
	DurationSeconds int     `json:"duration_seconds"`
	TimeLeft        int     `json:"time_left"`
	Elapsed         int     `json:"elapsed"`
	Progress        float64 `json:"progress"`
	Prompt          string  `json:"prompt,omitempty"`
	Running         bool    `json:"running"`
	Skipped         bool    `json:"skipped,omitempty"`
	Complete        bool    `json:"complete"`
}

// Clock formats TimeLeft as m:ss.
func (s *State) Clock() string {
	return FormatClock(s.TimeLeft)
}

// Change describes one tick of a running session.
type Change struct {
	State    *State `json:"state"`
	Finished bool   `json:"finished"`
}

// ValidateDuration checks a session length.
func ValidateDuration(d time.Duration) error {
	if d < Tick || d > MaxDuration || d%Tick != 0 {
		return ErrInvalidDuration
	}
	return nil
}

// ValidatePrompts checks a prompt list. An empty list selects the defaults.
func ValidatePrompts(prompts []string) error {
	if len(prompts) > MaxPrompts {
		return ErrInvalidPrompts
	}
	for _, p := range prompts {
		if p == "" {
			return ErrInvalidPrompts
		}
	}
	return nil
}
