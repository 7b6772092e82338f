// Package preset defines game presets: the JSON documents that describe how
// a puzzle, memory, breathing or meditation session is set up.
package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/wricardo/mcp-training/calmgames/game/breathing"
	"github.com/wricardo/mcp-training/calmgames/game/meditation"
	"github.com/wricardo/mcp-training/calmgames/game/memory"
	"github.com/wricardo/mcp-training/calmgames/game/puzzle"
)

// Kind identifies which engine a preset drives.
type Kind string

const (
	KindPuzzle     Kind = "puzzle"
	KindMemory     Kind = "memory"
	KindBreathing  Kind = "breathing"
	KindMeditation Kind = "meditation"
)

// Kinds lists every supported kind.
var Kinds = []Kind{KindPuzzle, KindMemory, KindBreathing, KindMeditation}

// PuzzleSettings configures the sliding puzzle.
type PuzzleSettings struct {
	ShuffleMoves int `json:"shuffle_moves"`
}

// MemorySettings configures the memory game.
type MemorySettings struct {
	Symbols          []string `json:"symbols"`
	PairMultiplicity int      `json:"pair_multiplicity"`
	MatchDelayMS     int      `json:"match_delay_ms"`
	MismatchDelayMS  int      `json:"mismatch_delay_ms"`
}

// Delays converts the millisecond settings to engine delays.
func (m MemorySettings) Delays() memory.Delays {
	return memory.Delays{
		Match:    time.Duration(m.MatchDelayMS) * time.Millisecond,
		Mismatch: time.Duration(m.MismatchDelayMS) * time.Millisecond,
	}
}

// BreathingSettings configures the paced breathing exercise. TargetCycles of
// zero keeps the exercise going until it is paused.
type BreathingSettings struct {
	InhaleSeconds int `json:"inhale_seconds"`
	HoldSeconds   int `json:"hold_seconds"`
	ExhaleSeconds int `json:"exhale_seconds"`
	TargetCycles  int `json:"target_cycles,omitempty"`
}

// Pattern converts the settings to engine phase lengths.
func (b BreathingSettings) Pattern() breathing.Pattern {
	return breathing.Pattern{
		Inhale: time.Duration(b.InhaleSeconds) * time.Second,
		Hold:   time.Duration(b.HoldSeconds) * time.Second,
		Exhale: time.Duration(b.ExhaleSeconds) * time.Second,
	}
}

// MeditationSettings configures a guided meditation. An empty prompt list
// uses the built-in prompts.
type MeditationSettings struct {
	DurationSeconds int      `json:"duration_seconds"`
	Prompts         []string `json:"prompts,omitempty"`
}

// Duration is the session length.
func (m MeditationSettings) Duration() time.Duration {
	return time.Duration(m.DurationSeconds) * time.Second
}

// Messages are shown to the player as the game progresses.
type Messages struct {
	Welcome  string `json:"welcome"`
	Victory  string `json:"victory"`
	Match    string `json:"match,omitempty"`
	Mismatch string `json:"mismatch,omitempty"`
	Ignored  string `json:"ignored"`
}

// GameConfig is a complete preset.
type GameConfig struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Kind        Kind                `json:"kind"`
	Puzzle      *PuzzleSettings     `json:"puzzle,omitempty"`
	Memory      *MemorySettings     `json:"memory,omitempty"`
	Breathing   *BreathingSettings  `json:"breathing,omitempty"`
	Meditation  *MeditationSettings `json:"meditation,omitempty"`
	Messages    Messages            `json:"messages"`
}

// Validate checks a preset for correctness and playability.
func Validate(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	switch config.Kind {
	case KindPuzzle:
		if config.Puzzle == nil {
			return fmt.Errorf("config validation: puzzle settings are required for kind %q", config.Kind)
		}
		if n := config.Puzzle.ShuffleMoves; n < 1 || n > puzzle.MaxShuffleMoves {
			return fmt.Errorf("config validation: shuffle_moves must be between 1 and %d, got %d", puzzle.MaxShuffleMoves, n)
		}
	case KindMemory:
		if config.Memory == nil {
			return fmt.Errorf("config validation: memory settings are required for kind %q", config.Kind)
		}
		m := config.Memory
		if err := memory.ValidateSymbols(m.Symbols); err != nil {
			return fmt.Errorf("config validation: %w", err)
		}
		if m.PairMultiplicity < 2 || m.PairMultiplicity%2 != 0 {
			return fmt.Errorf("config validation: pair_multiplicity must be even and at least 2, got %d", m.PairMultiplicity)
		}
		if m.MatchDelayMS < 0 || m.MatchDelayMS >= m.MismatchDelayMS {
			return fmt.Errorf("config validation: match_delay_ms (%d) must be non-negative and below mismatch_delay_ms (%d)",
				m.MatchDelayMS, m.MismatchDelayMS)
		}
	case KindBreathing:
		if config.Breathing == nil {
			return fmt.Errorf("config validation: breathing settings are required for kind %q", config.Kind)
		}
		b := config.Breathing
		if err := b.Pattern().Validate(); err != nil {
			return fmt.Errorf("config validation: inhale_seconds, hold_seconds and exhale_seconds: %w", err)
		}
		if b.TargetCycles < 0 {
			return fmt.Errorf("config validation: target_cycles must not be negative, got %d", b.TargetCycles)
		}
	case KindMeditation:
		if config.Meditation == nil {
			return fmt.Errorf("config validation: meditation settings are required for kind %q", config.Kind)
		}
		if err := meditation.ValidateDuration(config.Meditation.Duration()); err != nil {
			return fmt.Errorf("config validation: duration_seconds: %w", err)
		}
		if err := meditation.ValidatePrompts(config.Meditation.Prompts); err != nil {
			return fmt.Errorf("config validation: prompts: %w", err)
		}
	default:
		return fmt.Errorf("config validation: kind must be one of %v, got %q", Kinds, config.Kind)
	}

	if config.Messages.Welcome == "" {
		return fmt.Errorf("config validation: messages.welcome is required")
	}
	if config.Messages.Ignored == "" {
		return fmt.Errorf("config validation: messages.ignored is required")
	}
	if err := checkVictory(config.Messages.Victory); err != nil {
		return fmt.Errorf("config validation: messages.victory %w", err)
	}
	return nil
}

// checkVictory accepts formats with exactly one %d verb; %% is a literal.
func checkVictory(format string) error {
	verbs := 0
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		if i+1 == len(format) {
			return fmt.Errorf("ends with a bare %%")
		}
		switch format[i+1] {
		case '%':
		case 'd':
			verbs++
		default:
			return fmt.Errorf("has unsupported verb %%%c; only %%d is allowed", format[i+1])
		}
		i++
	}
	if verbs != 1 {
		return fmt.Errorf("must contain exactly one %%d for the count, found %d", verbs)
	}
	if out := fmt.Sprintf(format, 0); strings.Contains(out, "%!") {
		return fmt.Errorf("does not format cleanly: %q", out)
	}
	return nil
}

// Load reads and validates a preset file.
func Load(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}
	if err := Validate(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// DefaultPuzzle is used when no puzzle preset is available on disk.
func DefaultPuzzle() *GameConfig {
	return &GameConfig{
		Name:        "Picture Puzzle",
		Description: "Slide the feelings back into place",
		Kind:        KindPuzzle,
		Puzzle:      &PuzzleSettings{ShuffleMoves: puzzle.DefaultShuffleMoves},
		Messages: Messages{
			Welcome: "Click tiles to move them into the empty space",
			Victory: "Amazing! You solved the puzzle in %d moves!",
			Ignored: "That tile can't move",
		},
	}
}

// DefaultMemory is used when no memory preset is available on disk.
func DefaultMemory() *GameConfig {
	return &GameConfig{
		Name:        "Memory Game",
		Description: "Find every pair of feelings",
		Kind:        KindMemory,
		Memory: &MemorySettings{
			Symbols:          append([]string(nil), memory.DefaultSymbols...),
			PairMultiplicity: memory.DefaultPairMultiplicity,
			MatchDelayMS:     int(memory.DefaultMatchDelay / time.Millisecond),
			MismatchDelayMS:  int(memory.DefaultMismatchDelay / time.Millisecond),
		},
		Messages: Messages{
			Welcome:  "Flip two cards to find a pair",
			Victory:  "Well Done! You completed the game in %d moves!",
			Match:    "It's a match!",
			Mismatch: "Not a pair, try to remember them",
			Ignored:  "That card can't be flipped right now",
		},
	}
}

// DefaultBreathing is used when no breathing preset is available on disk.
func DefaultBreathing() *GameConfig {
	return &GameConfig{
		Name:        "Breathing Exercise",
		Description: "Breathe in for 4 seconds, hold for 4, breathe out for 6",
		Kind:        KindBreathing,
		Breathing: &BreathingSettings{
			InhaleSeconds: int(breathing.DefaultInhale / time.Second),
			HoldSeconds:   int(breathing.DefaultHold / time.Second),
			ExhaleSeconds: int(breathing.DefaultExhale / time.Second),
		},
		Messages: Messages{
			Welcome: "Press start and follow the instructions",
			Victory: "Well done! You completed %d breathing cycles.",
			Ignored: "The exercise can't do that right now",
		},
	}
}

// DefaultMeditation is used when no meditation preset is available on disk.
func DefaultMeditation() *GameConfig {
	return &GameConfig{
		Name:        "Deep Relaxation",
		Description: "Release tension and find peace",
		Kind:        KindMeditation,
		Meditation: &MeditationSettings{
			DurationSeconds: int(meditation.DefaultDuration / time.Second),
		},
		Messages: Messages{
			Welcome: "Find a quiet place, close your eyes, and breathe deeply",
			Victory: "Session complete. You meditated for %d minutes.",
			Ignored: "The session can't do that right now",
		},
	}
}
