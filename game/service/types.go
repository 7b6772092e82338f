package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/mcp-training/calmgames/game/breathing"
	"github.com/wricardo/mcp-training/calmgames/game/meditation"
	"github.com/wricardo/mcp-training/calmgames/game/memory"
	"github.com/wricardo/mcp-training/calmgames/game/preset"
	"github.com/wricardo/mcp-training/calmgames/game/puzzle"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	Kind           preset.Kind        `json:"kind"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *GameState         `json:"game_state"`
	GameConfig     *preset.GameConfig `json:"game_config"`
}

// GameState is the unified snapshot for every game kind. Memory decks are
// masked so face-down symbols never leave the server.
type GameState struct {
	Kind       preset.Kind       `json:"kind"`
	Puzzle     *puzzle.Board     `json:"puzzle,omitempty"`
	Memory     *memory.Deck      `json:"memory,omitempty"`
	Breathing  *breathing.State  `json:"breathing,omitempty"`
	Meditation *meditation.State `json:"meditation,omitempty"`
	Complete   bool              `json:"complete"`
	Message    string            `json:"message"`
}

// ActionResult contains the result of a move, flip or reset
type ActionResult struct {
	Accepted  bool        `json:"accepted"`
	GameState *GameState  `json:"game_state"`
	Message   string      `json:"message"`
	Events    []GameEvent `json:"events,omitempty"`
}

// Event types reported in ActionResult.Events.
const (
	EventMove                = "move"
	EventFlip                = "flip"
	EventIgnored             = "ignored"
	EventSolved              = "solved"
	EventResolutionScheduled = "resolution_scheduled"
	EventReset               = "reset"
	EventStarted             = "started"
	EventPaused              = "paused"
	EventSkipped             = "skipped"
)

// Events reported for changes made by timers rather than requests.
const (
	EventResolved = "resolved"
	EventTick     = "tick"
	EventFinished = "finished"
)

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Target    *int      `json:"target,omitempty"`
}

func newEvent(eventType, message string, target *int) GameEvent {
	return GameEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now(),
		Target:    target,
	}
}

// HintResult suggests the next puzzle move.
type HintResult struct {
	Tile      int    `json:"tile"`
	Remaining int    `json:"remaining_moves"`
	Message   string `json:"message"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename     string      `json:"filename"`
	ConfigID     string      `json:"config_id"` // The identifier to use for session creation
	Name         string      `json:"name"`      // Display name
	Description  string      `json:"description"`
	Kind         preset.Kind `json:"kind"`
	ShuffleMoves int         `json:"shuffle_moves,omitempty"`
	Cards        int         `json:"cards,omitempty"`
	Cycles       int         `json:"target_cycles,omitempty"`
	Seconds      int         `json:"duration_seconds,omitempty"`
	BuiltIn      bool        `json:"built_in,omitempty"`
}

// NewConfigInfo summarizes a preset stored under id.
func NewConfigInfo(id, filename string, config *preset.GameConfig) *ConfigInfo {
	info := &ConfigInfo{
		Filename:    filename,
		ConfigID:    id,
		Name:        config.Name,
		Description: config.Description,
		Kind:        config.Kind,
	}
	if config.Puzzle != nil {
		info.ShuffleMoves = config.Puzzle.ShuffleMoves
	}
	if config.Memory != nil {
		info.Cards = len(config.Memory.Symbols) * config.Memory.PairMultiplicity
	}
	if config.Breathing != nil {
		info.Cycles = config.Breathing.TargetCycles
	}
	if config.Meditation != nil {
		info.Seconds = config.Meditation.DurationSeconds
	}
	return info
}

func victory(format string, count int) string {
	return fmt.Sprintf(format, count)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
