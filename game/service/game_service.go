package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/calmgames/game/breathing"
	"github.com/wricardo/mcp-training/calmgames/game/meditation"
	"github.com/wricardo/mcp-training/calmgames/game/memory"
	"github.com/wricardo/mcp-training/calmgames/game/preset"
	"github.com/wricardo/mcp-training/calmgames/game/puzzle"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	PuzzleMove(ctx context.Context, sessionID string, tileID int) (*ActionResult, error)
	MemoryFlip(ctx context.Context, sessionID string, cardID int) (*ActionResult, error)
	TogglePlay(ctx context.Context, sessionID string) (*ActionResult, error)
	SkipMeditation(ctx context.Context, sessionID string) (*ActionResult, error)
	Reset(ctx context.Context, sessionID string) (*ActionResult, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*GameState, error)
	GetHint(ctx context.Context, sessionID string) (*HintResult, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*preset.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *preset.GameConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *preset.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, config *preset.GameConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*preset.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *preset.GameConfig
	SaveConfig(name string, config *preset.GameConfig) error
}

// Engines holds the engine a session drives. Exactly one field is set.
type Engines struct {
	Puzzle     *puzzle.Engine
	Memory     *memory.Engine
	Breathing  *breathing.Engine
	Meditation *meditation.Engine
}

// Session represents an active game session. Exactly one engine is set,
// matching Kind.
type Session struct {
	ID   string
	Kind preset.Kind
	Engines
	Config    *preset.GameConfig
	CreatedAt time.Time

	mu             sync.RWMutex
	lastAccessedAt time.Time
}

// NewSession wraps the engine built for config.
func NewSession(id string, config *preset.GameConfig, engines Engines) *Session {
	now := time.Now()
	return &Session{
		ID:             id,
		Kind:           config.Kind,
		Engines:        engines,
		Config:         config,
		CreatedAt:      now,
		lastAccessedAt: now,
	}
}

// Touch records an access.
func (s *Session) Touch(t time.Time) {
	s.mu.Lock()
	s.lastAccessedAt = t
	s.mu.Unlock()
}

// LastAccessedAt returns the time of the latest access.
func (s *Session) LastAccessedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAccessedAt
}

// Close stops the session's engine, discarding any pending timer.
func (s *Session) Close() {
	if s.Puzzle != nil {
		s.Puzzle.Close()
	}
	if s.Memory != nil {
		s.Memory.Close()
	}
	if s.Breathing != nil {
		s.Breathing.Close()
	}
	if s.Meditation != nil {
		s.Meditation.Close()
	}
}

// State returns the player-facing snapshot of the session.
func (s *Session) State() *GameState {
	state := &GameState{Kind: s.Kind}
	msgs := s.Config.Messages

	switch s.Kind {
	case preset.KindPuzzle:
		board := s.Puzzle.Snapshot()
		state.Puzzle = board
		state.Message = msgs.Welcome
		if board.Solved {
			state.Complete = true
			state.Message = victory(msgs.Victory, board.Moves)
		}
	case preset.KindMemory:
		deck := s.Memory.Snapshot()
		state.Memory = deck.Masked()
		state.Message = msgs.Welcome
		switch {
		case deck.Complete:
			state.Complete = true
			state.Message = victory(msgs.Victory, deck.Moves)
		case deck.Resolving:
			if deck.Cards[deck.Pending[0]].Symbol == deck.Cards[deck.Pending[1]].Symbol {
				state.Message = orDefault(msgs.Match, "It's a match!")
			} else {
				state.Message = orDefault(msgs.Mismatch, "Not a match")
			}
		}
	case preset.KindBreathing:
		ex := s.Breathing.Snapshot()
		state.Breathing = ex
		switch {
		case ex.Complete:
			state.Complete = true
			state.Message = victory(msgs.Victory, ex.Cycles)
		case ex.Running:
			state.Message = fmt.Sprintf("%s (%d)", ex.Label, ex.Countdown)
		case ex.Cycles == 0 && ex.Phase == breathing.PhaseInhale && ex.Countdown == s.Breathing.Pattern().Seconds(breathing.PhaseInhale):
			state.Message = msgs.Welcome
		default:
			state.Message = fmt.Sprintf("Paused after %d cycles", ex.Cycles)
		}
	case preset.KindMeditation:
		med := s.Meditation.Snapshot()
		state.Meditation = med
		switch {
		case med.Complete:
			state.Complete = true
			state.Message = victory(msgs.Victory, med.Elapsed/60)
		case med.Phase == meditation.PhaseIntro:
			state.Message = msgs.Welcome
		case med.Running:
			state.Message = med.Prompt
		default:
			state.Message = fmt.Sprintf("Paused with %s left", med.Clock())
		}
	}
	return state
}
