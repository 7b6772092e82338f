package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/wricardo/mcp-training/calmgames/game/breathing"
	"github.com/wricardo/mcp-training/calmgames/game/meditation"
	"github.com/wricardo/mcp-training/calmgames/game/metrics"
	"github.com/wricardo/mcp-training/calmgames/game/preset"
	"github.com/wricardo/mcp-training/calmgames/game/puzzle"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// getConfigID returns the config_id for a given display name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *preset.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("%w: '%s' (available configs: %v)", ErrConfigNotFound, configName, configIDs)
				}
				return nil, fmt.Errorf("%w: '%s'", ErrConfigNotFound, configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	session, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	metrics.SessionsCreated.WithLabelValues(string(session.Kind)).Inc()

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}
	return s.info(session, configID), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return s.info(session, s.getConfigID(session.Config.Name)), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.info(sess, s.getConfigID(sess.Config.Name)))
	}
	return result, nil
}

// DeleteSession removes a session and stops its engine
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}

// PuzzleMove clicks a tile in a puzzle session
func (s *gameServiceImpl) PuzzleMove(ctx context.Context, sessionID string, tileID int) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookupKind(sessionID, preset.KindPuzzle)
	if err != nil {
		return nil, err
	}

	board, accepted := sess.Puzzle.ApplyMove(tileID)
	metrics.RecordAction(string(sess.Kind), accepted)

	state := sess.State()
	result := &ActionResult{
		Accepted:  accepted,
		GameState: state,
		Message:   state.Message,
	}

	target := tileID
	if !accepted {
		result.Message = sess.Config.Messages.Ignored
		result.Events = append(result.Events, newEvent(EventIgnored,
			fmt.Sprintf("Tile %d cannot move", tileID), &target))
		return result, nil
	}

	result.Events = append(result.Events, newEvent(EventMove,
		fmt.Sprintf("Moved tile %d to position %d (move %d)", tileID, board.Tiles[tileID].Position, board.Moves), &target))
	if board.Solved {
		metrics.GamesCompleted.WithLabelValues(string(sess.Kind)).Inc()
		result.Events = append(result.Events, newEvent(EventSolved, state.Message, nil))
	}
	return result, nil
}

// MemoryFlip turns a card face up in a memory session
func (s *gameServiceImpl) MemoryFlip(ctx context.Context, sessionID string, cardID int) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookupKind(sessionID, preset.KindMemory)
	if err != nil {
		return nil, err
	}

	deck, accepted := sess.Memory.Flip(cardID)
	metrics.RecordAction(string(sess.Kind), accepted)

	state := sess.State()
	result := &ActionResult{
		Accepted:  accepted,
		GameState: state,
		Message:   state.Message,
	}

	target := cardID
	if !accepted {
		result.Message = sess.Config.Messages.Ignored
		result.Events = append(result.Events, newEvent(EventIgnored,
			fmt.Sprintf("Card %d cannot be flipped", cardID), &target))
		return result, nil
	}

	result.Events = append(result.Events, newEvent(EventFlip,
		fmt.Sprintf("Flipped card %d: %s", cardID, deck.Cards[cardID].Symbol), &target))
	if deck.Resolving {
		delays := sess.Memory.Delays()
		delay := delays.Mismatch
		first, second := deck.Cards[deck.Pending[0]], deck.Cards[deck.Pending[1]]
		if first.Symbol == second.Symbol {
			delay = delays.Match
		}
		result.Events = append(result.Events, newEvent(EventResolutionScheduled,
			fmt.Sprintf("Cards %d and %d resolve in %s", first.ID, second.ID, delay), nil))
	}
	return result, nil
}

// TogglePlay starts or pauses a breathing or meditation session
func (s *gameServiceImpl) TogglePlay(ctx context.Context, sessionID string) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookupKind(sessionID, preset.KindBreathing, preset.KindMeditation)
	if err != nil {
		return nil, err
	}

	var accepted, running bool
	switch sess.Kind {
	case preset.KindBreathing:
		var ex *breathing.State
		ex, accepted = sess.Breathing.Toggle()
		running = ex.Running
	case preset.KindMeditation:
		var med *meditation.State
		med, accepted = sess.Meditation.Toggle()
		running = med.Running
	}
	metrics.RecordAction(string(sess.Kind), accepted)

	state := sess.State()
	result := &ActionResult{
		Accepted:  accepted,
		GameState: state,
		Message:   state.Message,
	}
	switch {
	case !accepted:
		result.Message = sess.Config.Messages.Ignored
		result.Events = append(result.Events, newEvent(EventIgnored, "Nothing to start or pause", nil))
	case running:
		result.Events = append(result.Events, newEvent(EventStarted, "Timer started", nil))
	default:
		result.Events = append(result.Events, newEvent(EventPaused, "Timer paused", nil))
	}
	return result, nil
}

// SkipMeditation ends a running or paused meditation early
func (s *gameServiceImpl) SkipMeditation(ctx context.Context, sessionID string) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookupKind(sessionID, preset.KindMeditation)
	if err != nil {
		return nil, err
	}

	med, accepted := sess.Meditation.Skip()
	metrics.RecordAction(string(sess.Kind), accepted)

	state := sess.State()
	result := &ActionResult{
		Accepted:  accepted,
		GameState: state,
		Message:   state.Message,
	}
	if !accepted {
		result.Message = sess.Config.Messages.Ignored
		result.Events = append(result.Events, newEvent(EventIgnored,
			fmt.Sprintf("Cannot skip a session in the %s phase", med.Phase), nil))
		return result, nil
	}
	result.Events = append(result.Events, newEvent(EventSkipped,
		fmt.Sprintf("Skipped with %s left", med.Clock()), nil))
	return result, nil
}

// Reset restarts the session's game, discarding any pending resolution
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	switch sess.Kind {
	case preset.KindPuzzle:
		sess.Puzzle.Reset()
	case preset.KindMemory:
		if sess.Memory.Snapshot().Resolving {
			metrics.Resolutions.WithLabelValues(metrics.ResultCancelled).Inc()
		}
		sess.Memory.Reset()
	case preset.KindBreathing:
		sess.Breathing.Reset()
	case preset.KindMeditation:
		sess.Meditation.Reset()
	}

	state := sess.State()
	return &ActionResult{
		Accepted:  true,
		GameState: state,
		Message:   state.Message,
		Events:    []GameEvent{newEvent(EventReset, "Game reset", nil)},
	}, nil
}

// GetGameState returns the current game state for a session
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.State(), nil
}

// GetHint suggests the next tile on a shortest path to the solved puzzle
func (s *gameServiceImpl) GetHint(ctx context.Context, sessionID string) (*HintResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.lookupKind(sessionID, preset.KindPuzzle)
	if err != nil {
		return nil, err
	}

	tile, err := sess.Puzzle.Hint()
	if err != nil {
		return nil, fmt.Errorf("no hint available: %w", err)
	}
	path, _ := puzzle.Solve(sess.Puzzle.Layout())
	return &HintResult{
		Tile:      tile,
		Remaining: len(path),
		Message:   fmt.Sprintf("Try moving tile %d (%s)", tile, puzzle.TileFaces[tile]),
	}, nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*preset.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *preset.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

func (s *gameServiceImpl) lookup(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

func (s *gameServiceImpl) lookupKind(sessionID string, kinds ...preset.Kind) (*Session, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	for _, kind := range kinds {
		if sess.Kind == kind {
			return sess, nil
		}
	}
	return nil, fmt.Errorf("%w: session %s is a %s game, not %s", ErrWrongGameKind, sess.ID, sess.Kind, joinKinds(kinds))
}

func joinKinds(kinds []preset.Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, " or ")
}

func (s *gameServiceImpl) info(sess *Session, configID string) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		Kind:           sess.Kind,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt(),
		GameState:      sess.State(),
		GameConfig:     sess.Config,
	}
}
