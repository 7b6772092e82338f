package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	mrand "math/rand/v2"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/calmgames/game/breathing"
	"github.com/wricardo/mcp-training/calmgames/game/meditation"
	"github.com/wricardo/mcp-training/calmgames/game/memory"
	"github.com/wricardo/mcp-training/calmgames/game/metrics"
	"github.com/wricardo/mcp-training/calmgames/game/preset"
	"github.com/wricardo/mcp-training/calmgames/game/puzzle"
	"github.com/wricardo/mcp-training/calmgames/game/schedule"
	"github.com/wricardo/mcp-training/calmgames/game/service"
)

var (
	ErrSessionNotFound      = service.ErrSessionNotFound
	ErrSessionAlreadyExists = service.ErrSessionAlreadyExists
	ErrSessionLimit         = service.ErrSessionLimit
)

const (
	// idSpace is the number of distinct 4-character hex session IDs.
	idSpace = 1 << 16
	// randomIDAttempts bounds random draws before falling back to a scan.
	randomIDAttempts = 32
)

// Manager handles game session lifecycle
type Manager struct {
	sessions  map[string]*service.Session
	logger    *zap.Logger
	scheduler schedule.Scheduler
	seeds     *mrand.Rand
	onChange  func(*service.Session, string)
	closed    bool
	mu        sync.RWMutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithScheduler sets the scheduler engines use for delayed resolutions and
// timer ticks.
func WithScheduler(s schedule.Scheduler) Option {
	return func(m *Manager) {
		if s != nil {
			m.scheduler = s
		}
	}
}

// WithSeed makes engine shuffles reproducible.
func WithSeed(seed uint64) Option {
	return func(m *Manager) {
		m.seeds = mrand.New(mrand.NewPCG(seed, ^seed))
	}
}

// NewManager creates a new session manager
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions:  make(map[string]*service.Session),
		logger:    zap.NewNop(),
		scheduler: schedule.System(),
		seeds:     mrand.New(mrand.NewPCG(mrand.Uint64(), mrand.Uint64())),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnAsyncChange registers fn to be called after a session changes outside
// of a request: a memory pair resolving (service.EventResolved), a timer
// counting down (service.EventTick) or a timer running out
// (service.EventFinished). It runs on the scheduler's goroutine.
func (m *Manager) OnAsyncChange(fn func(session *service.Session, event string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// Create creates a new session with the given ID and configuration
func (m *Manager) Create(id string, config *preset.GameConfig) (*service.Session, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: nil config", service.ErrInvalidConfig)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, errors.New("session manager is closed")
	}
	if id == "" {
		generated, err := m.generateSessionIDLocked()
		if err != nil {
			m.logger.Warn("session id space exhausted", zap.Int("sessions", len(m.sessions)))
			return nil, err
		}
		id = generated
	}
	// Check if session already exists (case-insensitive)
	if _, exists := m.sessions[strings.ToLower(id)]; exists {
		return nil, ErrSessionAlreadyExists
	}

	session, err := m.newSessionLocked(id, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	m.sessions[strings.ToLower(id)] = session
	metrics.SessionsActive.Inc()
	m.logger.Info("session created",
		zap.String("session_id", id),
		zap.String("kind", string(config.Kind)),
		zap.String("config", config.Name))

	return session, nil
}

func (m *Manager) newSessionLocked(id string, config *preset.GameConfig) (*service.Session, error) {
	seed := m.seeds.Uint64()

	switch config.Kind {
	case preset.KindPuzzle:
		if config.Puzzle == nil {
			return nil, fmt.Errorf("%w: missing puzzle settings", service.ErrInvalidConfig)
		}
		eng := puzzle.NewEngine(
			puzzle.WithSeed(seed),
			puzzle.WithShuffleMoves(config.Puzzle.ShuffleMoves))
		return service.NewSession(id, config, service.Engines{Puzzle: eng}), nil

	case preset.KindMemory:
		if config.Memory == nil {
			return nil, fmt.Errorf("%w: missing memory settings", service.ErrInvalidConfig)
		}
		var session *service.Session
		eng, err := memory.NewEngine(config.Memory.Symbols,
			memory.WithSeed(seed),
			memory.WithScheduler(m.scheduler),
			memory.WithDelays(config.Memory.Delays()),
			memory.WithPairMultiplicity(config.Memory.PairMultiplicity),
			memory.WithOnResolve(func(res memory.Resolution) {
				m.resolved(session, res)
			}))
		if err != nil {
			return nil, err
		}
		session = service.NewSession(id, config, service.Engines{Memory: eng})
		return session, nil

	case preset.KindBreathing:
		if config.Breathing == nil {
			return nil, fmt.Errorf("%w: missing breathing settings", service.ErrInvalidConfig)
		}
		var session *service.Session
		eng, err := breathing.NewEngine(
			breathing.WithScheduler(m.scheduler),
			breathing.WithPattern(config.Breathing.Pattern()),
			breathing.WithTargetCycles(config.Breathing.TargetCycles),
			breathing.WithOnChange(func(c breathing.Change) {
				m.ticked(session, c.State.Complete)
			}))
		if err != nil {
			return nil, err
		}
		session = service.NewSession(id, config, service.Engines{Breathing: eng})
		return session, nil

	case preset.KindMeditation:
		if config.Meditation == nil {
			return nil, fmt.Errorf("%w: missing meditation settings", service.ErrInvalidConfig)
		}
		var session *service.Session
		eng, err := meditation.NewEngine(
			meditation.WithScheduler(m.scheduler),
			meditation.WithDuration(config.Meditation.Duration()),
			meditation.WithPrompts(config.Meditation.Prompts),
			meditation.WithOnChange(func(c meditation.Change) {
				m.ticked(session, c.Finished)
			}))
		if err != nil {
			return nil, err
		}
		session = service.NewSession(id, config, service.Engines{Meditation: eng})
		return session, nil

	default:
		return nil, fmt.Errorf("%w: unknown game kind %q", service.ErrInvalidConfig, config.Kind)
	}
}

// resolved runs after a memory pair resolves on the scheduler goroutine.
func (m *Manager) resolved(session *service.Session, res memory.Resolution) {
	metrics.RecordResolution(res.Matched)
	if res.Deck.Complete {
		metrics.GamesCompleted.WithLabelValues(string(preset.KindMemory)).Inc()
	}
	m.logger.Debug("memory pair resolved",
		zap.String("session_id", session.ID),
		zap.Ints("cards", res.Cards[:]),
		zap.Bool("matched", res.Matched),
		zap.Bool("complete", res.Deck.Complete))

	m.notify(session, service.EventResolved)
}

// ticked runs after a breathing or meditation timer ticks.
func (m *Manager) ticked(session *service.Session, finished bool) {
	if !finished {
		m.notify(session, service.EventTick)
		return
	}
	metrics.GamesCompleted.WithLabelValues(string(session.Kind)).Inc()
	m.logger.Info("timed session finished",
		zap.String("session_id", session.ID),
		zap.String("kind", string(session.Kind)))
	m.notify(session, service.EventFinished)
}

func (m *Manager) notify(session *service.Session, event string) {
	m.mu.RLock()
	fn := m.onChange
	m.mu.RUnlock()
	if fn != nil {
		fn(session, event)
	}
}

// Get retrieves a session by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// GetOrCreate gets an existing session or creates a new one
func (m *Manager) GetOrCreate(id string, config *preset.GameConfig) (*service.Session, error) {
	session, err := m.Get(id)
	if err == nil {
		return session, nil
	}

	if errors.Is(err, ErrSessionNotFound) {
		return m.Create(id, config)
	}

	return nil, err
}

// List returns all active sessions
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}

	return result
}

// Delete removes a session and closes its engine, discarding any pending
// resolution.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	lowerID := strings.ToLower(id)
	session, exists := m.sessions[lowerID]
	if !exists {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(m.sessions, lowerID)
	m.mu.Unlock()

	m.closeSession(session)
	m.logger.Info("session deleted", zap.String("session_id", session.ID))
	return nil
}

// UpdateLastAccessed updates the last accessed time for a session
func (m *Manager) UpdateLastAccessed(id string) error {
	session, err := m.Get(id)
	if err != nil {
		return err
	}
	session.Touch(time.Now())
	return nil
}

// CleanupExpiredSessions removes sessions that haven't been accessed in the given duration
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	var expired []*service.Session
	for id, session := range m.sessions {
		if session.LastAccessedAt().Before(cutoff) {
			delete(m.sessions, id)
			expired = append(expired, session)
		}
	}
	m.mu.Unlock()

	for _, session := range expired {
		m.closeSession(session)
	}
	if len(expired) > 0 {
		m.logger.Info("expired sessions removed", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// RunCleanup removes expired sessions every interval until ctx is done.
func (m *Manager) RunCleanup(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CleanupExpiredSessions(maxAge)
		}
	}
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close tears down every session. The manager rejects new sessions afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.sessions = make(map[string]*service.Session)
	m.closed = true
	m.mu.Unlock()

	for _, session := range sessions {
		m.closeSession(session)
	}
}

func (m *Manager) closeSession(session *service.Session) {
	if session.Memory != nil && session.Memory.Snapshot().Resolving {
		metrics.Resolutions.WithLabelValues(metrics.ResultCancelled).Inc()
	}
	session.Close()
	metrics.SessionsActive.Dec()
}

// generateSessionIDLocked returns an unused random 4-character session ID,
// or ErrSessionLimit when every ID is taken.
func (m *Manager) generateSessionIDLocked() (string, error) {
	bytes := make([]byte, 2)
	for i := 0; i < randomIDAttempts; i++ {
		rand.Read(bytes)
		id := hex.EncodeToString(bytes)
		if _, exists := m.sessions[id]; !exists {
			return id, nil
		}
	}

	// The space is crowded; walk it once from a random start.
	start := int(bytes[0])<<8 | int(bytes[1])
	for i := 0; i < idSpace; i++ {
		id := fmt.Sprintf("%04x", (start+i)%idSpace)
		if _, exists := m.sessions[id]; !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: all %d session ids are in use", ErrSessionLimit, idSpace)
}
