package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/calmgames/game/breathing"
	"github.com/wricardo/mcp-training/calmgames/game/meditation"
	"github.com/wricardo/mcp-training/calmgames/game/memory"
	"github.com/wricardo/mcp-training/calmgames/game/preset"
	"github.com/wricardo/mcp-training/calmgames/game/puzzle"
	"github.com/wricardo/mcp-training/calmgames/game/schedule"
	"github.com/wricardo/mcp-training/calmgames/game/service"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions  map[string]*service.Session
	scheduler *schedule.Manual
	seed      uint64
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions:  make(map[string]*service.Session),
		scheduler: schedule.NewManual(),
	}
}

func (m *MockSessionManager) Create(id string, config *preset.GameConfig) (*service.Session, error) {
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}
	if _, exists := m.sessions[id]; exists {
		return nil, service.ErrSessionAlreadyExists
	}

	m.seed++
	var sess *service.Session
	switch config.Kind {
	case preset.KindPuzzle:
		eng := puzzle.NewEngine(puzzle.WithSeed(m.seed), puzzle.WithShuffleMoves(config.Puzzle.ShuffleMoves))
		sess = service.NewSession(id, config, service.Engines{Puzzle: eng})
	case preset.KindMemory:
		eng, err := memory.NewEngine(config.Memory.Symbols,
			memory.WithSeed(m.seed),
			memory.WithScheduler(m.scheduler),
			memory.WithDelays(config.Memory.Delays()),
			memory.WithPairMultiplicity(config.Memory.PairMultiplicity))
		if err != nil {
			return nil, err
		}
		sess = service.NewSession(id, config, service.Engines{Memory: eng})
	case preset.KindBreathing:
		eng, err := breathing.NewEngine(
			breathing.WithScheduler(m.scheduler),
			breathing.WithPattern(config.Breathing.Pattern()),
			breathing.WithTargetCycles(config.Breathing.TargetCycles))
		if err != nil {
			return nil, err
		}
		sess = service.NewSession(id, config, service.Engines{Breathing: eng})
	case preset.KindMeditation:
		eng, err := meditation.NewEngine(
			meditation.WithScheduler(m.scheduler),
			meditation.WithDuration(config.Meditation.Duration()),
			meditation.WithPrompts(config.Meditation.Prompts))
		if err != nil {
			return nil, err
		}
		sess = service.NewSession(id, config, service.Engines{Meditation: eng})
	}

	m.sessions[id] = sess
	return sess, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	sess, exists := m.sessions[id]
	if !exists {
		return nil, service.ErrSessionNotFound
	}
	return sess, nil
}

func (m *MockSessionManager) GetOrCreate(id string, config *preset.GameConfig) (*service.Session, error) {
	if sess, exists := m.sessions[id]; exists {
		return sess, nil
	}
	return m.Create(id, config)
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		result = append(result, sess)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	sess, exists := m.sessions[id]
	if !exists {
		return service.ErrSessionNotFound
	}
	sess.Close()
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	if sess, exists := m.sessions[id]; exists {
		sess.Touch(time.Now())
		return nil
	}
	return service.ErrSessionNotFound
}

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	configs map[string]*preset.GameConfig
}

func NewMockConfigManager() *MockConfigManager {
	tiny := preset.DefaultMemory()
	tiny.Name = "Tiny"
	tiny.Memory.Symbols = []string{"A", "B"}

	breaths := preset.DefaultBreathing()
	breaths.Breathing = &preset.BreathingSettings{InhaleSeconds: 1, HoldSeconds: 1, ExhaleSeconds: 1, TargetCycles: 2}

	short := preset.DefaultMeditation()
	short.Meditation.DurationSeconds = 120

	return &MockConfigManager{
		configs: map[string]*preset.GameConfig{
			"puzzle":     preset.DefaultPuzzle(),
			"memory":     preset.DefaultMemory(),
			"tiny":       tiny,
			"breathing":  breaths,
			"meditation": short,
		},
	}
}

func (m *MockConfigManager) LoadConfig(name string) (*preset.GameConfig, error) {
	cfg, exists := m.configs[name]
	if !exists {
		return nil, service.ErrConfigNotFound
	}
	return cfg, nil
}

func (m *MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	var result []*service.ConfigInfo
	for id, cfg := range m.configs {
		result = append(result, service.NewConfigInfo(id, id+".json", cfg))
	}
	return result, nil
}

func (m *MockConfigManager) GetDefault() *preset.GameConfig {
	return m.configs["puzzle"]
}

func (m *MockConfigManager) SaveConfig(name string, config *preset.GameConfig) error {
	if err := preset.Validate(config); err != nil {
		return fmt.Errorf("%w: %v", service.ErrInvalidConfig, err)
	}
	m.configs[name] = config
	return nil
}

func newTestService() (service.GameService, *MockSessionManager) {
	sessions := NewMockSessionManager()
	return service.NewGameService(sessions, NewMockConfigManager()), sessions
}

func hasEvent(events []service.GameEvent, eventType string) bool {
	for _, e := range events {
		if e.Type == eventType {
			return true
		}
	}
	return false
}

func TestCreateSession(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	t.Run("default config", func(t *testing.T) {
		info, err := svc.CreateSession(ctx, "")
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if info.Kind != preset.KindPuzzle {
			t.Errorf("Expected default puzzle session, got %s", info.Kind)
		}
		if info.ConfigName != "puzzle" {
			t.Errorf("Expected config_name 'puzzle', got %q", info.ConfigName)
		}
		if info.GameState.Puzzle == nil || info.GameState.Memory != nil {
			t.Error("Expected puzzle state only")
		}
		if info.GameState.Message != info.GameConfig.Messages.Welcome {
			t.Errorf("Expected welcome message, got %q", info.GameState.Message)
		}
	})

	t.Run("memory config", func(t *testing.T) {
		info, err := svc.CreateSession(ctx, "memory")
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if info.Kind != preset.KindMemory || info.GameState.Memory == nil {
			t.Fatalf("Expected memory session, got %+v", info.GameState)
		}
		if len(info.GameState.Memory.Cards) != 16 {
			t.Errorf("Expected 16 cards, got %d", len(info.GameState.Memory.Cards))
		}
		for _, c := range info.GameState.Memory.Cards {
			if c.Symbol != "" {
				t.Fatalf("Face-down card %d leaked symbol %q", c.ID, c.Symbol)
			}
		}
	})

	t.Run("unknown config", func(t *testing.T) {
		_, err := svc.CreateSession(ctx, "nope")
		if !errors.Is(err, service.ErrConfigNotFound) {
			t.Fatalf("Expected ErrConfigNotFound, got %v", err)
		}
		if !strings.Contains(err.Error(), "available configs") {
			t.Errorf("Expected available configs in error, got %v", err)
		}
	})
}

func TestGetAndDeleteSession(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	info, _ := svc.CreateSession(ctx, "puzzle")
	got, err := svc.GetSession(ctx, info.ID)
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if got.ID != info.ID {
		t.Errorf("Expected ID %s, got %s", info.ID, got.ID)
	}

	list, _ := svc.ListSessions(ctx)
	if len(list) != 1 {
		t.Errorf("Expected 1 session, got %d", len(list))
	}

	if err := svc.DeleteSession(ctx, info.ID); err != nil {
		t.Fatalf("Failed to delete session: %v", err)
	}
	if _, err := svc.GetSession(ctx, info.ID); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
	if err := svc.DeleteSession(ctx, info.ID); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound on second delete, got %v", err)
	}
}

func TestPuzzleMove(t *testing.T) {
	svc, sessions := newTestService()
	ctx := context.Background()

	info, _ := svc.CreateSession(ctx, "puzzle")
	board := info.GameState.Puzzle

	result, err := svc.PuzzleMove(ctx, info.ID, board.Movable[0])
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if !result.Accepted {
		t.Fatal("Expected movable tile to be accepted")
	}
	if result.GameState.Puzzle.Moves != 1 {
		t.Errorf("Expected 1 move, got %d", result.GameState.Puzzle.Moves)
	}
	if !hasEvent(result.Events, service.EventMove) {
		t.Error("Expected move event")
	}
	for _, e := range result.Events {
		if e.ID == "" {
			t.Error("Expected event ID")
		}
	}

	// The empty tile never moves.
	result, err = svc.PuzzleMove(ctx, info.ID, puzzle.EmptyTileID)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if result.Accepted {
		t.Error("Expected empty tile click to be ignored")
	}
	if result.Message != sessions.sessions[info.ID].Config.Messages.Ignored {
		t.Errorf("Expected ignored message, got %q", result.Message)
	}
	if !hasEvent(result.Events, service.EventIgnored) {
		t.Error("Expected ignored event")
	}
	if result.GameState.Puzzle.Moves != 1 {
		t.Errorf("Ignored move changed counter to %d", result.GameState.Puzzle.Moves)
	}
}

func TestPuzzleMove_SolveWithHints(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	info, _ := svc.CreateSession(ctx, "puzzle")

	var result *service.ActionResult
	for i := 0; i < 100; i++ {
		hint, err := svc.GetHint(ctx, info.ID)
		if err != nil {
			t.Fatalf("Hint failed: %v", err)
		}
		result, err = svc.PuzzleMove(ctx, info.ID, hint.Tile)
		if err != nil {
			t.Fatalf("Move failed: %v", err)
		}
		if !result.Accepted {
			t.Fatalf("Hinted tile %d was rejected", hint.Tile)
		}
		if result.GameState.Complete {
			break
		}
	}

	if !result.GameState.Complete {
		t.Fatal("Expected hints to solve the puzzle")
	}
	if !hasEvent(result.Events, service.EventSolved) {
		t.Error("Expected solved event")
	}
	want := fmt.Sprintf("in %d moves", result.GameState.Puzzle.Moves)
	if !strings.Contains(result.GameState.Message, want) {
		t.Errorf("Expected victory message with %q, got %q", want, result.GameState.Message)
	}

	if _, err := svc.GetHint(ctx, info.ID); err == nil {
		t.Error("Expected no hint for a solved puzzle")
	}
}

func TestWrongGameKind(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	pz, _ := svc.CreateSession(ctx, "puzzle")
	mem, _ := svc.CreateSession(ctx, "memory")

	if _, err := svc.MemoryFlip(ctx, pz.ID, 0); !errors.Is(err, service.ErrWrongGameKind) {
		t.Errorf("Expected ErrWrongGameKind for flip on puzzle, got %v", err)
	}
	if _, err := svc.PuzzleMove(ctx, mem.ID, 0); !errors.Is(err, service.ErrWrongGameKind) {
		t.Errorf("Expected ErrWrongGameKind for move on memory, got %v", err)
	}
	if _, err := svc.GetHint(ctx, mem.ID); !errors.Is(err, service.ErrWrongGameKind) {
		t.Errorf("Expected ErrWrongGameKind for hint on memory, got %v", err)
	}
	if _, err := svc.TogglePlay(ctx, pz.ID); !errors.Is(err, service.ErrWrongGameKind) {
		t.Errorf("Expected ErrWrongGameKind for toggle on puzzle, got %v", err)
	}
	breath, _ := svc.CreateSession(ctx, "breathing")
	if _, err := svc.SkipMeditation(ctx, breath.ID); !errors.Is(err, service.ErrWrongGameKind) {
		t.Errorf("Expected ErrWrongGameKind for skip on breathing, got %v", err)
	}
	if _, err := svc.PuzzleMove(ctx, "zzzz", 0); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

// symbolPositions finds the card ids for each symbol from the raw engine.
func symbolPositions(sess *service.Session) map[string][]int {
	out := make(map[string][]int)
	for _, c := range sess.Memory.Snapshot().Cards {
		out[c.Symbol] = append(out[c.Symbol], c.ID)
	}
	return out
}

func TestMemoryFlip_MatchAndMismatch(t *testing.T) {
	svc, sessions := newTestService()
	ctx := context.Background()

	info, _ := svc.CreateSession(ctx, "tiny")
	sess := sessions.sessions[info.ID]
	pos := symbolPositions(sess)
	a, b := pos["A"], pos["B"]

	// Mismatch: A then B.
	result, err := svc.MemoryFlip(ctx, info.ID, a[0])
	if err != nil {
		t.Fatalf("Flip failed: %v", err)
	}
	if !result.Accepted || !hasEvent(result.Events, service.EventFlip) {
		t.Fatalf("Expected accepted flip, got %+v", result)
	}
	if result.GameState.Memory.Cards[a[0]].Symbol != "A" {
		t.Error("Expected flipped card to show its symbol")
	}

	result, _ = svc.MemoryFlip(ctx, info.ID, b[0])
	if !hasEvent(result.Events, service.EventResolutionScheduled) {
		t.Error("Expected resolution_scheduled event")
	}
	if result.GameState.Message != sess.Config.Messages.Mismatch {
		t.Errorf("Expected mismatch message, got %q", result.GameState.Message)
	}

	// Third flip while resolving is ignored.
	result, _ = svc.MemoryFlip(ctx, info.ID, a[1])
	if result.Accepted {
		t.Error("Expected flip during resolution to be ignored")
	}

	sessions.scheduler.Advance(time.Second)
	state, _ := svc.GetGameState(ctx, info.ID)
	if len(state.Memory.Pending) != 0 {
		t.Errorf("Expected no pending cards after mismatch, got %v", state.Memory.Pending)
	}

	// Two matches complete the tiny deck.
	for _, pair := range [][]int{a, b} {
		svc.MemoryFlip(ctx, info.ID, pair[0])
		result, _ = svc.MemoryFlip(ctx, info.ID, pair[1])
		if result.GameState.Message != sess.Config.Messages.Match {
			t.Errorf("Expected match message, got %q", result.GameState.Message)
		}
		sessions.scheduler.Advance(500 * time.Millisecond)
	}

	state, _ = svc.GetGameState(ctx, info.ID)
	if !state.Complete {
		t.Fatal("Expected deck complete")
	}
	if state.Memory.Moves != 3 {
		t.Errorf("Expected 3 attempts, got %d", state.Memory.Moves)
	}
	if !strings.Contains(state.Message, "3 moves") {
		t.Errorf("Expected victory message with move count, got %q", state.Message)
	}
}

func TestReset_CancelsResolution(t *testing.T) {
	svc, sessions := newTestService()
	ctx := context.Background()

	info, _ := svc.CreateSession(ctx, "tiny")
	pos := symbolPositions(sessions.sessions[info.ID])
	svc.MemoryFlip(ctx, info.ID, pos["A"][0])
	svc.MemoryFlip(ctx, info.ID, pos["A"][1])

	result, err := svc.Reset(ctx, info.ID)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if !hasEvent(result.Events, service.EventReset) {
		t.Error("Expected reset event")
	}

	sessions.scheduler.Advance(time.Second)
	state, _ := svc.GetGameState(ctx, info.ID)
	if state.Memory.Matches != 0 || state.Memory.Moves != 0 {
		t.Errorf("Expected fresh deck after reset, got matches=%d moves=%d", state.Memory.Matches, state.Memory.Moves)
	}
	for _, c := range state.Memory.Cards {
		if c.Flipped || c.Matched {
			t.Fatalf("Card %d survived reset: %+v", c.ID, c)
		}
	}
}

func TestConfigs(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	configs, err := svc.ListConfigs(ctx)
	if err != nil {
		t.Fatalf("ListConfigs failed: %v", err)
	}
	if len(configs) != 5 {
		t.Errorf("Expected 5 configs, got %d", len(configs))
	}

	bad := preset.DefaultPuzzle()
	bad.Puzzle.ShuffleMoves = 0
	if err := svc.SaveConfig(ctx, "bad", bad); !errors.Is(err, service.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}

	good := preset.DefaultPuzzle()
	good.Name = "Quick"
	good.Puzzle.ShuffleMoves = 4
	if err := svc.SaveConfig(ctx, "quick", good); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	loaded, err := svc.LoadConfig(ctx, "quick")
	if err != nil || loaded.Puzzle.ShuffleMoves != 4 {
		t.Errorf("Expected saved config, got %+v (%v)", loaded, err)
	}
}

func TestNewConfigInfo(t *testing.T) {
	info := service.NewConfigInfo("memory", "memory.json", preset.DefaultMemory())
	if info.Cards != 16 {
		t.Errorf("Expected 16 cards, got %d", info.Cards)
	}
	info = service.NewConfigInfo("puzzle", "puzzle.json", preset.DefaultPuzzle())
	if info.ShuffleMoves != puzzle.DefaultShuffleMoves {
		t.Errorf("Expected %d shuffle moves, got %d", puzzle.DefaultShuffleMoves, info.ShuffleMoves)
	}
}

func TestTogglePlay(t *testing.T) {
	tests := []struct {
		name   string
		config string
		events []string
	}{
		{name: "breathing", config: "breathing", events: []string{service.EventStarted, service.EventPaused, service.EventStarted}},
		{name: "meditation", config: "meditation", events: []string{service.EventStarted, service.EventPaused, service.EventStarted}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService()
			ctx := context.Background()

			info, err := svc.CreateSession(ctx, tt.config)
			if err != nil {
				t.Fatal(err)
			}
			if info.GameState.Message != info.GameConfig.Messages.Welcome {
				t.Errorf("Expected welcome message, got %q", info.GameState.Message)
			}

			for i, want := range tt.events {
				result, err := svc.TogglePlay(ctx, info.ID)
				if err != nil {
					t.Fatalf("Toggle %d failed: %v", i, err)
				}
				if !result.Accepted || !hasEvent(result.Events, want) {
					t.Errorf("Toggle %d: expected accepted %s event, got %+v", i, want, result.Events)
				}
			}
		})
	}
}

func TestBreathing_CompletesTarget(t *testing.T) {
	svc, sessions := newTestService()
	ctx := context.Background()

	info, _ := svc.CreateSession(ctx, "breathing")
	result, _ := svc.TogglePlay(ctx, info.ID)
	if result.GameState.Breathing == nil || !result.GameState.Breathing.Running {
		t.Fatalf("Expected running exercise, got %+v", result.GameState)
	}
	if result.GameState.Message != "Breathe In (1)" {
		t.Errorf("Expected phase message, got %q", result.GameState.Message)
	}

	sessions.scheduler.Advance(time.Minute)
	state, _ := svc.GetGameState(ctx, info.ID)
	if !state.Complete || state.Breathing.Cycles != 2 {
		t.Fatalf("Expected two completed cycles, got %+v", state.Breathing)
	}
	if state.Message != "Well done! You completed 2 breathing cycles." {
		t.Errorf("Unexpected victory message %q", state.Message)
	}

	result, _ = svc.TogglePlay(ctx, info.ID)
	if result.Accepted || !hasEvent(result.Events, service.EventIgnored) {
		t.Errorf("Expected toggle after completion to be ignored, got %+v", result)
	}

	reset, _ := svc.Reset(ctx, info.ID)
	if reset.GameState.Complete || reset.GameState.Breathing.Cycles != 0 {
		t.Errorf("Expected fresh exercise after reset, got %+v", reset.GameState.Breathing)
	}
}

func TestSkipMeditation(t *testing.T) {
	svc, sessions := newTestService()
	ctx := context.Background()

	info, _ := svc.CreateSession(ctx, "meditation")
	if result, _ := svc.SkipMeditation(ctx, info.ID); result.Accepted {
		t.Error("Expected skip before start to be ignored")
	}

	svc.TogglePlay(ctx, info.ID)
	sessions.scheduler.Advance(61 * time.Second)
	state, _ := svc.GetGameState(ctx, info.ID)
	if state.Meditation.TimeLeft != 59 || state.Message != "Feel the calm within you..." {
		t.Errorf("Unexpected mid-session state %+v (%q)", state.Meditation, state.Message)
	}

	result, err := svc.SkipMeditation(ctx, info.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Accepted || !hasEvent(result.Events, service.EventSkipped) {
		t.Fatalf("Expected accepted skip, got %+v", result)
	}
	if !result.GameState.Complete || result.Message != "Session complete. You meditated for 1 minutes." {
		t.Errorf("Unexpected skip result %q", result.Message)
	}

	sessions.scheduler.Advance(time.Hour)
	state, _ = svc.GetGameState(ctx, info.ID)
	if state.Meditation.TimeLeft != 59 {
		t.Errorf("Skipped session kept counting: %+v", state.Meditation)
	}

	reset, _ := svc.Reset(ctx, info.ID)
	if reset.GameState.Meditation.Phase != meditation.PhaseIntro {
		t.Errorf("Expected intro after reset, got %s", reset.GameState.Meditation.Phase)
	}
}

func TestNewConfigInfo_TimedKinds(t *testing.T) {
	tests := []struct {
		config      *preset.GameConfig
		wantCycles  int
		wantSeconds int
	}{
		{preset.DefaultBreathing(), 0, 0},
		{&preset.GameConfig{Kind: preset.KindBreathing, Breathing: &preset.BreathingSettings{TargetCycles: 5}}, 5, 0},
		{preset.DefaultMeditation(), 0, 300},
	}
	for _, tt := range tests {
		info := service.NewConfigInfo("x", "x.json", tt.config)
		if info.Cycles != tt.wantCycles || info.Seconds != tt.wantSeconds {
			t.Errorf("%s: expected cycles=%d seconds=%d, got %+v", tt.config.Kind, tt.wantCycles, tt.wantSeconds, info)
		}
	}
}
