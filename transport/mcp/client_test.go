package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/mcp-training/calmgames/api"
	"github.com/wricardo/mcp-training/calmgames/game/breathing"
	"github.com/wricardo/mcp-training/calmgames/game/config"
	"github.com/wricardo/mcp-training/calmgames/game/meditation"
	"github.com/wricardo/mcp-training/calmgames/game/memory"
	"github.com/wricardo/mcp-training/calmgames/game/preset"
	"github.com/wricardo/mcp-training/calmgames/game/puzzle"
	"github.com/wricardo/mcp-training/calmgames/game/schedule"
	"github.com/wricardo/mcp-training/calmgames/game/service"
	"github.com/wricardo/mcp-training/calmgames/game/session"
)

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("Expected result, got nil")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

// newBackend starts a real REST server with a manual clock.
func newBackend(t *testing.T) (*Client, *session.Manager) {
	t.Helper()
	configs, err := config.NewManager(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	sessions := session.NewManager(session.WithScheduler(schedule.NewManual()), session.WithSeed(5))
	t.Cleanup(sessions.Close)

	srv := httptest.NewServer(api.NewServer(service.NewGameService(sessions, configs), nil, nil))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL), sessions
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash trimmed, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "session abcd: session not found"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.apiCall(context.Background(), "GET", "/api/sessions/abcd", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "session not found") {
		t.Errorf("Expected API error message, got %v", err)
	}

	client = NewClient("http://invalid-url-that-does-not-exist:9999")
	if err := client.apiCall(context.Background(), "GET", "/api", nil, nil); err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestIntArg(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]interface{}
		want    int
		wantErr bool
	}{
		{"float", map[string]interface{}{"tile": float64(3)}, 3, false},
		{"int", map[string]interface{}{"tile": 5}, 5, false},
		{"fraction", map[string]interface{}{"tile": 2.5}, 0, true},
		{"missing", map[string]interface{}{}, 0, true},
		{"string", map[string]interface{}{"tile": "3"}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := intArg(tt.args, "tile")
			if (err != nil) != tt.wantErr {
				t.Fatalf("intArg error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("intArg = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClient_PuzzleFlow(t *testing.T) {
	client, sessions := newBackend(t)
	ctx := context.Background()

	result, err := client.handleCreateSession(ctx, callRequest("create_session", map[string]interface{}{"config_id": "puzzle"}))
	if err != nil {
		t.Fatalf("create_session failed: %v", err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "Game: puzzle") || !strings.Contains(text, "Movable tiles") {
		t.Errorf("Unexpected create_session output: %s", text)
	}

	list := sessions.List()
	if len(list) != 1 {
		t.Fatalf("Expected 1 session, got %d", len(list))
	}
	sessionID := list[0].ID

	hint, _ := client.handleHint(ctx, callRequest("puzzle_hint", map[string]interface{}{"session_id": sessionID}))
	if !strings.Contains(resultText(t, hint), "Try moving tile") {
		t.Errorf("Unexpected hint output: %s", resultText(t, hint))
	}

	tile := list[0].Puzzle.Snapshot().Movable[0]
	move, _ := client.handlePuzzleMove(ctx, callRequest("puzzle_move", map[string]interface{}{
		"session_id": sessionID,
		"tile":       float64(tile),
	}))
	text = resultText(t, move)
	if !strings.Contains(text, "Accepted") || !strings.Contains(text, "Moves: 1") {
		t.Errorf("Unexpected move output: %s", text)
	}

	move, _ = client.handlePuzzleMove(ctx, callRequest("puzzle_move", map[string]interface{}{
		"session_id": sessionID,
		"tile":       float64(puzzle.EmptyTileID),
	}))
	if !strings.Contains(resultText(t, move), "Ignored") {
		t.Errorf("Expected ignored move, got: %s", resultText(t, move))
	}

	flip, _ := client.handleMemoryFlip(ctx, callRequest("memory_flip", map[string]interface{}{
		"session_id": sessionID,
		"card":       float64(0),
	}))
	if !flip.IsError {
		t.Error("Expected memory_flip on a puzzle session to fail")
	}

	missing, _ := client.handlePuzzleMove(ctx, callRequest("puzzle_move", map[string]interface{}{"session_id": sessionID}))
	if !missing.IsError {
		t.Error("Expected error when tile is missing")
	}
}

func TestClient_MemoryFlow(t *testing.T) {
	client, sessions := newBackend(t)
	ctx := context.Background()

	client.handleCreateSession(ctx, callRequest("create_session", map[string]interface{}{"config_id": "memory"}))
	sess := sessions.List()[0]

	state, _ := client.handleGameState(ctx, callRequest("game_state", map[string]interface{}{"session_id": sess.ID}))
	text := resultText(t, state)
	if !strings.Contains(text, "Matches: 0/8") || !strings.Contains(text, "??") {
		t.Errorf("Unexpected memory state: %s", text)
	}

	flip, _ := client.handleMemoryFlip(ctx, callRequest("memory_flip", map[string]interface{}{
		"session_id": sess.ID,
		"card":       float64(0),
	}))
	symbol := sess.Memory.Snapshot().Cards[0].Symbol
	if !strings.Contains(resultText(t, flip), symbol) {
		t.Errorf("Expected flipped symbol %s in output: %s", symbol, resultText(t, flip))
	}

	reset, _ := client.handleReset(ctx, callRequest("reset_game", map[string]interface{}{"session_id": sess.ID}))
	if !strings.Contains(resultText(t, reset), "Game reset!") {
		t.Errorf("Unexpected reset output: %s", resultText(t, reset))
	}

	hint, _ := client.handleHint(ctx, callRequest("puzzle_hint", map[string]interface{}{"session_id": sess.ID}))
	if !hint.IsError {
		t.Error("Expected puzzle_hint on a memory session to fail")
	}
}

func TestClient_TimedFlow(t *testing.T) {
	tests := []struct {
		config   string
		state    string
		skipped  bool
		skipText string
	}{
		{config: "breathing", state: "Breathe In: 4", skipped: false},
		{config: "meditation", state: "Phase: intro | Length: 5:00", skipped: true, skipText: "[skipped]"},
	}

	for _, tt := range tests {
		t.Run(tt.config, func(t *testing.T) {
			client, sessions := newBackend(t)
			ctx := context.Background()

			client.handleCreateSession(ctx, callRequest("create_session", map[string]interface{}{"config_id": tt.config}))
			sess := sessions.List()[0]
			args := map[string]interface{}{"session_id": sess.ID}

			state, _ := client.handleGameState(ctx, callRequest("game_state", args))
			if text := resultText(t, state); !strings.Contains(text, tt.state) {
				t.Errorf("Expected %q in state: %s", tt.state, text)
			}

			toggle, _ := client.handleTogglePlay(ctx, callRequest("toggle_play", args))
			if text := resultText(t, toggle); !strings.Contains(text, "[started]") || !strings.Contains(text, "running") {
				t.Errorf("Unexpected toggle output: %s", text)
			}

			skip, _ := client.handleSkipMeditation(ctx, callRequest("skip_meditation", args))
			if tt.skipped {
				if text := resultText(t, skip); !strings.Contains(text, tt.skipText) {
					t.Errorf("Expected %q in skip output: %s", tt.skipText, text)
				}
			} else if !skip.IsError {
				t.Error("Expected skip_meditation on a breathing session to fail")
			}
		})
	}
}

func TestClient_ListTools(t *testing.T) {
	client, _ := newBackend(t)
	ctx := context.Background()

	client.handleCreateSession(ctx, callRequest("create_session", map[string]interface{}{}))
	list, _ := client.handleListSessions(ctx, callRequest("list_sessions", nil))
	if !strings.Contains(resultText(t, list), "Active Sessions (1)") {
		t.Errorf("Unexpected list output: %s", resultText(t, list))
	}

	configs, _ := client.handleListConfigs(ctx, callRequest("list_configs", nil))
	text := resultText(t, configs)
	if !strings.Contains(text, "puzzle: Picture Puzzle") || !strings.Contains(text, "16 cards") {
		t.Errorf("Unexpected list_configs output: %s", text)
	}

	missing, _ := client.handleGetSession(ctx, callRequest("get_session", map[string]interface{}{}))
	if !missing.IsError {
		t.Error("Expected error when session_id is missing")
	}
}

func TestClient_handleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")

	result, err := client.handleGameInstructions(context.Background(), callRequest("game_instructions", nil))
	if err != nil {
		t.Fatalf("handleGameInstructions failed: %v", err)
	}

	text := resultText(t, result)
	for _, content := range []string{"SLIDING PUZZLE", "MEMORY MATCH", "BREATHING EXERCISE", "GUIDED MEDITATION",
		"puzzle_move", "memory_flip", "toggle_play", "skip_meditation", "Rows do not wrap"} {
		if !strings.Contains(text, content) {
			t.Errorf("Expected '%s' in instructions", content)
		}
	}
}

func TestFormatGameState(t *testing.T) {
	board := &puzzle.Board{
		Layout:  puzzle.SolvedLayout(),
		Moves:   12,
		Solved:  true,
		Movable: []int{},
	}
	text := formatGameState(&service.GameState{Kind: preset.KindPuzzle, Puzzle: board, Complete: true, Message: "Done"})
	for _, want := range []string{"Moves: 12", "[  ]", "COMPLETE", "Message: Done"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in output: %s", want, text)
		}
	}

	deck := &memory.Deck{
		Cards: []memory.Card{
			{ID: 0, Symbol: "A", Matched: true, Flipped: true},
			{ID: 1, Symbol: "A", Matched: true, Flipped: true},
			{ID: 2, Symbol: "B", Flipped: true},
			{ID: 3},
		},
		Moves: 2, Matches: 1, Pairs: 2,
	}
	text = formatGameState(&service.GameState{Kind: preset.KindMemory, Memory: deck})
	for _, want := range []string{"Matches: 1/2", " 0:A✓", " 2:B", " 3:??"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in output: %s", want, text)
		}
	}

	ex := &breathing.State{Phase: breathing.PhaseHold, Label: "Hold", Countdown: 3, Cycles: 2, TargetCycles: 5, Running: true}
	text = formatGameState(&service.GameState{Kind: preset.KindBreathing, Breathing: ex})
	for _, want := range []string{"Cycles completed: 2/5 (running)", "Hold: 3"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in output: %s", want, text)
		}
	}

	med := &meditation.State{Phase: meditation.PhaseMeditation, DurationSeconds: 600, TimeLeft: 150, Progress: 75}
	text = formatGameState(&service.GameState{Kind: preset.KindMeditation, Meditation: med, Message: "Release all tension..."})
	for _, want := range []string{"Length: 10:00", "Time left: 2:30 (75%, paused)", "Message: Release all tension..."} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in output: %s", want, text)
		}
	}

	if formatGameState(nil) != "No game state available" {
		t.Error("Expected placeholder for nil state")
	}
}
