package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/calmgames/game/breathing"
	"github.com/wricardo/mcp-training/calmgames/game/meditation"
	"github.com/wricardo/mcp-training/calmgames/game/memory"
	"github.com/wricardo/mcp-training/calmgames/game/preset"
	"github.com/wricardo/mcp-training/calmgames/game/puzzle"
	"github.com/wricardo/mcp-training/calmgames/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Calm Games",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Calm Games - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAMES:
- puzzle: a 3x3 sliding picture puzzle. Click tiles next to the empty slot to slide them. Solve it by putting every tile back on its home position.
- memory: a deck of face-down card pairs. Flip two cards per attempt. Matching pairs stay face up, others flip back after a short delay.
- breathing: a paced breathing exercise. Breathe in, hold and breathe out while the server counts each phase down.
- meditation: a guided meditation timer with calming prompts.

AVAILABLE TOOLS:
- create_session: Create a new game session (config_id selects the game)
- list_sessions: List all active sessions
- get_session: Get session details
- game_state: Get current game state
- puzzle_move: Slide a puzzle tile into the empty slot
- memory_flip: Flip a memory card face up
- toggle_play: Start or pause a breathing or meditation session
- skip_meditation: End a meditation early
- reset_game: Reshuffle the puzzle, redeal the deck or restart a timer
- puzzle_hint: Get the next tile on a shortest solution
- list_configs: List available presets
- game_instructions: Rules and tips`),
	)

	c.registerTools()
}

func sessionSchema(extra map[string]interface{}, required ...string) mcp.ToolInputSchema {
	props := map[string]interface{}{
		"session_id": map[string]interface{}{
			"type":        "string",
			"description": "Session ID",
		},
	}
	for k, v := range extra {
		props[k] = v
	}
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: props,
		Required:   append([]string{"session_id"}, required...),
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session. Use config_id 'puzzle', 'memory' or any id from list_configs.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Preset to use (optional, defaults to the server default)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: sessionSchema(nil),
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current game state",
		InputSchema: sessionSchema(nil),
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "puzzle_move",
		Description: "Slide a tile into the empty slot. Only tiles next to the empty slot move; others are ignored.",
		InputSchema: sessionSchema(map[string]interface{}{
			"tile": map[string]interface{}{
				"type":        "integer",
				"description": "Tile id (0-7) to move",
			},
		}, "tile"),
	}, c.handlePuzzleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "memory_flip",
		Description: "Flip a face-down card. After two flips the pair resolves on a timer; check game_state to see the outcome.",
		InputSchema: sessionSchema(map[string]interface{}{
			"card": map[string]interface{}{
				"type":        "integer",
				"description": "Card id to flip",
			},
		}, "card"),
	}, c.handleMemoryFlip)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "toggle_play",
		Description: "Start or pause a breathing or meditation session. The timer runs on the server; check game_state to follow it.",
		InputSchema: sessionSchema(nil),
	}, c.handleTogglePlay)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "skip_meditation",
		Description: "End a started meditation session early",
		InputSchema: sessionSchema(nil),
	}, c.handleSkipMeditation)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Start the session's game over: a new shuffle, a new deal or a stopped timer",
		InputSchema: sessionSchema(nil),
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "puzzle_hint",
		Description: "Get the next tile to move on a shortest solution of the puzzle",
		InputSchema: sessionSchema(nil),
	}, c.handleHint)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get rules and tips for every game",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// intArg reads a whole number argument. JSON numbers arrive as float64.
func intArg(args map[string]interface{}, name string) (int, error) {
	switch v := args[name].(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%s must be a whole number", name)
		}
		return int(v), nil
	case int:
		return v, nil
	case json.Number:
		n, err := v.Int64()
		return int(n), err
	case nil:
		return 0, fmt.Errorf("%s is required", name)
	default:
		return 0, fmt.Errorf("%s must be a number", name)
	}
}

func sessionArg(args map[string]interface{}) (string, error) {
	id, _ := args["session_id"].(string)
	if id == "" {
		return "", fmt.Errorf("session_id is required")
	}
	return id, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\nGame: %s\n\n%s",
		session.ID, session.ConfigName, session.Kind, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		status := "in progress"
		if s.GameState != nil && s.GameState.Complete {
			status = "complete"
		}
		fmt.Fprintf(&result, "- %s (%s, Config: %s, %s, Created: %s)\n",
			s.ID, s.Kind, s.ConfigName, status, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := sessionArg(arguments(request))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", "/api/sessions/"+sessionID, nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := sessionArg(arguments(request))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state service.GameState
	if err := c.apiCall(ctx, "GET", "/api/sessions/"+sessionID+"/state", nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handlePuzzleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, err := sessionArg(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tile, err := intArg(args, "tile")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.ActionResult
	err = c.apiCall(ctx, "POST", "/api/sessions/"+sessionID+"/puzzle/move", map[string]int{"tile": tile}, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleMemoryFlip(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, err := sessionArg(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	card, err := intArg(args, "card")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.ActionResult
	err = c.apiCall(ctx, "POST", "/api/sessions/"+sessionID+"/memory/flip", map[string]int{"card": card}, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleTogglePlay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.sessionAction(ctx, request, "/toggle")
}

func (c *Client) handleSkipMeditation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.sessionAction(ctx, request, "/meditation/skip")
}

// sessionAction posts an argument-free action for a session.
func (c *Client) sessionAction(ctx context.Context, request mcp.CallToolRequest, suffix string) (*mcp.CallToolResult, error) {
	sessionID, err := sessionArg(arguments(request))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", "/api/sessions/"+sessionID+suffix, nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := sessionArg(arguments(request))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", "/api/sessions/"+sessionID+"/reset", nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Game reset!\n\n" + formatGameState(result.GameState)), nil
}

func (c *Client) handleHint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := sessionArg(arguments(request))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var hint service.HintResult
	if err := c.apiCall(ctx, "GET", "/api/sessions/"+sessionID+"/hint", nil, &hint); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\nShortest solution from here: %d moves",
		hint.Message, hint.Remaining)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	result.WriteString("Available Configurations:\n\n")
	for _, cfg := range configs {
		detail := ""
		switch cfg.Kind {
		case preset.KindPuzzle:
			detail = fmt.Sprintf("%d shuffle moves", cfg.ShuffleMoves)
		case preset.KindMemory:
			detail = fmt.Sprintf("%d cards", cfg.Cards)
		case preset.KindBreathing:
			detail = "open-ended"
			if cfg.Cycles > 0 {
				detail = fmt.Sprintf("%d cycles", cfg.Cycles)
			}
		case preset.KindMeditation:
			detail = meditation.FormatClock(cfg.Seconds) + " minutes"
		}
		fmt.Fprintf(&result, "- %s: %s [%s, %s]\n  %s\n", cfg.ConfigID, cfg.Name, cfg.Kind, detail, cfg.Description)
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Calm Games - Complete Instructions

SLIDING PUZZLE (kind: puzzle)
The board is a 3x3 grid with eight picture tiles and one empty slot.
Positions are numbered 0-8, left to right, top to bottom:

  0 1 2
  3 4 5
  6 7 8

Tile N belongs on position N. The empty slot belongs on position 8.
- puzzle_move {session_id, tile}: slides the tile into the empty slot.
  Only tiles directly left, right, above or below the empty slot can move.
  Rows do not wrap.
- Illegal moves are ignored and do not count.
- The board starts shuffled with legal moves, so it is always solvable.
- Use puzzle_hint when stuck; it returns the first move of a shortest solution.

MEMORY MATCH (kind: memory)
Cards start face down. Each symbol appears on a pair of cards.
- memory_flip {session_id, card}: turns one card face up.
- The first flip of each attempt counts as one move.
- After the second flip the pair resolves on a timer:
  matching cards stay face up, others turn back face down.
- Flips are ignored while a pair is resolving, and for cards already face up.
- Call game_state after the delay to see the outcome. Remember the symbols you saw!

BREATHING EXERCISE (kind: breathing)
Breathe in for 4 seconds, hold for 4 seconds, then breathe out for 6.
- toggle_play {session_id}: starts the exercise, or pauses it where it is.
- The server counts each phase down once per second. Finishing the breath
  out completes a cycle.
- Presets with a target cycle count end after that many cycles.

GUIDED MEDITATION (kind: meditation)
Each preset is one session of fixed length.
- toggle_play {session_id}: starts the session from the intro, or pauses
  and resumes it.
- skip_meditation {session_id}: ends the session early.
- A calming prompt is shown for each part of the session.

ALL GAMES
- reset_game starts over: a new shuffle, a new deal or a stopped timer.
- game_state shows the board, deck or timer and a message.
- The game ends when the puzzle is solved, every pair is matched, the
  breathing target is reached or the meditation time runs out.

Take your time and enjoy!`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nGame: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName, session.Kind,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *service.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var result strings.Builder
	switch {
	case state.Puzzle != nil:
		formatBoard(&result, state.Puzzle)
	case state.Memory != nil:
		formatDeck(&result, state.Memory)
	case state.Breathing != nil:
		formatBreathing(&result, state.Breathing)
	case state.Meditation != nil:
		formatMeditation(&result, state.Meditation)
	}

	if state.Complete {
		result.WriteString("\n🎉 COMPLETE!")
	}
	if state.Message != "" {
		fmt.Fprintf(&result, "\nMessage: %s", state.Message)
	}
	return result.String()
}

func formatBoard(out *strings.Builder, board *puzzle.Board) {
	fmt.Fprintf(out, "Moves: %d\n\n", board.Moves)
	for pos, id := range board.Layout {
		if id == puzzle.EmptyTileID {
			out.WriteString("[  ]")
		} else {
			fmt.Fprintf(out, "[%d%s]", id, puzzle.TileFaces[id])
		}
		if pos%puzzle.GridSize == puzzle.GridSize-1 {
			out.WriteString("\n")
		}
	}
	if len(board.Movable) > 0 {
		fmt.Fprintf(out, "\nMovable tiles: %v\n", board.Movable)
	}
}

// deckColumns is the number of cards per row when rendering a deck.
const deckColumns = 4

func formatDeck(out *strings.Builder, deck *memory.Deck) {
	fmt.Fprintf(out, "Moves: %d | Matches: %d/%d\n\n", deck.Moves, deck.Matches, deck.Pairs)
	for i, card := range deck.Cards {
		switch {
		case card.Matched:
			fmt.Fprintf(out, "%2d:%s✓ ", card.ID, card.Symbol)
		case card.Flipped:
			fmt.Fprintf(out, "%2d:%s  ", card.ID, card.Symbol)
		default:
			fmt.Fprintf(out, "%2d:??  ", card.ID)
		}
		if i%deckColumns == deckColumns-1 {
			out.WriteString("\n")
		}
	}
	if len(deck.Cards)%deckColumns != 0 {
		out.WriteString("\n")
	}
	if deck.Resolving {
		fmt.Fprintf(out, "\nResolving cards %v...\n", deck.Pending)
	}
}

func formatBreathing(out *strings.Builder, ex *breathing.State) {
	cycles := fmt.Sprintf("%d", ex.Cycles)
	if ex.TargetCycles > 0 {
		cycles = fmt.Sprintf("%d/%d", ex.Cycles, ex.TargetCycles)
	}
	status := "paused"
	if ex.Running {
		status = "running"
	}
	fmt.Fprintf(out, "Cycles completed: %s (%s)\n", cycles, status)
	fmt.Fprintf(out, "%s: %d\n", ex.Label, ex.Countdown)
}

func formatMeditation(out *strings.Builder, med *meditation.State) {
	fmt.Fprintf(out, "Phase: %s | Length: %s\n", med.Phase, meditation.FormatClock(med.DurationSeconds))
	if med.Phase == meditation.PhaseIntro {
		return
	}
	status := "paused"
	if med.Running {
		status = "running"
	}
	fmt.Fprintf(out, "Time left: %s (%.0f%%, %s)\n", med.Clock(), med.Progress, status)
	if med.Skipped {
		out.WriteString("Skipped\n")
	}
}

func formatActionResult(result *service.ActionResult) string {
	var out strings.Builder
	if result.Accepted {
		out.WriteString("✓ Accepted\n")
	} else {
		out.WriteString("✗ Ignored\n")
	}
	for _, e := range result.Events {
		fmt.Fprintf(&out, "- [%s] %s\n", e.Type, e.Message)
	}
	out.WriteString("\n")
	out.WriteString(formatGameState(result.GameState))
	if !result.Accepted && result.Message != "" {
		fmt.Fprintf(&out, "\n%s", result.Message)
	}
	return out.String()
}
