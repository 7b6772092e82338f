// Command autoplay plays a session to completion through the REST API. Puzzle
// sessions follow the server's hints; memory sessions are played by a bot
// that remembers every card it has seen. Breathing and meditation sessions
// are started and followed until the timer ends; an open-ended breathing
// exercise is paused after a set number of cycles. It is handy for
// smoke-testing a running server and for watching a game over the websocket.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/calmgames/game/memory"
	"github.com/wricardo/mcp-training/calmgames/game/preset"
	"github.com/wricardo/mcp-training/calmgames/game/service"
	"github.com/wricardo/mcp-training/calmgames/logging"
)

// ErrGaveUp is returned when the action budget runs out before completion.
var ErrGaveUp = errors.New("gave up before completing the game")

// Player drives one session.
type Player struct {
	client     *Client
	strategy   *MemoryStrategy
	logger     *zap.Logger
	maxActions int
	// cycles is how many cycles an open-ended breathing exercise runs.
	cycles int
	delay  time.Duration
	// wait is called while a memory pair resolves or a timer runs.
	wait func(ctx context.Context) error
}

func NewPlayer(client *Client, logger *zap.Logger, maxActions int) *Player {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Player{
		client:     client,
		strategy:   NewMemoryStrategy(),
		logger:     logger,
		maxActions: maxActions,
		cycles:     3,
		wait:       pollWait(100 * time.Millisecond),
	}
}

func pollWait(interval time.Duration) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
			return nil
		}
	}
}

// Play finishes the game in state and returns the final state.
func (p *Player) Play(ctx context.Context, state *service.GameState) (*service.GameState, error) {
	switch state.Kind {
	case preset.KindPuzzle:
		return p.playPuzzle(ctx, state)
	case preset.KindMemory:
		return p.playMemory(ctx, state)
	case preset.KindBreathing, preset.KindMeditation:
		return p.playTimed(ctx, state)
	default:
		return nil, fmt.Errorf("unknown game kind %q", state.Kind)
	}
}

func (p *Player) playPuzzle(ctx context.Context, state *service.GameState) (*service.GameState, error) {
	for actions := 0; !state.Complete; actions++ {
		if actions >= p.maxActions {
			return state, ErrGaveUp
		}

		hint, err := p.client.Hint(ctx)
		if err != nil {
			return state, err
		}
		result, err := p.client.Move(ctx, hint.Tile)
		if err != nil {
			return state, err
		}
		if !result.Accepted {
			return result.GameState, fmt.Errorf("hinted tile %d was not accepted: %s", hint.Tile, result.Message)
		}
		state = result.GameState
		p.logger.Debug("moved", zap.Int("tile", hint.Tile), zap.Int("remaining", hint.Remaining-1))
		p.pause(ctx)
	}
	return state, nil
}

func (p *Player) playMemory(ctx context.Context, state *service.GameState) (*service.GameState, error) {
	p.strategy.Reset()

	for actions := 0; !state.Complete; actions++ {
		if actions >= p.maxActions {
			return state, ErrGaveUp
		}

		deck, err := p.settle(ctx, state.Memory)
		if err != nil {
			return state, err
		}
		p.strategy.Observe(deck)

		first := p.strategy.First(deck)
		if first < 0 {
			return state, fmt.Errorf("no card left to flip")
		}
		result, err := p.flip(ctx, first)
		if err != nil {
			return state, err
		}

		second := p.strategy.Second(result.GameState.Memory, first)
		if second < 0 {
			return result.GameState, fmt.Errorf("no partner for card %d", first)
		}
		if result, err = p.flip(ctx, second); err != nil {
			return state, err
		}
		state = result.GameState

		p.logger.Debug("flipped pair",
			zap.Int("first", first),
			zap.Int("second", second),
			zap.Int("known", p.strategy.Known()))
		p.pause(ctx)

		// Completion is only reported once the last pair resolves.
		if deck, err = p.settle(ctx, state.Memory); err != nil {
			return state, err
		}
		state.Memory = deck
		if deck.Complete {
			if state, err = p.client.State(ctx); err != nil {
				return nil, err
			}
		}
	}
	return state, nil
}

func (p *Player) playTimed(ctx context.Context, state *service.GameState) (*service.GameState, error) {
	if !state.Complete && !running(state) {
		result, err := p.client.Toggle(ctx)
		if err != nil {
			return state, err
		}
		if !result.Accepted {
			return result.GameState, fmt.Errorf("start was not accepted: %s", result.Message)
		}
		state = result.GameState
	}

	for !state.Complete {
		if ex := state.Breathing; ex != nil && ex.TargetCycles == 0 && ex.Cycles >= p.cycles {
			result, err := p.client.Toggle(ctx)
			if err != nil {
				return state, err
			}
			p.logger.Info("paused open-ended exercise", zap.Int("cycles", ex.Cycles))
			return result.GameState, nil
		}
		if !running(state) {
			return state, fmt.Errorf("timer stopped before completion: %s", state.Message)
		}

		if err := p.wait(ctx); err != nil {
			return state, err
		}
		next, err := p.client.State(ctx)
		if err != nil {
			return state, err
		}
		if next.Message != state.Message {
			p.logger.Debug("timer", zap.String("message", next.Message))
		}
		state = next
	}
	return state, nil
}

func running(state *service.GameState) bool {
	switch {
	case state.Breathing != nil:
		return state.Breathing.Running
	case state.Meditation != nil:
		return state.Meditation.Running
	}
	return false
}

func (p *Player) flip(ctx context.Context, card int) (*service.ActionResult, error) {
	result, err := p.client.Flip(ctx, card)
	if err != nil {
		return nil, err
	}
	if !result.Accepted {
		return nil, fmt.Errorf("flip of card %d was not accepted: %s", card, result.Message)
	}
	p.strategy.Observe(result.GameState.Memory)
	return result, nil
}

// settle waits until no pair is resolving and returns the settled deck.
func (p *Player) settle(ctx context.Context, deck *memory.Deck) (*memory.Deck, error) {
	for deck.Resolving {
		if err := p.wait(ctx); err != nil {
			return nil, err
		}
		state, err := p.client.State(ctx)
		if err != nil {
			return nil, err
		}
		deck = state.Memory
	}
	return deck, nil
}

func (p *Player) pause(ctx context.Context) {
	if p.delay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(p.delay):
	}
}

func main() {
	serverURL := flag.String("url", "http://localhost:8080", "Game server URL")
	configID := flag.String("config", "", "Preset to play (puzzle, memory, classic, ...)")
	continueSession := flag.String("continue", "", "Resume playing an existing session by ID")
	maxActions := flag.Int("max-actions", 500, "Maximum moves or flip pairs before giving up")
	cycles := flag.Int("cycles", 3, "Cycles to run an open-ended breathing exercise for")
	delayMs := flag.Int("delay", 0, "Delay between actions in milliseconds (0 = no delay)")
	reset := flag.Bool("reset", false, "Reset the session before playing")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Parse()

	logger, err := logging.New(*logLevel, "console")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := NewClient(*serverURL)
	var session *service.SessionInfo
	if *continueSession != "" {
		session, err = client.Resume(ctx, *continueSession)
	} else {
		session, err = client.CreateSession(ctx, *configID)
	}
	if err != nil {
		logger.Fatal("failed to start", zap.Error(err))
	}
	logger.Info("playing",
		zap.String("session_id", session.ID),
		zap.String("config", session.ConfigName),
		zap.String("kind", string(session.Kind)))

	state := session.GameState
	if *reset {
		result, err := client.Reset(ctx)
		if err != nil {
			logger.Fatal("failed to reset", zap.Error(err))
		}
		state = result.GameState
	}

	player := NewPlayer(client, logger, *maxActions)
	player.delay = time.Duration(*delayMs) * time.Millisecond
	player.cycles = *cycles
	if state.Kind == preset.KindBreathing || state.Kind == preset.KindMeditation {
		player.wait = pollWait(time.Second)
	}

	start := time.Now()
	final, err := player.Play(ctx, state)
	if err != nil {
		logger.Error("game not completed", zap.String("session_id", client.SessionID()), zap.Error(err))
		os.Exit(1)
	}
	logger.Info("game completed",
		zap.String("session_id", client.SessionID()),
		zap.String("message", final.Message),
		zap.Duration("elapsed", time.Since(start)))
}
