package memory

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/wricardo/mcp-training/calmgames/game/schedule"
)

var (
	ErrNoSymbols           = errors.New("at least one symbol is required")
	ErrTooManySymbols      = fmt.Errorf("at most %d symbols are allowed", MaxSymbols)
	ErrInvalidSymbol       = errors.New("symbols must be distinct and non-empty")
	ErrInvalidMultiplicity = errors.New("pair multiplicity must be an even number of at least 2")
	ErrInvalidDelays       = errors.New("match delay must be non-negative and shorter than mismatch delay")
)

// Engine owns one deck and its pending resolution.
type Engine struct {
	mu sync.Mutex

	symbols      []string
	multiplicity int
	delays       Delays
	rng          *rand.Rand
	scheduler    schedule.Scheduler
	onResolve    func(Resolution)

	cards   []Card
	pending []int
	moves   int
	matches int

	// generation changes on every reset so stale resolutions can detect it.
	generation uint64
	task       schedule.Task
	closed     bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the random source used for shuffling.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		if r != nil {
			e.rng = r
		}
	}
}

// WithSeed seeds a private random source.
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithScheduler sets the scheduler used for delayed resolutions.
func WithScheduler(s schedule.Scheduler) Option {
	return func(e *Engine) {
		if s != nil {
			e.scheduler = s
		}
	}
}

// WithDelays overrides the resolution delays.
func WithDelays(d Delays) Option {
	return func(e *Engine) {
		e.delays = d
	}
}

// WithPairMultiplicity sets how many cards carry each symbol.
func WithPairMultiplicity(n int) Option {
	return func(e *Engine) {
		e.multiplicity = n
	}
}

// WithOnResolve registers a callback invoked after each resolution, outside
// the engine lock. It runs on the scheduler's goroutine.
func WithOnResolve(fn func(Resolution)) Option {
	return func(e *Engine) {
		e.onResolve = fn
	}
}

// NewEngine deals a shuffled deck from symbols.
func NewEngine(symbols []string, opts ...Option) (*Engine, error) {
	if err := ValidateSymbols(symbols); err != nil {
		return nil, err
	}

	e := &Engine{
		symbols:      append([]string(nil), symbols...),
		multiplicity: DefaultPairMultiplicity,
		delays:       DefaultDelays(),
		scheduler:    schedule.System(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.multiplicity < 2 || e.multiplicity%2 != 0 {
		return nil, ErrInvalidMultiplicity
	}
	if e.delays.Match < 0 || e.delays.Match >= e.delays.Mismatch {
		return nil, ErrInvalidDelays
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	e.dealLocked()
	return e, nil
}

// ValidateSymbols checks that symbols can build a deck.
func ValidateSymbols(symbols []string) error {
	if len(symbols) == 0 {
		return ErrNoSymbols
	}
	if len(symbols) > MaxSymbols {
		return ErrTooManySymbols
	}
	seen := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		if s == "" || seen[s] {
			return fmt.Errorf("%w: %q", ErrInvalidSymbol, s)
		}
		seen[s] = true
	}
	return nil
}

// Flip turns cardID face up. It reports false and changes nothing when the
// card is unknown, already face up, already matched, or when a pair is
// waiting to resolve.
func (e *Engine) Flip(cardID int) (*Deck, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.canFlipLocked(cardID) {
		return e.snapshotLocked(), false
	}

	if len(e.pending) == 0 {
		e.moves++
	}
	e.cards[cardID].Flipped = true
	e.pending = append(e.pending, cardID)

	if len(e.pending) == 2 {
		e.scheduleResolutionLocked()
	}
	return e.snapshotLocked(), true
}

// CanFlip reports whether Flip(cardID) would be accepted.
func (e *Engine) CanFlip(cardID int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canFlipLocked(cardID)
}

// Reset cancels any pending resolution and deals a new deck.
func (e *Engine) Reset() *Deck {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return e.snapshotLocked()
	}
	e.cancelLocked()
	e.dealLocked()
	return e.snapshotLocked()
}

// Close cancels any pending resolution. A closed engine ignores all further
// flips and resets.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelLocked()
	e.closed = true
}

// IsComplete reports whether every card is matched.
func (e *Engine) IsComplete() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.completeLocked()
}

// Snapshot returns the current deck.
func (e *Engine) Snapshot() *Deck {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Delays returns the configured resolution delays.
func (e *Engine) Delays() Delays {
	return e.delays
}

func (e *Engine) canFlipLocked(cardID int) bool {
	if e.closed || cardID < 0 || cardID >= len(e.cards) {
		return false
	}
	if len(e.pending) >= 2 {
		return false
	}
	card := e.cards[cardID]
	return !card.Flipped && !card.Matched
}

func (e *Engine) scheduleResolutionLocked() {
	first, second := e.cards[e.pending[0]], e.cards[e.pending[1]]
	delay := e.delays.Mismatch
	if first.Symbol == second.Symbol {
		delay = e.delays.Match
	}

	gen := e.generation
	e.task = e.scheduler.AfterFunc(delay, func() {
		e.resolve(gen)
	})
}

func (e *Engine) resolve(gen uint64) {
	e.mu.Lock()
	if e.closed || gen != e.generation || len(e.pending) != 2 {
		e.mu.Unlock()
		return
	}

	first, second := e.pending[0], e.pending[1]
	matched := e.cards[first].Symbol == e.cards[second].Symbol
	if matched {
		e.cards[first].Matched = true
		e.cards[second].Matched = true
		e.matches++
	} else {
		e.cards[first].Flipped = false
		e.cards[second].Flipped = false
	}
	e.pending = nil
	e.task = nil

	res := Resolution{
		Cards:   [2]int{first, second},
		Matched: matched,
		Deck:    e.snapshotLocked(),
	}
	callback := e.onResolve
	e.mu.Unlock()

	if callback != nil {
		callback(res)
	}
}

func (e *Engine) cancelLocked() {
	e.generation++
	if e.task != nil {
		e.task.Stop()
		e.task = nil
	}
	e.pending = nil
}

func (e *Engine) dealLocked() {
	cards := make([]Card, 0, len(e.symbols)*e.multiplicity)
	for _, s := range e.symbols {
		for i := 0; i < e.multiplicity; i++ {
			cards = append(cards, Card{Symbol: s})
		}
	}
	e.rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	for i := range cards {
		cards[i].ID = i
	}

	e.cards = cards
	e.pending = nil
	e.moves = 0
	e.matches = 0
}

func (e *Engine) completeLocked() bool {
	for _, c := range e.cards {
		if !c.Matched {
			return false
		}
	}
	return len(e.cards) > 0
}

func (e *Engine) snapshotLocked() *Deck {
	cards := make([]Card, len(e.cards))
	copy(cards, e.cards)

	return &Deck{
		Cards:     cards,
		Moves:     e.moves,
		Matches:   e.matches,
		Pairs:     len(e.cards) / 2,
		Pending:   append([]int{}, e.pending...),
		Resolving: len(e.pending) == 2,
		Complete:  e.completeLocked(),
	}
}
