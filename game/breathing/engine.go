package breathing

import (
	"errors"
	"sync"

	"github.com/wricardo/mcp-training/calmgames/game/schedule"
)

var ErrInvalidTarget = errors.New("target cycles must not be negative")

// Engine owns one breathing exercise and its pending tick.
type Engine struct {
	mu sync.Mutex

	pattern   Pattern
	target    int
	scheduler schedule.Scheduler
	onChange  func(Change)

	phase     Phase
	countdown int
	cycles    int
	running   bool

	generation uint64
	task       schedule.Task
	closed     bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithScheduler sets the scheduler that drives the countdown.
func WithScheduler(s schedule.Scheduler) Option {
	return func(e *Engine) {
		if s != nil {
			e.scheduler = s
		}
	}
}

// WithPattern overrides the phase lengths.
func WithPattern(p Pattern) Option {
	return func(e *Engine) {
		e.pattern = p
	}
}

// WithTargetCycles ends the exercise after n cycles. Zero means no end.
func WithTargetCycles(n int) Option {
	return func(e *Engine) {
		e.target = n
	}
}

// WithOnChange registers a callback invoked after every tick, outside the
// engine lock. It runs on the scheduler's goroutine.
func WithOnChange(fn func(Change)) Option {
	return func(e *Engine) {
		e.onChange = fn
	}
}

// NewEngine creates a stopped exercise at the start of a cycle.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		pattern:   DefaultPattern(),
		scheduler: schedule.System(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.pattern.Validate(); err != nil {
		return nil, err
	}
	if e.target < 0 {
		return nil, ErrInvalidTarget
	}
	e.restartLocked()
	return e, nil
}

// Start runs the countdown. It reports false when the exercise is already
// running, complete or closed.
func (e *Engine) Start() (*State, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ok := e.startLocked()
	return e.snapshotLocked(), ok
}

// Pause stops the countdown where it is. It reports false when the exercise
// is not running.
func (e *Engine) Pause() (*State, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ok := e.pauseLocked()
	return e.snapshotLocked(), ok
}

// Toggle pauses a running exercise and starts a stopped one.
func (e *Engine) Toggle() (*State, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var ok bool
	if e.running {
		ok = e.pauseLocked()
	} else {
		ok = e.startLocked()
	}
	return e.snapshotLocked(), ok
}

func (e *Engine) startLocked() bool {
	if e.closed || e.running || e.completeLocked() {
		return false
	}
	e.running = true
	e.scheduleTickLocked()
	return true
}

func (e *Engine) pauseLocked() bool {
	if e.closed || !e.running {
		return false
	}
	e.stopLocked()
	return true
}

// Reset stops the exercise and returns to the first inhale with no cycles.
func (e *Engine) Reset() *State {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return e.snapshotLocked()
	}
	e.stopLocked()
	e.restartLocked()
	return e.snapshotLocked()
}

// Close cancels the pending tick. A closed engine ignores all controls.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
	e.closed = true
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() *State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Pattern returns the configured phase lengths.
func (e *Engine) Pattern() Pattern {
	return e.pattern
}

func (e *Engine) scheduleTickLocked() {
	gen := e.generation
	e.task = e.scheduler.AfterFunc(Tick, func() {
		e.tick(gen)
	})
}

func (e *Engine) tick(gen uint64) {
	e.mu.Lock()
	if e.closed || !e.running || gen != e.generation {
		e.mu.Unlock()
		return
	}

	change := Change{}
	if e.countdown > 1 {
		e.countdown--
	} else {
		change.PhaseChanged = true
		switch e.phase {
		case PhaseInhale:
			e.phase = PhaseHold
		case PhaseHold:
			e.phase = PhaseExhale
		default:
			e.phase = PhaseInhale
			e.cycles++
			change.CycleCompleted = true
		}
		e.countdown = e.pattern.Seconds(e.phase)
	}

	e.task = nil
	if e.completeLocked() {
		e.running = false
		e.generation++
	} else {
		e.scheduleTickLocked()
	}
	change.State = e.snapshotLocked()
	callback := e.onChange
	e.mu.Unlock()

	if callback != nil {
		callback(change)
	}
}

func (e *Engine) stopLocked() {
	e.generation++
	if e.task != nil {
		e.task.Stop()
		e.task = nil
	}
	e.running = false
}

func (e *Engine) restartLocked() {
	e.phase = PhaseInhale
	e.countdown = e.pattern.Seconds(PhaseInhale)
	e.cycles = 0
}

func (e *Engine) completeLocked() bool {
	return e.target > 0 && e.cycles >= e.target
}

func (e *Engine) snapshotLocked() *State {
	return &State{
		Phase:        e.phase,
		Label:        e.phase.Label(),
		Countdown:    e.countdown,
		Cycles:       e.cycles,
		TargetCycles: e.target,
		Running:      e.running,
		Complete:     e.completeLocked(),
	}
}
