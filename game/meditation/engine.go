package meditation

import (
	"fmt"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/calmgames/game/schedule"
)

// Engine owns one meditation session and its pending tick.
type Engine struct {
	mu sync.Mutex

	length    time.Duration
	duration  int
	prompts   []string
	scheduler schedule.Scheduler
	onChange  func(Change)

	phase    Phase
	timeLeft int
	running  bool
	skipped  bool

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

// WithDuration sets the session length.
func WithDuration(d time.Duration) Option {
	return func(e *Engine) {
		e.length = d
	}
}

// WithPrompts replaces the default prompts.
func WithPrompts(prompts []string) Option {
	return func(e *Engine) {
		if len(prompts) > 0 {
			e.prompts = append([]string(nil), prompts...)
		}
	}
}

// WithOnChange registers a callback invoked after every tick, outside the
// engine lock. It runs on the scheduler's goroutine.
func WithOnChange(fn func(Change)) Option {
	return func(e *Engine) {
		e.onChange = fn
	}
}

// NewEngine creates a session waiting in intro.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		length:    DefaultDuration,
		prompts:   DefaultPrompts,
		scheduler: schedule.System(),
		phase:     PhaseIntro,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := ValidateDuration(e.length); err != nil {
		return nil, err
	}
	e.duration = int(e.length / Tick)
	if err := ValidatePrompts(e.prompts); err != nil {
		return nil, err
	}
	return e, nil
}

// Start begins the session from intro or resumes a paused one. It reports
// false when the session is running, complete or closed.
func (e *Engine) Start() (*State, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ok := e.startLocked()
	return e.snapshotLocked(), ok
}

// Pause stops the countdown. It reports false when nothing is running.
func (e *Engine) Pause() (*State, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ok := e.pauseLocked()
	return e.snapshotLocked(), ok
}

// Toggle pauses a running session and starts or resumes a stopped one.
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

// Skip ends a started session early. It reports false outside the
// meditation phase.
func (e *Engine) Skip() (*State, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.phase != PhaseMeditation {
		return e.snapshotLocked(), false
	}
	e.stopLocked()
	e.phase = PhaseComplete
	e.skipped = true
	return e.snapshotLocked(), true
}

// Reset returns to intro.
func (e *Engine) Reset() *State {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return e.snapshotLocked()
	}
	e.stopLocked()
	e.phase = PhaseIntro
	e.timeLeft = 0
	e.skipped = false
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

// Duration returns the configured session length.
func (e *Engine) Duration() time.Duration {
	return e.length
}

func (e *Engine) startLocked() bool {
	if e.closed || e.running || e.phase == PhaseComplete {
		return false
	}
	if e.phase == PhaseIntro {
		e.phase = PhaseMeditation
		e.timeLeft = e.duration
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

	e.task = nil
	change := Change{}
	if e.timeLeft <= 1 {
		e.timeLeft = 0
		e.phase = PhaseComplete
		e.running = false
		e.generation++
		change.Finished = true
	} else {
		e.timeLeft--
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

func (e *Engine) snapshotLocked() *State {
	state := &State{
		Phase:           e.phase,
		DurationSeconds: e.duration,
		TimeLeft:        e.timeLeft,
		Running:         e.running,
		Skipped:         e.skipped,
		Complete:        e.phase == PhaseComplete,
	}
	if e.phase != PhaseIntro {
		state.Elapsed = e.duration - e.timeLeft
		state.Progress = float64(state.Elapsed) / float64(e.duration) * 100
	}
	if e.phase == PhaseMeditation {
		state.Prompt = PromptAt(e.prompts, state.Progress)
	}
	return state
}

// PromptAt picks the prompt for progress, given in percent.
func PromptAt(prompts []string, progress float64) string {
	if len(prompts) == 0 {
		return ""
	}
	i := int(progress / 100 * float64(len(prompts)))
	if i < 0 {
		i = 0
	}
	if i >= len(prompts) {
		i = len(prompts) - 1
	}
	return prompts[i]
}

// FormatClock renders seconds as m:ss.
func FormatClock(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
