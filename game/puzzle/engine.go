package puzzle

import (
	"fmt"
	"math/rand/v2"
	"sync"
)

// Engine owns one puzzle board.
type Engine struct {
	mu           sync.Mutex
	tiles        [TileCount]Tile // indexed by tile ID
	moves        int
	solved       bool
	shuffleMoves int
	rng          *rand.Rand
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

// WithShuffleMoves sets how many random legal moves a shuffle applies.
func WithShuffleMoves(n int) Option {
	return func(e *Engine) {
		if n > 0 && n <= MaxShuffleMoves {
			e.shuffleMoves = n
		}
	}
}

func newEngine(opts []Option) *Engine {
	e := &Engine{shuffleMoves: DefaultShuffleMoves}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return e
}

// NewEngine creates an engine with a freshly shuffled board.
func NewEngine(opts ...Option) *Engine {
	e := newEngine(opts)
	e.initLocked()
	return e
}

// NewEngineFromLayout creates an engine whose board starts at layout with a
// move count of zero. The layout must be a solvable permutation.
func NewEngineFromLayout(layout Layout, opts ...Option) (*Engine, error) {
	if err := ValidateLayout(layout); err != nil {
		return nil, err
	}
	if !IsSolvable(layout) {
		return nil, fmt.Errorf("layout %v is not solvable", layout)
	}
	e := newEngine(opts)
	e.setLayoutLocked(layout)
	return e, nil
}

// Reset discards the current board and shuffles a new one.
func (e *Engine) Reset() *Board {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initLocked()
	return e.snapshotLocked()
}

// ApplyMove slides tileID into the empty slot. It reports false and leaves
// the board untouched when the move is not legal.
func (e *Engine) ApplyMove(tileID int) (*Board, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.canMoveLocked(tileID) {
		return e.snapshotLocked(), false
	}

	e.swapWithEmptyLocked(tileID)
	e.moves++
	if e.allHomeLocked() {
		e.solved = true
	}
	return e.snapshotLocked(), true
}

// CanMove reports whether clicking tileID would be accepted.
func (e *Engine) CanMove(tileID int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canMoveLocked(tileID)
}

// IsSolved reports whether the player has solved the board. A board that was
// never moved is never solved.
func (e *Engine) IsSolved() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.solved
}

// Moves returns the number of accepted moves since the last reset.
func (e *Engine) Moves() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.moves
}

// Layout returns the current arrangement.
func (e *Engine) Layout() Layout {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.layoutLocked()
}

// Snapshot returns the current board.
func (e *Engine) Snapshot() *Board {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Close is a no-op; puzzle moves resolve synchronously.
func (e *Engine) Close() {}

func (e *Engine) initLocked() {
	e.setLayoutLocked(SolvedLayout())

	for i := 0; i < e.shuffleMoves; i++ {
		options := AdjacentPositions(e.tiles[EmptyTileID].Position)
		target := options[e.rng.IntN(len(options))]
		e.swapWithEmptyLocked(e.tileAtLocked(target))
	}
}

func (e *Engine) setLayoutLocked(layout Layout) {
	for pos, id := range layout {
		e.tiles[id] = Tile{
			ID:       id,
			Position: pos,
			Empty:    id == EmptyTileID,
		}
	}
	e.moves = 0
	e.solved = false
}

func (e *Engine) canMoveLocked(tileID int) bool {
	if tileID < 0 || tileID >= TileCount || tileID == EmptyTileID || e.solved {
		return false
	}
	return isAdjacent(e.tiles[EmptyTileID].Position, e.tiles[tileID].Position)
}

func (e *Engine) swapWithEmptyLocked(tileID int) {
	empty := &e.tiles[EmptyTileID]
	tile := &e.tiles[tileID]
	empty.Position, tile.Position = tile.Position, empty.Position
}

func (e *Engine) tileAtLocked(pos int) int {
	for _, t := range e.tiles {
		if t.Position == pos {
			return t.ID
		}
	}
	return -1
}

func (e *Engine) allHomeLocked() bool {
	for _, t := range e.tiles {
		if t.ID != t.Position {
			return false
		}
	}
	return true
}

func (e *Engine) layoutLocked() Layout {
	var l Layout
	for _, t := range e.tiles {
		l[t.Position] = t.ID
	}
	return l
}

func (e *Engine) snapshotLocked() *Board {
	tiles := make([]Tile, TileCount)
	for i, t := range e.tiles {
		if !t.Empty {
			t.Face = TileFaces[t.ID]
		}
		tiles[i] = t
	}

	movable := []int{}
	if !e.solved {
		for _, pos := range AdjacentPositions(e.tiles[EmptyTileID].Position) {
			movable = append(movable, e.tileAtLocked(pos))
		}
	}

	return &Board{
		Tiles:         tiles,
		Layout:        e.layoutLocked(),
		EmptyPosition: e.tiles[EmptyTileID].Position,
		Moves:         e.moves,
		Solved:        e.solved,
		Movable:       movable,
	}
}

// AdjacentPositions returns the grid neighbours of pos in left, right, up,
// down order. Rows do not wrap.
func AdjacentPositions(pos int) []int {
	if pos < 0 || pos >= TileCount {
		return nil
	}
	row, col := pos/GridSize, pos%GridSize
	adjacent := make([]int, 0, 4)

	if col > 0 {
		adjacent = append(adjacent, pos-1)
	}
	if col < GridSize-1 {
		adjacent = append(adjacent, pos+1)
	}
	if row > 0 {
		adjacent = append(adjacent, pos-GridSize)
	}
	if row < GridSize-1 {
		adjacent = append(adjacent, pos+GridSize)
	}
	return adjacent
}

func isAdjacent(a, b int) bool {
	for _, p := range AdjacentPositions(a) {
		if p == b {
			return true
		}
	}
	return false
}

// ValidateLayout checks that layout is a permutation of 0..8.
func ValidateLayout(layout Layout) error {
	var seen [TileCount]bool
	for pos, id := range layout {
		if id < 0 || id >= TileCount {
			return fmt.Errorf("tile %d at position %d is out of range", id, pos)
		}
		if seen[id] {
			return fmt.Errorf("tile %d appears more than once", id)
		}
		seen[id] = true
	}
	return nil
}

// IsSolvable reports whether layout can be reached from the solved
// arrangement by legal moves. On an odd-width grid that holds exactly when
// the non-empty tiles form an even permutation.
func IsSolvable(layout Layout) bool {
	if ValidateLayout(layout) != nil {
		return false
	}
	inversions := 0
	for i := 0; i < TileCount; i++ {
		if layout[i] == EmptyTileID {
			continue
		}
		for j := i + 1; j < TileCount; j++ {
			if layout[j] != EmptyTileID && layout[i] > layout[j] {
				inversions++
			}
		}
	}
	return inversions%2 == 0
}
