package puzzle

import (
	"errors"
	"fmt"
)

// ErrSolved is returned by Hint once the puzzle is solved.
var ErrSolved = errors.New("puzzle already solved")

func encode(l Layout) uint64 {
	var key uint64
	for i, id := range l {
		key |= uint64(id) << (4 * i)
	}
	return key
}

func decode(key uint64) Layout {
	var l Layout
	for i := range l {
		l[i] = int((key >> (4 * i)) & 0xf)
	}
	return l
}

type step struct {
	parent uint64
	tile   int
}

// Solve returns a shortest sequence of tile IDs to click to bring layout to
// the solved arrangement. It returns false when layout is not solvable.
func Solve(layout Layout) ([]int, bool) {
	if !IsSolvable(layout) {
		return nil, false
	}

	start := encode(layout)
	goal := encode(SolvedLayout())
	if start == goal {
		return []int{}, true
	}

	visited := map[uint64]step{start: {}}
	queue := []uint64{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		board := decode(current)

		emptyPos := 0
		for pos, id := range board {
			if id == EmptyTileID {
				emptyPos = pos
				break
			}
		}

		for _, pos := range AdjacentPositions(emptyPos) {
			next := board
			tile := next[pos]
			next[pos], next[emptyPos] = EmptyTileID, tile

			key := encode(next)
			if _, seen := visited[key]; seen {
				continue
			}
			visited[key] = step{parent: current, tile: tile}
			if key == goal {
				return unwind(visited, start, goal), true
			}
			queue = append(queue, key)
		}
	}

	return nil, false
}

func unwind(visited map[uint64]step, start, goal uint64) []int {
	var path []int
	for key := goal; key != start; key = visited[key].parent {
		path = append(path, visited[key].tile)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Hint returns the next tile to click on a shortest path to the solution.
func (e *Engine) Hint() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.solved {
		return 0, ErrSolved
	}

	layout := e.layoutLocked()
	path, ok := Solve(layout)
	if !ok {
		return 0, fmt.Errorf("layout %v is not solvable", layout)
	}
	if len(path) == 0 {
		// Home after a shuffle with no moves yet; any legal move is fine.
		return e.tileAtLocked(AdjacentPositions(e.tiles[EmptyTileID].Position)[0]), nil
	}
	return path[0], nil
}
