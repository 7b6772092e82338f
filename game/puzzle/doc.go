// Package puzzle implements the 3x3 sliding tile puzzle.
//
// The board holds nine tiles. Tile 8 is the empty slot; every other tile has
// a home position equal to its ID. Clicking a tile next to the empty slot
// swaps the two, and the puzzle is solved once every tile is home again.
//
// Boards are shuffled by walking the empty slot through random legal moves
// starting from the solved arrangement, so every generated board is solvable
// without a parity check.
//
// Invalid clicks are ignored rather than reported as errors:
//
//	eng := puzzle.NewEngine(puzzle.WithSeed(42))
//	board, ok := eng.ApplyMove(3)
//	if !ok {
//		// tile 3 is not next to the empty slot; nothing changed
//	}
//	fmt.Println(board.Moves, board.Solved)
package puzzle
