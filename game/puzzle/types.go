package puzzle

const (
	GridSize            = 3
	TileCount           = GridSize * GridSize
	EmptyTileID         = TileCount - 1
	DefaultShuffleMoves = 100
	MaxShuffleMoves     = 1000
)

// TileFaces are the symbols drawn on tiles 0..7.
var TileFaces = [EmptyTileID]string{"😊", "😢", "😡", "😰", "🤢", "💛", "💙", "💚"}

// Tile is a single puzzle piece. ID is the tile's home position.
type Tile struct {
	ID       int    `json:"id"`
	Position int    `json:"position"`
	Empty    bool   `json:"empty"`
	Face     string `json:"face,omitempty"`
}

// Layout lists the tile ID found at each board position.
type Layout [TileCount]int

// SolvedLayout is the identity arrangement.
func SolvedLayout() Layout {
	var l Layout
	for i := range l {
		l[i] = i
	}
	return l
}

// Board is an immutable snapshot of the puzzle.
type Board struct {
	Tiles         []Tile `json:"tiles"`
	Layout        Layout `json:"layout"`
	EmptyPosition int    `json:"empty_position"`
	Moves         int    `json:"moves"`
	Solved        bool   `json:"solved"`
	Movable       []int  `json:"movable"`
}
