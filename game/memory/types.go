package memory

import "time"

const (
	DefaultPairMultiplicity = 2
	DefaultMatchDelay       = 500 * time.Millisecond
	DefaultMismatchDelay    = 1000 * time.Millisecond
	MaxSymbols              = 32
)

// DefaultSymbols is the feelings alphabet used by the standard deck.
var DefaultSymbols = []string{"😊", "😢", "😡", "😰", "🤢", "💛", "💙", "💚"}

// Card is one card in the deck.
type Card struct {
	ID      int    `json:"id"`
	Symbol  string `json:"symbol"`
	Flipped bool   `json:"flipped"`
	Matched bool   `json:"matched"`
}

// Deck is an immutable snapshot of the game.
type Deck struct {
	Cards     []Card `json:"cards"`
	Moves     int    `json:"moves"`
	Matches   int    `json:"matches"`
	Pairs     int    `json:"pairs"`
	Pending   []int  `json:"pending"`
	Resolving bool   `json:"resolving"`
	Complete  bool   `json:"complete"`
}

// Masked returns a copy of the deck with the symbols of face-down cards
// removed, suitable for sending to players.
func (d *Deck) Masked() *Deck {
	masked := *d
	masked.Cards = make([]Card, len(d.Cards))
	for i, c := range d.Cards {
		if !c.Flipped && !c.Matched {
			c.Symbol = ""
		}
		masked.Cards[i] = c
	}
	masked.Pending = append([]int{}, d.Pending...)
	return &masked
}

// Delays controls how long a flipped pair stays visible before it resolves.
// Match must be shorter than Mismatch.
type Delays struct {
	Match    time.Duration `json:"match"`
	Mismatch time.Duration `json:"mismatch"`
}

// DefaultDelays returns the standard 500ms/1000ms timings.
func DefaultDelays() Delays {
	return Delays{Match: DefaultMatchDelay, Mismatch: DefaultMismatchDelay}
}

// Resolution describes a pair that was just resolved.
type Resolution struct {
	Cards   [2]int `json:"cards"`
	Matched bool   `json:"matched"`
	Deck    *Deck  `json:"deck"`
}
