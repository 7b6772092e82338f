package main

import (
	"github.com/wricardo/mcp-training/calmgames/game/memory"
)

// MemoryStrategy remembers every symbol it has seen face up and uses them to
// pick pairs. A perfect memory needs at most one mismatch per unseen pair.
type MemoryStrategy struct {
	known map[int]string
}

func NewMemoryStrategy() *MemoryStrategy {
	return &MemoryStrategy{known: make(map[int]string)}
}

// Reset forgets everything after a new deal.
func (s *MemoryStrategy) Reset() {
	s.known = make(map[int]string)
}

// Observe records every face-up symbol in deck.
func (s *MemoryStrategy) Observe(deck *memory.Deck) {
	for _, card := range deck.Cards {
		if card.Symbol != "" {
			s.known[card.ID] = card.Symbol
		}
	}
}

// Known returns the number of cards whose symbol has been seen.
func (s *MemoryStrategy) Known() int {
	return len(s.known)
}

// First picks the first card of an attempt: one half of a known pair when
// there is one, otherwise an unseen card. It returns -1 when nothing can be
// flipped.
func (s *MemoryStrategy) First(deck *memory.Deck) int {
	if a, _, ok := s.knownPair(deck); ok {
		return a
	}
	if id := s.unseen(deck, -1); id >= 0 {
		return id
	}
	return s.anyOpen(deck, -1)
}

// Second picks a partner for first, whose symbol must already be visible.
func (s *MemoryStrategy) Second(deck *memory.Deck, first int) int {
	symbol := s.known[first]
	for _, card := range deck.Cards {
		if card.ID == first || card.Matched || card.Flipped {
			continue
		}
		if s.known[card.ID] == symbol && symbol != "" {
			return card.ID
		}
	}
	if id := s.unseen(deck, first); id >= 0 {
		return id
	}
	return s.anyOpen(deck, first)
}

func (s *MemoryStrategy) knownPair(deck *memory.Deck) (int, int, bool) {
	seen := make(map[string]int)
	for _, card := range deck.Cards {
		if card.Matched || card.Flipped {
			continue
		}
		symbol, ok := s.known[card.ID]
		if !ok {
			continue
		}
		if other, ok := seen[symbol]; ok {
			return other, card.ID, true
		}
		seen[symbol] = card.ID
	}
	return -1, -1, false
}

func (s *MemoryStrategy) unseen(deck *memory.Deck, skip int) int {
	for _, card := range deck.Cards {
		if card.ID == skip || card.Matched || card.Flipped {
			continue
		}
		if _, ok := s.known[card.ID]; !ok {
			return card.ID
		}
	}
	return -1
}

func (s *MemoryStrategy) anyOpen(deck *memory.Deck, skip int) int {
	for _, card := range deck.Cards {
		if card.ID != skip && !card.Matched && !card.Flipped {
			return card.ID
		}
	}
	return -1
}
