package room

import "math/rand/v2"

// NoPromptsPlaceholder is published when the selected deck has no prompts.
var NoPromptsPlaceholder = PromptPair{
	En: "No prompts available!",
	Ar: "لا توجد أسئلة!",
}

// Selector picks the next round's prompt from the active deck.
type Selector struct {
	builtins []PromptPair
	intN     func(n int) int
}

// NewSelector creates a selector over the built-in deck. A nil rng uses the
// package-level math/rand/v2 source.
func NewSelector(builtins []PromptPair, rng *rand.Rand) *Selector {
	s := &Selector{
		builtins: append([]PromptPair(nil), builtins...),
		intN:     rand.IntN,
	}
	if rng != nil {
		s.intN = rng.IntN
	}
	return s
}

// Builtins returns a copy of the built-in deck.
func (s *Selector) Builtins() []PromptPair {
	return append([]PromptPair(nil), s.builtins...)
}

// Pool builds the candidate list for deck. MIXED lists built-ins first.
func (s *Selector) Pool(deck Deck, custom CustomPrompts) []PromptPair {
	var pool []PromptPair
	switch deck {
	case DeckCustom:
	case DeckMixed:
		pool = append(pool, s.builtins...)
	default:
		return s.Builtins()
	}
	for i := 0; i < custom.Len(); i++ {
		pool = append(pool, custom.At(i))
	}
	return pool
}

// Pick chooses uniformly over the pool and falls back to the placeholder
// when the pool is empty.
func (s *Selector) Pick(deck Deck, custom CustomPrompts) PromptPair {
	pool := s.Pool(deck, custom)
	if len(pool) == 0 {
		return NoPromptsPlaceholder
	}
	return pool[s.intN(len(pool))]
}
