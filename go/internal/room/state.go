package room

// Phase is one state of the round state machine.
type Phase string

const (
	PhaseLobby        Phase = "LOBBY"
	PhasePromptReveal Phase = "PROMPT_REVEAL"
	PhaseGifSearch    Phase = "GIF_SEARCH"
	PhaseVoting       Phase = "VOTING"
	PhaseRoundResults Phase = "ROUND_RESULTS"
)

// Deck selects where prompts are drawn from.
type Deck string

const (
	DeckDefault Deck = "DEFAULT"
	DeckCustom  Deck = "CUSTOM"
	DeckMixed   Deck = "MIXED"
)

// Valid reports whether d is one of the known decks.
func (d Deck) Valid() bool {
	switch d {
	case DeckDefault, DeckCustom, DeckMixed:
		return true
	}
	return false
}

// Player is a participant keyed by connection id.
type Player struct {
	ExternalID  string `json:"discordId"`
	DisplayName string `json:"username"`
	Score       int    `json:"score"`
	Ready       bool   `json:"isReady"`
	Admin       bool   `json:"isAdmin"`

	// joinSeq orders players by when they joined; used to break tally ties.
	joinSeq uint64
}

// PromptPair is a prompt in both supported locales.
type PromptPair struct {
	En string `json:"en"`
	Ar string `json:"ar"`
}

// CustomPrompts holds admin-added prompts as parallel locale slices.
// Index i of En always pairs with index i of Ar.
type CustomPrompts struct {
	En []string `json:"en"`
	Ar []string `json:"ar"`
}

// add appends both locales together so the slices never drift apart.
func (c *CustomPrompts) add(p PromptPair) {
	c.En = append(c.En, p.En)
	c.Ar = append(c.Ar, p.Ar)
}

// Len returns the number of custom prompt pairs.
func (c CustomPrompts) Len() int {
	return len(c.En)
}

// At returns the pair stored at index i.
func (c CustomPrompts) At(i int) PromptPair {
	return PromptPair{En: c.En[i], Ar: c.Ar[i]}
}

// Winner summarizes the winning submission of a round.
type Winner struct {
	ConnectionID string `json:"socketId"`
	DisplayName  string `json:"username"`
	MediaRef     string `json:"gifUrl"`
	Votes        int    `json:"votes"`
}

// State is the authoritative snapshot broadcast to every client.
type State struct {
	Phase         Phase              `json:"phase"`
	Players       map[string]*Player `json:"players"`
	PromptDeck    Deck               `json:"promptDeck"`
	CustomPrompts CustomPrompts      `json:"customPrompts"`
	CurrentPrompt PromptPair         `json:"currentPrompt"`
	Submissions   map[string]string  `json:"submissions"`
	Votes         map[string]string  `json:"votes"`
	RoundWinner   *Winner            `json:"roundWinner"`
	Timer         *int               `json:"timer"`
}

func newState() State {
	return State{
		Phase:         PhaseLobby,
		Players:       make(map[string]*Player),
		PromptDeck:    DeckDefault,
		CustomPrompts: CustomPrompts{En: []string{}, Ar: []string{}},
		Submissions:   make(map[string]string),
		Votes:         make(map[string]string),
	}
}

// Clone returns a deep copy that shares no memory with s.
func (s State) Clone() State {
	out := State{
		Phase:         s.Phase,
		Players:       make(map[string]*Player, len(s.Players)),
		PromptDeck:    s.PromptDeck,
		CurrentPrompt: s.CurrentPrompt,
		CustomPrompts: CustomPrompts{
			En: append([]string{}, s.CustomPrompts.En...),
			Ar: append([]string{}, s.CustomPrompts.Ar...),
		},
		Submissions: make(map[string]string, len(s.Submissions)),
		Votes:       make(map[string]string, len(s.Votes)),
	}
	for id, p := range s.Players {
		cp := *p
		out.Players[id] = &cp
	}
	for k, v := range s.Submissions {
		out.Submissions[k] = v
	}
	for k, v := range s.Votes {
		out.Votes[k] = v
	}
	if s.RoundWinner != nil {
		w := *s.RoundWinner
		out.RoundWinner = &w
	}
	if s.Timer != nil {
		t := *s.Timer
		out.Timer = &t
	}
	return out
}
