package room

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// Phase countdowns, in seconds.
const (
	PromptRevealDuration = 5
	GifSearchDuration    = 45
	VotingDuration       = 30
	RoundResultsDuration = 10
)

// Durations maps each timed phase to its countdown in seconds.
type Durations map[Phase]int

// DefaultDurations returns the standard phase countdowns.
func DefaultDurations() Durations {
	return Durations{
		PhasePromptReveal: PromptRevealDuration,
		PhaseGifSearch:    GifSearchDuration,
		PhaseVoting:       VotingDuration,
		PhaseRoundResults: RoundResultsDuration,
	}
}

// Config holds the room rules that are fixed for the process lifetime.
type Config struct {
	// AdminID is the external identity granted admin rights on join.
	AdminID   string
	Durations Durations
}

// Room is the rules engine over a single State. It is not safe for
// concurrent use; Controller serializes every call onto one goroutine.
type Room struct {
	cfg      Config
	state    State
	selector *Selector
	nextSeq  uint64
}

// New creates a room in LOBBY with empty collections.
func New(cfg Config, selector *Selector) *Room {
	if cfg.Durations == nil {
		cfg.Durations = DefaultDurations()
	}
	if selector == nil {
		selector = NewSelector(nil, nil)
	}
	return &Room{
		cfg:      cfg,
		state:    newState(),
		selector: selector,
	}
}

// Snapshot returns a deep copy of the current state.
func (r *Room) Snapshot() State {
	return r.state.Clone()
}

// Phase returns the current phase.
func (r *Room) Phase() Phase {
	return r.state.Phase
}

// Join adds or replaces the player on connID. It always succeeds.
func (r *Room) Join(connID, externalID, displayName string) error {
	r.nextSeq++
	admin := r.cfg.AdminID != "" && externalID == r.cfg.AdminID
	r.state.Players[connID] = &Player{
		ExternalID:  externalID,
		DisplayName: displayName,
		Admin:       admin,
		joinSeq:     r.nextSeq,
	}

	log.Info().
		Str("connection_id", connID).
		Str("external_id", externalID).
		Str("username", displayName).
		Bool("admin", admin).
		Msg("player joined")
	return nil
}

// Leave removes the player together with its submission and vote.
func (r *Room) Leave(connID string) error {
	if _, ok := r.state.Players[connID]; !ok {
		return ErrUnknownPlayer
	}
	delete(r.state.Players, connID)
	delete(r.state.Submissions, connID)
	delete(r.state.Votes, connID)

	log.Info().Str("connection_id", connID).Msg("player left")
	return nil
}

// SetDeck switches the prompt deck. Admin only, LOBBY only.
func (r *Room) SetDeck(connID string, deck Deck) error {
	if err := r.requireAdminInLobby(connID); err != nil {
		return err
	}
	if !deck.Valid() {
		return ErrUnknownDeck
	}
	r.state.PromptDeck = deck
	return nil
}

// AddCustomPrompt appends a prompt pair to the custom deck. Admin only,
// LOBBY only, both locales required.
func (r *Room) AddCustomPrompt(connID, en, ar string) error {
	if err := r.requireAdminInLobby(connID); err != nil {
		return err
	}
	if strings.TrimSpace(en) == "" || strings.TrimSpace(ar) == "" {
		return ErrEmptyPrompt
	}
	r.state.CustomPrompts.add(PromptPair{En: en, Ar: ar})
	return nil
}

// StartGame leaves the lobby and enters the first PROMPT_REVEAL.
func (r *Room) StartGame(connID string) error {
	if err := r.requireAdminInLobby(connID); err != nil {
		return err
	}
	log.Info().Str("connection_id", connID).Msg("game start triggered by admin")
	r.advancePhase()
	return nil
}

// SubmitMedia records connID's submission, replacing any earlier one.
func (r *Room) SubmitMedia(connID, mediaRef string) error {
	if r.state.Phase != PhaseGifSearch {
		return ErrWrongPhase
	}
	if _, ok := r.state.Players[connID]; !ok {
		return ErrUnknownPlayer
	}
	if strings.TrimSpace(mediaRef) == "" {
		return ErrEmptySubmission
	}
	r.state.Submissions[connID] = mediaRef
	return nil
}

// SubmitVote records connID's vote for target, replacing any earlier one.
// The target must have submitted media this round.
func (r *Room) SubmitVote(connID, target string) error {
	if r.state.Phase != PhaseVoting {
		return ErrWrongPhase
	}
	if _, ok := r.state.Players[connID]; !ok {
		return ErrUnknownPlayer
	}
	if target == connID {
		return ErrSelfVote
	}
	if _, ok := r.state.Submissions[target]; !ok {
		return ErrNoSubmission
	}
	r.state.Votes[connID] = target
	return nil
}

// Tick decrements the countdown and advances the phase when it runs out.
// It reports whether a transition happened.
func (r *Room) Tick() bool {
	if r.state.Timer == nil {
		return false
	}
	remaining := *r.state.Timer - 1
	r.state.Timer = &remaining
	if remaining > 0 {
		return false
	}
	r.advancePhase()
	return true
}

// advancePhase moves to the next phase, runs its entry action and resets the
// countdown.
func (r *Room) advancePhase() {
	from := r.state.Phase
	switch from {
	case PhaseLobby, PhaseRoundResults:
		r.beginRound()
	case PhasePromptReveal:
		r.state.Phase = PhaseGifSearch
	case PhaseGifSearch:
		r.state.Phase = PhaseVoting
	case PhaseVoting:
		r.finishVoting()
		r.state.Phase = PhaseRoundResults
	}

	if d, ok := r.cfg.Durations[r.state.Phase]; ok {
		r.state.Timer = &d
	} else {
		r.state.Timer = nil
	}

	log.Debug().
		Str("from", string(from)).
		Str("to", string(r.state.Phase)).
		Msg("phase advanced")
}

func (r *Room) beginRound() {
	r.state.Phase = PhasePromptReveal
	r.state.CurrentPrompt = r.selector.Pick(r.state.PromptDeck, r.state.CustomPrompts)
	r.state.Submissions = make(map[string]string)
	r.state.Votes = make(map[string]string)
	r.state.RoundWinner = nil
}

func (r *Room) finishVoting() {
	winner := Tally(r.state.Votes, r.state.Submissions, r.state.Players)
	r.state.RoundWinner = winner
	if winner == nil {
		log.Info().Int("votes", len(r.state.Votes)).Msg("round ended without a winner")
		return
	}
	r.state.Players[winner.ConnectionID].Score++

	log.Info().
		Str("connection_id", winner.ConnectionID).
		Str("username", winner.DisplayName).
		Int("votes", winner.Votes).
		Msg("round winner")
}

func (r *Room) requireAdminInLobby(connID string) error {
	p, ok := r.state.Players[connID]
	if !ok || !p.Admin {
		return ErrNotAdmin
	}
	if r.state.Phase != PhaseLobby {
		return ErrWrongPhase
	}
	return nil
}
