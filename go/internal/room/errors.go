package room

import "errors"

// Rejections returned by Room and Controller. An action that returns one of
// these changed nothing and is not broadcast; the gateway drops it silently.
var (
	ErrNotAdmin        = errors.New("caller is not the admin")
	ErrWrongPhase      = errors.New("action not allowed in current phase")
	ErrUnknownPlayer   = errors.New("unknown player")
	ErrUnknownDeck     = errors.New("unknown prompt deck")
	ErrEmptyPrompt     = errors.New("prompt text must be set in both locales")
	ErrEmptySubmission = errors.New("media reference is empty")
	ErrSelfVote        = errors.New("cannot vote for yourself")
	ErrNoSubmission    = errors.New("vote target has no submission this round")
)
