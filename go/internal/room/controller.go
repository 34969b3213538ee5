package room

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

// ErrControllerStopped is returned when an action is sent after Run has exited.
var ErrControllerStopped = errors.New("room controller stopped")

// command is one entry in the controller mailbox.
type command struct {
	name    string
	apply   func() error
	mutates bool
	reply   chan error
}

// Controller serializes every player action and scheduler tick onto a single
// goroutine that owns the Room. After each accepted mutation, and after every
// tick, the full state is handed to the Broadcaster.
type Controller struct {
	room        *Room
	scheduler   *Scheduler
	broadcaster Broadcaster

	mailbox chan command
	done    chan struct{}
}

// NewController wires a room to its scheduler and broadcaster.
func NewController(room *Room, scheduler *Scheduler, broadcaster Broadcaster) *Controller {
	if broadcaster == nil {
		broadcaster = Broadcasters(nil)
	}
	return &Controller{
		room:        room,
		scheduler:   scheduler,
		broadcaster: broadcaster,
		mailbox:     make(chan command, 256),
		done:        make(chan struct{}),
	}
}

// Run processes the mailbox and the phase tick until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	log.Info().Msg("room controller started")
	defer func() {
		c.scheduler.Stop()
		close(c.done)
		log.Info().Msg("room controller stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-c.mailbox:
			c.handle(cmd)
		case <-c.scheduler.C():
			c.tick()
		}
	}
}

func (c *Controller) handle(cmd command) {
	var err error
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("action", cmd.name).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("room action panicked")
			err = fmt.Errorf("%s panicked: %v", cmd.name, r)
		}
		cmd.reply <- err
	}()

	err = cmd.apply()
	if err != nil {
		log.Debug().Err(err).Str("action", cmd.name).Msg("action ignored")
		return
	}
	if cmd.mutates {
		c.broadcaster.Broadcast(c.room.Snapshot())
	}
}

// tick runs one scheduler step. A panic is logged and swallowed so the loop
// keeps ticking.
func (c *Controller) tick() {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("phase tick panicked")
		}
	}()

	c.room.Tick()
	c.broadcaster.Broadcast(c.room.Snapshot())
}

func (c *Controller) send(ctx context.Context, name string, mutates bool, apply func() error) error {
	cmd := command{
		name:    name,
		apply:   apply,
		mutates: mutates,
		reply:   make(chan error, 1),
	}

	select {
	case c.mailbox <- cmd:
	case <-c.done:
		return ErrControllerStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-c.done:
		return ErrControllerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Join adds a player on connID.
func (c *Controller) Join(ctx context.Context, connID, externalID, displayName string) error {
	return c.send(ctx, "join_room", true, func() error {
		return c.room.Join(connID, externalID, displayName)
	})
}

// Leave removes the player on connID.
func (c *Controller) Leave(ctx context.Context, connID string) error {
	return c.send(ctx, "disconnect", true, func() error {
		return c.room.Leave(connID)
	})
}

// SetDeck changes the prompt deck.
func (c *Controller) SetDeck(ctx context.Context, connID string, deck Deck) error {
	return c.send(ctx, "admin_set_deck", true, func() error {
		return c.room.SetDeck(connID, deck)
	})
}

// AddCustomPrompt appends a custom prompt pair.
func (c *Controller) AddCustomPrompt(ctx context.Context, connID, en, ar string) error {
	return c.send(ctx, "admin_add_custom_prompt", true, func() error {
		return c.room.AddCustomPrompt(connID, en, ar)
	})
}

// StartGame enters the first round and (re)starts the phase tick.
func (c *Controller) StartGame(ctx context.Context, connID string) error {
	return c.send(ctx, "start_game", true, func() error {
		if err := c.room.StartGame(connID); err != nil {
			return err
		}
		c.scheduler.Restart()
		return nil
	})
}

// SubmitMedia records a submission for the current round.
func (c *Controller) SubmitMedia(ctx context.Context, connID, mediaRef string) error {
	return c.send(ctx, "player_submit_gif", true, func() error {
		return c.room.SubmitMedia(connID, mediaRef)
	})
}

// SubmitVote records a vote for the current round.
func (c *Controller) SubmitVote(ctx context.Context, connID, target string) error {
	return c.send(ctx, "player_submit_vote", true, func() error {
		return c.room.SubmitVote(connID, target)
	})
}

// Snapshot returns a copy of the current state without broadcasting.
func (c *Controller) Snapshot(ctx context.Context) (State, error) {
	var s State
	err := c.send(ctx, "snapshot", false, func() error {
		s = c.room.Snapshot()
		return nil
	})
	return s, err
}
