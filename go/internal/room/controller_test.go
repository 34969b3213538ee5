package room

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures every broadcast snapshot. When panicNext is set the next
// broadcast panics instead.
type recorder struct {
	mu        sync.Mutex
	states    []State
	panicNext atomic.Bool
	panics    atomic.Int32
}

func (r *recorder) Broadcast(s State) {
	if r.panicNext.CompareAndSwap(true, false) {
		r.panics.Add(1)
		panic("broadcast failed")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

func (r *recorder) last() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[len(r.states)-1]
}

type controllerFixture struct {
	ctx   context.Context
	clock *clockwork.FakeClock
	rec   *recorder
	ctrl  *Controller
	done  chan error
}

func newControllerFixture(t *testing.T) *controllerFixture {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

	fc := clockwork.NewFakeClock()
	rec := &recorder{}
	ctrl := NewController(newTestRoom(t), NewScheduler(fc), rec)

	f := &controllerFixture{ctx: ctx, clock: fc, rec: rec, ctrl: ctrl, done: make(chan error, 1)}
	go func() { f.done <- ctrl.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		<-f.done
	})
	return f
}

func (f *controllerFixture) timer(t *testing.T) int {
	t.Helper()
	s, err := f.ctrl.Snapshot(f.ctx)
	require.NoError(t, err)
	require.NotNil(t, s.Timer)
	return *s.Timer
}

func TestControllerBroadcastsAcceptedActionsOnly(t *testing.T) {
	f := newControllerFixture(t)

	require.NoError(t, f.ctrl.Join(f.ctx, "admin", adminID, "Host"))
	require.NoError(t, f.ctrl.Join(f.ctx, "guest", "d-guest", "Guest"))
	assert.Equal(t, 2, f.rec.count())

	assert.ErrorIs(t, f.ctrl.SetDeck(f.ctx, "guest", DeckCustom), ErrNotAdmin)
	assert.ErrorIs(t, f.ctrl.Leave(f.ctx, "nobody"), ErrUnknownPlayer)
	assert.ErrorIs(t, f.ctrl.SubmitMedia(f.ctx, "guest", "https://gif"), ErrWrongPhase)
	assert.Equal(t, 2, f.rec.count())

	require.NoError(t, f.ctrl.AddCustomPrompt(f.ctx, "admin", "cats", "قطط"))
	require.NoError(t, f.ctrl.SetDeck(f.ctx, "admin", DeckCustom))
	assert.Equal(t, 4, f.rec.count())

	last := f.rec.last()
	assert.Equal(t, DeckCustom, last.PromptDeck)
	assert.Equal(t, 1, last.CustomPrompts.Len())

	_, err := f.ctrl.Snapshot(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, f.rec.count())
}

func TestControllerTickAdvancesCountdown(t *testing.T) {
	f := newControllerFixture(t)

	require.NoError(t, f.ctrl.Join(f.ctx, "admin", adminID, "Host"))
	require.NoError(t, f.ctrl.StartGame(f.ctx, "admin"))
	assert.Equal(t, PromptRevealDuration, f.timer(t))

	require.NoError(t, f.clock.BlockUntilContext(f.ctx, 1))
	before := f.rec.count()

	f.clock.Advance(TickInterval)
	require.Eventually(t, func() bool {
		return f.rec.count() == before+1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, PromptRevealDuration-1, f.timer(t))

	for i := 0; i < PromptRevealDuration-1; i++ {
		want := f.rec.count() + 1
		f.clock.Advance(TickInterval)
		require.Eventually(t, func() bool {
			return f.rec.count() == want
		}, time.Second, 5*time.Millisecond)
	}

	last := f.rec.last()
	assert.Equal(t, PhaseGifSearch, last.Phase)
	require.NotNil(t, last.Timer)
	assert.Equal(t, GifSearchDuration, *last.Timer)
}

func TestControllerSurvivesPanickingTick(t *testing.T) {
	f := newControllerFixture(t)

	require.NoError(t, f.ctrl.Join(f.ctx, "admin", adminID, "Host"))
	require.NoError(t, f.ctrl.StartGame(f.ctx, "admin"))
	require.NoError(t, f.clock.BlockUntilContext(f.ctx, 1))

	f.rec.panicNext.Store(true)
	f.clock.Advance(TickInterval)
	require.Eventually(t, func() bool {
		return f.rec.panics.Load() == 1
	}, time.Second, 5*time.Millisecond)

	// The controller keeps serving actions and ticks after the panic.
	assert.Equal(t, PromptRevealDuration-1, f.timer(t))

	before := f.rec.count()
	f.clock.Advance(TickInterval)
	require.Eventually(t, func() bool {
		return f.rec.count() == before+1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, PromptRevealDuration-2, f.timer(t))
}

func TestControllerSurvivesPanickingAction(t *testing.T) {
	f := newControllerFixture(t)

	f.rec.panicNext.Store(true)
	err := f.ctrl.Join(f.ctx, "a", "d-a", "A")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")

	require.NoError(t, f.ctrl.Join(f.ctx, "b", "d-b", "B"))
	assert.Equal(t, 1, f.rec.count())
}

func TestControllerStartGameRejectedKeepsTickStopped(t *testing.T) {
	f := newControllerFixture(t)

	require.NoError(t, f.ctrl.Join(f.ctx, "guest", "d-guest", "Guest"))
	assert.ErrorIs(t, f.ctrl.StartGame(f.ctx, "guest"), ErrNotAdmin)

	s, err := f.ctrl.Snapshot(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, PhaseLobby, s.Phase)
	assert.Nil(t, s.Timer)
}

func TestControllerStopped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ctrl := NewController(newTestRoom(t), NewScheduler(clockwork.NewFakeClock()), nil)

	done := make(chan error, 1)
	go func() { done <- ctrl.Run(ctx) }()
	cancel()
	require.NoError(t, <-done)

	err := ctrl.Join(context.Background(), "a", "d-a", "A")
	assert.ErrorIs(t, err, ErrControllerStopped)
}
