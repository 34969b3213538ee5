package room

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// TickInterval is how often the phase countdown advances.
const TickInterval = time.Second

// Clock is the interface we use for time operations.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	NewTicker(d time.Duration) clockwork.Ticker
}

// Scheduler owns the repeating phase tick. It is driven from the controller
// goroutine only and holds no lock.
type Scheduler struct {
	clock    Clock
	interval time.Duration
	ticker   clockwork.Ticker
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		clock:    clock,
		interval: TickInterval,
	}
}

// Restart cancels any running tick and starts a fresh one, so the first new
// tick lands a full interval from now.
func (s *Scheduler) Restart() {
	if s.ticker != nil {
		s.ticker.Stop()
		log.Debug().Msg("replaced existing phase ticker")
	}
	s.ticker = s.clock.NewTicker(s.interval)
	log.Info().Dur("interval", s.interval).Msg("phase scheduler started")
}

// Stop cancels the tick. It is safe to call on a stopped scheduler.
func (s *Scheduler) Stop() {
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	s.ticker = nil
	log.Info().Msg("phase scheduler stopped")
}

// Running reports whether a tick is active.
func (s *Scheduler) Running() bool {
	return s.ticker != nil
}

// C returns the tick channel, or nil while stopped. Receiving from a nil
// channel blocks forever, which keeps a select on it inert.
func (s *Scheduler) C() <-chan time.Time {
	if s.ticker == nil {
		return nil
	}
	return s.ticker.Chan()
}
