package poker

import (
	"fmt"
	"sync"
	"time"

	"github.com/decred/slog"
)

// TurnScheduler computes the next eligible actor and owns the single
// outstanding per-turn countdown for a table. Countdown callbacks race
// with real actions; the turn token guarantees exactly one of them wins:
// every state-mutating entry point cancels the current token first, and a
// callback that cannot claim its token is a no-op.
type TurnScheduler struct {
	log      slog.Logger
	timeBank time.Duration

	mu    sync.Mutex
	token uint64
	timer *time.Timer
}

// NewTurnScheduler creates a scheduler. A zero timeBank disables the
// countdown entirely; turns then wait indefinitely for an action.
func NewTurnScheduler(timeBank time.Duration, log slog.Logger) *TurnScheduler {
	if log == nil {
		log = slog.Disabled
	}
	return &TurnScheduler{
		log:      log,
		timeBank: timeBank,
	}
}

// NextActor returns the first seat strictly after from (wrapping) that is
// eligible to act: in the hand, not all-in, not sitting out. With no
// eligible seat it returns ErrInternalInconsistency; the betting engine
// only asks for an actor when one must exist.
func (ts *TurnScheduler) NextActor(players []*Player, from int) (int, error) {
	n := len(players)
	if n == 0 {
		return -1, fmt.Errorf("%w: next actor on empty seat list", ErrInternalInconsistency)
	}
	for i := 1; i <= n; i++ {
		seat := (from + i) % n
		if players[seat] != nil && players[seat].CanAct() {
			return seat, nil
		}
	}
	return -1, fmt.Errorf("%w: no eligible seat to act", ErrInternalInconsistency)
}

// StartCountdown invalidates any pending countdown and starts a new one.
// When the time bank elapses, expire is invoked with the issued token from
// a timer goroutine; the callback must re-serialize through the table lock
// and Claim the token before touching state. The token is returned so
// tests and timeout plumbing can reference this specific turn.
func (ts *TurnScheduler) StartCountdown(expire func(token uint64)) uint64 {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.token++
	token := ts.token
	if ts.timer != nil {
		ts.timer.Stop()
		ts.timer = nil
	}
	if ts.timeBank > 0 {
		ts.timer = time.AfterFunc(ts.timeBank, func() { expire(token) })
	}
	return token
}

// Cancel synchronously invalidates the pending countdown. Called before
// any action is applied, so a concurrently firing callback loses the race.
func (ts *TurnScheduler) Cancel() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.token++
	if ts.timer != nil {
		ts.timer.Stop()
		ts.timer = nil
	}
}

// Claim consumes the token if it is still current. A false return means
// the turn was already resolved by an action or a newer countdown; the
// caller must do nothing.
func (ts *TurnScheduler) Claim(token uint64) bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if token != ts.token {
		return false
	}
	ts.token++
	ts.timer = nil
	return true
}

// CurrentToken returns the token of the pending countdown.
func (ts *TurnScheduler) CurrentToken() uint64 {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.token
}
