package poker

import (
	"fmt"
	"math/rand"
	"reflect"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/decred/slog"
	"github.com/google/uuid"

	"github.com/felttable/holdem/pkg/statemachine"
)

// TableStateFn is a table lifecycle state following Rob Pike's pattern.
type TableStateFn = statemachine.StateFn[Table]

// tableStateWaiting: idle between hands or below the player minimum.
func tableStateWaiting(t *Table) TableStateFn {
	return tableStateWaiting
}

// tableStateHandActive: a hand is in progress.
func tableStateHandActive(t *Table) TableStateFn {
	if t.hand == nil {
		return tableStateWaiting
	}
	return tableStateHandActive
}

// TableConfig holds configuration for a new table.
type TableConfig struct {
	ID             string
	Log            slog.Logger
	MaxSeats       int
	SmallBlind     int64
	BigBlind       int64
	TimeBank       time.Duration // 0 disables the turn countdown
	AutoStartDelay time.Duration // 0 disables automatic next-hand starts
	Evaluator      HandEvaluator // nil gets the chehsunliu-backed default
	Seed           int64         // deterministic decks when non-zero
}

// HandResult records how the last completed hand settled.
type HandResult struct {
	HandID    string
	TotalPot  int64
	Awards    []PotAward
	WonByFold bool
}

// Table owns one table's seats and its in-progress hand. All mutation is
// serialized through a single mutex: incoming actions, the turn countdown
// and the auto-start delay all funnel through it, so no two mutations of
// the same hand can ever interleave. Independent tables share nothing.
type Table struct {
	mu  sync.Mutex
	log slog.Logger
	cfg TableConfig

	seats  []*Player
	button int

	hand        *Hand
	handCounter uint64
	lastResult  *HandResult

	rng   *rand.Rand
	sched *TurnScheduler

	lifecycle *statemachine.StateMachine[Table]
	started   bool

	notifier NotificationSink
	persist  PersistenceSink

	autoStartToken uint64
	autoStartTimer *time.Timer
}

// NewTable creates an empty table in the WAITING state.
func NewTable(cfg TableConfig) *Table {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.Log == nil {
		cfg.Log = slog.Disabled
	}
	if cfg.MaxSeats <= 0 {
		cfg.MaxSeats = 9
	}
	if cfg.Evaluator == nil {
		cfg.Evaluator = NewDefaultEvaluator()
	}

	var rng *rand.Rand
	if cfg.Seed != 0 {
		rng = rand.New(rand.NewSource(cfg.Seed))
	} else {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	t := &Table{
		log:   cfg.Log,
		cfg:   cfg,
		rng:   rng,
		sched: NewTurnScheduler(cfg.TimeBank, cfg.Log),
	}
	t.lifecycle = statemachine.New(t, tableStateWaiting)
	return t
}

// ID returns the table identifier.
func (t *Table) ID() string { return t.cfg.ID }

// SetNotificationSink attaches the event sink. Publishes happen under the
// table lock, so the sink must not block.
func (t *Table) SetNotificationSink(sink NotificationSink) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notifier = sink
}

// SetPersistenceSink attaches the snapshot sink.
func (t *Table) SetPersistenceSink(sink PersistenceSink) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.persist = sink
}

// StateName returns the lifecycle state for logs and tests.
func (t *Table) StateName() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stateNameLocked()
}

func (t *Table) stateNameLocked() string {
	switch {
	case t.inStateLocked(tableStateHandActive):
		return "HAND_ACTIVE"
	case t.inStateLocked(tableStateWaiting):
		return "WAITING"
	default:
		return "TERMINATED"
	}
}

// inStateLocked reports whether the lifecycle machine sits in the given
// state. State functions are top-level funcs, so pointer identity is
// stable.
func (t *Table) inStateLocked(s TableStateFn) bool {
	cur := t.lifecycle.Current()
	if cur == nil {
		return false
	}
	return reflect.ValueOf(cur).Pointer() == reflect.ValueOf(s).Pointer()
}

// SeatPlayer adds a player with the given buy-in to the next free seat.
// If the table was waiting after a started game and now has two funded
// seats again, the next hand starts immediately.
func (t *Table) SeatPlayer(id, name string, buyIn int64) (*Player, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.seats) >= t.cfg.MaxSeats {
		return nil, fmt.Errorf("%w: table is full", ErrInvalidAction)
	}
	for _, p := range t.seats {
		if p.ID == id {
			return nil, fmt.Errorf("%w: player %s already seated", ErrInvalidAction, id)
		}
	}

	p := NewPlayer(id, name, buyIn)
	p.Seat = len(t.seats)
	t.seats = append(t.seats, p)
	t.log.Debugf("table %s: seated %s at %d with %d chips", t.cfg.ID, id, p.Seat, buyIn)

	if t.started && t.hand == nil && t.autoStartTimer == nil && t.fundedCountLocked() >= 2 {
		if err := t.startNewHandLocked(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// RemoveSeat removes a player. With no hand running the seat is compacted
// immediately; mid-hand the player is folded and the removal deferred to
// the hand boundary so seat indices stay stable for the pot ledger.
func (t *Table) RemoveSeat(playerID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := -1
	for i, p := range t.seats {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: player %s not seated", ErrNotFound, playerID)
	}

	p := t.seats[idx]
	if t.hand != nil {
		seat, err := t.hand.seatOf(playerID)
		if err == nil && t.hand.players[seat].InHand() {
			p.Leaving = true
			wasActing := t.hand.acting == seat
			t.hand.players[seat].Fold()
			t.publishLocked(Event{Type: EventPlayerActed, HandID: t.hand.id, Seat: seat, PlayerID: playerID, Action: ActionFold})
			if wasActing {
				t.sched.Cancel()
				t.afterActionLocked()
			} else {
				t.checkCompletionLocked()
			}
			t.syncLocked()
			return nil
		}
		p.Leaving = true
		return nil
	}

	t.removeSeatAtLocked(idx)
	if t.started && len(t.seats) < 2 {
		t.enterWaitingLocked()
	}
	t.syncLocked()
	return nil
}

// removeSeatAtLocked drops a seat and reassigns dense indices.
func (t *Table) removeSeatAtLocked(idx int) {
	t.seats = append(t.seats[:idx], t.seats[idx+1:]...)
	for i, p := range t.seats {
		p.Seat = i
	}
	if idx <= t.button && t.button > 0 {
		t.button--
	}
	if t.button >= len(t.seats) {
		t.button = 0
	}
}

// StartGame begins play. It requires at least two seats, every one funded
// at or above the big blind.
func (t *Table) StartGame() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.inStateLocked(tableStateHandActive) {
		return fmt.Errorf("%w: hand already in progress", ErrInvalidAction)
	}
	if len(t.seats) < 2 {
		return fmt.Errorf("%w: need at least 2 seats, have %d", ErrInsufficientPlayers, len(t.seats))
	}
	for _, p := range t.seats {
		if p.Stack < t.cfg.BigBlind {
			return fmt.Errorf("%w: seat %d has %d chips, big blind is %d",
				ErrInsufficientPlayers, p.Seat, p.Stack, t.cfg.BigBlind)
		}
	}

	t.started = true
	return t.startNewHandLocked()
}

// StartNextHand starts the next hand manually. Used when AutoStartDelay is
// zero and by external schedulers.
func (t *Table) StartNextHand() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started {
		return fmt.Errorf("%w: game has not been started", ErrInvalidAction)
	}
	if t.inStateLocked(tableStateHandActive) {
		return fmt.Errorf("%w: hand already in progress", ErrInvalidAction)
	}
	return t.startNewHandLocked()
}

// startNewHandLocked sweeps departed and busted seats, rotates the button,
// shuffles and deals. With fewer than two funded seats left it enters
// WAITING instead of failing.
func (t *Table) startNewHandLocked() error {
	t.cancelAutoStartLocked()

	// Seats leaving or unable to cover the big blind are removed at the
	// hand boundary.
	for i := len(t.seats) - 1; i >= 0; i-- {
		p := t.seats[i]
		if p.Leaving || p.Stack < t.cfg.BigBlind {
			t.log.Debugf("table %s: removing %s at hand boundary (leaving=%v stack=%d)",
				t.cfg.ID, p.ID, p.Leaving, p.Stack)
			t.removeSeatAtLocked(i)
		}
	}

	if len(t.seats) < 2 {
		t.enterWaitingLocked()
		return nil
	}

	for _, p := range t.seats {
		p.ResetForNewHand()
	}

	if t.handCounter > 0 {
		t.button = (t.button + 1) % len(t.seats)
	}
	t.handCounter++

	players := make([]*Player, len(t.seats))
	copy(players, t.seats)

	deck := NewDeck(t.rng)
	hand := newHand(uuid.NewString(), players, t.button, t.cfg.SmallBlind, t.cfg.BigBlind,
		deck, t.sched, t.log)
	if err := hand.begin(); err != nil {
		t.abortLocked(err)
		return err
	}
	t.hand = hand
	t.lifecycle.Dispatch(tableStateHandActive)

	t.publishLocked(Event{Type: EventHandStarted, HandID: hand.id, Phase: PhasePreFlop})
	t.log.Infof("table %s: hand %d started, button=%d", t.cfg.ID, t.handCounter, t.button)

	if hand.roundComplete() {
		t.advanceRoundsLocked()
	} else {
		t.beginTurnLocked()
	}
	t.syncLocked()
	return nil
}

// HandleAction validates and applies one player action. Rejected actions
// mutate nothing and leave the turn countdown running.
func (t *Table) HandleAction(playerID string, a Action) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if a.Kind == ActionShowCards {
		return t.showCardsLocked(playerID)
	}

	if !t.inStateLocked(tableStateHandActive) || t.hand == nil {
		return ErrNoHandInProgress
	}
	seat, err := t.hand.seatOf(playerID)
	if err != nil {
		return err
	}

	if err := t.hand.apply(seat, a); err != nil {
		return err
	}

	// The action won the turn: invalidate the countdown before any
	// downstream mutation. A callback that already fired is blocked on the
	// table lock and will fail to claim its token.
	t.sched.Cancel()

	t.publishLocked(Event{
		Type:     EventPlayerActed,
		HandID:   t.hand.id,
		Seat:     seat,
		PlayerID: playerID,
		Action:   a.Kind,
		Amount:   t.hand.players[seat].CurrentBet,
	})

	t.afterActionLocked()
	t.syncLocked()
	return nil
}

// showCardsLocked reveals a player's hole cards. During a live hand this
// is only legal at showdown; after settlement the reveal window stays
// open until the next hand is dealt, so a fold winner can show the hand
// nobody paid to see.
func (t *Table) showCardsLocked(playerID string) error {
	if t.hand != nil {
		seat, err := t.hand.seatOf(playerID)
		if err != nil {
			return err
		}
		if err := t.hand.apply(seat, ShowCards()); err != nil {
			return err
		}
		t.publishLocked(Event{Type: EventPlayerActed, HandID: t.hand.id, Seat: seat, PlayerID: playerID, Action: ActionShowCards})
		t.syncLocked()
		return nil
	}

	if t.lastResult == nil {
		return ErrNoHandInProgress
	}
	for _, p := range t.seats {
		if p.ID != playerID {
			continue
		}
		if len(p.Hand) == 0 {
			return fmt.Errorf("%w: no cards to show", ErrInvalidAction)
		}
		p.ShowedCards = true
		t.publishLocked(Event{Type: EventPlayerActed, HandID: t.lastResult.HandID, Seat: p.Seat, PlayerID: playerID, Action: ActionShowCards})
		t.syncLocked()
		return nil
	}
	return fmt.Errorf("%w: player %s not seated", ErrNotFound, playerID)
}

// handleTurnTimeout is the countdown callback: an expired turn is exactly
// a fold by the acting seat, including all downstream completion effects.
func (t *Table) handleTurnTimeout(token uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.hand == nil || !t.sched.Claim(token) {
		return
	}
	seat := t.hand.acting
	if seat < 0 || seat >= len(t.hand.players) {
		return
	}
	p := t.hand.players[seat]
	t.log.Infof("table %s: seat %d (%s) timed out, auto-folding", t.cfg.ID, seat, p.ID)

	if err := t.hand.apply(seat, Fold()); err != nil {
		t.abortLocked(fmt.Errorf("%w: auto-fold rejected: %v", ErrInternalInconsistency, err))
		return
	}
	t.publishLocked(Event{Type: EventPlayerActed, HandID: t.hand.id, Seat: seat, PlayerID: p.ID, Action: ActionFold})
	t.afterActionLocked()
	t.syncLocked()
}

// afterActionLocked advances the hand after the acting seat resolved.
func (t *Table) afterActionLocked() {
	h := t.hand
	if h == nil {
		return
	}
	if h.countInHand() <= 1 {
		t.settleLocked(true)
		return
	}
	if h.roundComplete() {
		t.advanceRoundsLocked()
		return
	}
	if err := h.advanceActing(); err != nil {
		t.abortLocked(err)
		return
	}
	t.beginTurnLocked()
}

// checkCompletionLocked re-evaluates the hand after an out-of-turn fold
// (seat removal); the departing fold may have settled or closed the round.
func (t *Table) checkCompletionLocked() {
	h := t.hand
	if h == nil {
		return
	}
	if h.countInHand() <= 1 {
		t.sched.Cancel()
		t.settleLocked(true)
		return
	}
	if h.roundComplete() {
		t.sched.Cancel()
		t.advanceRoundsLocked()
	}
}

// advanceRoundsLocked moves to the next street once a betting round is
// closed. If at most one player can still act, the remaining streets are
// dealt back-to-back and the hand goes straight to showdown.
func (t *Table) advanceRoundsLocked() {
	h := t.hand
	if h.countActive() <= 1 {
		h.pot.ReturnUncalled(h.players)
		if err := h.runout(); err != nil {
			t.abortLocked(err)
			return
		}
		t.settleLocked(false)
		return
	}
	if err := h.advancePhase(); err != nil {
		t.abortLocked(err)
		return
	}
	if h.phase == PhaseShowdown {
		t.settleLocked(false)
		return
	}
	t.publishLocked(Event{Type: EventPhaseAdvanced, HandID: h.id, Phase: h.phase})
	t.beginTurnLocked()
}

// beginTurnLocked starts the countdown for the acting seat.
func (t *Table) beginTurnLocked() {
	h := t.hand
	if h == nil || h.acting < 0 {
		return
	}
	p := h.players[h.acting]
	t.sched.StartCountdown(t.handleTurnTimeout)
	t.publishLocked(Event{
		Type:     EventTurnStarted,
		HandID:   h.id,
		Seat:     h.acting,
		PlayerID: p.ID,
		Amount:   h.currentBet - p.CurrentBet,
		Phase:    h.phase,
	})
}

// settleLocked distributes the pots and closes out the hand. byFold marks
// the uncontested path: no cards are evaluated or revealed.
func (t *Table) settleLocked(byFold bool) {
	h := t.hand
	h.pot.ReturnUncalled(h.players)

	if !byFold {
		h.phase = PhaseShowdown
		h.acting = -1
		if err := h.evaluateShowdown(t.cfg.Evaluator); err != nil {
			t.abortLocked(err)
			return
		}
	}

	pots, err := h.pot.BuildPots(h.players)
	if err != nil {
		t.abortLocked(err)
		return
	}
	awards, err := h.pot.Distribute(h.players, pots)
	if err != nil {
		t.abortLocked(err)
		return
	}

	result := &HandResult{
		HandID:    h.id,
		TotalPot:  h.pot.TotalPot(),
		Awards:    awards,
		WonByFold: byFold,
	}
	t.lastResult = result

	for i := range awards {
		award := awards[i]
		t.publishLocked(Event{Type: EventPotAwarded, HandID: h.id, Amount: award.Amount, Award: &award})
	}
	t.publishLocked(Event{Type: EventHandEnded, HandID: h.id, Amount: result.TotalPot})
	t.log.Infof("table %s: hand %s ended, pot=%d byFold=%v", t.cfg.ID, h.id, result.TotalPot, byFold)

	t.sched.Cancel()
	t.syncLocked() // terminal snapshot, showdown hands revealed
	t.hand = nil
	t.lifecycle.Step()

	if t.fundedCountLocked() < 2 {
		t.enterWaitingLocked()
		return
	}
	if t.cfg.AutoStartDelay > 0 {
		t.scheduleAutoStartLocked()
	}
}

// abortLocked handles a violated invariant: dump the hand state, discard
// the hand and force WAITING rather than risk the chip accounting.
func (t *Table) abortLocked(err error) {
	t.log.Errorf("table %s: aborting hand: %v", t.cfg.ID, err)
	if t.hand != nil {
		t.log.Errorf("table %s: hand state at abort:\n%s", t.cfg.ID, spew.Sdump(t.hand))
	}
	t.enterWaitingLocked()
}

// enterWaitingLocked cancels all pending timers, discards any hand and
// idles until the table is re-populated.
func (t *Table) enterWaitingLocked() {
	t.sched.Cancel()
	t.cancelAutoStartLocked()
	t.hand = nil
	t.lifecycle.Dispatch(tableStateWaiting)
	t.publishLocked(Event{Type: EventEnteredWaiting})
	t.syncLocked()
}

// scheduleAutoStartLocked arms the delayed next-hand start. A token guards
// against stale timers, mirroring the turn countdown.
func (t *Table) scheduleAutoStartLocked() {
	t.autoStartToken++
	token := t.autoStartToken
	t.autoStartTimer = time.AfterFunc(t.cfg.AutoStartDelay, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if token != t.autoStartToken || t.hand != nil {
			return
		}
		t.autoStartTimer = nil
		if err := t.startNewHandLocked(); err != nil {
			t.log.Errorf("table %s: auto-start failed: %v", t.cfg.ID, err)
		}
	})
}

func (t *Table) cancelAutoStartLocked() {
	t.autoStartToken++
	if t.autoStartTimer != nil {
		t.autoStartTimer.Stop()
		t.autoStartTimer = nil
	}
}

// fundedCountLocked counts seats that can post a big blind next hand.
func (t *Table) fundedCountLocked() int {
	n := 0
	for _, p := range t.seats {
		if !p.Leaving && p.Stack >= t.cfg.BigBlind {
			n++
		}
	}
	return n
}

// publishLocked stamps and forwards an event.
func (t *Table) publishLocked(ev Event) {
	if t.notifier == nil {
		return
	}
	ev.TableID = t.cfg.ID
	ev.Timestamp = time.Now()
	t.notifier.Publish(ev)
}

// syncLocked projects the public state to the persistence sink.
func (t *Table) syncLocked() {
	if t.persist == nil {
		return
	}
	t.persist.SyncState(t.snapshotLocked())
}

// Snapshot returns the public table state. Hole cards appear only for
// players who have shown them.
func (t *Table) Snapshot() TableSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Table) snapshotLocked() TableSnapshot {
	snap := TableSnapshot{
		TableID:     t.cfg.ID,
		HandCounter: t.handCounter,
		Phase:       PhaseWaiting,
		Button:      t.button,
		ActingSeat:  -1,
		Timestamp:   time.Now(),
	}

	h := t.hand
	if h != nil {
		snap.HandID = h.id
		snap.Phase = h.phase
		snap.ActingSeat = h.acting
		snap.CurrentBet = h.currentBet
		snap.CommunityCards = append([]Card(nil), h.community...)
		snap.TotalPot = h.pot.TotalPot()
		if pots, err := h.pot.BuildPots(h.players); err == nil {
			for _, pot := range pots {
				ps := PotSnapshot{Amount: pot.Amount, Main: pot.Main}
				for _, seat := range pot.eligibleSeats() {
					ps.EligibleIDs = append(ps.EligibleIDs, h.players[seat].ID)
				}
				snap.Pots = append(snap.Pots, ps)
			}
		} else {
			t.log.Errorf("table %s: snapshot pot computation: %v", t.cfg.ID, err)
		}
	}
	snap.PhaseName = snap.Phase.String()

	for i, p := range t.seats {
		ss := SeatSnapshot{
			ID:         p.ID,
			Name:       p.Name,
			Seat:       p.Seat,
			Stack:      p.Stack,
			CurrentBet: p.CurrentBet,
			TotalBet:   p.TotalBet,
			Status:     p.Status,
			StatusName: p.Status.String(),
			HasActed:   p.HasActed,
			IsButton:   i == t.button,
			IsTurn:     h != nil && i == h.acting,
		}
		if p.ShowedCards {
			ss.HoleCards = append([]Card(nil), p.Hand...)
			ss.HandDesc = p.HandDescription
		}
		snap.Seats = append(snap.Seats, ss)
	}
	return snap
}

// Phase returns the current hand phase, or WAITING between hands.
func (t *Table) Phase() GamePhase {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.hand == nil {
		return PhaseWaiting
	}
	return t.hand.phase
}

// CurrentActorID returns the player whose turn it is, or "".
func (t *Table) CurrentActorID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.hand == nil || t.hand.acting < 0 {
		return ""
	}
	return t.hand.players[t.hand.acting].ID
}

// LastResult returns the settlement of the most recently completed hand.
func (t *Table) LastResult() *HandResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastResult
}

// HandCounter returns how many hands have been started.
func (t *Table) HandCounter() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.handCounter
}

// Seats returns the seated players in seat order. The pointers are live;
// callers outside tests should prefer Snapshot.
func (t *Table) Seats() []*Player {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Player, len(t.seats))
	copy(out, t.seats)
	return out
}
