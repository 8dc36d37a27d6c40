package poker

import (
	"fmt"

	"github.com/decred/slog"
)

// GamePhase is the hand's betting phase.
type GamePhase int

const (
	PhaseWaiting GamePhase = iota
	PhasePreFlop
	PhaseFlop
	PhaseTurn
	PhaseRiver
	PhaseShowdown
)

// String returns the phase name used in logs, events and snapshots.
func (p GamePhase) String() string {
	switch p {
	case PhaseWaiting:
		return "WAITING"
	case PhasePreFlop:
		return "PRE_FLOP"
	case PhaseFlop:
		return "FLOP"
	case PhaseTurn:
		return "TURN"
	case PhaseRiver:
		return "RIVER"
	case PhaseShowdown:
		return "SHOWDOWN"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(p))
	}
}

// Hand is one played-out round of Hold'em: the betting-round state machine
// plus the cards and pot ledger it owns. A Hand is created by the table,
// mutated exclusively under the table's lock, and destroyed after the pot
// is distributed.
type Hand struct {
	id  string
	log slog.Logger

	phase     GamePhase
	deck      *Deck
	community []Card
	pot       *PotLedger

	// players is seat-ordered and shares Player pointers with the table.
	players []*Player

	button int
	sbSeat int
	bbSeat int

	acting        int
	lastAggressor int
	currentBet    int64 // the round's max bet

	// bbOption is the big blind's right to one voluntary action on the
	// pre-flop, even when nobody raised. Cleared the moment that seat acts
	// or is all-in from posting.
	bbOption bool

	smallBlind int64
	bigBlind   int64

	sched *TurnScheduler
}

// newHand wires up a hand over the given seat-ordered players. Blinds are
// not posted yet; the table calls begin().
func newHand(id string, players []*Player, button int, smallBlind, bigBlind int64,
	deck *Deck, sched *TurnScheduler, log slog.Logger) *Hand {
	return &Hand{
		id:            id,
		log:           log,
		phase:         PhaseWaiting,
		deck:          deck,
		pot:           NewPotLedger(log),
		players:       players,
		button:        button,
		acting:        -1,
		lastAggressor: -1,
		smallBlind:    smallBlind,
		bigBlind:      bigBlind,
		sched:         sched,
	}
}

// begin deals two hole cards to every seat, posts the blinds and enters
// PRE_FLOP with the acting pointer on the seat after the big blind.
func (h *Hand) begin() error {
	n := len(h.players)
	if n < 2 {
		return fmt.Errorf("%w: need at least 2 players, have %d", ErrInsufficientPlayers, n)
	}

	// Heads-up reverses the blind assignment: the button posts the small
	// blind and acts first pre-flop.
	if n == 2 {
		h.sbSeat = h.button
		h.bbSeat = (h.button + 1) % n
	} else {
		h.sbSeat = (h.button + 1) % n
		h.bbSeat = (h.button + 2) % n
	}

	// Two hole cards each, dealt round-robin starting left of the button.
	for i := 0; i < 2; i++ {
		for j := 1; j <= n; j++ {
			seat := (h.button + j) % n
			card, ok := h.deck.Draw()
			if !ok {
				return fmt.Errorf("%w: deck exhausted dealing hole cards", ErrInternalInconsistency)
			}
			h.players[seat].Hand = append(h.players[seat].Hand, card)
		}
	}

	h.postBlind(h.sbSeat, h.smallBlind)
	h.postBlind(h.bbSeat, h.bigBlind)

	// The max bet is the full big blind even when the blind seat could not
	// cover it; callers still owe the full amount.
	h.currentBet = h.bigBlind
	h.bbOption = h.players[h.bbSeat].CanAct()
	h.phase = PhasePreFlop

	h.log.Debugf("hand %s: button=%d sb=%d bb=%d", h.id, h.button, h.sbSeat, h.bbSeat)

	actor, err := h.sched.NextActor(h.players, h.bbSeat)
	if err != nil {
		// Everyone is all-in from the blinds; completion logic takes over.
		h.acting = -1
		return nil
	}
	h.acting = actor
	return nil
}

// postBlind force-posts up to amount. A short stack goes all-in for what
// it has; this is the one place a bet is clamped rather than rejected.
func (h *Hand) postBlind(seat int, amount int64) {
	p := h.players[seat]
	if amount > p.Stack {
		amount = p.Stack
	}
	// Cannot fail: amount was just clamped to the stack.
	if err := p.PostBet(amount); err != nil {
		h.log.Errorf("hand %s: blind post failed for seat %d: %v", h.id, seat, err)
		return
	}
	h.pot.AddBet(seat, amount)
}

// seatOf resolves a player ID to their seat in this hand.
func (h *Hand) seatOf(playerID string) (int, error) {
	for seat, p := range h.players {
		if p != nil && p.ID == playerID {
			return seat, nil
		}
	}
	return -1, fmt.Errorf("%w: player %s not in hand", ErrNotFound, playerID)
}

// apply validates and executes one action for the given seat. Rejected
// actions leave all state untouched.
func (h *Hand) apply(seat int, a Action) error {
	if a.Kind == ActionShowCards {
		if h.phase != PhaseShowdown {
			return ErrNotAtShowdown
		}
		p := h.players[seat]
		if !p.InHand() {
			return fmt.Errorf("%w: folded players have no cards to show", ErrInvalidAction)
		}
		p.ShowedCards = true
		return nil
	}

	if h.phase < PhasePreFlop || h.phase > PhaseRiver {
		return ErrNoHandInProgress
	}
	if seat != h.acting {
		return ErrNotYourTurn
	}

	p := h.players[seat]
	toCall := h.currentBet - p.CurrentBet

	switch a.Kind {
	case ActionFold:
		p.Fold()

	case ActionCheck:
		if err := p.Check(h.currentBet); err != nil {
			return err
		}

	case ActionCall:
		if toCall <= 0 {
			return ErrNothingToCall
		}
		if p.Stack < toCall {
			return fmt.Errorf("%w: call of %d with stack %d, go all-in instead", ErrInsufficientChips, toCall, p.Stack)
		}
		if err := h.post(seat, toCall); err != nil {
			return err
		}
		p.HasActed = true

	case ActionBet:
		if h.currentBet != 0 {
			return ErrBetFacingBet
		}
		if a.Amount <= 0 {
			return fmt.Errorf("%w: bet amount must be positive", ErrInvalidAction)
		}
		if a.Amount > p.Stack {
			return fmt.Errorf("%w: bet %d exceeds stack %d", ErrInsufficientChips, a.Amount, p.Stack)
		}
		if err := h.post(seat, a.Amount); err != nil {
			return err
		}
		h.aggress(seat)

	case ActionRaise:
		if h.currentBet == 0 {
			return ErrNoBetToRaise
		}
		if a.Amount <= h.currentBet {
			return ErrRaiseBelowBet
		}
		delta := a.Amount - p.CurrentBet
		if delta > p.Stack {
			return fmt.Errorf("%w: raise to %d needs %d more, stack is %d", ErrInsufficientChips, a.Amount, delta, p.Stack)
		}
		if err := h.post(seat, delta); err != nil {
			return err
		}
		h.aggress(seat)

	case ActionAllIn:
		if p.Stack <= 0 {
			return fmt.Errorf("%w: no chips to go all-in with", ErrInsufficientChips)
		}
		raises := p.CurrentBet+p.Stack > h.currentBet
		if err := h.post(seat, p.Stack); err != nil {
			return err
		}
		if raises {
			h.aggress(seat)
		} else {
			p.HasActed = true
		}

	default:
		return fmt.Errorf("%w: unknown action kind %v", ErrInvalidAction, a.Kind)
	}

	if h.phase == PhasePreFlop && seat == h.bbSeat {
		h.bbOption = false
	}
	return nil
}

// post moves chips into the pot atomically with the stack debit.
func (h *Hand) post(seat int, amount int64) error {
	if err := h.players[seat].PostBet(amount); err != nil {
		return err
	}
	h.pot.AddBet(seat, amount)
	return nil
}

// aggress records a bet or raise: the aggressor has acted, everyone else
// still in contention owes another decision.
func (h *Hand) aggress(seat int) {
	h.currentBet = h.players[seat].CurrentBet
	h.lastAggressor = seat
	for i, p := range h.players {
		if p == nil || i == seat {
			continue
		}
		if p.CanAct() {
			p.HasActed = false
		}
	}
	h.players[seat].HasActed = true
}

// advanceActing moves the turn pointer to the next eligible seat.
func (h *Hand) advanceActing() error {
	actor, err := h.sched.NextActor(h.players, h.acting)
	if err != nil {
		return err
	}
	h.acting = actor
	return nil
}

// roundComplete is the single phase-parametrized closure predicate: every
// player who can still act has acted since the last aggression and matches
// the max bet, and on the pre-flop the big blind has had their option. The
// option only holds while that seat can still act; a blind that folds out
// of turn (seat removal) or goes all-in forfeits it.
func (h *Hand) roundComplete() bool {
	for _, p := range h.players {
		if p == nil || !p.CanAct() {
			continue
		}
		if !p.HasActed || p.CurrentBet != h.currentBet {
			return false
		}
	}
	if h.phase == PhasePreFlop && h.bbOption && h.players[h.bbSeat].CanAct() {
		return false
	}
	return true
}

// countInHand returns the players still contending for pots.
func (h *Hand) countInHand() int {
	n := 0
	for _, p := range h.players {
		if p != nil && p.InHand() {
			n++
		}
	}
	return n
}

// countActive returns the players who can still take actions.
func (h *Hand) countActive() int {
	n := 0
	for _, p := range h.players {
		if p != nil && p.CanAct() {
			n++
		}
	}
	return n
}

// advancePhase deals the next street (3/1/1 community cards), resets the
// per-round bet state and puts the action on the first eligible seat after
// the button.
func (h *Hand) advancePhase() error {
	var deal int
	var next GamePhase
	switch h.phase {
	case PhasePreFlop:
		deal, next = 3, PhaseFlop
	case PhaseFlop:
		deal, next = 1, PhaseTurn
	case PhaseTurn:
		deal, next = 1, PhaseRiver
	case PhaseRiver:
		h.phase = PhaseShowdown
		h.acting = -1
		return nil
	default:
		return fmt.Errorf("%w: cannot advance from phase %v", ErrInternalInconsistency, h.phase)
	}

	for i := 0; i < deal; i++ {
		card, ok := h.deck.Draw()
		if !ok {
			return fmt.Errorf("%w: deck exhausted dealing %v", ErrInternalInconsistency, next)
		}
		h.community = append(h.community, card)
	}

	for _, p := range h.players {
		if p != nil {
			p.ResetForNewRound()
		}
	}
	h.pot.ResetCurrentBets()
	h.currentBet = 0
	h.lastAggressor = -1
	h.phase = next

	if actor, err := h.sched.NextActor(h.players, h.button); err == nil {
		h.acting = actor
	} else {
		h.acting = -1
	}
	return nil
}

// runout deals all remaining community cards back-to-back. Used when
// betting is finished early because everyone left is all-in.
func (h *Hand) runout() error {
	for h.phase != PhaseShowdown {
		if err := h.advancePhase(); err != nil {
			return err
		}
	}
	return nil
}

// evaluateShowdown ranks every surviving hand and reveals it.
func (h *Hand) evaluateShowdown(evaluator HandEvaluator) error {
	for _, p := range h.players {
		if p == nil || !p.InHand() {
			continue
		}
		hv, err := evaluator.Evaluate(p.Hand, h.community)
		if err != nil {
			return err
		}
		p.HandValue = &hv
		p.HandDescription = hv.Description
		p.ShowedCards = true
	}
	return nil
}
