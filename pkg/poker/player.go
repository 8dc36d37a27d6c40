package poker

import (
	"fmt"
)

// PlayerStatus is the seat's standing within the current hand.
type PlayerStatus int

const (
	StatusActive PlayerStatus = iota
	StatusFolded
	StatusAllIn
	StatusSittingOut
)

// String returns the status name used in logs and snapshots.
func (s PlayerStatus) String() string {
	switch s {
	case StatusActive:
		return "ACTIVE"
	case StatusFolded:
		return "FOLDED"
	case StatusAllIn:
		return "ALL_IN"
	case StatusSittingOut:
		return "SITTING_OUT"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

// Player is the per-seat mutable account: chips, bets and status flags for
// the hand in progress. All mutation happens under the owning table's lock.
type Player struct {
	ID   string
	Name string

	// Seat is the stable dense index at the table; reassigned on removal.
	Seat int

	Stack      int64 // chips behind
	CurrentBet int64 // committed this betting round
	TotalBet   int64 // committed this hand, cumulative across rounds

	Status   PlayerStatus
	HasActed bool // acted at least once since the last bet/raise
	Leaving  bool // scheduled for removal at the next hand boundary

	Hand        []Card // 0 or 2 hole cards
	ShowedCards bool   // revealed at showdown

	// Populated during showdown.
	HandValue       *HandValue
	HandDescription string
}

// NewPlayer creates a player with the given starting stack.
func NewPlayer(id, name string, stack int64) *Player {
	return &Player{
		ID:     id,
		Name:   name,
		Seat:   -1,
		Stack:  stack,
		Status: StatusActive,
		Hand:   make([]Card, 0, 2),
	}
}

// PostBet moves amount from the stack into the current-round and hand
// totals. Posting more than the stack holds is a distinct error, never a
// clamp. A stack that lands on exactly zero marks the player all-in.
func (p *Player) PostBet(amount int64) error {
	if amount < 0 {
		return fmt.Errorf("%w: negative bet %d", ErrInvalidAction, amount)
	}
	if amount > p.Stack {
		return fmt.Errorf("%w: bet %d exceeds stack %d", ErrInsufficientChips, amount, p.Stack)
	}

	p.Stack -= amount
	p.CurrentBet += amount
	p.TotalBet += amount
	if p.Stack == 0 {
		p.Status = StatusAllIn
	}
	return nil
}

// Check is only legal when the player already matches the round's max bet.
func (p *Player) Check(maxBet int64) error {
	if p.CurrentBet != maxBet {
		return ErrCheckFacingBet
	}
	p.HasActed = true
	return nil
}

// Fold clears the hole cards and removes the player from further rotation
// this hand. Their contributed chips stay in the pot.
func (p *Player) Fold() {
	p.Hand = make([]Card, 0, 2)
	p.Status = StatusFolded
	p.HasActed = true
}

// InHand reports whether the player is still contending for pots.
func (p *Player) InHand() bool {
	return p.Status == StatusActive || p.Status == StatusAllIn
}

// CanAct reports whether the player is eligible to take a turn.
func (p *Player) CanAct() bool {
	return p.Status == StatusActive
}

// ResetForNewRound clears the per-round bet and acted flag, keeping the
// hand total and stack.
func (p *Player) ResetForNewRound() {
	p.CurrentBet = 0
	p.HasActed = false
}

// ResetForNewHand additionally clears the hand total, status flags, hole
// cards and showdown results.
func (p *Player) ResetForNewHand() {
	p.ResetForNewRound()
	p.TotalBet = 0
	p.Hand = make([]Card, 0, 2)
	p.ShowedCards = false
	p.HandValue = nil
	p.HandDescription = ""
	if p.Status != StatusSittingOut {
		p.Status = StatusActive
	}
}
