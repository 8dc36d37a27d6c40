package poker

import "fmt"

// ActionKind enumerates the closed set of player actions. The betting
// engine validates each kind exhaustively; there is no string dispatch.
type ActionKind int

const (
	ActionFold ActionKind = iota
	ActionCheck
	ActionCall
	ActionBet
	ActionRaise
	ActionAllIn
	ActionShowCards
)

// String returns the action name used in logs and events.
func (k ActionKind) String() string {
	switch k {
	case ActionFold:
		return "fold"
	case ActionCheck:
		return "check"
	case ActionCall:
		return "call"
	case ActionBet:
		return "bet"
	case ActionRaise:
		return "raise"
	case ActionAllIn:
		return "all-in"
	case ActionShowCards:
		return "show-cards"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Action is a single submitted player action. Amount is only meaningful
// for ActionBet (the amount to bet) and ActionRaise (the total to raise
// to); it is ignored for every other kind.
type Action struct {
	Kind   ActionKind
	Amount int64
}

// Fold returns a fold action.
func Fold() Action { return Action{Kind: ActionFold} }

// Check returns a check action.
func Check() Action { return Action{Kind: ActionCheck} }

// Call returns a call action.
func Call() Action { return Action{Kind: ActionCall} }

// Bet returns a bet of the given amount.
func Bet(amount int64) Action { return Action{Kind: ActionBet, Amount: amount} }

// Raise returns a raise to the given total bet.
func Raise(to int64) Action { return Action{Kind: ActionRaise, Amount: to} }

// AllIn returns an all-in action.
func AllIn() Action { return Action{Kind: ActionAllIn} }

// ShowCards returns a show-cards action.
func ShowCards() Action { return Action{Kind: ActionShowCards} }
