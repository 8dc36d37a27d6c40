package poker

import (
	"errors"
	"fmt"
)

// The four error kinds surfaced by the engine. Specific causes wrap one of
// these, so callers branch with errors.Is.
var (
	// ErrInvalidAction covers out-of-turn submissions and actions that are
	// illegal for the current bet state. Nothing is mutated.
	ErrInvalidAction = errors.New("invalid action")

	// ErrNotFound means the referenced player or seat is unknown.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientPlayers means a hand or game cannot start with fewer
	// than two funded seats. The table degrades to WAITING instead of
	// treating this as fatal.
	ErrInsufficientPlayers = errors.New("insufficient players")

	// ErrInternalInconsistency indicates a violated invariant (e.g. pot
	// computation with no eligible players). The hand is aborted and the
	// table forced to WAITING rather than risking the chip accounting.
	ErrInternalInconsistency = errors.New("internal inconsistency")
)

// Specific invalid-action causes.
var (
	ErrNotYourTurn       = fmt.Errorf("%w: not your turn to act", ErrInvalidAction)
	ErrCheckFacingBet    = fmt.Errorf("%w: cannot check facing a bet", ErrInvalidAction)
	ErrNothingToCall     = fmt.Errorf("%w: nothing to call", ErrInvalidAction)
	ErrBetFacingBet      = fmt.Errorf("%w: cannot bet facing a bet, raise instead", ErrInvalidAction)
	ErrNoBetToRaise      = fmt.Errorf("%w: no bet to raise", ErrInvalidAction)
	ErrRaiseBelowBet     = fmt.Errorf("%w: raise must exceed the current bet", ErrInvalidAction)
	ErrInsufficientChips = fmt.Errorf("%w: insufficient chips", ErrInvalidAction)
	ErrNoHandInProgress  = fmt.Errorf("%w: no hand in progress", ErrInvalidAction)
	ErrNotAtShowdown     = fmt.Errorf("%w: cards can only be shown at showdown", ErrInvalidAction)
)
