package poker

import (
	"math/rand"
	"testing"

	"github.com/decred/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testHand deals a hand with blinds 10/20 and a seeded deck.
func testHand(t *testing.T, button int, stacks ...int64) *Hand {
	t.Helper()
	players := testPlayers(stacks...)
	h := newHand("h-test", players, button, 10, 20,
		NewDeck(rand.New(rand.NewSource(7))), NewTurnScheduler(0, slog.Disabled), slog.Disabled)
	require.NoError(t, h.begin())
	return h
}

func TestBeginThreeHanded(t *testing.T) {
	h := testHand(t, 0, 1000, 1000, 1000)

	assert.Equal(t, 1, h.sbSeat)
	assert.Equal(t, 2, h.bbSeat)
	assert.Equal(t, 0, h.acting, "first actor is the seat after the big blind")
	assert.Equal(t, PhasePreFlop, h.phase)
	assert.Equal(t, int64(20), h.currentBet)
	assert.Equal(t, int64(30), h.pot.TotalPot())
	assert.True(t, h.bbOption)

	for _, p := range h.players {
		assert.Len(t, p.Hand, 2)
	}
	assert.Equal(t, 52-6, h.deck.Size())
}

func TestBeginHeadsUpButtonPostsSmallBlind(t *testing.T) {
	h := testHand(t, 0, 1000, 1000)

	assert.Equal(t, 0, h.sbSeat, "heads-up button is the small blind")
	assert.Equal(t, 1, h.bbSeat)
	assert.Equal(t, 0, h.acting, "heads-up button acts first pre-flop")
	assert.Equal(t, int64(10), h.players[0].CurrentBet)
	assert.Equal(t, int64(20), h.players[1].CurrentBet)
}

func TestBeginShortBigBlindStillOwesFullAmount(t *testing.T) {
	h := testHand(t, 0, 1000, 1000, 15)

	bb := h.players[2]
	assert.Equal(t, StatusAllIn, bb.Status)
	assert.Equal(t, int64(15), bb.CurrentBet)
	assert.Equal(t, int64(20), h.currentBet, "max bet is the full big blind")
	assert.False(t, h.bbOption, "an all-in blind seat has no option")
}

func TestApplyRejectsOutOfTurn(t *testing.T) {
	h := testHand(t, 0, 1000, 1000, 1000)
	err := h.apply(1, Fold())
	require.ErrorIs(t, err, ErrNotYourTurn)
	assert.Equal(t, StatusActive, h.players[1].Status)
}

func TestApplyActionLegality(t *testing.T) {
	h := testHand(t, 0, 1000, 1000, 1000)

	// Facing the big blind: no check, no fresh bet, no undersized raise.
	require.ErrorIs(t, h.apply(0, Check()), ErrCheckFacingBet)
	require.ErrorIs(t, h.apply(0, Bet(50)), ErrBetFacingBet)
	require.ErrorIs(t, h.apply(0, Raise(20)), ErrRaiseBelowBet)
	require.ErrorIs(t, h.apply(0, Raise(2000)), ErrInsufficientChips)
	assert.Equal(t, int64(0), h.pot.TotalBet(0), "rejected actions must not move chips")

	require.NoError(t, h.apply(0, Call()))
	require.NoError(t, h.advanceActing())
	require.NoError(t, h.apply(1, Call()))
	require.NoError(t, h.advanceActing())

	// Big blind already matches the max bet.
	require.ErrorIs(t, h.apply(2, Call()), ErrNothingToCall)
}

func TestBigBlindOptionHoldsRoundOpen(t *testing.T) {
	h := testHand(t, 0, 1000, 1000, 1000)

	require.NoError(t, h.apply(0, Call()))
	require.NoError(t, h.advanceActing())
	require.NoError(t, h.apply(1, Call()))
	require.NoError(t, h.advanceActing())
	assert.False(t, h.roundComplete(), "all bets equal but the big blind has not acted")

	require.NoError(t, h.apply(2, Check()))
	assert.False(t, h.bbOption)
	assert.True(t, h.roundComplete())
}

func TestBigBlindFoldForfeitsOption(t *testing.T) {
	h := testHand(t, 0, 1000, 1000, 1000)

	// The blind seat folds out of turn, as a mid-hand removal does.
	h.players[2].Fold()

	require.NoError(t, h.apply(0, Call()))
	require.NoError(t, h.advanceActing())
	require.NoError(t, h.apply(1, Call()))
	assert.True(t, h.roundComplete(), "a folded blind holds no option over the round")
}

func TestRaiseReopensAction(t *testing.T) {
	h := testHand(t, 0, 1000, 1000, 1000)

	require.NoError(t, h.apply(0, Call()))
	require.NoError(t, h.advanceActing())
	require.NoError(t, h.apply(1, Raise(100)))

	assert.Equal(t, int64(100), h.currentBet)
	assert.Equal(t, 1, h.lastAggressor)
	assert.False(t, h.players[0].HasActed, "a raise re-opens action for earlier callers")
	assert.True(t, h.players[1].HasActed)
	assert.False(t, h.roundComplete())
}

func TestAllInBelowCallDoesNotReopenAction(t *testing.T) {
	h := testHand(t, 0, 1000, 1000, 50)

	require.NoError(t, h.apply(0, Raise(100)))
	require.NoError(t, h.advanceActing())
	h.players[1].Fold()
	h.players[1].HasActed = true
	require.NoError(t, h.advanceActing())

	// Big blind shoves 50 total, short of the 100 to call.
	require.NoError(t, h.apply(2, AllIn()))
	assert.Equal(t, int64(100), h.currentBet, "a short all-in never lowers or raises the max bet")
	assert.True(t, h.players[0].HasActed, "the raiser owes no further action")
	assert.True(t, h.roundComplete())
}

func TestAdvancePhaseDealsStreets(t *testing.T) {
	h := testHand(t, 0, 1000, 1000, 1000)

	require.NoError(t, h.apply(0, Call()))
	require.NoError(t, h.advanceActing())
	require.NoError(t, h.apply(1, Call()))
	require.NoError(t, h.advanceActing())
	require.NoError(t, h.apply(2, Check()))
	require.True(t, h.roundComplete())

	require.NoError(t, h.advancePhase())
	assert.Equal(t, PhaseFlop, h.phase)
	assert.Len(t, h.community, 3)
	assert.Equal(t, int64(0), h.currentBet)
	assert.Equal(t, 1, h.acting, "post-flop action starts at the first eligible seat after the button")
	for _, p := range h.players {
		assert.Zero(t, p.CurrentBet)
		assert.False(t, p.HasActed)
	}

	require.NoError(t, h.advancePhase())
	assert.Equal(t, PhaseTurn, h.phase)
	assert.Len(t, h.community, 4)

	require.NoError(t, h.advancePhase())
	assert.Equal(t, PhaseRiver, h.phase)
	assert.Len(t, h.community, 5)

	require.NoError(t, h.advancePhase())
	assert.Equal(t, PhaseShowdown, h.phase)
	assert.Equal(t, -1, h.acting)
}

func TestRunoutDealsRemainingStreets(t *testing.T) {
	h := testHand(t, 0, 1000, 1000)
	require.NoError(t, h.runout())
	assert.Equal(t, PhaseShowdown, h.phase)
	assert.Len(t, h.community, 5)
}

func TestShowCardsOnlyAtShowdown(t *testing.T) {
	h := testHand(t, 0, 1000, 1000)
	require.ErrorIs(t, h.apply(0, ShowCards()), ErrNotAtShowdown)

	require.NoError(t, h.runout())
	require.NoError(t, h.apply(0, ShowCards()))
	assert.True(t, h.players[0].ShowedCards)

	h.players[1].Fold()
	require.ErrorIs(t, h.apply(1, ShowCards()), ErrInvalidAction)
}

func TestEvaluateShowdownRevealsSurvivors(t *testing.T) {
	h := testHand(t, 0, 1000, 1000, 1000)
	h.players[1].Fold()
	require.NoError(t, h.runout())

	require.NoError(t, h.evaluateShowdown(NewDefaultEvaluator()))
	for seat, p := range h.players {
		if seat == 1 {
			assert.Nil(t, p.HandValue)
			assert.False(t, p.ShowedCards)
			continue
		}
		require.NotNil(t, p.HandValue)
		assert.True(t, p.ShowedCards)
		assert.NotEmpty(t, p.HandDescription)
	}
}
