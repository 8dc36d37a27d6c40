package poker

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPlayers builds seat-ordered players p1..pn with the given stacks.
func testPlayers(stacks ...int64) []*Player {
	players := make([]*Player, len(stacks))
	for i, s := range stacks {
		id := fmt.Sprintf("p%d", i+1)
		players[i] = NewPlayer(id, id, s)
		players[i].Seat = i
	}
	return players
}

// contribute posts chips through the player and records them in the ledger,
// the way the betting engine does.
func contribute(t *testing.T, pl *PotLedger, players []*Player, seat int, amount int64) {
	t.Helper()
	require.NoError(t, players[seat].PostBet(amount))
	pl.AddBet(seat, amount)
}

func TestBuildPotsSingleLevelCollapses(t *testing.T) {
	players := testPlayers(1000, 1000, 1000)
	pl := NewPotLedger(nil)
	for seat := range players {
		contribute(t, pl, players, seat, 100)
	}

	pots, err := pl.BuildPots(players)
	require.NoError(t, err)
	require.Len(t, pots, 1)
	assert.True(t, pots[0].Main)
	assert.Equal(t, int64(300), pots[0].Amount)
	assert.Equal(t, []int{0, 1, 2}, pots[0].eligibleSeats())
}

func TestBuildPotsOneLayerPerDistinctStake(t *testing.T) {
	// p1 all-in for 50, p2 and p3 each in for 100: two distinct stakes,
	// two layers.
	players := testPlayers(50, 1000, 1000)
	pl := NewPotLedger(nil)
	contribute(t, pl, players, 0, 50)
	contribute(t, pl, players, 1, 100)
	contribute(t, pl, players, 2, 100)

	pots, err := pl.BuildPots(players)
	require.NoError(t, err)
	require.Len(t, pots, 2)

	assert.True(t, pots[0].Main)
	assert.Equal(t, int64(150), pots[0].Amount)
	assert.Equal(t, []int{0, 1, 2}, pots[0].eligibleSeats())

	assert.False(t, pots[1].Main)
	assert.Equal(t, int64(100), pots[1].Amount)
	assert.Equal(t, []int{1, 2}, pots[1].eligibleSeats())

	assert.Equal(t, pl.TotalPot(), pots[0].Amount+pots[1].Amount)
}

func TestBuildPotsFoldedPlayerFundsButNeverEligible(t *testing.T) {
	players := testPlayers(1000, 1000, 1000)
	pl := NewPotLedger(nil)
	contribute(t, pl, players, 0, 60)
	contribute(t, pl, players, 1, 100)
	contribute(t, pl, players, 2, 100)
	players[0].Fold()

	pots, err := pl.BuildPots(players)
	require.NoError(t, err)
	require.Len(t, pots, 1)
	assert.Equal(t, int64(260), pots[0].Amount)
	assert.Equal(t, []int{1, 2}, pots[0].eligibleSeats())
}

func TestBuildPotsFoldedRaiserAboveTopLevel(t *testing.T) {
	// A raiser who folded after committing more than any surviving stake;
	// the overage lands in the top pot.
	players := testPlayers(1000, 100, 100)
	pl := NewPotLedger(nil)
	contribute(t, pl, players, 0, 150)
	contribute(t, pl, players, 1, 100)
	contribute(t, pl, players, 2, 100)
	players[0].Fold()

	pots, err := pl.BuildPots(players)
	require.NoError(t, err)
	require.Len(t, pots, 1)
	assert.Equal(t, int64(350), pots[0].Amount)
	assert.Equal(t, []int{1, 2}, pots[0].eligibleSeats())
	assert.Equal(t, pl.TotalPot(), pots[0].Amount)
}

func TestBuildPotsNoEligiblePlayersIsInconsistency(t *testing.T) {
	players := testPlayers(100, 100)
	pl := NewPotLedger(nil)
	contribute(t, pl, players, 0, 50)
	contribute(t, pl, players, 1, 50)
	players[0].Fold()
	players[1].Fold()

	_, err := pl.BuildPots(players)
	require.ErrorIs(t, err, ErrInternalInconsistency)
}

func TestDistributeFoldWinSkipsEvaluation(t *testing.T) {
	players := testPlayers(1000, 1000)
	pl := NewPotLedger(nil)
	contribute(t, pl, players, 0, 20)
	contribute(t, pl, players, 1, 20)
	players[1].Fold()

	pots, err := pl.BuildPots(players)
	require.NoError(t, err)
	awards, err := pl.Distribute(players, pots)
	require.NoError(t, err)

	require.Len(t, awards, 1)
	assert.Equal(t, []string{"p1"}, awards[0].WinnerIDs)
	assert.Equal(t, int64(40), awards[0].Amount)
	// 1000 - 20 + 40: the winner never needed a hand value.
	assert.Equal(t, int64(1020), players[0].Stack)
	assert.Nil(t, players[0].HandValue)
}

func TestDistributeSplitPotOddChipToEarliestSeat(t *testing.T) {
	players := testPlayers(1000, 1000, 1000)
	pl := NewPotLedger(nil)
	contribute(t, pl, players, 0, 50)
	contribute(t, pl, players, 1, 50)
	contribute(t, pl, players, 2, 1)
	players[2].Fold()

	tied := &HandValue{Rank: Pair, Score: 4000, Description: "Pair"}
	players[0].HandValue = tied
	players[1].HandValue = tied

	pots, err := pl.BuildPots(players)
	require.NoError(t, err)
	require.Len(t, pots, 1)
	require.Equal(t, int64(101), pots[0].Amount)

	awards, err := pl.Distribute(players, pots)
	require.NoError(t, err)
	require.Len(t, awards, 1)
	assert.ElementsMatch(t, []string{"p1", "p2"}, awards[0].WinnerIDs)

	// 950 + 51 and 950 + 50: every chip accounted for.
	assert.Equal(t, int64(1001), players[0].Stack)
	assert.Equal(t, int64(1000), players[1].Stack)
}

func TestDistributeLayeredPotsDifferentWinners(t *testing.T) {
	// p1 is all-in short with the best hand: wins the main pot only; the
	// side pot goes to the better of p2/p3.
	players := testPlayers(50, 1000, 1000)
	pl := NewPotLedger(nil)
	contribute(t, pl, players, 0, 50)
	contribute(t, pl, players, 1, 200)
	contribute(t, pl, players, 2, 200)

	players[0].HandValue = &HandValue{Rank: Flush, Score: 1000, Description: "Flush"}
	players[1].HandValue = &HandValue{Rank: Pair, Score: 4000, Description: "Pair"}
	players[2].HandValue = &HandValue{Rank: HighCard, Score: 7000, Description: "High Card"}

	pots, err := pl.BuildPots(players)
	require.NoError(t, err)
	require.Len(t, pots, 2)

	awards, err := pl.Distribute(players, pots)
	require.NoError(t, err)
	require.Len(t, awards, 2)
	assert.Equal(t, []string{"p1"}, awards[0].WinnerIDs)
	assert.Equal(t, int64(150), awards[0].Amount)
	assert.Equal(t, []string{"p2"}, awards[1].WinnerIDs)
	assert.Equal(t, int64(300), awards[1].Amount)

	assert.Equal(t, int64(150), players[0].Stack)
	assert.Equal(t, int64(1100), players[1].Stack)
	assert.Equal(t, int64(800), players[2].Stack)
}

func TestDistributeMissingHandValueIsInconsistency(t *testing.T) {
	players := testPlayers(100, 100)
	pl := NewPotLedger(nil)
	contribute(t, pl, players, 0, 50)
	contribute(t, pl, players, 1, 50)

	pots, err := pl.BuildPots(players)
	require.NoError(t, err)
	_, err = pl.Distribute(players, pots)
	require.ErrorIs(t, err, ErrInternalInconsistency)
}

func TestReturnUncalledRefundsOverage(t *testing.T) {
	players := testPlayers(1000, 1000)
	pl := NewPotLedger(nil)
	contribute(t, pl, players, 0, 100)
	contribute(t, pl, players, 1, 40)
	players[1].Fold()

	pl.ReturnUncalled(players)
	assert.Equal(t, int64(960), players[0].Stack)
	assert.Equal(t, int64(40), players[0].CurrentBet)
	assert.Equal(t, int64(40), pl.CurrentBet(0))
	assert.Equal(t, int64(80), pl.TotalPot())
}

func TestReturnUncalledNoOpWhenMatched(t *testing.T) {
	players := testPlayers(1000, 1000)
	pl := NewPotLedger(nil)
	contribute(t, pl, players, 0, 100)
	contribute(t, pl, players, 1, 100)

	pl.ReturnUncalled(players)
	assert.Equal(t, int64(200), pl.TotalPot())
	assert.Equal(t, int64(900), players[0].Stack)
	assert.Equal(t, int64(900), players[1].Stack)
}
