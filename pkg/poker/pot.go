package poker

import (
	"fmt"
	"sort"

	"github.com/decred/slog"
)

// Pot is a single layer of chips with a seat-aligned eligibility mask.
type Pot struct {
	Amount   int64
	Eligible []bool // len == len(players); true where the seat can win
	Main     bool
}

// eligibleSeats returns the eligible seat indices in ascending order.
func (p *Pot) eligibleSeats() []int {
	var seats []int
	for seat, ok := range p.Eligible {
		if ok {
			seats = append(seats, seat)
		}
	}
	return seats
}

// PotAward records the outcome of distributing one pot layer.
type PotAward struct {
	PotIndex    int
	Main        bool
	Amount      int64
	WinnerIDs   []string
	Description string
}

// PotLedger tracks per-seat contributions for the hand and converts them
// into a main pot plus ordered side pots. Pots are always rebuilt from the
// hand totals, so the computation is repeatable without double counting.
type PotLedger struct {
	log         slog.Logger
	currentBets map[int]int64 // this betting round, by seat
	totalBets   map[int]int64 // whole hand, by seat
}

// NewPotLedger creates an empty ledger.
func NewPotLedger(log slog.Logger) *PotLedger {
	if log == nil {
		log = slog.Disabled
	}
	return &PotLedger{
		log:         log,
		currentBets: make(map[int]int64),
		totalBets:   make(map[int]int64),
	}
}

// AddBet records a contribution from a seat. The chips themselves move out
// of the player's stack via Player.PostBet; callers do both under the
// table lock so the transfer is atomic.
func (pl *PotLedger) AddBet(seat int, amount int64) {
	pl.currentBets[seat] += amount
	pl.totalBets[seat] += amount
}

// ResetCurrentBets clears the per-round bets when a street ends.
func (pl *PotLedger) ResetCurrentBets() {
	pl.currentBets = make(map[int]int64)
}

// CurrentBet returns the seat's contribution this betting round.
func (pl *PotLedger) CurrentBet(seat int) int64 {
	return pl.currentBets[seat]
}

// TotalBet returns the seat's contribution for the whole hand.
func (pl *PotLedger) TotalBet(seat int) int64 {
	return pl.totalBets[seat]
}

// TotalPot returns the sum of all contributions for the hand.
func (pl *PotLedger) TotalPot() int64 {
	var total int64
	for _, bet := range pl.totalBets {
		total += bet
	}
	return total
}

// ReturnUncalled refunds the uncalled portion of the highest bet to the
// bettor. Run before building pots, otherwise an all-in runout creates a
// side pot only its own bettor can win. A folded player's chips are
// forfeit and never refunded.
func (pl *PotLedger) ReturnUncalled(players []*Player) {
	var hi, second int64
	hiSeat := -1

	for seat, bet := range pl.currentBets {
		if bet > hi {
			second = hi
			hi = bet
			hiSeat = seat
		} else if bet > second {
			second = bet
		}
	}

	if hiSeat >= 0 && hi > second && players[hiSeat].InHand() {
		uncalled := hi - second
		players[hiSeat].Stack += uncalled
		players[hiSeat].CurrentBet -= uncalled
		pl.currentBets[hiSeat] -= uncalled
		pl.totalBets[hiSeat] -= uncalled
		pl.log.Debugf("returned uncalled bet %d to seat %d", uncalled, hiSeat)
	}
}

// BuildPots converts the hand totals into an ordered pot list: ascending
// distinct contribution levels among players still in the hand, where each
// layer is funded by every contributor (folded included) but only
// non-folded players at or above the layer's level are eligible to win it.
// A single level collapses to one main pot. The function is pure over the
// (players, totals) snapshot.
func (pl *PotLedger) BuildPots(players []*Player) ([]*Pot, error) {
	n := len(players)

	seen := make(map[int64]bool)
	for seat := 0; seat < n; seat++ {
		if players[seat] != nil && players[seat].InHand() && pl.totalBets[seat] > 0 {
			seen[pl.totalBets[seat]] = true
		}
	}
	if len(seen) == 0 {
		return nil, fmt.Errorf("%w: pot computation with no eligible players", ErrInternalInconsistency)
	}

	levels := make([]int64, 0, len(seen))
	for lvl := range seen {
		levels = append(levels, lvl)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	pots := make([]*Pot, 0, len(levels))
	prev := int64(0)
	for _, lvl := range levels {
		pot := &Pot{Eligible: make([]bool, n)}
		for seat := 0; seat < n; seat++ {
			tb := pl.totalBets[seat]
			// Every contributor funds the layer up to its level.
			if tb > prev {
				c := tb
				if c > lvl {
					c = lvl
				}
				pot.Amount += c - prev
			}
			if players[seat] != nil && players[seat].InHand() && tb >= lvl {
				pot.Eligible[seat] = true
			}
		}
		pots = append(pots, pot)
		prev = lvl
	}
	pots[0].Main = true

	// Chips from folded players above the top level (a raiser who later
	// folded) land in the top pot.
	top := levels[len(levels)-1]
	for seat := 0; seat < n; seat++ {
		if tb := pl.totalBets[seat]; tb > top {
			pots[len(pots)-1].Amount += tb - top
		}
	}

	var potSum int64
	for _, pot := range pots {
		potSum += pot.Amount
	}
	if potSum != pl.TotalPot() {
		return nil, fmt.Errorf("%w: pot layers sum to %d but contributions sum to %d",
			ErrInternalInconsistency, potSum, pl.TotalPot())
	}

	return pots, nil
}

// Distribute pays each pot layer to the best eligible hand(s). A layer
// with a single eligible player is paid without consulting hand values
// (the fold-win path). Split pots floor-divide, with the remainder going
// to the earliest winning seat so chips are conserved exactly.
func (pl *PotLedger) Distribute(players []*Player, pots []*Pot) ([]PotAward, error) {
	awards := make([]PotAward, 0, len(pots))

	for pi, pot := range pots {
		var alive []int
		for _, seat := range pot.eligibleSeats() {
			if players[seat] != nil && players[seat].InHand() {
				alive = append(alive, seat)
			}
		}

		if len(alive) == 0 {
			return nil, fmt.Errorf("%w: pot %d has no eligible players", ErrInternalInconsistency, pi)
		}

		if len(alive) == 1 {
			winner := players[alive[0]]
			winner.Stack += pot.Amount
			awards = append(awards, PotAward{
				PotIndex:  pi,
				Main:      pot.Main,
				Amount:    pot.Amount,
				WinnerIDs: []string{winner.ID},
			})
			continue
		}

		var winners []int
		var best *HandValue
		for _, seat := range alive {
			hv := players[seat].HandValue
			if hv == nil {
				return nil, fmt.Errorf("%w: seat %d eligible at showdown without a hand value",
					ErrInternalInconsistency, seat)
			}
			switch {
			case best == nil || CompareHands(*hv, *best) > 0:
				best = hv
				winners = []int{seat}
			case CompareHands(*hv, *best) == 0:
				winners = append(winners, seat)
			}
		}

		share := pot.Amount / int64(len(winners))
		rem := pot.Amount % int64(len(winners))
		ids := make([]string, 0, len(winners))
		for i, seat := range winners {
			add := share
			if i == 0 {
				// Odd chips go to the earliest winning seat.
				add += rem
			}
			players[seat].Stack += add
			ids = append(ids, players[seat].ID)
		}
		awards = append(awards, PotAward{
			PotIndex:    pi,
			Main:        pot.Main,
			Amount:      pot.Amount,
			WinnerIDs:   ids,
			Description: best.Description,
		})
	}

	return awards, nil
}
