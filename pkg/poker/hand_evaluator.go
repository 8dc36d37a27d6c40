package poker

import (
	"fmt"

	chehsunliu "github.com/chehsunliu/poker"
)

// HandRank represents the category of a poker hand.
type HandRank int

const (
	HighCard HandRank = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// HandValue is a complete, comparable evaluation of a 5-card hand chosen
// from hole plus community cards.
type HandValue struct {
	Rank        HandRank
	Score       int32  // absolute strength; lower is better
	Description string // human-readable rank, e.g. "Two Pair"
}

// HandEvaluator ranks hands. The engine consumes this capability; the
// default implementation below wraps chehsunliu/poker, and callers may
// inject their own.
type HandEvaluator interface {
	// Evaluate returns the value of the best 5-card hand formed from the
	// given hole and community cards.
	Evaluate(holeCards, communityCards []Card) (HandValue, error)
}

// CompareHands returns -1 if a is worse than b, 0 on a tie, 1 if a is
// better. Scores come from chehsunliu, where lower values are stronger and
// all kicker tiebreaks are folded into the score.
func CompareHands(a, b HandValue) int {
	switch {
	case a.Score > b.Score:
		return -1
	case a.Score < b.Score:
		return 1
	default:
		return 0
	}
}

// DefaultEvaluator is the chehsunliu/poker backed HandEvaluator.
type DefaultEvaluator struct{}

// NewDefaultEvaluator returns the library-backed evaluator.
func NewDefaultEvaluator() *DefaultEvaluator { return &DefaultEvaluator{} }

// Evaluate implements HandEvaluator.
func (e *DefaultEvaluator) Evaluate(holeCards, communityCards []Card) (HandValue, error) {
	all := make([]Card, 0, len(holeCards)+len(communityCards))
	all = append(all, holeCards...)
	all = append(all, communityCards...)
	if len(all) < 5 {
		return HandValue{}, fmt.Errorf("%w: evaluating %d cards, need at least 5", ErrInternalInconsistency, len(all))
	}

	converted := make([]chehsunliu.Card, len(all))
	for i, card := range all {
		cc, err := convertCard(card)
		if err != nil {
			return HandValue{}, err
		}
		converted[i] = cc
	}

	score := chehsunliu.Evaluate(converted)
	return HandValue{
		Rank:        rankFromClass(chehsunliu.RankClass(score)),
		Score:       score,
		Description: chehsunliu.RankString(score),
	}, nil
}

// convertCard maps our Card onto the chehsunliu two-character encoding.
func convertCard(card Card) (chehsunliu.Card, error) {
	var rankChar byte
	switch card.Rank() {
	case Ten:
		rankChar = 'T'
	case Jack:
		rankChar = 'J'
	case Queen:
		rankChar = 'Q'
	case King:
		rankChar = 'K'
	case Ace:
		rankChar = 'A'
	default:
		if card.Rank() < Two || card.Rank() > Nine {
			return 0, fmt.Errorf("%w: invalid card rank %d", ErrInternalInconsistency, card.Rank())
		}
		rankChar = byte('0' + int(card.Rank()))
	}

	var suitChar byte
	switch card.Suit() {
	case Spades:
		suitChar = 's'
	case Hearts:
		suitChar = 'h'
	case Diamonds:
		suitChar = 'd'
	case Clubs:
		suitChar = 'c'
	default:
		return 0, fmt.Errorf("%w: invalid card suit %q", ErrInternalInconsistency, card.Suit())
	}

	return chehsunliu.NewCard(string([]byte{rankChar, suitChar})), nil
}

// rankFromClass maps the chehsunliu rank class onto HandRank.
func rankFromClass(class int32) HandRank {
	switch class {
	case 1:
		return StraightFlush
	case 2:
		return FourOfAKind
	case 3:
		return FullHouse
	case 4:
		return Flush
	case 5:
		return Straight
	case 6:
		return ThreeOfAKind
	case 7:
		return TwoPair
	case 8:
		return Pair
	default:
		return HighCard
	}
}
