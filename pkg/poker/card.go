package poker

import (
	"encoding/json"
	"fmt"
	"math/rand"
)

// Suit represents a card suit.
type Suit string

const (
	Spades   Suit = "♠"
	Hearts   Suit = "♥"
	Diamonds Suit = "♦"
	Clubs    Suit = "♣"
)

// Rank represents a card rank, 2 through 14 where 14 is the ace.
type Rank int

const (
	Two   Rank = 2
	Three Rank = 3
	Four  Rank = 4
	Five  Rank = 5
	Six   Rank = 6
	Seven Rank = 7
	Eight Rank = 8
	Nine  Rank = 9
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
)

// String returns the conventional short name for the rank.
func (r Rank) String() string {
	switch r {
	case Ace:
		return "A"
	case King:
		return "K"
	case Queen:
		return "Q"
	case Jack:
		return "J"
	case Ten:
		return "10"
	default:
		if r >= Two && r <= Nine {
			return fmt.Sprintf("%d", int(r))
		}
		return "?"
	}
}

// Card is an immutable playing card.
type Card struct {
	rank Rank
	suit Suit
}

// NewCard creates a card with the given rank and suit.
func NewCard(rank Rank, suit Suit) Card {
	return Card{rank: rank, suit: suit}
}

// Rank returns the card's rank.
func (c Card) Rank() Rank { return c.rank }

// Suit returns the card's suit.
func (c Card) Suit() Suit { return c.suit }

// String returns a string representation of the card, e.g. "A♠".
func (c Card) String() string {
	return c.rank.String() + string(c.suit)
}

// cardJSON is the serialized form of a Card for snapshots.
type cardJSON struct {
	Rank int    `json:"rank"`
	Suit string `json:"suit"`
}

// MarshalJSON implements json.Marshaler.
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(cardJSON{Rank: int(c.rank), Suit: string(c.suit)})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Card) UnmarshalJSON(data []byte) error {
	var cj cardJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return err
	}
	if cj.Rank < int(Two) || cj.Rank > int(Ace) {
		return fmt.Errorf("invalid rank: %d", cj.Rank)
	}
	switch Suit(cj.Suit) {
	case Spades, Hearts, Diamonds, Clubs:
	default:
		return fmt.Errorf("invalid suit: %s", cj.Suit)
	}
	c.rank = Rank(cj.Rank)
	c.suit = Suit(cj.Suit)
	return nil
}

// Deck is an ordered sequence of the 52 distinct cards. It is mutated only
// by Shuffle and Draw.
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// NewDeck creates a full 52-card deck shuffled with the given rng.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{
		cards: make([]Card, 0, 52),
		rng:   rng,
	}

	suits := []Suit{Spades, Hearts, Diamonds, Clubs}
	for _, suit := range suits {
		for rank := Two; rank <= Ace; rank++ {
			d.cards = append(d.cards, Card{rank: rank, suit: suit})
		}
	}

	d.Shuffle()
	return d
}

// Shuffle applies a uniform random permutation to the remaining cards.
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Draw removes and returns the top card. ok is false when the deck is
// exhausted; a single hand can never legitimately get there, so callers
// treat that as an internal inconsistency rather than retrying.
func (d *Deck) Draw() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, true
}

// Size returns the number of cards remaining in the deck.
func (d *Deck) Size() int {
	return len(d.cards)
}
