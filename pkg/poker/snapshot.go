package poker

import "time"

// SeatSnapshot is the public view of one seat. HoleCards is nil unless the
// player has shown their cards; hidden hands never leave the engine.
type SeatSnapshot struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Seat       int          `json:"seat"`
	Stack      int64        `json:"stack"`
	CurrentBet int64        `json:"current_bet"`
	TotalBet   int64        `json:"total_bet"`
	Status     PlayerStatus `json:"-"`
	StatusName string       `json:"status"`
	HasActed   bool         `json:"has_acted"`
	IsButton   bool         `json:"is_button"`
	IsTurn     bool         `json:"is_turn"`
	HoleCards  []Card       `json:"hole_cards,omitempty"`
	HandDesc   string       `json:"hand_desc,omitempty"`
}

// PotSnapshot is the public view of one pot layer.
type PotSnapshot struct {
	Amount      int64    `json:"amount"`
	EligibleIDs []string `json:"eligible_ids"`
	Main        bool     `json:"main"`
}

// TableSnapshot is a read-only projection of the table taken at a state
// transition, sufficient for persistence and transport layers.
type TableSnapshot struct {
	TableID        string        `json:"table_id"`
	HandID         string        `json:"hand_id,omitempty"`
	HandCounter    uint64        `json:"hand_counter"`
	Phase          GamePhase     `json:"-"`
	PhaseName      string        `json:"phase"`
	CommunityCards []Card        `json:"community_cards"`
	Pots           []PotSnapshot `json:"pots"`
	TotalPot       int64         `json:"total_pot"`
	CurrentBet     int64         `json:"current_bet"`
	Button         int           `json:"button"`
	ActingSeat     int           `json:"acting_seat"`
	Seats          []SeatSnapshot `json:"seats"`
	Timestamp      time.Time     `json:"timestamp"`
}

// PersistenceSink receives a snapshot after every state transition. Calls
// are fire-and-forget; the engine neither retries nor inspects results.
type PersistenceSink interface {
	SyncState(snapshot TableSnapshot)
}
