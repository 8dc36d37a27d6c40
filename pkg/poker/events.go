package poker

import "time"

// EventType identifies a discrete table event.
type EventType string

const (
	EventHandStarted    EventType = "hand_started"
	EventTurnStarted    EventType = "turn_started"
	EventPlayerActed    EventType = "player_acted"
	EventPhaseAdvanced  EventType = "phase_advanced"
	EventPotAwarded     EventType = "pot_awarded"
	EventHandEnded      EventType = "hand_ended"
	EventEnteredWaiting EventType = "entered_waiting"
)

// Event carries enough data for an external transport to rebuild the
// public table view incrementally. Fields beyond Type/TableID are set
// where meaningful: Seat/PlayerID/Action/Amount for player activity,
// Phase for street changes, Award for pot distribution.
type Event struct {
	Type      EventType
	TableID   string
	HandID    string
	Seat      int
	PlayerID  string
	Action    ActionKind
	Amount    int64
	Phase     GamePhase
	Award     *PotAward
	Timestamp time.Time
}

// NotificationSink receives engine events. Implementations must not block;
// the engine publishes while holding the table lock.
type NotificationSink interface {
	Publish(event Event)
}

// ChannelSink forwards events to a channel, dropping on a full or absent
// receiver so a slow consumer can never stall the table.
type ChannelSink struct {
	ch chan<- Event
}

// NewChannelSink wraps an event channel in a NotificationSink.
func NewChannelSink(ch chan<- Event) *ChannelSink {
	return &ChannelSink{ch: ch}
}

// Publish implements NotificationSink.
func (s *ChannelSink) Publish(event Event) {
	if s.ch == nil {
		return
	}
	select {
	case s.ch <- event:
	default:
		// Receiver is full; the event is dropped.
	}
}
