package domain

import "time"

// EventKind clasifica un mensaje entrante del feed.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventTelemetry
	EventCountdown
	EventResult
)

func (k EventKind) String() string {
	switch k {
	case EventTelemetry:
		return "telemetry"
	case EventCountdown:
		return "countdown"
	case EventResult:
		return "result"
	default:
		return "unknown"
	}
}

// Event es un mensaje decodificado del feed. Los campos opcionales son nil si
// el mensaje no los traía.
type Event struct {
	Kind       EventKind
	Type       string // msg_type original
	Issue      *int64
	Rooms      []RoomReport
	Countdown  *int
	KilledRoom *RoomID
	ReceivedAt time.Time
}
