package tracker

import (
	"time"

	"github.com/rpggio/spacetracker/internal/domain/space"
)

// EventType names a session lifecycle transition.
type EventType string

const (
	EventStarted   EventType = "session_started"
	EventHeartbeat EventType = "session_heartbeat"
	EventEnded     EventType = "session_ended"
)

// Event is emitted by the Tracker on every transition.
type Event struct {
	Type    EventType     `json:"type"`
	Session space.Session `json:"session"`
	At      time.Time     `json:"at"`
}
