package game

import (
	"github.com/google/uuid"
)

// EventType names a session event sent through BroadcastFn.
type EventType string

// Constants defining the session event types.
const (
	EventSessionStart    EventType = "session_start"    // Header read, start cell chosen.
	EventTurnObserved    EventType = "turn_observed"    // Opponent orders applied to the belief.
	EventTrackerDesync   EventType = "tracker_desync"   // Belief contradicted and reset to all water.
	EventOrdersCommitted EventType = "orders_committed" // Our orders for the turn were decided.
	EventSessionEnd      EventType = "session_end"      // Input closed or the run was cancelled.
)

// Event is one notification about the session, suitable for JSON.
type Event struct {
	Type    EventType      `json:"type"`
	Session uuid.UUID      `json:"session"`
	TurnID  int            `json:"turnId"`
	State   *Snapshot      `json:"state,omitempty"`   // Belief snapshot, for turn events.
	Payload map[string]any `json:"payload,omitempty"` // Additional event data.
}

// Snapshot is the session state as shown to feed viewers.
type Snapshot struct {
	SessionID  uuid.UUID `json:"sessionId"`
	TurnID     int       `json:"turnId"`
	MyPos      string    `json:"myPos"`
	MyLife     int       `json:"myLife"`
	OppLife    int       `json:"oppLife"`
	Candidates int       `json:"candidates"`       // Cells the opponent may be on.
	OppPos     string    `json:"oppPos,omitempty"` // Set once the opponent is located exactly.
	Belief     string    `json:"belief"`           // Candidate map, 'x' = candidate.
	Desyncs    int       `json:"desyncs"`          // Times the belief had to be reset.
}
