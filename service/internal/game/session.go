// Package game runs one Ocean of Code match: it keeps the opponent belief
// and our own submarine state in step with the referee, turn by turn.
package game

import (
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	engine "github.com/jason-s-yu/ocean/engine"
	"github.com/jason-s-yu/ocean/engine/agent"
	"github.com/jason-s-yu/ocean/service/internal/pilot"
	"github.com/jason-s-yu/ocean/service/internal/protocol"
)

// Options configures a session.
type Options struct {
	Masks       engine.MaskConfig
	Seed        uint64             // 0 picks a time-based seed.
	Logger      logrus.FieldLogger // nil discards logs.
	BroadcastFn func(ev Event)     // Optional event sink, e.g. the debug feed.
}

// Session is the state of a single match.
type Session struct {
	ID     uuid.UUID // Unique identifier, tagged on every log line and event.
	MyID   int       // Our player index from the header.
	TurnID int       // Increments on every turn read.

	table   *engine.MaskTable
	tracker *agent.Tracker
	pilot   *pilot.Pilot

	status  protocol.Status // Latest status line.
	desyncs int

	BroadcastFn func(ev Event)
	log         *logrus.Entry
}

// NewSession builds the static masks for the header's map and starts
// tracking the opponent over all of its water.
func NewSession(h protocol.Header, opts Options) (*Session, error) {
	id := uuid.New()
	logger := opts.Logger
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}
	log := logger.WithField("session", id.String())

	table, err := engine.NewMaskTable(h.Obstacles, opts.Masks)
	if err != nil {
		return nil, err
	}
	tracker, err := agent.NewTracker(table, agent.WithLogger(log))
	if err != nil {
		return nil, err
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	log.WithFields(logrus.Fields{
		"width":  h.Width,
		"height": h.Height,
		"water":  table.Water().Count(true),
	}).Info("session created")

	return &Session{
		ID:          id,
		MyID:        h.MyID,
		table:       table,
		tracker:     tracker,
		pilot:       pilot.New(table, seed, log),
		status:      protocol.Status{MyLife: agent.MaxLife, OppLife: agent.MaxLife},
		BroadcastFn: opts.BroadcastFn,
		log:         log,
	}, nil
}

// Start picks our starting cell.
func (s *Session) Start() engine.Pos {
	p := s.pilot.Start()
	s.status.Pos = p
	s.log.WithField("start", p.String()).Info("starting position chosen")
	s.fireEvent(Event{
		Type:    EventSessionStart,
		Payload: map[string]any{"myId": s.MyID, "start": p.String()},
	})
	return p
}

// Turn runs one turn: sync our status, fold the opponent's orders into the
// belief, plan, and remember what we fired for the next turn's feedback.
// It always returns at least one order; belief errors are logged, not
// returned.
func (s *Session) Turn(in protocol.Turn) []protocol.Order {
	s.TurnID++
	log := s.log.WithField("turn", s.TurnID)
	s.status = in.Status

	belief, err := s.tracker.Observe(agent.TurnReport{
		OrdersKnown:  in.OrdersKnown,
		Orders:       in.Orders,
		OpponentLife: in.Status.OppLife,
		Sonar:        in.Sonar,
	})
	switch {
	case errors.Is(err, agent.ErrDesync):
		s.desyncs++
		log.WithError(err).Warn("lost track of opponent")
		s.fireEvent(Event{Type: EventTrackerDesync, Payload: map[string]any{"error": err.Error()}})
	case err != nil:
		log.WithError(err).Error("opponent turn not applied")
	}
	snap := s.Snapshot()
	s.fireEvent(Event{Type: EventTurnObserved, State: &snap})

	plan := s.pilot.Plan(in.Status, belief)
	if plan.HasAttack {
		if err := s.tracker.RecordAttack(plan.Attack); err != nil {
			log.WithError(err).Error("cannot record torpedo")
		}
	}
	if plan.SonarSector != 0 {
		if err := s.tracker.RecordSonar(plan.SonarSector); err != nil {
			log.WithError(err).Error("cannot record sonar")
		}
	}

	line := protocol.FormatOrders(plan.Orders)
	log.WithFields(logrus.Fields{
		"candidates": belief.Candidates(),
		"orders":     line,
	}).Debug("turn planned")
	s.fireEvent(Event{Type: EventOrdersCommitted, Payload: map[string]any{"orders": line}})
	return plan.Orders
}

// End reports the end of the session.
func (s *Session) End(reason string) {
	s.log.WithFields(logrus.Fields{
		"turns":   s.TurnID,
		"desyncs": s.desyncs,
		"reason":  reason,
	}).Info("session ended")
	s.fireEvent(Event{Type: EventSessionEnd, Payload: map[string]any{"reason": reason}})
}

// Belief returns the current opponent belief.
func (s *Session) Belief() agent.FuzzyPos { return s.tracker.State() }

// Snapshot captures the session state for viewers.
func (s *Session) Snapshot() Snapshot {
	belief := s.tracker.State()
	snap := Snapshot{
		SessionID:  s.ID,
		TurnID:     s.TurnID,
		MyPos:      s.status.Pos.String(),
		MyLife:     s.status.MyLife,
		OppLife:    s.tracker.OpponentLife(),
		Candidates: belief.Candidates(),
		Belief:     belief.Cells(s.table.Water()).String(),
		Desyncs:    s.desyncs,
	}
	if e, ok := belief.(agent.Exact); ok {
		snap.OppPos = e.Pos.String()
	}
	return snap
}

// fireEvent stamps ev with the session and turn and hands it to
// BroadcastFn, if any.
func (s *Session) fireEvent(ev Event) {
	if s.BroadcastFn == nil {
		return
	}
	ev.Session = s.ID
	ev.TurnID = s.TurnID
	s.BroadcastFn(ev)
}
