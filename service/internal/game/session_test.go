package game

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engine "github.com/jason-s-yu/ocean/engine"
	"github.com/jason-s-yu/ocean/engine/agent"
	"github.com/jason-s-yu/ocean/service/internal/protocol"
)

// mockBroadcaster captures session events for assertions.
type mockBroadcaster struct {
	mu     sync.Mutex
	events []Event
}

func (mb *mockBroadcaster) broadcastFn(ev Event) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.events = append(mb.events, ev)
}

func (mb *mockBroadcaster) types() []EventType {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	out := make([]EventType, len(mb.events))
	for i, ev := range mb.events {
		out[i] = ev.Type
	}
	return out
}

func (mb *mockBroadcaster) findEventByType(t EventType) *Event {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	for i := len(mb.events) - 1; i >= 0; i-- {
		if mb.events[i].Type == t {
			return &mb.events[i]
		}
	}
	return nil
}

// openHeader is an n×n map without land.
func openHeader(t *testing.T, n int) protocol.Header {
	t.Helper()
	rows := make([]string, n)
	for i := range rows {
		rows[i] = strings.Repeat(".", n)
	}
	land, err := engine.GridFromRows(rows)
	require.NoError(t, err)
	return protocol.Header{Width: n, Height: n, Obstacles: land}
}

// setupTestSession builds a session on an open n×n map with a mock
// broadcaster and a capturing logger.
func setupTestSession(t *testing.T, n int) (*Session, *mockBroadcaster, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	mb := &mockBroadcaster{}
	s, err := NewSession(openHeader(t, n), Options{
		Masks:       engine.DefaultMaskConfig(),
		Seed:        3,
		Logger:      logger,
		BroadcastFn: mb.broadcastFn,
	})
	require.NoError(t, err)
	return s, mb, hook
}

// turn parses the three lines of a turn.
func turn(t *testing.T, status, sonar, orders string) protocol.Turn {
	t.Helper()
	d := protocol.NewDecoder(strings.NewReader(status+"\n"+sonar+"\n"+orders+"\n"), nil)
	tr, err := d.ReadTurn()
	require.NoError(t, err)
	return tr
}

func TestSessionStart(t *testing.T) {
	s, mb, _ := setupTestSession(t, 15)
	p := s.Start()
	assert.True(t, p.Row >= 0 && p.Row < 15 && p.Col >= 0 && p.Col < 15)
	assert.Equal(t, []EventType{EventSessionStart}, mb.types())
	assert.Equal(t, s.ID, mb.events[0].Session)
	assert.Equal(t, 225, s.Snapshot().Candidates)
}

func TestSessionTurnNarrowsBelief(t *testing.T) {
	s, mb, _ := setupTestSession(t, 15)

	orders := s.Turn(turn(t, "7 7 6 6 3 4 6 3", "NA", "NA"))
	require.NotEmpty(t, orders)
	assert.Equal(t, 225, s.Snapshot().Candidates)

	s.Turn(turn(t, "8 7 6 5 2 4 5 3", "NA", "SURFACE 1"))
	snap := s.Snapshot()
	assert.Equal(t, 2, snap.TurnID)
	assert.Equal(t, 25, snap.Candidates)
	assert.Equal(t, 5, snap.OppLife)
	assert.Empty(t, snap.OppPos)

	observed := mb.findEventByType(EventTurnObserved)
	require.NotNil(t, observed)
	require.NotNil(t, observed.State)
	assert.Equal(t, 25, observed.State.Candidates)
	assert.Equal(t, 2, observed.TurnID)
}

// TestSessionTorpedoFeedback locates the opponent, fires at it and checks
// the shot is remembered for next turn's damage feedback.
func TestSessionTorpedoFeedback(t *testing.T) {
	// On a 5×5 map sector 1 is the single corner cell.
	s, _, _ := setupTestSession(t, 5)
	s.Turn(turn(t, "2 2 6 6 3 4 6 3", "NA", "NA"))

	orders := s.Turn(turn(t, "2 2 6 5 0 4 6 3", "NA", "SURFACE 1"))
	assert.Equal(t, agent.Exact{Pos: engine.Pos{Row: 0, Col: 0}}, s.Belief())
	assert.Contains(t, protocol.FormatOrders(orders), "TORPEDO 0 0")
	mem := s.tracker.Memory()
	assert.True(t, mem.HasAttack)
	assert.Equal(t, 5, mem.LifeBefore)

	// Two points lost, no surface: a direct hit.
	s.Turn(turn(t, "2 1 6 3 3 4 5 3", "NA", "MSG ouch"))
	assert.Equal(t, "[0;0]", s.Snapshot().OppPos)
	assert.False(t, s.tracker.Memory().HasAttack)
}

func TestSessionDesync(t *testing.T) {
	s, mb, hook := setupTestSession(t, 5)
	s.Turn(turn(t, "2 2 6 6 3 4 6 3", "NA", "SURFACE 1"))
	require.Equal(t, 1, s.Snapshot().Candidates)

	// The opponent cannot move north from the top row.
	s.Turn(turn(t, "2 3 6 5 3 4 5 3", "NA", "MOVE N"))
	snap := s.Snapshot()
	assert.Equal(t, 25, snap.Candidates)
	assert.Equal(t, 1, snap.Desyncs)
	assert.NotNil(t, mb.findEventByType(EventTrackerDesync))

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == "lost track of opponent" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestSessionRejectsInvalidOrders(t *testing.T) {
	s, _, hook := setupTestSession(t, 15)
	orders := s.Turn(turn(t, "7 7 6 6 3 4 6 3", "NA", "MOVE E|SURFACE 12"))
	assert.NotEmpty(t, orders, "orders are still emitted")
	assert.Equal(t, 225, s.Snapshot().Candidates)

	var logged bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel && e.Message == "opponent turn not applied" {
			logged = true
		}
	}
	assert.True(t, logged)
}

const runInput = `15 15 1
...............
...............
..xx...........
..xx...........
...............
...............
...............
.........x.....
...............
...............
...............
...............
...............
...............
...............
7 7 6 6 3 4 6 3
NA
NA
8 7 6 6 2 4 5 3
NA
MOVE W
8 6 6 6 1 4 4 3
NA
MOVE W|SILENCE
`

func TestRun(t *testing.T) {
	mb := &mockBroadcaster{}
	var out bytes.Buffer
	err := Run(context.Background(), strings.NewReader(runInput), &out, Options{
		Masks:       engine.DefaultMaskConfig(),
		Seed:        11,
		BroadcastFn: mb.broadcastFn,
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4, out.String())
	assert.Regexp(t, `^\d+ \d+$`, lines[0])
	for _, l := range lines[1:] {
		assert.Regexp(t, `^(MOVE|SILENCE|SURFACE|TORPEDO|SONAR)`, l)
	}

	assert.Equal(t, []EventType{
		EventSessionStart,
		EventTurnObserved, EventOrdersCommitted,
		EventTurnObserved, EventOrdersCommitted,
		EventTurnObserved, EventOrdersCommitted,
		EventSessionEnd,
	}, mb.types())
}

func TestRunErrors(t *testing.T) {
	var out bytes.Buffer
	err := Run(context.Background(), strings.NewReader("15 15\n"), &out, Options{Masks: engine.DefaultMaskConfig()})
	assert.ErrorIs(t, err, protocol.ErrMalformed)

	err = Run(context.Background(), strings.NewReader(runInput+"garbage\n"), &out, Options{Masks: engine.DefaultMaskConfig()})
	assert.ErrorIs(t, err, protocol.ErrMalformed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out.Reset()
	err = Run(ctx, strings.NewReader(runInput), &out, Options{Masks: engine.DefaultMaskConfig()})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, strings.Count(out.String(), "\n"), "only the start cell is written")
}
