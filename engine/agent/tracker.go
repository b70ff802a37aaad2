package agent

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	engine "github.com/jason-s-yu/ocean/engine"
)

// MaxLife is the opponent's life at game start.
const MaxLife = 6

// SonarResult is the answer to our own sonar, as reported the next turn.
type SonarResult uint8

const (
	SonarUnknown SonarResult = iota // 0: no sonar, or no answer
	SonarFound                      // 1: opponent is in the probed sector
	SonarMissed                     // 2: opponent is elsewhere
)

// TurnReport is everything observed about the opponent for one turn.
type TurnReport struct {
	// OrdersKnown is false when the opponent's orders are unavailable
	// (first turn); an empty Orders slice with OrdersKnown set means the
	// opponent announced nothing.
	OrdersKnown  bool
	Orders       []engine.Action
	OpponentLife int
	Sonar        SonarResult
}

// TurnMemory carries what we did last turn into the next Observe. It is
// cleared by every Observe.
type TurnMemory struct {
	HasAttack   bool
	Attack      engine.Pos
	LifeBefore  int // opponent life when the torpedo was fired
	SonarSector int // 0 when no sonar was issued
}

// Tracker follows one opponent through the game. It is not safe for
// concurrent use; the MaskTable it reads from is.
type Tracker struct {
	table   *engine.MaskTable
	state   FuzzyPos
	memory  TurnMemory
	oppLife int
	turn    int
	log     logrus.FieldLogger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger used for belief updates.
func WithLogger(l logrus.FieldLogger) Option {
	return func(t *Tracker) { t.log = l }
}

// WithOpponentLife sets the opponent's starting life.
func WithOpponentLife(life int) Option {
	return func(t *Tracker) { t.oppLife = life }
}

// NewTracker returns a tracker whose belief is every water cell.
func NewTracker(table *engine.MaskTable, opts ...Option) (*Tracker, error) {
	if table == nil {
		return nil, errors.New("agent: nil mask table")
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	t := &Tracker{
		table:   table,
		oppLife: MaxLife,
		log:     discard,
	}
	for _, opt := range opts {
		opt(t)
	}
	state, err := Normalize(Area{Grid: table.Water()})
	if err != nil {
		return nil, fmt.Errorf("map has no water: %w", err)
	}
	t.state = state
	return t, nil
}

func (t *Tracker) State() FuzzyPos          { return t.state }
func (t *Tracker) Candidates() int          { return t.state.Candidates() }
func (t *Tracker) Turn() int                { return t.turn }
func (t *Tracker) OpponentLife() int        { return t.oppLife }
func (t *Tracker) Memory() TurnMemory       { return t.memory }
func (t *Tracker) Table() *engine.MaskTable { return t.table }

// Reset forgets everything about the opponent's position.
func (t *Tracker) Reset() {
	t.state, _ = Normalize(Area{Grid: t.table.Water()})
}

// RecordAttack remembers a torpedo we fired at target this turn, so the
// next Observe can attribute the opponent's life loss to it.
func (t *Tracker) RecordAttack(target engine.Pos) error {
	if !t.table.InBounds(target) {
		return fmt.Errorf("attack %s: %w", target, engine.ErrOutOfBounds)
	}
	t.memory.HasAttack = true
	t.memory.Attack = target
	t.memory.LifeBefore = t.oppLife
	return nil
}

// RecordSonar remembers a sonar we issued on sector this turn.
func (t *Tracker) RecordSonar(sector int) error {
	if !engine.ValidSector(sector) {
		return fmt.Errorf("sonar %d: %w", sector, engine.ErrInvalidSector)
	}
	t.memory.SonarSector = sector
	return nil
}

// Observe applies one turn of observations and returns the new belief.
//
// Order of application: our sonar answer (it describes the position before
// the opponent's orders), then each order in sequence, then torpedo damage
// feedback. Any invalid order rejects the whole turn and leaves the belief
// untouched. A desync resets the belief to full water and is returned as
// an error wrapping ErrDesync; the tracker stays usable.
func (t *Tracker) Observe(r TurnReport) (FuzzyPos, error) {
	t.turn++
	mem := t.memory
	t.memory = TurnMemory{}
	log := t.log.WithField("turn", t.turn)

	if r.OpponentLife < 0 {
		return t.state, fmt.Errorf("%w: %d", ErrInvalidLife, r.OpponentLife)
	}
	t.oppLife = r.OpponentLife

	if !r.OrdersKnown {
		log.Debug("opponent orders unavailable, belief unchanged")
		return t.state, nil
	}
	for i, a := range r.Orders {
		if err := engine.ValidateAction(a, t.table.Rows(), t.table.Cols()); err != nil {
			log.WithError(err).WithField("order", i).Error("rejecting opponent orders")
			return t.state, fmt.Errorf("order %d: %w", i, err)
		}
	}

	var errs []error
	state := t.state
	apply := func(what string, next FuzzyPos, err error) {
		switch {
		case errors.Is(err, ErrDesync):
			log.WithField("step", what).Warn("opponent tracking desync, resetting belief")
			errs = append(errs, fmt.Errorf("%s: %w", what, err))
			state, _ = Normalize(Area{Grid: t.table.Water()})
		case err != nil:
			log.WithError(err).WithField("step", what).Error("belief update failed")
			errs = append(errs, fmt.Errorf("%s: %w", what, err))
		default:
			state = next
		}
		log.WithFields(logrus.Fields{"step": what, "candidates": state.Candidates()}).Debug("belief updated")
	}

	if mem.SonarSector != 0 && r.Sonar != SonarUnknown {
		next, err := RefineSonar(state, mem.SonarSector, r.Sonar == SonarFound, t.table)
		apply(fmt.Sprintf("sonar %d", mem.SonarSector), next, err)
	}

	surfaced := 0
	for _, a := range r.Orders {
		if _, ok := a.(engine.Surface); ok {
			surfaced++
		}
		next, err := Transition(state, a, t.table)
		apply(a.String(), next, err)
	}

	if mem.HasAttack {
		// Surfacing costs the opponent one life point of its own.
		delta := mem.LifeBefore - r.OpponentLife
		if delta < 0 {
			errs = append(errs, fmt.Errorf("%w: rose from %d to %d", ErrInvalidLife, mem.LifeBefore, r.OpponentLife))
		} else {
			delta = max(delta-surfaced, 0)
			next, err := RefineDamage(state, mem.Attack, delta, t.table)
			apply(fmt.Sprintf("torpedo %s damage %d", mem.Attack, delta), next, err)
		}
	}

	if e, ok := state.(Exact); ok {
		log.WithField("pos", e.Pos.String()).Debug("opponent position known")
	}
	t.state = state
	return state, errors.Join(errs...)
}
