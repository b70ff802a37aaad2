package agent

import (
	"fmt"

	engine "github.com/jason-s-yu/ocean/engine"
)

// Transition returns the belief after the opponent announces action.
//
// The action is validated against the map first; an invalid action returns
// the unchanged state and an engine error. The result is normalized: a
// single remaining candidate becomes Exact, and no remaining candidate
// returns an empty Area with ErrDesync.
func Transition(state FuzzyPos, action engine.Action, table *engine.MaskTable) (FuzzyPos, error) {
	if err := engine.ValidateAction(action, table.Rows(), table.Cols()); err != nil {
		return state, err
	}

	var next FuzzyPos
	var err error
	switch s := state.(type) {
	case Area:
		next, err = transitionArea(s, action, table)
	case Exact:
		next, err = transitionExact(s, action, table)
	default:
		return state, fmt.Errorf("%w: %T", ErrInvalidBelief, state)
	}
	if err != nil {
		return state, err
	}
	return Normalize(next)
}

// transitionArea narrows or moves a candidate set.
func transitionArea(s Area, action engine.Action, table *engine.MaskTable) (FuzzyPos, error) {
	switch act := action.(type) {
	case engine.Move:
		return Area{Grid: s.Grid.Shift(act.Dir, 1).AndNot(table.Obstacles())}, nil

	case engine.Surface:
		sector, err := table.Sector(act.Sector)
		if err != nil {
			return s, err
		}
		return Area{Grid: s.Grid.And(sector)}, nil

	case engine.Torpedo:
		// The shooter must be within torpedo range of its own target.
		reach, err := table.AttackArea(act.Target)
		if err != nil {
			return s, err
		}
		return Area{Grid: s.Grid.And(reach)}, nil

	case engine.Sonar:
		// Probing our sectors says nothing about the opponent's own cell.
		return s, nil

	case engine.Silence:
		k := table.StealthKernel()
		return Area{Grid: s.Grid.Compose(k.Grid, k.Origin).AndNot(table.Obstacles())}, nil
	}
	return s, fmt.Errorf("%w: %T", engine.ErrUnknownAction, action)
}

// transitionExact follows a known position.
func transitionExact(s Exact, action engine.Action, table *engine.MaskTable) (FuzzyPos, error) {
	switch act := action.(type) {
	case engine.Move:
		next, ok := act.Dir.Apply(s.Pos, table.Rows(), table.Cols())
		if !ok || table.Obstacles().Get(next) {
			// The announced move is illegal from where we think the
			// opponent is; the empty area is reported as a desync.
			return Area{Grid: table.Water().Empty()}, nil
		}
		return Exact{Pos: next}, nil

	case engine.Surface, engine.Torpedo, engine.Sonar:
		return s, nil

	case engine.Silence:
		// The kernel centre is the vacated cell: it is only kept when a
		// zero-length silence is allowed.
		reach, err := table.StealthArea(s.Pos)
		if err != nil {
			return s, err
		}
		return Area{Grid: reach.AndNot(table.Obstacles())}, nil
	}
	return s, fmt.Errorf("%w: %T", engine.ErrUnknownAction, action)
}
