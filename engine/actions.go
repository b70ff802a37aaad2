package engine

import "fmt"

// Action is one announced opponent order, as far as an observer can see it.
// The set of variants is closed: Move, Surface, Torpedo, Sonar, Silence.
type Action interface {
	fmt.Stringer
	isAction()
}

// Move is a one-cell move in a known direction.
type Move struct {
	Dir Direction
}

// Surface reveals the sector the opponent surfaced in (1..9).
type Surface struct {
	Sector int
}

// Torpedo is an attack on Target; the shooter was within torpedo range.
type Torpedo struct {
	Target Pos
}

// Sonar is the opponent probing one of our sectors.
type Sonar struct {
	Sector int
}

// Silence is a hidden move of unknown direction and length.
type Silence struct{}

func (Move) isAction()    {}
func (Surface) isAction() {}
func (Torpedo) isAction() {}
func (Sonar) isAction()   {}
func (Silence) isAction() {}

func (a Move) String() string    { return "MOVE " + a.Dir.String() }
func (a Surface) String() string { return fmt.Sprintf("SURFACE %d", a.Sector) }
func (a Torpedo) String() string { return fmt.Sprintf("TORPEDO %d %d", a.Target.Col, a.Target.Row) }
func (a Sonar) String() string   { return fmt.Sprintf("SONAR %d", a.Sector) }
func (Silence) String() string   { return "SILENCE" }

// ValidateAction checks an action's parameters against a rows×cols map.
// It does not judge whether the action is consistent with any belief.
func ValidateAction(a Action, rows, cols int) error {
	switch act := a.(type) {
	case Move:
		if !act.Dir.Valid() {
			return fmt.Errorf("%s: %w", act, ErrInvalidDirection)
		}
	case Surface:
		if !ValidSector(act.Sector) {
			return fmt.Errorf("%s: %w", act, ErrInvalidSector)
		}
	case Torpedo:
		if act.Target.Row < 0 || act.Target.Row >= rows || act.Target.Col < 0 || act.Target.Col >= cols {
			return fmt.Errorf("%s: %w", act, ErrOutOfBounds)
		}
	case Sonar:
		if !ValidSector(act.Sector) {
			return fmt.Errorf("%s: %w", act, ErrInvalidSector)
		}
	case Silence:
	default:
		return fmt.Errorf("%w: %T", ErrUnknownAction, a)
	}
	return nil
}
