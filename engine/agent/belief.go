// Package agent implements opponent position tracking for Ocean of Code.
//
// The opponent's location is held as a FuzzyPos: either Exact (known
// cell) or Area (set of candidate cells). Each announced order moves the
// belief through Transition; feedback from our own torpedo and sonar
// narrows it further. A Tracker owns one belief and drives it turn by turn.
package agent

import (
	"errors"
	"fmt"

	engine "github.com/jason-s-yu/ocean/engine"
)

var (
	// ErrDesync means the order stream contradicts the belief: no candidate
	// cell is left. The Tracker recovers by resetting to full water.
	ErrDesync = errors.New("opponent tracking desync")
	// ErrInvalidLife means an observed life value is impossible (negative,
	// or higher than the value before).
	ErrInvalidLife = errors.New("invalid opponent life")
	// ErrInvalidBelief is returned for a nil or foreign FuzzyPos.
	ErrInvalidBelief = errors.New("invalid belief state")
)

// FuzzyPos is the belief about the opponent's position. The only
// implementations are Exact and Area.
type FuzzyPos interface {
	// Candidates is the number of cells the opponent may occupy.
	Candidates() int
	// Contains reports whether p is still a candidate.
	Contains(p engine.Pos) bool
	// Cells returns the candidate set on a map shaped like frame.
	Cells(frame engine.Grid) engine.Grid
	String() string
	isFuzzyPos()
}

// Exact is a belief with a single known position.
type Exact struct {
	Pos engine.Pos
}

// Area is a belief with a set of candidate positions.
type Area struct {
	Grid engine.Grid
}

func (Exact) isFuzzyPos() {}
func (Area) isFuzzyPos()  {}

func (e Exact) Candidates() int { return 1 }

func (e Exact) Contains(p engine.Pos) bool { return e.Pos == p }

func (e Exact) Cells(frame engine.Grid) engine.Grid {
	return frame.Empty().With(e.Pos, true)
}

func (e Exact) String() string { return "Exact: " + e.Pos.String() }

func (a Area) Candidates() int { return a.Grid.Count(true) }

func (a Area) Contains(p engine.Pos) bool { return a.Grid.Get(p) }

func (a Area) Cells(engine.Grid) engine.Grid { return a.Grid }

func (a Area) String() string { return "Area:\n" + a.Grid.String() }

// Normalize enforces the belief invariants: a single-cell Area collapses
// to Exact at that cell, and an empty Area is reported as ErrDesync.
func Normalize(state FuzzyPos) (FuzzyPos, error) {
	switch s := state.(type) {
	case Exact:
		return s, nil
	case Area:
		switch s.Grid.Count(true) {
		case 0:
			return s, ErrDesync
		case 1:
			p, _ := s.Grid.FirstMatch(true)
			return Exact{Pos: p}, nil
		}
		return s, nil
	}
	return state, fmt.Errorf("%w: %T", ErrInvalidBelief, state)
}
