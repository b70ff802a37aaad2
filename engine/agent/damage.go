package agent

import (
	"fmt"

	engine "github.com/jason-s-yu/ocean/engine"
)

// Torpedo damage: a direct hit costs two life points, a blast on one of
// the eight neighbouring cells costs one.
const (
	SplashDamage = 1
	DirectDamage = 2
)

// RefineDamage narrows the belief using the life the opponent lost to our
// torpedo at attack.
//
//   - lifeDelta 0: the shot missed; no refinement.
//   - lifeDelta 1: a splash hit. An Area is restricted to the eight cells
//     around attack; attack itself is excluded.
//   - lifeDelta ≥ 2: a direct hit; the opponent was at attack.
//
// A negative delta is an ErrInvalidLife. The result is normalized.
func RefineDamage(state FuzzyPos, attack engine.Pos, lifeDelta int, table *engine.MaskTable) (FuzzyPos, error) {
	if lifeDelta < 0 {
		return state, fmt.Errorf("%w: life delta %d", ErrInvalidLife, lifeDelta)
	}
	if !table.InBounds(attack) {
		return state, fmt.Errorf("attack %s: %w", attack, engine.ErrOutOfBounds)
	}

	switch {
	case lifeDelta == 0:
		return Normalize(state)
	case lifeDelta >= DirectDamage:
		return Exact{Pos: attack}, nil
	}

	switch s := state.(type) {
	case Area:
		splash, err := table.Splash(attack)
		if err != nil {
			return state, err
		}
		return Normalize(Area{Grid: s.Grid.And(splash)})
	case Exact:
		return s, nil
	}
	return state, fmt.Errorf("%w: %T", ErrInvalidBelief, state)
}

// RefineSonar narrows an Area with the answer to our own sonar on sector:
// found keeps only that sector, not found removes it. Exact beliefs are
// left alone.
func RefineSonar(state FuzzyPos, sector int, found bool, table *engine.MaskTable) (FuzzyPos, error) {
	mask, err := table.Sector(sector)
	if err != nil {
		return state, err
	}
	switch s := state.(type) {
	case Area:
		if found {
			return Normalize(Area{Grid: s.Grid.And(mask)})
		}
		return Normalize(Area{Grid: s.Grid.AndNot(mask)})
	case Exact:
		return s, nil
	}
	return state, fmt.Errorf("%w: %T", ErrInvalidBelief, state)
}
