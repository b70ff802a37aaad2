package engine

import "errors"

// Input contract violations. Callers match them with errors.Is; the
// wrapped message carries the offending value.
var (
	ErrGridSize         = errors.New("grid size out of range")
	ErrGridSymbol       = errors.New("unexpected map symbol")
	ErrOutOfBounds      = errors.New("position outside map")
	ErrInvalidSector    = errors.New("sector id out of range")
	ErrInvalidDirection = errors.New("invalid direction")
	ErrUnknownAction    = errors.New("unknown action")
	ErrInvalidConfig    = errors.New("invalid mask config")
)
