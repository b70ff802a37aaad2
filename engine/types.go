package engine

import "fmt"

// Pos is a map cell. Row 0 is the top of the map, column 0 the left edge.
type Pos struct {
	Row int
	Col int
}

// Offset is a signed displacement between two positions.
type Offset struct {
	DRow int
	DCol int
}

// Sub returns the offset that moves o onto p.
func (p Pos) Sub(o Pos) Offset { return Offset{DRow: p.Row - o.Row, DCol: p.Col - o.Col} }

// Add translates p by d. The result may lie outside any map.
func (p Pos) Add(d Offset) Pos { return Pos{Row: p.Row + d.DRow, Col: p.Col + d.DCol} }

// Manhattan returns |dRow| + |dCol| between p and o.
func (p Pos) Manhattan(o Pos) int {
	d := p.Sub(o)
	return abs(d.DRow) + abs(d.DCol)
}

// String renders the position in wire order (x = column, y = row).
func (p Pos) String() string { return fmt.Sprintf("[%d;%d]", p.Col, p.Row) }

// Scale multiplies both components by n.
func (d Offset) Scale(n int) Offset { return Offset{DRow: d.DRow * n, DCol: d.DCol * n} }

// Neg returns the opposite displacement.
func (d Offset) Neg() Offset { return Offset{DRow: -d.DRow, DCol: -d.DCol} }

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// ---------------------------------------------------------------------------
// Direction
// ---------------------------------------------------------------------------

// Direction is one of the four compass moves.
type Direction uint8

const (
	North Direction = iota // 0
	East                   // 1
	South                  // 2
	West                   // 3
)

// Directions lists every direction in declaration order.
var Directions = [4]Direction{North, East, South, West}

var directionOffsets = [4]Offset{
	North: {DRow: -1},
	East:  {DCol: 1},
	South: {DRow: 1},
	West:  {DCol: -1},
}

// Valid reports whether d is one of the four compass directions.
func (d Direction) Valid() bool { return d <= West }

// Offset returns the unit displacement of d.
func (d Direction) Offset() Offset {
	if !d.Valid() {
		return Offset{}
	}
	return directionOffsets[d]
}

// Apply moves p one cell in direction d on a rows×cols map.
// North is invalid at row 0 and West at column 0; South and East are
// checked against the map size.
func (d Direction) Apply(p Pos, rows, cols int) (Pos, bool) {
	switch d {
	case North:
		if p.Row == 0 {
			return p, false
		}
	case West:
		if p.Col == 0 {
			return p, false
		}
	case South:
		if p.Row+1 >= rows {
			return p, false
		}
	case East:
		if p.Col+1 >= cols {
			return p, false
		}
	default:
		return p, false
	}
	return p.Add(d.Offset()), true
}

// String returns the single-letter wire form (N, E, S, W).
func (d Direction) String() string {
	switch d {
	case North:
		return "N"
	case East:
		return "E"
	case South:
		return "S"
	case West:
		return "W"
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

// ParseDirection decodes the single-letter wire form.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "N":
		return North, nil
	case "E":
		return East, nil
	case "S":
		return South, nil
	case "W":
		return West, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}
