// Package engine implements the map model for Ocean of Code opponent tracking.
//
// The central type is Grid, a bit-packed boolean map (one uint64 per row,
// bit index = column). Grids are small flat value types: they are copied
// with =, compared with ==, and every algebra method returns a new Grid
// instead of mutating the receiver.
package engine

import (
	"fmt"
	"math/bits"
	"strings"
)

const (
	MaxRows = 64
	MaxCols = 64
)

// Grid is a rows×cols boolean map. Bits outside the map are always zero,
// which keeps == meaningful.
type Grid struct {
	bits [MaxRows]uint64 // 512 bytes
	rows int
	cols int
}

// NewGrid returns an all-false grid.
func NewGrid(rows, cols int) (Grid, error) {
	if rows < 1 || rows > MaxRows || cols < 1 || cols > MaxCols {
		return Grid{}, fmt.Errorf("%w: %dx%d (max %dx%d)", ErrGridSize, rows, cols, MaxRows, MaxCols)
	}
	return Grid{rows: rows, cols: cols}, nil
}

// GridFromRows builds a grid from text rows where 'x' is true and '.' is false.
func GridFromRows(lines []string) (Grid, error) {
	if len(lines) == 0 {
		return Grid{}, fmt.Errorf("%w: no rows", ErrGridSize)
	}
	g, err := NewGrid(len(lines), len(lines[0]))
	if err != nil {
		return Grid{}, err
	}
	for r, line := range lines {
		if len(line) != g.cols {
			return Grid{}, fmt.Errorf("%w: row %d has %d cells, want %d", ErrGridSize, r, len(line), g.cols)
		}
		for c := 0; c < len(line); c++ {
			switch line[c] {
			case 'x':
				g.bits[r] |= 1 << uint(c)
			case '.':
			default:
				return Grid{}, fmt.Errorf("%w: %q at row %d col %d", ErrGridSymbol, line[c], r, c)
			}
		}
	}
	return g, nil
}

func (g Grid) Rows() int { return g.rows }
func (g Grid) Cols() int { return g.cols }

// InBounds reports whether p lies on the map.
func (g Grid) InBounds(p Pos) bool {
	return p.Row >= 0 && p.Row < g.rows && p.Col >= 0 && p.Col < g.cols
}

// colMask has one bit set per map column.
func (g Grid) colMask() uint64 {
	if g.cols >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(g.cols)) - 1
}

// ---------------------------------------------------------------------------
// Cell access
// ---------------------------------------------------------------------------

// Get returns the cell value. Positions outside the map read as false.
func (g Grid) Get(p Pos) bool {
	if !g.InBounds(p) {
		return false
	}
	return g.bits[p.Row]&(1<<uint(p.Col)) != 0
}

// Set writes the cell value. Positions outside the map are ignored; callers
// that care validate with InBounds first.
func (g *Grid) Set(p Pos, v bool) {
	if !g.InBounds(p) {
		return
	}
	if v {
		g.bits[p.Row] |= 1 << uint(p.Col)
	} else {
		g.bits[p.Row] &^= 1 << uint(p.Col)
	}
}

// With returns a copy of g with one cell changed.
func (g Grid) With(p Pos, v bool) Grid {
	g.Set(p, v)
	return g
}

// ---------------------------------------------------------------------------
// Boolean algebra. The other operand is clipped to g's bounds.
// ---------------------------------------------------------------------------

func (g Grid) And(o Grid) Grid {
	out := Grid{rows: g.rows, cols: g.cols}
	for r := 0; r < g.rows; r++ {
		out.bits[r] = g.bits[r] & o.bits[r]
	}
	return out
}

func (g Grid) Or(o Grid) Grid {
	out := Grid{rows: g.rows, cols: g.cols}
	mask := g.colMask()
	for r := 0; r < g.rows; r++ {
		out.bits[r] = (g.bits[r] | o.bits[r]) & mask
	}
	return out
}

// Not complements every cell inside the map.
func (g Grid) Not() Grid {
	out := Grid{rows: g.rows, cols: g.cols}
	mask := g.colMask()
	for r := 0; r < g.rows; r++ {
		out.bits[r] = ^g.bits[r] & mask
	}
	return out
}

// AndNot returns g ∧ ¬o.
func (g Grid) AndNot(o Grid) Grid {
	out := Grid{rows: g.rows, cols: g.cols}
	for r := 0; r < g.rows; r++ {
		out.bits[r] = g.bits[r] &^ o.bits[r]
	}
	return out
}

// Full returns an all-true grid with g's dimensions.
func (g Grid) Full() Grid { return Grid{rows: g.rows, cols: g.cols}.Not() }

// Empty returns an all-false grid with g's dimensions.
func (g Grid) Empty() Grid { return Grid{rows: g.rows, cols: g.cols} }

func (g Grid) Equal(o Grid) bool { return g == o }

// ---------------------------------------------------------------------------
// Translation
// ---------------------------------------------------------------------------

// Translate moves every true cell by d. Cells leaving the map are dropped
// and cells entering from outside are false.
func (g Grid) Translate(d Offset) Grid {
	out := Grid{rows: g.rows, cols: g.cols}
	if abs(d.DRow) >= g.rows || abs(d.DCol) >= g.cols {
		return out
	}
	mask := g.colMask()
	for r := 0; r < g.rows; r++ {
		src := r - d.DRow
		if src < 0 || src >= g.rows {
			continue
		}
		out.bits[r] = shiftRow(g.bits[src], d.DCol) & mask
	}
	return out
}

// Shift translates the grid n cells in direction d, exactly as n physical
// moves transform a set of prior positions into post-move positions.
func (g Grid) Shift(d Direction, n int) Grid {
	return g.Translate(d.Offset().Scale(n))
}

func shiftRow(row uint64, dcol int) uint64 {
	if dcol >= 0 {
		return row << uint(dcol)
	}
	return row >> uint(-dcol)
}

// Compose returns the union, over every true cell c of g, of kernel placed
// so that its origin cell lands on c. The result is clipped to g's bounds.
func (g Grid) Compose(kernel Grid, origin Pos) Grid {
	out := Grid{rows: g.rows, cols: g.cols}
	mask := g.colMask()
	kernel.ForEach(true, func(k Pos) {
		d := k.Sub(origin)
		if abs(d.DRow) >= g.rows || abs(d.DCol) >= g.cols {
			return
		}
		for r := 0; r < g.rows; r++ {
			src := r - d.DRow
			if src < 0 || src >= g.rows {
				continue
			}
			out.bits[r] |= shiftRow(g.bits[src], d.DCol) & mask
		}
	})
	return out
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// Count returns the number of cells equal to target.
func (g Grid) Count(target bool) int {
	n := 0
	for r := 0; r < g.rows; r++ {
		n += bits.OnesCount64(g.bits[r])
	}
	if target {
		return n
	}
	return g.rows*g.cols - n
}

// FirstMatch returns the lowest-row, then lowest-column cell equal to target.
func (g Grid) FirstMatch(target bool) (Pos, bool) {
	mask := g.colMask()
	for r := 0; r < g.rows; r++ {
		row := g.bits[r]
		if !target {
			row = ^row & mask
		}
		if row != 0 {
			return Pos{Row: r, Col: bits.TrailingZeros64(row)}, true
		}
	}
	return Pos{}, false
}

// ForEach calls fn for every cell equal to target in row-major order.
func (g Grid) ForEach(target bool, fn func(Pos)) {
	mask := g.colMask()
	for r := 0; r < g.rows; r++ {
		row := g.bits[r]
		if !target {
			row = ^row & mask
		}
		for row != 0 {
			c := bits.TrailingZeros64(row)
			fn(Pos{Row: r, Col: c})
			row &= row - 1
		}
	}
}

// Positions collects the cells equal to target in row-major order.
func (g Grid) Positions(target bool) []Pos {
	var out []Pos
	g.ForEach(target, func(p Pos) { out = append(out, p) })
	return out
}

// Flood returns the 4-connected region of false cells containing start.
// It is empty when start is out of bounds or true.
func (g Grid) Flood(start Pos) Grid {
	out := Grid{rows: g.rows, cols: g.cols}
	if !g.InBounds(start) || g.Get(start) {
		return out
	}
	free := g.Not()
	out.Set(start, true)
	for {
		next := out.
			Or(out.Shift(North, 1)).
			Or(out.Shift(East, 1)).
			Or(out.Shift(South, 1)).
			Or(out.Shift(West, 1)).
			And(free)
		if next == out {
			return out
		}
		out = next
	}
}

// ReachableCount is the size of the free region around start.
func (g Grid) ReachableCount(start Pos) int {
	return g.Flood(start).Count(true)
}

// String renders true cells as 'x' and false cells as '.', one line per row.
func (g Grid) String() string {
	var b strings.Builder
	for r := 0; r < g.rows; r++ {
		if r > 0 {
			b.WriteByte('\n')
		}
		for c := 0; c < g.cols; c++ {
			if g.bits[r]&(1<<uint(c)) != 0 {
				b.WriteByte('x')
			} else {
				b.WriteByte('.')
			}
		}
	}
	return b.String()
}
