package engine

import (
	"math/rand/v2"
	"testing"
)

// mustGrid builds a grid from text rows or fails the test.
func mustGrid(t *testing.T, rows ...string) Grid {
	t.Helper()
	g, err := GridFromRows(rows)
	if err != nil {
		t.Fatalf("GridFromRows(%q): %v", rows, err)
	}
	return g
}

// randomGrid fills a rows×cols grid with roughly half its cells set.
func randomGrid(rng *rand.Rand, rows, cols int) Grid {
	g, _ := NewGrid(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			g.Set(Pos{Row: r, Col: c}, rng.IntN(2) == 1)
		}
	}
	return g
}

func TestNewGridBounds(t *testing.T) {
	tests := []struct {
		rows, cols int
		ok         bool
	}{
		{1, 1, true},
		{15, 15, true},
		{64, 64, true},
		{0, 5, false},
		{5, 0, false},
		{65, 5, false},
		{5, 65, false},
	}
	for _, tt := range tests {
		_, err := NewGrid(tt.rows, tt.cols)
		if (err == nil) != tt.ok {
			t.Errorf("NewGrid(%d,%d) err = %v, want ok=%v", tt.rows, tt.cols, err, tt.ok)
		}
	}
}

func TestGridFromRowsRejectsBadInput(t *testing.T) {
	if _, err := GridFromRows([]string{"..x", ".?."}); err == nil {
		t.Error("expected error for unknown symbol")
	}
	if _, err := GridFromRows([]string{"...", ".."}); err == nil {
		t.Error("expected error for ragged rows")
	}
	if _, err := GridFromRows(nil); err == nil {
		t.Error("expected error for empty input")
	}
}

// TestGridSetGet verifies single-cell access and that out-of-bounds
// positions never wrap onto another cell.
func TestGridSetGet(t *testing.T) {
	g, _ := NewGrid(3, 4)
	g.Set(Pos{Row: 1, Col: 2}, true)
	if !g.Get(Pos{Row: 1, Col: 2}) {
		t.Fatal("Get(1,2) = false after Set")
	}
	g.Set(Pos{Row: 0, Col: 4}, true)
	g.Set(Pos{Row: -1, Col: 0}, true)
	g.Set(Pos{Row: 3, Col: 0}, true)
	if got := g.Count(true); got != 1 {
		t.Errorf("Count(true) = %d after out-of-bounds sets, want 1", got)
	}
	if g.Get(Pos{Row: 1, Col: -2}) {
		t.Error("Get outside the map returned true")
	}
	g.Set(Pos{Row: 1, Col: 2}, false)
	if g.Count(true) != 0 {
		t.Error("Set(false) did not clear the cell")
	}
}

func TestGridAlgebra(t *testing.T) {
	a := mustGrid(t,
		".x.",
		".x.",
		"...",
	)
	b := mustGrid(t,
		".x.",
		"..x",
		"...",
	)
	tests := []struct {
		name string
		got  Grid
		want Grid
	}{
		{"and", a.And(b), mustGrid(t, ".x.", "...", "...")},
		{"and_not", a.AndNot(b), mustGrid(t, "...", ".x.", "...")},
		{"or", a.Or(b), mustGrid(t, ".x.", ".xx", "...")},
		{"not", a.Not(), mustGrid(t, "x.x", "x.x", "xxx")},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s:\n%s\nwant\n%s", tt.name, tt.got, tt.want)
		}
	}
}

// TestGridLaws checks the boolean-algebra laws on random grids, including
// a full-width map where the column mask is all ones.
func TestGridLaws(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	shapes := [][2]int{{5, 5}, {15, 15}, {7, 13}, {4, 64}}
	for _, s := range shapes {
		for i := 0; i < 50; i++ {
			a := randomGrid(rng, s[0], s[1])
			b := randomGrid(rng, s[0], s[1])
			c := randomGrid(rng, s[0], s[1])

			if a.And(b) != b.And(a) {
				t.Fatalf("%v: and not commutative", s)
			}
			if a.Or(b) != b.Or(a) {
				t.Fatalf("%v: or not commutative", s)
			}
			if a.And(b).And(c) != a.And(b.And(c)) {
				t.Fatalf("%v: and not associative", s)
			}
			if a.Or(b).Or(c) != a.Or(b.Or(c)) {
				t.Fatalf("%v: or not associative", s)
			}
			if a.Not().Not() != a {
				t.Fatalf("%v: not not involutive", s)
			}
			if a.AndNot(b) != a.And(b.Not()) {
				t.Fatalf("%v: and_not(a,b) != and(a, not b)", s)
			}
			if a.Or(a.And(b)) != a {
				t.Fatalf("%v: absorption failed", s)
			}
			if a.Count(true)+a.Count(false) != s[0]*s[1] {
				t.Fatalf("%v: counts do not cover the map", s)
			}
		}
	}
}

func TestGridShift(t *testing.T) {
	middle := mustGrid(t, "...", ".x.", "...")
	tests := []struct {
		dir  Direction
		want Grid
	}{
		{North, mustGrid(t, ".x.", "...", "...")},
		{East, mustGrid(t, "...", "..x", "...")},
		{South, mustGrid(t, "...", "...", ".x.")},
		{West, mustGrid(t, "...", "x..", "...")},
	}
	for _, tt := range tests {
		got := middle.Shift(tt.dir, 1)
		if got != tt.want {
			t.Errorf("Shift(%s):\n%s\nwant\n%s", tt.dir, got, tt.want)
		}
		if back := got.Shift(tt.dir, -1); back != middle {
			t.Errorf("Shift(%s) then back:\n%s", tt.dir, back)
		}
	}
}

// TestGridShiftDropsEdges verifies that shifting never creates cells and
// that n+m steps equal n steps followed by m steps.
func TestGridShiftDropsEdges(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 9))
	for i := 0; i < 100; i++ {
		a := randomGrid(rng, 9, 11)
		for _, d := range Directions {
			if a.Shift(d, 1).Count(true) > a.Count(true) {
				t.Fatalf("Shift(%s) created cells", d)
			}
			n, m := rng.IntN(5), rng.IntN(5)
			if a.Shift(d, n).Shift(d, m) != a.Shift(d, n+m) {
				t.Fatalf("Shift(%s,%d) then %d differs from Shift(%d)", d, n, m, n+m)
			}
		}
	}

	full, _ := NewGrid(4, 6)
	full = full.Full()
	if got := full.Shift(East, 1).Count(true); got != 4*5 {
		t.Errorf("full 4x6 shifted east: %d cells, want 20", got)
	}
	if got := full.Shift(North, 10).Count(true); got != 0 {
		t.Errorf("shift past the map edge left %d cells", got)
	}
}

func TestGridFirstMatch(t *testing.T) {
	g := mustGrid(t,
		"xxxx",
		"xx.x",
		"x...",
	)
	p, ok := g.FirstMatch(false)
	if !ok || p != (Pos{Row: 1, Col: 2}) {
		t.Errorf("FirstMatch(false) = %v,%v want (1,2)", p, ok)
	}
	p, ok = g.FirstMatch(true)
	if !ok || p != (Pos{Row: 0, Col: 0}) {
		t.Errorf("FirstMatch(true) = %v,%v want (0,0)", p, ok)
	}
	empty, _ := NewGrid(2, 2)
	if _, ok := empty.FirstMatch(true); ok {
		t.Error("FirstMatch(true) on empty grid reported a match")
	}
}

func TestGridCompose(t *testing.T) {
	src := mustGrid(t,
		".....",
		".x...",
		".....",
		"....x",
		".....",
	)
	// plus-shaped kernel with its centre as origin
	kernel := mustGrid(t,
		".x.",
		"xxx",
		".x.",
	)
	want := mustGrid(t,
		".x...",
		"xxx..",
		".x..x",
		"...xx",
		"....x",
	)
	got := src.Compose(kernel, Pos{Row: 1, Col: 1})
	if got != want {
		t.Errorf("Compose:\n%s\nwant\n%s", got, want)
	}

	// A single-cell kernel at its origin is the identity.
	unit := mustGrid(t, "x")
	if got := src.Compose(unit, Pos{}); got != src {
		t.Errorf("Compose with unit kernel changed the grid:\n%s", got)
	}
}

func TestGridFlood(t *testing.T) {
	walls := mustGrid(t,
		"...",
		"xxx",
		"...",
	)
	if got := walls.ReachableCount(Pos{Row: 0, Col: 0}); got != 3 {
		t.Errorf("ReachableCount above wall = %d, want 3", got)
	}
	if got := walls.ReachableCount(Pos{Row: 1, Col: 1}); got != 0 {
		t.Errorf("ReachableCount on wall = %d, want 0", got)
	}

	g, _ := NewGrid(3, 3)
	g.Set(Pos{Row: 1, Col: 0}, true)
	if got := g.ReachableCount(Pos{}); got != 8 {
		t.Errorf("one wall: %d, want 8", got)
	}
	g.Set(Pos{Row: 1, Col: 1}, true)
	if got := g.ReachableCount(Pos{Row: 2, Col: 1}); got != 7 {
		t.Errorf("two walls: %d, want 7", got)
	}
	g.Set(Pos{Row: 1, Col: 2}, true)
	if got := g.ReachableCount(Pos{}); got != 3 {
		t.Errorf("split map: %d, want 3", got)
	}

	const size = 15
	big, _ := NewGrid(size, size)
	for c := 0; c < size; c++ {
		big.Set(Pos{Row: size / 2, Col: c}, true)
	}
	if got := big.ReachableCount(Pos{}); got != size/2*size {
		t.Errorf("15x15 half: %d, want %d", got, size/2*size)
	}
	big.Set(Pos{Row: 1, Col: 1}, true)
	big.Set(Pos{Row: 1, Col: 2}, true)
	if got := big.ReachableCount(Pos{}); got != size/2*size-2 {
		t.Errorf("15x15 half with islands: %d, want %d", got, size/2*size-2)
	}
}

func TestGridString(t *testing.T) {
	rows := []string{"x..", ".x.", "..x"}
	g := mustGrid(t, rows...)
	want := "x..\n.x.\n..x"
	if g.String() != want {
		t.Errorf("String() = %q, want %q", g.String(), want)
	}
}
