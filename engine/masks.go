package engine

import "fmt"

// Mask is a precomputed kernel together with its reference cell. Placing a
// mask at p means translating it so that Origin lands on p.
type Mask struct {
	Grid   Grid
	Origin Pos
}

// Place stamps the mask onto a map shaped like frame, origin on at.
// Parts of the kernel that fall off the map are dropped.
func (m Mask) Place(frame Grid, at Pos) Grid {
	return frame.Empty().With(at, true).Compose(m.Grid, m.Origin)
}

// MaskTable holds every static mask derived from the obstacle map and the
// rule constants. It is built once by NewMaskTable and only read after
// that; all accessors return copies, so a table can be shared freely.
type MaskTable struct {
	cfg       MaskConfig
	obstacles Grid
	water     Grid

	sectorRows int
	sectorCols int
	sectors    [SectorCount]Grid

	attack  Mask
	stealth Mask
	splash  Mask
}

// NewMaskTable computes the sector, attack, stealth and splash masks for
// the given obstacle map (true = land).
func NewMaskTable(obstacles Grid, cfg MaskConfig) (*MaskTable, error) {
	if obstacles.rows < 1 || obstacles.cols < 1 {
		return nil, fmt.Errorf("%w: obstacle map is %dx%d", ErrGridSize, obstacles.rows, obstacles.cols)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := &MaskTable{
		cfg:        cfg,
		obstacles:  obstacles,
		water:      obstacles.Not(),
		sectorRows: max(obstacles.rows/SectorsPerSide, 1),
		sectorCols: max(obstacles.cols/SectorsPerSide, 1),
	}
	for i := range t.sectors {
		t.sectors[i] = obstacles.Empty()
	}
	obstacles.Full().ForEach(true, func(p Pos) {
		id := t.sectorOf(p)
		t.sectors[id-1].Set(p, true)
	})

	t.attack = diamondMask(cfg.TorpedoRange)
	t.stealth = crossMask(cfg.StealthRange, cfg.StealthZeroMove)
	t.splash = splashMask()
	return t, nil
}

// diamondMask is true on every cell within Manhattan distance r of the centre.
func diamondMask(r int) Mask {
	k, _ := NewGrid(2*r+1, 2*r+1)
	origin := Pos{Row: r, Col: r}
	k.Full().ForEach(true, func(p Pos) {
		if p.Manhattan(origin) <= r {
			k.Set(p, true)
		}
	})
	return Mask{Grid: k, Origin: origin}
}

// crossMask is true on every cell reachable by 1..r straight steps along
// one axis, plus the centre when zeroMove is set.
func crossMask(r int, zeroMove bool) Mask {
	k, _ := NewGrid(2*r+1, 2*r+1)
	origin := Pos{Row: r, Col: r}
	for _, d := range Directions {
		for n := 1; n <= r; n++ {
			k.Set(origin.Add(d.Offset().Scale(n)), true)
		}
	}
	k.Set(origin, zeroMove)
	return Mask{Grid: k, Origin: origin}
}

// splashMask is the 3×3 neighbourhood without its centre.
func splashMask() Mask {
	k, _ := NewGrid(3, 3)
	origin := Pos{Row: 1, Col: 1}
	return Mask{Grid: k.Full().With(origin, false), Origin: origin}
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (t *MaskTable) Config() MaskConfig { return t.cfg }
func (t *MaskTable) Rows() int          { return t.obstacles.rows }
func (t *MaskTable) Cols() int          { return t.obstacles.cols }

// Obstacles returns the land map.
func (t *MaskTable) Obstacles() Grid { return t.obstacles }

// Water returns the complement of the land map, the "fully unknown" belief.
func (t *MaskTable) Water() Grid { return t.water }

func (t *MaskTable) InBounds(p Pos) bool { return t.obstacles.InBounds(p) }

func (t *MaskTable) AttackKernel() Mask  { return t.attack }
func (t *MaskTable) StealthKernel() Mask { return t.stealth }
func (t *MaskTable) SplashKernel() Mask  { return t.splash }

func (t *MaskTable) checkPos(p Pos) error {
	if !t.InBounds(p) {
		return fmt.Errorf("%w: %s on %dx%d map", ErrOutOfBounds, p, t.obstacles.cols, t.obstacles.rows)
	}
	return nil
}

// Sector returns the mask of sector id (1..9, row-major).
func (t *MaskTable) Sector(id int) (Grid, error) {
	if !ValidSector(id) {
		return Grid{}, fmt.Errorf("%w: %d", ErrInvalidSector, id)
	}
	return t.sectors[id-1], nil
}

// SectorOf returns the sector containing p.
func (t *MaskTable) SectorOf(p Pos) (int, error) {
	if err := t.checkPos(p); err != nil {
		return 0, err
	}
	return t.sectorOf(p), nil
}

// sectorOf assigns leftover rows and columns (maps whose sides are not a
// multiple of three) to the last band.
func (t *MaskTable) sectorOf(p Pos) int {
	band := func(v, size int) int { return min(v/size, SectorsPerSide-1) }
	return band(p.Row, t.sectorRows)*SectorsPerSide + band(p.Col, t.sectorCols) + 1
}

// AttackArea is the set of cells a torpedo aimed at target can be fired from.
func (t *MaskTable) AttackArea(target Pos) (Grid, error) {
	if err := t.checkPos(target); err != nil {
		return Grid{}, err
	}
	return t.attack.Place(t.obstacles, target), nil
}

// StealthArea is the set of cells one silence can reach from `from`,
// land included. Callers remove land themselves.
func (t *MaskTable) StealthArea(from Pos) (Grid, error) {
	if err := t.checkPos(from); err != nil {
		return Grid{}, err
	}
	return t.stealth.Place(t.obstacles, from), nil
}

// Splash is the 3×3 neighbourhood of p without p itself.
func (t *MaskTable) Splash(p Pos) (Grid, error) {
	if err := t.checkPos(p); err != nil {
		return Grid{}, err
	}
	return t.splash.Place(t.obstacles, p), nil
}
