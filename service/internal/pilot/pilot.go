// Package pilot steers our own submarine: it picks the start cell, the
// next move, and when to fire or probe using the tracker's belief.
package pilot

import (
	"math/rand/v2"

	"github.com/sirupsen/logrus"

	engine "github.com/jason-s-yu/ocean/engine"
	"github.com/jason-s-yu/ocean/engine/agent"
	"github.com/jason-s-yu/ocean/service/internal/protocol"
)

// moveOrder is the order legal directions are considered in.
var moveOrder = [4]engine.Direction{engine.East, engine.North, engine.West, engine.South}

// Plan is one turn of decisions. Attack and SonarSector are reported back
// to the tracker so the next turn's feedback can be interpreted.
type Plan struct {
	Orders      []protocol.Order
	HasAttack   bool
	Attack      engine.Pos
	SonarSector int // 0 when no sonar was issued
}

// Pilot holds our side's movement state. A submarine may not cross its own
// trail until it surfaces, so visited cells are tracked alongside land.
type Pilot struct {
	table   *engine.MaskTable
	blocked engine.Grid // land plus our trail since the last surface
	dir     engine.Direction
	hasDir  bool
	rng     *rand.Rand
	log     logrus.FieldLogger
}

// New returns a pilot for the map in table. The seed drives the start
// cell choice.
func New(table *engine.MaskTable, seed uint64, log logrus.FieldLogger) *Pilot {
	return &Pilot{
		table:   table,
		blocked: table.Obstacles(),
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		log:     log,
	}
}

// Start picks a random water cell to begin on.
func (p *Pilot) Start() engine.Pos {
	water := p.table.Water().Positions(true)
	return water[p.rng.IntN(len(water))]
}

// Blocked returns the cells we may not move onto.
func (p *Pilot) Blocked() engine.Grid { return p.blocked }

// Plan decides this turn's orders from our status and the opponent belief.
func (p *Pilot) Plan(st protocol.Status, belief agent.FuzzyPos) Plan {
	p.blocked.Set(st.Pos, true)

	var plan Plan
	if target, ok := p.torpedoTarget(st, belief); ok {
		plan.Orders = append(plan.Orders, protocol.TorpedoOrder{Target: target})
		plan.HasAttack = true
		plan.Attack = target
	}
	if sector, ok := p.sonarSector(st, belief); ok {
		plan.Orders = append(plan.Orders, protocol.SonarOrder{Sector: sector})
		plan.SonarSector = sector
	}

	dir, ok := p.nextDir(st.Pos)
	if !ok {
		plan.Orders = append(plan.Orders, protocol.SurfaceOrder{})
		p.surface(st.Pos)
		return plan
	}
	p.dir, p.hasDir = dir, true

	if st.Cooldowns.Silence == 0 {
		plan.Orders = append(plan.Orders, protocol.SilenceOrder{Dir: dir, Dist: 1})
	} else {
		plan.Orders = append(plan.Orders, protocol.MoveOrder{Dir: dir, Charge: charge(st.Cooldowns)})
	}
	return plan
}

// surface clears our trail; the next Plan marks wherever we are.
func (p *Pilot) surface(at engine.Pos) {
	p.log.WithField("pos", at.String()).Debug("no legal move, surfacing")
	p.blocked = p.table.Obstacles()
	p.hasDir = false
}

// legalDirs lists the directions leading to an unblocked cell.
func (p *Pilot) legalDirs(from engine.Pos) []engine.Direction {
	var dirs []engine.Direction
	for _, d := range moveOrder {
		next, ok := d.Apply(from, p.table.Rows(), p.table.Cols())
		if ok && !p.blocked.Get(next) {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// nextDir picks a move. With two options the one opening onto the larger
// free region wins; with more, the previous heading is kept when possible.
func (p *Pilot) nextDir(from engine.Pos) (engine.Direction, bool) {
	dirs := p.legalDirs(from)
	switch len(dirs) {
	case 0:
		return 0, false
	case 1:
		return dirs[0], true
	case 2:
		best, bestScore := dirs[0], -1
		for _, d := range dirs {
			next, _ := d.Apply(from, p.table.Rows(), p.table.Cols())
			score := p.blocked.ReachableCount(next)
			p.log.WithFields(logrus.Fields{"dir": d.String(), "score": score}).Debug("scored direction")
			if score >= bestScore {
				best, bestScore = d, score
			}
		}
		return best, true
	}
	if p.hasDir {
		for _, d := range dirs {
			if d == p.dir {
				return d, true
			}
		}
	}
	return dirs[0], true
}

// torpedoTarget fires only at a known opponent inside our range and far
// enough away that the blast does not reach us.
func (p *Pilot) torpedoTarget(st protocol.Status, belief agent.FuzzyPos) (engine.Pos, bool) {
	if st.Cooldowns.Torpedo > 0 {
		return engine.Pos{}, false
	}
	e, ok := belief.(agent.Exact)
	if !ok || e.Pos == st.Pos {
		return engine.Pos{}, false
	}
	reach, err := p.table.AttackArea(st.Pos)
	if err != nil || !reach.Get(e.Pos) {
		return engine.Pos{}, false
	}
	near, err := p.table.Splash(st.Pos)
	if err != nil || near.Get(e.Pos) {
		return engine.Pos{}, false
	}
	return e.Pos, true
}

// sonarSector probes the sector holding the most candidates, as long as
// the candidates span more than one sector.
func (p *Pilot) sonarSector(st protocol.Status, belief agent.FuzzyPos) (int, bool) {
	if st.Cooldowns.Sonar > 0 {
		return 0, false
	}
	area, ok := belief.(agent.Area)
	if !ok {
		return 0, false
	}
	total := area.Candidates()
	best, bestCount := 0, 0
	for id := 1; id <= engine.SectorCount; id++ {
		mask, err := p.table.Sector(id)
		if err != nil {
			continue
		}
		if n := area.Grid.And(mask).Count(true); n > bestCount {
			best, bestCount = id, n
		}
	}
	if best == 0 || bestCount == total {
		return 0, false
	}
	return best, true
}

// charge picks the system a plain move charges: torpedo first, then sonar,
// then silence.
func charge(cd protocol.Cooldowns) protocol.System {
	switch {
	case cd.Torpedo > 0:
		return protocol.SystemTorpedo
	case cd.Sonar > 0:
		return protocol.SystemSonar
	}
	return protocol.SystemSilence
}
