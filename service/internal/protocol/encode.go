package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	engine "github.com/jason-s-yu/ocean/engine"
)

// System is one of our submarine's chargeable systems.
type System uint8

const (
	SystemTorpedo System = iota
	SystemSonar
	SystemSilence
	SystemMine
)

func (s System) String() string {
	switch s {
	case SystemTorpedo:
		return "TORPEDO"
	case SystemSonar:
		return "SONAR"
	case SystemSilence:
		return "SILENCE"
	case SystemMine:
		return "MINE"
	}
	return fmt.Sprintf("System(%d)", uint8(s))
}

// Order is one of our own orders. Our orders carry more than the
// opponent's as seen by us: the charged system, the silence vector.
type Order interface {
	fmt.Stringer
	isOrder()
}

// MoveOrder moves one cell and charges a system.
type MoveOrder struct {
	Dir    engine.Direction
	Charge System
}

// SurfaceOrder surfaces, clearing our trail.
type SurfaceOrder struct{}

// TorpedoOrder fires at Target.
type TorpedoOrder struct {
	Target engine.Pos
}

// SonarOrder probes a sector.
type SonarOrder struct {
	Sector int
}

// SilenceOrder moves Dist cells in Dir without revealing it.
type SilenceOrder struct {
	Dir  engine.Direction
	Dist int
}

func (MoveOrder) isOrder()    {}
func (SurfaceOrder) isOrder() {}
func (TorpedoOrder) isOrder() {}
func (SonarOrder) isOrder()   {}
func (SilenceOrder) isOrder() {}

func (o MoveOrder) String() string    { return fmt.Sprintf("MOVE %s %s", o.Dir, o.Charge) }
func (SurfaceOrder) String() string   { return "SURFACE" }
func (o TorpedoOrder) String() string { return "TORPEDO " + FormatPos(o.Target) }
func (o SonarOrder) String() string   { return fmt.Sprintf("SONAR %d", o.Sector) }
func (o SilenceOrder) String() string { return fmt.Sprintf("SILENCE %s %d", o.Dir, o.Dist) }

// FormatPos writes a cell as "x y".
func FormatPos(p engine.Pos) string {
	return fmt.Sprintf("%d %d", p.Col, p.Row)
}

// FormatOrders joins orders into one output line.
func FormatOrders(orders []Order) string {
	parts := make([]string, len(orders))
	for i, o := range orders {
		parts[i] = o.String()
	}
	return strings.Join(parts, " | ")
}

// Encoder writes our side of the protocol. Every line is flushed
// immediately; the referee waits for it.
type Encoder struct {
	w *bufio.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// WriteStart announces the starting cell.
func (e *Encoder) WriteStart(p engine.Pos) error {
	return e.writeLine(FormatPos(p))
}

// WriteOrders writes one turn's orders. A turn needs at least one order.
func (e *Encoder) WriteOrders(orders []Order) error {
	if len(orders) == 0 {
		return errors.New("protocol: no orders to write")
	}
	return e.writeLine(FormatOrders(orders))
}

func (e *Encoder) writeLine(s string) error {
	if _, err := e.w.WriteString(s + "\n"); err != nil {
		return err
	}
	return e.w.Flush()
}
