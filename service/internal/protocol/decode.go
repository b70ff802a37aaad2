// Package protocol reads and writes the Ocean of Code referee protocol.
//
// Input is line based: a header "width height myId", the map rows, then
// per turn a status line, our sonar result and the opponent's orders.
// Output is the starting cell, then one order line per turn. On the wire
// a cell is written "x y", x being the column.
package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	engine "github.com/jason-s-yu/ocean/engine"
	"github.com/jason-s-yu/ocean/engine/agent"
)

// ErrMalformed is wrapped by every decoding error.
var ErrMalformed = errors.New("malformed input")

// Header is the game setup sent once before the first turn.
type Header struct {
	Width     int
	Height    int
	MyID      int
	Obstacles engine.Grid // true = land
}

// Cooldowns are the turns left before each of our systems is charged.
type Cooldowns struct {
	Torpedo int
	Sonar   int
	Silence int
	Mine    int
}

// Status is the first line of every turn.
type Status struct {
	Pos       engine.Pos
	MyLife    int
	OppLife   int
	Cooldowns Cooldowns
}

// Turn is one full turn of input.
type Turn struct {
	Status      Status
	Sonar       agent.SonarResult
	OrdersKnown bool
	Orders      []engine.Action
}

// Decoder reads the referee's input stream.
type Decoder struct {
	sc   *bufio.Scanner
	line int
	log  logrus.FieldLogger
}

// NewDecoder reads from r. Dropped orders are logged to log at debug.
func NewDecoder(r io.Reader, log logrus.FieldLogger) *Decoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	return &Decoder{sc: sc, log: log}
}

func (d *Decoder) next() (string, error) {
	if !d.sc.Scan() {
		if err := d.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	d.line++
	return strings.TrimRight(d.sc.Text(), "\r\n "), nil
}

// ReadHeader reads the setup line and the map.
func (d *Decoder) ReadHeader() (Header, error) {
	line, err := d.next()
	if err != nil {
		return Header{}, fmt.Errorf("%w: header: %w", ErrMalformed, err)
	}
	nums, err := ints(line, 3)
	if err != nil {
		return Header{}, fmt.Errorf("line %d: header: %w", d.line, err)
	}
	h := Header{Width: nums[0], Height: nums[1], MyID: nums[2]}
	if h.Height < 1 || h.Height > engine.MaxRows || h.Width < 1 || h.Width > engine.MaxCols {
		return Header{}, fmt.Errorf("%w: map size %dx%d", ErrMalformed, h.Width, h.Height)
	}

	rows := make([]string, h.Height)
	for i := range rows {
		if rows[i], err = d.next(); err != nil {
			return Header{}, fmt.Errorf("%w: map row %d: %w", ErrMalformed, i, err)
		}
		if len(rows[i]) != h.Width {
			return Header{}, fmt.Errorf("%w: map row %d has %d cells, want %d", ErrMalformed, i, len(rows[i]), h.Width)
		}
	}
	if h.Obstacles, err = engine.GridFromRows(rows); err != nil {
		return Header{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return h, nil
}

// ReadTurn reads the three lines of one turn. It returns io.EOF when the
// input ends cleanly before a turn.
func (d *Decoder) ReadTurn() (Turn, error) {
	line, err := d.next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Turn{}, io.EOF
		}
		return Turn{}, err
	}

	var t Turn
	if t.Status, err = ParseStatus(line); err != nil {
		return Turn{}, fmt.Errorf("line %d: %w", d.line, err)
	}
	if line, err = d.next(); err != nil {
		return Turn{}, fmt.Errorf("%w: sonar line: %w", ErrMalformed, err)
	}
	if t.Sonar, err = ParseSonar(line); err != nil {
		return Turn{}, fmt.Errorf("line %d: %w", d.line, err)
	}
	if line, err = d.next(); err != nil {
		return Turn{}, fmt.Errorf("%w: orders line: %w", ErrMalformed, err)
	}
	if t.OrdersKnown, t.Orders, err = ParseOrders(line, d.log); err != nil {
		return Turn{}, fmt.Errorf("line %d: %w", d.line, err)
	}
	return t, nil
}

// ParseStatus parses "x y myLife oppLife torpedo sonar silence mine".
func ParseStatus(line string) (Status, error) {
	n, err := ints(line, 8)
	if err != nil {
		return Status{}, fmt.Errorf("status: %w", err)
	}
	return Status{
		Pos:     engine.Pos{Row: n[1], Col: n[0]},
		MyLife:  n[2],
		OppLife: n[3],
		Cooldowns: Cooldowns{
			Torpedo: n[4],
			Sonar:   n[5],
			Silence: n[6],
			Mine:    n[7],
		},
	}, nil
}

// ParseSonar parses the answer to our previous sonar: Y, N or NA.
func ParseSonar(line string) (agent.SonarResult, error) {
	switch strings.TrimSpace(line) {
	case "Y":
		return agent.SonarFound, nil
	case "N":
		return agent.SonarMissed, nil
	case "NA":
		return agent.SonarUnknown, nil
	}
	return agent.SonarUnknown, fmt.Errorf("%w: sonar result %q", ErrMalformed, line)
}

// ParseOrders parses the opponent's order line. "NA" means the orders are
// unknown (first turn). Orders that carry no position information (MINE,
// TRIGGER, MSG) are dropped.
func ParseOrders(line string, log logrus.FieldLogger) (bool, []engine.Action, error) {
	line = strings.TrimSpace(line)
	if line == "NA" {
		return false, nil, nil
	}
	var orders []engine.Action
	if line == "" {
		return true, orders, nil
	}
	for _, part := range strings.Split(line, "|") {
		a, ok, err := ParseOrder(part)
		if err != nil {
			return true, nil, err
		}
		if !ok {
			if log != nil {
				log.WithField("order", strings.TrimSpace(part)).Debug("dropping opponent order")
			}
			continue
		}
		orders = append(orders, a)
	}
	return true, orders, nil
}

// ParseOrder parses one opponent order. The boolean is false for orders
// the tracker ignores.
func ParseOrder(s string) (engine.Action, bool, error) {
	f := strings.Fields(s)
	if len(f) == 0 {
		return nil, false, fmt.Errorf("%w: empty order", ErrMalformed)
	}
	args := f[1:]
	switch f[0] {
	case "MOVE":
		if len(args) < 1 {
			return nil, false, fmt.Errorf("%w: %q", ErrMalformed, s)
		}
		dir, err := engine.ParseDirection(args[0])
		if err != nil {
			return nil, false, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		return engine.Move{Dir: dir}, true, nil

	case "SURFACE":
		n, err := ints(strings.Join(args, " "), 1)
		if err != nil {
			return nil, false, fmt.Errorf("SURFACE: %w", err)
		}
		return engine.Surface{Sector: n[0]}, true, nil

	case "TORPEDO":
		n, err := ints(strings.Join(args, " "), 2)
		if err != nil {
			return nil, false, fmt.Errorf("TORPEDO: %w", err)
		}
		return engine.Torpedo{Target: engine.Pos{Row: n[1], Col: n[0]}}, true, nil

	case "SONAR":
		n, err := ints(strings.Join(args, " "), 1)
		if err != nil {
			return nil, false, fmt.Errorf("SONAR: %w", err)
		}
		return engine.Sonar{Sector: n[0]}, true, nil

	case "SILENCE":
		return engine.Silence{}, true, nil

	case "MINE", "TRIGGER", "MSG":
		return nil, false, nil
	}
	return nil, false, fmt.Errorf("%w: unknown order %q", ErrMalformed, f[0])
}

// ints parses exactly n space-separated integers.
func ints(line string, n int) ([]int, error) {
	f := strings.Fields(line)
	if len(f) != n {
		return nil, fmt.Errorf("%w: want %d fields, got %d in %q", ErrMalformed, n, len(f), line)
	}
	out := make([]int, n)
	for i, s := range f {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		out[i] = v
	}
	return out, nil
}
