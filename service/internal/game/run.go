package game

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jason-s-yu/ocean/service/internal/protocol"
)

// Run plays a whole match: it reads the header and turns from in and writes
// the start cell and each turn's orders to out. It returns nil when the
// input ends cleanly.
func Run(ctx context.Context, in io.Reader, out io.Writer, opts Options) error {
	s, dec, err := open(in, opts)
	if err != nil {
		return err
	}
	enc := protocol.NewEncoder(out)
	if err := enc.WriteStart(s.Start()); err != nil {
		return fmt.Errorf("writing start: %w", err)
	}

	for {
		if err := ctx.Err(); err != nil {
			s.End("cancelled")
			return err
		}
		turn, err := dec.ReadTurn()
		if errors.Is(err, io.EOF) {
			s.End("input closed")
			return nil
		}
		if err != nil {
			s.End("bad input")
			return fmt.Errorf("turn %d: %w", s.TurnID+1, err)
		}
		if err := enc.WriteOrders(s.Turn(turn)); err != nil {
			return fmt.Errorf("turn %d: writing orders: %w", s.TurnID, err)
		}
	}
}

// open reads the header and builds the session for it.
func open(in io.Reader, opts Options) (*Session, *protocol.Decoder, error) {
	dec := protocol.NewDecoder(in, opts.Logger)
	h, err := dec.ReadHeader()
	if err != nil {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}
	s, err := NewSession(h, opts)
	if err != nil {
		return nil, nil, err
	}
	return s, dec, nil
}
