// internal/driver/observer.go
package driver

import (
	"time"

	"github.com/google/uuid"

	"github.com/tamzrod/uhf-replicator/internal/protocol"
	"github.com/tamzrod/uhf-replicator/internal/transport"
)

// Direction of a frame on the wire.
type Direction uint8

const (
	Tx Direction = iota + 1
	Rx
)

func (d Direction) String() string {
	if d == Tx {
		return "tx"
	}
	return "rx"
}

// FrameEvent is one complete frame seen by a session.
type FrameEvent struct {
	Session uuid.UUID
	Reader  string
	Family  protocol.Family
	Dir     Direction
	At      time.Time
	Data    []byte
}

// ExchangeEvent is one finished command/reply cycle.
type ExchangeEvent struct {
	Session  uuid.UUID
	Reader   string
	Family   protocol.Family
	Opcode   protocol.Opcode
	Duration time.Duration
	Err      error
}

// Observer receives session traffic. Implementations must not block.
type Observer interface {
	ObserveFrame(FrameEvent)
	ObserveExchange(ExchangeEvent)
}

// MultiObserver fans events out in order. Nil entries are skipped.
type MultiObserver []Observer

func (m MultiObserver) ObserveFrame(ev FrameEvent) {
	for _, o := range m {
		if o != nil {
			o.ObserveFrame(ev)
		}
	}
}

func (m MultiObserver) ObserveExchange(ev ExchangeEvent) {
	for _, o := range m {
		if o != nil {
			o.ObserveExchange(ev)
		}
	}
}

// ---- link ----

// sessionLink is the session's inventory.Link: it frames commands for the
// session family and reports every frame to the logger and observer.
type sessionLink struct {
	s *Session
}

func (l sessionLink) Send(cmd protocol.Command) error {
	b, err := protocol.Encode(cmd)
	if err != nil {
		return err
	}
	l.s.frame(Tx, b)
	return l.s.t.Write(b)
}

func (l sessionLink) Receive() ([]byte, error) {
	b, err := transport.ReadFrame(l.s.t, l.s.opts.Family)
	if err != nil {
		l.s.log.Debug().Err(err).Msg("receive failed")
		return nil, err
	}
	if b != nil {
		l.s.frame(Rx, b)
	}
	return b, nil
}
