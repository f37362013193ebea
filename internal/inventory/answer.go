// internal/inventory/answer.go
package inventory

import (
	"context"
	"encoding/binary"

	"github.com/tamzrod/uhf-replicator/internal/protocol"
)

// StopKind selects how the reader ends an answer-mode inventory.
type StopKind uint8

const (
	StopAfterTime   StopKind = 0x00 // seconds
	StopAfterCycles StopKind = 0x01
)

func (k StopKind) String() string {
	if k == StopAfterCycles {
		return "cycles"
	}
	return "time"
}

// StopCondition is encoded as [kind][u32 big-endian].
type StopCondition struct {
	Kind  StopKind
	Value uint32
}

func (s StopCondition) Payload() []byte {
	return binary.BigEndian.AppendUint32([]byte{byte(s.Kind)}, s.Value)
}

// maxIdleReads bounds consecutive idle reads: Next ends the stream after
// that many, and Stop gives up waiting for the stop reply.
const maxIdleReads = 3

// Answer is the Family B continuous inventory: one start command, then one
// tag per reply until the reader stops or is told to stop.
type Answer struct {
	cursor
	link    Link
	cmd     protocol.Command
	stopCmd protocol.Command
	live    bool // reader started and has not reported its stop
}

func NewAnswer(link Link, address uint8, stop StopCondition) (*Answer, error) {
	if stop.Kind != StopAfterTime && stop.Kind != StopAfterCycles {
		return nil, protocol.Invalid("stop.kind", stop.Kind, "must be time or cycles")
	}
	cmd, err := protocol.NewCommand(protocol.FamilyB, address, protocol.OpBInventory, stop.Payload())
	if err != nil {
		return nil, err
	}
	stopCmd, err := protocol.NewCommand(protocol.FamilyB, address, protocol.OpBInventoryStop, nil)
	if err != nil {
		return nil, err
	}
	return &Answer{link: link, cmd: cmd, stopCmd: stopCmd}, nil
}

// Live reports whether the reader may still be sending tag replies: the
// stream was started and neither the reader nor Stop has ended it.
func (a *Answer) Live() bool { return a.live }

// StopCommand is the command that ends the stream early.
func (a *Answer) StopCommand() protocol.Command { return a.stopCmd }

func (a *Answer) Next(ctx context.Context) bool {
	if a.done() || a.cancelled(ctx) {
		return false
	}
	if a.state == Idle {
		if err := a.link.Send(a.cmd); err != nil {
			return a.fail(err)
		}
		a.state, a.live = Streaming, true
	}
	for idle := 0; ; {
		if a.cancelled(ctx) {
			return false
		}
		raw, err := a.link.Receive()
		if err != nil {
			return a.fail(err)
		}
		if raw == nil {
			// a silent reader ends the sequence; it is still live
			// until Stop confirms
			if idle++; idle >= maxIdleReads {
				return a.stop(nil)
			}
			continue
		}
		rep, err := protocol.DecodeInventoryB(raw)
		if err != nil {
			return a.fail(err)
		}
		if rep.Opcode == protocol.OpBInventoryStop {
			a.live = false
			return a.stop(nil)
		}
		switch rep.Status {
		case protocol.InventorySuccess:
		case protocol.InventoryNoCountLabel:
			a.live = false
			return a.stop(nil)
		default:
			a.live = false
			return a.fail(&protocol.StatusError{Family: protocol.FamilyB, Opcode: rep.Opcode, Status: uint8(rep.Status)})
		}
		if len(rep.Payload) == 0 {
			a.live = false
			return a.stop(nil)
		}
		tag, err := decodeTagB(rep.Payload)
		if err != nil {
			return a.fail(err)
		}
		a.tag = tag
		return true
	}
}

// Stop sends the stop command and discards in-flight tags until the stop
// reply arrives. A stream cancelled through its ctx still has a running
// reader and is stopped too; its Err is kept. Otherwise Stop is a no-op on
// a finished stream.
func (a *Answer) Stop(ctx context.Context) error {
	if !a.live {
		if a.state == Idle {
			a.stop(nil)
		}
		return nil
	}
	a.live = false
	if err := a.link.Send(a.stopCmd); err != nil {
		a.fail(err)
		return err
	}
	idle := 0
	for idle < maxIdleReads {
		if err := ctx.Err(); err != nil {
			a.stop(err)
			return err
		}
		raw, err := a.link.Receive()
		if err != nil {
			a.fail(err)
			return err
		}
		if raw == nil {
			idle++
			continue
		}
		rep, err := protocol.DecodeInventoryB(raw)
		if err != nil {
			a.fail(err)
			return err
		}
		if rep.Opcode != protocol.OpBInventoryStop {
			continue
		}
		if rep.Status != protocol.InventorySuccess {
			err := &protocol.StatusError{Family: protocol.FamilyB, Opcode: rep.Opcode, Status: uint8(rep.Status)}
			a.fail(err)
			return err
		}
		if !a.done() {
			a.stop(nil)
		}
		return nil
	}
	err := noReply()
	a.fail(err)
	return err
}
