// internal/protocol/command.go
package protocol

import "fmt"

// Payload limits imposed by the single length byte of each family.
const (
	MaxPayloadA = 0xFF - 4
	MaxPayloadB = 0xFF
)

// Command is an immutable request. Build it with NewCommand.
type Command struct {
	family  Family
	address uint8
	opcode  Opcode
	payload []byte
}

// NewCommand validates and copies its inputs. It performs no I/O.
func NewCommand(f Family, address uint8, op Opcode, payload []byte) (Command, error) {
	switch f {
	case FamilyA:
		if op > 0xFF {
			return Command{}, Invalid("opcode", fmt.Sprintf("0x%04X", uint16(op)), "family A opcodes are one byte")
		}
		if len(payload) > MaxPayloadA {
			return Command{}, Invalid("payload length", len(payload), fmt.Sprintf("exceeds %d", MaxPayloadA))
		}
	case FamilyB:
		if len(payload) > MaxPayloadB {
			return Command{}, Invalid("payload length", len(payload), fmt.Sprintf("exceeds %d", MaxPayloadB))
		}
	default:
		return Command{}, Invalid("family", f, "unknown family")
	}

	p := make([]byte, len(payload))
	copy(p, payload)
	return Command{family: f, address: address, opcode: op, payload: p}, nil
}

func (c Command) Family() Family  { return c.family }
func (c Command) Address() uint8  { return c.address }
func (c Command) Opcode() Opcode  { return c.opcode }
func (c Command) Payload() []byte { return append([]byte(nil), c.payload...) }

func (c Command) String() string {
	return fmt.Sprintf("%s/%s addr=0x%02X len=%d", c.family, c.family.OpcodeName(c.opcode), c.address, len(c.payload))
}

// Encode renders the on-wire request frame.
func Encode(c Command) ([]byte, error) {
	switch c.family {
	case FamilyA:
		return encodeA(c.address, c.opcode, c.payload), nil
	case FamilyB:
		return encodeB(c.address, c.opcode, c.payload), nil
	}
	return nil, Invalid("command", nil, "zero Command; use NewCommand")
}

// Decode parses a direct-command reply frame of the given family.
func Decode(f Family, frame []byte) (Response, error) {
	switch f {
	case FamilyA:
		return DecodeA(frame)
	case FamilyB:
		return DecodeB(frame)
	}
	return Response{}, Invalid("family", f, "unknown family")
}
