// internal/protocol/frame_a.go
package protocol

// Family A frame:
//
//	[len][addr][opcode][body...][crc_lsb][crc_msb]
//
// len counts itself, addr, opcode and body (len = 4 + len(body)), so a
// complete frame is len+1 bytes. Replies carry [status][data...] as body.

// FrameA is the symmetric shape shared by Family A requests and replies.
type FrameA struct {
	Address  uint8
	Opcode   Opcode
	Body     []byte
	Checksum uint16
}

func encodeA(address uint8, op Opcode, body []byte) []byte {
	frame := make([]byte, 0, len(body)+5)
	frame = append(frame, byte(4+len(body)), address, byte(op))
	frame = append(frame, body...)
	return appendChecksum(FamilyA, frame)
}

// DecodeFrameA validates length and checksum and splits a Family A frame.
// Bytes past the declared length are ignored.
func DecodeFrameA(b []byte) (FrameA, error) {
	if len(b) < 1 {
		return FrameA{}, frameErr(FamilyA, ShortRead, "empty frame")
	}
	n := int(b[0])
	if n < 4 {
		return FrameA{}, frameErr(FamilyA, ShortRead, "declared length %d below minimum 4", n)
	}
	if len(b) < n+1 {
		return FrameA{}, frameErr(FamilyA, ShortRead, "declared %d bytes, have %d", n+1, len(b))
	}
	frame := b[:n+1]

	sum := Checksum(frame[:n-1])
	if got := readChecksum(FamilyA, frame[n-1:]); got != sum {
		return FrameA{}, frameErr(FamilyA, ChecksumMismatch, "got 0x%04X want 0x%04X", got, sum)
	}

	body := make([]byte, n-4)
	copy(body, frame[3:n-1])
	return FrameA{
		Address:  frame[1],
		Opcode:   Opcode(frame[2]),
		Body:     body,
		Checksum: sum,
	}, nil
}

// DecodeA decodes a Family A reply: the first body byte is the status.
func DecodeA(b []byte) (Response, error) {
	f, err := DecodeFrameA(b)
	if err != nil {
		return Response{}, err
	}
	if len(f.Body) < 1 {
		return Response{}, frameErr(FamilyA, ShortRead, "reply without status byte")
	}
	raw := make([]byte, int(b[0])+1)
	copy(raw, b)
	return Response{
		family:   FamilyA,
		address:  f.Address,
		opcode:   f.Opcode,
		status:   f.Body[0],
		payload:  f.Body[1:],
		checksum: f.Checksum,
		raw:      raw,
	}, nil
}

// EncodeResponseA renders a reply frame the way a Family A reader does.
func EncodeResponseA(address uint8, op Opcode, status uint8, payload []byte) ([]byte, error) {
	if op > 0xFF {
		return nil, Invalid("opcode", uint16(op), "family A opcodes are one byte")
	}
	if len(payload)+1 > MaxPayloadA {
		return nil, Invalid("payload length", len(payload), "does not fit the length byte")
	}
	body := append([]byte{status}, payload...)
	return encodeA(address, op, body), nil
}
