// internal/protocol/frame_b.go
package protocol

import "encoding/binary"

// Family B frames:
//
//	request:  [0xCF][addr][op_hi][op_lo][len][payload...][crc_msb][crc_lsb]
//	response: [0xCF][addr][op_hi][op_lo][len][status][payload...][crc_msb][crc_lsb]
//
// In responses len counts the status byte plus payload.

// HeaderSizeB is the fixed part read before the length-dependent tail.
const HeaderSizeB = 5

func encodeB(address uint8, op Opcode, payload []byte) []byte {
	frame := make([]byte, 0, len(payload)+HeaderSizeB+2)
	frame = append(frame, HeaderB, address, byte(op>>8), byte(op), byte(len(payload)))
	frame = append(frame, payload...)
	return appendChecksum(FamilyB, frame)
}

// checkHeaderB validates the fixed header of a Family B frame.
func checkHeaderB(b []byte) (Opcode, error) {
	if len(b) < 1 {
		return 0, frameErr(FamilyB, ShortRead, "empty frame")
	}
	if b[0] != HeaderB {
		return 0, frameErr(FamilyB, UnexpectedHeader, "got 0x%02X", b[0])
	}
	if len(b) < HeaderSizeB {
		return 0, frameErr(FamilyB, ShortRead, "header needs %d bytes, have %d", HeaderSizeB, len(b))
	}
	op := Opcode(binary.BigEndian.Uint16(b[2:4]))
	if !FamilyB.KnownOpcode(op) {
		return 0, frameErr(FamilyB, UnknownOpcode, "0x%04X", uint16(op))
	}
	return op, nil
}

// DecodeB decodes a Family B direct-command reply.
func DecodeB(b []byte) (Response, error) {
	op, err := checkHeaderB(b)
	if err != nil {
		return Response{}, err
	}
	n := int(b[4])
	if n < 1 {
		return Response{}, frameErr(FamilyB, ShortRead, "reply without status byte")
	}
	end := HeaderSizeB + n
	if len(b) < end+2 {
		return Response{}, frameErr(FamilyB, ShortRead, "declared %d bytes, have %d", end+2, len(b))
	}

	sum := Checksum(b[:end])
	if got := readChecksum(FamilyB, b[end:end+2]); got != sum {
		return Response{}, frameErr(FamilyB, ChecksumMismatch, "got 0x%04X want 0x%04X", got, sum)
	}

	raw := make([]byte, end+2)
	copy(raw, b)
	return Response{
		family:   FamilyB,
		address:  raw[1],
		opcode:   op,
		status:   raw[HeaderSizeB],
		payload:  raw[HeaderSizeB+1 : end],
		checksum: sum,
		raw:      raw,
	}, nil
}

// EncodeResponseB renders a reply frame the way a Family B reader does.
func EncodeResponseB(address uint8, op Opcode, status uint8, payload []byte) ([]byte, error) {
	if len(payload)+1 > MaxPayloadB {
		return nil, Invalid("payload length", len(payload), "does not fit the length byte")
	}
	body := append([]byte{status}, payload...)
	return encodeB(address, op, body), nil
}

// ---- inventory variant ----

// InventoryReply is a Family B streaming reply. When Status is not
// InventorySuccess the frame was not checksum-verified and Payload is nil.
type InventoryReply struct {
	Address uint8
	Opcode  Opcode
	Status  InventoryStatus
	Payload []byte
}

// DecodeInventoryB decodes a streaming reply. The status is the first body
// byte; an unsuccessful status returns before checksum validation because the
// device may emit a truncated error frame.
func DecodeInventoryB(b []byte) (InventoryReply, error) {
	op, err := checkHeaderB(b)
	if err != nil {
		return InventoryReply{}, err
	}
	n := int(b[4])
	if n < 1 || len(b) < HeaderSizeB+1 {
		return InventoryReply{}, frameErr(FamilyB, ShortRead, "reply without status byte")
	}
	reply := InventoryReply{
		Address: b[1],
		Opcode:  op,
		Status:  InventoryStatus(b[HeaderSizeB]),
	}
	if reply.Status != InventorySuccess {
		return reply, nil
	}

	end := HeaderSizeB + n
	if len(b) < end+2 {
		return InventoryReply{}, frameErr(FamilyB, ShortRead, "declared %d bytes, have %d", end+2, len(b))
	}
	sum := Checksum(b[:end])
	if got := readChecksum(FamilyB, b[end:end+2]); got != sum {
		return InventoryReply{}, frameErr(FamilyB, ChecksumMismatch, "got 0x%04X want 0x%04X", got, sum)
	}
	reply.Payload = append([]byte(nil), b[HeaderSizeB+1:end]...)
	return reply, nil
}
