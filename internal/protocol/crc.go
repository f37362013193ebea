// internal/protocol/crc.go
package protocol

// CRC-16/MCRF4XX parameters.
const (
	crcInit uint16 = 0xFFFF
	crcPoly uint16 = 0x8408 // 0x1021 reflected
)

// Checksum computes CRC-16/MCRF4XX over data.
// Both device families use the same value; only the byte order on the wire differs.
func Checksum(data []byte) uint16 {
	crc := crcInit
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&0x0001 != 0 {
				crc = (crc >> 1) ^ crcPoly
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// ChecksumBytes returns the checksum split in the order the family appends it.
//
//	Family A: [lsb, msb]
//	Family B: [msb, lsb]
func ChecksumBytes(f Family, sum uint16) [2]byte {
	msb := byte(sum >> 8)
	lsb := byte(sum)
	if f == FamilyA {
		return [2]byte{lsb, msb}
	}
	return [2]byte{msb, lsb}
}

// appendChecksum computes the checksum over b and appends it in family order.
func appendChecksum(f Family, b []byte) []byte {
	cs := ChecksumBytes(f, Checksum(b))
	return append(b, cs[0], cs[1])
}

// readChecksum reads a 2-byte checksum field in family order.
func readChecksum(f Family, b []byte) uint16 {
	if f == FamilyA {
		return uint16(b[1])<<8 | uint16(b[0])
	}
	return uint16(b[0])<<8 | uint16(b[1])
}
