// internal/status/tagtable.go
package status

import "github.com/tamzrod/uhf-replicator/internal/inventory"

// Tag table layout constants. One table per reader and target:
//
//	[count] [slot 0] [slot 1] ... [slot n-1]
//
// Each slot is TagSlotRegs registers wide.

// ---- TABLE GEOMETRY ----

// TagTableHeaderRegs is the number of registers before the first slot.
const TagTableHeaderRegs = 1

// TagSlotRegs is the fixed register width of one tag slot.
const TagSlotRegs = 10

// ---- SLOT OFFSETS ----

// TagEPCRegs holds the EPC, zero padded or truncated to 12 bytes.
const (
	TagEPCStart = 0
	TagEPCRegs  = 6
)

const (
	TagRSSI    = 6
	TagAntenna = 7
	TagChannel = 8
	TagCount   = 9
)

// DefaultTagSlots is used when a target does not size its table.
const DefaultTagSlots = 32

// TagTableRegs returns the register span of a table with the given slots.
func TagTableRegs(slots int) int {
	return TagTableHeaderRegs + slots*TagSlotRegs
}

// EncodeTags lays out tags into a table of the given slot count.
// Tags beyond the table are dropped; the header counts written slots only.
// Unused slots are zero so a shorter round clears stale entries.
func EncodeTags(tags []inventory.Tag, slots int) []uint16 {
	regs := make([]uint16, TagTableRegs(slots))

	n := min(len(tags), slots)
	regs[0] = uint16(n)

	for i := 0; i < n; i++ {
		t := tags[i]
		base := TagTableHeaderRegs + i*TagSlotRegs

		for w := 0; w < TagEPCRegs; w++ {
			var hi, lo byte
			if 2*w < len(t.Data) {
				hi = t.Data[2*w]
			}
			if 2*w+1 < len(t.Data) {
				lo = t.Data[2*w+1]
			}
			regs[base+TagEPCStart+w] = uint16(hi)<<8 | uint16(lo)
		}

		regs[base+TagRSSI] = uint16(t.RSSI)
		regs[base+TagAntenna] = uint16(t.Antenna)
		regs[base+TagChannel] = uint16(t.Channel)
		regs[base+TagCount] = uint16(min(t.Count, 0xFFFF))
	}

	return regs
}
