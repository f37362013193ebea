// internal/writer/types.go
package writer

import "github.com/tamzrod/uhf-replicator/internal/poller"

// TagTableDest places one tag table inside a target memory.
type TagTableDest struct {
	Address uint16
	Slots   int
}

// TargetEndpoint is one target endpoint with its tag table destination.
type TargetEndpoint struct {
	TargetID uint32
	Endpoint string
	UnitID   uint8
	Table    TagTableDest
}

// StatusPlan is one device status block destination.
type StatusPlan struct {
	Endpoint   string
	UnitID     uint8
	BaseSlot   uint16
	DeviceName string
}

// Plan is the fully-built write plan for one reader.
type Plan struct {
	ReaderID string
	Targets  []TargetEndpoint
	Status   []StatusPlan // empty = status disabled
}

// Writer writes inventory rounds into targets.
type Writer interface {
	Write(res poller.PollResult) error
}

// endpointClient is the exact contract the writers use.
// IMPORTANT: There must be NO other version of this interface anywhere.
type endpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}
