// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/uhf-replicator/internal/status"
)

// StatusWriter is the delivery-only contract for device status.
// It receives a snapshot and writes it verbatim.
// No logic, no interpretation.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}

// liveSlots are the slots written incrementally, in block order.
var liveSlots = []int{
	status.SlotHealthCode,
	status.SlotLastErrorCode,
	status.SlotSecondsInError,
	status.SlotTagsLastRound,
	status.SlotCapabilityFlags,
	status.SlotMaxPower,
}

// deviceStatusWriter delivers the status block to one target memory.
type deviceStatusWriter struct {
	plan StatusPlan
	cli  endpointClient

	needFull bool
	last     []uint16
}

// statusWriters fans one snapshot out to every target of a reader.
type statusWriters []*deviceStatusWriter

// NewDeviceStatusWriter builds a status writer if status is enabled for the reader.
// If plan.Status is empty, status is disabled.
func NewDeviceStatusWriter(plan Plan, clients map[string]endpointClient) (StatusWriter, bool) {
	if len(plan.Status) == 0 {
		return nil, false
	}

	out := make(statusWriters, 0, len(plan.Status))
	for _, sp := range plan.Status {
		out = append(out, &deviceStatusWriter{
			plan:     sp,
			cli:      clients[sp.Endpoint],
			needFull: true, // full re-assert on first successful write
		})
	}
	return out, true
}

func (ws statusWriters) WriteStatus(s status.Snapshot) error {
	var errs []string
	for _, w := range ws {
		if err := w.WriteStatus(s); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}
	return nil
}

// WriteStatus delivers a device status snapshot into status memory.
// On any write failure, the next call will re-assert the full block.
func (sw *deviceStatusWriter) WriteStatus(s status.Snapshot) error {
	if sw.cli == nil {
		return fmt.Errorf("status writer: missing client for endpoint %s", sw.plan.Endpoint)
	}

	regs := status.Encode(s, sw.plan.DeviceName)
	baseAddr := sw.baseAddr()

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if sw.needFull {
		if err := sw.cli.WriteRegisters(sw.plan.UnitID, baseAddr, regs); err != nil {
			return fmt.Errorf(
				"status writer: ep=%s unit=%d full block write failed: %w",
				sw.plan.Endpoint, sw.plan.UnitID, err,
			)
		}

		sw.needFull = false
		sw.last = regs
		return nil
	}

	var errs []string

	for _, slot := range liveSlots {
		if sw.last[slot] == regs[slot] {
			continue
		}
		if err := sw.cli.WriteRegisters(
			sw.plan.UnitID,
			baseAddr+uint16(slot),
			regs[slot:slot+1],
		); err != nil {
			errs = append(errs, fmt.Sprintf("slot%d write failed: %v", slot, err))
			continue
		}
		sw.last[slot] = regs[slot]
	}

	if len(errs) > 0 {
		// Any partial failure introduces doubt; re-assert on next call.
		sw.needFull = true
		return fmt.Errorf(
			"status writer: ep=%s unit=%d: %s",
			sw.plan.Endpoint, sw.plan.UnitID, strings.Join(errs, " | "),
		)
	}

	return nil
}

func (sw *deviceStatusWriter) baseAddr() uint16 {
	// Each device owns a fixed SlotsPerDevice block.
	return sw.plan.BaseSlot * status.SlotsPerDevice
}
