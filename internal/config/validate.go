// internal/config/validate.go
package config

import (
	"fmt"
	"strings"

	"github.com/tamzrod/uhf-replicator/internal/driver"
	"github.com/tamzrod/uhf-replicator/internal/protocol"
	"github.com/tamzrod/uhf-replicator/internal/status"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	type span struct {
		start uint32
		end   uint32
		owner string
	}

	if cfg == nil || len(cfg.Replicator.Readers) == 0 {
		return fmt.Errorf("replicator: at least one reader is required")
	}

	// ------------------------------------------------------------
	// READER SOURCE + INVENTORY VALIDATION
	// ------------------------------------------------------------

	ids := make(map[string]struct{})

	for _, r := range cfg.Replicator.Readers {
		if r.ID == "" {
			return fmt.Errorf("reader: id is required")
		}
		if _, dup := ids[r.ID]; dup {
			return fmt.Errorf("reader %q: duplicate id", r.ID)
		}
		ids[r.ID] = struct{}{}

		family, err := protocol.ParseFamily(r.Family)
		if err != nil {
			return fmt.Errorf("reader %q: %w", r.ID, err)
		}

		if (r.Source.Endpoint == "") == (r.Source.Device == "") {
			return fmt.Errorf(
				"reader %q: exactly one of source.endpoint and source.device must be set",
				r.ID,
			)
		}
		if r.Source.BaudRate < 0 || r.Source.TimeoutMs < 0 {
			return fmt.Errorf(
				"reader %q: baud_rate and timeout_ms must not be negative",
				r.ID,
			)
		}

		if err := validateInventory(r.ID, family, r.Inventory); err != nil {
			return err
		}

		for _, t := range r.Targets {
			if t.Endpoint == "" {
				return fmt.Errorf(
					"reader %q: target %d has no endpoint",
					r.ID,
					t.ID,
				)
			}
			switch strings.ToLower(t.Protocol) {
			case "", ProtocolModbus, ProtocolIngest:
			default:
				return fmt.Errorf(
					"reader %q: target %d protocol %q must be modbus or ingest",
					r.ID,
					t.ID,
					t.Protocol,
				)
			}
		}
	}

	// ------------------------------------------------------------
	// DEVICE STATUS BLOCK VALIDATION (PER-TARGET, OPT-IN)
	// ------------------------------------------------------------

	// key = endpoint | status_unit_id | status_slot
	statusOwner := make(map[string]string)

	for _, r := range cfg.Replicator.Readers {
		// device_name sanity (ASCII only)
		for i := 0; i < len(r.Source.DeviceName); i++ {
			if r.Source.DeviceName[i] > 0x7F {
				return fmt.Errorf(
					"reader %q: device_name must contain ASCII characters only",
					r.ID,
				)
			}
		}

		// status is opt-in
		if r.Source.StatusSlot == nil {
			continue
		}

		// status requires at least one target
		if len(r.Targets) == 0 {
			return fmt.Errorf(
				"reader %q: status_slot is set but no targets are defined",
				r.ID,
			)
		}

		slot := *r.Source.StatusSlot

		for _, t := range r.Targets {
			// each target must declare status_unit_id
			if t.StatusUnitID == nil {
				return fmt.Errorf(
					"reader %q: status_slot is set but target %q has no status_unit_id",
					r.ID,
					t.Endpoint,
				)
			}

			key := fmt.Sprintf(
				"%s|%d|%d",
				t.Endpoint,
				*t.StatusUnitID,
				slot,
			)

			if prev, exists := statusOwner[key]; exists {
				return fmt.Errorf(
					"status_slot collision: endpoint=%s status_unit_id=%d slot=%d used by readers %q and %q",
					t.Endpoint,
					*t.StatusUnitID,
					slot,
					prev,
					r.ID,
				)
			}

			statusOwner[key] = r.ID
		}
	}

	// ------------------------------------------------------------
	// DESTINATION MEMORY GEOMETRY VALIDATION
	// ------------------------------------------------------------

	// key = endpoint | unit_id; tag tables and status blocks share holding registers
	spans := make(map[string][]span)

	claim := func(endpoint string, unitID uint8, start, size uint32, owner string) error {
		end := start + size - 1
		if end > 0xFFFF {
			return fmt.Errorf(
				"memory range: endpoint=%s unit_id=%d range=%d-%d (%s) exceeds the register space",
				endpoint,
				unitID,
				start,
				end,
				owner,
			)
		}

		key := fmt.Sprintf("%s|%d", endpoint, unitID)

		for _, s := range spans[key] {
			// overlap check (inclusive)
			if !(end < s.start || start > s.end) {
				return fmt.Errorf(
					"memory overlap: endpoint=%s unit_id=%d range=%d-%d (%s) overlaps with range=%d-%d (%s)",
					endpoint,
					unitID,
					start,
					end,
					owner,
					s.start,
					s.end,
					s.owner,
				)
			}
		}

		spans[key] = append(spans[key], span{start: start, end: end, owner: owner})
		return nil
	}

	for _, r := range cfg.Replicator.Readers {
		for _, t := range r.Targets {
			slots := int(t.TagTable.Slots)
			if slots == 0 {
				slots = status.DefaultTagSlots
			}

			if err := claim(
				t.Endpoint,
				t.UnitID,
				uint32(t.TagTable.Address),
				uint32(status.TagTableRegs(slots)),
				"reader "+r.ID+" tag table",
			); err != nil {
				return err
			}

			if r.Source.StatusSlot == nil {
				continue
			}
			if err := claim(
				t.Endpoint,
				*t.StatusUnitID,
				uint32(*r.Source.StatusSlot)*status.SlotsPerDevice,
				status.SlotsPerDevice,
				"reader "+r.ID+" status",
			); err != nil {
				return err
			}
		}
	}

	return nil
}

func validateInventory(id string, family protocol.Family, inv InventoryConfig) error {
	mode := driver.DefaultMode(family)
	if inv.Mode != "" {
		m, err := driver.ParseMode(inv.Mode)
		if err != nil {
			return fmt.Errorf("reader %q: %w", id, err)
		}
		mode = m
	}

	switch {
	case mode == driver.ModeBatch && family != protocol.FamilyA:
		return fmt.Errorf("reader %q: batch inventory requires family a", id)
	case mode == driver.ModeAnswer && family != protocol.FamilyB:
		return fmt.Errorf("reader %q: answer inventory requires family b", id)
	}

	if inv.IntervalMs < 0 || inv.MaxTags < 0 {
		return fmt.Errorf(
			"reader %q: inventory interval_ms and max_tags must not be negative",
			id,
		)
	}

	switch strings.ToLower(inv.Stop.Kind) {
	case "":
	case StopTime, StopCycles:
		if mode != driver.ModeAnswer {
			return fmt.Errorf(
				"reader %q: inventory stop condition applies to answer mode only",
				id,
			)
		}
	default:
		return fmt.Errorf(
			"reader %q: inventory stop kind %q must be time or cycles",
			id,
			inv.Stop.Kind,
		)
	}

	return nil
}
