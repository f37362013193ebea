// internal/config/normalize.go
package config

import (
	"strings"

	"github.com/tamzrod/uhf-replicator/internal/status"
	"github.com/tamzrod/uhf-replicator/internal/transport"
)

// DefaultIntervalMs is the inventory round period when none is configured.
const DefaultIntervalMs = 1000

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	for ri := range cfg.Replicator.Readers {
		r := &cfg.Replicator.Readers[ri]

		r.Family = strings.ToLower(r.Family)
		r.Inventory.Mode = strings.ToLower(r.Inventory.Mode)
		r.Inventory.Stop.Kind = strings.ToLower(r.Inventory.Stop.Kind)

		// ------------------------------------------------------------
		// SOURCE DEFAULTS
		// ------------------------------------------------------------

		if r.Source.Device != "" && r.Source.BaudRate == 0 {
			r.Source.BaudRate = transport.DefaultBaudRate
		}
		if r.Source.TimeoutMs == 0 {
			r.Source.TimeoutMs = int(transport.DefaultTimeout.Milliseconds())
		}
		if r.Inventory.IntervalMs == 0 {
			r.Inventory.IntervalMs = DefaultIntervalMs
		}

		// answer rounds stop on their own after one interval (>= 1s)
		if r.Inventory.Stop.Kind == "" {
			r.Inventory.Stop.Kind = StopTime
		}
		if r.Inventory.Stop.Value == 0 && r.Inventory.Stop.Kind == StopTime {
			r.Inventory.Stop.Value = uint32(max(r.Inventory.IntervalMs/1000, 1))
		}

		for ti := range r.Targets {
			t := &r.Targets[ti]
			t.Protocol = strings.ToLower(t.Protocol)
			if t.Protocol == "" {
				t.Protocol = ProtocolModbus
			}
			if t.TagTable.Slots == 0 {
				t.TagTable.Slots = status.DefaultTagSlots
			}
		}

		// ------------------------------------------------------------
		// DEVICE STATUS BLOCK NORMALIZATION (OPT-IN)
		// ------------------------------------------------------------

		// device_name defaults to the reader id, then:
		// - ASCII already validated
		// - Truncate to max 16 characters
		if r.Source.StatusSlot == nil {
			continue
		}
		if r.Source.DeviceName == "" {
			r.Source.DeviceName = r.ID
		}
		if len(r.Source.DeviceName) > status.DeviceNameMaxChars {
			r.Source.DeviceName = r.Source.DeviceName[:status.DeviceNameMaxChars]
		}
	}
}
