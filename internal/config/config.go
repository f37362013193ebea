// internal/config/config.go
package config

import "github.com/tamzrod/uhf-replicator/internal/logging"

type Config struct {
	Logging    logging.Config   `yaml:"logging" toml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics" toml:"metrics"`
	Capture    CaptureConfig    `yaml:"capture" toml:"capture"`
	Replicator ReplicatorConfig `yaml:"replicator" toml:"replicator"`
}

type ReplicatorConfig struct {
	Readers []ReaderConfig `yaml:"readers" toml:"readers"`
}

// ---- OBSERVABILITY ----

type MetricsConfig struct {
	// Listen is the /metrics address; empty disables the endpoint.
	Listen string `yaml:"listen" toml:"listen"`
}

type CaptureConfig struct {
	// Path of the CBOR frame capture file; empty disables capture.
	Path string `yaml:"path" toml:"path"`
}

// ---- READER ----

type ReaderConfig struct {
	ID        string          `yaml:"id" toml:"id"`
	Family    string          `yaml:"family" toml:"family"` // "a" or "b"
	Source    SourceConfig    `yaml:"source" toml:"source"`
	Inventory InventoryConfig `yaml:"inventory" toml:"inventory"`
	Targets   []TargetConfig  `yaml:"targets" toml:"targets"`
}

// ---- SOURCE ----

// SourceConfig locates the reader: Endpoint for TCP, Device for a serial line.
type SourceConfig struct {
	Endpoint  string `yaml:"endpoint" toml:"endpoint"`
	Device    string `yaml:"device" toml:"device"`
	BaudRate  int    `yaml:"baud_rate" toml:"baud_rate"`
	Address   uint8  `yaml:"address" toml:"address"`
	TimeoutMs int    `yaml:"timeout_ms" toml:"timeout_ms"`

	// Device status block (optional, opt-in)
	StatusSlot *uint16 `yaml:"status_slot" toml:"status_slot"`
	DeviceName string  `yaml:"device_name" toml:"device_name"`
}

// ---- INVENTORY ----

type InventoryConfig struct {
	Mode       string     `yaml:"mode" toml:"mode"` // batch | answer | active; empty = family default
	Stop       StopConfig `yaml:"stop" toml:"stop"`
	IntervalMs int        `yaml:"interval_ms" toml:"interval_ms"`
	// MaxTags bounds observations per round; 0 = until the stream ends.
	MaxTags int `yaml:"max_tags" toml:"max_tags"`
}

// Stop condition kinds.
const (
	StopTime   = "time"
	StopCycles = "cycles"
)

// StopConfig is the answer-mode stop condition.
type StopConfig struct {
	Kind  string `yaml:"kind" toml:"kind"` // time | cycles
	Value uint32 `yaml:"value" toml:"value"`
}

// ---- TARGET ----

// Target protocols.
const (
	ProtocolModbus = "modbus"
	ProtocolIngest = "ingest"
)

type TargetConfig struct {
	ID           uint32         `yaml:"id" toml:"id"`
	Endpoint     string         `yaml:"endpoint" toml:"endpoint"`
	Protocol     string         `yaml:"protocol" toml:"protocol"`             // modbus (default) | ingest
	UnitID       uint8          `yaml:"unit_id" toml:"unit_id"`               // tag table memory
	StatusUnitID *uint8         `yaml:"status_unit_id" toml:"status_unit_id"` // per-target status memory (optional)
	TagTable     TagTableConfig `yaml:"tag_table" toml:"tag_table"`
}

// TagTableConfig places the tag table inside the target memory.
type TagTableConfig struct {
	Address uint16 `yaml:"address" toml:"address"`
	Slots   uint16 `yaml:"slots" toml:"slots"`
}
