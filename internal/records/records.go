// internal/records/records.go
//
// Package records holds the binary configuration and result records carried
// in command payloads. Every record implements encoding.BinaryMarshaler and
// encoding.BinaryUnmarshaler and round-trips for valid field values.
package records

import (
	"bytes"
	"fmt"

	"github.com/tamzrod/uhf-replicator/internal/protocol"
)

// Record sizes on the wire (without the leading option byte).
const (
	DeviceInfoSize            = 152
	ReaderSettingsSize        = 25
	FrequencySize             = 8
	NetworkSettingsSize       = 20
	RemoteNetworkSettingsSize = 8
	OutputControlSize         = 17
	MaskPermissionSize        = 21
	QueryParametersSize       = 4
	AntennaPowerSize          = 9
	InventoryRangeSize        = 4
	ReaderInfoSize            = 8
	TemperatureSize           = 2
)

func needLen(record string, b []byte, n int) error {
	if len(b) != n {
		return protocol.Invalid(record+" length", len(b), fmt.Sprintf("want %d bytes", n))
	}
	return nil
}

func needMin(record string, b []byte, n int) error {
	if len(b) < n {
		return protocol.Invalid(record+" length", len(b), fmt.Sprintf("want at least %d bytes", n))
	}
	return nil
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

// asciiField decodes a fixed-width NUL/space padded text field.
func asciiField(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(bytes.TrimSpace(b))
}

// padField writes s into a fixed-width field, truncating and NUL padding.
func padField(s string, n int) []byte {
	out := make([]byte, n)
	copy(out, s)
	return out
}

// cloneBytes copies b, keeping empty as nil.
func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return append([]byte(nil), b...)
}
