// internal/records/device_info.go
package records

// DeviceInfo identifies a Family B reader.
//
//	0..32   hardware version
//	32..64  firmware version
//	64..76  serial number
//	76..152 reserved
type DeviceInfo struct {
	Hardware string
	Firmware string
	Serial   string
}

func (d DeviceInfo) MarshalBinary() ([]byte, error) {
	out := make([]byte, 0, DeviceInfoSize)
	out = append(out, padField(d.Hardware, 32)...)
	out = append(out, padField(d.Firmware, 32)...)
	out = append(out, padField(d.Serial, 12)...)
	out = append(out, make([]byte, DeviceInfoSize-76)...)
	return out, nil
}

func (d *DeviceInfo) UnmarshalBinary(b []byte) error {
	if err := needLen("device info", b, DeviceInfoSize); err != nil {
		return err
	}
	d.Hardware = asciiField(b[0:32])
	d.Firmware = asciiField(b[32:64])
	d.Serial = asciiField(b[64:76])
	return nil
}
