// internal/records/reader_info.go
package records

import "fmt"

// ReaderInfo is the Family A GetReaderInfo reply data.
//
//	0..2 version  2 type  3 protocols  4 max freq  5 min freq  6 power  7 scan time
type ReaderInfo struct {
	VersionMajor uint8
	VersionMinor uint8
	Type         uint8
	Protocols    uint8
	MaxFreq      uint8
	MinFreq      uint8
	Power        uint8
	ScanTime     uint8
}

// Firmware synthesises an identification string comparable with the
// Family B firmware field.
func (r ReaderInfo) Firmware() string {
	return fmt.Sprintf("UHFReader18 v%d.%d", r.VersionMajor, r.VersionMinor)
}

func (r ReaderInfo) MarshalBinary() ([]byte, error) {
	return []byte{r.VersionMajor, r.VersionMinor, r.Type, r.Protocols, r.MaxFreq, r.MinFreq, r.Power, r.ScanTime}, nil
}

func (r *ReaderInfo) UnmarshalBinary(b []byte) error {
	if err := needLen("reader info", b, ReaderInfoSize); err != nil {
		return err
	}
	*r = ReaderInfo{
		VersionMajor: b[0],
		VersionMinor: b[1],
		Type:         b[2],
		Protocols:    b[3],
		MaxFreq:      b[4],
		MinFreq:      b[5],
		Power:        b[6],
		ScanTime:     b[7],
	}
	return nil
}
