// internal/records/filter.go
package records

import (
	"encoding/binary"

	"github.com/tamzrod/uhf-replicator/internal/protocol"
)

// MaxMaskBytes is the mask capacity of the permission record.
const MaxMaskBytes = 12

// MaskInventoryPermission restricts which tags an inventory reports.
//
//	0 password enable  1..5 password  5 mask enable  6 mask start
//	7 mask length      8..20 mask (zero padded)     20 condition
type MaskInventoryPermission struct {
	EnableAccessPassword bool
	AccessPassword       [4]byte
	EnableMask           bool
	MaskStartAddress     uint8
	Mask                 []byte
	Condition            MaskCondition
}

func (m MaskInventoryPermission) MarshalBinary() ([]byte, error) {
	if len(m.Mask) > MaxMaskBytes {
		return nil, protocol.Invalid("permission.mask", len(m.Mask), "at most 12 bytes")
	}
	if m.Condition > PasswordAndMask {
		return nil, protocol.Invalid("permission.condition", m.Condition, "unknown condition")
	}
	out := make([]byte, 0, MaskPermissionSize)
	out = append(out, boolByte(m.EnableAccessPassword))
	out = append(out, m.AccessPassword[:]...)
	out = append(out, boolByte(m.EnableMask), m.MaskStartAddress, byte(len(m.Mask)))
	mask := make([]byte, MaxMaskBytes)
	copy(mask, m.Mask)
	out = append(out, mask...)
	out = append(out, byte(m.Condition))
	return out, nil
}

func (m *MaskInventoryPermission) UnmarshalBinary(b []byte) error {
	if err := needLen("mask inventory permission", b, MaskPermissionSize); err != nil {
		return err
	}
	n := int(b[7])
	if n > MaxMaskBytes {
		return protocol.Invalid("permission.mask_length", n, "at most 12 bytes")
	}
	cond := MaskCondition(b[20])
	if cond > PasswordAndMask {
		return protocol.Invalid("permission.condition", cond, "unknown condition")
	}
	v := MaskInventoryPermission{
		EnableAccessPassword: b[0] != 0,
		EnableMask:           b[5] != 0,
		MaskStartAddress:     b[6],
		Mask:                 cloneBytes(b[8:8+n]),
		Condition:            cond,
	}
	copy(v.AccessPassword[:], b[1:5])
	*m = v
	return nil
}

// SelectParameters is the Gen2 Select configuration. Length is sent in bits
// and always derived from the mask.
//
//	0 protocol  1 target  2 truncate  3 action  4 bank  5..7 start (bits)
//	7 length (bits)  8.. mask
type SelectParameters struct {
	Protocol     uint8
	Target       SelectTarget
	Truncate     bool
	Action       SelectAction
	MemoryBank   SelectMemoryBank
	StartAddress uint16
	Mask         []byte
}

// MaxSelectMaskBytes keeps the bit length within one byte.
const MaxSelectMaskBytes = 31

func (s SelectParameters) MarshalBinary() ([]byte, error) {
	if len(s.Mask) > MaxSelectMaskBytes {
		return nil, protocol.Invalid("select.mask", len(s.Mask), "at most 31 bytes")
	}
	if !enumValid(selectTargetNames, s.Target) {
		return nil, protocol.Invalid("select.target", s.Target, "unknown target")
	}
	if s.Action > 7 {
		return nil, protocol.Invalid("select.action", s.Action, "must be 0..7")
	}
	if !enumValid(selectBankNames, s.MemoryBank) {
		return nil, protocol.Invalid("select.memory_bank", s.MemoryBank, "unknown bank")
	}
	out := []byte{s.Protocol, byte(s.Target), boolByte(s.Truncate), byte(s.Action), byte(s.MemoryBank)}
	out = binary.BigEndian.AppendUint16(out, s.StartAddress)
	out = append(out, byte(len(s.Mask)*8))
	out = append(out, s.Mask...)
	return out, nil
}

func (s *SelectParameters) UnmarshalBinary(b []byte) error {
	if err := needMin("select parameters", b, 8); err != nil {
		return err
	}
	n := (int(b[7]) + 7) / 8
	if len(b) < 8+n {
		return protocol.Invalid("select.mask", len(b)-8, "shorter than declared bit length")
	}
	v := SelectParameters{
		Protocol:     b[0],
		Target:       SelectTarget(b[1]),
		Truncate:     b[2] != 0,
		Action:       SelectAction(b[3]),
		MemoryBank:   SelectMemoryBank(b[4]),
		StartAddress: binary.BigEndian.Uint16(b[5:7]),
		Mask:         cloneBytes(b[8:8+n]),
	}
	if !enumValid(selectTargetNames, v.Target) {
		return protocol.Invalid("select.target", v.Target, "unknown target")
	}
	if !enumValid(selectBankNames, v.MemoryBank) {
		return protocol.Invalid("select.memory_bank", v.MemoryBank, "unknown bank")
	}
	*s = v
	return nil
}

// QueryParameters is the Gen2 Query configuration.
type QueryParameters struct {
	Protocol uint8
	Select   QuerySelect
	Session  Session
	Target   QueryTarget
}

func (q QueryParameters) MarshalBinary() ([]byte, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	return []byte{q.Protocol, byte(q.Select), byte(q.Session), byte(q.Target)}, nil
}

func (q *QueryParameters) UnmarshalBinary(b []byte) error {
	if err := needLen("query parameters", b, QueryParametersSize); err != nil {
		return err
	}
	v := QueryParameters{Protocol: b[0], Select: QuerySelect(b[1]), Session: Session(b[2]), Target: QueryTarget(b[3])}
	if err := v.validate(); err != nil {
		return err
	}
	*q = v
	return nil
}

func (q QueryParameters) validate() error {
	if q.Select > QuerySL {
		return protocol.Invalid("query.select", q.Select, "unknown select")
	}
	if q.Session > Session3 {
		return protocol.Invalid("query.session", q.Session, "must be S0..S3")
	}
	if q.Target > TargetB {
		return protocol.Invalid("query.target", q.Target, "must be A or B")
	}
	return nil
}

// InventoryRange limits the bytes of the EPC bank reported per tag.
//
//	0 start (bytes)  1 length (bytes)  2..4 reserved
type InventoryRange struct {
	StartAddress uint8
	Length       uint8
}

func (r InventoryRange) MarshalBinary() ([]byte, error) {
	return []byte{r.StartAddress, r.Length, 0, 0}, nil
}

func (r *InventoryRange) UnmarshalBinary(b []byte) error {
	if err := needLen("inventory range", b, InventoryRangeSize); err != nil {
		return err
	}
	r.StartAddress = b[0]
	r.Length = b[1]
	return nil
}
