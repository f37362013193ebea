// internal/records/tagop.go
package records

import (
	"encoding/binary"

	"github.com/tamzrod/uhf-replicator/internal/protocol"
)

// ------------------------------------------------------------
// requests
// ------------------------------------------------------------

// ReadRequest reads Words words from Bank starting at StartWord.
// EPC selects the tag on Family A; Family B operates on the tags matched
// by the current select/permission filter.
type ReadRequest struct {
	EPC            []byte
	Bank           MemoryBank
	StartWord      uint16
	Words          uint8
	AccessPassword [4]byte
}

type WriteRequest struct {
	EPC            []byte
	Bank           MemoryBank
	StartWord      uint16
	Data           []byte
	AccessPassword [4]byte
}

type LockRequest struct {
	EPC            []byte
	Bank           LockBank
	Action         LockAction
	AccessPassword [4]byte
}

type KillRequest struct {
	EPC          []byte
	KillPassword [4]byte
}

func checkBank(b MemoryBank) error {
	if !enumValid(memoryBankNames, b) {
		return protocol.Invalid("bank", b, "unknown memory bank")
	}
	return nil
}

// epcA renders [epc_words][epc] for Family A addressing.
func epcA(epc []byte) ([]byte, error) {
	if len(epc) == 0 || len(epc)%2 != 0 {
		return nil, protocol.Invalid("epc", len(epc), "must be a non-empty whole number of words")
	}
	if len(epc) > 62 {
		return nil, protocol.Invalid("epc", len(epc), "at most 31 words")
	}
	return append([]byte{byte(len(epc) / 2)}, epc...), nil
}

func startWordA(start uint16) error {
	if start > 0xFF {
		return protocol.Invalid("start_word", start, "family A addresses at most word 255")
	}
	return nil
}

// PayloadA: [epc_words][epc][bank][start][count][pwd 4]
func (r ReadRequest) PayloadA() ([]byte, error) {
	if err := checkBank(r.Bank); err != nil {
		return nil, err
	}
	if err := startWordA(r.StartWord); err != nil {
		return nil, err
	}
	if r.Words == 0 {
		return nil, protocol.Invalid("words", r.Words, "must be at least 1")
	}
	out, err := epcA(r.EPC)
	if err != nil {
		return nil, err
	}
	out = append(out, byte(r.Bank), byte(r.StartWord), r.Words)
	return append(out, r.AccessPassword[:]...), nil
}

// PayloadB: [pwd 4][bank][start u16][count]
func (r ReadRequest) PayloadB() ([]byte, error) {
	if err := checkBank(r.Bank); err != nil {
		return nil, err
	}
	if r.Words == 0 {
		return nil, protocol.Invalid("words", r.Words, "must be at least 1")
	}
	out := append([]byte{}, r.AccessPassword[:]...)
	out = append(out, byte(r.Bank))
	out = binary.BigEndian.AppendUint16(out, r.StartWord)
	return append(out, r.Words), nil
}

func (w WriteRequest) words() (uint8, error) {
	if len(w.Data) == 0 || len(w.Data)%2 != 0 {
		return 0, protocol.Invalid("data", len(w.Data), "must be a non-empty whole number of words")
	}
	if len(w.Data) > 2*0xFF {
		return 0, protocol.Invalid("data", len(w.Data), "too many words")
	}
	return uint8(len(w.Data) / 2), nil
}

// PayloadA: [data_words][epc_words][epc][bank][start][data][pwd 4]
func (w WriteRequest) PayloadA() ([]byte, error) {
	if err := checkBank(w.Bank); err != nil {
		return nil, err
	}
	if err := startWordA(w.StartWord); err != nil {
		return nil, err
	}
	n, err := w.words()
	if err != nil {
		return nil, err
	}
	epc, err := epcA(w.EPC)
	if err != nil {
		return nil, err
	}
	out := append([]byte{n}, epc...)
	out = append(out, byte(w.Bank), byte(w.StartWord))
	out = append(out, w.Data...)
	return append(out, w.AccessPassword[:]...), nil
}

// PayloadB: [pwd 4][bank][start u16][words][data]
func (w WriteRequest) PayloadB() ([]byte, error) {
	if err := checkBank(w.Bank); err != nil {
		return nil, err
	}
	n, err := w.words()
	if err != nil {
		return nil, err
	}
	out := append([]byte{}, w.AccessPassword[:]...)
	out = append(out, byte(w.Bank))
	out = binary.BigEndian.AppendUint16(out, w.StartWord)
	out = append(out, n)
	return append(out, w.Data...), nil
}

func (l LockRequest) validate() error {
	if !enumValid(lockBankNames, l.Bank) {
		return protocol.Invalid("lock_bank", l.Bank, "unknown bank")
	}
	if !enumValid(lockActionNames, l.Action) {
		return protocol.Invalid("lock_action", l.Action, "unknown action")
	}
	return nil
}

// PayloadA: [epc_words][epc][select][set_protect][pwd 4]
func (l LockRequest) PayloadA() ([]byte, error) {
	if err := l.validate(); err != nil {
		return nil, err
	}
	out, err := epcA(l.EPC)
	if err != nil {
		return nil, err
	}
	out = append(out, byte(l.Bank), byte(l.Action))
	return append(out, l.AccessPassword[:]...), nil
}

// PayloadB: [pwd 4][lock_bank][action]
func (l LockRequest) PayloadB() ([]byte, error) {
	if err := l.validate(); err != nil {
		return nil, err
	}
	out := append([]byte{}, l.AccessPassword[:]...)
	return append(out, byte(l.Bank), byte(l.Action)), nil
}

// PayloadA: [epc_words][epc][kill_pwd 4]
func (k KillRequest) PayloadA() ([]byte, error) {
	out, err := epcA(k.EPC)
	if err != nil {
		return nil, err
	}
	return append(out, k.KillPassword[:]...), nil
}

// PayloadB: [kill_pwd 4]
func (k KillRequest) PayloadB() ([]byte, error) {
	return append([]byte{}, k.KillPassword[:]...), nil
}

// ------------------------------------------------------------
// per-tag results (Family B)
// ------------------------------------------------------------

// TagOperation is one per-tag reply of a read/write/lock/kill batch.
//
//	0 tag status  1 antenna  2..4 crc  4..6 pc  6 epc len  7.. epc
//	then, for reads only: [data words][data]
type TagOperation struct {
	TagStatus protocol.TagStatus
	Antenna   uint8
	CRC       uint16
	PC        uint16
	EPC       []byte
	Data      []byte
}

// ParseTagOperation decodes a per-tag reply; withData selects the read layout.
func ParseTagOperation(p []byte, withData bool) (TagOperation, error) {
	if err := needMin("tag operation", p, 7); err != nil {
		return TagOperation{}, err
	}
	end := 7 + int(p[6])
	if len(p) < end {
		return TagOperation{}, protocol.Invalid("tag operation epc", int(p[6]), "longer than payload")
	}
	t := TagOperation{
		TagStatus: protocol.TagStatus(p[0]),
		Antenna:   p[1],
		CRC:       binary.BigEndian.Uint16(p[2:4]),
		PC:        binary.BigEndian.Uint16(p[4:6]),
		EPC:       cloneBytes(p[7:end]),
	}
	if !withData || t.TagStatus != protocol.TagNoError {
		return t, nil
	}
	if len(p) < end+1 {
		return TagOperation{}, protocol.Invalid("tag operation data", len(p), "missing data length")
	}
	n := 2 * int(p[end])
	if len(p) < end+1+n {
		return TagOperation{}, protocol.Invalid("tag operation data", n, "longer than payload")
	}
	t.Data = cloneBytes(p[end+1 : end+1+n])
	return t, nil
}

// MarshalBinary renders the reply layout; Data is emitted only when withData
// would be set, i.e. when it is non-nil.
func (t TagOperation) MarshalBinary() ([]byte, error) {
	if len(t.EPC) > 0xFF {
		return nil, protocol.Invalid("epc", len(t.EPC), "too long")
	}
	out := []byte{byte(t.TagStatus), t.Antenna}
	out = binary.BigEndian.AppendUint16(out, t.CRC)
	out = binary.BigEndian.AppendUint16(out, t.PC)
	out = append(out, byte(len(t.EPC)))
	out = append(out, t.EPC...)
	if t.Data != nil {
		out = append(out, byte(len(t.Data)/2))
		out = append(out, t.Data...)
	}
	return out, nil
}

// Err returns a TagOperationError unless the tag reported NoError.
func (t TagOperation) Err(op string) error {
	if t.TagStatus == protocol.TagNoError {
		return nil
	}
	return &protocol.TagOperationError{Op: op, EPC: t.EPC, TagStatus: t.TagStatus}
}
