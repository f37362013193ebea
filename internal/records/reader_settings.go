// internal/records/reader_settings.go
package records

import (
	"fmt"

	"github.com/tamzrod/uhf-replicator/internal/protocol"
)

// ------------------------------------------------------------
// Antenna mask
// ------------------------------------------------------------

// AntennaMask enables antennas 1..8. Ant1 is bit 0.
type AntennaMask struct {
	Ant1, Ant2, Ant3, Ant4, Ant5, Ant6, Ant7, Ant8 bool
}

func ParseAntennaMask(b byte) AntennaMask {
	return AntennaMask{
		Ant1: b&0x01 != 0,
		Ant2: b&0x02 != 0,
		Ant3: b&0x04 != 0,
		Ant4: b&0x08 != 0,
		Ant5: b&0x10 != 0,
		Ant6: b&0x20 != 0,
		Ant7: b&0x40 != 0,
		Ant8: b&0x80 != 0,
	}
}

func (m AntennaMask) Byte() byte {
	var b byte
	for i, on := range m.list() {
		if on {
			b |= 1 << i
		}
	}
	return b
}

// Enabled reports whether antenna n (1..8) is on.
func (m AntennaMask) Enabled(n int) bool {
	if n < 1 || n > 8 {
		return false
	}
	return m.list()[n-1]
}

func (m AntennaMask) list() [8]bool {
	return [8]bool{m.Ant1, m.Ant2, m.Ant3, m.Ant4, m.Ant5, m.Ant6, m.Ant7, m.Ant8}
}

// ------------------------------------------------------------
// Wiegand
// ------------------------------------------------------------

type WiegandProtocol uint8

const (
	Wiegand26 WiegandProtocol = 0
	Wiegand34 WiegandProtocol = 1
)

type WiegandByteOrder uint8

const (
	LowByteFirst  WiegandByteOrder = 0
	HighByteFirst WiegandByteOrder = 1
)

// Wiegand packs into bits 7..5 of one byte; bits 4..0 are always zero.
type Wiegand struct {
	Open      bool
	Protocol  WiegandProtocol
	ByteOrder WiegandByteOrder
}

func ParseWiegand(b byte) Wiegand {
	return Wiegand{
		Open:      b&0x80 != 0,
		Protocol:  WiegandProtocol(b >> 6 & 1),
		ByteOrder: WiegandByteOrder(b >> 5 & 1),
	}
}

func (w Wiegand) Byte() byte {
	b := byte(w.Protocol&1)<<6 | byte(w.ByteOrder&1)<<5
	if w.Open {
		b |= 0x80
	}
	return b
}

// ------------------------------------------------------------
// ReaderSettings (GetAllParams / SetAllParams)
// ------------------------------------------------------------

// ReaderSettings is the 25-byte all-parameters record.
//
//	0 address        1 rfid protocol   2 work mode        3 output interface
//	4 baud rate      5 wiegand         6 antenna mask     7..15 frequency
//	15 power         16 output bank    17 q value         18 session
//	19 out start     20 out length     21 filter time     22 trigger time
//	23 buzzer time   24 inventory interval
type ReaderSettings struct {
	Address            uint8
	RFIDProtocol       RFIDProtocol
	WorkMode           WorkMode
	OutputInterface    OutputInterface
	BaudRate           BaudRate
	Wiegand            Wiegand
	Antennas           AntennaMask
	Frequency          Frequency
	Power              uint8
	OutputMemoryBank   MemoryBank
	QValue             uint8
	Session            Session
	OutputStartAddress uint8
	OutputLength       uint8
	FilterTime         uint8
	TriggerTime        uint8
	BuzzerTime         uint8
	InventoryInterval  uint8
}

// MaxSettingsPower bounds the power field independently of the capability.
const MaxSettingsPower = 33

func (s ReaderSettings) Validate() error {
	if !enumValid(rfidProtocolNames, s.RFIDProtocol) {
		return protocol.Invalid("rfid_protocol", s.RFIDProtocol, "unknown protocol")
	}
	if !enumValid(workModeNames, s.WorkMode) {
		return protocol.Invalid("work_mode", s.WorkMode, "unknown work mode")
	}
	if !enumValid(outputInterfaceNames, s.OutputInterface) {
		return protocol.Invalid("output_interface", s.OutputInterface, "unknown interface")
	}
	if s.Wiegand.Open != (s.OutputInterface == OutputWiegand) {
		return protocol.Invalid("wiegand.open", s.Wiegand.Open, "must be set exactly when output_interface is Wiegand")
	}
	if s.BaudRate.BPS() == 0 {
		return protocol.Invalid("baud_rate", s.BaudRate, "unknown baud rate")
	}
	if s.Power > MaxSettingsPower {
		return protocol.Invalid("power", s.Power, fmt.Sprintf("must be 0..%d", MaxSettingsPower))
	}
	if !enumValid(memoryBankNames, s.OutputMemoryBank) {
		return protocol.Invalid("output_memory_bank", s.OutputMemoryBank, "unknown bank")
	}
	if s.QValue > 15 {
		return protocol.Invalid("q_value", s.QValue, "must be 0..15")
	}
	if s.Session > Session3 {
		return protocol.Invalid("session", s.Session, "must be S0..S3")
	}
	return s.Frequency.Validate()
}

func (s ReaderSettings) MarshalBinary() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	freq, err := s.Frequency.MarshalBinary()
	if err != nil {
		return nil, err
	}

	iface := s.OutputInterface
	if iface == OutputWiegand {
		iface = OutputRS232
	}

	out := make([]byte, 0, ReaderSettingsSize)
	out = append(out,
		s.Address,
		byte(s.RFIDProtocol),
		byte(s.WorkMode),
		byte(iface),
		byte(s.BaudRate),
		s.Wiegand.Byte(),
		s.Antennas.Byte(),
	)
	out = append(out, freq...)
	out = append(out,
		s.Power,
		byte(s.OutputMemoryBank),
		s.QValue,
		byte(s.Session),
		s.OutputStartAddress,
		s.OutputLength,
		s.FilterTime,
		s.TriggerTime,
		s.BuzzerTime,
		s.InventoryInterval,
	)
	return out, nil
}

// UnmarshalBinary keeps the reader's values as reported; MarshalBinary is
// where they are validated.
func (s *ReaderSettings) UnmarshalBinary(b []byte) error {
	if err := needLen("reader settings", b, ReaderSettingsSize); err != nil {
		return err
	}
	var freq Frequency
	if err := freq.UnmarshalBinary(b[7:15]); err != nil {
		return err
	}

	out := ReaderSettings{
		Address:            b[0],
		RFIDProtocol:       RFIDProtocol(b[1]),
		WorkMode:           WorkMode(b[2]),
		OutputInterface:    OutputInterface(b[3]),
		BaudRate:           BaudRate(b[4]),
		Wiegand:            ParseWiegand(b[5]),
		Antennas:           ParseAntennaMask(b[6]),
		Frequency:          freq,
		Power:              b[15],
		OutputMemoryBank:   MemoryBank(b[16]),
		QValue:             b[17],
		Session:            Session(b[18]),
		OutputStartAddress: b[19],
		OutputLength:       b[20],
		FilterTime:         b[21],
		TriggerTime:        b[22],
		BuzzerTime:         b[23],
		InventoryInterval:  b[24],
	}
	if out.Wiegand.Open {
		out.OutputInterface = OutputWiegand
	}
	*s = out
	return nil
}
