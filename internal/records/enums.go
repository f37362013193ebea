// internal/records/enums.go
package records

import "fmt"

func enumName[T ~uint8](names map[T]string, v T, kind string) string {
	if n, ok := names[v]; ok {
		return n
	}
	return fmt.Sprintf("%s(0x%02X)", kind, uint8(v))
}

func enumValid[T ~uint8](names map[T]string, v T) bool {
	_, ok := names[v]
	return ok
}

// ---- reader settings ----

type RFIDProtocol uint8

const (
	ISO18000_6C RFIDProtocol = 0x00
	GBT29768    RFIDProtocol = 0x01
	GJB7377_1   RFIDProtocol = 0x02
)

var rfidProtocolNames = map[RFIDProtocol]string{
	ISO18000_6C: "ISO 18000-6C",
	GBT29768:    "GB/T 29768",
	GJB7377_1:   "GJB 7377.1",
}

func (p RFIDProtocol) String() string { return enumName(rfidProtocolNames, p, "RFIDProtocol") }

func (p RFIDProtocol) Valid() bool { return enumValid(rfidProtocolNames, p) }

type WorkMode uint8

const (
	AnswerMode  WorkMode = 0x00
	ActiveMode  WorkMode = 0x01
	TriggerMode WorkMode = 0x02
)

var workModeNames = map[WorkMode]string{
	AnswerMode:  "Answer",
	ActiveMode:  "Active",
	TriggerMode: "Trigger",
}

func (m WorkMode) String() string { return enumName(workModeNames, m, "WorkMode") }

type OutputInterface uint8

const (
	OutputUSB      OutputInterface = 0x01
	OutputKeyboard OutputInterface = 0x02
	OutputRJ45     OutputInterface = 0x20
	OutputRS485    OutputInterface = 0x40
	OutputRS232    OutputInterface = 0x80
	// OutputWiegand never appears on the wire; it is sent as RS232 with
	// the Wiegand sub-record open.
	OutputWiegand OutputInterface = 0x99
)

var outputInterfaceNames = map[OutputInterface]string{
	OutputUSB:      "USB",
	OutputKeyboard: "Keyboard",
	OutputRJ45:     "RJ45",
	OutputRS485:    "RS485",
	OutputRS232:    "RS232",
	OutputWiegand:  "Wiegand",
}

func (o OutputInterface) String() string {
	return enumName(outputInterfaceNames, o, "OutputInterface")
}

type BaudRate uint8

const (
	Baud9600   BaudRate = 0x00
	Baud19200  BaudRate = 0x01
	Baud38400  BaudRate = 0x02
	Baud57600  BaudRate = 0x03
	Baud115200 BaudRate = 0x04
)

var baudRates = map[BaudRate]int{
	Baud9600:   9600,
	Baud19200:  19200,
	Baud38400:  38400,
	Baud57600:  57600,
	Baud115200: 115200,
}

// BPS returns the line speed, or 0 for an unknown code.
func (b BaudRate) BPS() int { return baudRates[b] }

func (b BaudRate) String() string {
	if bps, ok := baudRates[b]; ok {
		return fmt.Sprintf("%d bps", bps)
	}
	return fmt.Sprintf("BaudRate(0x%02X)", uint8(b))
}

// BaudRateFromBPS maps a line speed to its code.
func BaudRateFromBPS(bps int) (BaudRate, bool) {
	for code, v := range baudRates {
		if v == bps {
			return code, true
		}
	}
	return 0, false
}

type MemoryBank uint8

const (
	BankPassword MemoryBank = 0x00
	BankEPC      MemoryBank = 0x01
	BankTID      MemoryBank = 0x02
	BankUser     MemoryBank = 0x03
)

var memoryBankNames = map[MemoryBank]string{
	BankPassword: "Password",
	BankEPC:      "EPC",
	BankTID:      "TID",
	BankUser:     "User",
}

func (m MemoryBank) String() string { return enumName(memoryBankNames, m, "MemoryBank") }

type Session uint8

const (
	Session0 Session = 0x00
	Session1 Session = 0x01
	Session2 Session = 0x02
	Session3 Session = 0x03
)

func (s Session) String() string {
	if s <= Session3 {
		return fmt.Sprintf("S%d", uint8(s))
	}
	return fmt.Sprintf("Session(0x%02X)", uint8(s))
}

// ---- tag operations ----

type LockBank uint8

const (
	LockKillPassword   LockBank = 0x00
	LockAccessPassword LockBank = 0x01
	LockEPC            LockBank = 0x02
	LockTID            LockBank = 0x03
	LockUser           LockBank = 0x04
)

var lockBankNames = map[LockBank]string{
	LockKillPassword:   "KillPassword",
	LockAccessPassword: "AccessPassword",
	LockEPC:            "EPC",
	LockTID:            "TID",
	LockUser:           "User",
}

func (l LockBank) String() string { return enumName(lockBankNames, l, "LockBank") }

type LockAction uint8

const (
	Unlock          LockAction = 0x00
	UnlockPermanent LockAction = 0x01
	Lock            LockAction = 0x02
	LockPermanent   LockAction = 0x03
)

var lockActionNames = map[LockAction]string{
	Unlock:          "Unlock",
	UnlockPermanent: "UnlockPermanent",
	Lock:            "Lock",
	LockPermanent:   "LockPermanent",
}

func (l LockAction) String() string { return enumName(lockActionNames, l, "LockAction") }

// ---- select / query ----

type SelectTarget uint8

const (
	SelectS0 SelectTarget = 0x00
	SelectS1 SelectTarget = 0x01
	SelectS2 SelectTarget = 0x02
	SelectS3 SelectTarget = 0x03
	SelectSL SelectTarget = 0x04
)

var selectTargetNames = map[SelectTarget]string{
	SelectS0: "S0",
	SelectS1: "S1",
	SelectS2: "S2",
	SelectS3: "S3",
	SelectSL: "SL",
}

func (s SelectTarget) String() string { return enumName(selectTargetNames, s, "SelectTarget") }

// SelectAction values follow the Gen2 Select action table (0..7).
type SelectAction uint8

func (a SelectAction) String() string { return fmt.Sprintf("Action%d", uint8(a)) }

type SelectMemoryBank uint8

const (
	SelectBankEPC  SelectMemoryBank = 0x10
	SelectBankTID  SelectMemoryBank = 0x20
	SelectBankUser SelectMemoryBank = 0x30
)

var selectBankNames = map[SelectMemoryBank]string{
	SelectBankEPC:  "EPC",
	SelectBankTID:  "TID",
	SelectBankUser: "User",
}

func (b SelectMemoryBank) String() string {
	return enumName(selectBankNames, b, "SelectMemoryBank")
}

type QuerySelect uint8

const (
	QueryAll0  QuerySelect = 0x00
	QueryAll1  QuerySelect = 0x01
	QueryNotSL QuerySelect = 0x02
	QuerySL    QuerySelect = 0x03
)

var querySelectNames = map[QuerySelect]string{
	QueryAll0:  "ALL",
	QueryAll1:  "ALL",
	QueryNotSL: "~SL",
	QuerySL:    "SL",
}

func (q QuerySelect) String() string { return enumName(querySelectNames, q, "QuerySelect") }

type QueryTarget uint8

const (
	TargetA QueryTarget = 0x00
	TargetB QueryTarget = 0x01
)

func (t QueryTarget) String() string {
	switch t {
	case TargetA:
		return "A"
	case TargetB:
		return "B"
	}
	return fmt.Sprintf("QueryTarget(0x%02X)", uint8(t))
}

// ---- filter / output ----

type MaskCondition uint8

const (
	PasswordOrMask  MaskCondition = 0x00
	PasswordAndMask MaskCondition = 0x01
)

func (c MaskCondition) String() string {
	switch c {
	case PasswordOrMask:
		return "Password OR Mask"
	case PasswordAndMask:
		return "Password AND Mask"
	}
	return fmt.Sprintf("MaskCondition(0x%02X)", uint8(c))
}

type TriggerWay uint8

const (
	TriggerLow  TriggerWay = 0x00
	TriggerHigh TriggerWay = 0x01
)

func (t TriggerWay) String() string {
	if t == TriggerLow {
		return "Low level"
	}
	if t == TriggerHigh {
		return "High level"
	}
	return fmt.Sprintf("TriggerWay(0x%02X)", uint8(t))
}

type OutputProtocolType uint8

const (
	OutputModbus OutputProtocolType = 0x00
	OutputASCII  OutputProtocolType = 0x01
	OutputHex    OutputProtocolType = 0x02
)

var outputProtocolNames = map[OutputProtocolType]string{
	OutputModbus: "ModBus",
	OutputASCII:  "ASCII",
	OutputHex:    "Hex",
}

func (o OutputProtocolType) String() string {
	return enumName(outputProtocolNames, o, "OutputProtocolType")
}

// Relay is the Family B relay action.
type Relay uint8

const (
	RelayRelease Relay = 0x01
	RelayClose   Relay = 0x02
)
