// internal/protocol/status.go
package protocol

import "fmt"

// ---- Family A ----

type StatusA uint8

const (
	StatusASuccess             StatusA = 0x00
	StatusAInventoryComplete   StatusA = 0x01
	StatusAInventoryTimeout    StatusA = 0x02
	StatusAMoreData            StatusA = 0x03
	StatusAMemoryFull          StatusA = 0x04
	StatusAAccessPasswordError StatusA = 0x05
	StatusAKillTagError        StatusA = 0x09
	StatusAKillPasswordZero    StatusA = 0x0A
	StatusATagNotSupported     StatusA = 0x0B
	StatusAAntennaError        StatusA = 0xF8
	StatusAPoorCommunication   StatusA = 0xFA
	StatusANoTagOperable       StatusA = 0xFB
	StatusATagReturnedError    StatusA = 0xFC
	StatusACommandLengthWrong  StatusA = 0xFD
	StatusAIllegalCommand      StatusA = 0xFE
	StatusAParameterError      StatusA = 0xFF
)

var statusNamesA = map[StatusA]string{
	StatusASuccess:             "Success",
	StatusAInventoryComplete:   "InventoryComplete",
	StatusAInventoryTimeout:    "InventoryTimeout",
	StatusAMoreData:            "MoreData",
	StatusAMemoryFull:          "MemoryFull",
	StatusAAccessPasswordError: "AccessPasswordError",
	StatusAKillTagError:        "KillTagError",
	StatusAKillPasswordZero:    "KillPasswordZero",
	StatusATagNotSupported:     "TagNotSupported",
	StatusAAntennaError:        "AntennaError",
	StatusAPoorCommunication:   "PoorCommunication",
	StatusANoTagOperable:       "NoTagOperable",
	StatusATagReturnedError:    "TagReturnedError",
	StatusACommandLengthWrong:  "CommandLengthWrong",
	StatusAIllegalCommand:      "IllegalCommand",
	StatusAParameterError:      "ParameterError",
}

func (s StatusA) String() string {
	if n, ok := statusNamesA[s]; ok {
		return n
	}
	return fmt.Sprintf("StatusA(0x%02X)", uint8(s))
}

// OK reports success, including the non-error inventory outcomes 0x01..0x04.
func (s StatusA) OK() bool { return s <= StatusAMemoryFull }

// ---- Family B ----

type StatusB uint8

const (
	StatusBSuccess              StatusB = 0x00
	StatusBWrongParam           StatusB = 0x01
	StatusBCommandFailed        StatusB = 0x02
	StatusBReserve              StatusB = 0x03
	StatusBNoCountLabel         StatusB = 0x12
	StatusBTimeout              StatusB = 0x14
	StatusBTagResponseError     StatusB = 0x15
	StatusBAuthenticationFailed StatusB = 0x16
	StatusBWrongPassword        StatusB = 0x17
	StatusBNoMoreData           StatusB = 0xFF
)

var statusNamesB = map[StatusB]string{
	StatusBSuccess:              "Success",
	StatusBWrongParam:           "WrongParam",
	StatusBCommandFailed:        "CommandFailed",
	StatusBReserve:              "Reserve",
	StatusBNoCountLabel:         "NoCountLabel",
	StatusBTimeout:              "Timeout",
	StatusBTagResponseError:     "TagResponseError",
	StatusBAuthenticationFailed: "AuthenticationFailed",
	StatusBWrongPassword:        "WrongPassword",
	StatusBNoMoreData:           "NoMoreData",
}

func (s StatusB) String() string {
	if n, ok := statusNamesB[s]; ok {
		return n
	}
	return fmt.Sprintf("StatusB(0x%02X)", uint8(s))
}

func (s StatusB) OK() bool { return s == StatusBSuccess }

// InventoryStatus is the status vocabulary of Family B streaming replies.
type InventoryStatus uint8

const (
	InventorySuccess                 InventoryStatus = 0x00
	InventoryWrongParam              InventoryStatus = 0x01
	InventoryCommandFailed           InventoryStatus = 0x02
	InventoryNoCountLabel            InventoryStatus = 0x12
	InventoryExceedMaxTransmitSerial InventoryStatus = 0x17
)

func (s InventoryStatus) String() string {
	switch s {
	case InventorySuccess:
		return "Success"
	case InventoryWrongParam:
		return "WrongParam"
	case InventoryCommandFailed:
		return "CommandFailed"
	case InventoryNoCountLabel:
		return "NoCountLabel"
	case InventoryExceedMaxTransmitSerial:
		return "ExceedMaxTransmitSerial"
	}
	return fmt.Sprintf("InventoryStatus(0x%02X)", uint8(s))
}

// TagStatus is the per-tag result inside a Family B tag operation reply.
type TagStatus uint8

const (
	TagNoError           TagStatus = 0xFF
	TagTimeout           TagStatus = 0x14
	TagOtherError        TagStatus = 0x81
	TagStorageAreaError  TagStatus = 0x82
	TagStorageLocked     TagStatus = 0x83
	TagInsufficientPower TagStatus = 0x84
	TagNoPower           TagStatus = 0x85
)

func (s TagStatus) String() string {
	switch s {
	case TagNoError:
		return "NoError"
	case TagTimeout:
		return "Timeout"
	case TagOtherError:
		return "OtherError"
	case TagStorageAreaError:
		return "StorageAreaError"
	case TagStorageLocked:
		return "StorageLocked"
	case TagInsufficientPower:
		return "InsufficientPower"
	case TagNoPower:
		return "NoPower"
	}
	return fmt.Sprintf("TagStatus(0x%02X)", uint8(s))
}

// ---- family dispatch ----

func (f Family) StatusName(status uint8) string {
	if f == FamilyA {
		return StatusA(status).String()
	}
	return StatusB(status).String()
}

// StatusOK reports whether status is a success value for direct commands.
func (f Family) StatusOK(status uint8) bool {
	if f == FamilyA {
		return StatusA(status).OK()
	}
	return StatusB(status).OK()
}
