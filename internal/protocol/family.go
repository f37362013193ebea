// internal/protocol/family.go
package protocol

import "fmt"

// Family selects the device protocol dialect.
type Family uint8

const (
	FamilyA Family = iota + 1 // length-prefixed, checksum [lsb, msb]
	FamilyB                   // 0xCF header, status byte, checksum [msb, lsb]
)

func (f Family) String() string {
	switch f {
	case FamilyA:
		return "A"
	case FamilyB:
		return "B"
	default:
		return fmt.Sprintf("family(%d)", uint8(f))
	}
}

// ParseFamily accepts "a"/"b" in either case.
func ParseFamily(s string) (Family, error) {
	switch s {
	case "a", "A":
		return FamilyA, nil
	case "b", "B":
		return FamilyB, nil
	}
	return 0, Invalid("family", s, "must be a or b")
}

// Opcode is a command identifier. Family A uses the low byte only.
type Opcode uint16

// BroadcastAddress addresses every reader on the line.
const BroadcastAddress uint8 = 0xFF

// HeaderB is the fixed first byte of every Family B frame.
const HeaderB byte = 0xCF

// ---- Family A opcodes ----

const (
	OpAInventory    Opcode = 0x01
	OpAReadData     Opcode = 0x02
	OpAWriteData    Opcode = 0x03
	OpAKillTag      Opcode = 0x05
	OpALock         Opcode = 0x06
	OpAReaderInfo   Opcode = 0x21
	OpASetRegion    Opcode = 0x22
	OpASetScanTime  Opcode = 0x25
	OpASetPower     Opcode = 0x2F
	OpASetWorkMode  Opcode = 0x35
	OpAGetWorkMode  Opcode = 0x36
	OpAActiveReport Opcode = 0xEE
)

var opcodeNamesA = map[Opcode]string{
	OpAInventory:    "Inventory",
	OpAReadData:     "ReadData",
	OpAWriteData:    "WriteData",
	OpAKillTag:      "KillTag",
	OpALock:         "Lock",
	OpAReaderInfo:   "GetReaderInfo",
	OpASetRegion:    "SetRegion",
	OpASetScanTime:  "SetScanTime",
	OpASetPower:     "SetPower",
	OpASetWorkMode:  "SetWorkMode",
	OpAGetWorkMode:  "GetWorkMode",
	OpAActiveReport: "ActiveReport",
}

// ---- Family B opcodes ----

const (
	OpBInventory          Opcode = 0x0001
	OpBInventoryStop      Opcode = 0x0002
	OpBReadTag            Opcode = 0x0003
	OpBWriteTag           Opcode = 0x0004
	OpBLockTag            Opcode = 0x0005
	OpBKillTag            Opcode = 0x0006
	OpBSelectMask         Opcode = 0x0007
	OpBQueryParam         Opcode = 0x0008
	OpBInventoryRange     Opcode = 0x0018
	OpBModuleInit         Opcode = 0x0050
	OpBReboot             Opcode = 0x0052
	OpBSetPower           Opcode = 0x0053
	OpBRFIDProtocol       Opcode = 0x0059
	OpBNetwork            Opcode = 0x005F
	OpBSetMaxTemperature  Opcode = 0x0060
	OpBCurrentTemperature Opcode = 0x0061
	OpBAntennaPower       Opcode = 0x0063
	OpBRemoteNetwork      Opcode = 0x0064
	OpBDeviceInfo         Opcode = 0x0070
	OpBSetAllParams       Opcode = 0x0071
	OpBGetAllParams       Opcode = 0x0072
	OpBPermission         Opcode = 0x0073
	OpBOutputParams       Opcode = 0x0074
	OpBWiFi               Opcode = 0x0075
	OpBRelay              Opcode = 0x0077
)

var opcodeNamesB = map[Opcode]string{
	OpBInventory:          "Inventory",
	OpBInventoryStop:      "InventoryStop",
	OpBReadTag:            "ReadTag",
	OpBWriteTag:           "WriteTag",
	OpBLockTag:            "LockTag",
	OpBKillTag:            "KillTag",
	OpBSelectMask:         "SelectMask",
	OpBQueryParam:         "QueryParam",
	OpBInventoryRange:     "InventoryRange",
	OpBModuleInit:         "ModuleInit",
	OpBReboot:             "Reboot",
	OpBSetPower:           "SetPower",
	OpBRFIDProtocol:       "RFIDProtocol",
	OpBNetwork:            "Network",
	OpBSetMaxTemperature:  "SetMaxTemperature",
	OpBCurrentTemperature: "CurrentTemperature",
	OpBAntennaPower:       "AntennaPower",
	OpBRemoteNetwork:      "RemoteNetwork",
	OpBDeviceInfo:         "DeviceInfo",
	OpBSetAllParams:       "SetAllParams",
	OpBGetAllParams:       "GetAllParams",
	OpBPermission:         "Permission",
	OpBOutputParams:       "OutputParams",
	OpBWiFi:               "WiFi",
	OpBRelay:              "Relay",
}

// Option is the leading byte of Family B get/set commands.
type Option uint8

const (
	OptionSet Option = 0x01
	OptionGet Option = 0x02
)

// KnownOpcode reports whether op belongs to the family's command table.
func (f Family) KnownOpcode(op Opcode) bool {
	switch f {
	case FamilyA:
		_, ok := opcodeNamesA[op]
		return ok
	case FamilyB:
		_, ok := opcodeNamesB[op]
		return ok
	}
	return false
}

func (f Family) OpcodeName(op Opcode) string {
	var name string
	switch f {
	case FamilyA:
		name = opcodeNamesA[op]
	case FamilyB:
		name = opcodeNamesB[op]
	}
	if name == "" {
		return fmt.Sprintf("0x%04X", uint16(op))
	}
	return name
}
