// internal/records/output.go
package records

import "github.com/tamzrod/uhf-replicator/internal/protocol"

// OutputControl configures relay and buffered protocol output.
//
//	0 relay  1 relay valid time  2 relay power  3 trigger way  4 buffer
//	5 protocol enable  6 protocol type  7..17 protocol format
type OutputControl struct {
	EnableRelay      bool
	RelayValidTime   uint8
	EnableRelayPower bool
	TriggerWay       TriggerWay
	EnableBuffer     bool
	EnableProtocol   bool
	ProtocolType     OutputProtocolType
	ProtocolFormat   [10]byte
}

// DefaultOutputControl mirrors the factory configuration.
func DefaultOutputControl() OutputControl {
	return OutputControl{RelayValidTime: 3, TriggerWay: TriggerHigh, ProtocolType: OutputASCII}
}

func (o OutputControl) MarshalBinary() ([]byte, error) {
	if o.TriggerWay > TriggerHigh {
		return nil, protocol.Invalid("output.trigger_way", o.TriggerWay, "unknown trigger")
	}
	if !enumValid(outputProtocolNames, o.ProtocolType) {
		return nil, protocol.Invalid("output.protocol_type", o.ProtocolType, "unknown protocol")
	}
	out := make([]byte, 0, OutputControlSize)
	out = append(out,
		boolByte(o.EnableRelay),
		o.RelayValidTime,
		boolByte(o.EnableRelayPower),
		byte(o.TriggerWay),
		boolByte(o.EnableBuffer),
		boolByte(o.EnableProtocol),
		byte(o.ProtocolType),
	)
	out = append(out, o.ProtocolFormat[:]...)
	return out, nil
}

func (o *OutputControl) UnmarshalBinary(b []byte) error {
	if err := needLen("output control", b, OutputControlSize); err != nil {
		return err
	}
	v := OutputControl{
		EnableRelay:      b[0] != 0,
		RelayValidTime:   b[1],
		EnableRelayPower: b[2] != 0,
		TriggerWay:       TriggerWay(b[3]),
		EnableBuffer:     b[4] != 0,
		EnableProtocol:   b[5] != 0,
		ProtocolType:     OutputProtocolType(b[6]),
	}
	copy(v.ProtocolFormat[:], b[7:17])
	if v.TriggerWay > TriggerHigh {
		return protocol.Invalid("output.trigger_way", v.TriggerWay, "unknown trigger")
	}
	if !enumValid(outputProtocolNames, v.ProtocolType) {
		return protocol.Invalid("output.protocol_type", v.ProtocolType, "unknown protocol")
	}
	*o = v
	return nil
}
