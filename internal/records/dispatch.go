// internal/records/dispatch.go
package records

import (
	"fmt"

	"github.com/tamzrod/uhf-replicator/internal/protocol"
)

// Body is a decoded reply payload. The concrete type is selected by opcode.
type Body interface{ body() }

// Ack is the body of replies that carry no data.
type Ack struct{}

// WordData is raw memory returned by a Family A read.
type WordData []byte

// ProtocolSetting is the RFIDProtocol get reply.
type ProtocolSetting struct{ Protocol RFIDProtocol }

func (Ack) body()                     {}
func (WordData) body()                {}
func (ProtocolSetting) body()         {}
func (DeviceInfo) body()              {}
func (ReaderSettings) body()          {}
func (NetworkSettings) body()         {}
func (RemoteNetworkSettings) body()   {}
func (OutputControl) body()           {}
func (MaskInventoryPermission) body() {}
func (SelectParameters) body()        {}
func (QueryParameters) body()         {}
func (AntennaPower) body()            {}
func (InventoryRange) body()          {}
func (Temperature) body()             {}
func (ReaderInfo) body()              {}
func (TagOperation) body()            {}

type decodeFunc func(p []byte) (Body, error)

// unmarshaler is satisfied by pointers to every record type.
type unmarshaler[T any] interface {
	*T
	UnmarshalBinary([]byte) error
}

func record[T Body, P unmarshaler[T]]() decodeFunc {
	return func(p []byte) (Body, error) {
		var v T
		if err := P(&v).UnmarshalBinary(p); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// optioned strips the leading get/set option byte of Family B replies.
func optioned(next decodeFunc) decodeFunc {
	return func(p []byte) (Body, error) {
		if len(p) == 0 {
			return Ack{}, nil
		}
		if o := protocol.Option(p[0]); o != protocol.OptionGet && o != protocol.OptionSet {
			return nil, protocol.Invalid("option", p[0], "expected get or set option")
		}
		if len(p) == 1 {
			return Ack{}, nil
		}
		return next(p[1:])
	}
}

var decodersB = map[protocol.Opcode]decodeFunc{
	protocol.OpBDeviceInfo:         record[DeviceInfo](),
	protocol.OpBGetAllParams:       record[ReaderSettings](),
	protocol.OpBNetwork:            optioned(record[NetworkSettings]()),
	protocol.OpBRemoteNetwork:      optioned(record[RemoteNetworkSettings]()),
	protocol.OpBOutputParams:       optioned(record[OutputControl]()),
	protocol.OpBPermission:         optioned(record[MaskInventoryPermission]()),
	protocol.OpBAntennaPower:       optioned(record[AntennaPower]()),
	protocol.OpBInventoryRange:     optioned(record[InventoryRange]()),
	protocol.OpBSelectMask:         record[SelectParameters](),
	protocol.OpBQueryParam:         record[QueryParameters](),
	protocol.OpBCurrentTemperature: record[Temperature](),
	protocol.OpBRFIDProtocol:       rfidProtocol,
	protocol.OpBReadTag:            tagOperation(true),
	protocol.OpBWriteTag:           tagOperation(false),
	protocol.OpBLockTag:            tagOperation(false),
	protocol.OpBKillTag:            tagOperation(false),
}

var decodersA = map[protocol.Opcode]decodeFunc{
	protocol.OpAReaderInfo: record[ReaderInfo](),
	protocol.OpAReadData:   wordData,
}

func ack(p []byte) (Body, error) { return Ack{}, nil }

func wordData(p []byte) (Body, error) { return WordData(cloneBytes(p)), nil }

// rfidProtocol takes the last byte so a reply with or without the option
// prefix decodes the same way.
func rfidProtocol(p []byte) (Body, error) {
	if len(p) == 0 {
		return Ack{}, nil
	}
	v := RFIDProtocol(p[len(p)-1])
	if !enumValid(rfidProtocolNames, v) {
		return nil, protocol.Invalid("rfid_protocol", v, "unknown protocol")
	}
	return ProtocolSetting{Protocol: v}, nil
}

func tagOperation(withData bool) decodeFunc {
	return func(p []byte) (Body, error) { return ParseTagOperation(p, withData) }
}

// Decode selects the body variant for resp by family and opcode. Replies
// with a non-success status are returned as their StatusError.
func Decode(resp protocol.Response) (Body, error) {
	if err := resp.Err(); err != nil {
		return nil, err
	}
	var table map[protocol.Opcode]decodeFunc
	switch resp.Family() {
	case protocol.FamilyA:
		table = decodersA
	case protocol.FamilyB:
		table = decodersB
	default:
		return nil, fmt.Errorf("records: unknown family %v", resp.Family())
	}
	dec, ok := table[resp.Opcode()]
	if !ok {
		dec = ack
	}
	body, err := dec(resp.Payload())
	if err != nil {
		return nil, fmt.Errorf("records: decode %s: %w", resp.Family().OpcodeName(resp.Opcode()), err)
	}
	return body, nil
}

// As decodes resp and asserts the expected variant.
func As[T Body](resp protocol.Response) (T, error) {
	var zero T
	body, err := Decode(resp)
	if err != nil {
		return zero, err
	}
	v, ok := body.(T)
	if !ok {
		return zero, fmt.Errorf("records: %s reply decoded as %T, want %T",
			resp.Family().OpcodeName(resp.Opcode()), body, zero)
	}
	return v, nil
}
