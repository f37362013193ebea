// internal/protocol/response.go
package protocol

import "fmt"

// Response is a decoded reply whose checksum has been verified.
// Only the decoders in this package construct one.
type Response struct {
	family   Family
	address  uint8
	opcode   Opcode
	status   uint8
	payload  []byte
	checksum uint16
	raw      []byte
}

func (r Response) Family() Family   { return r.family }
func (r Response) Address() uint8   { return r.address }
func (r Response) Opcode() Opcode   { return r.opcode }
func (r Response) Status() uint8    { return r.status }
func (r Response) Checksum() uint16 { return r.checksum }

// Payload is the data following the status byte.
func (r Response) Payload() []byte { return r.payload }

// Raw is the complete frame the response was decoded from.
func (r Response) Raw() []byte { return r.raw }

func (r Response) OK() bool { return r.family.StatusOK(r.status) }

// Err returns a *StatusError when the status is not a success value.
func (r Response) Err() error {
	if r.OK() {
		return nil
	}
	return &StatusError{Family: r.family, Opcode: r.opcode, Status: r.status}
}

func (r Response) String() string {
	return fmt.Sprintf("%s/%s addr=0x%02X status=%s payload=% X",
		r.family, r.family.OpcodeName(r.opcode), r.address, r.family.StatusName(r.status), r.payload)
}
