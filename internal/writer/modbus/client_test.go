// internal/writer/modbus/client_test.go
package modbus

import (
	"errors"
	"testing"

	"github.com/goburrow/modbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type writeCall struct {
	slave uint8
	addr  uint16
	qty   uint16
	value []byte
}

// fakeClient records WriteMultipleRegisters; any other method panics.
type fakeClient struct {
	modbus.Client
	h      *modbus.TCPClientHandler
	calls  []writeCall
	failAt int
}

func (f *fakeClient) WriteMultipleRegisters(addr, qty uint16, value []byte) ([]byte, error) {
	f.calls = append(f.calls, writeCall{slave: f.h.SlaveId, addr: addr, qty: qty, value: value})
	if f.failAt > 0 && len(f.calls) == f.failAt {
		return nil, errors.New("exception 2")
	}
	return nil, nil
}

func newClient() (*EndpointClient, *fakeClient) {
	h := modbus.NewTCPClientHandler("127.0.0.1:502")
	f := &fakeClient{h: h}
	return &EndpointClient{handler: h, client: f}, f
}

func TestWriteRegisters_Chunks(t *testing.T) {
	c, f := newClient()

	regs := make([]uint16, 2*MaxWriteRegisters+5)
	for i := range regs {
		regs[i] = uint16(i)
	}

	require.NoError(t, c.WriteRegisters(7, 100, regs))

	require.Len(t, f.calls, 3)
	assert.Equal(t, writeCall{slave: 7, addr: 100, qty: MaxWriteRegisters, value: packRegisters(regs[:MaxWriteRegisters])}, f.calls[0])
	assert.Equal(t, uint16(100+MaxWriteRegisters), f.calls[1].addr)
	assert.Equal(t, uint16(100+2*MaxWriteRegisters), f.calls[2].addr)
	assert.Equal(t, uint16(5), f.calls[2].qty)
}

func TestWriteRegisters_StopsOnError(t *testing.T) {
	c, f := newClient()
	f.failAt = 1

	err := c.WriteRegisters(1, 0, make([]uint16, MaxWriteRegisters+1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unit=1 addr=0")
	assert.Len(t, f.calls, 1)
}

func TestPackRegisters_BigEndian(t *testing.T) {
	assert.Equal(t, []byte{0x12, 0x34, 0x00, 0xFF}, packRegisters([]uint16{0x1234, 0x00FF}))
}

func TestNewEndpointClient_RequiresEndpoint(t *testing.T) {
	_, err := NewEndpointClient(Config{})
	assert.Error(t, err)
}
