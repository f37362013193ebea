// internal/driver/driver_test.go
package driver

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/uhf-replicator/internal/capability"
	"github.com/tamzrod/uhf-replicator/internal/inventory"
	"github.com/tamzrod/uhf-replicator/internal/protocol"
	"github.com/tamzrod/uhf-replicator/internal/records"
	"github.com/tamzrod/uhf-replicator/internal/transport"
	"github.com/tamzrod/uhf-replicator/internal/transport/transporttest"
)

// ------------------------------------------------------------
// simulated readers
// ------------------------------------------------------------

// simB answers Family B commands from a per-opcode script. Opcodes without
// an entry get an empty success reply.
type simB struct {
	t       *testing.T
	replies map[protocol.Opcode][][]byte
}

func newSimB(t *testing.T, firmware string) (*simB, *transporttest.Fake) {
	t.Helper()
	info, err := records.DeviceInfo{Hardware: "HW-1", Firmware: firmware, Serial: "SN1"}.MarshalBinary()
	require.NoError(t, err)

	s := &simB{t: t, replies: map[protocol.Opcode][][]byte{}}
	s.on(protocol.OpBDeviceInfo, 0, info)
	fake := transporttest.New()
	fake.Reply = s.reply
	return s, fake
}

func (s *simB) frame(op protocol.Opcode, status uint8, payload []byte) []byte {
	b, err := protocol.EncodeResponseB(protocol.BroadcastAddress, op, status, payload)
	require.NoError(s.t, err)
	return b
}

// on replaces the reply to op with one frame.
func (s *simB) on(op protocol.Opcode, status uint8, payload []byte) {
	s.replies[op] = [][]byte{s.frame(op, status, payload)}
}

func (s *simB) reply(frame []byte) [][]byte {
	op := protocol.Opcode(binary.BigEndian.Uint16(frame[2:4]))
	if r, ok := s.replies[op]; ok {
		return r
	}
	return [][]byte{s.frame(op, 0, nil)}
}

func connectB(t *testing.T, firmware string) (*Session, *simB, *transporttest.Fake) {
	t.Helper()
	sim, fake := newSimB(t, firmware)
	s, err := Connect(fake, Options{Family: protocol.FamilyB, Name: "rdr-1"})
	require.NoError(t, err)
	return s, sim, fake
}

func opcodesB(writes [][]byte) []protocol.Opcode {
	out := make([]protocol.Opcode, 0, len(writes))
	for _, w := range writes {
		out = append(out, protocol.Opcode(binary.BigEndian.Uint16(w[2:4])))
	}
	return out
}

func frameA(t *testing.T, op protocol.Opcode, status uint8, payload []byte) []byte {
	t.Helper()
	b, err := protocol.EncodeResponseA(0x00, op, status, payload)
	require.NoError(t, err)
	return b
}

// ------------------------------------------------------------
// connect
// ------------------------------------------------------------

func TestConnect_FamilyB(t *testing.T) {
	s, _, fake := connectB(t, "UHF Access Reader V2.0")

	assert.Equal(t, []protocol.Opcode{protocol.OpBModuleInit, protocol.OpBDeviceInfo}, opcodesB(fake.Writes()))
	require.NotNil(t, s.Capability())
	assert.Equal(t, "Electron EL-UHF-RC3 Series", s.Capability().Series)
	assert.Equal(t, "UHF Access Reader V2.0", s.Firmware())
	assert.Equal(t, protocol.BroadcastAddress, s.Address())
	assert.NotEqual(t, [16]byte{}, [16]byte(s.ID()))
}

func TestConnect_FamilyA(t *testing.T) {
	info, err := records.ReaderInfo{VersionMajor: 3, VersionMinor: 2, Power: 30}.MarshalBinary()
	require.NoError(t, err)
	fake := transporttest.New(frameA(t, protocol.OpAReaderInfo, 0, info))

	s, err := Connect(fake, Options{Family: protocol.FamilyA})
	require.NoError(t, err)
	assert.Equal(t, "UHFReader18 v3.2", s.Firmware())
	require.NotNil(t, s.Capability())
	assert.True(t, s.Capability().SupportsReadWrite)
	assert.False(t, s.Capability().SupportsNetworkSettings)
}

func TestConnect_UnknownFirmwareHasNoCapability(t *testing.T) {
	s, _, _ := connectB(t, "Some Other Reader")
	assert.Nil(t, s.Capability())
}

func TestConnect_InitFailure(t *testing.T) {
	sim, fake := newSimB(t, "UHF Prime Reader")
	sim.on(protocol.OpBModuleInit, uint8(protocol.StatusBCommandFailed), nil)

	_, err := Connect(fake, Options{Family: protocol.FamilyB})
	var ce *ConnectError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "init", ce.Stage)
	var se *protocol.StatusError
	assert.ErrorAs(t, err, &se)
}

func TestConnect_NoReply(t *testing.T) {
	_, err := Connect(transporttest.New(), Options{Family: protocol.FamilyB})
	assert.ErrorIs(t, err, ErrNoReply)
	assert.True(t, protocol.IsTimeout(err))
}

// ------------------------------------------------------------
// capability gating
// ------------------------------------------------------------

func TestGating_NetworkWithoutCapability(t *testing.T) {
	s, _, fake := connectB(t, "UHF Access Reader")
	before := len(fake.Writes())

	_, err := s.NetworkSettings()
	var ce *protocol.CapabilityError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Electron EL-UHF-RC3 Series", ce.Series)

	err = s.SetRemoteNetworkSettings(records.RemoteNetworkSettings{})
	assert.ErrorAs(t, err, &ce)
	assert.Len(t, fake.Writes(), before)
}

func TestGating_NilCapabilityBlocksEverything(t *testing.T) {
	fake := transporttest.New()
	s, err := Connect(fake, Options{Family: protocol.FamilyB, SkipInit: true})
	require.NoError(t, err)

	var ce *protocol.CapabilityError
	_, err = s.ReadMemory(records.ReadRequest{Bank: records.BankEPC, Words: 2})
	assert.ErrorAs(t, err, &ce)
	_, err = s.CurrentTemperature()
	assert.ErrorAs(t, err, &ce)
	_, err = s.OutputControl()
	assert.ErrorAs(t, err, &ce)
	_, err = s.SelectParameters()
	assert.ErrorAs(t, err, &ce)
	_, err = s.InventoryRange()
	assert.ErrorAs(t, err, &ce)
	assert.Empty(t, fake.Writes())
}

func TestGating_FamilyMismatch(t *testing.T) {
	s, _, _ := connectB(t, "UHF Prime Reader")
	_, err := s.Inventory(ModeBatch, InventoryParams{})
	var ce *protocol.CapabilityError
	assert.ErrorAs(t, err, &ce)

	_, err = s.ReaderInfo()
	assert.ErrorAs(t, err, &ce)
}

func TestGating_StopByCycles(t *testing.T) {
	s, _, _ := connectB(t, "UHF Prime Reader")
	_, err := s.Inventory(ModeAnswer, InventoryParams{Stop: inventory.StopCondition{Kind: inventory.StopAfterCycles, Value: 5}})
	var ce *protocol.CapabilityError
	assert.ErrorAs(t, err, &ce)
}

// ------------------------------------------------------------
// power
// ------------------------------------------------------------

func TestSetPower_Boundary(t *testing.T) {
	fake := transporttest.New()
	fake.Reply = func(frame []byte) [][]byte {
		b, _ := protocol.EncodeResponseB(protocol.BroadcastAddress, protocol.OpBSetPower, 0, nil)
		return [][]byte{b}
	}
	s, err := Connect(fake, Options{Family: protocol.FamilyB, SkipInit: true})
	require.NoError(t, err)

	err = s.SetPower(31)
	var ve *protocol.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Empty(t, fake.Writes())

	require.NoError(t, s.SetPower(30))
	cmd, err := protocol.NewCommand(protocol.FamilyB, protocol.BroadcastAddress, protocol.OpBSetPower, []byte{30, 0x00})
	require.NoError(t, err)
	want, err := protocol.Encode(cmd)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{want}, fake.Writes())
}

func TestSetPower_CapabilityLimit(t *testing.T) {
	s, _, _ := connectB(t, "UHF Access Reader")
	assert.NoError(t, s.SetPower(33))
	var ve *protocol.ValidationError
	assert.ErrorAs(t, s.SetPower(34), &ve)
}

func TestSetPower_FamilyA(t *testing.T) {
	fake := transporttest.New(frameA(t, protocol.OpASetPower, 0, nil))
	s, err := Connect(fake, Options{Family: protocol.FamilyA, SkipInit: true})
	require.NoError(t, err)

	require.NoError(t, s.SetPower(20))
	w := fake.Writes()
	require.Len(t, w, 1)
	assert.Equal(t, []byte{0x05, 0x00, 0x2F, 20}, w[0][:4])
}

// ------------------------------------------------------------
// records
// ------------------------------------------------------------

func settings() records.ReaderSettings {
	return records.ReaderSettings{
		Address:         0x00,
		RFIDProtocol:    records.ISO18000_6C,
		WorkMode:        records.AnswerMode,
		OutputInterface: records.OutputRS232,
		BaudRate:        records.Baud115200,
		Antennas:        records.AntennaMask{Ant1: true},
		Frequency:       records.Frequency{Region: records.RegionUSA, MinKHz: 902750, MaxKHz: 927250},
		Power:           26,
		QValue:          4,
	}
}

func TestReaderSettings_CacheSurvivesReconnect(t *testing.T) {
	s, _, fake := connectB(t, "UHF Prime Reader")

	rs := settings()
	require.NoError(t, s.SetReaderSettings(rs))
	require.NoError(t, s.Reconnect(transport.Params{Endpoint: "10.0.0.9:2022"}))

	cached, ok := s.CachedSettings()
	require.True(t, ok)
	assert.Equal(t, rs, cached)
	assert.NotNil(t, s.Capability())
	assert.Len(t, fake.Reconnects(), 1)

	require.NoError(t, s.SetPower(28))
	cached, _ = s.CachedSettings()
	assert.Equal(t, uint8(28), cached.Power)
}

func TestReaderSettings_Read(t *testing.T) {
	s, sim, _ := connectB(t, "UHF Prime Reader")
	b, err := settings().MarshalBinary()
	require.NoError(t, err)
	sim.on(protocol.OpBGetAllParams, 0, b)

	got, err := s.ReaderSettings()
	require.NoError(t, err)
	assert.Equal(t, settings(), got)
	_, ok := s.CachedSettings()
	assert.True(t, ok)
}

func TestNetworkSettings_GetSendsOption(t *testing.T) {
	s, sim, fake := connectB(t, "UHF Prime Reader")
	sim.on(protocol.OpBNetwork, uint8(protocol.StatusBWrongParam), nil)

	_, err := s.NetworkSettings()
	var se *protocol.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, uint8(protocol.StatusBWrongParam), se.Status)

	w := fake.Writes()
	last := w[len(w)-1]
	assert.Equal(t, []byte{0x01, byte(protocol.OptionGet)}, last[4:6])
}

func TestSetRelay(t *testing.T) {
	s, _, fake := connectB(t, "UHF Prime Reader")
	require.NoError(t, s.SetRelay(records.RelayClose, 3))
	w := fake.Writes()
	assert.Equal(t, []byte{0x02, 0x02, 0x03}, w[len(w)-1][4:7])

	var ve *protocol.ValidationError
	assert.ErrorAs(t, s.SetRelay(9, 1), &ve)
}

func TestReplyOpcodeMismatch(t *testing.T) {
	s, sim, _ := connectB(t, "UHF Prime Reader")
	sim.replies[protocol.OpBRFIDProtocol] = [][]byte{sim.frame(protocol.OpBReboot, 0, nil)}

	_, err := s.RFIDProtocol()
	assert.True(t, protocol.IsFrameError(err, protocol.UnknownOpcode))
}

// ------------------------------------------------------------
// tag operations
// ------------------------------------------------------------

func tagReply(t *testing.T, op records.TagOperation) []byte {
	t.Helper()
	b, err := op.MarshalBinary()
	require.NoError(t, err)
	return b
}

func TestReadMemory_BatchB(t *testing.T) {
	s, sim, _ := connectB(t, "UHF Access Reader")
	ok := records.TagOperation{TagStatus: protocol.TagNoError, Antenna: 1, EPC: []byte{0xE2, 0x00}, Data: []byte{0x12, 0x34}}
	locked := records.TagOperation{TagStatus: protocol.TagStorageLocked, Antenna: 2, EPC: []byte{0xE2, 0x01}}
	sim.replies[protocol.OpBReadTag] = [][]byte{
		sim.frame(protocol.OpBReadTag, 0, tagReply(t, ok)),
		sim.frame(protocol.OpBReadTag, 0, tagReply(t, locked)),
		sim.frame(protocol.OpBReadTag, uint8(protocol.StatusBNoCountLabel), nil),
	}

	res, err := s.ReadMemory(records.ReadRequest{Bank: records.BankTID, Words: 1})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.NoError(t, res[0].Err)
	assert.Equal(t, []byte{0x12, 0x34}, res[0].Tag.Data)

	var te *protocol.TagOperationError
	require.ErrorAs(t, res[1].Err, &te)
	assert.Equal(t, protocol.TagStorageLocked, te.TagStatus)
}

func TestWriteMemory_PartialOnTimeout(t *testing.T) {
	s, sim, _ := connectB(t, "UHF Access Reader")
	ok := records.TagOperation{TagStatus: protocol.TagNoError, EPC: []byte{0xAA, 0xBB}}
	sim.replies[protocol.OpBWriteTag] = [][]byte{sim.frame(protocol.OpBWriteTag, 0, tagReply(t, ok))}

	res, err := s.WriteMemory(records.WriteRequest{Bank: records.BankUser, Data: []byte{1, 2}})
	assert.ErrorIs(t, err, ErrNoReply)
	assert.Len(t, res, 1)
}

func TestReadMemory_FamilyA(t *testing.T) {
	info, err := records.ReaderInfo{VersionMajor: 1}.MarshalBinary()
	require.NoError(t, err)
	fake := transporttest.New(frameA(t, protocol.OpAReaderInfo, 0, info))
	s, err := Connect(fake, Options{Family: protocol.FamilyA})
	require.NoError(t, err)

	fake.Queue(frameA(t, protocol.OpAReadData, 0, []byte{0xBE, 0xEF}))
	res, err := s.ReadMemory(records.ReadRequest{EPC: []byte{0x30, 0x00}, Bank: records.BankUser, Words: 1})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, []byte{0xBE, 0xEF}, res[0].Tag.Data)
	assert.Equal(t, []byte{0x30, 0x00}, res[0].Tag.EPC)

	fake.Queue(frameA(t, protocol.OpAKillTag, uint8(protocol.StatusAKillPasswordZero), nil))
	_, err = s.KillTag(records.KillRequest{EPC: []byte{0x30, 0x00}})
	var se *protocol.StatusError
	assert.ErrorAs(t, err, &se)
}

// ------------------------------------------------------------
// inventory slot
// ------------------------------------------------------------

func tagB(epc ...byte) []byte {
	return append([]byte{0xFF, 0xC0, 1, 2, byte(len(epc))}, epc...)
}

func TestInventory_BusySlot(t *testing.T) {
	s, sim, fake := connectB(t, "UHF Prime Reader")
	sim.replies[protocol.OpBInventory] = [][]byte{
		sim.frame(protocol.OpBInventory, 0, tagB(0xE2, 0x01)),
		sim.frame(protocol.OpBInventory, 0, tagB(0xE2, 0x02)),
	}
	sim.on(protocol.OpBInventoryStop, 0, nil)
	ctx := context.Background()

	st, err := s.Inventory(ModeAnswer, InventoryParams{Stop: inventory.StopCondition{Value: 5}})
	require.NoError(t, err)
	require.True(t, st.Next(ctx))
	assert.Equal(t, "E201", st.Tag().EPC())

	_, err = s.DeviceInfo()
	assert.ErrorIs(t, err, ErrBusy)
	_, err = s.Inventory(ModeAnswer, InventoryParams{})
	assert.ErrorIs(t, err, ErrBusy)

	require.NoError(t, s.StopInventory(ctx))
	assert.Equal(t, inventory.Stopped, st.State())
	ops := opcodesB(fake.Writes())
	assert.Equal(t, protocol.OpBInventoryStop, ops[len(ops)-1])

	_, err = s.DeviceInfo()
	assert.NoError(t, err)
}

func TestInventory_CancelledAnswerKeepsSlot(t *testing.T) {
	s, sim, fake := connectB(t, "UHF Prime Reader")
	sim.replies[protocol.OpBInventory] = [][]byte{
		sim.frame(protocol.OpBInventory, 0, tagB(0xE2, 0x01)),
		sim.frame(protocol.OpBInventory, 0, tagB(0xE2, 0x02)),
		sim.frame(protocol.OpBInventory, 0, tagB(0xE2, 0x03)),
	}
	sim.on(protocol.OpBInventoryStop, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	st, err := s.Inventory(ModeAnswer, InventoryParams{Stop: inventory.StopCondition{Value: 5}})
	require.NoError(t, err)
	require.True(t, st.Next(ctx))
	cancel()
	require.False(t, st.Next(ctx))
	assert.Equal(t, inventory.Stopped, st.State())

	// tags are still queued from the reader
	writes := len(fake.Writes())
	assert.ErrorIs(t, s.SetPower(10), ErrBusy)
	_, err = s.Inventory(ModeAnswer, InventoryParams{})
	assert.ErrorIs(t, err, ErrBusy)
	assert.Len(t, fake.Writes(), writes)

	require.NoError(t, s.StopInventory(context.Background()))
	assert.ErrorIs(t, st.Err(), context.Canceled)
	ops := opcodesB(fake.Writes())
	assert.Equal(t, protocol.OpBInventoryStop, ops[len(ops)-1])

	assert.NoError(t, s.SetPower(10))
}

func TestInventory_BatchA(t *testing.T) {
	fake := transporttest.New(frameA(t, protocol.OpAInventory, uint8(protocol.StatusAInventoryComplete),
		[]byte{2, 3, 0xA, 0xB, 0xC, 2, 0xD, 0xE}))
	s, err := Connect(fake, Options{Family: protocol.FamilyA, SkipInit: true})
	require.NoError(t, err)

	st, err := s.Inventory(DefaultMode(protocol.FamilyA), InventoryParams{})
	require.NoError(t, err)
	tags, err := inventory.Collect(context.Background(), st, 0)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, []byte{0xA, 0xB, 0xC}, tags[0].Data)
	assert.Equal(t, []byte{0xD, 0xE}, tags[1].Data)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Active ")
	require.NoError(t, err)
	assert.Equal(t, ModeActive, m)
	_, err = ParseMode("burst")
	assert.Error(t, err)
}

// ------------------------------------------------------------
// observer
// ------------------------------------------------------------

type recorder struct {
	mu        sync.Mutex
	frames    []FrameEvent
	exchanges []ExchangeEvent
}

func (r *recorder) ObserveFrame(ev FrameEvent) {
	r.mu.Lock()
	r.frames = append(r.frames, ev)
	r.mu.Unlock()
}

func (r *recorder) ObserveExchange(ev ExchangeEvent) {
	r.mu.Lock()
	r.exchanges = append(r.exchanges, ev)
	r.mu.Unlock()
}

func TestObserver_SeesFramesAndExchanges(t *testing.T) {
	sim, fake := newSimB(t, "UHF Prime Reader")
	sim.on(protocol.OpBReboot, uint8(protocol.StatusBCommandFailed), nil)
	rec := &recorder{}
	s, err := Connect(fake, Options{Family: protocol.FamilyB, Name: "dock-3", Observer: MultiObserver{nil, rec}})
	require.NoError(t, err)

	err = s.Reboot()
	require.Error(t, err)

	require.Len(t, rec.frames, 6)
	assert.Equal(t, Tx, rec.frames[0].Dir)
	assert.Equal(t, Rx, rec.frames[1].Dir)
	assert.Equal(t, "dock-3", rec.frames[0].Reader)
	assert.Equal(t, s.ID(), rec.frames[0].Session)

	require.Len(t, rec.exchanges, 3)
	assert.Equal(t, protocol.OpBModuleInit, rec.exchanges[0].Opcode)
	// a status failure is not an exchange failure
	assert.NoError(t, rec.exchanges[2].Err)
	assert.False(t, errors.Is(err, ErrNoReply))
}

func TestCapabilityFlagsExposed(t *testing.T) {
	s, _, _ := connectB(t, "UHF Prime Reader")
	assert.True(t, s.Capability().Has(capability.NetworkSettings))
	assert.Equal(t, capability.DefaultMaxPower, s.Capability().PowerLimit())
}
