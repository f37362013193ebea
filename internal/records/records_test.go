// internal/records/records_test.go
package records

import (
	"net"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/uhf-replicator/internal/protocol"
)

func sampleSettings() ReaderSettings {
	return ReaderSettings{
		Address:         0x01,
		RFIDProtocol:    ISO18000_6C,
		WorkMode:        AnswerMode,
		OutputInterface: OutputRS485,
		BaudRate:        Baud115200,
		Wiegand:         Wiegand{Protocol: Wiegand34, ByteOrder: HighByteFirst},
		Antennas:        AntennaMask{Ant1: true, Ant4: true},
		Frequency: Frequency{
			Region: RegionUSA,
			MinKHz: 902750,
			MaxKHz: 927250,
		},
		Power:              30,
		OutputMemoryBank:   BankEPC,
		QValue:             4,
		Session:            Session1,
		OutputStartAddress: 2,
		OutputLength:       12,
		FilterTime:         1,
		TriggerTime:        3,
		BuzzerTime:         1,
		InventoryInterval:  10,
	}
}

// ------------------------------------------------------------
// round trips
// ------------------------------------------------------------

func TestReaderSettings_RoundTrip(t *testing.T) {
	cases := map[string]func(*ReaderSettings){
		"rs485":      func(*ReaderSettings) {},
		"wiegand":    func(s *ReaderSettings) { s.OutputInterface = OutputWiegand; s.Wiegand.Open = true },
		"europe":     func(s *ReaderSettings) { s.Frequency = Frequency{Region: RegionEurope, MinKHz: 865300, MaxKHz: 866900} },
		"all-ants":   func(s *ReaderSettings) { s.Antennas = ParseAntennaMask(0xFF) },
		"max-fields": func(s *ReaderSettings) { s.Address, s.QValue, s.InventoryInterval = 0xFF, 15, 0xFF },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := sampleSettings()
			mutate(&in)

			b, err := in.MarshalBinary()
			require.NoError(t, err)
			require.Len(t, b, ReaderSettingsSize)

			var out ReaderSettings
			require.NoError(t, out.UnmarshalBinary(b))
			assert.Equal(t, in, out)
		})
	}
}

func TestReaderSettings_WiegandSentAsRS232(t *testing.T) {
	s := sampleSettings()
	s.OutputInterface = OutputWiegand
	s.Wiegand.Open = true

	b, err := s.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, byte(OutputRS232), b[3])
	assert.Equal(t, byte(0xE0), b[5])
}

func TestReaderSettings_Validation(t *testing.T) {
	s := sampleSettings()
	s.QValue = 16
	_, err := s.MarshalBinary()
	var ve *protocol.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "q_value", ve.Field)

	s = sampleSettings()
	s.Wiegand.Open = true
	_, err = s.MarshalBinary()
	require.ErrorAs(t, err, &ve)

	s = sampleSettings()
	s.Power = 34
	_, err = s.MarshalBinary()
	require.ErrorAs(t, err, &ve)

	var out ReaderSettings
	require.ErrorAs(t, out.UnmarshalBinary(make([]byte, 24)), &ve)
}

func TestNetworkSettings_RoundTrip(t *testing.T) {
	in := NetworkSettings{
		IP:      netip.MustParseAddr("192.168.1.200"),
		MAC:     net.HardwareAddr{0x00, 0x1B, 0x44, 0x11, 0x3A, 0xB7},
		Port:    2022,
		Netmask: netip.MustParseAddr("255.255.255.0"),
		Gateway: netip.MustParseAddr("192.168.1.1"),
	}
	b, err := in.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, NetworkSettingsSize)
	assert.Equal(t, []byte{0x07, 0xE6}, b[10:12])

	var out NetworkSettings
	require.NoError(t, out.UnmarshalBinary(b))
	assert.Equal(t, in, out)

	in.IP = netip.MustParseAddr("::1")
	_, err = in.MarshalBinary()
	assert.Error(t, err)
}

func TestRemoteNetworkSettings_RoundTrip(t *testing.T) {
	in := RemoteNetworkSettings{Enable: true, IP: netip.MustParseAddr("10.0.0.5"), Port: 9090, HeartTime: 30}
	b, err := in.MarshalBinary()
	require.NoError(t, err)
	var out RemoteNetworkSettings
	require.NoError(t, out.UnmarshalBinary(b))
	assert.Equal(t, in, out)
}

func TestOutputControl_RoundTrip(t *testing.T) {
	in := DefaultOutputControl()
	in.EnableRelay = true
	in.EnableProtocol = true
	in.ProtocolType = OutputHex
	copy(in.ProtocolFormat[:], []byte{0x02, 0x0D, 0x0A})

	b, err := in.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, OutputControlSize)

	var out OutputControl
	require.NoError(t, out.UnmarshalBinary(b))
	assert.Equal(t, in, out)
}

func TestMaskInventoryPermission_RoundTrip(t *testing.T) {
	for _, mask := range [][]byte{nil, {0xE2}, {0xE2, 0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88, 0x99, 0xAA}} {
		in := MaskInventoryPermission{
			EnableAccessPassword: true,
			AccessPassword:       [4]byte{0x00, 0x00, 0x12, 0x34},
			EnableMask:           mask != nil,
			MaskStartAddress:     4,
			Mask:                 mask,
			Condition:            PasswordAndMask,
		}
		b, err := in.MarshalBinary()
		require.NoError(t, err)
		require.Len(t, b, MaskPermissionSize)

		var out MaskInventoryPermission
		require.NoError(t, out.UnmarshalBinary(b))
		assert.Equal(t, in, out)
	}

	_, err := MaskInventoryPermission{Mask: make([]byte, 13)}.MarshalBinary()
	assert.Error(t, err)
}

func TestSelectQuery_RoundTrip(t *testing.T) {
	sel := SelectParameters{
		Target:       SelectSL,
		Truncate:     true,
		Action:       1,
		MemoryBank:   SelectBankEPC,
		StartAddress: 0x20,
		Mask:         []byte{0xE2, 0x80},
	}
	b, err := sel.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, byte(16), b[7])
	var selOut SelectParameters
	require.NoError(t, selOut.UnmarshalBinary(b))
	assert.Equal(t, sel, selOut)

	q := QueryParameters{Select: QuerySL, Session: Session2, Target: TargetB}
	b, err = q.MarshalBinary()
	require.NoError(t, err)
	var qOut QueryParameters
	require.NoError(t, qOut.UnmarshalBinary(b))
	assert.Equal(t, q, qOut)
}

func TestDeviceInfo_Fields(t *testing.T) {
	in := DeviceInfo{Hardware: "HW-2.1", Firmware: "UHF Prime Reader V1.4", Serial: "SN0001"}
	b, err := in.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, DeviceInfoSize)

	var out DeviceInfo
	require.NoError(t, out.UnmarshalBinary(b))
	assert.Equal(t, in, out)
}

// ------------------------------------------------------------
// composite sub-fields
// ------------------------------------------------------------

func TestFrequency_USAChannelPlan(t *testing.T) {
	ch := RegionUSA.ChannelsMHz()
	require.Len(t, ch, 50)
	assert.Equal(t, 902.75, ch[0])
	assert.Equal(t, 927.25, ch[49])
	assert.InDelta(t, 0.5, ch[1]-ch[0], 1e-9)
	assert.Equal(t, uint32(500), RegionUSA.StepKHz())
}

func TestFrequency_CountDerivedFromMinMax(t *testing.T) {
	f := Frequency{Region: RegionUSA, MinKHz: 903250, MaxKHz: 905250}
	b, err := f.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x03, 0x87, 0x00, 0xFA, 0x01, 0xF4, 0x05}, b)
	assert.Len(t, f.ChannelsMHz(), 5)

	var out Frequency
	require.NoError(t, out.UnmarshalBinary(b))
	assert.Equal(t, f, out)

	_, err = Frequency{Region: RegionUSA, MinKHz: 903000, MaxKHz: 905250}.MarshalBinary()
	assert.Error(t, err, "903.000 is off the 500 kHz grid")
}

func TestFrequency_DecodesOffPlanWindows(t *testing.T) {
	// custom region, 900.000 MHz, 250 kHz step, 4 channels
	custom := []byte{0x00, 0x03, 0x84, 0x00, 0x00, 0x00, 0xFA, 0x04}

	var f Frequency
	require.NoError(t, f.UnmarshalBinary(custom))
	assert.Equal(t, RegionCustom, f.Region)
	assert.Equal(t, uint32(900000), f.MinKHz)
	assert.Equal(t, uint32(900750), f.MaxKHz)
	_, err := f.MarshalBinary()
	assert.Error(t, err)

	// unknown code, zero channels
	require.NoError(t, f.UnmarshalBinary([]byte{0x42, 0x03, 0x87, 0x00, 0xFA, 0x01, 0xF4, 0x00}))
	assert.Equal(t, uint8(0x42), f.Region.Code)
	assert.Equal(t, f.MinKHz, f.MaxKHz)

	// USA code, start off the 500 kHz grid
	require.NoError(t, f.UnmarshalBinary([]byte{0x01, 0x03, 0x87, 0x00, 0x00, 0x01, 0xF4, 0x02}))
	assert.Equal(t, uint32(903500), f.MaxKHz)
}

func TestReaderSettings_DecodesWhatTheReaderHolds(t *testing.T) {
	b, err := sampleSettings().MarshalBinary()
	require.NoError(t, err)
	copy(b[7:15], []byte{0x00, 0x03, 0x84, 0x00, 0x00, 0x00, 0xFA, 0x04})
	b[17] = 20 // q value out of range

	var out ReaderSettings
	require.NoError(t, out.UnmarshalBinary(b))
	assert.Equal(t, RegionCustom, out.Frequency.Region)
	assert.Equal(t, uint8(20), out.QValue)

	_, err = out.MarshalBinary()
	var ve *protocol.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestRegionSteps(t *testing.T) {
	want := map[string]uint32{
		"USA": 500, "Korea": 200, "Europe": 200, "Japan": 200,
		"Malaysia": 500, "Europe 3": 600, "China 1": 250, "China 2": 250,
	}
	for _, r := range Regions {
		assert.Equal(t, want[r.Name], r.StepKHz(), r.Name)
	}
	r, ok := RegionByName("usa")
	require.True(t, ok)
	assert.Equal(t, uint8(0x01), r.Code)
}

func TestAntennaMask_Lossless(t *testing.T) {
	for b := 0; b < 256; b++ {
		assert.Equal(t, byte(b), ParseAntennaMask(byte(b)).Byte())
	}
	m := ParseAntennaMask(0x01)
	assert.True(t, m.Ant1)
	assert.True(t, m.Enabled(1))
	assert.False(t, m.Enabled(8))
}

func TestWiegand_UnusedBitsZero(t *testing.T) {
	w := ParseWiegand(0xFF)
	assert.Equal(t, Wiegand{Open: true, Protocol: Wiegand34, ByteOrder: HighByteFirst}, w)
	assert.Equal(t, byte(0xE0), w.Byte())
	assert.Equal(t, byte(0x00), Wiegand{}.Byte())
	assert.Equal(t, byte(0x80), Wiegand{Open: true}.Byte())
}

// ------------------------------------------------------------
// tag operations
// ------------------------------------------------------------

func TestTagOperation_Parse(t *testing.T) {
	in := TagOperation{
		TagStatus: protocol.TagNoError,
		Antenna:   2,
		CRC:       0xBEEF,
		PC:        0x3000,
		EPC:       []byte{0xE2, 0x00, 0x34, 0x12},
		Data:      []byte{0x11, 0x22, 0x33, 0x44},
	}
	b, err := in.MarshalBinary()
	require.NoError(t, err)

	out, err := ParseTagOperation(b, true)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.NoError(t, out.Err("read"))

	in.TagStatus = protocol.TagStorageLocked
	in.Data = nil
	b, err = in.MarshalBinary()
	require.NoError(t, err)
	out, err = ParseTagOperation(b, false)
	require.NoError(t, err)

	var te *protocol.TagOperationError
	require.ErrorAs(t, out.Err("write"), &te)
	assert.Equal(t, protocol.TagStorageLocked, te.TagStatus)
}

func TestRequests_Payloads(t *testing.T) {
	epc := []byte{0xE2, 0x00, 0x00, 0x01}

	a, err := ReadRequest{EPC: epc, Bank: BankUser, StartWord: 2, Words: 4}.PayloadA()
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 0xE2, 0x00, 0x00, 0x01, 0x03, 2, 4, 0, 0, 0, 0}, a)

	b, err := ReadRequest{Bank: BankUser, StartWord: 0x0102, Words: 4}.PayloadB()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0, 0x03, 0x01, 0x02, 4}, b)

	w, err := WriteRequest{EPC: epc, Bank: BankEPC, StartWord: 2, Data: []byte{0xAA, 0xBB}}.PayloadA()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 0xE2, 0x00, 0x00, 0x01, 0x01, 2, 0xAA, 0xBB, 0, 0, 0, 0}, w)

	_, err = WriteRequest{Bank: BankEPC, Data: []byte{0xAA}}.PayloadB()
	assert.Error(t, err)

	_, err = ReadRequest{EPC: []byte{0xE2}, Bank: BankEPC, Words: 1}.PayloadA()
	assert.Error(t, err, "odd EPC length")

	l, err := LockRequest{Bank: LockUser, Action: LockPermanent}.PayloadB()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0, 0x04, 0x03}, l)
}

// ------------------------------------------------------------
// dispatch
// ------------------------------------------------------------

func TestDecode_Dispatch(t *testing.T) {
	ns := NetworkSettings{
		IP:      netip.MustParseAddr("192.168.1.200"),
		MAC:     net.HardwareAddr{1, 2, 3, 4, 5, 6},
		Port:    2022,
		Netmask: netip.MustParseAddr("255.255.255.0"),
		Gateway: netip.MustParseAddr("192.168.1.1"),
	}
	rec, err := ns.MarshalBinary()
	require.NoError(t, err)

	frame, err := protocol.EncodeResponseB(0xFF, protocol.OpBNetwork, 0x00, append([]byte{byte(protocol.OptionGet)}, rec...))
	require.NoError(t, err)
	resp, err := protocol.DecodeB(frame)
	require.NoError(t, err)

	got, err := As[NetworkSettings](resp)
	require.NoError(t, err)
	assert.Equal(t, ns, got)

	_, err = As[DeviceInfo](resp)
	assert.Error(t, err)

	frame, err = protocol.EncodeResponseB(0xFF, protocol.OpBNetwork, uint8(protocol.StatusBCommandFailed), nil)
	require.NoError(t, err)
	resp, err = protocol.DecodeB(frame)
	require.NoError(t, err)
	_, err = Decode(resp)
	var se *protocol.StatusError
	assert.ErrorAs(t, err, &se)
}
