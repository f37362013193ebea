// internal/discovery/discovery_test.go
package discovery

import (
	"context"
	"net"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/uhf-replicator/internal/protocol"
	"github.com/tamzrod/uhf-replicator/internal/records"
)

func sampleNetwork() records.NetworkSettings {
	return records.NetworkSettings{
		IP:      netip.MustParseAddr("192.168.1.190"),
		MAC:     net.HardwareAddr{0x00, 0x1B, 0x21, 0x0A, 0x0B, 0x0C},
		Port:    2022,
		Netmask: netip.MustParseAddr("255.255.255.0"),
		Gateway: netip.MustParseAddr("192.168.1.1"),
	}
}

func networkReply(t *testing.T) []byte {
	t.Helper()
	rec, err := sampleNetwork().MarshalBinary()
	require.NoError(t, err)
	b, err := protocol.EncodeResponseB(0xFF, protocol.OpBNetwork, 0, append([]byte{byte(protocol.OptionGet)}, rec...))
	require.NoError(t, err)
	return b
}

func TestProbe(t *testing.T) {
	p := Probe()
	assert.Equal(t, []byte{0xCF, 0xFF, 0x00, 0x5F, 0x01, 0x02}, p[:6])
	assert.Len(t, p, 8)
}

func TestDecodeReply(t *testing.T) {
	b := networkReply(t)
	assert.Len(t, b, ReplySize)
	ns, err := DecodeReply(b)
	require.NoError(t, err)
	assert.Equal(t, sampleNetwork(), ns)

	other, err := protocol.EncodeResponseB(0xFF, protocol.OpBReboot, 0, nil)
	require.NoError(t, err)
	_, err = DecodeReply(other)
	assert.True(t, protocol.IsFrameError(err, protocol.UnknownOpcode))
}

func TestHosts(t *testing.T) {
	hs, err := Hosts("192.168.1.0/30")
	require.NoError(t, err)
	assert.Equal(t, []netip.Addr{netip.MustParseAddr("192.168.1.1"), netip.MustParseAddr("192.168.1.2")}, hs)

	hs, err = Hosts("10.0.0.7/32")
	require.NoError(t, err)
	assert.Len(t, hs, 1)

	hs, err = Hosts("192.168.1.77/24")
	require.NoError(t, err)
	assert.Len(t, hs, 254)
	assert.Equal(t, "192.168.1.1", hs[0].String())

	_, err = Hosts("10.0.0.0/8")
	assert.Error(t, err)
	_, err = Hosts("fe80::/120")
	assert.Error(t, err)
	_, err = Hosts("nonsense")
	assert.Error(t, err)
}

func TestBroadcast_LocalResponder(t *testing.T) {
	srv, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer srv.Close()

	reply := networkReply(t)
	go func() {
		buf := make([]byte, 64)
		_, from, err := srv.ReadFrom(buf)
		if err != nil {
			return
		}
		srv.WriteTo(reply, from)
		srv.WriteTo([]byte{0x01, 0x02}, from)
	}()

	var got []Result
	err = Broadcast(context.Background(), BroadcastConfig{
		Listen: "127.0.0.1:0",
		Target: srv.LocalAddr().String(),
		Wait:   300 * time.Millisecond,
	}, func(r Result) { got = append(got, r) })
	require.NoError(t, err)

	require.Len(t, got, 2)
	require.NoError(t, got[0].Err)
	assert.Equal(t, sampleNetwork().IP, got[0].Network.IP)
	assert.Error(t, got[1].Err)
}

func TestSweep_LocalReader(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	reply := networkReply(t)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			buf := make([]byte, len(Probe()))
			if _, err := c.Read(buf); err == nil {
				c.Write(reply)
			}
			c.Close()
		}
	}()

	port := ln.Addr().(*net.TCPAddr).Port

	var (
		mu       sync.Mutex
		found    []Result
		progress []int
	)
	err = Sweep(context.Background(), SweepConfig{CIDR: "127.0.0.1/32", Port: uint16(port), Timeout: time.Second},
		func(r Result) {
			mu.Lock()
			found = append(found, r)
			mu.Unlock()
		},
		func(done, total int) { progress = append(progress, done, total) })
	require.NoError(t, err)

	require.Len(t, found, 1)
	assert.NoError(t, found[0].Err)
	assert.Equal(t, uint16(2022), found[0].Network.Port)
	assert.Equal(t, []int{1, 1}, progress)
}

func TestSweep_RequiresPort(t *testing.T) {
	err := Sweep(context.Background(), SweepConfig{CIDR: "127.0.0.1/32"}, func(Result) {}, nil)
	assert.Error(t, err)
}
