// internal/records/network.go
package records

import (
	"encoding/binary"
	"net"
	"net/netip"

	"github.com/tamzrod/uhf-replicator/internal/protocol"
)

// NetworkSettings is the reader's own IP configuration.
//
//	0..4 ip  4..10 mac  10..12 port  12..16 netmask  16..20 gateway
type NetworkSettings struct {
	IP      netip.Addr
	MAC     net.HardwareAddr
	Port    uint16
	Netmask netip.Addr
	Gateway netip.Addr
}

func (n NetworkSettings) Validate() error {
	for _, f := range []struct {
		name string
		addr netip.Addr
	}{{"ip", n.IP}, {"netmask", n.Netmask}, {"gateway", n.Gateway}} {
		if !f.addr.Is4() {
			return protocol.Invalid("network."+f.name, f.addr, "must be an IPv4 address")
		}
	}
	if len(n.MAC) != 6 {
		return protocol.Invalid("network.mac", n.MAC.String(), "must be 6 bytes")
	}
	return nil
}

func (n NetworkSettings) MarshalBinary() ([]byte, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	out := make([]byte, 0, NetworkSettingsSize)
	ip := n.IP.As4()
	out = append(out, ip[:]...)
	out = append(out, n.MAC...)
	out = binary.BigEndian.AppendUint16(out, n.Port)
	mask := n.Netmask.As4()
	out = append(out, mask[:]...)
	gw := n.Gateway.As4()
	out = append(out, gw[:]...)
	return out, nil
}

func (n *NetworkSettings) UnmarshalBinary(b []byte) error {
	if err := needLen("network settings", b, NetworkSettingsSize); err != nil {
		return err
	}
	n.IP = netip.AddrFrom4([4]byte(b[0:4]))
	n.MAC = net.HardwareAddr(append([]byte(nil), b[4:10]...))
	n.Port = binary.BigEndian.Uint16(b[10:12])
	n.Netmask = netip.AddrFrom4([4]byte(b[12:16]))
	n.Gateway = netip.AddrFrom4([4]byte(b[16:20]))
	return nil
}

// RemoteNetworkSettings is the upstream server the reader pushes to.
//
//	0 enable  1..5 ip  5..7 port  7 heart time
type RemoteNetworkSettings struct {
	Enable    bool
	IP        netip.Addr
	Port      uint16
	HeartTime uint8
}

func (r RemoteNetworkSettings) MarshalBinary() ([]byte, error) {
	if !r.IP.Is4() {
		return nil, protocol.Invalid("remote_network.ip", r.IP, "must be an IPv4 address")
	}
	out := make([]byte, 0, RemoteNetworkSettingsSize)
	out = append(out, boolByte(r.Enable))
	ip := r.IP.As4()
	out = append(out, ip[:]...)
	out = binary.BigEndian.AppendUint16(out, r.Port)
	out = append(out, r.HeartTime)
	return out, nil
}

func (r *RemoteNetworkSettings) UnmarshalBinary(b []byte) error {
	if err := needLen("remote network settings", b, RemoteNetworkSettingsSize); err != nil {
		return err
	}
	r.Enable = b[0] != 0
	r.IP = netip.AddrFrom4([4]byte(b[1:5]))
	r.Port = binary.BigEndian.Uint16(b[5:7])
	r.HeartTime = b[7]
	return nil
}
