// internal/discovery/discovery.go
//
// Package discovery finds Family B readers on the LAN, by UDP broadcast and
// by a TCP sweep of a CIDR, using the GET-network command as the probe.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/uhf-replicator/internal/protocol"
	"github.com/tamzrod/uhf-replicator/internal/records"
	"github.com/tamzrod/uhf-replicator/internal/transport"
)

const (
	BroadcastPort      = 5000
	DefaultWait        = 1500 * time.Millisecond
	DefaultConcurrency = 64
	// ReplySize is a network reply: header, status, option, record, checksum.
	ReplySize = protocol.HeaderSizeB + 2 + records.NetworkSettingsSize + 2
)

// Result is one answer. Err is set when the datagram or reply could not be
// decoded; such results are reported, not fatal.
type Result struct {
	Source  string
	Network records.NetworkSettings
	Err     error
}

// Probe is the GET-network frame sent to the broadcast address.
func Probe() []byte {
	cmd, _ := protocol.NewCommand(protocol.FamilyB, protocol.BroadcastAddress, protocol.OpBNetwork, []byte{byte(protocol.OptionGet)})
	b, _ := protocol.Encode(cmd)
	return b
}

// DecodeReply decodes a network reply frame.
func DecodeReply(b []byte) (records.NetworkSettings, error) {
	resp, err := protocol.DecodeB(b)
	if err != nil {
		return records.NetworkSettings{}, err
	}
	if resp.Opcode() != protocol.OpBNetwork {
		return records.NetworkSettings{}, &protocol.FrameError{
			Kind: protocol.UnknownOpcode, Family: protocol.FamilyB,
			Detail: "not a network reply: " + protocol.FamilyB.OpcodeName(resp.Opcode()),
		}
	}
	return records.As[records.NetworkSettings](resp)
}

// ------------------------------------------------------------
// broadcast
// ------------------------------------------------------------

type BroadcastConfig struct {
	// Listen is the local UDP address; default 0.0.0.0:5000.
	Listen string
	// Target defaults to 255.255.255.255:5000.
	Target string
	// Wait is the idle time after the last datagram before returning.
	Wait time.Duration
}

func (c *BroadcastConfig) normalize() {
	if c.Listen == "" {
		c.Listen = net.JoinHostPort("0.0.0.0", strconv.Itoa(BroadcastPort))
	}
	if c.Target == "" {
		c.Target = net.JoinHostPort("255.255.255.255", strconv.Itoa(BroadcastPort))
	}
	if c.Wait <= 0 {
		c.Wait = DefaultWait
	}
}

// Broadcast sends one probe and reports every datagram received until the
// line stays quiet for cfg.Wait or ctx is done.
func Broadcast(ctx context.Context, cfg BroadcastConfig, fn func(Result)) error {
	cfg.normalize()
	target, err := net.ResolveUDPAddr("udp4", cfg.Target)
	if err != nil {
		return fmt.Errorf("discovery: target: %w", err)
	}
	var lc net.ListenConfig
	pc, err := lc.ListenPacket(ctx, "udp4", cfg.Listen)
	if err != nil {
		return fmt.Errorf("discovery: listen: %w", err)
	}
	defer pc.Close()

	stop := context.AfterFunc(ctx, func() { pc.SetDeadline(time.Now()) })
	defer stop()

	if _, err := pc.WriteTo(Probe(), target); err != nil {
		return fmt.Errorf("discovery: send: %w", err)
	}

	buf := make([]byte, 512)
	for {
		if err := pc.SetReadDeadline(time.Now().Add(cfg.Wait)); err != nil {
			return fmt.Errorf("discovery: %w", err)
		}
		n, from, err := pc.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				return nil
			}
			return fmt.Errorf("discovery: receive: %w", err)
		}
		ns, err := DecodeReply(buf[:n])
		fn(Result{Source: from.String(), Network: ns, Err: err})
	}
}

// ------------------------------------------------------------
// sweep
// ------------------------------------------------------------

type SweepConfig struct {
	CIDR        string
	Port        uint16
	Timeout     time.Duration
	Concurrency int
}

// Sweep probes every host of cfg.CIDR over TCP with bounded concurrency.
// Hosts that refuse or time out are skipped silently; hosts that answer
// are reported. progress, when set, is called after each host. Callbacks
// are serialized.
func Sweep(ctx context.Context, cfg SweepConfig, fn func(Result), progress func(done, total int)) error {
	hosts, err := Hosts(cfg.CIDR)
	if err != nil {
		return err
	}
	if cfg.Port == 0 {
		return errors.New("discovery: sweep port required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultWait
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}

	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for _, h := range hosts {
		if gctx.Err() != nil {
			break
		}
		addr := netip.AddrPortFrom(h, cfg.Port).String()
		g.Go(func() error {
			res, ok := probeTCP(addr, cfg.Timeout)
			mu.Lock()
			defer mu.Unlock()
			done++
			if ok {
				fn(res)
			}
			if progress != nil {
				progress(done, len(hosts))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// probeTCP reports false when nothing answered.
func probeTCP(addr string, timeout time.Duration) (Result, bool) {
	t, err := transport.DialTCP(transport.TCPConfig{Endpoint: addr, Timeout: timeout})
	if err != nil {
		return Result{}, false
	}
	defer t.Close()
	if err := t.Write(Probe()); err != nil {
		return Result{}, false
	}
	raw, err := transport.ReadFrameB(t)
	if err != nil {
		return Result{Source: addr, Err: err}, true
	}
	if raw == nil {
		return Result{}, false
	}
	ns, err := DecodeReply(raw)
	return Result{Source: addr, Network: ns, Err: err}, true
}

// Hosts lists the usable host addresses of an IPv4 prefix: network and
// broadcast addresses are excluded below /31.
func Hosts(cidr string) ([]netip.Addr, error) {
	p, err := netip.ParsePrefix(cidr)
	if err != nil {
		return nil, fmt.Errorf("discovery: %w", err)
	}
	if !p.Addr().Is4() {
		return nil, fmt.Errorf("discovery: %s is not IPv4", cidr)
	}
	if p.Bits() < 16 {
		return nil, fmt.Errorf("discovery: %s is too large to sweep", cidr)
	}
	p = p.Masked()

	var out []netip.Addr
	for a := p.Addr(); p.Contains(a); a = a.Next() {
		out = append(out, a)
	}
	if p.Bits() < 31 && len(out) >= 2 {
		out = out[1 : len(out)-1]
	}
	return out, nil
}
