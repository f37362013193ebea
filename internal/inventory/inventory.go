// internal/inventory/inventory.go
package inventory

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/uhf-replicator/internal/protocol"
	"github.com/tamzrod/uhf-replicator/internal/transport"
)

// ErrNoReply is the cause of a timeout while a direct reply was due.
var ErrNoReply = errors.New("inventory: no reply from reader")

// State of a stream.
type State uint8

const (
	Idle State = iota
	Streaming
	Stopped
	Errored
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Streaming:
		return "streaming"
	case Stopped:
		return "stopped"
	case Errored:
		return "errored"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Tag is one observation. Count is owned by the caller (see Seen).
type Tag struct {
	RSSI    int16
	Antenna uint8
	Channel uint8
	Data    []byte
	Count   int
}

// EPC is the upper-case hex form of Data.
func (t Tag) EPC() string { return strings.ToUpper(hex.EncodeToString(t.Data)) }

// Stream is a pull-based tag sequence, used like bufio.Scanner:
//
//	for s.Next(ctx) {
//		use(s.Tag())
//	}
//	if err := s.Err(); err != nil { ... }
//
// Each Next performs at most the I/O needed for one item. A cancelled ctx
// ends the stream in Stopped with Err returning ctx.Err().
type Stream interface {
	Next(ctx context.Context) bool
	Tag() Tag
	Err() error
	State() State
}

// Link is the half-duplex frame exchange a stream drives.
type Link interface {
	Send(cmd protocol.Command) error
	// Receive returns one raw frame, or nil, nil when the line was idle.
	Receive() ([]byte, error)
}

// NewLink binds a transport to a family's framing.
func NewLink(t transport.Transport, f protocol.Family) Link {
	return frameLink{t: t, f: f}
}

type frameLink struct {
	t transport.Transport
	f protocol.Family
}

func (l frameLink) Send(cmd protocol.Command) error {
	b, err := protocol.Encode(cmd)
	if err != nil {
		return err
	}
	return l.t.Write(b)
}

func (l frameLink) Receive() ([]byte, error) { return transport.ReadFrame(l.t, l.f) }

// noReply is the error for a missing direct reply.
func noReply() error {
	return &protocol.TransportError{Op: "read", TimedOut: true, Err: ErrNoReply}
}

// cursor holds the shared terminal-state bookkeeping of the streams.
type cursor struct {
	state State
	tag   Tag
	err   error
}

func (c *cursor) Tag() Tag     { return c.tag }
func (c *cursor) Err() error   { return c.err }
func (c *cursor) State() State { return c.state }

func (c *cursor) done() bool { return c.state == Stopped || c.state == Errored }

func (c *cursor) stop(err error) bool {
	c.state, c.err, c.tag = Stopped, err, Tag{}
	return false
}

func (c *cursor) fail(err error) bool {
	c.state, c.err, c.tag = Errored, err, Tag{}
	return false
}

// cancelled stops the stream when ctx is done.
func (c *cursor) cancelled(ctx context.Context) bool {
	if err := ctx.Err(); err != nil {
		c.stop(err)
		return true
	}
	return false
}

// decodeTagB reads [rssi 2][antenna][channel][len][data...].
func decodeTagB(p []byte) (Tag, error) {
	if len(p) < 5 {
		return Tag{}, &protocol.FrameError{Kind: protocol.ShortRead, Family: protocol.FamilyB,
			Detail: fmt.Sprintf("tag record needs 5 bytes, have %d", len(p))}
	}
	if n := int(p[4]); n > len(p)-5 {
		return Tag{}, &protocol.FrameError{Kind: protocol.ShortRead, Family: protocol.FamilyB,
			Detail: fmt.Sprintf("tag length %d exceeds %d data bytes", n, len(p)-5)}
	}
	return Tag{
		RSSI:    int16(binary.BigEndian.Uint16(p[0:2])),
		Antenna: p[2],
		Channel: p[3],
		Data:    append([]byte(nil), p[5:]...),
		Count:   1,
	}, nil
}
