// internal/driver/driver.go
//
// Package driver is the reader session: it opens nothing by itself, but
// takes a connected transport, negotiates the capability descriptor once
// and exposes typed operations over it.
package driver

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tamzrod/uhf-replicator/internal/capability"
	"github.com/tamzrod/uhf-replicator/internal/inventory"
	"github.com/tamzrod/uhf-replicator/internal/protocol"
	"github.com/tamzrod/uhf-replicator/internal/records"
	"github.com/tamzrod/uhf-replicator/internal/transport"
)

var (
	// ErrBusy is returned by direct commands while an inventory stream is running.
	ErrBusy = errors.New("driver: inventory stream in progress")
	// ErrNoReply is the cause of a timeout while a direct reply was due.
	ErrNoReply = inventory.ErrNoReply
)

// Options configures Connect.
type Options struct {
	Family protocol.Family
	// Address of the reader. Zero selects the broadcast address on Family B.
	Address uint8
	// Name labels logs, observer events and metrics.
	Name     string
	Logger   *zerolog.Logger
	Observer Observer
	// SkipInit connects without the init/identify handshake; the session
	// then has no capability and every gated operation fails.
	SkipInit bool
}

// ConnectError reports which handshake stage failed.
type ConnectError struct {
	Stage string
	Err   error
}

func (e *ConnectError) Error() string { return fmt.Sprintf("driver: connect: %s: %v", e.Stage, e.Err) }
func (e *ConnectError) Unwrap() error { return e.Err }

// Session is one connected reader. It is meant for a single caller; the
// mutex only guards the command/stream slot.
type Session struct {
	id   uuid.UUID
	opts Options
	t    transport.Transport
	log  zerolog.Logger

	mu       sync.Mutex
	stream   inventory.Stream
	cap      *capability.Capability
	firmware string
	settings *records.ReaderSettings
}

// Connect runs the handshake on t and returns the session.
//
// Family B: module init, then device info. Family A: reader info, from which
// the firmware identification is synthesised. The firmware string selects the
// capability; an unknown firmware leaves it nil.
func Connect(t transport.Transport, opts Options) (*Session, error) {
	switch opts.Family {
	case protocol.FamilyA:
	case protocol.FamilyB:
		if opts.Address == 0 {
			opts.Address = protocol.BroadcastAddress
		}
	default:
		return nil, &ConnectError{Stage: "options", Err: protocol.Invalid("family", opts.Family, "unknown family")}
	}
	if opts.Name == "" {
		opts.Name = t.String()
	}

	s := &Session{id: uuid.New(), opts: opts, t: t}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	s.log = log.With().
		Str("reader", opts.Name).
		Str("session", s.id.String()).
		Stringer("family", opts.Family).
		Logger()

	if opts.SkipInit {
		s.log.Info().Msg("connected without handshake")
		return s, nil
	}

	if opts.Family == protocol.FamilyB {
		if err := s.Init(); err != nil {
			return nil, &ConnectError{Stage: "init", Err: err}
		}
		info, err := s.DeviceInfo()
		if err != nil {
			return nil, &ConnectError{Stage: "device info", Err: err}
		}
		s.firmware = info.Firmware
	} else {
		info, err := s.ReaderInfo()
		if err != nil {
			return nil, &ConnectError{Stage: "reader info", Err: err}
		}
		s.firmware = info.Firmware()
	}

	s.cap = capability.Lookup(s.firmware)
	ev := s.log.Info().Str("firmware", s.firmware)
	if s.cap != nil {
		ev = ev.Str("series", s.cap.Series).Uint8("max_power", s.cap.PowerLimit())
	}
	ev.Msg("connected")
	return s, nil
}

func (s *Session) ID() uuid.UUID                  { return s.id }
func (s *Session) Name() string                   { return s.opts.Name }
func (s *Session) Family() protocol.Family        { return s.opts.Family }
func (s *Session) Address() uint8                 { return s.opts.Address }
func (s *Session) Firmware() string               { return s.firmware }
func (s *Session) Logger() *zerolog.Logger        { return &s.log }
func (s *Session) Transport() transport.Transport { return s.t }

// Capability is nil when the firmware matched no known series.
func (s *Session) Capability() *capability.Capability { return s.cap }

// SetAddress retargets later commands, e.g. after the reader address was changed.
func (s *Session) SetAddress(a uint8) {
	s.mu.Lock()
	s.opts.Address = a
	s.mu.Unlock()
}

// Reconnect reopens the transport with p. Capability and the settings cache
// are kept; a running stream is abandoned.
func (s *Session) Reconnect(p transport.Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stream = nil
	if err := s.t.Reconnect(p); err != nil {
		s.log.Warn().Err(err).Msg("reconnect failed")
		return fmt.Errorf("driver: reconnect: %w", err)
	}
	s.log.Info().Str("endpoint", s.t.String()).Msg("reconnected")
	return nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stream = nil
	return s.t.Close()
}

// ---- exchange ----

func (s *Session) link() inventory.Link { return sessionLink{s: s} }

// busy reports whether the stream slot is taken. A cancelled answer stream
// keeps it until StopInventory, since the reader is still sending tags.
func (s *Session) busy() bool {
	if a, ok := s.stream.(*inventory.Answer); ok && a.Live() {
		return true
	}
	return s.stream != nil && s.stream.State() == inventory.Streaming
}

func (s *Session) command(op protocol.Opcode, payload []byte) (protocol.Command, error) {
	return protocol.NewCommand(s.opts.Family, s.opts.Address, op, payload)
}

// exchange writes one command and reads exactly one reply. The reply status
// is not interpreted.
func (s *Session) exchange(op protocol.Opcode, payload []byte) (resp protocol.Response, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy() {
		return protocol.Response{}, ErrBusy
	}
	cmd, err := s.command(op, payload)
	if err != nil {
		return protocol.Response{}, err
	}

	start := time.Now()
	defer func() { s.exchanged(op, time.Since(start), err) }()

	l := s.link()
	if err := l.Send(cmd); err != nil {
		return protocol.Response{}, err
	}
	return s.reply(l, op)
}

// reply reads the next frame and checks it answers op.
func (s *Session) reply(l inventory.Link, op protocol.Opcode) (protocol.Response, error) {
	raw, err := l.Receive()
	if err != nil {
		return protocol.Response{}, err
	}
	if raw == nil {
		return protocol.Response{}, &protocol.TransportError{Op: "read", TimedOut: true, Err: ErrNoReply}
	}
	resp, err := protocol.Decode(s.opts.Family, raw)
	if err != nil {
		return protocol.Response{}, err
	}
	if resp.Opcode() != op {
		return protocol.Response{}, &protocol.FrameError{
			Kind:   protocol.UnknownOpcode,
			Family: s.opts.Family,
			Detail: fmt.Sprintf("reply %s to %s", s.opts.Family.OpcodeName(resp.Opcode()), s.opts.Family.OpcodeName(op)),
		}
	}
	return resp, nil
}

// do is exchange plus the status check.
func (s *Session) do(op protocol.Opcode, payload []byte) (protocol.Response, error) {
	resp, err := s.exchange(op, payload)
	if err != nil {
		return resp, fmt.Errorf("driver: %s: %w", s.opts.Family.OpcodeName(op), err)
	}
	if err := resp.Err(); err != nil {
		return resp, fmt.Errorf("driver: %s: %w", s.opts.Family.OpcodeName(op), err)
	}
	return resp, nil
}

func (s *Session) frame(dir Direction, b []byte) {
	s.log.Debug().Stringer("dir", dir).Hex("frame", b).Msg("frame")
	if s.opts.Observer != nil {
		s.opts.Observer.ObserveFrame(FrameEvent{
			Session: s.id,
			Reader:  s.opts.Name,
			Family:  s.opts.Family,
			Dir:     dir,
			At:      time.Now(),
			Data:    append([]byte(nil), b...),
		})
	}
}

func (s *Session) exchanged(op protocol.Opcode, d time.Duration, err error) {
	if err != nil {
		s.log.Debug().Err(err).Str("op", s.opts.Family.OpcodeName(op)).Msg("exchange failed")
	}
	if s.opts.Observer != nil {
		s.opts.Observer.ObserveExchange(ExchangeEvent{
			Session:  s.id,
			Reader:   s.opts.Name,
			Family:   s.opts.Family,
			Opcode:   op,
			Duration: d,
			Err:      err,
		})
	}
}

// ---- gates ----

func (s *Session) require(f capability.Feature) error {
	if err := s.cap.Require(f); err != nil {
		return fmt.Errorf("driver: %w", err)
	}
	return nil
}

// requireFamily fails with a CapabilityError when op is not part of the
// session's dialect.
func (s *Session) requireFamily(f protocol.Family, feature string) error {
	if s.opts.Family == f {
		return nil
	}
	series := ""
	if s.cap != nil {
		series = s.cap.Series
	}
	return fmt.Errorf("driver: %w", &protocol.CapabilityError{Feature: feature + " (" + f.String() + " only)", Series: series})
}
