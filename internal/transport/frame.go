// internal/transport/frame.go
package transport

import (
	"errors"

	"github.com/tamzrod/uhf-replicator/internal/protocol"
)

// ReadFrame reads one complete frame of the given family.
//
// It returns nil, nil when the read timed out before any byte arrived (the
// line is idle). A timeout inside a frame is a ShortRead FrameError; every
// other failure is returned as the transport reported it.
func ReadFrame(t Transport, f protocol.Family) ([]byte, error) {
	switch f {
	case protocol.FamilyA:
		return ReadFrameA(t)
	case protocol.FamilyB:
		return ReadFrameB(t)
	}
	return nil, protocol.Invalid("family", f, "unknown family")
}

// ReadFrameA reads [len] then len more bytes.
func ReadFrameA(t Transport) ([]byte, error) {
	head, err := t.ReadExact(1)
	if err != nil {
		if idle(err) {
			return nil, nil
		}
		return nil, err
	}
	n := int(head[0])
	rest, err := t.ReadExact(n)
	if err != nil {
		return nil, partial(protocol.FamilyA, err)
	}
	return append(head, rest...), nil
}

// ReadFrameB reads the 5-byte header then len+2 more bytes.
func ReadFrameB(t Transport) ([]byte, error) {
	head, err := t.ReadExact(protocol.HeaderSizeB)
	if err != nil {
		if idle(err) {
			return nil, nil
		}
		return nil, partial(protocol.FamilyB, err)
	}
	if head[0] != protocol.HeaderB {
		return nil, &protocol.FrameError{Kind: protocol.UnexpectedHeader, Family: protocol.FamilyB}
	}
	rest, err := t.ReadExact(int(head[4]) + 2)
	if err != nil {
		return nil, partial(protocol.FamilyB, err)
	}
	return append(head, rest...), nil
}

// idle is a timeout with nothing delivered.
func idle(err error) bool {
	var te *protocol.TransportError
	return errors.As(err, &te) && te.TimedOut && te.N == 0
}

func partial(f protocol.Family, err error) error {
	var te *protocol.TransportError
	if errors.As(err, &te) && te.TimedOut {
		return &protocol.FrameError{Kind: protocol.ShortRead, Family: f, Detail: err.Error()}
	}
	return err
}
