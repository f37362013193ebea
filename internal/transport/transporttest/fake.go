// internal/transport/transporttest/fake.go
//
// Package transporttest provides a scripted in-memory transport.
package transporttest

import (
	"errors"
	"sync"

	"github.com/tamzrod/uhf-replicator/internal/protocol"
	"github.com/tamzrod/uhf-replicator/internal/transport"
)

// ErrTimeout is the cause of reads on a drained fake.
var ErrTimeout = errors.New("transporttest: timeout")

// Fake replays queued bytes. Reads past the queue time out, as an idle
// reader would. Writes are recorded; Reply, when set, may answer them.
type Fake struct {
	mu         sync.Mutex
	rx         []byte
	writes     [][]byte
	reconnects []transport.Params
	closed     bool

	// Reply is called for each write; returned frames are queued for reading.
	Reply func(frame []byte) [][]byte
	// ReadErr, when set, replaces the idle timeout once the queue is drained.
	ReadErr error
}

func New(frames ...[]byte) *Fake {
	f := &Fake{}
	f.Queue(frames...)
	return f
}

// Queue appends frames to the read side.
func (f *Fake) Queue(frames ...[]byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fr := range frames {
		f.rx = append(f.rx, fr...)
	}
}

func (f *Fake) ReadExact(n int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, &protocol.TransportError{Op: "read", Err: transport.ErrClosed}
	}
	if len(f.rx) == 0 && n > 0 {
		if f.ReadErr != nil {
			return nil, &protocol.TransportError{Op: "read", Err: f.ReadErr}
		}
		return nil, &protocol.TransportError{Op: "read", TimedOut: true, Err: ErrTimeout}
	}
	if len(f.rx) < n {
		got := len(f.rx)
		f.rx = nil
		return nil, &protocol.TransportError{Op: "read", N: got, TimedOut: true, Err: ErrTimeout}
	}
	out := append([]byte(nil), f.rx[:n]...)
	f.rx = f.rx[n:]
	return out, nil
}

func (f *Fake) Write(p []byte) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return &protocol.TransportError{Op: "write", Err: transport.ErrClosed}
	}
	f.writes = append(f.writes, append([]byte(nil), p...))
	reply := f.Reply
	f.mu.Unlock()

	if reply != nil {
		f.Queue(reply(p)...)
	}
	return nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *Fake) Reconnect(p transport.Params) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = false
	f.rx = nil
	f.reconnects = append(f.reconnects, p)
	return nil
}

func (f *Fake) String() string { return "fake://" }

// Writes returns a copy of every frame written so far.
func (f *Fake) Writes() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.writes...)
}

func (f *Fake) Reconnects() []transport.Params {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]transport.Params(nil), f.reconnects...)
}

func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Pending is the number of queued bytes not yet read.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rx)
}

var _ transport.Transport = (*Fake)(nil)
