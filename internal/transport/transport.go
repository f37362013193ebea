// internal/transport/transport.go
package transport

import (
	"errors"
	"io"
	"net"
	"os"
	"time"

	"github.com/goburrow/serial"

	"github.com/tamzrod/uhf-replicator/internal/protocol"
)

// ErrClosed is returned by operations on a closed transport.
var ErrClosed = errors.New("transport: closed")

// Transport is a blocking byte stream to one reader. It is not safe for
// concurrent reads; the driver serialises access.
type Transport interface {
	// ReadExact blocks until n bytes arrived or the read timed out.
	// Failures are *protocol.TransportError with N set to the bytes delivered.
	ReadExact(n int) ([]byte, error)
	Write(p []byte) error
	Close() error
	// Reconnect closes and reopens the stream. Zero fields keep their value.
	Reconnect(p Params) error
	String() string
}

// Params are the reopen parameters shared by both transports.
type Params struct {
	Endpoint string // host:port or serial device
	BaudRate int    // serial only
	Timeout  time.Duration
}

// DefaultTimeout bounds each read when the config leaves it zero.
const DefaultTimeout = time.Second

// readFull reads exactly n bytes from r and classifies failures.
func readFull(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	got, err := io.ReadFull(r, buf)
	if err != nil {
		return nil, classify("read", got, err)
	}
	return buf, nil
}

func writeAll(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return classify("write", n, err)
		}
		p = p[n:]
	}
	return nil
}

func classify(op string, n int, err error) error {
	if errors.Is(err, net.ErrClosed) || errors.Is(err, os.ErrClosed) {
		err = ErrClosed
	}
	return &protocol.TransportError{Op: op, N: n, TimedOut: isTimeout(err), Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, serial.ErrTimeout) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
