// internal/transport/tcp.go
package transport

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// TCPConfig is the network transport config.
type TCPConfig struct {
	Endpoint string
	Timeout  time.Duration
}

// TCP is a reader reached over a TCP socket.
type TCP struct {
	mu   sync.Mutex
	cfg  TCPConfig
	conn net.Conn
}

// DialTCP connects to the reader.
func DialTCP(cfg TCPConfig) (*TCP, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("transport: tcp endpoint required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	t := &TCP{cfg: cfg}
	if err := t.dial(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *TCP) dial() error {
	conn, err := net.DialTimeout("tcp", t.cfg.Endpoint, t.cfg.Timeout)
	if err != nil {
		return classify("dial", 0, err)
	}
	t.conn = conn
	return nil
}

func (t *TCP) current() (net.Conn, time.Duration, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil, 0, ErrClosed
	}
	return t.conn, t.cfg.Timeout, nil
}

func (t *TCP) ReadExact(n int) ([]byte, error) {
	conn, timeout, err := t.current()
	if err != nil {
		return nil, classify("read", 0, err)
	}
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, classify("read", 0, err)
	}
	return readFull(conn, n)
}

func (t *TCP) Write(p []byte) error {
	conn, timeout, err := t.current()
	if err != nil {
		return classify("write", 0, err)
	}
	if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return classify("write", 0, err)
	}
	return writeAll(conn, p)
}

// Close is safe on a nil or closed transport.
func (t *TCP) Close() error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

func (t *TCP) Reconnect(p Params) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		_ = t.conn.Close()
		t.conn = nil
	}
	if p.Endpoint != "" {
		t.cfg.Endpoint = p.Endpoint
	}
	if p.Timeout > 0 {
		t.cfg.Timeout = p.Timeout
	}
	return t.dial()
}

func (t *TCP) String() string { return fmt.Sprintf("tcp://%s", t.cfg.Endpoint) }
