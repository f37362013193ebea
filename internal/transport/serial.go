// internal/transport/serial.go
package transport

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/goburrow/serial"

	"github.com/tamzrod/uhf-replicator/internal/protocol"
	"github.com/tamzrod/uhf-replicator/internal/records"
)

// SerialConfig is the RS232/RS485/USB-CDC transport config (8N1).
type SerialConfig struct {
	Device   string
	BaudRate int
	Timeout  time.Duration
}

// DefaultBaudRate is the factory line speed of both families.
const DefaultBaudRate = 57600

// openPort is replaced in tests.
var openPort = func(c *serial.Config) (io.ReadWriteCloser, error) {
	return serial.Open(c)
}

// Serial is a reader on a serial line.
type Serial struct {
	mu   sync.Mutex
	cfg  SerialConfig
	port io.ReadWriteCloser
}

func (c SerialConfig) validate() error {
	if c.Device == "" {
		return errors.New("transport: serial device required")
	}
	if _, ok := records.BaudRateFromBPS(c.BaudRate); !ok {
		return protocol.Invalid("baud_rate", c.BaudRate, "unsupported line speed")
	}
	return nil
}

// OpenSerial opens the port.
func OpenSerial(cfg SerialConfig) (*Serial, error) {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	s := &Serial{cfg: cfg}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Serial) open() error {
	port, err := openPort(&serial.Config{
		Address:  s.cfg.Device,
		BaudRate: s.cfg.BaudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  s.cfg.Timeout,
	})
	if err != nil {
		return classify("open", 0, err)
	}
	s.port = port
	return nil
}

func (s *Serial) current() (io.ReadWriteCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil, ErrClosed
	}
	return s.port, nil
}

func (s *Serial) ReadExact(n int) ([]byte, error) {
	port, err := s.current()
	if err != nil {
		return nil, classify("read", 0, err)
	}
	return readFull(port, n)
}

func (s *Serial) Write(p []byte) error {
	port, err := s.current()
	if err != nil {
		return classify("write", 0, err)
	}
	return writeAll(port, p)
}

func (s *Serial) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

func (s *Serial) Reconnect(p Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port != nil {
		_ = s.port.Close()
		s.port = nil
	}
	next := s.cfg
	if p.Endpoint != "" {
		next.Device = p.Endpoint
	}
	if p.BaudRate != 0 {
		next.BaudRate = p.BaudRate
	}
	if p.Timeout > 0 {
		next.Timeout = p.Timeout
	}
	if err := next.validate(); err != nil {
		return err
	}
	s.cfg = next
	return s.open()
}

func (s *Serial) String() string {
	return fmt.Sprintf("serial://%s@%d", s.cfg.Device, s.cfg.BaudRate)
}
