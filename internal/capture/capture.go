// internal/capture/capture.go
//
// Package capture records session traffic as a stream of CBOR records and
// reads it back, e.g. to replay a reader's replies into a test transport.
package capture

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/tamzrod/uhf-replicator/internal/driver"
	"github.com/tamzrod/uhf-replicator/internal/protocol"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("capture: cbor encoder: %v", err))
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("capture: cbor decoder: %v", err))
	}
}

// Kind of record.
type Kind uint8

const (
	KindFrame Kind = iota + 1
	KindExchange
)

// Record is one captured event, keyed by small integers on the wire.
type Record struct {
	Kind     Kind          `cbor:"1,keyasint"`
	At       time.Time     `cbor:"2,keyasint"`
	Session  string        `cbor:"3,keyasint"`
	Reader   string        `cbor:"4,keyasint,omitempty"`
	Family   uint8         `cbor:"5,keyasint"`
	Dir      uint8         `cbor:"6,keyasint,omitempty"`
	Frame    []byte        `cbor:"7,keyasint,omitempty"`
	Opcode   uint16        `cbor:"8,keyasint,omitempty"`
	Duration time.Duration `cbor:"9,keyasint,omitempty"`
	Error    string        `cbor:"10,keyasint,omitempty"`
	Code     uint16        `cbor:"11,keyasint,omitempty"`
}

// ---- writing ----

// Recorder appends records to w. It implements driver.Observer and is safe
// for use by several sessions. Encoding errors are kept, not returned.
type Recorder struct {
	mu     sync.Mutex
	w      io.Writer
	enc    *cbor.Encoder
	closer io.Closer
	err    error
	n      int
}

var _ driver.Observer = (*Recorder)(nil)

func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{w: w, enc: encMode.NewEncoder(w)}
}

// Create opens path for appending and records into it.
func Create(path string) (*Recorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	r := NewRecorder(f)
	r.closer = f
	return r, nil
}

func (r *Recorder) ObserveFrame(ev driver.FrameEvent) {
	r.write(Record{
		Kind:    KindFrame,
		At:      ev.At,
		Session: ev.Session.String(),
		Reader:  ev.Reader,
		Family:  uint8(ev.Family),
		Dir:     uint8(ev.Dir),
		Frame:   ev.Data,
	})
}

func (r *Recorder) ObserveExchange(ev driver.ExchangeEvent) {
	rec := Record{
		Kind:     KindExchange,
		At:       time.Now(),
		Session:  ev.Session.String(),
		Reader:   ev.Reader,
		Family:   uint8(ev.Family),
		Opcode:   uint16(ev.Opcode),
		Duration: ev.Duration,
	}
	if ev.Err != nil {
		rec.Error = ev.Err.Error()
		rec.Code = protocol.ErrorCode(ev.Err)
	}
	r.write(rec)
}

func (r *Recorder) write(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}
	if err := r.enc.Encode(rec); err != nil {
		r.err = err
		return
	}
	r.n++
}

// Count is the number of records written.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// Err is the first write error, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Close closes the file opened by Create. Later records are dropped.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err == nil {
		r.err = errors.New("capture: recorder closed")
	}
	if r.closer == nil {
		return nil
	}
	c := r.closer
	r.closer = nil
	return c.Close()
}

// ---- reading ----

// Reader decodes records one at a time.
type Reader struct {
	dec *cbor.Decoder
}

func NewReader(rd io.Reader) *Reader {
	return &Reader{dec: decMode.NewDecoder(rd)}
}

// Next returns io.EOF after the last record.
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("capture: decode: %w", err)
	}
	return rec, nil
}

// ReadAll drains rd.
func ReadAll(rd io.Reader) ([]Record, error) {
	r := NewReader(rd)
	var out []Record
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

// ReadFile reads every record of a capture file.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	defer f.Close()
	return ReadAll(f)
}

// ReceivedFrames returns the frames a session received, in order. An empty
// session selects every session.
func ReceivedFrames(recs []Record, session string) [][]byte {
	var out [][]byte
	for _, r := range recs {
		if r.Kind != KindFrame || r.Dir != uint8(driver.Rx) {
			continue
		}
		if session != "" && r.Session != session {
			continue
		}
		out = append(out, r.Frame)
	}
	return out
}
