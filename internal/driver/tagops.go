// internal/driver/tagops.go
package driver

import (
	"fmt"
	"time"

	"github.com/tamzrod/uhf-replicator/internal/capability"
	"github.com/tamzrod/uhf-replicator/internal/protocol"
	"github.com/tamzrod/uhf-replicator/internal/records"
)

// TagResult is the outcome for one tag of a memory operation. Err is the
// per-tag failure, if any; the batch itself still succeeded.
type TagResult struct {
	Response protocol.Response
	Tag      records.TagOperation
	Err      error
}

// payloads renders a request for either family.
type payloads interface {
	PayloadA() ([]byte, error)
	PayloadB() ([]byte, error)
}

type tagOp struct {
	name string
	a, b protocol.Opcode
}

var (
	opRead  = tagOp{"read", protocol.OpAReadData, protocol.OpBReadTag}
	opWrite = tagOp{"write", protocol.OpAWriteData, protocol.OpBWriteTag}
	opLock  = tagOp{"lock", protocol.OpALock, protocol.OpBLockTag}
	opKill  = tagOp{"kill", protocol.OpAKillTag, protocol.OpBKillTag}
)

// ReadMemory reads tag memory. Family A addresses the single tag named by
// req.EPC; Family B returns one result per tag that answered.
func (s *Session) ReadMemory(req records.ReadRequest) ([]TagResult, error) {
	return s.tagOperation(opRead, req, req.EPC)
}

func (s *Session) WriteMemory(req records.WriteRequest) ([]TagResult, error) {
	return s.tagOperation(opWrite, req, req.EPC)
}

func (s *Session) LockMemory(req records.LockRequest) ([]TagResult, error) {
	return s.tagOperation(opLock, req, req.EPC)
}

func (s *Session) KillTag(req records.KillRequest) ([]TagResult, error) {
	return s.tagOperation(opKill, req, req.EPC)
}

func (s *Session) tagOperation(op tagOp, req payloads, epc []byte) ([]TagResult, error) {
	if err := s.require(capability.ReadWrite); err != nil {
		return nil, err
	}
	if s.opts.Family == protocol.FamilyA {
		p, err := req.PayloadA()
		if err != nil {
			return nil, err
		}
		return s.tagOperationA(op, p, epc)
	}
	p, err := req.PayloadB()
	if err != nil {
		return nil, err
	}
	return s.tagBatchB(op, p)
}

// tagOperationA is a plain command: a failing tag is the reply status.
func (s *Session) tagOperationA(op tagOp, payload, epc []byte) ([]TagResult, error) {
	resp, err := s.do(op.a, payload)
	if err != nil {
		return nil, err
	}
	res := records.TagOperation{TagStatus: protocol.TagNoError, EPC: append([]byte(nil), epc...)}
	if op.a == protocol.OpAReadData {
		data, err := records.As[records.WordData](resp)
		if err != nil {
			return nil, fmt.Errorf("driver: %w", err)
		}
		res.Data = data
	}
	return []TagResult{{Response: resp, Tag: res}}, nil
}

// tagBatchB sends one command and collects one reply per tag until the
// reader reports NoCountLabel. Results read before a failure are returned
// with the error.
func (s *Session) tagBatchB(op tagOp, payload []byte) (out []TagResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy() {
		return nil, ErrBusy
	}
	cmd, err := s.command(op.b, payload)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() { s.exchanged(op.b, time.Since(start), err) }()

	wrap := func(err error) error { return fmt.Errorf("driver: %s: %w", op.name, err) }
	l := s.link()
	if err := l.Send(cmd); err != nil {
		return nil, wrap(err)
	}
	for {
		resp, err := s.reply(l, op.b)
		if err != nil {
			return out, wrap(err)
		}
		switch st := protocol.StatusB(resp.Status()); {
		case st == protocol.StatusBNoCountLabel:
			s.log.Debug().Str("op", op.name).Int("tags", len(out)).Msg("tag operation done")
			return out, nil
		case !st.OK():
			return out, wrap(resp.Err())
		}
		t, err := records.As[records.TagOperation](resp)
		if err != nil {
			return out, wrap(err)
		}
		out = append(out, TagResult{Response: resp, Tag: t, Err: t.Err(op.name)})
	}
}
