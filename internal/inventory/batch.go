// internal/inventory/batch.go
package inventory

import (
	"context"
	"fmt"

	"github.com/tamzrod/uhf-replicator/internal/protocol"
)

// Batch is the Family A answer-mode inventory: one request, one reply of
// [count]([len][tag])*. The reply is walked lazily. Restart re-arms it.
type Batch struct {
	cursor
	link      Link
	cmd       protocol.Command
	payload   []byte
	pos       int
	remaining int
}

func NewBatch(link Link, address uint8) *Batch {
	cmd, _ := protocol.NewCommand(protocol.FamilyA, address, protocol.OpAInventory, nil)
	return &Batch{link: link, cmd: cmd}
}

func (b *Batch) Next(ctx context.Context) bool {
	if b.done() || b.cancelled(ctx) {
		return false
	}
	if b.state == Idle && !b.request() {
		return false
	}
	if b.remaining == 0 {
		return b.stop(nil)
	}
	if b.pos >= len(b.payload) {
		return b.fail(b.short("record %d missing", b.remaining))
	}
	n := int(b.payload[b.pos])
	start, end := b.pos+1, b.pos+1+n
	if end > len(b.payload) {
		return b.fail(b.short("record length %d exceeds reply", n))
	}
	b.tag = Tag{Data: append([]byte(nil), b.payload[start:end]...), Count: 1}
	b.pos = end
	b.remaining--
	return true
}

// Restart returns a finished batch to Idle so the next Next sends a new request.
func (b *Batch) Restart() {
	if b.done() {
		b.cursor = cursor{}
		b.payload, b.pos, b.remaining = nil, 0, 0
	}
}

// Stop abandons the rest of the batch. No I/O is needed.
func (b *Batch) Stop() {
	if !b.done() {
		b.stop(nil)
	}
}

func (b *Batch) request() bool {
	if err := b.link.Send(b.cmd); err != nil {
		return b.fail(err)
	}
	raw, err := b.link.Receive()
	if err != nil {
		return b.fail(err)
	}
	if raw == nil {
		return b.fail(noReply())
	}
	resp, err := protocol.DecodeA(raw)
	if err != nil {
		return b.fail(err)
	}
	if resp.Opcode() != protocol.OpAInventory {
		return b.fail(&protocol.FrameError{Kind: protocol.UnknownOpcode, Family: protocol.FamilyA,
			Detail: fmt.Sprintf("reply opcode 0x%02X to inventory", uint16(resp.Opcode()))})
	}

	b.state = Streaming
	switch st := protocol.StatusA(resp.Status()); {
	case st == protocol.StatusANoTagOperable:
		b.remaining = 0
	case st.OK():
		b.payload = resp.Payload()
		if len(b.payload) > 0 {
			b.remaining = int(b.payload[0])
			b.pos = 1
		}
	default:
		return b.fail(resp.Err())
	}
	return true
}

func (b *Batch) short(format string, args ...any) error {
	return &protocol.FrameError{Kind: protocol.ShortRead, Family: protocol.FamilyA, Detail: fmt.Sprintf(format, args...)}
}
