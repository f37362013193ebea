// internal/inventory/active.go
package inventory

import (
	"context"
	"errors"

	"github.com/tamzrod/uhf-replicator/internal/protocol"
)

// Active reads unsolicited frames from a reader in active/trigger mode.
// Idle timeouts are retried; every frame read is decoded into a Response.
// It cannot be restarted; Stop ends it locally.
type Active struct {
	cursor
	link   Link
	family protocol.Family
	resp   protocol.Response
	idle   int
}

func NewActive(link Link, f protocol.Family) *Active {
	return &Active{link: link, family: f}
}

func (a *Active) Next(ctx context.Context) bool {
	if a.done() {
		return false
	}
	a.state = Streaming
	for {
		if a.cancelled(ctx) {
			return false
		}
		raw, err := a.link.Receive()
		if err != nil {
			if idleTimeout(err) {
				a.idle++
				continue
			}
			return a.fail(err)
		}
		if raw == nil {
			a.idle++
			continue
		}
		resp, err := protocol.Decode(a.family, raw)
		if err != nil {
			return a.fail(err)
		}
		a.resp = resp
		return true
	}
}

// Response is the frame read by the last successful Next.
func (a *Active) Response() protocol.Response { return a.resp }

// IdleReads counts the timeouts skipped so far.
func (a *Active) IdleReads() int { return a.idle }

// Stop ends the stream without I/O.
func (a *Active) Stop() {
	if !a.done() {
		a.stop(nil)
	}
}

func idleTimeout(err error) bool {
	var te *protocol.TransportError
	return errors.As(err, &te) && te.TimedOut && te.N == 0
}

// ActiveTags adapts an Active stream to tags. A frame with a non-success
// status ends the stream with its StatusError.
type ActiveTags struct {
	*Active
}

func NewActiveTags(link Link, f protocol.Family) *ActiveTags {
	return &ActiveTags{Active: NewActive(link, f)}
}

func (t *ActiveTags) Next(ctx context.Context) bool {
	if !t.Active.Next(ctx) {
		return false
	}
	resp := t.resp
	if err := resp.Err(); err != nil {
		return t.fail(err)
	}
	if t.family == protocol.FamilyA {
		t.tag = Tag{Data: append([]byte(nil), resp.Payload()...), Count: 1}
		return true
	}
	tag, err := decodeTagB(resp.Payload())
	if err != nil {
		return t.fail(err)
	}
	t.tag = tag
	return true
}
