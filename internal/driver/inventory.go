// internal/driver/inventory.go
package driver

import (
	"context"
	"fmt"
	"strings"

	"github.com/tamzrod/uhf-replicator/internal/capability"
	"github.com/tamzrod/uhf-replicator/internal/inventory"
	"github.com/tamzrod/uhf-replicator/internal/protocol"
)

// Mode selects the inventory protocol.
type Mode uint8

const (
	ModeBatch  Mode = iota + 1 // Family A answer mode
	ModeAnswer                 // Family B continuous stream
	ModeActive                 // unsolicited frames, either family
)

func (m Mode) String() string {
	switch m {
	case ModeBatch:
		return "batch"
	case ModeAnswer:
		return "answer"
	case ModeActive:
		return "active"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "batch":
		return ModeBatch, nil
	case "answer":
		return ModeAnswer, nil
	case "active":
		return ModeActive, nil
	}
	return 0, fmt.Errorf("driver: unknown inventory mode %q", s)
}

// DefaultMode is the answer-style mode of the family.
func DefaultMode(f protocol.Family) Mode {
	if f == protocol.FamilyA {
		return ModeBatch
	}
	return ModeAnswer
}

// InventoryParams carries the answer-mode stop condition.
type InventoryParams struct {
	Stop inventory.StopCondition
}

// Inventory starts a stream in the session's slot. Until the stream leaves
// Streaming, direct commands return ErrBusy.
func (s *Session) Inventory(mode Mode, params InventoryParams) (inventory.Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy() {
		return nil, ErrBusy
	}

	var st inventory.Stream
	switch mode {
	case ModeBatch:
		if err := s.requireFamily(protocol.FamilyA, "batch inventory"); err != nil {
			return nil, err
		}
		st = inventory.NewBatch(s.link(), s.opts.Address)
	case ModeAnswer:
		if err := s.requireFamily(protocol.FamilyB, "answer inventory"); err != nil {
			return nil, err
		}
		if params.Stop.Kind == inventory.StopAfterCycles {
			if err := s.require(capability.StopByCycles); err != nil {
				return nil, err
			}
		}
		a, err := inventory.NewAnswer(s.link(), s.opts.Address, params.Stop)
		if err != nil {
			return nil, err
		}
		st = a
	case ModeActive:
		st = inventory.NewActiveTags(s.link(), s.opts.Family)
	default:
		return nil, protocol.Invalid("mode", mode, "unknown inventory mode")
	}

	s.stream = st
	s.log.Debug().Stringer("mode", mode).Msg("inventory started")
	return st, nil
}

// ActiveResponses starts an active-mode stream that exposes every decoded
// frame rather than tags.
func (s *Session) ActiveResponses() (*inventory.Active, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy() {
		return nil, ErrBusy
	}
	a := inventory.NewActive(s.link(), s.opts.Family)
	s.stream = a
	return a, nil
}

// StopInventory ends the stream in the slot and frees it. Answer mode sends
// the stop command and drains the in-flight tags.
func (s *Session) StopInventory(ctx context.Context) error {
	s.mu.Lock()
	st := s.stream
	s.mu.Unlock()

	var err error
	switch v := st.(type) {
	case nil:
		return nil
	case *inventory.Answer:
		err = v.Stop(ctx)
	case *inventory.ActiveTags:
		v.Stop()
	case *inventory.Active:
		v.Stop()
	case *inventory.Batch:
		v.Stop()
	}

	s.mu.Lock()
	if s.stream == st {
		s.stream = nil
	}
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("driver: stop inventory: %w", err)
	}
	s.log.Debug().Msg("inventory stopped")
	return nil
}
