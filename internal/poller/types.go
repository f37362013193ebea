// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/uhf-replicator/internal/inventory"
)

// PollResult is a snapshot produced by one inventory round.
type PollResult struct {
	ReaderID string
	At       time.Time

	// Tags are deduplicated by EPC in first-seen order.
	Tags []inventory.Tag

	// Negotiated at connect; zero while disconnected.
	CapabilityFlags uint16
	MaxPower        uint8

	// ErrorCode is protocol.ErrorCode(Err); 0 means success.
	ErrorCode uint16
	Err       error // non-nil means the round failed
}
