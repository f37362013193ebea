// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/uhf-replicator/internal/capability"
	"github.com/tamzrod/uhf-replicator/internal/driver"
	"github.com/tamzrod/uhf-replicator/internal/inventory"
	"github.com/tamzrod/uhf-replicator/internal/protocol"
)

// Client abstracts the session operations the poller needs.
// *driver.Session satisfies it.
type Client interface {
	Inventory(mode driver.Mode, params driver.InventoryParams) (inventory.Stream, error)
	StopInventory(ctx context.Context) error
	Capability() *capability.Capability
	Close() error
}

// Factory makes one connect attempt per call.
type Factory func() (Client, error)

// Config is the minimal runtime config the poller needs.
type Config struct {
	ReaderID string
	Interval time.Duration
	Mode     driver.Mode
	Params   driver.InventoryParams

	// MaxTags bounds observations per round; 0 = until the stream ends.
	MaxTags int

	// RoundTimeout ends streams that do not stop on their own (active
	// mode, long answer rounds). Zero means Interval.
	RoundTimeout time.Duration
}

// Poller is a clock-driven inventory runner for one reader.
type Poller struct {
	cfg     Config
	factory Factory
	log     zerolog.Logger

	mu     sync.Mutex
	client Client
}

// New creates a poller with immutable config. client may be nil, in which
// case the first round connects through factory.
func New(cfg Config, client Client, factory Factory) (*Poller, error) {
	if cfg.ReaderID == "" {
		return nil, errors.New("poller: reader id required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if cfg.Mode == 0 {
		return nil, errors.New("poller: inventory mode required")
	}
	if client == nil && factory == nil {
		return nil, errors.New("poller: client or factory required")
	}
	if cfg.RoundTimeout <= 0 {
		cfg.RoundTimeout = cfg.Interval
	}
	return &Poller{cfg: cfg, client: client, factory: factory, log: zerolog.Nop()}, nil
}

// WithLogger sets the logger used for reconnect and round failures.
func (p *Poller) WithLogger(l zerolog.Logger) *Poller {
	p.log = l.With().Str("reader", p.cfg.ReaderID).Logger()
	return p
}

// PollOnce performs exactly one inventory round.
// All-or-nothing: a failed round carries no tags.
func (p *Poller) PollOnce(ctx context.Context) PollResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	res := PollResult{
		ReaderID: p.cfg.ReaderID,
		At:       time.Now(),
	}

	if p.client == nil {
		if p.factory == nil {
			return p.failed(res, errors.New("poller: no client and no factory"))
		}
		c, err := p.factory()
		if err != nil {
			return p.failed(res, fmt.Errorf("poller: reconnect: %w", err))
		}
		p.client = c
		p.log.Info().Msg("reader reconnected")
	}

	if c := p.client.Capability(); c != nil {
		res.CapabilityFlags = c.Flags()
		res.MaxPower = c.PowerLimit()
	}

	st, err := p.client.Inventory(p.cfg.Mode, p.cfg.Params)
	if err != nil {
		return p.failed(res, err)
	}

	rctx, cancel := context.WithTimeout(ctx, p.cfg.RoundTimeout)
	tags, err := inventory.Collect(rctx, st, p.cfg.MaxTags)
	cancel()

	// the round deadline is a normal end for open-ended streams
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		err = nil
	}

	stopErr := p.client.StopInventory(ctx)
	if err == nil && stopErr != nil && ctx.Err() == nil {
		err = stopErr
	}
	if err != nil {
		return p.failed(res, err)
	}

	// Commit only if the whole round succeeded
	res.Tags = tags
	return res
}

// Close releases the current client, if any.
func (p *Poller) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client == nil {
		return nil
	}
	err := p.client.Close()
	p.client = nil
	return err
}

// failed records err on res. Transport and framing failures discard the
// client; the factory is used on a future tick.
func (p *Poller) failed(res PollResult, err error) PollResult {
	res.Err = err
	res.ErrorCode = protocol.ErrorCode(err)

	if p.client != nil && dead(err) {
		p.log.Warn().Err(err).Msg("reader link lost, dropping session")
		_ = p.client.Close()
		p.client = nil
		res.CapabilityFlags, res.MaxPower = 0, 0
	}
	return res
}

func dead(err error) bool {
	var te *protocol.TransportError
	var fe *protocol.FrameError
	return errors.As(err, &te) || errors.As(err, &fe)
}
