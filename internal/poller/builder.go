// internal/poller/builder.go
package poller

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	cfg "github.com/tamzrod/uhf-replicator/internal/config"
	"github.com/tamzrod/uhf-replicator/internal/driver"
	"github.com/tamzrod/uhf-replicator/internal/inventory"
	"github.com/tamzrod/uhf-replicator/internal/protocol"
	"github.com/tamzrod/uhf-replicator/internal/transport"
)

// BuildOptions carries process-wide collaborators into each session.
type BuildOptions struct {
	Logger   zerolog.Logger
	Observer driver.Observer
}

// Build constructs a Poller and wires the reader session lifecycle.
// The session is reused while healthy.
// On transport death, Poller discards the session and uses factory on a future tick.
// No retries, no loops.
func Build(r cfg.ReaderConfig, opts BuildOptions) (*Poller, func() error, error) {
	family, err := protocol.ParseFamily(r.Family)
	if err != nil {
		return nil, nil, fmt.Errorf("poller: reader %q: %w", r.ID, err)
	}

	mode := driver.DefaultMode(family)
	if r.Inventory.Mode != "" {
		if mode, err = driver.ParseMode(r.Inventory.Mode); err != nil {
			return nil, nil, fmt.Errorf("poller: reader %q: %w", r.ID, err)
		}
	}

	stop := inventory.StopCondition{Kind: inventory.StopAfterTime, Value: r.Inventory.Stop.Value}
	if r.Inventory.Stop.Kind == cfg.StopCycles {
		stop.Kind = inventory.StopAfterCycles
	}

	timeout := time.Duration(r.Source.TimeoutMs) * time.Millisecond
	log := opts.Logger

	// session factory: ONE attempt per call
	factory := func() (Client, error) {
		t, err := openTransport(r.Source, timeout)
		if err != nil {
			return nil, err
		}
		s, err := driver.Connect(t, driver.Options{
			Family:   family,
			Address:  r.Source.Address,
			Name:     r.ID,
			Logger:   &log,
			Observer: opts.Observer,
		})
		if err != nil {
			_ = t.Close()
			return nil, err
		}
		return s, nil
	}

	// initial session (fail fast at startup)
	client, err := factory()
	if err != nil {
		return nil, nil, fmt.Errorf("poller: reader %q: %w", r.ID, err)
	}

	p, err := New(
		Config{
			ReaderID: r.ID,
			Interval: time.Duration(r.Inventory.IntervalMs) * time.Millisecond,
			Mode:     mode,
			Params:   driver.InventoryParams{Stop: stop},
			MaxTags:  r.Inventory.MaxTags,
		},
		client,
		factory,
	)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	p.WithLogger(log)

	return p, p.Close, nil
}

func openTransport(src cfg.SourceConfig, timeout time.Duration) (transport.Transport, error) {
	if src.Device != "" {
		return transport.OpenSerial(transport.SerialConfig{
			Device:   src.Device,
			BaudRate: src.BaudRate,
			Timeout:  timeout,
		})
	}
	return transport.DialTCP(transport.TCPConfig{
		Endpoint: src.Endpoint,
		Timeout:  timeout,
	})
}
