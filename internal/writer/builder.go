// internal/writer/builder.go
package writer

import (
	"errors"
	"time"

	cfg "github.com/tamzrod/uhf-replicator/internal/config"
	"github.com/tamzrod/uhf-replicator/internal/status"
	"github.com/tamzrod/uhf-replicator/internal/writer/ingest"
	wmodbus "github.com/tamzrod/uhf-replicator/internal/writer/modbus"
)

// BuildPlan converts one reader config into a Writer Plan.
// Assumes config has already passed validation and normalization.
func BuildPlan(r cfg.ReaderConfig) (Plan, error) {
	if r.ID == "" {
		return Plan{}, errors.New("writer: reader.id required")
	}

	plan := Plan{ReaderID: r.ID}

	for _, t := range r.Targets {
		slots := int(t.TagTable.Slots)
		if slots == 0 {
			slots = status.DefaultTagSlots
		}

		plan.Targets = append(plan.Targets, TargetEndpoint{
			TargetID: t.ID,
			Endpoint: t.Endpoint,
			UnitID:   t.UnitID,
			Table: TagTableDest{
				Address: t.TagTable.Address,
				Slots:   slots,
			},
		})

		if r.Source.StatusSlot == nil || t.StatusUnitID == nil {
			continue
		}
		plan.Status = append(plan.Status, StatusPlan{
			Endpoint:   t.Endpoint,
			UnitID:     *t.StatusUnitID,
			BaseSlot:   *r.Source.StatusSlot,
			DeviceName: r.Source.DeviceName,
		})
	}

	return plan, nil
}

// endpoint is a client the builder owns.
type endpoint interface {
	endpointClient
	Close() error
}

// BuildEndpointClients creates one client per unique endpoint, speaking the
// target's protocol.
func BuildEndpointClients(r cfg.ReaderConfig) (map[string]endpointClient, func() error, error) {
	unique := map[string]string{}
	for _, t := range r.Targets {
		unique[t.Endpoint] = t.Protocol
	}

	timeout := time.Duration(r.Source.TimeoutMs) * time.Millisecond
	clients := make(map[string]endpointClient)
	var closers []func() error

	for ep, proto := range unique {
		var (
			c   endpoint
			err error
		)
		switch proto {
		case cfg.ProtocolIngest:
			c, err = ingest.NewEndpointClient(ingest.Config{Endpoint: ep, Timeout: timeout})
		default:
			c, err = wmodbus.NewEndpointClient(wmodbus.Config{Endpoint: ep, Timeout: timeout})
		}
		if err != nil {
			for _, fn := range closers {
				_ = fn()
			}
			return nil, nil, err
		}
		clients[ep] = c
		closers = append(closers, c.Close)
	}

	closeAll := func() error {
		var last error
		for _, fn := range closers {
			if err := fn(); err != nil {
				last = err
			}
		}
		return last
	}

	return clients, closeAll, nil
}
