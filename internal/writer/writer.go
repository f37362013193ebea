// internal/writer/writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/uhf-replicator/internal/poller"
	"github.com/tamzrod/uhf-replicator/internal/status"
)

type writerImpl struct {
	plan    Plan
	clients map[string]endpointClient
}

func New(plan Plan, clients map[string]endpointClient) Writer {
	return &writerImpl{
		plan:    plan,
		clients: clients,
	}
}

// Write publishes the tag table of a successful round to every target.
// Failed rounds leave the tables untouched; the status block reports them.
func (w *writerImpl) Write(res poller.PollResult) error {
	if res.Err != nil {
		return nil
	}

	var errs []string

	for _, tgt := range w.plan.Targets {
		cli := w.clients[tgt.Endpoint]
		if cli == nil {
			errs = append(errs, fmt.Sprintf(
				"writer: missing client for endpoint %s",
				tgt.Endpoint,
			))
			continue
		}

		regs := status.EncodeTags(res.Tags, tgt.Table.Slots)

		if err := cli.WriteRegisters(tgt.UnitID, tgt.Table.Address, regs); err != nil {
			errs = append(errs, fmt.Sprintf(
				"writer: ep=%s unit=%d addr=%d tags=%d err=%v",
				tgt.Endpoint, tgt.UnitID, tgt.Table.Address, len(res.Tags), err,
			))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}

	return nil
}
