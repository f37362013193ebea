// internal/writer/writer_test.go
package writer

import (
	"errors"
	"strings"
	"testing"

	cfg "github.com/tamzrod/uhf-replicator/internal/config"
	"github.com/tamzrod/uhf-replicator/internal/inventory"
	"github.com/tamzrod/uhf-replicator/internal/poller"
	"github.com/tamzrod/uhf-replicator/internal/status"
)

// ---- fake endpoint client ----

type fakeEndpointClient struct {
	writes []writeCall
	fail   error

	lastRegs     []uint16
	lastRegsAddr uint16
}

type writeCall struct {
	unitID uint8
	addr   uint16
	regs   []uint16
}

func (f *fakeEndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	if f.fail != nil {
		return f.fail
	}
	cp := append([]uint16(nil), regs...)
	f.writes = append(f.writes, writeCall{
		unitID: unitID,
		addr:   addr,
		regs:   cp,
	})
	f.lastRegs = cp
	f.lastRegsAddr = addr
	return nil
}

func twoTargetPlan() Plan {
	return Plan{
		ReaderID: "dock-1",
		Targets: []TargetEndpoint{
			{TargetID: 1, Endpoint: "ep1", UnitID: 1, Table: TagTableDest{Address: 100, Slots: 4}},
			{TargetID: 2, Endpoint: "ep2", UnitID: 9, Table: TagTableDest{Address: 0, Slots: 2}},
		},
	}
}

// ---- tests ----

func TestWriter_TagTablePerTarget(t *testing.T) {
	ep1, ep2 := &fakeEndpointClient{}, &fakeEndpointClient{}
	w := New(twoTargetPlan(), map[string]endpointClient{"ep1": ep1, "ep2": ep2})

	res := poller.PollResult{
		ReaderID: "dock-1",
		Tags: []inventory.Tag{
			{Data: []byte{0xE2, 0x01}, Count: 2},
			{Data: []byte{0xE2, 0x02}, Count: 1},
			{Data: []byte{0xE2, 0x03}, Count: 1},
		},
	}

	if err := w.Write(res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ep1.writes) != 1 || len(ep2.writes) != 1 {
		t.Fatalf("expected one table write per target, got %d/%d", len(ep1.writes), len(ep2.writes))
	}

	got := ep1.writes[0]
	if got.unitID != 1 || got.addr != 100 {
		t.Fatalf("ep1 write at unit=%d addr=%d", got.unitID, got.addr)
	}
	if len(got.regs) != status.TagTableRegs(4) || got.regs[0] != 3 {
		t.Fatalf("ep1 table len=%d count=%d", len(got.regs), got.regs[0])
	}

	// the smaller table holds the first two tags only
	if ep2.writes[0].regs[0] != 2 || len(ep2.writes[0].regs) != status.TagTableRegs(2) {
		t.Fatalf("ep2 table count=%d len=%d", ep2.writes[0].regs[0], len(ep2.writes[0].regs))
	}
}

func TestWriter_EmptyRoundClearsTable(t *testing.T) {
	ep1 := &fakeEndpointClient{}
	plan := twoTargetPlan()
	plan.Targets = plan.Targets[:1]
	w := New(plan, map[string]endpointClient{"ep1": ep1})

	if err := w.Write(poller.PollResult{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, r := range ep1.writes[0].regs {
		if r != 0 {
			t.Fatalf("register %d = %d, want 0", i, r)
		}
	}
}

func TestWriter_FailedRoundSkipsTables(t *testing.T) {
	ep1, ep2 := &fakeEndpointClient{}, &fakeEndpointClient{}
	w := New(twoTargetPlan(), map[string]endpointClient{"ep1": ep1, "ep2": ep2})

	if err := w.Write(poller.PollResult{Err: errors.New("timeout")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ep1.writes)+len(ep2.writes) != 0 {
		t.Fatalf("failed round must not touch tag tables")
	}
}

func TestWriter_MissingClientAndWriteErrors(t *testing.T) {
	ep1 := &fakeEndpointClient{fail: errors.New("exception 2")}
	w := New(twoTargetPlan(), map[string]endpointClient{"ep1": ep1})

	err := w.Write(poller.PollResult{})
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	for _, want := range []string{"missing client for endpoint ep2", "ep=ep1"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %q", err, want)
		}
	}
}

func TestBuildPlan_StatusPerTarget(t *testing.T) {
	slot := uint16(3)
	sid := uint8(7)

	plan, err := BuildPlan(cfg.ReaderConfig{
		ID: "dock-1",
		Source: cfg.SourceConfig{
			StatusSlot: &slot,
			DeviceName: "DOCK",
		},
		Targets: []cfg.TargetConfig{
			{ID: 1, Endpoint: "ep1", UnitID: 1, StatusUnitID: &sid, TagTable: cfg.TagTableConfig{Address: 10, Slots: 8}},
			{ID: 2, Endpoint: "ep2", UnitID: 2},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(plan.Targets) != 2 || plan.Targets[1].Table.Slots != status.DefaultTagSlots {
		t.Fatalf("targets: %+v", plan.Targets)
	}
	if len(plan.Status) != 1 {
		t.Fatalf("expected status only where status_unit_id is set, got %d", len(plan.Status))
	}
	want := StatusPlan{Endpoint: "ep1", UnitID: 7, BaseSlot: 3, DeviceName: "DOCK"}
	if plan.Status[0] != want {
		t.Fatalf("status plan: %+v", plan.Status[0])
	}

	if _, err := BuildPlan(cfg.ReaderConfig{}); err == nil {
		t.Fatalf("expected id error")
	}
}
