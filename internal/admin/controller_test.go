// Copyright (c) 2026 nodeadmin authors
// nodeadmin - node administrative lifecycle controller
// This source code is licensed under the MIT license found in the LICENSE file.

package admin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/scmadmin/nodeadmin/internal/model"
	"github.com/scmadmin/nodeadmin/internal/statemachine"
)

type fakeRegistry struct {
	mu     sync.Mutex
	status map[uuid.UUID]model.NodeStatus
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{status: make(map[uuid.UUID]model.NodeStatus)}
}

func (f *fakeRegistry) put(id uuid.UUID, state model.OperationalState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status[id] = model.NodeStatus{State: state}
}

func (f *fakeRegistry) GetNode(_ context.Context, id uuid.UUID) (model.DatanodeIdentity, model.NodeStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.status[id]
	if !ok {
		return model.DatanodeIdentity{}, model.NodeStatus{}, errors.New("no such node")
	}
	return model.DatanodeIdentity{ID: id}, s, nil
}

func (f *fakeRegistry) SetNodeState(_ context.Context, id uuid.UUID, state model.OperationalState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.status[id]; !ok {
		return errors.New("no such node")
	}
	f.status[id] = model.NodeStatus{State: state}
	return nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []string
}

func (a *fakeAudit) LogAction(_ context.Context, id uuid.UUID, action string, from, to model.OperationalState, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, action)
}

func TestStartDecommission_HappyPath(t *testing.T) {
	reg := newFakeRegistry()
	id := uuid.New()
	reg.put(id, model.InService)
	audit := &fakeAudit{}
	c := New(reg, WithAuditLogger(audit))

	if err := c.StartDecommission(context.Background(), id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, status, _ := reg.GetNode(context.Background(), id)
	if status.State != model.Decommissioning {
		t.Fatalf("got state %s, want DECOMMISSIONING", status.State)
	}
	if len(audit.entries) != 1 || audit.entries[0] != "StartDecommission" {
		t.Fatalf("expected one audit entry, got %v", audit.entries)
	}
}

func TestStartDecommission_NodeNotFound(t *testing.T) {
	reg := newFakeRegistry()
	c := New(reg)

	err := c.StartDecommission(context.Background(), uuid.New())
	if !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("expected ErrNodeNotFound, got %v", err)
	}
}

func TestStartMaintenance_InvalidState(t *testing.T) {
	reg := newFakeRegistry()
	id := uuid.New()
	reg.put(id, model.Decommissioning)
	c := New(reg)

	err := c.StartMaintenance(context.Background(), id)
	if !errors.Is(err, statemachine.ErrInvalidNodeState) {
		t.Fatalf("expected ErrInvalidNodeState, got %v", err)
	}
}

func TestStartDecommission_IdempotentReinvocation(t *testing.T) {
	reg := newFakeRegistry()
	id := uuid.New()
	reg.put(id, model.Decommissioning)
	c := New(reg)

	if err := c.StartDecommission(context.Background(), id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, status, _ := reg.GetNode(context.Background(), id)
	if status.State != model.Decommissioning {
		t.Fatalf("got state %s, want unchanged DECOMMISSIONING", status.State)
	}
}

func TestDecommissionNodes_SwallowsPerNodeErrors(t *testing.T) {
	reg := newFakeRegistry()
	good := uuid.New()
	reg.put(good, model.InService)
	missing := uuid.New()
	c := New(reg)

	results := c.DecommissionNodes(context.Background(), []uuid.UUID{good, missing})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Err != nil {
		t.Fatalf("expected good node to succeed, got %v", results[0].Err)
	}
	if !errors.Is(results[1].Err, ErrNodeNotFound) {
		t.Fatalf("expected ErrNodeNotFound for missing node, got %v", results[1].Err)
	}
	_, status, _ := reg.GetNode(context.Background(), good)
	if status.State != model.Decommissioning {
		t.Fatalf("good node should still have transitioned, got %s", status.State)
	}
}

func TestWithMonitorInterval_RepairsNonPositive(t *testing.T) {
	reg := newFakeRegistry()
	c := New(reg, WithMonitorInterval(-1*time.Second))
	if c.MonitorInterval() != defaultMonitorInterval {
		t.Fatalf("got %s, want default %s", c.MonitorInterval(), defaultMonitorInterval)
	}
}

func TestRecommission_FromEveryNonServiceState(t *testing.T) {
	for _, from := range []model.OperationalState{
		model.Decommissioning, model.Decommissioned, model.EnteringMaintenance, model.InMaintenance,
	} {
		reg := newFakeRegistry()
		id := uuid.New()
		reg.put(id, from)
		c := New(reg)

		if err := c.Recommission(context.Background(), id); err != nil {
			t.Fatalf("from %s: unexpected error: %v", from, err)
		}
		_, status, _ := reg.GetNode(context.Background(), id)
		if status.State != model.InService {
			t.Fatalf("from %s: got %s, want IN_SERVICE", from, status.State)
		}
	}
}
