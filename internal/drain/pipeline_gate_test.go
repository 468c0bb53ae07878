// Copyright (c) 2026 nodeadmin authors
// nodeadmin - node administrative lifecycle controller
// This source code is licensed under the MIT license found in the LICENSE file.

package drain

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/scmadmin/nodeadmin/internal/model"
)

type fakeStatusLookup struct {
	status map[uuid.UUID]model.NodeStatus
}

func (f fakeStatusLookup) GetNodeStatus(_ context.Context, id uuid.UUID) (model.NodeStatus, error) {
	return f.status[id], nil
}

type fakePipelineManager struct {
	closed map[model.PipelineID]bool
}

func (f *fakePipelineManager) FinalizeAndDestroyPipeline(_ context.Context, id model.PipelineID, _ bool) error {
	if f.closed == nil {
		f.closed = make(map[model.PipelineID]bool)
	}
	f.closed[id] = true
	return nil
}

func TestPipelineDrainGate_ClosesOpenPipelinesUnderMaintenance(t *testing.T) {
	id := uuid.New()
	lookup := fakeStatusLookup{status: map[uuid.UUID]model.NodeStatus{id: {State: model.InMaintenance}}}
	pm := &fakePipelineManager{}
	g := NewPipelineDrainGate(lookup, pm)

	g.HandlePipelineReport(context.Background(), model.PipelineReport{
		DatanodeID: id,
		Pipelines: []model.Pipeline{
			{ID: "p1", State: model.PipelineOpen},
			{ID: "p2", State: model.PipelineClosed},
		},
	})

	if !pm.closed["p1"] {
		t.Fatal("expected open pipeline p1 to be closed")
	}
	if pm.closed["p2"] {
		t.Fatal("did not expect already-closed pipeline p2 to be touched")
	}
}

func TestPipelineDrainGate_ClosesOpenPipelinesUnderEnteringMaintenance(t *testing.T) {
	id := uuid.New()
	lookup := fakeStatusLookup{status: map[uuid.UUID]model.NodeStatus{id: {State: model.EnteringMaintenance}}}
	pm := &fakePipelineManager{}
	g := NewPipelineDrainGate(lookup, pm)

	g.HandlePipelineReport(context.Background(), model.PipelineReport{
		DatanodeID: id,
		Pipelines: []model.Pipeline{
			{ID: "P2", State: model.PipelineOpen},
			{ID: "P3", State: model.PipelineClosed},
		},
	})

	if !pm.closed["P2"] {
		t.Fatal("expected open pipeline P2 to be closed for a node entering maintenance")
	}
	if pm.closed["P3"] {
		t.Fatal("did not expect already-closed pipeline P3 to be touched")
	}
}

func TestPipelineDrainGate_IgnoresDecommissioningNode(t *testing.T) {
	id := uuid.New()
	lookup := fakeStatusLookup{status: map[uuid.UUID]model.NodeStatus{id: {State: model.Decommissioning}}}
	pm := &fakePipelineManager{}
	g := NewPipelineDrainGate(lookup, pm)

	g.HandlePipelineReport(context.Background(), model.PipelineReport{
		DatanodeID: id,
		Pipelines:  []model.Pipeline{{ID: "p1", State: model.PipelineOpen}},
	})

	if pm.closed["p1"] {
		t.Fatal("pipeline gate must not act on a decommissioning node")
	}
}

func TestPipelineDrainGate_IgnoresInServiceNode(t *testing.T) {
	id := uuid.New()
	lookup := fakeStatusLookup{status: map[uuid.UUID]model.NodeStatus{id: {State: model.InService}}}
	pm := &fakePipelineManager{}
	g := NewPipelineDrainGate(lookup, pm)

	g.HandlePipelineReport(context.Background(), model.PipelineReport{
		DatanodeID: id,
		Pipelines:  []model.Pipeline{{ID: "p1", State: model.PipelineOpen}},
	})

	if pm.closed["p1"] {
		t.Fatal("pipeline gate must not act on an in-service node")
	}
}
