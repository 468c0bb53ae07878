// Copyright (c) 2026 nodeadmin authors
// nodeadmin - node administrative lifecycle controller
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/scmadmin/nodeadmin/internal/admin"
	"github.com/scmadmin/nodeadmin/internal/eventbus"
	"github.com/scmadmin/nodeadmin/internal/model"
	"github.com/scmadmin/nodeadmin/internal/pipeline"
	"github.com/scmadmin/nodeadmin/internal/registry"
)

func TestRunServeLoop_DecommissionWaitsWhilePipelineOpen(t *testing.T) {
	reg := registry.New()
	pm := pipeline.New()
	id := uuid.New()
	reg.Register("10.0.0.1", model.DatanodeIdentity{ID: id, Hostname: "dn1"})
	pm.Put(model.Pipeline{ID: "p1", State: model.PipelineOpen})
	reg.SetPipelines(id, []model.PipelineID{"p1"})

	controller := admin.New(reg)
	a := &app{registry: reg, pipeline: pm, controller: controller}
	bus := eventbus.New()

	var out bytes.Buffer
	ctx := context.Background()

	cmds := strings.Join([]string{
		`{"action":"decommission","node_id":"` + id.String() + `"}`,
		`{"action":"replication_report","replication_report":{"DatanodeID":"` + id.String() + `","Containers":1,"SufficientlyReplicatedContainers":1}}`,
	}, "\n") + "\n"

	bus.SubscribeReplicationReports(func(r model.NodeReplicationReport) {
		open := false
		pipelines, err := reg.GetPipelines(ctx, r.DatanodeID)
		if err == nil {
			open = pm.HasOpenPipelines(pipelines)
		}
		if !open {
			status, err := reg.GetNodeStatus(ctx, r.DatanodeID)
			if err == nil && status.IsDecommissioning() {
				_ = reg.SetNodeState(ctx, r.DatanodeID, model.Decommissioned)
			}
		}
	})

	if err := runServeLoop(ctx, a, bus, strings.NewReader(cmds), &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	status, err := reg.GetNodeStatus(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.State != model.Decommissioning {
		t.Fatalf("expected node to still be DECOMMISSIONING (pipeline still open), got %s", status.State)
	}
	if !strings.Contains(out.String(), "decommission started") {
		t.Fatalf("expected decommission confirmation in output, got %q", out.String())
	}
}

func TestDispatchServeCommand_PipelineReportUpdatesRegistryAndManager(t *testing.T) {
	reg := registry.New()
	pm := pipeline.New()
	id := uuid.New()
	reg.Register("10.0.0.1", model.DatanodeIdentity{ID: id, Hostname: "dn1"})

	controller := admin.New(reg)
	a := &app{registry: reg, pipeline: pm, controller: controller}
	bus := eventbus.New()

	var out bytes.Buffer
	ctx := context.Background()

	report := model.PipelineReport{
		DatanodeID: id,
		Pipelines: []model.Pipeline{
			{ID: "p1", State: model.PipelineOpen},
			{ID: "p2", State: model.PipelineClosed},
		},
	}
	dispatchServeCommand(ctx, a, bus, serveCommand{Action: "pipeline_report", PipelineReport: &report}, &out)

	pipelines, err := reg.GetPipelines(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pm.HasOpenPipelines(pipelines) {
		t.Fatal("expected registry and pipeline manager to agree that p1 is still open after a pipeline_report")
	}
}

func TestRunServeLoop_UnknownActionReportsError(t *testing.T) {
	reg := registry.New()
	pm := pipeline.New()
	controller := admin.New(reg)
	a := &app{registry: reg, pipeline: pm, controller: controller}
	bus := eventbus.New()

	var out bytes.Buffer
	if err := runServeLoop(context.Background(), a, bus, strings.NewReader(`{"action":"bogus"}`+"\n"), &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "unknown action") {
		t.Fatalf("expected unknown action message, got %q", out.String())
	}
}
