// Copyright (c) 2026 nodeadmin authors
// nodeadmin - node administrative lifecycle controller
// This source code is licensed under the MIT license found in the LICENSE file.

package drain

import (
	"context"

	"github.com/scmadmin/nodeadmin/internal/logging"
	"github.com/scmadmin/nodeadmin/internal/model"
	"github.com/scmadmin/nodeadmin/internal/statemachine"
)

// OpenPipelineChecker reports whether a node still has any OPEN pipelines.
// The replication gate consults this as a double-check before declaring a
// node fully drained, since a stale replication report could otherwise
// race a pipeline that has not finished closing.
type OpenPipelineChecker interface {
	HasOpenPipelines(ctx context.Context, id model.NodeReplicationReport) (bool, error)
}

// ReplicationDrainGate watches replication sufficiency reports and pushes
// a draining node across its terminal boundary (DECOMMISSIONED or
// IN_MAINTENANCE) once every container it holds is sufficiently replicated
// elsewhere and its pipelines have finished closing.
type ReplicationDrainGate struct {
	Registry interface {
		GetNode(ctx context.Context, id model.NodeReplicationReport) (model.NodeStatus, error)
	}
	Pipelines OpenPipelineChecker
	SetState  func(ctx context.Context, report model.NodeReplicationReport, next model.OperationalState) error
}

// NewReplicationDrainGate builds a ReplicationDrainGate. setState is called
// to persist the terminal transition once both conditions hold; it is a
// function rather than an interface so callers can adapt whatever registry
// client they already have without a wrapper type.
func NewReplicationDrainGate(
	getStatus func(ctx context.Context, id model.NodeReplicationReport) (model.NodeStatus, error),
	hasOpenPipelines func(ctx context.Context, report model.NodeReplicationReport) (bool, error),
	setState func(ctx context.Context, report model.NodeReplicationReport, next model.OperationalState) error,
) *ReplicationDrainGate {
	return &ReplicationDrainGate{
		Registry: getStatusAdapter{getStatus},
		Pipelines: openPipelineAdapter{hasOpenPipelines},
		SetState:  setState,
	}
}

type getStatusAdapter struct {
	fn func(ctx context.Context, report model.NodeReplicationReport) (model.NodeStatus, error)
}

func (a getStatusAdapter) GetNode(ctx context.Context, r model.NodeReplicationReport) (model.NodeStatus, error) {
	return a.fn(ctx, r)
}

type openPipelineAdapter struct {
	fn func(ctx context.Context, report model.NodeReplicationReport) (bool, error)
}

func (a openPipelineAdapter) HasOpenPipelines(ctx context.Context, r model.NodeReplicationReport) (bool, error) {
	return a.fn(ctx, r)
}

// HandleReplicationReport is the event handler a NodeReplicationReport
// subscription invokes. It transitions the reporting node to its terminal
// state if the node is draining, every container is sufficiently
// replicated, and no pipeline remains open for it.
func (g *ReplicationDrainGate) HandleReplicationReport(ctx context.Context, report model.NodeReplicationReport) {
	status, err := g.Registry.GetNode(ctx, report)
	if err != nil {
		logging.Warnf("replication drain gate: node %s: %v", report.DatanodeID, err)
		return
	}

	var target model.OperationalState
	var cmd statemachine.Command
	switch {
	case status.IsDecommissioning():
		target = model.Decommissioned
		cmd = statemachine.DrainCompleteDecommission
	case status.IsEnteringMaintenance():
		target = model.InMaintenance
		cmd = statemachine.DrainCompleteMaintenance
	default:
		return
	}

	if !report.DrainComplete() {
		return
	}

	open, err := g.Pipelines.HasOpenPipelines(ctx, report)
	if err != nil {
		logging.Warnf("replication drain gate: checking open pipelines for node %s: %v", report.DatanodeID, err)
		return
	}
	if open {
		logging.Debugf("replication drain gate: node %s replication complete but pipelines still open", report.DatanodeID)
		return
	}

	if _, err := statemachine.Apply(status.State, cmd); err != nil {
		logging.Warnf("replication drain gate: node %s: %v", report.DatanodeID, err)
		return
	}

	if err := g.SetState(ctx, report, target); err != nil {
		logging.Warnf("replication drain gate: persisting terminal state for node %s: %v", report.DatanodeID, err)
		return
	}
	logging.Infof("replication drain gate: node %s reached %s", report.DatanodeID, target)
}
