// Copyright (c) 2026 nodeadmin authors
// nodeadmin - node administrative lifecycle controller
// This source code is licensed under the MIT license found in the LICENSE file.

// Package drain implements the two event-driven gates that watch
// asynchronous reports from the rest of the cluster and push a draining
// node across its terminal state boundary once it is safe to do so.
package drain // import "github.com/scmadmin/nodeadmin/internal/drain"

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/scmadmin/nodeadmin/internal/logging"
	"github.com/scmadmin/nodeadmin/internal/model"
)

// ErrPipelineNotFound is returned by a PipelineManager when asked to act on
// a pipeline it no longer tracks.
var ErrPipelineNotFound = errors.New("pipeline not found")

// NodeStatusLookup is the narrow registry dependency both gates need: the
// current administrative status of a reporting node.
type NodeStatusLookup interface {
	GetNodeStatus(ctx context.Context, id uuid.UUID) (model.NodeStatus, error)
}

// PipelineManager is the subset of the external pipeline subsystem the
// pipeline drain gate depends on. Its own bookkeeping, replication of
// pipeline metadata, and client protocol are out of scope here.
type PipelineManager interface {
	FinalizeAndDestroyPipeline(ctx context.Context, id model.PipelineID, force bool) error
}

// PipelineDrainGate closes OPEN pipelines for a node that is entering or in
// maintenance. It deliberately does not act during decommission:
// a decommissioning node's pipelines are retired by the normal container
// close-pipeline path as replicas move off it, and closing them early here
// would race that path.
type PipelineDrainGate struct {
	Registry NodeStatusLookup
	Pipeline PipelineManager
}

// NewPipelineDrainGate builds a PipelineDrainGate over the given collaborators.
func NewPipelineDrainGate(registry NodeStatusLookup, pipeline PipelineManager) *PipelineDrainGate {
	return &PipelineDrainGate{Registry: registry, Pipeline: pipeline}
}

// HandlePipelineReport is the event handler a PipelineReport subscription
// invokes. It closes every OPEN pipeline listed in the report if, and only
// if, the reporting node is draining toward maintenance: either still
// ENTERING_MAINTENANCE (the common case, since a node only has pipelines
// left to close before it can reach the terminal state) or already
// IN_MAINTENANCE.
func (g *PipelineDrainGate) HandlePipelineReport(ctx context.Context, report model.PipelineReport) {
	status, err := g.Registry.GetNodeStatus(ctx, report.DatanodeID)
	if err != nil {
		logging.Warnf("pipeline drain gate: node %s: %v", report.DatanodeID, err)
		return
	}
	if !status.IsMaintenance() {
		return
	}

	for _, p := range report.Pipelines {
		if p.State != model.PipelineOpen {
			continue
		}
		if err := g.Pipeline.FinalizeAndDestroyPipeline(ctx, p.ID, true); err != nil {
			logging.Warnf("pipeline drain gate: closing pipeline %s for node %s: %v", p.ID, report.DatanodeID, err)
			continue
		}
		logging.Infof("pipeline drain gate: closed pipeline %s for node %s", p.ID, report.DatanodeID)
	}
}
