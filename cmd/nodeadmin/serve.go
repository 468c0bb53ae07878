// Copyright (c) 2026 nodeadmin authors
// nodeadmin - node administrative lifecycle controller
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/scmadmin/nodeadmin/internal/drain"
	"github.com/scmadmin/nodeadmin/internal/eventbus"
	"github.com/scmadmin/nodeadmin/internal/logging"
	"github.com/scmadmin/nodeadmin/internal/model"
)

// serveCommand is one line of newline-delimited JSON read from stdin by
// `nodeadmin serve`. Action is always set; administrative actions carry
// NodeID, and the pipeline_report/replication_report actions carry the
// matching report field. It is a stand-in for the RPC transport that is out of scope for this
// repo, sufficient to demonstrate and test the full AdminController +
// drain gate wiring end-to-end.
type serveCommand struct {
	Action            string                       `json:"action"`
	NodeID            uuid.UUID                    `json:"node_id,omitempty"`
	PipelineReport    *model.PipelineReport        `json:"pipeline_report,omitempty"`
	ReplicationReport *model.NodeReplicationReport `json:"replication_report,omitempty"`
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a long-lived process wiring the event bus, drain gates, and admin controller",
		Long: `serve constructs the in-memory reference NodeRegistry and PipelineManager,
registers both drain gates against an in-process event bus, and then reads
newline-delimited JSON commands from stdin: administrative actions
(decommission/recommission/start-maintenance by node ID) and report events
(pipeline/replication) that drive the drain gates. No RPC transport is
wired up; this is the harness used for end-to-end testing and demos.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFromCmd(cmd)
			bus := eventbus.New()

			pipelineGate := drain.NewPipelineDrainGate(a.registry, a.pipeline)
			bus.SubscribePipelineReports(func(r model.PipelineReport) {
				pipelineGate.HandlePipelineReport(cmd.Context(), r)
			})

			replicationGate := drain.NewReplicationDrainGate(
				func(ctx context.Context, r model.NodeReplicationReport) (model.NodeStatus, error) {
					return a.registry.GetNodeStatus(ctx, r.DatanodeID)
				},
				func(ctx context.Context, r model.NodeReplicationReport) (bool, error) {
					pipelines, err := a.registry.GetPipelines(ctx, r.DatanodeID)
					if err != nil {
						return false, err
					}
					return a.pipeline.HasOpenPipelines(pipelines), nil
				},
				func(ctx context.Context, r model.NodeReplicationReport, next model.OperationalState) error {
					return a.registry.SetNodeState(ctx, r.DatanodeID, next)
				},
			)
			bus.SubscribeReplicationReports(func(r model.NodeReplicationReport) {
				replicationGate.HandleReplicationReport(cmd.Context(), r)
			})

			return runServeLoop(cmd.Context(), a, bus, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	return cmd
}

func runServeLoop(ctx context.Context, a *app, bus *eventbus.Bus, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var c serveCommand
		if err := json.Unmarshal(line, &c); err != nil {
			fmt.Fprintf(out, "error: invalid command: %v\n", err)
			continue
		}
		dispatchServeCommand(ctx, a, bus, c, out)
	}
	return scanner.Err()
}

func dispatchServeCommand(ctx context.Context, a *app, bus *eventbus.Bus, c serveCommand, out io.Writer) {
	switch c.Action {
	case "decommission":
		if err := a.controller.StartDecommission(ctx, c.NodeID); err != nil {
			fmt.Fprintf(out, "node %s: %v\n", c.NodeID, err)
			return
		}
		fmt.Fprintf(out, "node %s: decommission started\n", c.NodeID)
	case "recommission":
		if err := a.controller.Recommission(ctx, c.NodeID); err != nil {
			fmt.Fprintf(out, "node %s: %v\n", c.NodeID, err)
			return
		}
		fmt.Fprintf(out, "node %s: recommissioned\n", c.NodeID)
	case "start-maintenance":
		if err := a.controller.StartMaintenance(ctx, c.NodeID); err != nil {
			fmt.Fprintf(out, "node %s: %v\n", c.NodeID, err)
			return
		}
		fmt.Fprintf(out, "node %s: maintenance started\n", c.NodeID)
	case "pipeline_report":
		if c.PipelineReport == nil {
			fmt.Fprintln(out, "error: pipeline_report action missing pipeline_report field")
			return
		}
		ids := make([]model.PipelineID, len(c.PipelineReport.Pipelines))
		for i, p := range c.PipelineReport.Pipelines {
			a.pipeline.Put(p)
			ids[i] = p.ID
		}
		a.registry.SetPipelines(c.PipelineReport.DatanodeID, ids)
		bus.PublishPipelineReport(*c.PipelineReport)
	case "replication_report":
		if c.ReplicationReport == nil {
			fmt.Fprintln(out, "error: replication_report action missing replication_report field")
			return
		}
		bus.PublishReplicationReport(*c.ReplicationReport)
	default:
		logging.Warnf("serve: unknown action %q", c.Action)
		fmt.Fprintf(out, "error: unknown action %q\n", c.Action)
	}
}
