// Copyright (c) 2026 nodeadmin authors
// nodeadmin - node administrative lifecycle controller
// This source code is licensed under the MIT license found in the LICENSE file.

// Package model defines the core data structures shared across nodeadmin:
// datanode identity, operational state, and the asynchronous reports that
// drive the drain gates.
package model // import "github.com/scmadmin/nodeadmin/internal/model"

import (
	"fmt"

	"github.com/google/uuid"
)

// Port is a single named port advertised by a datanode (e.g. "RATIS", 9858).
type Port struct {
	Name  string
	Value int
}

// DatanodeIdentity is an opaque, unique identifier for a storage node plus
// the address information needed to resolve and disambiguate it. Ownership
// of the underlying record belongs to the node registry; nodeadmin only
// borrows read-only views of it.
type DatanodeIdentity struct {
	ID       uuid.UUID
	Hostname string
	Address  string
	Ports    []Port
}

// String returns a human-readable representation of the datanode identity.
func (d DatanodeIdentity) String() string {
	return fmt.Sprintf("%s (%s)", d.Hostname, d.ID)
}

// PortValue returns the value of the named port and whether it exists.
func (d DatanodeIdentity) PortValue(name string) (int, bool) {
	for _, p := range d.Ports {
		if p.Name == name {
			return p.Value, true
		}
	}
	return 0, false
}

// HasPort reports whether the datanode advertises a port with the given value.
func (d DatanodeIdentity) HasPort(value int) bool {
	for _, p := range d.Ports {
		if p.Value == value {
			return true
		}
	}
	return false
}

// OperationalState is the tagged variant governing a datanode's
// administrative lifecycle. No other states exist; transitions only occur
// via the state machine.
type OperationalState int

const (
	// InService is the default, fully-participating state.
	InService OperationalState = iota
	// Decommissioning means the node is draining replicas and pipelines
	// ahead of permanent removal.
	Decommissioning
	// Decommissioned is the terminal drained state reached once both
	// drain gates agree the node is safe to remove.
	Decommissioned
	// EnteringMaintenance means the node is draining pipelines ahead of a
	// temporary, operator-initiated outage.
	EnteringMaintenance
	// InMaintenance is the terminal drained state reached once both drain
	// gates agree the node is safe to take down temporarily.
	InMaintenance
)

// String implements fmt.Stringer for logging and audit output.
func (s OperationalState) String() string {
	switch s {
	case InService:
		return "IN_SERVICE"
	case Decommissioning:
		return "DECOMMISSIONING"
	case Decommissioned:
		return "DECOMMISSIONED"
	case EnteringMaintenance:
		return "ENTERING_MAINTENANCE"
	case InMaintenance:
		return "IN_MAINTENANCE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

// NodeStatus pairs an OperationalState with derived predicates. It is never
// independently stored; it is always recomputed from OperationalState.
type NodeStatus struct {
	State OperationalState
}

// IsDecommission reports whether the node is decommissioning or decommissioned.
func (s NodeStatus) IsDecommission() bool {
	return s.State == Decommissioning || s.State == Decommissioned
}

// IsMaintenance reports whether the node is entering or in maintenance.
func (s NodeStatus) IsMaintenance() bool {
	return s.State == EnteringMaintenance || s.State == InMaintenance
}

// IsDecommissioning reports whether the node is currently draining toward decommission.
func (s NodeStatus) IsDecommissioning() bool { return s.State == Decommissioning }

// IsEnteringMaintenance reports whether the node is currently draining toward maintenance.
func (s NodeStatus) IsEnteringMaintenance() bool { return s.State == EnteringMaintenance }

// IsInMaintenance reports whether the node has reached the maintenance terminal state.
func (s NodeStatus) IsInMaintenance() bool { return s.State == InMaintenance }

// HostDefinition is the parsed form of one administrator-supplied host
// string. It is transient, scoped to a single admin request.
type HostDefinition struct {
	RawHostname string
	Hostname    string
	Port        int // -1 when absent
}

// PipelineID identifies a replication group a datanode participates in.
type PipelineID string

// PipelineState is the lifecycle state of a pipeline. Only OPEN matters to
// the drain gates; the remaining states are closed terminals the pipeline
// manager is responsible for.
type PipelineState int

const (
	PipelineOpen PipelineState = iota
	PipelineClosing
	PipelineClosed
)

// String implements fmt.Stringer.
func (s PipelineState) String() string {
	switch s {
	case PipelineOpen:
		return "OPEN"
	case PipelineClosing:
		return "CLOSING"
	case PipelineClosed:
		return "CLOSED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

// Pipeline is a replication group of datanodes serving writes for a set of containers.
type Pipeline struct {
	ID    PipelineID
	State PipelineState
}

// PipelineReport is an asynchronously delivered message listing the
// pipelines a reporting node currently participates in.
type PipelineReport struct {
	DatanodeID uuid.UUID
	Pipelines  []Pipeline
}

// NodeReplicationReport is an asynchronously delivered message describing
// per-container replica sufficiency for one datanode.
type NodeReplicationReport struct {
	DatanodeID                       uuid.UUID
	Status                           NodeStatus
	Containers                       int
	SufficientlyReplicatedContainers int
}

// DrainComplete reports whether every container on the node is sufficiently
// replicated without counting the node's own replica.
func (r NodeReplicationReport) DrainComplete() bool {
	return r.SufficientlyReplicatedContainers == r.Containers
}
