// Copyright (c) 2026 nodeadmin authors
// nodeadmin - node administrative lifecycle controller
// This source code is licensed under the MIT license found in the LICENSE file.

// Package registry provides an in-memory reference implementation of the
// node registry collaborator. The real node registry, its consensus, and
// its placement policy live entirely outside this module; this type exists
// so the CLI's serve command and the test suite have something concrete to
// run against. A deployer wiring nodeadmin into a real cluster swaps this
// out for a client of the actual registry service.
package registry // import "github.com/scmadmin/nodeadmin/internal/registry"

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/scmadmin/nodeadmin/internal/model"
)

// record is the lock-guarded state held for one datanode, mirroring the
// teacher's copy-in/copy-out password mailbox: callers never receive a
// pointer into the map, only copies.
type record struct {
	identity model.DatanodeIdentity
	status   model.NodeStatus
	pipelines []model.PipelineID
}

// Registry is a concurrency-safe, in-memory NodeRegistry reference
// implementation keyed by datanode ID, with a secondary address index for
// HostResolver lookups.
type Registry struct {
	mu        sync.RWMutex
	byID      map[uuid.UUID]*record
	byAddress map[string][]uuid.UUID
}

// New builds an empty Registry.
func New() *Registry {
	return &Registry{
		byID:      make(map[uuid.UUID]*record),
		byAddress: make(map[string][]uuid.UUID),
	}
}

// Register adds a datanode to the registry in IN_SERVICE state, indexed by
// addressKey (the value a HostResolver's configured canonicalization
// strategy would produce: either the dotted address or the reverse
// hostname).
func (r *Registry) Register(addressKey string, identity model.DatanodeIdentity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[identity.ID] = &record{identity: identity, status: model.NodeStatus{State: model.InService}}
	r.byAddress[addressKey] = append(r.byAddress[addressKey], identity.ID)
}

// GetNodesByAddress implements hostresolver.AddressLookup.
func (r *Registry) GetNodesByAddress(_ context.Context, key string) ([]model.DatanodeIdentity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byAddress[key]
	out := make([]model.DatanodeIdentity, 0, len(ids))
	for _, id := range ids {
		if rec, ok := r.byID[id]; ok {
			out = append(out, rec.identity)
		}
	}
	return out, nil
}

// GetNode implements admin.NodeRegistry.
func (r *Registry) GetNode(_ context.Context, id uuid.UUID) (model.DatanodeIdentity, model.NodeStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[id]
	if !ok {
		return model.DatanodeIdentity{}, model.NodeStatus{}, fmt.Errorf("node %s not registered", id)
	}
	return rec.identity, rec.status, nil
}

// GetNodeStatus implements drain.NodeStatusLookup.
func (r *Registry) GetNodeStatus(_ context.Context, id uuid.UUID) (model.NodeStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[id]
	if !ok {
		return model.NodeStatus{}, fmt.Errorf("node %s not registered", id)
	}
	return rec.status, nil
}

// SetNodeState implements admin.NodeRegistry.
func (r *Registry) SetNodeState(_ context.Context, id uuid.UUID, state model.OperationalState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("node %s not registered", id)
	}
	rec.status = model.NodeStatus{State: state}
	return nil
}

// GetPipelines returns the pipelines currently recorded for id.
func (r *Registry) GetPipelines(_ context.Context, id uuid.UUID) ([]model.PipelineID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("node %s not registered", id)
	}
	out := make([]model.PipelineID, len(rec.pipelines))
	copy(out, rec.pipelines)
	return out, nil
}

// SetPipelines overwrites the pipeline membership recorded for id, used by
// test setup and by the serve command when replaying a PipelineReport.
func (r *Registry) SetPipelines(id uuid.UUID, pipelines []model.PipelineID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.byID[id]; ok {
		rec.pipelines = pipelines
	}
}
