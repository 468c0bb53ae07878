// Copyright (c) 2026 nodeadmin authors
// nodeadmin - node administrative lifecycle controller
// This source code is licensed under the MIT license found in the LICENSE file.

// Package admin implements the administrative entry points operators and
// the CLI call to move datanodes through their lifecycle: decommission,
// recommission, and maintenance. It serializes every command through a
// single mutex so the state machine never observes interleaved writes.
package admin // import "github.com/scmadmin/nodeadmin/internal/admin"

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/scmadmin/nodeadmin/internal/logging"
	"github.com/scmadmin/nodeadmin/internal/model"
	"github.com/scmadmin/nodeadmin/internal/statemachine"
)

// ErrNodeNotFound is returned when a registry lookup by ID finds nothing.
var ErrNodeNotFound = errors.New("node not found")

// defaultMonitorInterval is used whenever a caller supplies a non-positive
// interval, and when no interval is supplied at all.
const defaultMonitorInterval = 30 * time.Second

// NodeRegistry is the subset of the external node registry the controller
// depends on. The registry itself, its persistence, and its interaction
// with the rest of the cluster are out of scope here; nodeadmin only reads
// and writes the OperationalState field of records it already owns.
type NodeRegistry interface {
	GetNode(ctx context.Context, id uuid.UUID) (model.DatanodeIdentity, model.NodeStatus, error)
	SetNodeState(ctx context.Context, id uuid.UUID, state model.OperationalState) error
}

// AuditLogger records administrative actions. Implementations must not
// block the caller for long; a slow audit sink should buffer internally.
type AuditLogger interface {
	LogAction(ctx context.Context, nodeID uuid.UUID, action string, fromState, toState model.OperationalState, err error)
}

// NodeResult is the per-node outcome of a batch administrative command.
type NodeResult struct {
	NodeID uuid.UUID
	Err    error
}

// Controller is the AdminController: the single entry point administrators
// use to drive datanode lifecycle transitions. All exported methods are
// safe for concurrent use; they serialize internally.
type Controller struct {
	mu sync.Mutex

	registry NodeRegistry
	audit    AuditLogger

	// monitorInterval is the configured monitor interval, exposed through
	// MonitorInterval. The drain gates are event-driven and do not read it.
	// It is validated and repaired (never rejected) at construction time.
	monitorInterval time.Duration

	// containerManager is accepted but never invoked: container placement
	// and balancing are owned by a collaborator entirely outside this
	// package's scope. The field exists so callers can wire a concrete
	// dependency through the constructor without the controller itself
	// needing to know its shape yet.
	containerManager interface{}
}

// Option configures a Controller at construction time.
type Option func(*Controller)

// WithAuditLogger attaches an AuditLogger. Without one, actions are not recorded.
func WithAuditLogger(a AuditLogger) Option {
	return func(c *Controller) { c.audit = a }
}

// WithMonitorInterval sets the monitor interval. Non-positive values are replaced with defaultMonitorInterval rather than
// rejected, since a misconfigured interval should degrade gracefully
// instead of preventing the controller from starting.
func WithMonitorInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d <= 0 {
			logging.Warnf("monitor interval %s is non-positive, using default %s", d, defaultMonitorInterval)
			d = defaultMonitorInterval
		}
		c.monitorInterval = d
	}
}

// WithContainerManager reserves a slot for a future container-balancing
// collaborator. It is stored but never called.
func WithContainerManager(cm interface{}) Option {
	return func(c *Controller) { c.containerManager = cm }
}

// New builds a Controller over the given node registry.
func New(registry NodeRegistry, opts ...Option) *Controller {
	c := &Controller{registry: registry, monitorInterval: defaultMonitorInterval}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MonitorInterval returns the effective monitor interval, after any
// repair of a non-positive value.
func (c *Controller) MonitorInterval() time.Duration {
	return c.monitorInterval
}

// StartDecommission transitions a single node toward decommissioning. It
// propagates NodeNotFound and InvalidNodeState to the caller.
func (c *Controller) StartDecommission(ctx context.Context, id uuid.UUID) error {
	return c.applyOne(ctx, id, statemachine.StartDecommission, "StartDecommission")
}

// Recommission transitions a single node back to in-service.
func (c *Controller) Recommission(ctx context.Context, id uuid.UUID) error {
	return c.applyOne(ctx, id, statemachine.Recommission, "Recommission")
}

// StartMaintenance transitions a single node toward maintenance.
func (c *Controller) StartMaintenance(ctx context.Context, id uuid.UUID) error {
	return c.applyOne(ctx, id, statemachine.StartMaintenance, "StartMaintenance")
}

// DecommissionNodes applies StartDecommission to every node in ids. Unlike
// the single-node form, a NodeNotFound or InvalidNodeState failure for one
// node is logged and swallowed rather than aborting the batch, so an
// operator decommissioning a rack is not blocked by one bad hostname.
func (c *Controller) DecommissionNodes(ctx context.Context, ids []uuid.UUID) []NodeResult {
	return c.applyBatch(ctx, ids, statemachine.StartDecommission, "StartDecommission")
}

// RecommissionNodes applies Recommission to every node in ids, swallowing
// per-node errors as DecommissionNodes does.
func (c *Controller) RecommissionNodes(ctx context.Context, ids []uuid.UUID) []NodeResult {
	return c.applyBatch(ctx, ids, statemachine.Recommission, "Recommission")
}

// StartMaintenanceNodes applies StartMaintenance to every node in ids,
// swallowing per-node errors as DecommissionNodes does.
func (c *Controller) StartMaintenanceNodes(ctx context.Context, ids []uuid.UUID) []NodeResult {
	return c.applyBatch(ctx, ids, statemachine.StartMaintenance, "StartMaintenance")
}

func (c *Controller) applyOne(ctx context.Context, id uuid.UUID, cmd statemachine.Command, action string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, status, err := c.registry.GetNode(ctx, id)
	if err != nil {
		wrapped := fmt.Errorf("%w: %s", ErrNodeNotFound, id)
		c.logAudit(ctx, id, action, 0, 0, wrapped)
		return wrapped
	}

	res, err := statemachine.Apply(status.State, cmd)
	if err != nil {
		c.logAudit(ctx, id, action, status.State, status.State, err)
		return err
	}
	if res.NoOp {
		c.logAudit(ctx, id, action, status.State, status.State, nil)
		logging.Debugf("node %s: %s is a no-op from %s", id, action, status.State)
		return nil
	}

	if err := c.registry.SetNodeState(ctx, id, res.Next); err != nil {
		c.logAudit(ctx, id, action, status.State, status.State, err)
		return fmt.Errorf("persisting state transition for %s: %w", id, err)
	}
	c.logAudit(ctx, id, action, status.State, res.Next, nil)
	logging.Infof("node %s: %s %s -> %s", id, action, status.State, res.Next)
	return nil
}

func (c *Controller) applyBatch(ctx context.Context, ids []uuid.UUID, cmd statemachine.Command, action string) []NodeResult {
	results := make([]NodeResult, 0, len(ids))
	for _, id := range ids {
		err := c.applyOne(ctx, id, cmd, action)
		if err != nil {
			if errors.Is(err, ErrNodeNotFound) || errors.Is(err, statemachine.ErrInvalidNodeState) {
				logging.Warnf("batch %s: node %s: %v", action, id, err)
			}
		}
		results = append(results, NodeResult{NodeID: id, Err: err})
	}
	return results
}

func (c *Controller) logAudit(ctx context.Context, id uuid.UUID, action string, from, to model.OperationalState, err error) {
	if c.audit == nil {
		return
	}
	c.audit.LogAction(ctx, id, action, from, to, err)
}
