// Copyright (c) 2026 nodeadmin authors
// nodeadmin - node administrative lifecycle controller
// This source code is licensed under the MIT license found in the LICENSE file.

// Package eventbus provides a minimal in-process publish/subscribe
// dispatcher for the PipelineReport and NodeReplicationReport events the
// drain gates consume. No pub/sub library appears anywhere in the
// reference corpus this module was built from, and the event bus itself
// is an external collaborator the rest of the cluster owns; this
// implementation exists only so tests and the standalone CLI have
// something concrete to wire the gates against.
package eventbus // import "github.com/scmadmin/nodeadmin/internal/eventbus"

import (
	"sync"

	"github.com/google/uuid"
	"github.com/scmadmin/nodeadmin/internal/model"
)

// PipelineReportHandler receives PipelineReport events.
type PipelineReportHandler func(report model.PipelineReport)

// ReplicationReportHandler receives NodeReplicationReport events.
type ReplicationReportHandler func(report model.NodeReplicationReport)

// Bus dispatches reports to subscribed handlers, preserving per-node
// delivery order: reports for the same datanode are never reordered
// relative to each other, though reports for different nodes may be
// delivered concurrently.
type Bus struct {
	mu sync.RWMutex

	pipelineHandlers    []PipelineReportHandler
	replicationHandlers []ReplicationReportHandler

	nodeMu sync.Map // uuid.UUID -> *sync.Mutex, one per node to serialize its event stream
}

// New builds an empty Bus.
func New() *Bus {
	return &Bus{}
}

// SubscribePipelineReports registers a handler invoked for every published
// PipelineReport.
func (b *Bus) SubscribePipelineReports(h PipelineReportHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pipelineHandlers = append(b.pipelineHandlers, h)
}

// SubscribeReplicationReports registers a handler invoked for every
// published NodeReplicationReport.
func (b *Bus) SubscribeReplicationReports(h ReplicationReportHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replicationHandlers = append(b.replicationHandlers, h)
}

// PublishPipelineReport delivers report to every subscribed handler,
// serialized per-node so a handler never sees two reports for the same
// datanode out of order.
func (b *Bus) PublishPipelineReport(report model.PipelineReport) {
	lock := b.lockFor(report.DatanodeID)
	lock.Lock()
	defer lock.Unlock()

	b.mu.RLock()
	handlers := append([]PipelineReportHandler(nil), b.pipelineHandlers...)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(report)
	}
}

// PublishReplicationReport delivers report to every subscribed handler,
// serialized per-node.
func (b *Bus) PublishReplicationReport(report model.NodeReplicationReport) {
	lock := b.lockFor(report.DatanodeID)
	lock.Lock()
	defer lock.Unlock()

	b.mu.RLock()
	handlers := append([]ReplicationReportHandler(nil), b.replicationHandlers...)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(report)
	}
}

func (b *Bus) lockFor(id uuid.UUID) *sync.Mutex {
	v, _ := b.nodeMu.LoadOrStore(id, &sync.Mutex{})
	return v.(*sync.Mutex)
}
