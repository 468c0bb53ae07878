// Copyright (c) 2026 nodeadmin authors
// nodeadmin - node administrative lifecycle controller
// This source code is licensed under the MIT license found in the LICENSE file.

// Package pipeline provides an in-memory reference implementation of the
// pipeline manager collaborator. The real pipeline manager owns pipeline
// consensus and membership entirely outside this module; this type exists
// so the CLI's serve command and the test suite have something concrete to
// exercise the drain gates against.
package pipeline // import "github.com/scmadmin/nodeadmin/internal/pipeline"

import (
	"context"
	"fmt"
	"sync"

	"github.com/scmadmin/nodeadmin/internal/drain"
	"github.com/scmadmin/nodeadmin/internal/model"
)

// Manager is a concurrency-safe, in-memory PipelineManager reference
// implementation.
type Manager struct {
	mu        sync.RWMutex
	pipelines map[model.PipelineID]model.Pipeline
}

// New builds an empty Manager.
func New() *Manager {
	return &Manager{pipelines: make(map[model.PipelineID]model.Pipeline)}
}

// Put inserts or replaces a pipeline record, used by test setup.
func (m *Manager) Put(p model.Pipeline) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pipelines[p.ID] = p
}

// GetPipeline returns the current state of a tracked pipeline.
func (m *Manager) GetPipeline(_ context.Context, id model.PipelineID) (model.Pipeline, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pipelines[id]
	if !ok {
		return model.Pipeline{}, fmt.Errorf("%w: %s", drain.ErrPipelineNotFound, id)
	}
	return p, nil
}

// FinalizeAndDestroyPipeline implements drain.PipelineManager: it marks the
// pipeline closed. closedByCommand records whether the closure was driven
// by the pipeline drain gate rather than the pipeline manager's own
// consensus, which the real implementation would use to skip redundant
// quorum checks; the reference implementation just records the outcome.
func (m *Manager) FinalizeAndDestroyPipeline(_ context.Context, id model.PipelineID, closedByCommand bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pipelines[id]
	if !ok {
		return fmt.Errorf("%w: %s", drain.ErrPipelineNotFound, id)
	}
	p.State = model.PipelineClosed
	m.pipelines[id] = p
	return nil
}

// HasOpenPipelines reports whether any of the given pipelines is still
// OPEN. The serve command wraps it in the open-pipeline check it passes to
// drain.NewReplicationDrainGate.
func (m *Manager) HasOpenPipelines(ids []model.PipelineID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range ids {
		if p, ok := m.pipelines[id]; ok && p.State == model.PipelineOpen {
			return true
		}
	}
	return false
}
