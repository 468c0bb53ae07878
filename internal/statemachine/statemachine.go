// Copyright (c) 2026 nodeadmin authors
// nodeadmin - node administrative lifecycle controller
// This source code is licensed under the MIT license found in the LICENSE file.

// Package statemachine holds the pure transition table governing a
// datanode's OperationalState. It performs no I/O and is consulted by the
// admin controller for every administrative command.
package statemachine // import "github.com/scmadmin/nodeadmin/internal/statemachine"

import (
	"errors"
	"fmt"

	"github.com/scmadmin/nodeadmin/internal/model"
)

// ErrInvalidNodeState is returned when a command is illegal for the node's
// current operational state.
var ErrInvalidNodeState = errors.New("invalid node state transition")

// Command identifies one of the administrative commands the state machine
// can apply.
type Command int

const (
	StartDecommission Command = iota
	Recommission
	StartMaintenance
	DrainCompleteDecommission
	DrainCompleteMaintenance
)

// outcome describes what applying a command to a given state produces.
type outcome struct {
	next  model.OperationalState
	noop  bool
	valid bool
}

// table is the data-driven transition grid of spec §4.2. It is consulted
// exhaustively by Apply rather than branched on with if/else, so illegal
// transitions are checkable by inspection.
var table = map[model.OperationalState]map[Command]outcome{
	model.InService: {
		StartDecommission: {next: model.Decommissioning, valid: true},
		Recommission:      {next: model.InService, noop: true, valid: true},
		StartMaintenance:  {next: model.EnteringMaintenance, valid: true},
	},
	model.Decommissioning: {
		StartDecommission:         {next: model.Decommissioning, noop: true, valid: true},
		Recommission:              {next: model.InService, valid: true},
		StartMaintenance:          {valid: false},
		DrainCompleteDecommission: {next: model.Decommissioned, valid: true},
	},
	model.Decommissioned: {
		StartDecommission: {next: model.Decommissioned, noop: true, valid: true},
		Recommission:      {next: model.InService, valid: true},
		StartMaintenance:  {valid: false},
	},
	model.EnteringMaintenance: {
		StartDecommission:        {valid: false},
		Recommission:             {next: model.InService, valid: true},
		StartMaintenance:         {next: model.EnteringMaintenance, noop: true, valid: true},
		DrainCompleteMaintenance: {next: model.InMaintenance, valid: true},
	},
	model.InMaintenance: {
		StartDecommission: {valid: false},
		Recommission:      {next: model.InService, valid: true},
		StartMaintenance:  {next: model.InMaintenance, noop: true, valid: true},
	},
}

// Result is the outcome of applying a command to a state.
type Result struct {
	// Next is the resulting state. Equal to the input state for no-ops and
	// for rejected transitions (callers must check Err before using Next).
	Next model.OperationalState
	// NoOp is true when the command was accepted but changed nothing.
	NoOp bool
}

// Apply evaluates command against current and returns the resulting state,
// or ErrInvalidNodeState if the transition is illegal for current.
func Apply(current model.OperationalState, cmd Command) (Result, error) {
	row, ok := table[current]
	if !ok {
		return Result{Next: current}, fmt.Errorf("%w: unknown state %s", ErrInvalidNodeState, current)
	}
	o, ok := row[cmd]
	if !ok || !o.valid {
		return Result{Next: current}, fmt.Errorf("%w: command %d not permitted from %s", ErrInvalidNodeState, cmd, current)
	}
	if o.noop {
		return Result{Next: current, NoOp: true}, nil
	}
	return Result{Next: o.next}, nil
}
