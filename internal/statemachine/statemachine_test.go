// Copyright (c) 2026 nodeadmin authors
// nodeadmin - node administrative lifecycle controller
// This source code is licensed under the MIT license found in the LICENSE file.

package statemachine

import (
	"errors"
	"testing"

	"github.com/scmadmin/nodeadmin/internal/model"
)

func TestApply_Table(t *testing.T) {
	cases := []struct {
		name    string
		from    model.OperationalState
		cmd     Command
		wantErr bool
		wantNo  bool
		wantNxt model.OperationalState
	}{
		{"decommission from in-service", model.InService, StartDecommission, false, false, model.Decommissioning},
		{"decommission from decommissioning is noop", model.Decommissioning, StartDecommission, false, true, model.Decommissioning},
		{"decommission from decommissioned is noop", model.Decommissioned, StartDecommission, false, true, model.Decommissioned},
		{"decommission from entering maintenance rejected", model.EnteringMaintenance, StartDecommission, true, false, 0},
		{"decommission from in maintenance rejected", model.InMaintenance, StartDecommission, true, false, 0},

		{"recommission from in-service is noop", model.InService, Recommission, false, true, model.InService},
		{"recommission from decommissioning", model.Decommissioning, Recommission, false, false, model.InService},
		{"recommission from decommissioned", model.Decommissioned, Recommission, false, false, model.InService},
		{"recommission from entering maintenance", model.EnteringMaintenance, Recommission, false, false, model.InService},
		{"recommission from in maintenance", model.InMaintenance, Recommission, false, false, model.InService},

		{"maintenance from in-service", model.InService, StartMaintenance, false, false, model.EnteringMaintenance},
		{"maintenance from decommissioning rejected", model.Decommissioning, StartMaintenance, true, false, 0},
		{"maintenance from decommissioned rejected", model.Decommissioned, StartMaintenance, true, false, 0},
		{"maintenance from entering maintenance is noop", model.EnteringMaintenance, StartMaintenance, false, true, model.EnteringMaintenance},
		{"maintenance from in maintenance is noop", model.InMaintenance, StartMaintenance, false, true, model.InMaintenance},

		{"drain complete decommission from decommissioning", model.Decommissioning, DrainCompleteDecommission, false, false, model.Decommissioned},
		{"drain complete decommission from in-service rejected", model.InService, DrainCompleteDecommission, true, false, 0},

		{"drain complete maintenance from entering maintenance", model.EnteringMaintenance, DrainCompleteMaintenance, false, false, model.InMaintenance},
		{"drain complete maintenance from in-service rejected", model.InService, DrainCompleteMaintenance, true, false, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Apply(tc.from, tc.cmd)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidNodeState) {
					t.Fatalf("expected ErrInvalidNodeState, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.NoOp != tc.wantNo {
				t.Fatalf("NoOp = %v, want %v", res.NoOp, tc.wantNo)
			}
			if res.Next != tc.wantNxt {
				t.Fatalf("Next = %v, want %v", res.Next, tc.wantNxt)
			}
		})
	}
}

func TestApply_UnknownState(t *testing.T) {
	_, err := Apply(model.OperationalState(99), StartDecommission)
	if !errors.Is(err, ErrInvalidNodeState) {
		t.Fatalf("expected ErrInvalidNodeState, got %v", err)
	}
}
