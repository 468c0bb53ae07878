// Copyright (c) 2026 nodeadmin authors
// nodeadmin - node administrative lifecycle controller
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history NODE_ID",
		Short: "Show the audit trail recorded for a datanode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFromCmd(cmd)
			if a.auditStore == nil {
				return fmt.Errorf("audit trail is not configured")
			}

			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid node id %q: %w", args[0], err)
			}

			entries, err := a.auditStore.GetAuditHistory(cmd.Context(), id)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-20s %s -> %-20s %s %s\n",
					e.RecordedAt.Format("2006-01-02T15:04:05Z07:00"), e.Action, e.FromState, e.ToState, e.Outcome, e.Detail)
			}
			return nil
		},
	}
	return cmd
}
