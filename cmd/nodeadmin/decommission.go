// Copyright (c) 2026 nodeadmin authors
// nodeadmin - node administrative lifecycle controller
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/scmadmin/nodeadmin/internal/admin"
)

func newDecommissionCmd() *cobra.Command {
	var files []string
	cmd := &cobra.Command{
		Use:   "decommission [HOST[:PORT] ...]",
		Short: "Start decommissioning one or more datanodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFromCmd(cmd)

			groups, err := hostGroups(args, files)
			if err != nil {
				return err
			}

			var g errgroup.Group
			var outMu sync.Mutex
			for _, group := range groups {
				group := group
				g.Go(func() error {
					return runBatch(cmd, a, &outMu, group, a.controller.DecommissionNodes)
				})
			}
			return g.Wait()
		},
	}
	cmd.Flags().StringArrayVar(&files, "file", nil, "file of newline-separated HOST[:PORT] entries; repeatable, each file resolves and transitions independently")
	return cmd
}

func newRecommissionCmd() *cobra.Command {
	var files []string
	cmd := &cobra.Command{
		Use:   "recommission [HOST[:PORT] ...]",
		Short: "Return one or more datanodes to service",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFromCmd(cmd)
			groups, err := hostGroups(args, files)
			if err != nil {
				return err
			}
			var g errgroup.Group
			var outMu sync.Mutex
			for _, group := range groups {
				group := group
				g.Go(func() error {
					return runBatch(cmd, a, &outMu, group, a.controller.RecommissionNodes)
				})
			}
			return g.Wait()
		},
	}
	cmd.Flags().StringArrayVar(&files, "file", nil, "file of newline-separated HOST[:PORT] entries; repeatable")
	return cmd
}

func newStartMaintenanceCmd() *cobra.Command {
	var files []string
	cmd := &cobra.Command{
		Use:   "start-maintenance [HOST[:PORT] ...]",
		Short: "Begin maintenance draining for one or more datanodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFromCmd(cmd)
			groups, err := hostGroups(args, files)
			if err != nil {
				return err
			}
			var g errgroup.Group
			var outMu sync.Mutex
			for _, group := range groups {
				group := group
				g.Go(func() error {
					return runBatch(cmd, a, &outMu, group, a.controller.StartMaintenanceNodes)
				})
			}
			return g.Wait()
		},
	}
	cmd.Flags().StringArrayVar(&files, "file", nil, "file of newline-separated HOST[:PORT] entries; repeatable")
	return cmd
}

// hostGroups splits the work into independent batches: the positional
// arguments form one batch, and each --file supplies one more. Each batch
// resolves and transitions as its own all-or-nothing unit.
func hostGroups(args []string, files []string) ([][]string, error) {
	var groups [][]string
	if len(args) > 0 {
		groups = append(groups, args)
	}
	for _, path := range files {
		hosts, err := readHostFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		groups = append(groups, hosts)
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("no hosts supplied: pass HOST[:PORT] arguments or --file")
	}
	return groups, nil
}

func readHostFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var hosts []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		hosts = append(hosts, line)
	}
	return hosts, scanner.Err()
}

// runBatch resolves and transitions one independent batch of hosts. outMu
// serializes writes to cmd's output/error streams across the sibling
// goroutines a multi-batch command spawns, since cmd.OutOrStdout() and
// cmd.ErrOrStderr() are shared writers with no concurrency guarantee of
// their own.
func runBatch(cmd *cobra.Command, a *app, outMu *sync.Mutex, hosts []string, apply func(ctx context.Context, ids []uuid.UUID) []admin.NodeResult) error {
	ids, err := a.resolver.Resolve(cmd.Context(), hosts)
	if err != nil {
		outMu.Lock()
		fmt.Fprintf(cmd.ErrOrStderr(), "batch %v: %v\n", hosts, err)
		outMu.Unlock()
		return err
	}

	uuids := make([]uuid.UUID, len(ids))
	for i, id := range ids {
		uuids[i] = id.ID
	}

	results := apply(cmd.Context(), uuids)

	outMu.Lock()
	defer outMu.Unlock()
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "node %s: %v\n", r.NodeID, r.Err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "node %s: ok\n", r.NodeID)
	}
	return nil
}
