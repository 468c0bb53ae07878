// Copyright (c) 2026 nodeadmin authors
// nodeadmin - node administrative lifecycle controller
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/scmadmin/nodeadmin/internal/admin"
	"github.com/scmadmin/nodeadmin/internal/audit"
	"github.com/scmadmin/nodeadmin/internal/config"
	"github.com/scmadmin/nodeadmin/internal/hostresolver"
	"github.com/scmadmin/nodeadmin/internal/logging"
	"github.com/scmadmin/nodeadmin/internal/pipeline"
	"github.com/scmadmin/nodeadmin/internal/registry"
)

var cfgFile string

// app bundles every collaborator a subcommand might need. It is built once
// in PersistentPreRunE and threaded through via the command's context.
type app struct {
	cfg        config.Config
	registry   *registry.Registry
	pipeline   *pipeline.Manager
	resolver   *hostresolver.Resolver
	controller *admin.Controller
	auditStore *audit.Store
}

type appKey struct{}

func appFromCmd(cmd *cobra.Command) *app {
	return cmd.Context().Value(appKey{}).(*app)
}

// NewRootCmd creates and configures the root nodeadmin command. Exposed as
// a constructor (rather than a package-level var) so tests can build fresh,
// isolated command trees.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nodeadmin",
		Short: "nodeadmin drives datanode decommission, recommission, and maintenance.",
		Long: `nodeadmin is the administrative entry point for a storage cluster's
node lifecycle: decommissioning datanodes for permanent removal, recommissioning
them back to service, and taking them through operator-initiated maintenance.
The node registry, pipeline manager, and replication manager it talks to are
external services; this binary wires an in-memory reference implementation
of each for standalone and test use.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cmd, cfgFile)
			if err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					return fmt.Errorf("loading config: %w", err)
				}
				// A missing config file is fine; operators can run entirely
				// off flags/env/defaults.
			}

			reg := registry.New()
			pm := pipeline.New()
			resolver := hostresolver.New(reg, hostresolver.NewDefaultDNSResolver(), cfg.UseHostnames)

			var auditStore *audit.Store
			if cfg.Audit.Type != "" {
				auditStore, err = audit.Open(cfg.Audit.Type, cfg.Audit.DSN)
				if err != nil {
					logging.Warnf("audit store unavailable, continuing without audit trail: %v", err)
				}
			}

			var opts []admin.Option
			opts = append(opts, admin.WithMonitorInterval(cfg.MonitorInterval()))
			if auditStore != nil {
				opts = append(opts, admin.WithAuditLogger(auditStore))
			}
			controller := admin.New(reg, opts...)

			a := &app{cfg: cfg, registry: reg, pipeline: pm, resolver: resolver, controller: controller, auditStore: auditStore}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a nodeadmin.yaml config file")
	cmd.PersistentFlags().Bool("use-hostnames", false, "canonicalize resolved addresses via reverse DNS hostname instead of dotted address")
	cmd.PersistentFlags().Int("monitor-interval-seconds", 0, "monitor interval in seconds (0 uses the configured default)")
	cmd.PersistentFlags().String("audit-type", "sqlite", "audit database driver: sqlite, postgres, or mysql")
	cmd.PersistentFlags().String("audit-dsn", "nodeadmin-audit.db", "audit database data source name")

	cmd.AddCommand(newDecommissionCmd())
	cmd.AddCommand(newRecommissionCmd())
	cmd.AddCommand(newStartMaintenanceCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newHistoryCmd())

	return cmd
}
