package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/xela07ax/workforce-console/internal/analytics"
	"github.com/xela07ax/workforce-console/internal/audit"
	"github.com/xela07ax/workforce-console/internal/console/service"
	"github.com/xela07ax/workforce-console/internal/filter"
	"go.uber.org/zap"
)

func newWarmupCmd(cfgPath *string) *cobra.Command {
	var tenantID string

	cmd := &cobra.Command{
		Use:   "warmup",
		Short: "Precompute the default analytics window into the snapshot cache",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			a, err := newApp(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer a.close()

			warmer := analytics.NewWarmer(a.aggregator(), a.store, a.rdb, a.logger)
			if tenantID == "" {
				n, err := warmer.Run(ctx)
				if err != nil {
					return err
				}
				a.logger.Info("warm-up finished", zap.Int("tenants", n))
				return nil
			}

			t, err := a.store.GetTenant(ctx, tenantID)
			if err != nil {
				return err
			}
			return warmer.WarmTenant(ctx, *t)
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "warm a single tenant (default: all tenants with analytics)")
	return cmd
}

func newExportEmployeesCmd(cfgPath *string) *cobra.Command {
	var (
		tenantID   string
		department string
		search     string
	)

	cmd := &cobra.Command{
		Use:   "export-employees",
		Short: "Write the employee directory of a tenant as CSV to stdout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer a.close()

			trail := audit.NewTrail(a.store, a.cfg.Audit, a.metrics, a.logger)
			trail.Start()
			defer trail.Stop()

			p := filter.Params{Search: search, Equals: map[string]string{}}
			if department != "" {
				p.Equals["department"] = department
			}

			svc := service.NewEmployeeService(a.store, trail, a.logger)
			n, err := svc.ExportCSV(cmd.Context(), tenantID, p, os.Stdout)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "exported %d employees\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "tenant id")
	cmd.Flags().StringVar(&department, "department", "", "department filter")
	cmd.Flags().StringVar(&search, "search", "", "free-text search")
	cmd.MarkFlagRequired("tenant")
	return cmd
}
