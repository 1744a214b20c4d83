package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/wildfire/config"
	"github.com/kilianp07/wildfire/core/dispatch/logging"
	"github.com/kilianp07/wildfire/infra/logger"
	"github.com/kilianp07/wildfire/jobs/audit"
)

var auditRunID string

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Replay the audit store and verify each run's accounting",
	RunE:  runAudit,
}

func init() {
	auditCmd.Flags().StringVar(&auditRunID, "run", "", "restrict to one run ID")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := logging.Open(cfg.Logging)
	if err != nil {
		return fmt.Errorf("audit store: %w", err)
	}
	if store == nil {
		return fmt.Errorf("no audit store configured (logging.backend)")
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	runs, err := audit.Replay(ctx, store, logging.AuditQuery{RunID: auditRunID})
	if err != nil {
		return err
	}
	logg := logger.New("audit")
	failed := 0
	w := cmd.OutOrStdout()
	for _, r := range runs {
		acc := r.Accounting
		fmt.Fprintf(w, "%s\t%d records\t%d addressed\t%d missed\toperational %.2f\tdamage %.2f\n",
			r.RunID, r.Records, acc.Addressed(), acc.Missed(), acc.OperationalCost, acc.MissedResponseCost)
		if !r.OK() {
			failed++
			for _, p := range r.Problems {
				logg.Errorf("run %s: %s", r.RunID, p)
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d runs failed verification", failed, len(runs))
	}
	return nil
}
