package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/wildfire/config"
	"github.com/kilianp07/wildfire/core/dispatch"
	"github.com/kilianp07/wildfire/core/dispatch/logging"
	"github.com/kilianp07/wildfire/core/ingest"
	"github.com/kilianp07/wildfire/core/report"
	"github.com/kilianp07/wildfire/core/runner"
	"github.com/kilianp07/wildfire/infra/logger"
	"github.com/kilianp07/wildfire/infra/snapshot"
	"github.com/kilianp07/wildfire/pkg/export"
)

type simulateOpts struct {
	out      string
	policy   string
	interval int
	verbose  bool
	chart    bool
	csv      bool
	analyze  bool
}

var simOpts simulateOpts

var simulateCmd = &cobra.Command{
	Use:   "simulate <incidents.csv|incidents.json>",
	Short: "Run a batch dispatch over an incident file",
	Args:  cobra.ExactArgs(1),
	RunE:  simulate,
}

func init() {
	f := simulateCmd.Flags()
	f.StringVarP(&simOpts.out, "out", "o", ".", "output directory")
	f.StringVar(&simOpts.policy, "policy", "", "selection policy (overrides config)")
	f.IntVar(&simOpts.interval, "interval", 0, "write system_state.json every N incidents (negative: final only)")
	f.BoolVarP(&simOpts.verbose, "verbose", "v", false, "print the summary report")
	f.BoolVar(&simOpts.chart, "chart", false, "render report.html")
	f.BoolVar(&simOpts.csv, "csv", false, "export the audit trail as event_log.csv")
	f.BoolVar(&simOpts.analyze, "analyze", false, "write analysis.json with distributions and hindsight cost")
	rootCmd.AddCommand(simulateCmd)
}

func simulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if simOpts.policy != "" {
		cfg.Dispatch.Policy = simOpts.policy
	}
	incidents, err := ingest.LoadFile(args[0])
	if err != nil {
		return fmt.Errorf("load incidents: %w", err)
	}
	writer, err := snapshot.NewFileWriter(snapshot.Config{Dir: simOpts.out, Interval: simOpts.interval})
	if err != nil {
		return err
	}
	audit, err := logging.Open(cfg.Logging)
	if err != nil {
		return fmt.Errorf("audit store: %w", err)
	}
	logg := logger.New("simulate")
	if audit != nil {
		defer func() {
			if err := audit.Close(); err != nil {
				logg.Errorf("audit close: %v", err)
			}
		}()
	}

	r := &runner.Runner{
		Resources:   cfg.Resources,
		DamageCosts: cfg.DamageCosts,
		Policy:      cfg.Dispatch.Policy,
		Log:         logger.New("dispatch"),
		Audit:       audit,
		Observers:   func() []dispatch.Observer { return []dispatch.Observer{writer} },
	}
	out, err := r.Run(ctx, runner.Request{Incidents: incidents})
	if err != nil {
		return err
	}
	logg.Infof("run %s: %d incidents, %d addressed, %d missed",
		out.Result.RunID, out.Report.TotalEvents, out.Report.FiresAddressed, out.Report.FiresMissed)

	if simOpts.verbose {
		if err := report.WriteSummary(cmd.OutOrStdout(), out.Report); err != nil {
			return err
		}
	}
	if simOpts.chart {
		if err := writeOutput("report.html", func(f *os.File) error {
			return export.RenderChart(f, out.Report, out.Result.Records)
		}); err != nil {
			return err
		}
	}
	if simOpts.csv {
		if err := writeOutput("event_log.csv", func(f *os.File) error {
			return export.WriteCSV(f, out.Result.Records)
		}); err != nil {
			return err
		}
	}
	if simOpts.analyze {
		damage, err := cfg.DamageTable()
		if err != nil {
			return err
		}
		a, err := report.Analyze(out.Result.Records, out.Result.Kinds, damage)
		if err != nil {
			return err
		}
		if err := writeOutput("analysis.json", func(f *os.File) error {
			return export.WriteJSON(f, a)
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeOutput(name string, write func(*os.File) error) (err error) {
	f, err := os.Create(filepath.Join(simOpts.out, name))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}
