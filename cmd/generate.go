package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/wildfire/config"
	"github.com/kilianp07/wildfire/infra/logger"
	"github.com/kilianp07/wildfire/infra/mqtt"
	"github.com/kilianp07/wildfire/simulator"
)

var (
	genCfg     simulator.Config
	genStart   string
	genOut     string
	genPublish bool
	genPace    time.Duration
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic incident file or publish it to the intake topic",
	RunE:  generate,
}

func init() {
	f := generateCmd.Flags()
	f.IntVarP(&genCfg.Count, "count", "n", 100, "number of incidents")
	f.Int64Var(&genCfg.Seed, "seed", 1, "random seed")
	f.StringVar(&genStart, "start", "", "earliest incident time (RFC3339)")
	f.DurationVar(&genCfg.Span, "span", 24*time.Hour, "window incidents occur in")
	f.DurationVar(&genCfg.MaxReportDelay, "max-report-delay", 2*time.Hour, "maximum delay between fire start and report")
	f.StringVarP(&genOut, "out", "o", "incidents.json", "output file (.json or .csv)")
	f.BoolVar(&genPublish, "publish", false, "publish to mqtt.intake_topic instead of writing a file")
	f.DurationVar(&genPace, "pace", 0, "delay between published incidents")
	rootCmd.AddCommand(generateCmd)
}

func generate(cmd *cobra.Command, args []string) error {
	if genStart != "" {
		t, err := time.Parse(time.RFC3339, genStart)
		if err != nil {
			return fmt.Errorf("start: %w", err)
		}
		genCfg.Start = t
	}
	incidents, err := simulator.Generate(genCfg)
	if err != nil {
		return err
	}
	logg := logger.New("generate")
	if !genPublish {
		if err := simulator.WriteFile(genOut, incidents); err != nil {
			return err
		}
		logg.Infof("wrote %d incidents to %s", len(incidents), genOut)
		return nil
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.MQTT.Enabled() || cfg.MQTT.IntakeTopic == "" {
		return fmt.Errorf("publish requires mqtt.broker and mqtt.intake_topic")
	}
	client, err := mqtt.NewPahoClient(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("mqtt client: %w", err)
	}
	defer client.Disconnect()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	n, err := simulator.Replay(ctx, client, cfg.MQTT.IntakeTopic, incidents, genPace)
	logg.Infof("published %d/%d incidents to %s", n, len(incidents), cfg.MQTT.IntakeTopic)
	return err
}
