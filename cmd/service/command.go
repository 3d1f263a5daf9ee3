package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/chronicle-ai/chronicle/app/core"
	v1 "github.com/chronicle-ai/chronicle/app/logic/v1"
)

type Options struct {
	ConfigPath string
}

func (o *Options) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&o.ConfigPath, "config", "c", "", "init api by given config")
}

func NewCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "service",
		Short: "document qa service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(opts)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func Run(opts *Options) error {
	app := core.MustSetupCore(core.MustLoadBaseConfig(opts.ConfigPath))
	serve(app)

	return nil
}

// NewWorkerCommand runs only the knowledge-graph ingestion loop, for
// deployments that split the API from background extraction.
func NewWorkerCommand() *cobra.Command {
	opts := &Options{}
	var interval time.Duration
	var batch int

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "knowledge graph ingestion worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunWorker(opts, interval, batch)
		},
	}
	opts.AddFlags(cmd.Flags())
	cmd.Flags().DurationVar(&interval, "interval", time.Minute, "time between ingestion sweeps")
	cmd.Flags().IntVar(&batch, "batch", 5, "documents claimed per sweep")
	return cmd
}

func RunWorker(opts *Options, interval time.Duration, batch int) error {
	app := core.MustSetupCore(core.MustLoadBaseConfig(opts.ConfigPath))
	fmt.Println("Worker starting...")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-sigs:
			return nil
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			report, err := v1.NewIngestionLogic(ctx, app).RunOnce(batch)
			cancel()
			if err != nil {
				slog.Error("ingestion sweep failed", slog.String("error", err.Error()))
				continue
			}
			if report.Claimed > 0 {
				slog.Info("ingestion sweep finished",
					slog.Int64("run_id", report.RunID),
					slog.Int("claimed", report.Claimed),
					slog.Int("completed", report.Completed),
					slog.Int("failed", report.Failed))
			}
		}
	}
}
