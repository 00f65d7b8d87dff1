package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/oncall/app"
	"github.com/kilianp07/oncall/core/scheduler"
	"github.com/kilianp07/oncall/infra/logger"
	"github.com/kilianp07/oncall/pkg/export"
)

// ErrInfeasible is returned by schedule --strict when days stay unstaffed.
var ErrInfeasible = fmt.Errorf("schedule is infeasible")

var (
	scheduleFormat string
	scheduleOut    string
	scheduleStrict bool
	scheduleYear   int
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule REQUEST",
	Short: "Compute a call schedule from a YAML or JSON request file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchedule,
}

func init() {
	scheduleCmd.Flags().StringVarP(&scheduleFormat, "format", "f", "json", "output format: json, csv, unmet-csv or html")
	scheduleCmd.Flags().StringVarP(&scheduleOut, "out", "o", "-", "output file, - for stdout")
	scheduleCmd.Flags().BoolVar(&scheduleStrict, "strict", false, "exit non-zero when the schedule is infeasible")
	scheduleCmd.Flags().IntVar(&scheduleYear, "year", 0, "override the request year")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	req, err := scheduler.LoadRequest(args[0])
	if err != nil {
		return couldNotCompute(fmt.Errorf("load request: %w", err))
	}
	if scheduleYear != 0 {
		req.Year = scheduleYear
	}

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	logg := logger.New("schedule-command")
	defer func() {
		if err := svc.Close(); err != nil {
			logg.Errorf("service close: %v", err)
		}
	}()

	run, err := svc.Schedule(ctx, req, args[0])
	if err != nil {
		return couldNotCompute(err)
	}

	out := cmd.OutOrStdout()
	if scheduleOut != "-" {
		f, err := os.Create(scheduleOut)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		out = f
	}
	if err := write(out, scheduleFormat, run); err != nil {
		return err
	}

	if run.Result.Infeasible {
		logg.Warnf("run %s left %d of %d resident-days unstaffed", run.ID, run.Result.Required-run.Result.TotalFlow, run.Result.Required)
		if scheduleStrict {
			return ErrInfeasible
		}
	}
	return nil
}

func write(w io.Writer, format string, run *scheduler.Run) error {
	switch format {
	case "json":
		return export.WriteJSON(w, run.Result)
	case "csv":
		return export.WriteCSV(w, run.Result.Assignments)
	case "unmet-csv":
		return export.WriteUnmetCSV(w, run.Result.Unmet)
	case "html":
		return export.WriteLoadChart(w, fmt.Sprintf("On-call load %d", run.Year), run.Result)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
