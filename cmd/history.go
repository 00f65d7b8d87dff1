package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/oncall/core/history"
)

var (
	historyQuery history.Query
	historySince string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded scheduling runs",
	RunE:  runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show RUN_ID",
	Short: "Print one recorded run as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	f := historyCmd.Flags()
	f.IntVar(&historyQuery.Year, "year", 0, "only runs for this year")
	f.StringVar(&historyQuery.Status, "status", "", "feasible, infeasible or failed")
	f.StringVar(&historyQuery.ResidentID, "resident", "", "only runs involving this resident")
	f.IntVar(&historyQuery.Limit, "limit", 20, "most recent runs to show, 0 for all")
	f.StringVar(&historySince, "since", "", "only runs at or after this date (YYYY-MM-DD)")
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory(cmd *cobra.Command) (history.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	store, err := history.Open(cfg.History)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("history is disabled (backend %q)", cfg.History.Backend)
	}
	return store, nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	q := historyQuery
	if historySince != "" {
		t, err := time.Parse("2006-01-02", historySince)
		if err != nil {
			return fmt.Errorf("--since: %w", err)
		}
		q.Start = t
	}
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	recs, err := store.Query(cmd.Context(), q)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tTIME\tYEAR\tSTATUS\tFLOW\tREQUIRED\tUNMET\tSOURCE")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\t%d\t%d\t%s\n",
			r.RunID, r.Timestamp.Format(time.RFC3339), r.Year, r.Status, r.TotalFlow, r.Required, len(r.UnmetDays), r.Source)
	}
	return tw.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	rec, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
