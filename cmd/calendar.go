package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/oncall/core/calendar"
)

var calendarYear int

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "List the call days of a year's window",
	RunE:  runCalendar,
}

func init() {
	calendarCmd.Flags().IntVar(&calendarYear, "year", 0, "calendar year (defaults to scheduler.year)")
	rootCmd.AddCommand(calendarCmd)
}

func runCalendar(cmd *cobra.Command, _ []string) error {
	year := calendarYear
	if year == 0 {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		year = cfg.Scheduler.Year
	}
	w, err := calendar.Generate(year)
	if err != nil {
		return couldNotCompute(err)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DAY\tWEEKDAY\tTYPE")
	for _, d := range w.All() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.ID(), d.Date.Weekday(), d.Type)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	s := w.Stats
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "\n%d call days: %d short, %d saturday, %d sunday (%d weeks)\n",
		s.Total, s.ShortCall, s.Saturday, s.Sunday, w.Weeks())
	return err
}
