package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/oncall/core/assign"
)

// WriteLoadChart renders a bar chart of assigned calls against slot budget
// per resident as a standalone HTML page.
func WriteLoadChart(w io.Writer, title string, res *assign.Result) error {
	ids := make([]string, 0, len(res.Load))
	for id := range res.Load {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	load := make([]opts.BarData, 0, len(ids))
	budget := make([]opts.BarData, 0, len(ids))
	for _, id := range ids {
		load = append(load, opts.BarData{Value: res.Load[id]})
		budget = append(budget, opts.BarData{Value: res.Budget[id]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("coverage %.1f%%, mean %.2f, std dev %.2f", 100*res.Coverage(), res.Stats.Mean, res.Stats.StdDev),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Resident"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Calls"}),
	)
	bar.SetXAxis(ids).
		AddSeries("Assigned", load).
		AddSeries("Budget", budget)

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("render load chart: %w", err)
	}
	return nil
}
