// Package export renders schedule results as JSON, CSV or an HTML chart.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kilianp07/oncall/core/assign"
	"github.com/kilianp07/oncall/core/model"
)

// WriteJSON writes the full result to w as indented JSON.
func WriteJSON(w io.Writer, res *assign.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// WriteCSV writes one row per assignment.
func WriteCSV(w io.Writer, assignments []model.Assignment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"resident_id", "call_day_id", "call_type", "date"}); err != nil {
		return err
	}
	for _, a := range assignments {
		rec := []string{a.ResidentID, a.CallDayID, a.CallType.String(), a.Date.Format(model.DayLayout)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteUnmetCSV writes one row per understaffed day.
func WriteUnmetCSV(w io.Writer, unmet []model.UnmetDay) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"call_day_id", "date", "call_type", "required", "assigned"}); err != nil {
		return err
	}
	for _, u := range unmet {
		rec := []string{
			u.Day.ID(),
			u.Day.Date.Format(model.DayLayout),
			u.Day.Type.String(),
			strconv.Itoa(u.Required),
			strconv.Itoa(u.Assigned),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
