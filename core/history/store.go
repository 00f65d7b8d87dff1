// Package history persists one record per scheduling run so past schedules
// can be listed, filtered and exported again.
package history

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/kilianp07/oncall/core/model"
)

// ErrNotFound is returned by Get for an unknown run ID.
var ErrNotFound = errors.New("history: run not found")

// Run outcomes.
const (
	StatusFeasible   = "feasible"
	StatusInfeasible = "infeasible"
	StatusFailed     = "failed"
)

// Record is the stored summary of one run.
type Record struct {
	RunID       string             `json:"run_id"`
	Timestamp   time.Time          `json:"timestamp"`
	Source      string             `json:"source,omitempty"`
	Year        int                `json:"year"`
	Status      string             `json:"status"`
	Residents   int                `json:"residents"`
	CallDays    int                `json:"call_days"`
	Required    int64              `json:"required"`
	TotalFlow   int64              `json:"total_flow"`
	UnmetDays   []string           `json:"unmet_days,omitempty"`
	Load        map[string]int     `json:"load,omitempty"`
	Assignments []model.Assignment `json:"assignments,omitempty"`
	Error       string             `json:"error,omitempty"`
	DurationMS  float64            `json:"duration_ms"`
}

// Query filters records. Zero fields match everything.
type Query struct {
	Start      time.Time
	End        time.Time
	Year       int
	Status     string
	ResidentID string
	// Limit keeps the most recent records only.
	Limit int
}

// Match reports whether r passes the filters of q, Limit aside.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Year != 0 && r.Year != q.Year {
		return false
	}
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	if q.ResidentID != "" {
		if _, ok := r.Load[q.ResidentID]; !ok {
			return slices.ContainsFunc(r.Assignments, func(a model.Assignment) bool {
				return a.ResidentID == q.ResidentID
			})
		}
	}
	return true
}

// Store persists run records.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Get(ctx context.Context, runID string) (Record, error)
	Close() error
}

// finish sorts by timestamp and applies the limit.
func finish(recs []Record, limit int) []Record {
	slices.SortStableFunc(recs, func(a, b Record) int { return a.Timestamp.Compare(b.Timestamp) })
	if limit > 0 && len(recs) > limit {
		recs = recs[len(recs)-limit:]
	}
	return recs
}
