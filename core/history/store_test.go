package history

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/oncall/core/model"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	jsonl, err := NewJSONLStore(filepath.Join(dir, "runs.jsonl"))
	require.NoError(t, err)
	rotating, err := NewRotatingJSONLStore(filepath.Join(dir, "rot", "runs.jsonl"), 1, 3, 1)
	require.NoError(t, err)
	sqlite, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	stores := map[string]Store{
		"memory":   NewMemoryStore(),
		"jsonl":    jsonl,
		"rotating": rotating,
		"sqlite":   sqlite,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func sampleRecords(base time.Time) []Record {
	day := time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC)
	return []Record{
		{RunID: "r1", Timestamp: base, Year: 2025, Status: StatusFeasible, Required: 2, TotalFlow: 2,
			Load: map[string]int{"alice": 2, "bob": 0},
			Assignments: []model.Assignment{
				{ResidentID: "alice", CallDayID: "2025-07-05", CallType: model.CallSaturday, Date: day},
				{ResidentID: "alice", CallDayID: "2025-07-06", CallType: model.CallSunday, Date: day.AddDate(0, 0, 1)},
			}},
		{RunID: "r2", Timestamp: base.Add(time.Minute), Year: 2025, Status: StatusInfeasible, Required: 42, TotalFlow: 40,
			UnmetDays: []string{"2025-08-30", "2025-08-31"}, Load: map[string]int{"carol": 40}},
		{RunID: "r3", Timestamp: base.Add(2 * time.Minute), Year: 2024, Status: StatusFailed, Error: "bad year"},
	}
}

func TestStoresRoundTripAndFilter(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			recs := sampleRecords(base)
			// append out of order; queries come back sorted by time
			for _, i := range []int{2, 0, 1} {
				require.NoError(t, s.Append(ctx, recs[i]))
			}

			all, err := s.Query(ctx, Query{})
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, []string{"r1", "r2", "r3"}, ids(all))
			assert.Equal(t, recs[0].Assignments, all[0].Assignments)
			assert.True(t, recs[0].Timestamp.Equal(all[0].Timestamp))

			cases := []struct {
				q    Query
				want []string
			}{
				{Query{Year: 2025}, []string{"r1", "r2"}},
				{Query{Status: StatusInfeasible}, []string{"r2"}},
				{Query{ResidentID: "carol"}, []string{"r2"}},
				{Query{ResidentID: "bob"}, []string{"r1"}},
				{Query{Start: base.Add(30 * time.Second)}, []string{"r2", "r3"}},
				{Query{End: base.Add(90 * time.Second)}, []string{"r1", "r2"}},
				{Query{Limit: 2}, []string{"r2", "r3"}},
			}
			for _, tc := range cases {
				got, err := s.Query(ctx, tc.q)
				require.NoError(t, err)
				assert.Equal(t, tc.want, ids(got), "query %+v", tc.q)
			}

			r2, err := s.Get(ctx, "r2")
			require.NoError(t, err)
			assert.Equal(t, []string{"2025-08-30", "2025-08-31"}, r2.UnmetDays)
			_, err = s.Get(ctx, "nope")
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestRotatingJSONLStore_Rotation(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	s, err := NewRotatingJSONLStore(path, 1, 5, 1)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	// three ~400KB records overflow the 1MB limit exactly once
	big := make([]model.Assignment, 3700)
	for i := range big {
		big[i] = model.Assignment{ResidentID: fmt.Sprintf("resident-%04d", i), CallDayID: "2025-07-05", CallType: model.CallShort}
	}
	base := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Append(ctx, Record{RunID: fmt.Sprintf("run-%d", i), Timestamp: base.Add(time.Duration(i) * time.Second), Assignments: big}))
	}
	files, err := s.files()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(files), 2, "expected a rotated backup")

	out, err := s.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "run-0", out[0].RunID)
	assert.Equal(t, "run-2", out[2].RunID)
}

func TestSQLiteReplacesSameRunID(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sub", "runs.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	now := time.Now()
	require.NoError(t, s.Append(ctx, Record{RunID: "x", Timestamp: now, Status: StatusFailed}))
	require.NoError(t, s.Append(ctx, Record{RunID: "x", Timestamp: now, Status: StatusFeasible}))
	out, err := s.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, StatusFeasible, out[0].Status)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(Config{Backend: "jsonl", Path: filepath.Join(dir, "a.jsonl")})
	require.NoError(t, err)
	assert.IsType(t, &JSONLStore{}, s)

	s, err = Open(Config{Backend: "jsonl", Path: filepath.Join(dir, "b.jsonl"), MaxSizeMB: 5})
	require.NoError(t, err)
	assert.IsType(t, &RotatingJSONLStore{}, s)
	_ = s.Close()

	s, err = Open(Config{Backend: "sqlite", Path: filepath.Join(dir, "c.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	_ = s.Close()

	s, err = Open(Config{Backend: "none"})
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = Open(Config{Backend: "postgres"})
	assert.Error(t, err)
	_, err = Open(Config{Backend: "jsonl", Path: "x", MaxBackups: -1})
	assert.Error(t, err)
}

func ids(recs []Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.RunID
	}
	return out
}
