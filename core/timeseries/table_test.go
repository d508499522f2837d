package timeseries

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metrix-mapping/internal/errors"
)

func hourlyIndex(n int) []time.Time {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	index := make([]time.Time, n)
	for i := range index {
		index[i] = start.Add(time.Duration(i) * time.Hour)
	}
	return index
}

func testTable(t *testing.T) *InMemoryTable {
	t.Helper()
	table := NewInMemoryTable(hourlyIndex(4))
	require.NoError(t, table.AddSeries("constant", 1, []float64{5, 5, 5, 5}))
	require.NoError(t, table.AddSeries("ramp", 1, []float64{1, 2, 3, 4}))
	require.NoError(t, table.AddSeries("ramp", 2, []float64{10, 20, 30, 40}))
	return table
}

func TestTableResolveAndRead(t *testing.T) {
	table := testTable(t)

	num, err := table.ResolveIndex("ramp")
	require.NoError(t, err)
	assert.Equal(t, 1, num)
	assert.Equal(t, 3.0, table.GetDouble(num, 1, 2))
	assert.Equal(t, 30.0, table.GetDouble(num, 2, 2))
	assert.True(t, math.IsNaN(table.GetDouble(num, 3, 0)))
	assert.True(t, math.IsNaN(table.GetDouble(num, 1, 10)))

	_, err = table.ResolveIndex("missing")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeNotFound))

	assert.Equal(t, []int{1, 2}, table.Versions())
}

func TestTableRejectsIndexMismatch(t *testing.T) {
	table := NewInMemoryTable(hourlyIndex(3))
	err := table.AddSeries("short", 1, []float64{1, 2})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeData))
}

func TestStdDev(t *testing.T) {
	table := testTable(t)

	assert.Equal(t, 0.0, table.StdDev(0, 1))
	assert.InDelta(t, math.Sqrt(1.25), table.StdDev(1, 1), 1e-12)

	require.NoError(t, table.AddSeries("constant", 1, []float64{1, 2, 1, 2}))
	assert.InDelta(t, 0.5, table.StdDev(0, 1), 1e-12, "cache must be invalidated on overwrite")
}

func TestPrecomputeStdDev(t *testing.T) {
	table := testTable(t)
	require.NoError(t, table.PrecomputeStdDev(context.Background(), []int{1}, 4))

	table.mu.RLock()
	assert.Len(t, table.std, 2)
	table.mu.RUnlock()

	err := table.PrecomputeStdDev(context.Background(), []int{7}, 2)
	assert.Error(t, err)
}

func TestPrecomputeStdDevChecksVersionsFirst(t *testing.T) {
	table := testTable(t)

	err := table.PrecomputeStdDev(context.Background(), []int{1, 7}, 2)
	assert.True(t, errors.IsType(err, errors.TypeNotFound), "%v", err)

	table.mu.RLock()
	defer table.mu.RUnlock()
	assert.Empty(t, table.std, "nothing computed when a version is missing")
}

func TestWindow(t *testing.T) {
	table := testTable(t)

	first, last, err := Window(table, 1, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, first)
	assert.Equal(t, 3, last)

	_, _, err = Window(table, 3, 2)
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	table := testTable(t)

	s, err := Summarize(table, "ramp", []int{1, 2}, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 40.0, s.Max)
	assert.Equal(t, 110.0, s.Sum)
	assert.Equal(t, 13.75, s.Mean)
	assert.Equal(t, 10.0, s.Median)

	_, err = Summarize(table, "nope", []int{1}, 0, -1)
	assert.Error(t, err)
}
