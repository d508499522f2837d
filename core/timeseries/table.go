// Package timeseries provides the tabular time series source read by the engine.
package timeseries

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"metrix-mapping/internal/errors"
)

// Table is a set of named series sharing one time index, per version
type Table interface {
	// Index returns the shared time index
	Index() []time.Time

	// Versions returns the available versions in ascending order
	Versions() []int

	// Names returns the series names in column order
	Names() []string

	// ResolveIndex returns the column number of a series
	ResolveIndex(name string) (int, error)

	// GetDouble returns the value of a column at a version and point
	GetDouble(num, version, point int) float64

	// StdDev returns the population standard deviation of a column for a version
	StdDev(num, version int) float64
}

type stdKey struct {
	num     int
	version int
}

// InMemoryTable is a fully materialized Table
type InMemoryTable struct {
	index    []time.Time
	names    []string
	byName   map[string]int
	versions map[int][][]float64

	mu  sync.RWMutex
	std map[stdKey]float64
}

// NewInMemoryTable creates an empty table on a time index
func NewInMemoryTable(index []time.Time) *InMemoryTable {
	return &InMemoryTable{
		index:    index,
		byName:   make(map[string]int),
		versions: make(map[int][][]float64),
		std:      make(map[stdKey]float64),
	}
}

// AddSeries stores the values of one series for one version.
// Every series must match the shared index length.
func (t *InMemoryTable) AddSeries(name string, version int, values []float64) error {
	if len(values) != len(t.index) {
		return errors.Newf(errors.TypeData, "time series '%s' of version %d has %d points, index has %d",
			name, version, len(values), len(t.index))
	}
	num, ok := t.byName[name]
	if !ok {
		num = len(t.names)
		t.names = append(t.names, name)
		t.byName[name] = num
	}
	cols := t.versions[version]
	for len(cols) <= num {
		cols = append(cols, nil)
	}
	cols[num] = values
	t.versions[version] = cols

	t.mu.Lock()
	delete(t.std, stdKey{num, version})
	t.mu.Unlock()
	return nil
}

// Index implements Table
func (t *InMemoryTable) Index() []time.Time { return t.index }

// Names implements Table
func (t *InMemoryTable) Names() []string { return t.names }

// Versions implements Table
func (t *InMemoryTable) Versions() []int {
	out := make([]int, 0, len(t.versions))
	for v := range t.versions {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// HasVersion reports whether any series was loaded for version
func (t *InMemoryTable) HasVersion(version int) bool {
	_, ok := t.versions[version]
	return ok
}

// ResolveIndex implements Table
func (t *InMemoryTable) ResolveIndex(name string) (int, error) {
	num, ok := t.byName[name]
	if !ok {
		return -1, errors.NotFound("time series", name)
	}
	return num, nil
}

func (t *InMemoryTable) column(num, version int) []float64 {
	cols := t.versions[version]
	if num < 0 || num >= len(cols) {
		return nil
	}
	return cols[num]
}

// GetDouble implements Table. Missing data reads as NaN.
func (t *InMemoryTable) GetDouble(num, version, point int) float64 {
	col := t.column(num, version)
	if point < 0 || point >= len(col) {
		return math.NaN()
	}
	return col[point]
}

// StdDev implements Table, caching per (column, version)
func (t *InMemoryTable) StdDev(num, version int) float64 {
	key := stdKey{num, version}
	t.mu.RLock()
	v, ok := t.std[key]
	t.mu.RUnlock()
	if ok {
		return v
	}
	v = popStdDev(t.column(num, version))
	t.mu.Lock()
	t.std[key] = v
	t.mu.Unlock()
	return v
}

func popStdDev(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return stat.PopStdDev(values, nil)
}

// PrecomputeStdDev fills the standard deviation cache of every column of
// the given versions using a bounded pool of workers.
func (t *InMemoryTable) PrecomputeStdDev(ctx context.Context, versions []int, workers int) error {
	if workers < 1 {
		workers = 1
	}
	for _, version := range versions {
		if !t.HasVersion(version) {
			return errors.Newf(errors.TypeNotFound, "version %d not found in table", version)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, version := range versions {
		for num := range t.names {
			num, version := num, version
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				t.StdDev(num, version)
				return nil
			})
		}
	}
	return g.Wait()
}

// Window returns the point range [first, last] clamped to the index; last < 0 means the end
func Window(t Table, first, last int) (int, int, error) {
	count := len(t.Index())
	if last < 0 || last >= count {
		last = count - 1
	}
	if first < 0 || first > last {
		return 0, 0, errors.Newf(errors.TypeInput, "invalid point range [%d, %d] for %d points", first, last, count)
	}
	return first, last, nil
}
