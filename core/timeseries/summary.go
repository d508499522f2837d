package timeseries

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Summary holds descriptive statistics of one series over a point window and a set of versions
type Summary struct {
	Name   string  `json:"name"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Sum    float64 `json:"sum"`
	Median float64 `json:"median"`
}

// Summarize computes min, max, mean, sum and median of a series.
// Min and Max are taken across versions, Mean is the mean of per-version means,
// Sum adds every version, Median is the upper median of all pooled values.
func Summarize(t Table, name string, versions []int, first, last int) (Summary, error) {
	s := Summary{Name: name, Min: math.NaN(), Max: math.NaN(), Mean: math.NaN(), Median: math.NaN()}
	num, err := t.ResolveIndex(name)
	if err != nil {
		return s, err
	}
	first, last, err = Window(t, first, last)
	if err != nil {
		return s, err
	}

	var pooled []float64
	var means []float64
	for _, version := range versions {
		values := make([]float64, 0, last-first+1)
		for point := first; point <= last; point++ {
			values = append(values, t.GetDouble(num, version, point))
		}
		if len(values) == 0 {
			continue
		}
		pooled = append(pooled, values...)
		means = append(means, floats.Sum(values)/float64(len(values)))
	}
	if len(pooled) == 0 {
		return s, nil
	}

	s.Min = floats.Min(pooled)
	s.Max = floats.Max(pooled)
	s.Sum = floats.Sum(pooled)
	s.Mean = floats.Sum(means) / float64(len(means))

	sorted := append([]float64(nil), pooled...)
	sort.Float64s(sorted)
	s.Median = sorted[len(sorted)/2]
	return s, nil
}
