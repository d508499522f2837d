package table

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"metrix-mapping/core/timeseries"
	"metrix-mapping/internal/errors"
)

const (
	columnTime    = "Time"
	columnVersion = "Version"
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

type versionRows struct {
	times   []time.Time
	columns [][]float64
}

// build turns decoded rows into a table. Blank rows are skipped; an empty cell is NaN.
func build(records [][]string) (*timeseries.InMemoryTable, error) {
	header, start := firstRow(records)
	if header == nil {
		return nil, errors.Parsing("table has no header", nil)
	}
	if len(header) < 3 || !strings.EqualFold(header[0], columnTime) || !strings.EqualFold(header[1], columnVersion) {
		return nil, errors.Parsing(fmt.Sprintf("header must start with %s and %s, followed by at least one time series",
			columnTime, columnVersion), nil)
	}
	names := header[2:]
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" {
			return nil, errors.Parsing("time series without name in header", nil)
		}
		if seen[name] {
			return nil, errors.Parsing(fmt.Sprintf("duplicate time series '%s' in header", name), nil)
		}
		seen[name] = true
	}

	byVersion := make(map[int]*versionRows)
	var versions []int
	for i := start + 1; i < len(records); i++ {
		row := clean(records[i])
		if len(row) == 0 {
			continue
		}
		line := i + 1

		t, err := parseTime(cell(row, 0))
		if err != nil {
			return nil, errors.Parsing(fmt.Sprintf("line %d: invalid time", line), err)
		}
		version, err := strconv.Atoi(cell(row, 1))
		if err != nil {
			return nil, errors.Parsing(fmt.Sprintf("line %d: invalid version", line), err)
		}

		vr, ok := byVersion[version]
		if !ok {
			vr = &versionRows{columns: make([][]float64, len(names))}
			byVersion[version] = vr
			versions = append(versions, version)
		}
		vr.times = append(vr.times, t)
		for j := range names {
			value, err := parseValue(cell(row, j+2))
			if err != nil {
				return nil, errors.Parsing(fmt.Sprintf("line %d: invalid value of '%s'", line, names[j]), err)
			}
			vr.columns[j] = append(vr.columns[j], value)
		}
	}
	if len(versions) == 0 {
		return nil, errors.Parsing("table has no row", nil)
	}

	index := byVersion[versions[0]].times
	slices.Sort(versions)
	for _, v := range versions {
		if err := sameIndex(index, byVersion[v].times); err != nil {
			return nil, errors.Wrapf(errors.TypeData, err, "version %d does not share the time index", v)
		}
	}

	t := timeseries.NewInMemoryTable(index)
	for _, v := range versions {
		for j, name := range names {
			if err := t.AddSeries(name, v, byVersion[v].columns[j]); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

func sameIndex(want, got []time.Time) error {
	if len(want) != len(got) {
		return fmt.Errorf("%d points, expected %d", len(got), len(want))
	}
	for i := range want {
		if !want[i].Equal(got[i]) {
			return fmt.Errorf("point %d is %s, expected %s", i, got[i].Format(time.RFC3339), want[i].Format(time.RFC3339))
		}
	}
	return nil
}

func firstRow(records [][]string) ([]string, int) {
	for i, row := range records {
		if row = clean(row); len(row) > 0 {
			return row, i
		}
	}
	return nil, -1
}

// clean trims every cell and drops trailing empty cells
func clean(row []string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = strings.TrimSpace(c)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func parseTime(s string) (time.Time, error) {
	var err error
	for _, layout := range timeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}

func parseValue(s string) (float64, error) {
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
