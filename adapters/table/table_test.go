package table

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"metrix-mapping/internal/errors"
)

const sample = "Time;Version;load;wind\n" +
	"2026-01-01T00:00:00Z;1;10;1.5\n" +
	"2026-01-01T01:00:00Z;1;20;\n" +
	"\n" +
	"2026-01-01T00:00:00Z;2;30;2\n" +
	"2026-01-01T01:00:00Z;2;40;NaN\n"

func TestCSVReader(t *testing.T) {
	tab, err := NewCSVReader(';').Read(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, []string{"load", "wind"}, tab.Names())
	assert.Equal(t, []int{1, 2}, tab.Versions())
	require.Len(t, tab.Index(), 2)
	assert.True(t, tab.Index()[1].Equal(time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC)))

	load, err := tab.ResolveIndex("load")
	require.NoError(t, err)
	wind, err := tab.ResolveIndex("wind")
	require.NoError(t, err)
	assert.Equal(t, 20.0, tab.GetDouble(load, 1, 1))
	assert.Equal(t, 30.0, tab.GetDouble(load, 2, 0))
	assert.True(t, math.IsNaN(tab.GetDouble(wind, 1, 1)), "empty cell")
	assert.True(t, math.IsNaN(tab.GetDouble(wind, 2, 1)))
}

func TestCSVReaderSkipsByteOrderMark(t *testing.T) {
	src := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Time,Version,a\n2026-01-01 00:00,1,4\n")...)
	tab, err := NewCSVReader(',').Read(bytes.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, tab.Names())
}

func TestCSVReaderErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		errType errors.Type
		message string
	}{
		{"empty", "", errors.TypeParsing, "no header"},
		{"bad header", "Date;Version;a\n", errors.TypeParsing, "header must start with Time and Version"},
		{"no series", "Time;Version\n", errors.TypeParsing, "header must start"},
		{"duplicate series", "Time;Version;a;a\n", errors.TypeParsing, "duplicate time series 'a'"},
		{"no row", "Time;Version;a\n", errors.TypeParsing, "no row"},
		{"bad time", "Time;Version;a\nyesterday;1;3\n", errors.TypeParsing, "line 2: invalid time"},
		{"bad version", "Time;Version;a\n2026-01-01T00:00:00Z;one;3\n", errors.TypeParsing, "line 2: invalid version"},
		{"bad value", "Time;Version;a\n2026-01-01T00:00:00Z;1;x\n", errors.TypeParsing, "invalid value of 'a'"},
		{
			name: "versions on different indexes",
			src: "Time;Version;a\n" +
				"2026-01-01T00:00:00Z;1;1\n" +
				"2026-01-01T01:00:00Z;1;2\n" +
				"2026-01-01T00:00:00Z;2;1\n",
			errType: errors.TypeData,
			message: "version 2 does not share the time index",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCSVReader(';').Read(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.errType), "got %v", err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestXLSXReader(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetList()[0]
	rows := [][]interface{}{
		{"Time", "Version", "load"},
		{"2026-01-01T00:00:00Z", 1, 10.5},
		{"2026-01-01T01:00:00Z", 1, 11},
	}
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellName, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	tab, err := NewXLSXReader().Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"load"}, tab.Names())
	assert.Equal(t, 10.5, tab.GetDouble(0, 1, 0))
	assert.Equal(t, 11.0, tab.GetDouble(0, 1, 1))
}

func TestRegistry(t *testing.T) {
	r := Default(';')
	assert.Equal(t, []string{"csv", "xlsx"}, r.Formats())

	reader, ok := r.ForPath("/data/Series.XLSX")
	require.True(t, ok)
	assert.Equal(t, "xlsx", reader.Format())
	_, ok = r.Get("CSV")
	assert.True(t, ok)

	assert.Panics(t, func() { r.Register(NewCSVReader(',')) })
	assert.Error(t, r.RegisterSafe(NewXLSXReader()))

	dir := t.TempDir()
	path := filepath.Join(dir, "series.csv")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))
	tab, err := r.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, tab.Versions())

	_, err = r.ReadFile(filepath.Join(dir, "series.parquet"))
	assert.True(t, errors.IsType(err, errors.TypeInput))

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("Time;Version\n"), 0o644))
	_, err = r.ReadFile(bad)
	assert.True(t, errors.IsType(err, errors.TypeParsing))
}
