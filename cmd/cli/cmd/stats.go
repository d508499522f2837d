// Package cmd - stats command
package cmd

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"metrix-mapping/core/logs"
	"metrix-mapping/core/timeseries"
	"metrix-mapping/core/ui"
	"metrix-mapping/internal/config"
)

var (
	statsTablePath  string
	statsVersions   []int
	statsFirstPoint int
	statsLastPoint  int
	statsJSON       bool
)

// statsCmd summarizes the series of a table
var statsCmd = &cobra.Command{
	Use:   "stats [series...]",
	Short: "Summarize time series of a table",
	Long: `Print min, max, mean, sum and median of time series over a point window.
Without series names every series of the table is summarized.

Examples:
  metrix-mapping stats -t series.csv
  metrix-mapping stats -t series.xlsx --versions 1,3 load wind`,
	RunE: runStats,
}

func init() {
	f := statsCmd.Flags()
	f.StringVarP(&statsTablePath, "table", "t", "", "time series table (CSV or XLSX) [REQUIRED]")
	f.IntSliceVar(&statsVersions, "versions", nil, "versions to summarize (default: every version)")
	f.IntVar(&statsFirstPoint, "first-point", 0, "first time point")
	f.IntVar(&statsLastPoint, "last-point", -1, "last time point, -1 for the end of the table")
	f.BoolVar(&statsJSON, "json", false, "print JSON")

	_ = statsCmd.MarkFlagRequired("table")
}

func runStats(cmd *cobra.Command, args []string) error {
	w := newWriter(cmd)
	if statsJSON {
		w.SetVerbosity(ui.Quiet)
	}
	t, err := loadTable(w, statsTablePath, config.Get().SeparatorRune())
	if err != nil {
		return err
	}

	names := args
	if len(names) == 0 {
		names = t.Names()
	}
	versions := statsVersions
	if len(versions) == 0 {
		versions = t.Versions()
	}

	summaries := make([]timeseries.Summary, 0, len(names))
	for _, name := range names {
		s, err := timeseries.Summarize(t, name, versions, statsFirstPoint, statsLastPoint)
		if err != nil {
			return err
		}
		summaries = append(summaries, s)
	}

	if statsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(jsonSafe(summaries))
	}

	w.Header("Time series")
	table := w.NewTable("Series", "Min", "Max", "Mean", "Sum", "Median").Numeric(1, 2, 3, 4, 5)
	for _, s := range summaries {
		table.AddRow(s.Name, logs.FormatNumber(s.Min), logs.FormatNumber(s.Max), logs.FormatNumber(s.Mean),
			logs.FormatNumber(s.Sum), logs.FormatNumber(s.Median))
	}
	table.Render()
	w.Info("%d versions, %s", len(versions), pointRange(t, statsFirstPoint, statsLastPoint))
	return nil
}

func pointRange(t timeseries.Table, first, last int) string {
	first, last, err := timeseries.Window(t, first, last)
	if err != nil {
		return "invalid window"
	}
	return "points " + strconv.Itoa(first) + " to " + strconv.Itoa(last)
}

// jsonSafe replaces NaN, which encoding/json rejects, with null
func jsonSafe(summaries []timeseries.Summary) []map[string]interface{} {
	out := make([]map[string]interface{}, len(summaries))
	value := func(v float64) interface{} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return v
	}
	for i, s := range summaries {
		out[i] = map[string]interface{}{
			"name":   s.Name,
			"min":    value(s.Min),
			"max":    value(s.Max),
			"mean":   value(s.Mean),
			"sum":    value(s.Sum),
			"median": value(s.Median),
		}
	}
	return out
}
