// Package ui - Mapping runner with live progress
package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"metrix-mapping/core/engine"
	"metrix-mapping/core/logs"
	"metrix-mapping/core/mapping"
	"metrix-mapping/core/observer"
	"metrix-mapping/core/timeseries"
	"metrix-mapping/internal/errors"
)

// MappingRunner runs the engine with live UI feedback
type MappingRunner struct {
	w      *Writer
	engine *engine.Engine
}

// NewMappingRunner creates a runner
func NewMappingRunner(w *Writer, e *engine.Engine) *MappingRunner {
	return &MappingRunner{w: w, engine: e}
}

// totalPoints is the number of real points the run will map, 0 when the window is invalid
func (r *MappingRunner) totalPoints(t timeseries.Table) int {
	params := r.engine.Parameters()
	first, last, err := timeseries.Window(t, params.FirstPoint, params.LastPoint)
	if err != nil {
		return 0
	}
	versions := len(params.Versions)
	if versions == 0 {
		versions = len(t.Versions())
	}
	return versions * (last - first + 1)
}

// Run maps req and shows the progress of the points
func (r *MappingRunner) Run(ctx context.Context, req *engine.Request) (*engine.Result, error) {
	r.w.Header("Time Series Mapping")

	var bar *ProgressBar
	if req != nil && req.Table != nil {
		bar = r.w.NewProgressBar(r.totalPoints(req.Table), "Mapping")
		req.Observers = append(req.Observers, observer.NewProgress(bar))
	}

	result, err := r.engine.Run(ctx, req)
	if err != nil {
		if bar != nil && bar.Current() > 0 {
			fmt.Fprintln(r.w.out)
		}
		if version, point, ok := errors.Location(err); ok {
			r.w.Error("Mapping failed at version %d, point %d: %v", version, point, err)
		} else {
			r.w.Error("Mapping failed: %v", err)
		}
		return result, err
	}
	r.w.Success("%d versions mapped on %d points", len(result.Versions), result.Points)
	return result, nil
}

// DisplayResult shows coverage, mapping log synthesis and, when given, balance statistics
func (r *MappingRunner) DisplayResult(result *engine.Result, balance *observer.BalanceSummary) {
	if result == nil {
		return
	}
	if result.Stats != nil {
		r.w.Println("")
		r.w.SubHeader("Mapping coverage")
		r.DisplayCoverage(result.Stats)
	}

	if result.Logs != nil && result.Logs.Len() > 0 {
		r.w.Println("")
		r.w.SubHeader("Mapping logs")
		counts := map[logs.Level]int{}
		for _, l := range result.Logs.Logs() {
			counts[l.Level]++
		}
		r.w.Println("  %s %d  %s %d  %s %d",
			r.w.color(Blue, "INFO"), counts[logs.Info],
			r.w.color(Yellow, "WARNING"), counts[logs.Warning],
			r.w.color(Red, "ERROR"), counts[logs.Error])

		table := r.w.NewTable("Label", "Count").Numeric(1)
		for _, lc := range result.Logs.Synthesis() {
			table.AddRow(lc.Label, strconv.Itoa(lc.Count))
		}
		table.Render()
	}

	if balance != nil && len(balance.Stats()) > 0 {
		r.w.Println("")
		r.w.SubHeader("Balance")
		table := r.w.NewTable("Version", "Min", "Max", "Mean").Numeric(0, 1, 2, 3)
		for _, s := range balance.Stats() {
			table.AddRow(strconv.Itoa(s.Version), s.Min.StringFixed(1), s.Max.StringFixed(1), s.Mean().StringFixed(1))
		}
		table.Render()
	}

	r.w.Println("")
	r.w.Println("%s", r.w.color(Dim, fmt.Sprintf("Run %s completed in %s", result.RunID, result.Duration.Round(time.Millisecond))))
}

// DisplayCoverage prints the per kind statistics of a configuration check
func (r *MappingRunner) DisplayCoverage(stats *mapping.Stats) {
	DisplayCoverage(r.w, stats)
}

// DisplayCoverage prints the per kind statistics of a configuration check
func DisplayCoverage(w *Writer, stats *mapping.Stats) {
	table := w.NewTable("Kind", "Total", "Mapped", "Unmapped", "Ignored", "Multi-mapped").Numeric(1, 2, 3, 4, 5)
	for _, k := range stats.Kinds {
		if k.Total == 0 {
			continue
		}
		table.AddRow(k.Kind.String(), strconv.Itoa(k.Total), strconv.Itoa(k.Mapped), strconv.Itoa(k.Unmapped),
			strconv.Itoa(k.Ignored), strconv.Itoa(k.MultiMapped))
	}
	table.Render()
	if stats.IsComplete() {
		w.Success("Every equipment is mapped or declared unmapped")
	} else {
		w.Warning("Some equipments are neither mapped nor declared unmapped")
	}
}

type resultJSON struct {
	RunID     string             `json:"runId"`
	Versions  []int              `json:"versions"`
	Points    int                `json:"points"`
	StartedAt time.Time          `json:"startedAt"`
	Duration  string             `json:"duration"`
	Coverage  *mapping.Stats     `json:"coverage,omitempty"`
	Synthesis []logs.LabelCount  `json:"synthesis"`
	Balance   []balanceStatsJSON `json:"balance,omitempty"`
}

type balanceStatsJSON struct {
	Version int    `json:"version"`
	Min     string `json:"min"`
	Max     string `json:"max"`
	Mean    string `json:"mean"`
}

// JSONOutput prints the run summary as JSON
func (r *MappingRunner) JSONOutput(result *engine.Result, balance *observer.BalanceSummary) error {
	out := resultJSON{
		RunID:     result.RunID,
		Versions:  result.Versions,
		Points:    result.Points,
		StartedAt: result.StartedAt,
		Duration:  result.Duration.Round(time.Millisecond).String(),
		Coverage:  result.Stats,
		Synthesis: []logs.LabelCount{},
	}
	if result.Logs != nil {
		out.Synthesis = result.Logs.Synthesis()
	}
	if balance != nil {
		for _, s := range balance.Stats() {
			out.Balance = append(out.Balance, balanceStatsJSON{
				Version: s.Version,
				Min:     s.Min.String(),
				Max:     s.Max.String(),
				Mean:    s.Mean().String(),
			})
		}
	}
	enc := json.NewEncoder(r.w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
