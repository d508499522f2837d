package logs

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"metrix-mapping/core/determinism"
)

// Logger collects mapping log entries in emission order
type Logger struct {
	logs []Log
}

// NewLogger creates an empty Logger
func NewLogger() *Logger {
	return &Logger{}
}

// Add appends an entry
func (l *Logger) Add(log Log) {
	l.logs = append(l.logs, log)
}

// Logs returns every entry in emission order
func (l *Logger) Logs() []Log {
	return l.logs
}

// Len returns the number of entries
func (l *Logger) Len() int {
	return len(l.logs)
}

// LabelCount is the number of entries sharing a label
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Synthesis counts entries per label, in order of first appearance
func (l *Logger) Synthesis() []LabelCount {
	counts := determinism.NewOrderedMap[string, int]()
	for _, log := range l.logs {
		n, _ := counts.Get(log.Label)
		counts.Set(log.Label, n+1)
	}
	out := make([]LabelCount, 0, counts.Len())
	counts.Range(func(label string, n int) bool {
		out = append(out, LabelCount{Label: label, Count: n})
		return true
	})
	return out
}

// LogSynthesis prints the per-label counts to the process log
func (l *Logger) LogSynthesis(logger *zap.Logger) {
	for _, lc := range l.Synthesis() {
		logger.Warn("mapping log synthesis", zap.Int("count", lc.Count), zap.String("label", lc.Label))
	}
}

// WriteCSV writes the entries as Type;Label;Time;Variant;Version;Message.
// The constant point prints as variant "all", synthesis entries have no time nor variant.
func (l *Logger) WriteCSV(w io.Writer, sep rune, index []time.Time, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	cw := csv.NewWriter(w)
	cw.Comma = sep
	if err := cw.Write([]string{"Type", "Label", "Time", "Variant", "Version", "Message"}); err != nil {
		return err
	}
	for _, log := range l.logs {
		var variant, date string
		switch {
		case log.Point == ConstantPoint:
			variant = "all"
		case log.Point != SynthesisPoint:
			variant = strconv.Itoa(log.Point + 1)
			if log.Point >= 0 && log.Point < len(index) {
				date = index[log.Point].In(loc).Format(time.RFC3339)
			}
		}
		record := []string{log.Level.String(), log.Label, date, variant, strconv.Itoa(log.Version), log.Message}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type jsonEnvelope struct {
	RunID string `json:"run_id,omitempty"`
	Logs  []Log  `json:"logs"`
}

// WriteJSON writes the entries as an indented JSON document tagged with the run id
func (l *Logger) WriteJSON(w io.Writer, runID string) error {
	logs := l.logs
	if logs == nil {
		logs = []Log{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonEnvelope{RunID: runID, Logs: logs})
}
