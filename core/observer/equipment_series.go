package observer

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"time"

	"metrix-mapping/core/mapping"
	"metrix-mapping/core/network"
)

// EquipmentSeriesWriter collects the values delivered to equipment time series targets
// and writes one CSV per version: Time;Version;<id>_<variable>...
type EquipmentSeriesWriter struct {
	Nop

	keys  []mapping.Key
	index []time.Time
	first int
	last  int
	sep   rune
	loc   *time.Location
	base  *network.Overlay

	version  int
	constant map[mapping.Key]float64
	values   map[mapping.Key][]float64

	// Create opens the destination of a version
	Create func(version int) (io.WriteCloser, error)
}

// NewEquipmentSeriesWriter tracks every equipment time series target of c over [first, last]
func NewEquipmentSeriesWriter(c *mapping.Config, index []time.Time, first, last int, sep rune, loc *time.Location) *EquipmentSeriesWriter {
	var keys []mapping.Key
	for _, series := range c.EquipmentSeries() {
		keys = append(keys, c.EquipmentSeriesKeys(series)...)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &EquipmentSeriesWriter{
		keys:  keys,
		index: index,
		first: first,
		last:  last,
		sep:   sep,
		loc:   loc,
	}
}

// SetBaseCase implements BaseCaseAware
func (w *EquipmentSeriesWriter) SetBaseCase(base *network.Overlay) {
	w.base = base
}

// ColumnName is <id>_<variable>
func ColumnName(k mapping.Key) string {
	return k.ID + "_" + string(k.Variable)
}

func (w *EquipmentSeriesWriter) VersionStart(version int) error {
	w.version = version
	w.constant = make(map[mapping.Key]float64)
	w.values = make(map[mapping.Key][]float64, len(w.keys))
	for _, k := range w.keys {
		w.values[k] = make([]float64, w.last-w.first+1)
		for i := range w.values[k] {
			w.values[k][i] = math.NaN()
		}
	}
	return nil
}

func (w *EquipmentSeriesWriter) EquipmentMapped(point int, series, id string, v network.Variable, value float64) error {
	k := mapping.Key{Variable: v, ID: id}
	values, ok := w.values[k]
	if !ok {
		return nil
	}
	if point == ConstantPoint {
		w.constant[k] = value
		return nil
	}
	if i := point - w.first; i >= 0 && i < len(values) {
		values[i] = value
	}
	return nil
}

// Value returns the collected value of a target at a point of the current version
func (w *EquipmentSeriesWriter) Value(k mapping.Key, point int) float64 {
	if v, ok := w.constant[k]; ok {
		return v
	}
	values, ok := w.values[k]
	if !ok || point < w.first || point > w.last {
		return math.NaN()
	}
	v := values[point-w.first]
	if math.IsNaN(v) && w.base != nil {
		return w.base.Value(k.ID, k.Variable)
	}
	return v
}

func (w *EquipmentSeriesWriter) VersionEnd(version int) error {
	if w.Create == nil || len(w.keys) == 0 {
		return nil
	}
	f, err := w.Create(version)
	if err != nil {
		return err
	}
	if err := w.write(f, version); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (w *EquipmentSeriesWriter) write(out io.Writer, version int) error {
	cw := csv.NewWriter(out)
	cw.Comma = w.sep

	header := []string{"Time", "Version"}
	for _, k := range w.keys {
		header = append(header, ColumnName(k))
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for point := w.first; point <= w.last && point < len(w.index); point++ {
		row := []string{w.index[point].In(w.loc).Format(time.RFC3339), strconv.Itoa(version)}
		for _, k := range w.keys {
			row = append(row, formatValue(w.Value(k, point)))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
