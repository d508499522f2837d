package observer

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"metrix-mapping/core/logs"
	"metrix-mapping/core/network"
)

// BalanceStats summarizes the balance of one version
type BalanceStats struct {
	Version int
	Min     decimal.Decimal
	Max     decimal.Decimal
	Sum     decimal.Decimal
	Count   int
}

// Mean returns Sum / Count, zero for an empty version
func (s BalanceStats) Mean() decimal.Decimal {
	if s.Count == 0 {
		return decimal.Zero
	}
	return s.Sum.Div(decimal.NewFromInt(int64(s.Count)))
}

func (s *BalanceStats) add(v decimal.Decimal) {
	if s.Count == 0 || v.LessThan(s.Min) {
		s.Min = v
	}
	if s.Count == 0 || v.GreaterThan(s.Max) {
		s.Max = v
	}
	s.Sum = s.Sum.Add(v)
	s.Count++
}

// BalanceSummary accounts the active power balance of every point: generators count positive,
// loads and dangling lines negative. A NaN value counts the base case.
type BalanceSummary struct {
	Nop

	base *network.Overlay

	balance         decimal.Decimal
	constantBalance decimal.Decimal
	countedLoads    map[string]bool

	version int
	current *BalanceStats
	stats   []BalanceStats

	// per version, per point
	values  map[int]map[int]float64
	order   []int
	onPoint func(point int, balance float64)
}

// NewBalanceSummary creates an empty summary
func NewBalanceSummary() *BalanceSummary {
	return &BalanceSummary{
		countedLoads: make(map[string]bool),
		values:       make(map[int]map[int]float64),
	}
}

// OnPoint registers a callback receiving each point balance
func (b *BalanceSummary) OnPoint(fn func(point int, balance float64)) {
	b.onPoint = fn
}

// SetBaseCase implements BaseCaseAware
func (b *BalanceSummary) SetBaseCase(base *network.Overlay) {
	b.base = base
}

func (b *BalanceSummary) VersionStart(version int) error {
	b.version = version
	b.current = &BalanceStats{Version: version}
	b.constantBalance = decimal.Zero
	if _, ok := b.values[version]; !ok {
		b.values[version] = make(map[int]float64)
		b.order = append(b.order, version)
	}
	return nil
}

func (b *BalanceSummary) TimeStepStart(point int) error {
	b.balance = decimal.Zero
	clear(b.countedLoads)
	return nil
}

func (b *BalanceSummary) EquipmentMapped(point int, series, id string, v network.Variable, value float64) error {
	if b.base == nil {
		return nil
	}
	kind, ok := b.base.Kind(id)
	if !ok || !isInjection(kind, v) {
		return nil
	}
	var injection float64
	switch {
	case !math.IsNaN(value) && kind == network.KindGenerator:
		injection = value
	case !math.IsNaN(value):
		injection = -value
	default:
		injection = b.baseInjection(kind, id, v)
	}
	b.balance = b.balance.Add(decimal.NewFromFloat(injection))
	return nil
}

func (b *BalanceSummary) TimeStepEnd(point int, balance float64) error {
	b.balance = b.balance.Add(decimal.NewFromFloat(balance))
	if point == ConstantPoint {
		b.constantBalance = b.balance
		return nil
	}
	total := b.balance.Add(b.constantBalance)
	b.current.add(total)
	f := total.InexactFloat64()
	b.values[b.version][point] = f
	if b.onPoint != nil {
		b.onPoint(point, f)
	}
	return nil
}

func (b *BalanceSummary) VersionEnd(version int) error {
	if b.current != nil {
		b.stats = append(b.stats, *b.current)
	}
	b.current = nil
	return nil
}

// Stats returns one entry per finished version
func (b *BalanceSummary) Stats() []BalanceStats {
	return b.stats
}

// Value returns the balance of a version at a point
func (b *BalanceSummary) Value(version, point int) (float64, bool) {
	v, ok := b.values[version][point]
	return v, ok
}

func isInjection(kind network.Kind, v network.Variable) bool {
	switch kind {
	case network.KindGenerator:
		return v == network.TargetP
	case network.KindLoad:
		return v == network.P0 || v == network.FixedActivePower || v == network.VariableActivePower
	case network.KindDanglingLine:
		return v == network.P0
	}
	return false
}

// baseInjection reads the base case; a load without detail is counted once per point
func (b *BalanceSummary) baseInjection(kind network.Kind, id string, v network.Variable) float64 {
	switch kind {
	case network.KindGenerator:
		return b.base.Value(id, network.TargetP)
	case network.KindDanglingLine:
		return -b.base.Value(id, network.P0)
	}
	if v == network.P0 {
		return -b.base.Value(id, network.P0)
	}
	if b.base.HasLoadDetail(id) {
		return -b.base.Value(id, v)
	}
	if b.countedLoads[id] {
		return 0
	}
	b.countedLoads[id] = true
	return -b.base.Value(id, network.P0)
}

func formatBalance(v float64) string {
	if math.IsNaN(v) || math.Abs(v) == math.MaxFloat64 {
		return "?"
	}
	return logs.FormatNumber(v)
}

func formatDecimal(d decimal.Decimal) string {
	return formatBalance(d.InexactFloat64())
}

// WriteCSV writes Time;Version v... with one row per point of the index
func (b *BalanceSummary) WriteCSV(w io.Writer, sep rune, index []time.Time, loc *time.Location) error {
	cw := csv.NewWriter(w)
	cw.Comma = sep

	header := []string{"Time"}
	for _, version := range b.order {
		header = append(header, "Version "+strconv.Itoa(version))
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for point, t := range index {
		row := []string{t.In(loc).Format(time.RFC3339)}
		found := false
		for _, version := range b.order {
			v, ok := b.values[version][point]
			if !ok {
				row = append(row, "")
				continue
			}
			found = true
			row = append(row, formatBalance(v))
		}
		if !found {
			continue
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteStatsCSV writes Version;Min;Max;Sum;Mean
func (b *BalanceSummary) WriteStatsCSV(w io.Writer, sep rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = sep
	if err := cw.Write([]string{"Version", "Min", "Max", "Sum", "Mean"}); err != nil {
		return err
	}
	for _, s := range b.stats {
		row := []string{
			strconv.Itoa(s.Version),
			formatDecimal(s.Min),
			formatDecimal(s.Max),
			formatDecimal(s.Sum),
			formatDecimal(s.Mean()),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
