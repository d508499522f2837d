package mapper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"metrix-mapping/core/limits"
	"metrix-mapping/core/logs"
	"metrix-mapping/core/mapping"
	"metrix-mapping/core/network"
	"metrix-mapping/core/observer"
	"metrix-mapping/core/timeseries"
	"metrix-mapping/internal/errors"
)

// Parameters drive one mapping run
type Parameters struct {
	Versions   []int
	FirstPoint int
	LastPoint  int // -1 for the end of the table

	IgnoreLimits      bool
	IgnoreEmptyFilter bool

	// IdentifyConstantTimeSeries maps constant series once per version instead of at every point
	IdentifyConstantTimeSeries bool

	ToleranceThreshold float64
}

// DefaultParameters maps every point of the given versions
func DefaultParameters(versions ...int) Parameters {
	return Parameters{
		Versions:                   versions,
		LastPoint:                  -1,
		IdentifyConstantTimeSeries: true,
		ToleranceThreshold:         DefaultToleranceThreshold,
	}
}

// Mapper maps the time series of a table on a network, version by version.
// It only reads the network: corrections live in a per-version overlay handed to observers.
type Mapper struct {
	network network.View
	config  *mapping.Config
	table   timeseries.Table
	logger  *logs.Logger
	log     *zap.Logger
}

// New creates a mapper. logger collects the mapping log; log receives process logging.
func New(n network.View, c *mapping.Config, t timeseries.Table, logger *logs.Logger, log *zap.Logger) *Mapper {
	if logger == nil {
		logger = logs.NewLogger()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Mapper{network: n, config: c, table: t, logger: logger, log: log}
}

// Logger returns the mapping log
func (m *Mapper) Logger() *logs.Logger { return m.logger }

// versionRun holds what one version needs while its points are mapped
type versionRun struct {
	version int

	constant []*EquipmentTimeSeriesMap
	variable []*EquipmentTimeSeriesMap

	constantSeries []EquipmentSeries
	variableSeries []EquipmentSeries
}

// Run maps every configured version and point, driving observers in order.
// The context is checked between points and between versions.
func (m *Mapper) Run(ctx context.Context, params Parameters, observers ...observer.Observer) error {
	first, last, err := timeseries.Window(m.table, params.FirstPoint, params.LastPoint)
	if err != nil {
		return err
	}
	idx, err := BuildIndex(m.config, m.table)
	if err != nil {
		return err
	}

	checker := NewChecker(observer.NewChain(observers...), m.logger, params.ToleranceThreshold)
	classifier := NewClassifier(m.table, !params.IdentifyConstantTimeSeries, m.log)
	distributor := NewDistributor(m.table, m.logger, params.IgnoreEmptyFilter)

	start := time.Now()
	if err := checker.Start(); err != nil {
		return err
	}
	for _, version := range params.Versions {
		if err := ctx.Err(); err != nil {
			return err
		}
		run := classify(classifier, idx, version)
		if err := m.mapVersion(ctx, run, first, last, params, checker, distributor); err != nil {
			return err
		}
	}
	if err := checker.End(); err != nil {
		return err
	}

	m.log.Info("mapping done",
		zap.Ints("versions", params.Versions),
		zap.Int("points", last-first+1),
		zap.Int("logs", m.logger.Len()),
		zap.Duration("duration", time.Since(start)))
	m.logger.LogSynthesis(m.log)
	return nil
}

func classify(c *Classifier, idx *Index, version int) *versionRun {
	run := &versionRun{version: version}
	for _, cat := range idx.Categories {
		constant, variable := c.Classify(version, cat)
		run.constant = append(run.constant, constant)
		run.variable = append(run.variable, variable)
	}
	run.constantSeries, run.variableSeries = c.ClassifyEquipmentSeries(version, idx.Equipment)
	return run
}

func (r *versionRun) hasConstant() bool {
	for _, m := range r.constant {
		if m.Len() > 0 {
			return true
		}
	}
	return len(r.constantSeries) > 0
}

func (m *Mapper) mapVersion(ctx context.Context, run *versionRun, first, last int, params Parameters, checker *Checker, d *Distributor) error {
	version := run.version
	m.log.Debug("mapping version", zap.Int("version", version), zap.Int("first_point", first), zap.Int("last_point", last))

	base := network.NewOverlay(m.network)
	if err := m.correctBaseCase(version, base, params.IgnoreLimits); err != nil {
		return err
	}

	if err := checker.VersionStart(version); err != nil {
		return err
	}
	checker.SetBaseCase(base)

	// constant series are read at the first point and reported at the constant point
	if err := checker.TimeStepStart(observer.ConstantPoint); err != nil {
		return err
	}
	if run.hasConstant() {
		if err := m.mapPoint(version, observer.ConstantPoint, first, run.constant, run.constantSeries, params, checker, d); err != nil {
			return err
		}
	}
	if err := checker.TimeStepEnd(observer.ConstantPoint, m.constantBalance(base)); err != nil {
		return err
	}

	for point := first; point <= last; point++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := checker.TimeStepStart(point); err != nil {
			return err
		}
		if err := m.mapPoint(version, point, point, run.variable, run.variableSeries, params, checker, d); err != nil {
			return err
		}
		if err := checker.TimeStepEnd(point, 0); err != nil {
			return err
		}
	}

	return checker.VersionEnd(version)
}

// mapPoint distributes every edge of cats, in kind order, then copies the equipment series.
// variant is the reported point, point the table row read.
func (m *Mapper) mapPoint(version, variant, point int, cats []*EquipmentTimeSeriesMap, series []EquipmentSeries, params Parameters, checker *Checker, d *Distributor) error {
	for _, cat := range cats {
		for _, e := range cat.Edges {
			dist, err := d.Distribute(version, variant, point, e)
			if err != nil {
				return err
			}
			if dist.Skipped {
				continue
			}
			ignoreLimits := params.IgnoreLimits || (e.Key.Variable.IsPower() && m.config.IgnoreLimits(e.Key.ID))
			if err := checker.Mapped(variant, e.Key.ID, dist.Value, e.IDs(), e.Key.Variable, dist.Values, ignoreLimits); err != nil {
				return err
			}
		}
	}

	for _, s := range series {
		value := m.table.GetDouble(s.Num, version, point)
		for _, target := range s.Targets {
			if err := checker.EquipmentMapped(variant, s.Name, target.ID, target.Variable, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// correctBaseCase brings the power of unmapped generators, batteries and HVDC lines within their limits
func (m *Mapper) correctBaseCase(version int, base *network.Overlay, ignoreLimits bool) error {
	for _, kind := range []network.Kind{network.KindGenerator, network.KindBattery} {
		for _, id := range m.config.Unmapped(kind, network.TargetP) {
			g := limits.GeneratorFromView(base, id,
				m.config.IsUnmapped(kind, network.MinP, id),
				m.config.IsUnmapped(kind, network.MaxP, id))
			r, err := limits.CorrectGenerator(version, g, ignoreLimits)
			if err != nil {
				return err
			}
			if err := m.apply(base, id, r); err != nil {
				return err
			}
		}
	}

	for _, id := range m.config.Unmapped(network.KindHvdcLine, network.ActivePowerSetpoint) {
		h := limits.HvdcFromView(base, id,
			m.config.IsUnmapped(network.KindHvdcLine, network.MinP, id),
			m.config.IsUnmapped(network.KindHvdcLine, network.MaxP, id))
		r, err := limits.CorrectHvdc(version, h, ignoreLimits)
		if err != nil {
			return err
		}
		if err := m.apply(base, id, r); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mapper) apply(base *network.Overlay, id string, r limits.Result) error {
	if err := r.Apply(base, id); err != nil {
		return errors.Wrapf(errors.TypeInternal, err, "base case correction of %s", id)
	}
	for _, l := range r.Logs {
		m.logger.Add(l)
	}
	return nil
}

// constantBalance is the part of the balance no series changes during the version
func (m *Mapper) constantBalance(base network.View) float64 {
	balance := 0.0
	for _, id := range m.config.Unmapped(network.KindGenerator, network.TargetP) {
		if m.config.IsUnmapped(network.KindGenerator, network.MinP, id) &&
			m.config.IsUnmapped(network.KindGenerator, network.MaxP, id) {
			balance += base.Value(id, network.TargetP)
		}
	}

	for _, id := range m.config.Unmapped(network.KindLoad, network.P0) {
		balance -= base.Value(id, network.P0)
	}
	for _, v := range []network.Variable{network.FixedActivePower, network.VariableActivePower} {
		for _, id := range m.config.Unmapped(network.KindLoad, v) {
			if !m.config.IsUnmapped(network.KindLoad, network.P0, id) && base.HasLoadDetail(id) {
				balance -= base.Value(id, v)
			}
		}
	}

	for _, id := range m.config.Unmapped(network.KindDanglingLine, network.P0) {
		balance -= base.Value(id, network.P0)
	}
	return balance
}
