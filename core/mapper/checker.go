package mapper

import (
	"math"

	"metrix-mapping/core/determinism"
	"metrix-mapping/core/logs"
	"metrix-mapping/core/network"
	"metrix-mapping/core/observer"
	"metrix-mapping/internal/errors"
)

// DefaultToleranceThreshold is the dead band applied around active power limits
const DefaultToleranceThreshold = 0.0001

// mappedPower collects what the current point mapped on one equipment
type mappedPower struct {
	series string

	minP, p, maxP          float64
	hasMinP, hasP, hasMaxP bool

	ignoreLimits bool
}

func (m *mappedPower) set(v network.Variable, value float64) {
	switch v {
	case network.MinP:
		m.minP, m.hasMinP = value, true
	case network.MaxP:
		m.maxP, m.hasMaxP = value, true
	default:
		m.p, m.hasP = value, true
	}
}

// scaledSeries is one power series at one point and what happened to its equipments
type scaledSeries struct {
	value      float64
	ids        []string
	changes    *determinism.OrderedSet[powerChange]
	violations *determinism.OrderedSet[limitViolation]
}

// limitChange follows one limit widened across a version
type limitChange struct {
	base       float64
	limit      float64
	violations int
}

// powerStats holds the per series synthesis of one power variable
type powerStats struct {
	variable   network.Variable
	current    *determinism.OrderedMap[string, *scaledSeries]
	changes    *determinism.OrderedMap[string, *determinism.OrderedSet[powerChange]]
	violations *determinism.OrderedMap[string, *determinism.OrderedSet[limitViolation]]
}

func newPowerStats(v network.Variable) *powerStats {
	return &powerStats{
		variable:   v,
		current:    determinism.NewOrderedMap[string, *scaledSeries](),
		changes:    determinism.NewOrderedMap[string, *determinism.OrderedSet[powerChange]](),
		violations: determinism.NewOrderedMap[string, *determinism.OrderedSet[limitViolation]](),
	}
}

// Checker sits between the distributor and the observers. It buffers the active
// power and limits mapped at a point, corrects power against limits when the point
// ends, and logs the corrections per point and per version.
type Checker struct {
	chain     observer.Chain
	logger    *logs.Logger
	tolerance float64

	version int
	base    *network.Overlay

	hasRange map[string]bool

	constant *determinism.OrderedMap[string, mappedPower]
	powers   *determinism.OrderedMap[string, *mappedPower]

	targetP  *powerStats
	setpoint *powerStats

	limits [slotCount]*determinism.OrderedMap[string, *limitChange]
}

// NewChecker creates a checker forwarding to chain
func NewChecker(chain observer.Chain, logger *logs.Logger, tolerance float64) *Checker {
	c := &Checker{
		chain:     chain,
		logger:    logger,
		tolerance: tolerance,
		hasRange:  make(map[string]bool),
		constant:  determinism.NewOrderedMap[string, mappedPower](),
		powers:    determinism.NewOrderedMap[string, *mappedPower](),
		targetP:   newPowerStats(network.TargetP),
		setpoint:  newPowerStats(network.ActivePowerSetpoint),
	}
	for i := range c.limits {
		c.limits[i] = determinism.NewOrderedMap[string, *limitChange]()
	}
	return c
}

// Start forwards to the observers
func (c *Checker) Start() error { return c.chain.Start() }

// End forwards to the observers
func (c *Checker) End() error { return c.chain.End() }

// VersionStart resets version state and forwards
func (c *Checker) VersionStart(version int) error {
	c.version = version
	c.constant.Clear()
	return c.chain.VersionStart(version)
}

// SetBaseCase records the corrected base case of the version and hands it to the observers.
// Operator ranges are read once here, before any limit widening.
func (c *Checker) SetBaseCase(base *network.Overlay) {
	c.base = base
	clear(c.hasRange)
	for _, id := range base.IDs(network.KindHvdcLine) {
		c.hasRange[id] = base.HasActivePowerRange(id)
	}
	c.chain.SetBaseCase(base)
}

// TimeStepStart seeds the point with the power mapped at the constant point
func (c *Checker) TimeStepStart(point int) error {
	if point != observer.ConstantPoint {
		c.constant.Range(func(id string, mp mappedPower) bool {
			cp := mp
			c.powers.Set(id, &cp)
			return true
		})
	}
	return c.chain.TimeStepStart(point)
}

// EquipmentMapped forwards an equipment time series value unchanged
func (c *Checker) EquipmentMapped(point int, series, id string, v network.Variable, value float64) error {
	return c.chain.EquipmentMapped(point, series, id, v, value)
}

// Mapped receives one distributed edge. Power waits for the end of the point,
// limits are both buffered and forwarded, everything else reaches the observers now.
func (c *Checker) Mapped(point int, series string, value float64, ids []string, v network.Variable, values []float64, ignoreLimits bool) error {
	switch v {
	case network.TargetP:
		c.targetP.current.Set(series, c.newScaledSeries(value, ids))
	case network.ActivePowerSetpoint:
		c.setpoint.current.Set(series, c.newScaledSeries(value, ids))
	}
	for i, id := range ids {
		if v.IsPowerOrLimit() {
			c.record(point, series, id, v, values[i], ignoreLimits)
		}
		if v.IsPower() {
			continue
		}
		if err := c.chain.EquipmentMapped(point, series, id, v, values[i]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Checker) newScaledSeries(value float64, ids []string) *scaledSeries {
	return &scaledSeries{
		value:      value,
		ids:        ids,
		changes:    determinism.NewOrderedSet[powerChange](),
		violations: determinism.NewOrderedSet[limitViolation](),
	}
}

func (c *Checker) record(point int, series, id string, v network.Variable, value float64, ignoreLimits bool) {
	if point == observer.ConstantPoint {
		mp, _ := c.constant.Get(id)
		if v.IsPower() {
			mp.series = series
		}
		mp.set(v, value)
		mp.ignoreLimits = ignoreLimits
		c.constant.Set(id, mp)
		return
	}
	mp := c.powers.GetOrCreate(id, func() *mappedPower { return &mappedPower{} })
	if v.IsPower() {
		mp.series = series
	}
	mp.set(v, value)
	mp.ignoreLimits = ignoreLimits
}

// TimeStepEnd corrects every buffered power, notifies it, then logs the series that changed
func (c *Checker) TimeStepEnd(point int, balance float64) error {
	var err error
	c.powers.Range(func(id string, mp *mappedPower) bool {
		err = c.correctAndNotify(point, id, mp)
		return err == nil
	})
	if err != nil {
		return err
	}

	c.logScaling(point, c.targetP)
	c.logScaling(point, c.setpoint)

	c.powers.Clear()
	c.targetP.current.Clear()
	c.setpoint.current.Clear()
	return c.chain.TimeStepEnd(point, balance)
}

func (c *Checker) correctAndNotify(point int, id string, mp *mappedPower) error {
	kind, ok := c.base.Kind(id)
	if !ok {
		return errors.NotFound("equipment", id)
	}
	variable, ok := network.PowerVariable(kind)
	if !ok {
		return errors.Newf(errors.TypeInternal, "equipment %s of kind %s carries no active power", id, kind)
	}

	var value float64
	var err error
	if kind == network.KindHvdcLine {
		value, err = c.correctHvdc(point, id, mp)
	} else {
		value, err = c.correctGenerator(point, id, mp)
	}
	if err != nil {
		return err
	}
	mp.p, mp.hasP = value, true

	return c.chain.EquipmentMapped(point, mp.series, id, variable, value)
}

// tolerate pulls a mapped power that sits on a limit just inside it
func (c *Checker) tolerate(mp *mappedPower, p, minP, maxP float64, okMin, okMax bool) float64 {
	if mp.ignoreLimits || !mp.hasP {
		return p
	}
	switch {
	case okMax && p >= maxP-c.tolerance:
		return maxP - c.tolerance
	case okMin && p <= minP+c.tolerance:
		return minP + c.tolerance
	}
	return p
}

func (c *Checker) correctGenerator(point int, id string, mp *mappedPower) (float64, error) {
	minP := c.base.Value(id, network.MinP)
	if mp.hasMinP {
		minP = mp.minP
	}
	maxP := c.base.Value(id, network.MaxP)
	if mp.hasMaxP {
		maxP = mp.maxP
	}
	if minP > maxP {
		return 0, errors.Data(c.version, point,
			"Equipment '%s' : invalid active limits [%v, %v] at point %d", id, minP, maxP, point)
	}

	targetP := c.base.Value(id, network.TargetP)
	if mp.hasP {
		targetP = mp.p
	}
	okMin := targetP >= minP-c.tolerance
	okMax := targetP <= maxP+c.tolerance
	targetP = c.tolerate(mp, targetP, minP, maxP, okMin, okMax)

	if mp.ignoreLimits && mp.hasP {
		if !mp.hasMaxP {
			c.trackLimit(slotGeneratorMax, id, c.base.Value(id, network.MaxP), targetP)
		}
		if !mp.hasMinP && minP <= 0 {
			c.trackLimit(slotGeneratorMin, id, c.base.Value(id, network.MinP), targetP)
		}
	}

	if !mp.hasP {
		return c.correctNotMapped(point, id, network.TargetP, targetP, minP, maxP, okMin, okMax, mp.ignoreLimits, false), nil
	}

	series := c.targetP.series(mp.series)
	if mp.ignoreLimits {
		switch {
		case !okMax && !mp.hasMaxP:
			widened := math.Floor(targetP + 1)
			if err := c.widen(point, mp.series, id, network.MaxP, widened, func() error {
				return c.base.Set(id, network.MaxP, widened)
			}); err != nil {
				return 0, err
			}
			series.violation(violationMaxPByTargetP)
			return targetP, nil
		case !okMax:
			series.change(changeMappedMaxPDisabled)
			return maxP, nil
		case !okMin && minP <= 0 && !mp.hasMinP:
			widened := math.Floor(targetP - 0.5)
			if err := c.widen(point, mp.series, id, network.MinP, widened, func() error {
				return c.base.Set(id, network.MinP, widened)
			}); err != nil {
				return 0, err
			}
			series.violation(violationMinPByTargetP)
			return targetP, nil
		case !okMin && minP <= 0:
			series.change(changeMappedMinPDisabled)
			return minP, nil
		case !okMin && targetP < 0:
			series.change(changeZeroDisabled)
			return 0, nil
		case !okMin:
			series.violation(pick(mp.hasMinP, violationMappedMinPByTargetP, violationBaseCaseMinPByTargetP))
		}
		return targetP, nil
	}

	switch {
	case !okMax:
		series.change(pick(mp.hasMaxP, changeMappedMaxP, changeBaseCaseMaxP))
		return maxP, nil
	case !okMin && minP <= 0:
		series.change(pick(mp.hasMinP, changeMappedMinP, changeBaseCaseMinP))
		return minP, nil
	case !okMin && targetP < 0:
		series.change(changeZero)
		return 0, nil
	case !okMin:
		series.violation(pick(mp.hasMinP, violationMappedMinPByTargetP, violationBaseCaseMinPByTargetP))
	}
	return targetP, nil
}

func (c *Checker) correctHvdc(point int, id string, mp *mappedPower) (float64, error) {
	minP := network.MinLimit(c.base, id)
	if mp.hasMinP {
		minP = mp.minP
	}
	maxP := network.MaxLimit(c.base, id)
	if mp.hasMaxP {
		maxP = mp.maxP
	}
	hasRange := c.hasRange[id]

	if lineMaxP := c.base.Value(id, network.MaxP); lineMaxP < 0 {
		return 0, errors.Data(c.version, point,
			"Equipment '%s' : invalid active limit maxP %v at point %d", id, lineMaxP, point)
	}
	if hasRange && (minP > 0 || maxP < 0) {
		return 0, errors.Data(c.version, point,
			"Equipment '%s' : invalid active limits [%v, %v] at point %d", id, minP, maxP, point)
	}

	setpoint := network.Power(c.base, id)
	if mp.hasP {
		setpoint = mp.p
	}
	okMin := setpoint >= minP-c.tolerance
	okMax := setpoint <= maxP+c.tolerance
	setpoint = c.tolerate(mp, setpoint, minP, maxP, okMin, okMax)

	if mp.ignoreLimits && mp.hasP {
		if !mp.hasMaxP {
			c.trackLimit(pick(hasRange, slotCS12, slotHvdcMax), id, network.MaxLimit(c.base, id), setpoint)
		}
		if !mp.hasMinP {
			c.trackLimit(pick(hasRange, slotCS21, slotHvdcMin), id, network.MinLimit(c.base, id), setpoint)
		}
	}

	if !mp.hasP {
		return c.correctNotMapped(point, id, network.ActivePowerSetpoint, setpoint, minP, maxP, okMin, okMax, mp.ignoreLimits, true), nil
	}

	series := c.setpoint.series(mp.series)
	widened := math.Floor(math.Abs(setpoint) + 1)
	if mp.ignoreLimits {
		switch {
		case !okMax && !mp.hasMaxP:
			if err := c.widen(point, mp.series, id, network.MaxP, widened, func() error {
				if err := c.base.AddActivePowerRange(id); err != nil {
					return err
				}
				return network.SetHvdcMax(c.base, id, widened)
			}); err != nil {
				return 0, err
			}
			series.violation(pick(hasRange, violationCS12ByActivePower, violationMaxPByActivePower))
			return setpoint, nil
		case !okMax:
			series.change(changeMappedMaxPDisabled)
			return maxP, nil
		case !okMin && !mp.hasMinP:
			if err := c.widen(point, mp.series, id, network.MinP, -widened, func() error {
				if err := c.base.AddActivePowerRange(id); err != nil {
					return err
				}
				return network.SetHvdcMin(c.base, id, widened)
			}); err != nil {
				return 0, err
			}
			series.violation(pick(hasRange, violationCS21ByActivePower, violationMinPByActivePower))
			return setpoint, nil
		case !okMin:
			series.change(changeMappedMinPDisabled)
			return minP, nil
		}
		return setpoint, nil
	}

	switch {
	case !okMax && mp.hasMaxP:
		series.change(changeMappedMaxP)
		return maxP, nil
	case !okMax:
		series.change(pick(hasRange, changeBaseCaseCS12, changeBaseCaseMaxP))
		return maxP, nil
	case !okMin && mp.hasMinP:
		series.change(changeMappedMinP)
		return minP, nil
	case !okMin:
		series.change(pick(hasRange, changeBaseCaseCS21, changeBaseCaseMinusMaxP))
		return minP, nil
	}
	return setpoint, nil
}

// correctNotMapped handles a base case power against mapped limits. NaN keeps the base case.
func (c *Checker) correctNotMapped(point int, id string, v network.Variable, p, minP, maxP float64, okMin, okMax, ignoreLimits, hvdc bool) float64 {
	change := logs.RangeChange{
		Mapping:     true,
		NotIncluded: string(v),
		ID:          id,
		Value:       p,
		Min:         minP,
		Max:         maxP,
		OldValue:    string(v),
		Disabled:    ignoreLimits,
	}
	switch {
	case !okMax:
		change.ToVariable, change.NewValue = string(network.MaxP), maxP
	case (!okMin && minP <= 0) || (hvdc && !okMin):
		change.ToVariable, change.NewValue = string(network.MinP), minP
	case !okMin && p < 0:
		change.ToVariable, change.NewValue = "", 0
	case !okMin:
		c.logger.Add(logs.New(logs.Info, c.version, point, logs.MinPViolated{
			Mapping: true, NotIncluded: string(network.TargetP), ID: id, Value: p, Min: minP, Max: maxP,
		}))
		return p
	default:
		return math.NaN()
	}
	c.logger.Add(logs.New(logs.Warning, c.version, point, change))
	return change.NewValue
}

// widen moves a base case limit for the rest of the version and shows it to the observers at this point
func (c *Checker) widen(point int, series, id string, v network.Variable, value float64, apply func() error) error {
	if err := apply(); err != nil {
		return errors.Wrapf(errors.TypeInternal, err, "widen %s of %s", v, id)
	}
	return c.chain.EquipmentMapped(point, series, id, v, value)
}

// trackLimit follows the furthest power beyond a limit over the version
func (c *Checker) trackLimit(slot limitSlot, id string, old, p float64) {
	upper := slotLabels[slot].max
	lc := c.limits[slot].GetOrCreate(id, func() *limitChange {
		return &limitChange{base: old, limit: math.NaN()}
	})
	current := lc.base
	if !math.IsNaN(lc.limit) {
		current = lc.limit
	}
	if (upper && p > current+c.tolerance) || (!upper && p < current-c.tolerance) {
		lc.limit = p
	}
	if (!math.IsNaN(lc.limit) && upper && p > lc.base) || (!upper && p < lc.base) {
		lc.violations++
	}
}

func (c *Checker) logScaling(point int, stats *powerStats) {
	stats.current.Range(func(name string, s *scaledSeries) bool {
		if s.changes.Len() == 0 && s.violations.Len() == 0 {
			return true
		}
		sum := 0.0
		for _, id := range s.ids {
			if mp, ok := c.powers.Get(id); ok && mp.hasP {
				sum += mp.p
			} else {
				sum += network.Power(c.base, id)
			}
		}
		for _, change := range s.changes.Items() {
			c.logger.Add(logs.New(logs.Warning, c.version, point, change.describe(name, stats.variable, false, s.value, sum)))
			stats.changes.GetOrCreate(name, func() *determinism.OrderedSet[powerChange] {
				return determinism.NewOrderedSet[powerChange]()
			}).Add(change)
		}
		for _, violation := range s.violations.Items() {
			stats.violations.GetOrCreate(name, func() *determinism.OrderedSet[limitViolation] {
				return determinism.NewOrderedSet[limitViolation]()
			}).Add(violation)
		}
		return true
	})
}

// VersionEnd writes the version synthesis: widened limits, then changed powers and violated limits per series
func (c *Checker) VersionEnd(version int) error {
	for slot, changes := range c.limits {
		label := slotLabels[slot]
		changes.Range(func(id string, lc *limitChange) bool {
			if math.IsNaN(lc.limit) {
				return true
			}
			c.logger.Add(logs.New(logs.Info, version, logs.SynthesisPoint, logs.LimitChange{
				ID:               id,
				VariableToChange: label.toChange,
				Variable:         string(label.variable),
				Violations:       lc.violations,
				Old:              lc.base,
				New:              lc.limit,
				Max:              label.max,
			}))
			return true
		})
		changes.Clear()
	}

	for _, stats := range []*powerStats{c.targetP, c.setpoint} {
		stats.changes.Range(func(name string, set *determinism.OrderedSet[powerChange]) bool {
			for _, change := range set.Items() {
				c.logger.Add(logs.New(logs.Warning, version, logs.SynthesisPoint,
					change.describe(name, stats.variable, true, 0, 0)))
			}
			return true
		})
		stats.violations.Range(func(name string, set *determinism.OrderedSet[limitViolation]) bool {
			for _, violation := range set.Items() {
				c.logger.Add(logs.New(logs.Info, version, logs.SynthesisPoint, violation.describe(name)))
			}
			return true
		})
		stats.changes.Clear()
		stats.violations.Clear()
	}

	c.constant.Clear()
	clear(c.hasRange)
	return c.chain.VersionEnd(version)
}

// series returns the scaled series of name at the current point; an unknown name gets a throwaway record
func (s *powerStats) series(name string) *scaledSeries {
	if cur, ok := s.current.Get(name); ok {
		return cur
	}
	return &scaledSeries{
		changes:    determinism.NewOrderedSet[powerChange](),
		violations: determinism.NewOrderedSet[limitViolation](),
	}
}

func (s *scaledSeries) change(c powerChange)        { s.changes.Add(c) }
func (s *scaledSeries) violation(v limitViolation) { s.violations.Add(v) }

func pick[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}
