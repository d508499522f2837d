package mapper

import (
	"context"
	"encoding/json"
	"maps"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"metrix-mapping/core/determinism"
	"metrix-mapping/core/logs"
	"metrix-mapping/core/mapping"
	"metrix-mapping/core/network"
	"metrix-mapping/core/observer"
	"metrix-mapping/core/timeseries"
	"metrix-mapping/internal/errors"
)

const version = 1

type call struct {
	point  int
	series string
	id     string
	v      network.Variable
	value  float64
}

type recorder struct {
	observer.Nop
	calls []call
}

func (r *recorder) EquipmentMapped(point int, series, id string, v network.Variable, value float64) error {
	r.calls = append(r.calls, call{point, series, id, v, value})
	return nil
}

// find returns the last value delivered for (id, v) at point
func (r *recorder) find(point int, id string, v network.Variable) (float64, bool) {
	value, found := 0.0, false
	for _, c := range r.calls {
		if c.point == point && c.id == id && c.v == v {
			value, found = c.value, true
		}
	}
	return value, found
}

func (r *recorder) position(point int, id string, v network.Variable) int {
	for i, c := range r.calls {
		if c.point == point && c.id == id && c.v == v {
			return i
		}
	}
	return -1
}

// effective rebuilds what each point applies: constant values overridden by point values
type effective struct {
	observer.Nop
	constant map[mapping.Key]float64
	current  map[mapping.Key]float64
	points   []map[mapping.Key]float64
}

func newEffective() *effective {
	return &effective{constant: make(map[mapping.Key]float64)}
}

func (e *effective) TimeStepStart(point int) error {
	e.current = make(map[mapping.Key]float64)
	return nil
}

func (e *effective) EquipmentMapped(point int, series, id string, v network.Variable, value float64) error {
	if point == observer.ConstantPoint {
		e.constant[mapping.Key{Variable: v, ID: id}] = value
	} else {
		e.current[mapping.Key{Variable: v, ID: id}] = value
	}
	return nil
}

func (e *effective) TimeStepEnd(point int, balance float64) error {
	if point != observer.ConstantPoint {
		merged := maps.Clone(e.constant)
		maps.Copy(merged, e.current)
		e.points = append(e.points, merged)
	}
	return nil
}

func testNetwork() *network.Network {
	n := network.New("test")
	n.MustAdd(&network.Equipment{ID: "G1", Kind: network.KindGenerator, Values: map[network.Variable]float64{
		network.MinP: 0, network.MaxP: 100, network.TargetP: 50,
	}})
	n.MustAdd(&network.Equipment{ID: "L1", Kind: network.KindLoad, Values: map[network.Variable]float64{network.P0: 30}})
	n.MustAdd(&network.Equipment{ID: "L2", Kind: network.KindLoad, LoadDetail: true, Values: map[network.Variable]float64{
		network.P0: 20, network.FixedActivePower: 5, network.VariableActivePower: 15,
	}})
	n.MustAdd(&network.Equipment{ID: "L3", Kind: network.KindLoad, LoadDetail: true, Values: map[network.Variable]float64{
		network.P0: 10, network.FixedActivePower: 4, network.VariableActivePower: 6,
	}})
	n.MustAdd(&network.Equipment{ID: "H1", Kind: network.KindHvdcLine, Values: map[network.Variable]float64{
		network.MaxP: 200, network.ActivePowerSetpoint: 40,
	}})
	return n
}

func newTable(t *testing.T, series map[string][]float64) *timeseries.InMemoryTable {
	t.Helper()
	points := 0
	for _, values := range series {
		points = len(values)
	}
	index := make([]time.Time, points)
	for i := range index {
		index[i] = time.Date(2026, 1, 1, i, 0, 0, 0, time.UTC)
	}
	tab := timeseries.NewInMemoryTable(index)
	for _, name := range determinism.SortedKeys(series) {
		require.NoError(t, tab.AddSeries(name, version, series[name]))
	}
	return tab
}

func run(n network.View, c *mapping.Config, tab timeseries.Table, params Parameters, observers ...observer.Observer) (*logs.Logger, error) {
	m := New(n, c, tab, nil, zap.NewNop())
	err := m.Run(context.Background(), params, observers...)
	return m.Logger(), err
}

func withLabel(l *logs.Logger, label string) []logs.Log {
	var out []logs.Log
	for _, entry := range l.Logs() {
		if entry.Label == label {
			out = append(out, entry)
		}
	}
	return out
}

func TestDistributionConservesValue(t *testing.T) {
	n := testNetwork()
	c := mapping.NewConfigFor(n)
	c.Map(network.KindLoad, "ts", network.P0, "L1", mapping.NumberKey{Value: 1})
	c.Map(network.KindLoad, "ts", network.P0, "L2", mapping.NumberKey{Value: 3})
	tab := newTable(t, map[string][]float64{"ts": {100, 200}})

	rec := &recorder{}
	_, err := run(n, c, tab, DefaultParameters(version), rec)
	require.NoError(t, err)

	for point, value := range []float64{100, 200} {
		l1, ok := rec.find(point, "L1", network.P0)
		require.True(t, ok)
		l2, ok := rec.find(point, "L2", network.P0)
		require.True(t, ok)
		assert.InDelta(t, value/4, l1, 1e-9)
		assert.InDelta(t, value*3/4, l2, 1e-9)
		assert.InDelta(t, value, l1+l2, 1e-9)
	}
}

func TestZeroDistributionKeyFallsBackToUniform(t *testing.T) {
	n := testNetwork()
	c := mapping.NewConfigFor(n)
	c.Map(network.KindLoad, "c", network.P0, "L1", mapping.SeriesKey{Name: "w"})
	c.Map(network.KindLoad, "c", network.P0, "L2", mapping.SeriesKey{Name: "w"})
	tab := newTable(t, map[string][]float64{"c": {60, 60, 60}, "w": {0, 0, 0}})

	rec := &recorder{}
	logger, err := run(n, c, tab, DefaultParameters(version), rec)
	require.NoError(t, err)

	// constant series: mapped and logged once for the whole version
	zero := withLabel(logger, "zero distribution key warning")
	require.Len(t, zero, 1)
	assert.Equal(t, logs.Info, zero[0].Level)
	assert.Equal(t, observer.ConstantPoint, zero[0].Point)

	v, ok := rec.find(observer.ConstantPoint, "L1", network.P0)
	require.True(t, ok)
	assert.InDelta(t, 30, v, 1e-9)
	_, ok = rec.find(0, "L1", network.P0)
	assert.False(t, ok)
}

func constantFixture(t *testing.T) (*network.Network, *mapping.Config, timeseries.Table) {
	n := testNetwork()
	c := mapping.NewConfigFor(n)
	c.Map(network.KindLoad, "c", network.P0, "L1", nil)
	c.Map(network.KindGenerator, "g", network.TargetP, "G1", nil)
	c.Map(network.KindGenerator, "q", network.TargetQ, "G1", nil)
	c.Map(network.KindLoad, "f", network.FixedActivePower, "L2", nil)
	c.Map(network.KindLoad, "v", network.VariableActivePower, "L2", nil)
	c.MapEquipmentSeries("tv", network.TargetV, "G1")
	tab := newTable(t, map[string][]float64{
		"c":  {10, 10, 10},
		"g":  {20, 30, 40},
		"q":  {1, 1, 1},
		"f":  {5, 5, 5},
		"v":  {1, 2, 3},
		"tv": {400, 400, 400},
	})
	return n, c, tab
}

func TestConstantPassIsIdempotent(t *testing.T) {
	n, c, tab := constantFixture(t)

	withConstant := newEffective()
	rec := &recorder{}
	_, err := run(n, c, tab, DefaultParameters(version), withConstant, rec)
	require.NoError(t, err)

	params := DefaultParameters(version)
	params.IdentifyConstantTimeSeries = false
	without := newEffective()
	_, err = run(n, c, tab, params, without)
	require.NoError(t, err)

	require.Len(t, withConstant.points, 3)
	assert.Equal(t, without.points, withConstant.points)

	_, ok := rec.find(observer.ConstantPoint, "G1", network.TargetQ)
	assert.True(t, ok, "constant series delivered at the constant point")
	_, ok = rec.find(observer.ConstantPoint, "G1", network.TargetV)
	assert.True(t, ok, "constant equipment series delivered at the constant point")
	_, ok = rec.find(observer.ConstantPoint, "G1", network.TargetP)
	assert.False(t, ok, "power is never constant")
}

func TestMappingConfigRoundTripGivesSameValues(t *testing.T) {
	n, c, tab := constantFixture(t)
	c.Map(network.KindLoad, "c", network.P0, "L3", mapping.NumberKey{Value: 2})

	data, err := json.Marshal(c)
	require.NoError(t, err)
	var restored mapping.Config
	require.NoError(t, json.Unmarshal(data, &restored))

	a := newEffective()
	_, err = run(n, c, tab, DefaultParameters(version), a)
	require.NoError(t, err)
	b := newEffective()
	_, err = run(n, &restored, tab, DefaultParameters(version), b)
	require.NoError(t, err)

	assert.Equal(t, a.points, b.points)
}

func TestGeneratorAboveMaxP(t *testing.T) {
	tab := map[string][]float64{"g": {150, 80}}

	t.Run("clamped to the base case limit", func(t *testing.T) {
		n := testNetwork()
		c := mapping.NewConfigFor(n)
		c.Map(network.KindGenerator, "g", network.TargetP, "G1", nil)

		rec := &recorder{}
		logger, err := run(n, c, newTable(t, tab), DefaultParameters(version), rec)
		require.NoError(t, err)

		v, ok := rec.find(0, "G1", network.TargetP)
		require.True(t, ok)
		assert.Equal(t, 100.0, v)
		v, _ = rec.find(1, "G1", network.TargetP)
		assert.Equal(t, 80.0, v)

		perPoint := withLabel(logger, "scaling down / at least one targetP changed to base case maxP")
		require.Len(t, perPoint, 1)
		assert.Equal(t, logs.Warning, perPoint[0].Level)
		assert.Equal(t, 0, perPoint[0].Point)
		assert.Equal(t, "Impossible to scale down 150 of ts g, targetP 100 has been applied", perPoint[0].Message)

		synthesis := withLabel(logger, "scaling down / at least one targetP changed to base case maxP / TS synthesis")
		require.Len(t, synthesis, 1)
		assert.Equal(t, logs.SynthesisPoint, synthesis[0].Point)
	})

	t.Run("ignored limits are widened", func(t *testing.T) {
		n := testNetwork()
		c := mapping.NewConfigFor(n)
		c.Map(network.KindGenerator, "g", network.TargetP, "G1", nil)
		c.AddIgnoreLimits("g")

		rec := &recorder{}
		writer := observer.NewNetworkWriter(n)
		var last *network.Network
		writer.OnVersionEnd = func(version int, n *network.Network) error {
			last = n
			return nil
		}
		logger, err := run(n, c, newTable(t, tab), DefaultParameters(version), rec, writer)
		require.NoError(t, err)

		v, ok := rec.find(0, "G1", network.TargetP)
		require.True(t, ok)
		assert.Equal(t, 150.0, v)
		limit, ok := rec.find(0, "G1", network.MaxP)
		require.True(t, ok)
		assert.Equal(t, 151.0, limit)
		assert.Less(t, rec.position(0, "G1", network.MaxP), rec.position(0, "G1", network.TargetP),
			"the widened limit reaches observers before the power")

		require.NotNil(t, last)
		assert.Equal(t, 151.0, last.Value("G1", network.MaxP), "widened limit kept for the rest of the version")
		assert.Equal(t, 80.0, last.Value("G1", network.TargetP))
		assert.Equal(t, 100.0, n.Value("G1", network.MaxP), "shared network untouched")

		change := withLabel(logger, "limit change / maxP")
		require.Len(t, change, 1)
		assert.Equal(t, logs.Info, change[0].Level)
		assert.Equal(t, "maxP of G1 lower than targetP for 1 variants, maxP increased from 100 to 150", change[0].Message)

		assert.Len(t, withLabel(logger, "scaling down / at least one maxP increased / TS synthesis"), 1)
		assert.Empty(t, withLabel(logger, "scaling down / at least one targetP changed to base case maxP"))
	})
}

func TestGeneratorCorrections(t *testing.T) {
	const (
		zero          = "scaling down / at least one targetP changed to 0"
		zeroDisabled  = "scaling down / at least one targetP changed to 0 / IL disabled"
		minPViolated  = "scaling down / base case minP violated by mapped targetP / TS synthesis"
		baseCaseMaxP  = "scaling down / at least one targetP changed to base case maxP"
		maxPIncreased = "scaling down / at least one maxP increased / TS synthesis"
	)

	tests := []struct {
		name         string
		minP         float64
		values       []float64
		ignoreLimits bool
		tolerance    float64

		// expected targetP delivered at point 0
		want float64
		// expected number of entries per label
		labels map[string]int
	}{
		{
			name:   "negative targetP under positive minP changed to 0",
			minP:   10,
			values: []float64{-5, 60},
			want:   0,
			labels: map[string]int{zero: 1, zero + " / TS synthesis": 1, zeroDisabled: 0},
		},
		{
			name:         "negative targetP changed to 0 with ignored limits",
			minP:         10,
			values:       []float64{-5, 60},
			ignoreLimits: true,
			want:         0,
			labels:       map[string]int{zeroDisabled: 1, zeroDisabled + " / TS synthesis": 1, zero: 0},
		},
		{
			name:   "positive targetP under positive minP is kept",
			minP:   10,
			values: []float64{5, 60},
			want:   5,
			labels: map[string]int{minPViolated: 1, zero: 0},
		},
		{
			name:         "positive targetP under positive minP is kept with ignored limits",
			minP:         10,
			values:       []float64{5, 60},
			ignoreLimits: true,
			want:         5,
			labels:       map[string]int{minPViolated: 1, zeroDisabled: 0, "limit change / minP": 0},
		},
		{
			name:      "value within tolerance of maxP is pulled inside",
			values:    []float64{100.005, 50},
			tolerance: 0.01,
			want:      99.99,
			labels:    map[string]int{baseCaseMaxP: 0, baseCaseMaxP + " / TS synthesis": 0},
		},
		{
			name:      "value just below maxP is pulled to maxP minus tolerance",
			values:    []float64{99.995, 50},
			tolerance: 0.01,
			want:      99.99,
			labels:    map[string]int{baseCaseMaxP: 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := network.New("test")
			n.MustAdd(&network.Equipment{ID: "G1", Kind: network.KindGenerator, Values: map[network.Variable]float64{
				network.MinP: tt.minP, network.MaxP: 100, network.TargetP: 50,
			}})
			c := mapping.NewConfigFor(n)
			c.Map(network.KindGenerator, "g", network.TargetP, "G1", nil)
			if tt.ignoreLimits {
				c.AddIgnoreLimits("g")
			}
			params := DefaultParameters(version)
			if tt.tolerance > 0 {
				params.ToleranceThreshold = tt.tolerance
			}

			rec := &recorder{}
			logger, err := run(n, c, newTable(t, map[string][]float64{"g": tt.values}), params, rec)
			require.NoError(t, err)

			v, ok := rec.find(0, "G1", network.TargetP)
			require.True(t, ok)
			assert.InDelta(t, tt.want, v, 1e-9)
			for label, count := range tt.labels {
				assert.Len(t, withLabel(logger, label), count, label)
			}
			if tt.ignoreLimits {
				_, widened := rec.find(0, "G1", network.MinP)
				assert.False(t, widened, "a positive minP is never widened")
			}
		})
	}
}

func TestLimitChangeCountsViolatingPoints(t *testing.T) {
	n := testNetwork()
	c := mapping.NewConfigFor(n)
	c.Map(network.KindGenerator, "g", network.TargetP, "G1", nil)
	c.AddIgnoreLimits("g")
	tab := newTable(t, map[string][]float64{"g": {150, 160, 80}})

	rec := &recorder{}
	logger, err := run(n, c, tab, DefaultParameters(version), rec)
	require.NoError(t, err)

	limit, ok := rec.find(1, "G1", network.MaxP)
	require.True(t, ok)
	assert.Equal(t, 161.0, limit)

	change := withLabel(logger, "limit change / maxP")
	require.Len(t, change, 1)
	assert.Equal(t, logs.SynthesisPoint, change[0].Point)
	assert.Equal(t, "maxP of G1 lower than targetP for 2 variants, maxP increased from 100 to 160", change[0].Message)
}

func TestGeneratorMappedLimits(t *testing.T) {
	n := testNetwork()
	c := mapping.NewConfigFor(n)
	c.Map(network.KindGenerator, "max", network.MaxP, "G1", nil)
	tab := newTable(t, map[string][]float64{"max": {30, 60}})

	rec := &recorder{}
	logger, err := run(n, c, tab, DefaultParameters(version), rec)
	require.NoError(t, err)

	// base case targetP 50 above the mapped maxP of point 0 only
	v, ok := rec.find(0, "G1", network.TargetP)
	require.True(t, ok)
	assert.Equal(t, 30.0, v)
	v, ok = rec.find(1, "G1", network.TargetP)
	require.True(t, ok)
	assert.True(t, math.IsNaN(v), "base case kept")

	ranges := withLabel(logger, "mapping range problem / targetP changed to mapped maxP")
	require.Len(t, ranges, 1)
	assert.Equal(t, logs.Warning, ranges[0].Level)
}

func TestInvalidMappedLimitsAreFatal(t *testing.T) {
	n := testNetwork()
	c := mapping.NewConfigFor(n)
	c.Map(network.KindGenerator, "min", network.MinP, "G1", nil)
	tab := newTable(t, map[string][]float64{"min": {10, 120}})

	_, err := run(n, c, tab, DefaultParameters(version))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeData))
	assert.Contains(t, err.Error(), "invalid active limits [120, 100] at point 1")
}

func TestHvdc(t *testing.T) {
	t.Run("negative maxP is skipped", func(t *testing.T) {
		n := testNetwork()
		c := mapping.NewConfigFor(n)
		c.Map(network.KindHvdcLine, "m", network.MaxP, "H1", nil)
		tab := newTable(t, map[string][]float64{"m": {-50, -60}})

		rec := &recorder{}
		logger, err := run(n, c, tab, DefaultParameters(version), rec)
		require.NoError(t, err)

		sign := withLabel(logger, "mapping sign problem / negative maxP value")
		require.Len(t, sign, 2)
		assert.Equal(t, logs.Warning, sign[0].Level)
		assert.Equal(t, "Impossible to map maxP -50 of ts m", sign[0].Message)
		for _, c := range rec.calls {
			assert.NotEqual(t, "H1", c.id)
		}
	})

	t.Run("positive minP is skipped", func(t *testing.T) {
		n := testNetwork()
		c := mapping.NewConfigFor(n)
		c.Map(network.KindHvdcLine, "m", network.MinP, "H1", nil)
		tab := newTable(t, map[string][]float64{"m": {50, 60}})

		rec := &recorder{}
		logger, err := run(n, c, tab, DefaultParameters(version), rec)
		require.NoError(t, err)

		sign := withLabel(logger, "mapping sign problem / positive minP value")
		require.Len(t, sign, 2)
		assert.Equal(t, logs.Warning, sign[0].Level)
		assert.Equal(t, "Impossible to map minP 50 of ts m", sign[0].Message)
		for _, c := range rec.calls {
			assert.NotEqual(t, "H1", c.id)
		}
	})

	t.Run("ignored limits open a range", func(t *testing.T) {
		n := testNetwork()
		c := mapping.NewConfigFor(n)
		c.Map(network.KindHvdcLine, "s", network.ActivePowerSetpoint, "H1", nil)
		c.AddIgnoreLimits("s")
		tab := newTable(t, map[string][]float64{"s": {250, 100}})

		rec := &recorder{}
		logger, err := run(n, c, tab, DefaultParameters(version), rec)
		require.NoError(t, err)

		v, _ := rec.find(0, "H1", network.ActivePowerSetpoint)
		assert.Equal(t, 250.0, v)
		limit, ok := rec.find(0, "H1", network.MaxP)
		require.True(t, ok)
		assert.Equal(t, 251.0, limit)

		change := withLabel(logger, "limit change / maxP")
		require.Len(t, change, 1)
		assert.Equal(t, "maxP of H1 lower than activePowerSetpoint for 1 variants, maxP increased from 200 to 250", change[0].Message)
		assert.Len(t, withLabel(logger, "scaling down / at least one maxP increased / TS synthesis"), 1)
	})

	t.Run("setpoint clamped to maxP", func(t *testing.T) {
		n := testNetwork()
		c := mapping.NewConfigFor(n)
		c.Map(network.KindHvdcLine, "s", network.ActivePowerSetpoint, "H1", nil)
		tab := newTable(t, map[string][]float64{"s": {-250, 100}})

		rec := &recorder{}
		logger, err := run(n, c, tab, DefaultParameters(version), rec)
		require.NoError(t, err)

		v, _ := rec.find(0, "H1", network.ActivePowerSetpoint)
		assert.Equal(t, -200.0, v)
		assert.Len(t, withLabel(logger, "scaling down / at least one activePowerSetpoint changed to base case -maxP"), 1)
	})
}

func TestEmptyFilter(t *testing.T) {
	n := testNetwork()
	c := mapping.NewConfigFor(n)
	c.MapEmpty(network.KindLoad, "e", network.P0)
	tab := newTable(t, map[string][]float64{"e": {5, 6}})

	t.Run("fatal by default", func(t *testing.T) {
		_, err := run(n, c, tab, DefaultParameters(version))
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.TypeData))
	})

	t.Run("logged when ignored", func(t *testing.T) {
		params := DefaultParameters(version)
		params.IgnoreEmptyFilter = true
		logger, err := run(n, c, tab, params)
		require.NoError(t, err)
		empty := withLabel(logger, "empty filter error")
		require.Len(t, empty, 2)
		assert.Equal(t, logs.Warning, empty[0].Level)
	})
}

func TestNaNValueIsFatal(t *testing.T) {
	n := testNetwork()
	c := mapping.NewConfigFor(n)
	c.Map(network.KindLoad, "n", network.P0, "L1", nil)
	tab := newTable(t, map[string][]float64{"n": {1, math.NaN()}})

	rec := &recorder{}
	_, err := run(n, c, tab, DefaultParameters(version), rec)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeData))
	assert.Contains(t, err.Error(), "Impossible to scale down NaN of ts n")

	_, ok := rec.find(0, "L1", network.P0)
	assert.True(t, ok, "points before the failure were delivered")
}

func TestLoadDetailClassification(t *testing.T) {
	n := testNetwork()
	c := mapping.NewConfigFor(n)
	c.Map(network.KindLoad, "f", network.FixedActivePower, "L2", nil)
	c.Map(network.KindLoad, "f", network.FixedActivePower, "L3", nil)
	c.Map(network.KindLoad, "v", network.VariableActivePower, "L2", nil)
	tab := newTable(t, map[string][]float64{"f": {5, 5}, "v": {1, 2}})

	rec := &recorder{}
	_, err := run(n, c, tab, DefaultParameters(version), rec)
	require.NoError(t, err)

	_, ok := rec.find(observer.ConstantPoint, "L3", network.FixedActivePower)
	assert.True(t, ok, "L3 only has constant detail")
	_, ok = rec.find(0, "L3", network.FixedActivePower)
	assert.False(t, ok)

	_, ok = rec.find(observer.ConstantPoint, "L2", network.FixedActivePower)
	assert.False(t, ok, "L2 has a variable detail series")
	for point := 0; point < 2; point++ {
		_, ok = rec.find(point, "L2", network.FixedActivePower)
		assert.True(t, ok)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	n := testNetwork()
	c := mapping.NewConfigFor(n)
	c.Map(network.KindLoad, "ts", network.P0, "L1", nil)
	tab := newTable(t, map[string][]float64{"ts": {1, 2}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New(n, c, tab, nil, nil).Run(ctx, DefaultParameters(version))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConstantBalance(t *testing.T) {
	n := testNetwork()
	c := mapping.NewConfigFor(n)
	c.Map(network.KindLoad, "f", network.FixedActivePower, "L2", nil)
	tab := newTable(t, map[string][]float64{"f": {1, 2}})

	m := New(n, c, tab, nil, nil)
	// G1 50, L1 -30, L2 variable power -15, L3 -10
	assert.InDelta(t, 50-30-15-10, m.constantBalance(network.NewOverlay(n)), 1e-9)
}
