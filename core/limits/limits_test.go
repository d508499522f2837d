package limits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metrix-mapping/core/logs"
	"metrix-mapping/core/network"
	"metrix-mapping/internal/errors"
)

func TestCorrectGenerator(t *testing.T) {
	tests := []struct {
		name         string
		gen          Generator
		ignoreLimits bool
		changes      []network.Change
		level        logs.Level
		label        string
	}{
		{
			name:         "maxP widened to targetP",
			gen:          Generator{ID: "G1", MinP: 0, MaxP: 100, TargetP: 150, UnmappedMinP: true, UnmappedMaxP: true},
			ignoreLimits: true,
			changes:      []network.Change{{ID: "G1", Variable: network.MaxP, Value: 150}},
			level:        logs.Info,
			label:        "base case range problem / maxP changed to base case targetP",
		},
		{
			name:    "targetP clamped to maxP",
			gen:     Generator{ID: "G1", MinP: 0, MaxP: 100, TargetP: 150, UnmappedMinP: true, UnmappedMaxP: true},
			changes: []network.Change{{ID: "G1", Variable: network.TargetP, Value: 100}},
			level:   logs.Warning,
			label:   "base case range problem / targetP changed to base case maxP",
		},
		{
			name:    "targetP clamped to non positive minP",
			gen:     Generator{ID: "G1", MinP: -20, MaxP: 100, TargetP: -50, UnmappedMinP: true, UnmappedMaxP: true},
			changes: []network.Change{{ID: "G1", Variable: network.TargetP, Value: -20}},
			level:   logs.Warning,
			label:   "base case range problem / targetP changed to base case minP",
		},
		{
			name:    "negative targetP under positive minP set to zero",
			gen:     Generator{ID: "G1", MinP: 10, MaxP: 100, TargetP: -5, UnmappedMinP: true, UnmappedMaxP: true},
			changes: []network.Change{{ID: "G1", Variable: network.TargetP, Value: 0}},
			level:   logs.Warning,
			label:   "base case range problem / targetP changed to 0",
		},
		{
			name:         "negative targetP set to zero with limits ignored",
			gen:          Generator{ID: "G1", MinP: 10, MaxP: 100, TargetP: -5, UnmappedMinP: true, UnmappedMaxP: true},
			ignoreLimits: true,
			changes:      []network.Change{{ID: "G1", Variable: network.TargetP, Value: 0}},
			level:        logs.Warning,
			label:        "base case range problem / targetP changed to 0 / IL disabled",
		},
		{
			name:  "positive minP violation only reported",
			gen:   Generator{ID: "G1", MinP: 10, MaxP: 100, TargetP: 5, UnmappedMinP: true, UnmappedMaxP: true},
			level: logs.Info,
			label: "base case range problem / base case minP violated by base case targetP",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := CorrectGenerator(3, tt.gen, tt.ignoreLimits)
			require.NoError(t, err)
			assert.Equal(t, tt.changes, r.Changes)
			require.Len(t, r.Logs, 1)
			assert.Equal(t, tt.level, r.Logs[0].Level)
			assert.Equal(t, tt.label, r.Logs[0].Label)
			assert.Equal(t, 3, r.Logs[0].Version)
			assert.Equal(t, logs.ConstantPoint, r.Logs[0].Point)
		})
	}
}

func TestCorrectGeneratorMappedLimit(t *testing.T) {
	r, err := CorrectGenerator(1, Generator{ID: "G1", MinP: 0, MaxP: 100, TargetP: 150, UnmappedMinP: true}, false)
	require.NoError(t, err)
	assert.Empty(t, r.Changes)
	assert.Empty(t, r.Logs)
}

func TestCorrectGeneratorInvalidLimits(t *testing.T) {
	_, err := CorrectGenerator(1, Generator{ID: "G1", MinP: 10, MaxP: 5}, false)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeData))
	assert.Contains(t, err.Error(), "invalid active limits [10, 5] in base case")
}

func TestCorrectHvdc(t *testing.T) {
	t.Run("range created and setpoint clamped", func(t *testing.T) {
		r, err := CorrectHvdc(1, Hvdc{ID: "H1", MinP: -100, MaxP: 100, LineMaxP: 100, Setpoint: 130, UnmappedMinP: true, UnmappedMaxP: true}, false)
		require.NoError(t, err)
		assert.True(t, r.AddActivePowerRange)
		assert.Equal(t, []network.Change{{ID: "H1", Variable: network.ActivePowerSetpoint, Value: 100}}, r.Changes)
		require.Len(t, r.Logs, 1)
		assert.Equal(t, logs.Warning, r.Logs[0].Level)
		assert.Equal(t, "base case range problem / activePowerSetpoint changed to base case maxP", r.Logs[0].Label)
	})

	t.Run("range clamped to maxP", func(t *testing.T) {
		r, err := CorrectHvdc(1, Hvdc{ID: "H1", ActivePowerRange: true, MinP: -120, MaxP: 150, LineMaxP: 100, Setpoint: 90, UnmappedMinP: true, UnmappedMaxP: true}, false)
		require.NoError(t, err)
		assert.False(t, r.AddActivePowerRange)
		assert.Equal(t, []network.Change{
			{ID: "H1", Variable: network.OprFromCS1toCS2, Value: 100},
			{ID: "H1", Variable: network.OprFromCS2toCS1, Value: 100},
		}, r.Changes)
		assert.Len(t, r.Logs, 2)
	})

	t.Run("maxP widened to range with limits ignored", func(t *testing.T) {
		r, err := CorrectHvdc(1, Hvdc{ID: "H1", ActivePowerRange: true, MinP: -80, MaxP: 150, LineMaxP: 100, Setpoint: -90, UnmappedMinP: true, UnmappedMaxP: true}, true)
		require.NoError(t, err)
		assert.Equal(t, network.Change{ID: "H1", Variable: network.MaxP, Value: 150}, r.Changes[0])
		assert.Equal(t, "base case range problem / maxP changed to base case CS1toCS2", r.Logs[0].Label)

		// setpoint under -CS2toCS1 widens the range
		assert.Equal(t, []network.Change{
			{ID: "H1", Variable: network.OprFromCS2toCS1, Value: 90},
			{ID: "H1", Variable: network.MaxP, Value: 150},
		}, r.Changes[1:])
		assert.Equal(t, "base case range problem / -CS2toCS1 changed to base case activePowerSetpoint", r.Logs[1].Label)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := CorrectHvdc(1, Hvdc{ID: "H1", LineMaxP: -1}, false)
		assert.Error(t, err)
		_, err = CorrectHvdc(1, Hvdc{ID: "H1", ActivePowerRange: true, MinP: 5, MaxP: 10, LineMaxP: 10}, false)
		assert.Error(t, err)
	})
}

func TestResultApply(t *testing.T) {
	n := network.New("test")
	n.MustAdd(&network.Equipment{ID: "H1", Kind: network.KindHvdcLine, Values: map[network.Variable]float64{network.MaxP: 100, network.ActivePowerSetpoint: -130}})
	o := network.NewOverlay(n)

	r, err := CorrectHvdc(1, HvdcFromView(o, "H1", true, true), true)
	require.NoError(t, err)
	require.NoError(t, r.Apply(o, "H1"))

	assert.True(t, o.HasActivePowerRange("H1"))
	assert.Equal(t, 100.0, o.Value("H1", network.OprFromCS1toCS2))
	assert.Equal(t, 130.0, o.Value("H1", network.OprFromCS2toCS1))
	assert.Equal(t, 130.0, o.Value("H1", network.MaxP))
	assert.Equal(t, -130.0, network.MinLimit(o, "H1"))
}
