package engine

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metrix-mapping/core/mapper"
	"metrix-mapping/core/mapping"
	"metrix-mapping/core/network"
	"metrix-mapping/core/observer"
	"metrix-mapping/core/timeseries"
	"metrix-mapping/internal/errors"
)

func fixture(t *testing.T) (*network.Network, *mapping.Config, *timeseries.InMemoryTable) {
	t.Helper()
	n := network.New("grid")
	n.MustAdd(&network.Equipment{ID: "G1", Kind: network.KindGenerator, Values: map[network.Variable]float64{
		network.MinP: 0, network.MaxP: 100, network.TargetP: 150,
	}})
	n.MustAdd(&network.Equipment{ID: "L1", Kind: network.KindLoad, Values: map[network.Variable]float64{network.P0: 30}})

	c := mapping.NewConfigFor(n)
	c.Map(network.KindLoad, "load", network.P0, "L1", nil)

	index := []time.Time{
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC),
	}
	tab := timeseries.NewInMemoryTable(index)
	require.NoError(t, tab.AddSeries("load", 1, []float64{40, 60}))
	require.NoError(t, tab.AddSeries("load", 2, []float64{10, 20}))
	return n, c, tab
}

func TestEngineRun(t *testing.T) {
	n, c, tab := fixture(t)
	balance := observer.NewBalanceSummary()

	e := NewEngine(EngineConfig{Parameters: mapper.DefaultParameters()}, nil)
	res, err := e.Run(context.Background(), &Request{
		Network:   n,
		Mapping:   c,
		Table:     tab,
		Observers: []observer.Observer{balance},
		RunID:     "run-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, []int{1, 2}, res.Versions, "every table version by default")
	assert.Equal(t, 2, res.Points)
	require.NotNil(t, res.Stats)
	assert.False(t, res.Stats.IsComplete())

	// base case targetP 150 clamped to maxP once per version
	var clamped int
	for _, l := range res.Logs.Logs() {
		if l.Label == "base case range problem / targetP changed to base case maxP" {
			clamped++
		}
	}
	assert.Equal(t, 2, clamped)

	v, ok := balance.Value(1, 1)
	require.True(t, ok)
	assert.InDelta(t, 100-60, v, 1e-9)
	v, ok = balance.Value(2, 0)
	require.True(t, ok)
	assert.InDelta(t, 100-10, v, 1e-9)
}

func TestEngineRunRejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Request, *EngineConfig)
		errType errors.Type
	}{
		{
			name:    "missing network",
			mutate:  func(r *Request, _ *EngineConfig) { r.Network = nil },
			errType: errors.TypeInput,
		},
		{
			name: "unknown equipment",
			mutate: func(r *Request, _ *EngineConfig) {
				r.Mapping.Map(network.KindLoad, "load", network.P0, "L9", nil)
			},
			errType: errors.TypeConfig,
		},
		{
			name: "missing series",
			mutate: func(r *Request, _ *EngineConfig) {
				r.Mapping.Map(network.KindGenerator, "wind", network.TargetP, "G1", nil)
			},
			errType: errors.TypeNotFound,
		},
		{
			name:    "missing required series",
			mutate:  func(_ *Request, c *EngineConfig) { c.RequiredTimeSeries = []string{"solar"} },
			errType: errors.TypeNotFound,
		},
		{
			name:    "unknown version",
			mutate:  func(_ *Request, c *EngineConfig) { c.Parameters.Versions = []int{7} },
			errType: errors.TypeNotFound,
		},
		{
			name:    "invalid point range",
			mutate:  func(_ *Request, c *EngineConfig) { c.Parameters.FirstPoint = 5 },
			errType: errors.TypeInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, c, tab := fixture(t)
			req := &Request{Network: n, Mapping: c, Table: tab}
			cfg := EngineConfig{Parameters: mapper.DefaultParameters()}
			tt.mutate(req, &cfg)

			_, err := NewEngine(cfg, nil).Run(context.Background(), req)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.errType), "got %v", err)
		})
	}
}

func TestOrchestratorPhaseOrder(t *testing.T) {
	n, c, tab := fixture(t)
	o := NewOrchestrator(n, c, tab, nil)

	err := o.Prepare(context.Background(), 1)
	var order *PhaseOrderError
	require.True(t, stderrors.As(err, &order))
	assert.Equal(t, PhaseTableChecked, order.Required)
	assert.Equal(t, PhaseUninitialized, order.Current)

	require.NoError(t, o.CheckConfiguration())
	assert.Error(t, o.CheckConfiguration(), "phases run once")
	require.NoError(t, o.CheckTable([]int{2}))
	assert.Equal(t, []int{2}, o.Versions())
	require.NoError(t, o.Prepare(context.Background(), 2))

	rec := observer.NewBalanceSummary()
	m := mapper.New(n, c, tab, nil, nil)
	require.NoError(t, o.Map(context.Background(), m, mapper.DefaultParameters(1), rec))
	assert.Equal(t, PhaseMapped, o.Phase())

	_, ok := rec.Value(1, 0)
	assert.False(t, ok, "versions come from CheckTable")
	_, ok = rec.Value(2, 0)
	assert.True(t, ok)
	assert.Empty(t, o.Errors())
}
