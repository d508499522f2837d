package hcl

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metrix-mapping/core/mapping"
	"metrix-mapping/core/network"
	"metrix-mapping/internal/errors"
)

func testNetwork() *network.Network {
	n := network.New("grid")
	for _, id := range []string{"G1", "G2", "W1"} {
		n.MustAdd(&network.Equipment{ID: id, Kind: network.KindGenerator})
	}
	n.MustAdd(&network.Equipment{ID: "L1", Kind: network.KindLoad})
	n.MustAdd(&network.Equipment{ID: "L2", Kind: network.KindLoad})
	n.MustAdd(&network.Equipment{ID: "H1", Kind: network.KindHvdcLine})
	return n
}

const document = `
ignore_limits = ["wind"]

map "generator" {
  time_series      = "thermal"
  prefix           = "G"
  distribution_key = { G1 = 2, G2 = "capacity" }
}

map "generator" {
  time_series = "wind"
  equipments  = "W1"
}

map "Load" {
  time_series = "load"
  variable    = "fixedActivePower"
  equipments  = ["L1"]
  distribution_key = 3
}

map "hvdcLine" {
  time_series = "nothing"
  prefix      = "X"
}

equipment_time_series "h1_max" {
  variable   = "maxP"
  equipments = ["H1"]
}

unmapped "load" {
  equipments = ["L2"]
}
`

func TestDecode(t *testing.T) {
	c, err := NewLoader(testNetwork()).Decode([]byte(document), "mapping.hcl")
	require.NoError(t, err)

	thermal := mapping.Key{Variable: network.TargetP, ID: "thermal"}
	assert.Equal(t, []string{"G1", "G2"}, c.Equipments(network.KindGenerator, thermal), "prefix follows network order")
	assert.Equal(t, mapping.NumberKey{Value: 2}, c.DistributionKey(network.TargetP, "G1"))
	assert.Equal(t, mapping.SeriesKey{Name: "capacity"}, c.DistributionKey(network.TargetP, "G2"))
	assert.Equal(t, mapping.DefaultKey, c.DistributionKey(network.TargetP, "W1"))

	series, ok := c.MappedSeries(network.KindLoad, network.FixedActivePower, "L1")
	require.True(t, ok)
	assert.Equal(t, "load", series)
	assert.Equal(t, mapping.NumberKey{Value: 3}, c.DistributionKey(network.FixedActivePower, "L1"))
	assert.False(t, c.IsUnmapped(network.KindLoad, network.P0, "L1"))

	assert.Equal(t, []mapping.Key{{Variable: network.ActivePowerSetpoint, ID: "nothing"}}, c.SeriesKeys(network.KindHvdcLine))
	assert.Empty(t, c.Equipments(network.KindHvdcLine, mapping.Key{Variable: network.ActivePowerSetpoint, ID: "nothing"}))

	assert.Equal(t, []mapping.Key{{Variable: network.MaxP, ID: "H1"}}, c.EquipmentSeriesKeys("h1_max"))
	assert.True(t, c.IgnoreLimits("wind"))
	assert.True(t, c.IsIgnoredUnmapped(network.KindLoad, "L2"))
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		errType errors.Type
		message string
	}{
		{
			name:    "syntax",
			src:     "map \"generator\" {\n  time_series = \n",
			errType: errors.TypeParsing,
			message: "mapping.hcl:",
		},
		{
			name:    "unknown kind",
			src:     "map \"turbine\" {\n  time_series = \"a\"\n  equipments = []\n}\n",
			errType: errors.TypeParsing,
			message: "unknown equipment kind",
		},
		{
			name:    "incompatible variable",
			src:     "map \"load\" {\n  time_series = \"a\"\n  variable = \"targetP\"\n  equipments = [\"L1\"]\n}\n",
			errType: errors.TypeConfig,
			message: "cannot be mapped on load",
		},
		{
			name:    "missing time series",
			src:     "map \"load\" {\n  equipments = [\"L1\"]\n}\n",
			errType: errors.TypeParsing,
			message: "time_series is required",
		},
		{
			name:    "missing filter",
			src:     "map \"load\" {\n  time_series = \"a\"\n}\n",
			errType: errors.TypeParsing,
			message: "one of equipments or prefix is required",
		},
		{
			name:    "invalid distribution key",
			src:     "map \"load\" {\n  time_series = \"a\"\n  equipments = [\"L1\"]\n  distribution_key = true\n}\n",
			errType: errors.TypeParsing,
			message: "expected a number or a time series name",
		},
		{
			name:    "variables are not allowed",
			src:     "map \"load\" {\n  time_series = var.name\n  equipments = [\"L1\"]\n}\n",
			errType: errors.TypeParsing,
			message: "mapping.hcl:2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(testNetwork()).Decode([]byte(tt.src), "mapping.hcl")
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.errType), "got %v", err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	n := testNetwork()
	first, err := NewLoader(n).Decode([]byte(document), "mapping.hcl")
	require.NoError(t, err)

	encoded := Encode(first)
	second, err := NewLoader(n).Decode(encoded, "encoded.hcl")
	require.NoError(t, err, string(encoded))

	want, err := json.Marshal(first)
	require.NoError(t, err)
	got, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))
}
