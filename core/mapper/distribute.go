package mapper

import (
	"math"
	"time"

	"metrix-mapping/core/logs"
	"metrix-mapping/core/network"
	"metrix-mapping/core/timeseries"
	"metrix-mapping/internal/errors"
)

// Distributor splits time series values over the equipments of an edge
type Distributor struct {
	table             timeseries.Table
	logger            *logs.Logger
	ignoreEmptyFilter bool
}

// NewDistributor creates a distributor reading t and logging to logger
func NewDistributor(t timeseries.Table, logger *logs.Logger, ignoreEmptyFilter bool) *Distributor {
	return &Distributor{table: t, logger: logger, ignoreEmptyFilter: ignoreEmptyFilter}
}

// Distribution is the outcome of one edge at one point
type Distribution struct {
	Value  float64
	Values []float64

	// Skipped is set when a sign problem prevents any value from being applied
	Skipped bool
}

// Distribute reads the edge value at point and splits it by weight.
// variant is the point reported in logs: ConstantPoint during the constant pass.
func (d *Distributor) Distribute(version, variant, point int, e *Edge) (Distribution, error) {
	n := len(e.Equipments)
	weights := make([]float64, n)
	sum := 0.0
	for i, eq := range e.Equipments {
		w, err := weight(d.table, eq, version, point)
		if err != nil {
			return Distribution{}, err
		}
		weights[i] = w
		sum += w
	}

	value := d.table.GetDouble(e.Num, version, point)
	res := Distribution{Value: value, Values: make([]float64, n)}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return res, errors.Data(version, point, "Impossible to scale down %v of ts %s at time index '%s' and version %d",
			value, e.Key.ID, d.instant(point), version).
			WithContext("time_series", e.Key.ID)
	}
	if math.Abs(value) == 0 {
		return res, nil
	}

	if n == 0 {
		empty := logs.EmptyFilter{TimeSeriesName: e.Key.ID, Value: value}
		if !d.ignoreEmptyFilter {
			_, message := empty.Describe()
			return res, errors.Data(version, point, "%s", message).WithContext("time_series", e.Key.ID)
		}
		d.logger.Add(logs.New(logs.Warning, version, variant, empty))
		return res, nil
	}

	if sum == 0 {
		for i := range weights {
			weights[i] = 1
		}
		sum = float64(n)
		d.logger.Add(logs.New(logs.Info, version, variant, logs.ZeroKey{
			TimeSeriesName: e.Key.ID, Value: value, IDs: e.IDs(),
		}))
	}

	if e.Kind == network.KindHvdcLine {
		v := e.Key.Variable
		if (v == network.MaxP && value < 0) || (v == network.MinP && value > 0) {
			d.logger.Add(logs.New(logs.Warning, version, variant, logs.LimitSign{
				TimeSeriesName: e.Key.ID, Variable: string(v), Value: value, Max: v == network.MaxP,
			}))
			res.Skipped = true
			return res, nil
		}
	}

	for i, w := range weights {
		res.Values[i] = value * w / sum
	}
	return res, nil
}

func (d *Distributor) instant(point int) string {
	index := d.table.Index()
	if point < 0 || point >= len(index) {
		return "?"
	}
	return index[point].Format(time.RFC3339)
}
