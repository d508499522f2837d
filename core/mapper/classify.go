package mapper

import (
	"go.uber.org/zap"

	"metrix-mapping/core/network"
	"metrix-mapping/core/timeseries"
)

const (
	// epsilonZeroStdDev is the std-dev below which a mapped series is constant
	epsilonZeroStdDev = 1e-6

	// epsilonComparison is the same threshold for equipment time series
	epsilonComparison = 1e-5
)

// Classifier splits an index into the edges computed once per version and the edges computed at every point
type Classifier struct {
	table      timeseries.Table
	noConstant bool
	log        *zap.Logger
}

// NewClassifier creates a classifier; noConstant puts everything in the variable partition
func NewClassifier(t timeseries.Table, noConstant bool, log *zap.Logger) *Classifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Classifier{table: t, noConstant: noConstant, log: log}
}

func (c *Classifier) isConstant(num, version int, epsilon float64) bool {
	return c.table.StdDev(num, version) < epsilon
}

// Classify partitions src for one version. Partitions share the equipment lists of src.
func (c *Classifier) Classify(version int, src *EquipmentTimeSeriesMap) (constant, variable *EquipmentTimeSeriesMap) {
	constant = newEquipmentTimeSeriesMap(src.Kind)
	variable = newEquipmentTimeSeriesMap(src.Kind)
	if c.noConstant {
		for _, e := range src.Edges {
			variable.add(e)
		}
		return constant, variable
	}
	if src.Kind == network.KindLoad {
		c.classifyLoads(version, src, constant, variable)
		return constant, variable
	}
	for _, e := range src.Edges {
		// power is never constant so that limit corrections see every point
		if e.Key.Variable.IsPower() || !c.isConstant(e.Num, version, epsilonZeroStdDev) {
			variable.add(e)
			continue
		}
		c.log.Debug("mapping time series is constant", zap.String("time_series", e.Key.ID), zap.Int("version", version))
		constant.add(e)
	}
	return constant, variable
}

// classifyLoads only tests active power series. A constant fixed or variable active power
// series stays constant for a load only if no variable detail series maps the same load.
func (c *Classifier) classifyLoads(version int, src, constant, variable *EquipmentTimeSeriesMap) {
	var possiblyConstant []*Edge
	variableDetails := make(map[string]bool)

	for _, e := range src.Edges {
		v := e.Key.Variable
		if v != network.P0 && v != network.FixedActivePower && v != network.VariableActivePower {
			variable.add(e)
			continue
		}
		if c.isConstant(e.Num, version, epsilonZeroStdDev) {
			c.log.Debug("mapping time series is constant", zap.String("time_series", e.Key.ID), zap.Int("version", version))
			if v == network.P0 {
				constant.add(e)
			} else {
				possiblyConstant = append(possiblyConstant, e)
			}
			continue
		}
		variable.add(e)
		if v != network.P0 {
			for _, eq := range e.Equipments {
				variableDetails[eq.ID] = true
			}
		}
	}

	for _, e := range possiblyConstant {
		for _, eq := range e.Equipments {
			if variableDetails[eq.ID] {
				variable.addEquipment(e, eq)
			} else {
				constant.addEquipment(e, eq)
			}
		}
	}
}

// ClassifyEquipmentSeries partitions the equipment time series for one version
func (c *Classifier) ClassifyEquipmentSeries(version int, src []EquipmentSeries) (constant, variable []EquipmentSeries) {
	for _, s := range src {
		if !c.noConstant && c.isConstant(s.Num, version, epsilonComparison) {
			c.log.Debug("equipment time series is constant", zap.String("time_series", s.Name), zap.Int("version", version))
			constant = append(constant, s)
		} else {
			variable = append(variable, s)
		}
	}
	return constant, variable
}
