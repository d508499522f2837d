// Package mapper - Time series mapping engine.
// Distributes each time series value over its equipments, point by point, and
// corrects active power against limits before handing values to observers.
package mapper

import (
	"math"

	"metrix-mapping/core/mapping"
	"metrix-mapping/core/network"
	"metrix-mapping/core/timeseries"
	"metrix-mapping/internal/errors"
)

// unresolved marks a series distribution key whose column is not known yet
const unresolved = -1

// MappedEquipment joins an equipment to its role in one mapping edge
type MappedEquipment struct {
	ID  string
	Key mapping.DistributionKey

	// keyNum caches the column of a series key
	keyNum *int
}

// Edge maps one time series column on the equipments of one variable
type Edge struct {
	Key        mapping.Key // Variable + time series name
	Num        int
	Kind       network.Kind
	Equipments []MappedEquipment
}

// IDs returns the equipment ids in mapping order
func (e *Edge) IDs() []string {
	ids := make([]string, len(e.Equipments))
	for i, eq := range e.Equipments {
		ids[i] = eq.ID
	}
	return ids
}

// EquipmentTimeSeriesMap is the ordered list of edges of one equipment kind
type EquipmentTimeSeriesMap struct {
	Kind  network.Kind
	Edges []*Edge

	byKey map[mapping.Key]*Edge
}

func newEquipmentTimeSeriesMap(kind network.Kind) *EquipmentTimeSeriesMap {
	return &EquipmentTimeSeriesMap{Kind: kind, byKey: make(map[mapping.Key]*Edge)}
}

// Len returns the number of edges
func (m *EquipmentTimeSeriesMap) Len() int { return len(m.Edges) }

// add appends a whole edge, sharing its equipment list
func (m *EquipmentTimeSeriesMap) add(e *Edge) {
	m.Edges = append(m.Edges, e)
	m.byKey[e.Key] = e
}

// addEquipment appends one equipment to the edge of src, creating it on first use
func (m *EquipmentTimeSeriesMap) addEquipment(src *Edge, eq MappedEquipment) {
	e, ok := m.byKey[src.Key]
	if !ok {
		e = &Edge{Key: src.Key, Num: src.Num, Kind: src.Kind}
		m.add(e)
	}
	e.Equipments = append(e.Equipments, eq)
}

// EquipmentSeries copies a time series as is on several (variable, equipment) targets
type EquipmentSeries struct {
	Name    string
	Num     int
	Targets []mapping.Key
}

// Index is the run-wide view of a mapping configuration against a table
type Index struct {
	Categories []*EquipmentTimeSeriesMap
	Equipment  []EquipmentSeries
}

// BuildIndex resolves every mapped series of c in t. Series distribution keys resolve lazily.
func BuildIndex(c *mapping.Config, t timeseries.Table) (*Index, error) {
	idx := &Index{}
	keyNums := make(map[string]*int)

	for _, kind := range network.Kinds() {
		m := newEquipmentTimeSeriesMap(kind)
		for _, key := range c.SeriesKeys(kind) {
			num, err := t.ResolveIndex(key.ID)
			if err != nil {
				return nil, errors.Wrapf(errors.TypeNotFound, err, "mapping of %s on %s", key.ID, kind)
			}
			edge := &Edge{Key: key, Num: num, Kind: kind}
			for _, id := range c.Equipments(kind, key) {
				dk := c.DistributionKey(key.Variable, id)
				eq := MappedEquipment{ID: id, Key: dk}
				if sk, ok := dk.(mapping.SeriesKey); ok {
					cached, ok := keyNums[sk.Name]
					if !ok {
						n := unresolved
						cached = &n
						keyNums[sk.Name] = cached
					}
					eq.keyNum = cached
				}
				edge.Equipments = append(edge.Equipments, eq)
			}
			m.add(edge)
		}
		idx.Categories = append(idx.Categories, m)
	}

	for _, name := range c.EquipmentSeries() {
		num, err := t.ResolveIndex(name)
		if err != nil {
			return nil, errors.Wrapf(errors.TypeNotFound, err, "equipment time series %s", name)
		}
		idx.Equipment = append(idx.Equipment, EquipmentSeries{
			Name:    name,
			Num:     num,
			Targets: c.EquipmentSeriesKeys(name),
		})
	}
	return idx, nil
}

// weight returns the distribution weight of eq at a point
func weight(t timeseries.Table, eq MappedEquipment, version, point int) (float64, error) {
	switch k := eq.Key.(type) {
	case mapping.NumberKey:
		return k.Value, nil
	case mapping.SeriesKey:
		num := unresolved
		if eq.keyNum != nil {
			num = *eq.keyNum
		}
		if num == unresolved {
			var err error
			if num, err = t.ResolveIndex(k.Name); err != nil {
				return 0, errors.Wrapf(errors.TypeNotFound, err, "distribution key of %s", eq.ID)
			}
			if eq.keyNum != nil {
				*eq.keyNum = num
			}
		}
		return math.Abs(t.GetDouble(num, version, point)), nil
	}
	return 0, errors.Newf(errors.TypeInternal, "unsupported distribution key %v", eq.Key)
}
