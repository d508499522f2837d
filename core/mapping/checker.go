package mapping

import (
	"fmt"
	"strings"

	"metrix-mapping/core/determinism"
	"metrix-mapping/core/network"
	"metrix-mapping/internal/errors"
)

// KindStats counts the mapping coverage of one equipment kind
type KindStats struct {
	Kind        network.Kind `json:"kind"`
	Total       int          `json:"total"`
	Mapped      int          `json:"mapped"`
	Unmapped    int          `json:"unmapped"`
	Ignored     int          `json:"ignored"`
	MultiMapped int          `json:"multiMapped"`
}

// Stats is the result of a successful configuration check
type Stats struct {
	Kinds []KindStats `json:"kinds"`
}

// IsComplete reports whether every equipment is mapped or declared unmapped
func (s *Stats) IsComplete() bool {
	for _, k := range s.Kinds {
		if k.Unmapped > 0 {
			return false
		}
	}
	return true
}

// Check validates a configuration against a network. Every problem found is reported
// in a single configuration error, before any point is mapped.
func Check(c *Config, n network.View) (*Stats, error) {
	var problems []string
	add := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	for _, kind := range network.Kinds() {
		for _, key := range c.MappedKeys(kind) {
			actual, ok := n.Kind(key.ID)
			switch {
			case !ok:
				add("Equipment '%s' not found in network", key.ID)
			case actual != kind:
				add("Equipment '%s' is a %s, not a %s", key.ID, actual, kind)
			case !Compatible(kind, key.Variable):
				add("Variable '%s' is not compatible with %s '%s'", key.Variable, kind, key.ID)
			}
		}
	}

	for _, series := range c.EquipmentSeries() {
		for _, key := range c.EquipmentSeriesKeys(series) {
			kind, ok := n.Kind(key.ID)
			switch {
			case !ok:
				add("Equipment '%s' of time series '%s' not found in network", key.ID, series)
			case !Compatible(kind, key.Variable):
				add("Variable '%s' is not compatible with %s '%s'", key.Variable, kind, key.ID)
			}
		}
	}

	for _, id := range n.IDs(network.KindLoad) {
		if c.isMapped(network.KindLoad, network.P0, id) &&
			(c.isMapped(network.KindLoad, network.FixedActivePower, id) || c.isMapped(network.KindLoad, network.VariableActivePower, id)) {
			add("Load '%s' is mapped on p0 and on one of the detailed variables (fixedActivePower/variableActivePower)", id)
		}
		if c.isMapped(network.KindLoad, network.Q0, id) &&
			(c.isMapped(network.KindLoad, network.FixedReactivePower, id) || c.isMapped(network.KindLoad, network.VariableReactivePower, id)) {
			add("Load '%s' is mapped on q0 and on one of the detailed variables (fixedReactivePower/variableReactivePower)", id)
		}
	}

	for _, kind := range network.Kinds() {
		for _, id := range c.IgnoredUnmapped(kind) {
			for _, key := range c.MappedKeys(kind) {
				if key.ID == id {
					series, _ := c.MappedSeries(kind, key.Variable, id)
					add("Equipment '%s' is declared unmapped but mapped on time series '%s'", id, series)
					break
				}
			}
		}
	}

	if len(problems) > 0 {
		return nil, errors.Config("%s", strings.Join(problems, "\n")).WithContext("problems", len(problems))
	}
	return c.stats(n), nil
}

// CheckTimeSeries verifies that every time series the configuration reads exists
func CheckTimeSeries(c *Config, names []string, required ...string) error {
	known := make(map[string]bool, len(names))
	for _, name := range names {
		known[name] = true
	}
	var missing []string
	for _, name := range c.UsedTimeSeriesNames(required...) {
		if !known[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return errors.Newf(errors.TypeNotFound, "time series not found: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) isMapped(kind network.Kind, v network.Variable, id string) bool {
	_, ok := c.MappedSeries(kind, v, id)
	return ok
}

func (c *Config) stats(n network.View) *Stats {
	s := &Stats{}
	for _, kind := range network.Kinds() {
		ids := n.IDs(kind)
		if len(ids) == 0 {
			continue
		}
		ks := KindStats{Kind: kind, Total: len(ids), Ignored: len(c.IgnoredUnmapped(kind))}

		perEquipment := determinism.NewOrderedMap[string, int]()
		for _, key := range c.MappedKeys(kind) {
			count, _ := perEquipment.Get(key.ID)
			perEquipment.Set(key.ID, count+1)
		}
		ks.Mapped = perEquipment.Len()
		perEquipment.Range(func(_ string, count int) bool {
			if count > 1 {
				ks.MultiMapped++
			}
			return true
		})

		for _, id := range ids {
			if !perEquipment.Has(id) && !c.IsIgnoredUnmapped(kind, id) {
				ks.Unmapped++
			}
		}
		s.Kinds = append(s.Kinds, ks)
	}
	return s
}
