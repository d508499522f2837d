package mapping

import (
	"cmp"
	"encoding/json"
	"slices"

	"metrix-mapping/core/determinism"
	"metrix-mapping/core/network"
	"metrix-mapping/internal/errors"
)

type keyJSON struct {
	Number     *float64 `json:"number,omitempty"`
	TimeSeries string   `json:"timeSeries,omitempty"`
}

type equipmentJSON struct {
	ID              string  `json:"id"`
	DistributionKey keyJSON `json:"distributionKey"`
}

type mappingJSON struct {
	Kind       network.Kind     `json:"kind"`
	Variable   network.Variable `json:"variable"`
	TimeSeries string           `json:"timeSeries"`
	Equipments []equipmentJSON  `json:"equipments"`
}

type equipmentSeriesJSON struct {
	TimeSeries string `json:"timeSeries"`
	Targets    []Key  `json:"targets"`
}

type unmappedJSON struct {
	Kind     network.Kind     `json:"kind"`
	Variable network.Variable `json:"variable,omitempty"`
	IDs      []string         `json:"ids"`
}

type configJSON struct {
	Mappings            []mappingJSON         `json:"mappings"`
	EquipmentTimeSeries []equipmentSeriesJSON `json:"equipmentTimeSeries,omitempty"`
	Unmapped            []unmappedJSON        `json:"unmapped,omitempty"`
	IgnoredUnmapped     []unmappedJSON        `json:"ignoredUnmapped,omitempty"`
	IgnoreLimits        []string              `json:"ignoreLimits,omitempty"`
}

func encodeKey(k DistributionKey) keyJSON {
	switch k := k.(type) {
	case SeriesKey:
		return keyJSON{TimeSeries: k.Name}
	case NumberKey:
		v := k.Value
		return keyJSON{Number: &v}
	}
	one := 1.0
	return keyJSON{Number: &one}
}

func decodeKey(k keyJSON) (DistributionKey, error) {
	switch {
	case k.TimeSeries != "" && k.Number != nil:
		return nil, errors.Newf(errors.TypeParsing, "distribution key has both a number and a time series")
	case k.TimeSeries != "":
		return SeriesKey{Name: k.TimeSeries}, nil
	case k.Number != nil:
		return NumberKey{Value: *k.Number}, nil
	}
	return DefaultKey, nil
}

// MarshalJSON writes the configuration in mapping order
func (c *Config) MarshalJSON() ([]byte, error) {
	out := configJSON{Mappings: []mappingJSON{}}
	for _, kind := range network.Kinds() {
		cat := c.categories[kind]
		cat.series.Range(func(key Key, ids []string) bool {
			m := mappingJSON{Kind: kind, Variable: key.Variable, TimeSeries: key.ID, Equipments: []equipmentJSON{}}
			for _, id := range ids {
				m.Equipments = append(m.Equipments, equipmentJSON{
					ID:              id,
					DistributionKey: encodeKey(c.DistributionKey(key.Variable, id)),
				})
			}
			out.Mappings = append(out.Mappings, m)
			return true
		})
	}

	c.equipmentSeries.Range(func(series string, keys *determinism.OrderedSet[Key]) bool {
		out.EquipmentTimeSeries = append(out.EquipmentTimeSeries, equipmentSeriesJSON{TimeSeries: series, Targets: keys.Items()})
		return true
	})

	unmappedKeys := make([]unmappedKey, 0, len(c.unmapped))
	for k := range c.unmapped {
		unmappedKeys = append(unmappedKeys, k)
	}
	slices.SortFunc(unmappedKeys, func(a, b unmappedKey) int {
		if a.kind != b.kind {
			return cmp.Compare(a.kind, b.kind)
		}
		return cmp.Compare(a.variable, b.variable)
	})
	for _, k := range unmappedKeys {
		out.Unmapped = append(out.Unmapped, unmappedJSON{Kind: k.kind, Variable: k.variable, IDs: c.unmapped[k].Items()})
	}

	for _, kind := range network.Kinds() {
		if s, ok := c.ignoredUnmapped[kind]; ok {
			out.IgnoredUnmapped = append(out.IgnoredUnmapped, unmappedJSON{Kind: kind, IDs: s.Items()})
		}
	}
	out.IgnoreLimits = c.ignoreLimits.Items()
	return json.Marshal(out)
}

// UnmarshalJSON restores a configuration written by MarshalJSON
func (c *Config) UnmarshalJSON(data []byte) error {
	var in configJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return errors.Parsing("failed to decode mapping configuration", err)
	}

	*c = *NewConfig()
	for _, m := range in.Mappings {
		if len(m.Equipments) == 0 {
			c.MapEmpty(m.Kind, m.TimeSeries, m.Variable)
			continue
		}
		for _, e := range m.Equipments {
			key, err := decodeKey(e.DistributionKey)
			if err != nil {
				return err
			}
			c.Map(m.Kind, m.TimeSeries, m.Variable, e.ID, key)
		}
	}
	for _, es := range in.EquipmentTimeSeries {
		for _, target := range es.Targets {
			c.MapEquipmentSeries(es.TimeSeries, target.Variable, target.ID)
		}
	}

	// unmapped sets are restored as written, not derived from the mappings
	c.unmapped = make(map[unmappedKey]*determinism.OrderedSet[string])
	for _, u := range in.Unmapped {
		c.unmapped[unmappedKey{u.Kind, u.Variable}] = determinism.NewOrderedSet(u.IDs...)
	}
	for _, u := range in.IgnoredUnmapped {
		for _, id := range u.IDs {
			c.IgnoreUnmapped(u.Kind, id)
		}
	}
	for _, name := range in.IgnoreLimits {
		c.AddIgnoreLimits(name)
	}
	return nil
}
