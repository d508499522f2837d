package mapping

import (
	"slices"

	"metrix-mapping/core/determinism"
	"metrix-mapping/core/network"
)

// category holds both directions of the mappings of one equipment kind
type category struct {
	// (variable, time series) -> equipment ids, in mapping order
	series *determinism.OrderedMap[Key, []string]

	// (variable, equipment) -> time series
	equipments *determinism.OrderedMap[Key, string]
}

func newCategory() *category {
	return &category{
		series:     determinism.NewOrderedMap[Key, []string](),
		equipments: determinism.NewOrderedMap[Key, string](),
	}
}

type unmappedKey struct {
	kind     network.Kind
	variable network.Variable
}

// tracked lists the variables whose unmapped equipments are followed per kind
var tracked = map[network.Kind][]network.Variable{
	network.KindGenerator:       {network.TargetP, network.MinP, network.MaxP},
	network.KindBattery:         {network.TargetP, network.MinP, network.MaxP},
	network.KindLoad:            {network.P0, network.FixedActivePower, network.VariableActivePower},
	network.KindDanglingLine:    {network.P0},
	network.KindHvdcLine:        {network.ActivePowerSetpoint, network.MinP, network.MaxP},
	network.KindPhaseTapChanger: {network.PhaseTapPosition},
}

// Config is the static mapping configuration of a run
type Config struct {
	categories map[network.Kind]*category
	keys       map[Key]DistributionKey

	unmapped        map[unmappedKey]*determinism.OrderedSet[string]
	ignoredUnmapped map[network.Kind]*determinism.OrderedSet[string]

	// time series copied as is on equipment variables
	equipmentSeries   *determinism.OrderedMap[string, *determinism.OrderedSet[Key]]
	equipmentToSeries *determinism.OrderedMap[Key, string]

	ignoreLimits *determinism.OrderedSet[string]
}

// NewConfig creates an empty configuration
func NewConfig() *Config {
	c := &Config{
		categories:        make(map[network.Kind]*category),
		keys:              make(map[Key]DistributionKey),
		unmapped:          make(map[unmappedKey]*determinism.OrderedSet[string]),
		ignoredUnmapped:   make(map[network.Kind]*determinism.OrderedSet[string]),
		equipmentSeries:   determinism.NewOrderedMap[string, *determinism.OrderedSet[Key]](),
		equipmentToSeries: determinism.NewOrderedMap[Key, string](),
		ignoreLimits:      determinism.NewOrderedSet[string](),
	}
	for _, kind := range network.Kinds() {
		c.categories[kind] = newCategory()
	}
	return c
}

// NewConfigFor creates a configuration whose unmapped sets start with every equipment of n
func NewConfigFor(n network.View) *Config {
	c := NewConfig()
	for kind, vars := range tracked {
		for _, id := range n.IDs(kind) {
			for _, v := range vars {
				c.unmappedSet(kind, v).Add(id)
			}
		}
	}
	return c
}

func (c *Config) unmappedSet(kind network.Kind, v network.Variable) *determinism.OrderedSet[string] {
	key := unmappedKey{kind, v}
	s, ok := c.unmapped[key]
	if !ok {
		s = determinism.NewOrderedSet[string]()
		c.unmapped[key] = s
	}
	return s
}

// Map maps the variable of one equipment on a time series.
// A later mapping of the same (variable, equipment) replaces the earlier one.
func (c *Config) Map(kind network.Kind, series string, v network.Variable, id string, key DistributionKey) {
	cat := c.categories[kind]
	seriesKey := Key{Variable: v, ID: series}
	equipmentKey := Key{Variable: v, ID: id}

	if old, ok := cat.equipments.Get(equipmentKey); ok {
		oldKey := Key{Variable: v, ID: old}
		ids, _ := cat.series.Get(oldKey)
		if i := slices.Index(ids, id); i >= 0 {
			ids = slices.Delete(ids, i, i+1)
		}
		if len(ids) == 0 {
			cat.series.Delete(oldKey)
		} else {
			cat.series.Set(oldKey, ids)
		}
	}

	ids, _ := cat.series.Get(seriesKey)
	cat.series.Set(seriesKey, append(ids, id))
	cat.equipments.Set(equipmentKey, series)

	if key == nil {
		key = DefaultKey
	}
	c.keys[equipmentKey] = key
	c.narrowUnmapped(kind, v, id)
}

// MapEmpty records a mapping whose filter matched no equipment
func (c *Config) MapEmpty(kind network.Kind, series string, v network.Variable) {
	c.categories[kind].series.GetOrCreate(Key{Variable: v, ID: series}, func() []string { return nil })
}

func (c *Config) narrowUnmapped(kind network.Kind, v network.Variable, id string) {
	remove := []network.Variable{v}
	if kind == network.KindLoad {
		switch v {
		case network.P0:
			remove = []network.Variable{network.P0, network.FixedActivePower, network.VariableActivePower}
		case network.FixedActivePower, network.VariableActivePower:
			remove = []network.Variable{network.P0, v}
		}
	}
	for _, rv := range remove {
		if s, ok := c.unmapped[unmappedKey{kind, rv}]; ok {
			s.Remove(id)
		}
	}
}

// MapEquipmentSeries copies a time series as is on the variable of one equipment
func (c *Config) MapEquipmentSeries(series string, v network.Variable, id string) {
	key := Key{Variable: v, ID: id}
	if old, ok := c.equipmentToSeries.Get(key); ok {
		if keys, ok := c.equipmentSeries.Get(old); ok {
			keys.Remove(key)
			if keys.Len() == 0 {
				c.equipmentSeries.Delete(old)
			}
		}
	}
	c.equipmentSeries.GetOrCreate(series, func() *determinism.OrderedSet[Key] {
		return determinism.NewOrderedSet[Key]()
	}).Add(key)
	c.equipmentToSeries.Set(key, series)
}

// AddUnmapped declares an equipment unmapped on a variable
func (c *Config) AddUnmapped(kind network.Kind, v network.Variable, id string) {
	c.unmappedSet(kind, v).Add(id)
}

// IgnoreUnmapped declares an equipment intentionally unmapped
func (c *Config) IgnoreUnmapped(kind network.Kind, id string) {
	s, ok := c.ignoredUnmapped[kind]
	if !ok {
		s = determinism.NewOrderedSet[string]()
		c.ignoredUnmapped[kind] = s
	}
	s.Add(id)
}

// AddIgnoreLimits lets the power mapped by a time series widen the limits it violates
func (c *Config) AddIgnoreLimits(series string) {
	c.ignoreLimits.Add(series)
}

// SeriesKeys returns the (variable, time series) keys of a kind in mapping order
func (c *Config) SeriesKeys(kind network.Kind) []Key {
	return c.categories[kind].series.Keys()
}

// Equipments returns the equipments driven by a (variable, time series) key
func (c *Config) Equipments(kind network.Kind, key Key) []string {
	ids, _ := c.categories[kind].series.Get(key)
	return slices.Clone(ids)
}

// MappedSeries returns the time series driving the variable of an equipment
func (c *Config) MappedSeries(kind network.Kind, v network.Variable, id string) (string, bool) {
	return c.categories[kind].equipments.Get(Key{Variable: v, ID: id})
}

// MappedKeys returns every mapped (variable, equipment) key of a kind
func (c *Config) MappedKeys(kind network.Kind) []Key {
	return c.categories[kind].equipments.Keys()
}

// DistributionKey returns the key weighting an equipment for a variable
func (c *Config) DistributionKey(v network.Variable, id string) DistributionKey {
	if key, ok := c.keys[Key{Variable: v, ID: id}]; ok {
		return key
	}
	return DefaultKey
}

// IsUnmapped reports whether the variable of an equipment is left to its base case
func (c *Config) IsUnmapped(kind network.Kind, v network.Variable, id string) bool {
	s, ok := c.unmapped[unmappedKey{kind, v}]
	return ok && s.Contains(id)
}

// Unmapped lists the unmapped equipments of a kind for a variable
func (c *Config) Unmapped(kind network.Kind, v network.Variable) []string {
	if s, ok := c.unmapped[unmappedKey{kind, v}]; ok {
		return s.Items()
	}
	return nil
}

// IgnoredUnmapped lists the equipments declared unmapped for a kind
func (c *Config) IgnoredUnmapped(kind network.Kind) []string {
	if s, ok := c.ignoredUnmapped[kind]; ok {
		return s.Items()
	}
	return nil
}

// IsIgnoredUnmapped reports whether an equipment was declared unmapped
func (c *Config) IsIgnoredUnmapped(kind network.Kind, id string) bool {
	s, ok := c.ignoredUnmapped[kind]
	return ok && s.Contains(id)
}

// IgnoreLimits reports whether a time series may widen the limits it violates
func (c *Config) IgnoreLimits(series string) bool {
	return c.ignoreLimits.Contains(series)
}

// IgnoreLimitsSeries lists the time series allowed to widen limits
func (c *Config) IgnoreLimitsSeries() []string {
	return c.ignoreLimits.Items()
}

// EquipmentSeries returns the time series copied on equipments, in declaration order
func (c *Config) EquipmentSeries() []string {
	return c.equipmentSeries.Keys()
}

// EquipmentSeriesKeys returns the (variable, equipment) keys fed by a time series
func (c *Config) EquipmentSeriesKeys(series string) []Key {
	if keys, ok := c.equipmentSeries.Get(series); ok {
		return keys.Items()
	}
	return nil
}

// UsedTimeSeriesNames returns every time series the run reads: mapped series,
// equipment series, series distribution keys and the required names
func (c *Config) UsedTimeSeriesNames(required ...string) []string {
	names := determinism.NewOrderedSet[string]()
	for _, kind := range network.Kinds() {
		for _, key := range c.categories[kind].series.Keys() {
			names.Add(key.ID)
		}
	}
	for _, name := range c.equipmentSeries.Keys() {
		names.Add(name)
	}
	for _, kind := range network.Kinds() {
		for _, key := range c.categories[kind].equipments.Keys() {
			if sk, ok := c.keys[key].(SeriesKey); ok {
				names.Add(sk.Name)
			}
		}
	}
	for _, name := range required {
		names.Add(name)
	}
	return names.Items()
}
