package network

import (
	"fmt"
	"math"
)

// Change is one attribute overridden in an Overlay
type Change struct {
	ID       string
	Variable Variable
	Value    float64
}

type overlayKey struct {
	id string
	v  Variable
}

// Overlay layers attribute overrides on top of a read-only View.
// The engine keeps one per version as its effective base case, so the
// shared network is never written by the engine itself.
type Overlay struct {
	base   View
	values map[overlayKey]float64
	order  []overlayKey
	ranges map[string]bool
}

// NewOverlay creates an empty overlay on base
func NewOverlay(base View) *Overlay {
	return &Overlay{
		base:   base,
		values: make(map[overlayKey]float64),
		ranges: make(map[string]bool),
	}
}

// Kind implements View
func (o *Overlay) Kind(id string) (Kind, bool) { return o.base.Kind(id) }

// HasLoadDetail implements View
func (o *Overlay) HasLoadDetail(id string) bool { return o.base.HasLoadDetail(id) }

// IDs implements View
func (o *Overlay) IDs(kind Kind) []string { return o.base.IDs(kind) }

// Value implements View
func (o *Overlay) Value(id string, v Variable) float64 {
	if value, ok := o.values[overlayKey{id, v}]; ok {
		return value
	}
	return o.base.Value(id, v)
}

// HasActivePowerRange implements View
func (o *Overlay) HasActivePowerRange(id string) bool {
	return o.ranges[id] || o.base.HasActivePowerRange(id)
}

// Set implements Mutator
func (o *Overlay) Set(id string, v Variable, value float64) error {
	if _, ok := o.base.Kind(id); !ok {
		return fmt.Errorf("equipment %q not found", id)
	}
	key := overlayKey{id, v}
	if _, exists := o.values[key]; !exists {
		o.order = append(o.order, key)
	}
	o.values[key] = value
	return nil
}

// AddActivePowerRange implements Mutator. A new range is seeded with |maxP| both ways.
func (o *Overlay) AddActivePowerRange(id string) error {
	kind, ok := o.base.Kind(id)
	if !ok {
		return fmt.Errorf("equipment %q not found", id)
	}
	if kind != KindHvdcLine {
		return fmt.Errorf("equipment %q is not an hvdc line", id)
	}
	if o.HasActivePowerRange(id) {
		return nil
	}
	o.ranges[id] = true
	maxP := math.Abs(o.Value(id, MaxP))
	if err := o.Set(id, OprFromCS1toCS2, maxP); err != nil {
		return err
	}
	return o.Set(id, OprFromCS2toCS1, maxP)
}

// Changes lists overrides in the order they were first set
func (o *Overlay) Changes() []Change {
	out := make([]Change, 0, len(o.order))
	for _, k := range o.order {
		out = append(out, Change{ID: k.id, Variable: k.v, Value: o.values[k]})
	}
	return out
}

// AddedRanges lists the HVDC lines that received a range through this overlay
func (o *Overlay) AddedRanges() []string {
	var ids []string
	for _, k := range o.order {
		if k.v == OprFromCS1toCS2 && o.ranges[k.id] && !o.base.HasActivePowerRange(k.id) {
			ids = append(ids, k.id)
		}
	}
	return ids
}

// ApplyTo replays the overlay on m: added ranges first, then every override
func (o *Overlay) ApplyTo(m Mutator) error {
	for _, id := range o.AddedRanges() {
		if err := m.AddActivePowerRange(id); err != nil {
			return err
		}
	}
	for _, c := range o.Changes() {
		if err := m.Set(c.ID, c.Variable, c.Value); err != nil {
			return err
		}
	}
	return nil
}
