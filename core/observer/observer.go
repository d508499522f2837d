// Package observer - Per time step sinks driven by the mapping engine.
// Every callback of a Chain reaches every observer, in order, before the engine moves on.
package observer

import (
	"metrix-mapping/core/network"
)

// ConstantPoint is the synthetic point carrying constant series, delivered once per version
const ConstantPoint = -1

// Observer receives the mapped values of a run
type Observer interface {
	Start() error
	VersionStart(version int) error
	TimeStepStart(point int) error

	// EquipmentMapped delivers one value; NaN means keep the base case
	EquipmentMapped(point int, series, id string, v network.Variable, value float64) error

	// TimeStepEnd closes a point. balance is the constant balance at ConstantPoint, 0 otherwise.
	TimeStepEnd(point int, balance float64) error

	VersionEnd(version int) error
	End() error
}

// BaseCaseAware observers receive the corrected base case of each version,
// after VersionStart and before the constant point
type BaseCaseAware interface {
	SetBaseCase(base *network.Overlay)
}

// Nop implements Observer with no-ops, to embed
type Nop struct{}

func (Nop) Start() error                   { return nil }
func (Nop) VersionStart(version int) error { return nil }
func (Nop) TimeStepStart(point int) error  { return nil }
func (Nop) EquipmentMapped(point int, series, id string, v network.Variable, value float64) error {
	return nil
}
func (Nop) TimeStepEnd(point int, balance float64) error { return nil }
func (Nop) VersionEnd(version int) error                 { return nil }
func (Nop) End() error                                   { return nil }

// Chain fans every callback out to its observers in order and stops at the first error
type Chain []Observer

// NewChain builds a chain, skipping nil observers
func NewChain(observers ...Observer) Chain {
	c := make(Chain, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			c = append(c, o)
		}
	}
	return c
}

func (c Chain) each(fn func(Observer) error) error {
	for _, o := range c {
		if err := fn(o); err != nil {
			return err
		}
	}
	return nil
}

func (c Chain) Start() error {
	return c.each(func(o Observer) error { return o.Start() })
}

func (c Chain) VersionStart(version int) error {
	return c.each(func(o Observer) error { return o.VersionStart(version) })
}

func (c Chain) TimeStepStart(point int) error {
	return c.each(func(o Observer) error { return o.TimeStepStart(point) })
}

func (c Chain) EquipmentMapped(point int, series, id string, v network.Variable, value float64) error {
	return c.each(func(o Observer) error { return o.EquipmentMapped(point, series, id, v, value) })
}

func (c Chain) TimeStepEnd(point int, balance float64) error {
	return c.each(func(o Observer) error { return o.TimeStepEnd(point, balance) })
}

func (c Chain) VersionEnd(version int) error {
	return c.each(func(o Observer) error { return o.VersionEnd(version) })
}

func (c Chain) End() error {
	return c.each(func(o Observer) error { return o.End() })
}

// SetBaseCase forwards to the members that want it
func (c Chain) SetBaseCase(base *network.Overlay) {
	for _, o := range c {
		if aware, ok := o.(BaseCaseAware); ok {
			aware.SetBaseCase(base)
		}
	}
}
