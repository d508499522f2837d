package observer

import (
	"math"

	"metrix-mapping/core/network"
	"metrix-mapping/internal/errors"
)

// NetworkWriter materializes each point on a private copy of the network.
// Every point starts from the corrected base case, then constant values, then the point's values.
type NetworkWriter struct {
	Nop

	network *network.Network
	base    *network.Overlay

	// values of the constant point, replayed at every point
	constant []mappedValue

	current   *network.Network
	version   int
	lastPoint int

	// OnVersionEnd receives the network of the last point of each version
	OnVersionEnd func(version int, n *network.Network) error
}

type mappedValue struct {
	id       string
	variable network.Variable
	value    float64
}

// NewNetworkWriter creates a writer on a copy of n; n itself is never modified
func NewNetworkWriter(n *network.Network) *NetworkWriter {
	return &NetworkWriter{network: n, lastPoint: ConstantPoint}
}

// SetBaseCase implements BaseCaseAware
func (w *NetworkWriter) SetBaseCase(base *network.Overlay) {
	w.base = base
}

// Network returns the network of the point being written, or of the last point
func (w *NetworkWriter) Network() *network.Network {
	return w.current
}

// LastPoint returns the last point materialized
func (w *NetworkWriter) LastPoint() int {
	return w.lastPoint
}

func (w *NetworkWriter) VersionStart(version int) error {
	w.version = version
	w.constant = w.constant[:0]
	w.lastPoint = ConstantPoint
	return nil
}

func (w *NetworkWriter) TimeStepStart(point int) error {
	w.current = w.network.Clone()
	if w.base != nil {
		if err := w.base.ApplyTo(w.current.Edit()); err != nil {
			return errors.Wrapf(errors.TypeInternal, err, "failed to reset network at point %d", point)
		}
	}
	if point == ConstantPoint {
		return nil
	}
	m := w.current.Edit()
	for _, c := range w.constant {
		if err := apply(m, c.id, c.variable, c.value); err != nil {
			return err
		}
	}
	return nil
}

func (w *NetworkWriter) EquipmentMapped(point int, series, id string, v network.Variable, value float64) error {
	if math.IsNaN(value) {
		return nil
	}
	if point == ConstantPoint {
		w.constant = append(w.constant, mappedValue{id, v, value})
	}
	return apply(w.current.Edit(), id, v, value)
}

func (w *NetworkWriter) TimeStepEnd(point int, balance float64) error {
	w.lastPoint = point
	return nil
}

func (w *NetworkWriter) VersionEnd(version int) error {
	if w.OnVersionEnd == nil || w.current == nil {
		return nil
	}
	return w.OnVersionEnd(version, w.current)
}

// apply writes one mapped value, keeping load details and HVDC ranges consistent
func apply(m network.Mutator, id string, v network.Variable, value float64) error {
	kind, ok := m.Kind(id)
	if !ok {
		return errors.NotFound("equipment", id)
	}
	switch kind {
	case network.KindLoad:
		return applyLoad(m, id, v, value)
	case network.KindHvdcLine:
		if v == network.MinP || v == network.MaxP {
			return applyHvdcLimit(m, id, v, value)
		}
	}
	return m.Set(id, v, value)
}

func applyLoad(m network.Mutator, id string, v network.Variable, value float64) error {
	switch v {
	case network.P0, network.Q0:
		fixed, variable := network.FixedActivePower, network.VariableActivePower
		if v == network.Q0 {
			fixed, variable = network.FixedReactivePower, network.VariableReactivePower
		}
		if m.HasLoadDetail(id) {
			if err := m.Set(id, fixed, 0); err != nil {
				return err
			}
			if err := m.Set(id, variable, 0); err != nil {
				return err
			}
		}
		return m.Set(id, v, value)
	case network.FixedActivePower, network.VariableActivePower:
		if err := m.Set(id, v, value); err != nil {
			return err
		}
		return m.Set(id, network.P0, m.Value(id, network.FixedActivePower)+m.Value(id, network.VariableActivePower))
	case network.FixedReactivePower, network.VariableReactivePower:
		if err := m.Set(id, v, value); err != nil {
			return err
		}
		return m.Set(id, network.Q0, m.Value(id, network.FixedReactivePower)+m.Value(id, network.VariableReactivePower))
	}
	return m.Set(id, v, value)
}

// applyHvdcLimit maps minP on CS2toCS1 and maxP on CS1toCS2; maxP only ever grows
func applyHvdcLimit(m network.Mutator, id string, v network.Variable, value float64) error {
	if err := m.AddActivePowerRange(id); err != nil {
		return err
	}
	side, other := network.OprFromCS1toCS2, network.OprFromCS2toCS1
	if v == network.MinP {
		side, other = other, side
	}
	if err := m.Set(id, side, math.Abs(value)); err != nil {
		return err
	}
	maxP := math.Max(math.Abs(value), m.Value(id, other))
	if m.Value(id, network.MaxP) < maxP {
		return m.Set(id, network.MaxP, maxP)
	}
	return nil
}
