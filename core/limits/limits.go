// Package limits corrects base case power values against their active power limits.
// Corrections are returned as changes; nothing here writes to a network.
package limits

import (
	"math"

	"metrix-mapping/core/logs"
	"metrix-mapping/core/network"
	"metrix-mapping/internal/errors"
)

// Result is the outcome of one base case correction
type Result struct {
	// AddActivePowerRange asks for an operator range on an HVDC line before Changes apply
	AddActivePowerRange bool

	Changes []network.Change
	Logs    []logs.Log
}

// Apply writes the result on m
func (r Result) Apply(m network.Mutator, id string) error {
	if r.AddActivePowerRange {
		if err := m.AddActivePowerRange(id); err != nil {
			return err
		}
	}
	for _, c := range r.Changes {
		if err := m.Set(c.ID, c.Variable, c.Value); err != nil {
			return err
		}
	}
	return nil
}

func (r *Result) set(id string, v network.Variable, value float64) {
	r.Changes = append(r.Changes, network.Change{ID: id, Variable: v, Value: value})
}

func (r *Result) log(level logs.Level, version int, d logs.Description) {
	r.Logs = append(r.Logs, logs.New(level, version, logs.ConstantPoint, d))
}

// Generator is the base case of a generator or a battery
type Generator struct {
	ID      string
	MinP    float64
	MaxP    float64
	TargetP float64

	UnmappedMinP bool
	UnmappedMaxP bool
}

// GeneratorFromView reads the base case of a generator or battery
func GeneratorFromView(v network.View, id string, unmappedMinP, unmappedMaxP bool) Generator {
	return Generator{
		ID:           id,
		MinP:         v.Value(id, network.MinP),
		MaxP:         v.Value(id, network.MaxP),
		TargetP:      v.Value(id, network.TargetP),
		UnmappedMinP: unmappedMinP,
		UnmappedMaxP: unmappedMaxP,
	}
}

// CorrectGenerator brings an unmapped targetP back within [minP, maxP].
// With ignoreLimits the limit moves to targetP, otherwise targetP moves to the limit.
// A negative targetP under a non-positive minP that cannot move becomes 0.
func CorrectGenerator(version int, g Generator, ignoreLimits bool) (Result, error) {
	var r Result
	if g.MinP > g.MaxP {
		return r, errors.Data(version, logs.ConstantPoint,
			"Equipment '%s' : invalid active limits [%v, %v] in base case", g.ID, g.MinP, g.MaxP)
	}
	okMin := g.TargetP >= g.MinP
	okMax := g.TargetP <= g.MaxP

	change := logs.RangeChange{
		NotIncluded: string(network.TargetP),
		ID:          g.ID,
		Value:       g.TargetP,
		Min:         g.MinP,
		Max:         g.MaxP,
	}
	violated := logs.MinPViolated{
		NotIncluded: string(network.TargetP),
		ID:          g.ID,
		Value:       g.TargetP,
		Min:         g.MinP,
		Max:         g.MaxP,
	}

	if ignoreLimits {
		switch {
		case !okMax && g.UnmappedMaxP:
			change.OldValue, change.ToVariable, change.NewValue = string(network.MaxP), string(network.TargetP), g.TargetP
			r.log(logs.Info, version, change)
			r.set(g.ID, network.MaxP, g.TargetP)
		case !okMin && g.UnmappedMinP && g.MinP <= 0:
			change.OldValue, change.ToVariable, change.NewValue = string(network.MinP), string(network.TargetP), g.TargetP
			r.log(logs.Info, version, change)
			r.set(g.ID, network.MinP, g.TargetP)
		case !okMin && g.UnmappedMinP && g.TargetP < 0:
			change.OldValue, change.ToVariable, change.NewValue, change.Disabled = string(network.TargetP), "", 0, true
			r.log(logs.Warning, version, change)
			r.set(g.ID, network.TargetP, 0)
		case !okMin && g.UnmappedMinP:
			r.log(logs.Info, version, violated)
		}
		return r, nil
	}

	switch {
	case !okMax && g.UnmappedMaxP:
		change.OldValue, change.ToVariable, change.NewValue = string(network.TargetP), string(network.MaxP), g.MaxP
		r.log(logs.Warning, version, change)
		r.set(g.ID, network.TargetP, g.MaxP)
	case !okMin && g.UnmappedMinP && g.MinP <= 0:
		change.OldValue, change.ToVariable, change.NewValue = string(network.TargetP), string(network.MinP), g.MinP
		r.log(logs.Warning, version, change)
		r.set(g.ID, network.TargetP, g.MinP)
	case !okMin && g.UnmappedMinP && g.TargetP < 0:
		change.OldValue, change.ToVariable, change.NewValue = string(network.TargetP), "", 0
		r.log(logs.Warning, version, change)
		r.set(g.ID, network.TargetP, 0)
	case !okMin && g.UnmappedMinP:
		r.log(logs.Info, version, violated)
	}
	return r, nil
}

// Hvdc is the base case of an HVDC line
type Hvdc struct {
	ID string

	// ActivePowerRange is set when the line carries an operator range
	ActivePowerRange bool

	// MinP and MaxP are the effective limits: -CS2toCS1 and CS1toCS2, or -maxP and maxP
	MinP float64
	MaxP float64

	// LineMaxP is the maxP attribute of the line
	LineMaxP float64
	Setpoint float64

	UnmappedMinP bool
	UnmappedMaxP bool
}

// HvdcFromView reads the base case of an HVDC line
func HvdcFromView(v network.View, id string, unmappedMinP, unmappedMaxP bool) Hvdc {
	return Hvdc{
		ID:               id,
		ActivePowerRange: v.HasActivePowerRange(id),
		MinP:             network.MinLimit(v, id),
		MaxP:             network.MaxLimit(v, id),
		LineMaxP:         v.Value(id, network.MaxP),
		Setpoint:         network.Power(v, id),
		UnmappedMinP:     unmappedMinP,
		UnmappedMaxP:     unmappedMaxP,
	}
}

// CorrectHvdc aligns the operator range with maxP, then brings an unmapped setpoint
// back within the range. The line always ends up with an operator range.
func CorrectHvdc(version int, h Hvdc, ignoreLimits bool) (Result, error) {
	r := Result{AddActivePowerRange: !h.ActivePowerRange}
	if h.LineMaxP < 0 {
		return r, errors.Data(version, logs.ConstantPoint,
			"Equipment '%s' : invalid active limit maxP %v in base case", h.ID, h.LineMaxP)
	}
	if h.ActivePowerRange && (h.MinP > 0 || h.MaxP < 0) {
		return r, errors.Data(version, logs.ConstantPoint,
			"Equipment '%s' : invalid active limits [%v, %v] in base case", h.ID, h.MinP, h.MaxP)
	}

	maxVar, minVar := string(network.MaxP), network.LabelMinusMaxP
	if h.ActivePowerRange {
		maxVar, minVar = network.LabelCS12, network.LabelMinusCS21
	}

	lineMaxP := h.LineMaxP
	correctedMax, correctedMin := h.MaxP, h.MinP

	maxOver := h.MaxP > h.LineMaxP
	minOver := -h.MinP > h.LineMaxP
	if h.ActivePowerRange && (maxOver || minOver) {
		if ignoreLimits {
			switch {
			case maxOver && (!minOver || h.MaxP > -h.MinP):
				r.log(logs.Info, version, logs.RangeChange{
					NotIncluded: maxVar, ID: h.ID, Value: h.MaxP, Min: 0, Max: h.LineMaxP,
					OldValue: string(network.MaxP), ToVariable: maxVar, NewValue: h.MaxP,
				})
			case minOver && !maxOver:
				r.log(logs.Info, version, logs.RangeChange{
					NotIncluded: minVar, ID: h.ID, Value: h.MinP, Min: -h.LineMaxP, Max: 0,
					OldValue: network.LabelMinusMaxP, ToVariable: minVar, NewValue: h.MinP,
				})
			}
			lineMaxP = math.Max(h.MaxP, -h.MinP)
			r.set(h.ID, network.MaxP, lineMaxP)
		} else {
			if maxOver {
				r.log(logs.Warning, version, logs.RangeChange{
					NotIncluded: maxVar, ID: h.ID, Value: h.MaxP, Min: 0, Max: h.LineMaxP,
					OldValue: maxVar, ToVariable: string(network.MaxP), NewValue: h.LineMaxP,
				})
				r.set(h.ID, network.OprFromCS1toCS2, h.LineMaxP)
				correctedMax = h.LineMaxP
			}
			if minOver {
				r.log(logs.Warning, version, logs.RangeChange{
					NotIncluded: minVar, ID: h.ID, Value: h.MinP, Min: -h.LineMaxP, Max: 0,
					OldValue: minVar, ToVariable: network.LabelMinusMaxP, NewValue: -h.LineMaxP,
				})
				r.set(h.ID, network.OprFromCS2toCS1, h.LineMaxP)
				correctedMin = -h.LineMaxP
			}
		}
	}

	sp := string(network.ActivePowerSetpoint)
	switch {
	case h.Setpoint > correctedMax && h.UnmappedMaxP:
		if ignoreLimits {
			r.log(logs.Info, version, logs.RangeChange{
				NotIncluded: sp, ID: h.ID, Value: h.Setpoint, Min: h.MinP, Max: h.MaxP,
				OldValue: maxVar, ToVariable: sp, NewValue: h.Setpoint,
			})
			r.set(h.ID, network.OprFromCS1toCS2, math.Abs(h.Setpoint))
			r.set(h.ID, network.MaxP, math.Max(lineMaxP, math.Abs(h.Setpoint)))
		} else {
			r.log(logs.Warning, version, logs.RangeChange{
				NotIncluded: sp, ID: h.ID, Value: h.Setpoint, Min: h.MinP, Max: h.MaxP,
				OldValue: sp, ToVariable: maxVar, NewValue: correctedMax,
			})
			r.set(h.ID, network.ActivePowerSetpoint, correctedMax)
		}
	case h.Setpoint < correctedMin && h.UnmappedMinP:
		if ignoreLimits {
			r.log(logs.Info, version, logs.RangeChange{
				NotIncluded: sp, ID: h.ID, Value: h.Setpoint, Min: h.MinP, Max: h.MaxP,
				OldValue: minVar, ToVariable: sp, NewValue: h.Setpoint,
			})
			r.set(h.ID, network.OprFromCS2toCS1, math.Abs(h.Setpoint))
			r.set(h.ID, network.MaxP, math.Max(lineMaxP, math.Abs(h.Setpoint)))
		} else {
			r.log(logs.Warning, version, logs.RangeChange{
				NotIncluded: sp, ID: h.ID, Value: h.Setpoint, Min: h.MinP, Max: h.MaxP,
				OldValue: sp, ToVariable: minVar, NewValue: correctedMin,
			})
			r.set(h.ID, network.ActivePowerSetpoint, correctedMin)
		}
	}
	return r, nil
}
