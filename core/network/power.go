package network

import "math"

// PowerVariable returns the variable carrying active power for a kind
func PowerVariable(kind Kind) (Variable, bool) {
	switch {
	case kind.IsGeneratorLike():
		return TargetP, true
	case kind == KindHvdcLine:
		return ActivePowerSetpoint, true
	}
	return "", false
}

// Power returns targetP of a generator or battery, the signed setpoint of an HVDC line
func Power(v View, id string) float64 {
	kind, _ := v.Kind(id)
	if kind == KindHvdcLine {
		return v.Value(id, ActivePowerSetpoint)
	}
	return v.Value(id, TargetP)
}

// MaxLimit returns maxP, or CS1toCS2 for an HVDC line with an active power range
func MaxLimit(v View, id string) float64 {
	kind, _ := v.Kind(id)
	if kind == KindHvdcLine && v.HasActivePowerRange(id) {
		return v.Value(id, OprFromCS1toCS2)
	}
	return v.Value(id, MaxP)
}

// MinLimit returns minP, or -CS2toCS1 / -maxP for an HVDC line
func MinLimit(v View, id string) float64 {
	kind, _ := v.Kind(id)
	if kind != KindHvdcLine {
		return v.Value(id, MinP)
	}
	if v.HasActivePowerRange(id) {
		return -v.Value(id, OprFromCS2toCS1)
	}
	return -v.Value(id, MaxP)
}

// SetHvdcMax widens the CS1toCS2 side of an HVDC line; maxP follows
func SetHvdcMax(m Mutator, id string, limit float64) error {
	if m.HasActivePowerRange(id) {
		if err := m.Set(id, OprFromCS1toCS2, math.Abs(limit)); err != nil {
			return err
		}
	}
	return m.Set(id, MaxP, math.Max(m.Value(id, MaxP), math.Abs(limit)))
}

// SetHvdcMin widens the CS2toCS1 side of an HVDC line; maxP follows
func SetHvdcMin(m Mutator, id string, limit float64) error {
	if m.HasActivePowerRange(id) {
		if err := m.Set(id, OprFromCS2toCS1, math.Abs(limit)); err != nil {
			return err
		}
	}
	return m.Set(id, MaxP, math.Max(m.Value(id, MaxP), math.Abs(limit)))
}
