package mapper

import (
	"metrix-mapping/core/logs"
	"metrix-mapping/core/network"
)

// powerChange is what a mapped power was replaced with
type powerChange int

const (
	changeBaseCaseMinP powerChange = iota
	changeBaseCaseMaxP
	changeZero
	changeMappedMinP
	changeMappedMaxP
	changeMappedMinPDisabled
	changeMappedMaxPDisabled
	changeZeroDisabled
	changeBaseCaseCS12
	changeBaseCaseCS21
	changeBaseCaseMinusMaxP
)

func (c powerChange) disabled() bool {
	return c == changeMappedMinPDisabled || c == changeMappedMaxPDisabled || c == changeZeroDisabled
}

func (c powerChange) target() (logs.Origin, string) {
	switch c {
	case changeBaseCaseMinP:
		return logs.OriginBaseCase, string(network.MinP)
	case changeBaseCaseMaxP:
		return logs.OriginBaseCase, string(network.MaxP)
	case changeMappedMinP, changeMappedMinPDisabled:
		return logs.OriginMapped, string(network.MinP)
	case changeMappedMaxP, changeMappedMaxPDisabled:
		return logs.OriginMapped, string(network.MaxP)
	case changeBaseCaseCS12:
		return logs.OriginBaseCase, network.LabelCS12
	case changeBaseCaseCS21:
		return logs.OriginBaseCase, network.LabelMinusCS21
	case changeBaseCaseMinusMaxP:
		return logs.OriginBaseCase, network.LabelMinusMaxP
	}
	return logs.OriginNone, "0"
}

// describe builds the point log; synthesis entries drop value and sum
func (c powerChange) describe(series string, changed network.Variable, synthesis bool, value, sum float64) logs.ScalingDownChange {
	origin, to := c.target()
	return logs.ScalingDownChange{
		TimeSeriesName:  series,
		ChangedVariable: string(changed),
		Origin:          origin,
		ToVariable:      to,
		Disabled:        c.disabled(),
		Synthesis:       synthesis,
		Value:           value,
		Sum:             sum,
	}
}

// limitViolation is a limit left violated, or moved, by a mapped power
type limitViolation int

const (
	violationBaseCaseMinPByTargetP limitViolation = iota
	violationMappedMinPByTargetP
	violationMaxPByTargetP
	violationMaxPByActivePower
	violationCS12ByActivePower
	violationMinPByTargetP
	violationMinPByActivePower
	violationCS21ByActivePower
)

func (v limitViolation) describe(series string) logs.Description {
	setpoint := string(network.ActivePowerSetpoint)
	targetP := string(network.TargetP)
	switch v {
	case violationBaseCaseMinPByTargetP:
		return logs.MinPViolatedSynthesis{TimeSeriesName: series, Origin: logs.OriginBaseCase}
	case violationMappedMinPByTargetP:
		return logs.MinPViolatedSynthesis{TimeSeriesName: series, Origin: logs.OriginMapped}
	case violationMaxPByTargetP:
		return logs.LimitChangeSynthesis{TimeSeriesName: series, ViolatedVariable: string(network.MaxP), Variable: targetP, Increased: true}
	case violationMaxPByActivePower:
		return logs.LimitChangeSynthesis{TimeSeriesName: series, ViolatedVariable: string(network.MaxP), Variable: setpoint, Increased: true}
	case violationCS12ByActivePower:
		return logs.LimitChangeSynthesis{TimeSeriesName: series, ViolatedVariable: network.LabelCS12, Variable: setpoint, Increased: true}
	case violationMinPByTargetP:
		return logs.LimitChangeSynthesis{TimeSeriesName: series, ViolatedVariable: string(network.MinP), Variable: targetP}
	case violationMinPByActivePower:
		return logs.LimitChangeSynthesis{TimeSeriesName: series, ViolatedVariable: network.LabelMinusMaxP, Variable: setpoint}
	}
	return logs.LimitChangeSynthesis{TimeSeriesName: series, ViolatedVariable: network.LabelMinusCS21, Variable: setpoint}
}

// limitSlot groups the limits widened while limits are ignored, in reporting order
type limitSlot int

const (
	slotGeneratorMin limitSlot = iota
	slotGeneratorMax
	slotHvdcMin
	slotHvdcMax
	slotCS21
	slotCS12
	slotCount
)

var slotLabels = [slotCount]struct {
	max      bool
	toChange string
	variable network.Variable
}{
	slotGeneratorMin: {false, string(network.MinP), network.TargetP},
	slotGeneratorMax: {true, string(network.MaxP), network.TargetP},
	slotHvdcMin:      {false, network.LabelMinusMaxP, network.ActivePowerSetpoint},
	slotHvdcMax:      {true, string(network.MaxP), network.ActivePowerSetpoint},
	slotCS21:         {false, network.LabelMinusCS21, network.ActivePowerSetpoint},
	slotCS12:         {true, network.LabelCS12, network.ActivePowerSetpoint},
}
