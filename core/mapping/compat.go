// Package mapping holds the static mapping configuration: which time series drives which
// equipment variable, with which distribution key, and which equipments stay unmapped.
package mapping

import (
	"slices"

	"metrix-mapping/core/network"
)

// variables lists the mappable variables per kind, default variable first
var variables = map[network.Kind][]network.Variable{
	network.KindGenerator: {
		network.TargetP, network.TargetQ, network.MinP, network.MaxP,
		network.VoltageRegulatorOn, network.TargetV, network.Disconnected,
	},
	network.KindBattery: {
		network.TargetP, network.TargetQ, network.MinP, network.MaxP, network.Disconnected,
	},
	network.KindLoad: {
		network.P0, network.Q0,
		network.FixedActivePower, network.VariableActivePower,
		network.FixedReactivePower, network.VariableReactivePower,
	},
	network.KindDanglingLine: {network.P0},
	network.KindHvdcLine: {
		network.ActivePowerSetpoint, network.MinP, network.MaxP, network.NominalV,
	},
	network.KindSwitch: {network.Open},
	network.KindPhaseTapChanger: {
		network.PhaseTapPosition, network.PhaseRegulating, network.RegulationMode, network.TargetDeadband,
	},
	network.KindTransformer: {network.RatedU1, network.RatedU2, network.Disconnected},
	network.KindRatioTapChanger: {
		network.RatioTapPosition, network.LoadTapChangingCapabilities, network.RatioRegulating, network.TargetV,
	},
	network.KindLccConverterStation: {network.PowerFactor},
	network.KindVscConverterStation: {
		network.VoltageSetpoint, network.VoltageRegulatorOn, network.ReactivePowerSetpoint,
	},
	network.KindLine: {network.Disconnected},
}

// Compatible reports whether v can be mapped on an equipment of the given kind
func Compatible(kind network.Kind, v network.Variable) bool {
	return slices.Contains(variables[kind], v)
}

// Variables returns the mappable variables of a kind
func Variables(kind network.Kind) []network.Variable {
	return slices.Clone(variables[kind])
}

// DefaultVariable is the variable used when a mapping names none
func DefaultVariable(kind network.Kind) network.Variable {
	vars := variables[kind]
	if len(vars) == 0 {
		return ""
	}
	return vars[0]
}
