package network

// Variable names one attribute of an equipment
type Variable string

const (
	TargetP                     Variable = "targetP"
	TargetQ                     Variable = "targetQ"
	MinP                        Variable = "minP"
	MaxP                        Variable = "maxP"
	P0                          Variable = "p0"
	Q0                          Variable = "q0"
	FixedActivePower            Variable = "fixedActivePower"
	VariableActivePower         Variable = "variableActivePower"
	FixedReactivePower          Variable = "fixedReactivePower"
	VariableReactivePower       Variable = "variableReactivePower"
	ActivePowerSetpoint         Variable = "activePowerSetpoint"
	Open                        Variable = "open"
	PhaseTapPosition            Variable = "phaseTapPosition"
	RatioTapPosition            Variable = "ratioTapPosition"
	VoltageRegulatorOn          Variable = "voltageRegulatorOn"
	TargetV                     Variable = "targetV"
	NominalV                    Variable = "nominalV"
	RegulationMode              Variable = "regulationMode"
	RatedU1                     Variable = "ratedU1"
	RatedU2                     Variable = "ratedU2"
	LoadTapChangingCapabilities Variable = "loadTapChangingCapabilities"
	PhaseRegulating             Variable = "phaseRegulating"
	RatioRegulating             Variable = "ratioRegulating"
	VoltageSetpoint             Variable = "voltageSetpoint"
	ReactivePowerSetpoint       Variable = "reactivePowerSetpoint"
	PowerFactor                 Variable = "powerFactor"
	Disconnected                Variable = "disconnected"
	TargetDeadband              Variable = "targetDeadband"

	// Operator active power range of an HVDC line. Not mappable.
	OprFromCS1toCS2 Variable = "CS1toCS2"
	OprFromCS2toCS1 Variable = "CS2toCS1"
)

// Labels used in logs for HVDC limits
const (
	LabelCS12      = "CS1toCS2"
	LabelMinusCS21 = "-CS2toCS1"
	LabelMinusMaxP = "-maxP"
)

var mappable = map[Variable]bool{
	TargetP: true, TargetQ: true, MinP: true, MaxP: true, P0: true, Q0: true,
	FixedActivePower: true, VariableActivePower: true, FixedReactivePower: true,
	VariableReactivePower: true, ActivePowerSetpoint: true, Open: true,
	PhaseTapPosition: true, RatioTapPosition: true, VoltageRegulatorOn: true,
	TargetV: true, NominalV: true, RegulationMode: true, RatedU1: true, RatedU2: true,
	LoadTapChangingCapabilities: true, PhaseRegulating: true, RatioRegulating: true,
	VoltageSetpoint: true, ReactivePowerSetpoint: true, PowerFactor: true,
	Disconnected: true, TargetDeadband: true,
}

// IsMappable reports whether the variable can be the target of a time series
func (v Variable) IsMappable() bool {
	return mappable[v]
}

// IsPower reports targetP and activePowerSetpoint
func (v Variable) IsPower() bool {
	return v == TargetP || v == ActivePowerSetpoint
}

// IsPowerOrLimit reports power variables and their minP/maxP limits
func (v Variable) IsPowerOrLimit() bool {
	return v.IsPower() || v == MinP || v == MaxP
}
