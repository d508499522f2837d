package logs

import "fmt"

// RangeChange reports a value outside its limits and the variable it was changed to
type RangeChange struct {
	// Mapping selects the mapping wording, otherwise base case
	Mapping bool

	NotIncluded string
	ID          string
	Value       float64
	Min         float64
	Max         float64

	OldValue   string
	ToVariable string
	NewValue   float64

	// Disabled marks a correction applied while limits are ignored
	Disabled bool
}

// Describe implements Description
func (r RangeChange) Describe() (string, string) {
	problem, action := baseCaseRange, actionBaseCase
	if r.Mapping {
		problem, action = mappingRange, actionMapped
	}
	if r.ToVariable == "" {
		action = "0"
	}
	disabled := ""
	if r.Disabled {
		disabled = limitsDisabled
	}
	label := fmt.Sprintf("%s%s changed to %s%s%s", problem, r.OldValue, action, r.ToVariable, disabled)
	message := fmt.Sprintf("%s %s of %s not included in %s to %s, %s changed to %s",
		r.NotIncluded, FormatNumber(r.Value), r.ID, FormatNumber(r.Min), FormatNumber(r.Max),
		r.OldValue, FormatNumber(r.NewValue))
	return label, message
}

// MinPViolated reports a targetP below a positive minP that was left unchanged
type MinPViolated struct {
	Mapping bool

	NotIncluded string
	ID          string
	Value       float64
	Min         float64
	Max         float64
}

// Describe implements Description
func (m MinPViolated) Describe() (string, string) {
	problem, kind := baseCaseRange, "base case"
	if m.Mapping {
		problem, kind = mappingRange, "mapped"
	}
	label := fmt.Sprintf("%s%s minP violated by %s targetP", problem, kind, kind)
	message := fmt.Sprintf("%s %s of %s not included in %s to %s, but %s has not been changed",
		m.NotIncluded, FormatNumber(m.Value), m.ID, FormatNumber(m.Min), FormatNumber(m.Max), m.NotIncluded)
	return label, message
}

// Origin tells whether a limit came from the mapping or the base case
type Origin string

const (
	OriginNone     Origin = ""
	OriginMapped   Origin = actionMapped
	OriginBaseCase Origin = actionBaseCase
)

// ScalingDownChange reports the power of a time series that could not be applied as is.
// Synthesis entries summarize a whole version and carry neither value nor sum.
type ScalingDownChange struct {
	TimeSeriesName  string
	ChangedVariable string
	Origin          Origin
	ToVariable      string
	Disabled        bool

	Synthesis bool
	Value     float64
	Sum       float64
}

// Describe implements Description
func (s ScalingDownChange) Describe() (string, string) {
	label := scalingDown + "at least one " + s.ChangedVariable + " changed to " + string(s.Origin) + s.ToVariable
	if s.Disabled {
		label += limitsDisabled
	}
	value, sum, sep := atLeastOneValue, "", ", "
	if s.Synthesis {
		label += tsSynthesis
		sep = ", modified "
	} else {
		value = FormatNumber(s.Value)
		sum = " " + FormatNumber(s.Sum)
	}
	message := "Impossible to scale down " + value + " of ts " + s.TimeSeriesName + sep + s.ChangedVariable + sum + " has been applied"
	return label, message
}

// LimitChangeSynthesis reports a limit moved by a time series during a version
type LimitChangeSynthesis struct {
	TimeSeriesName   string
	ViolatedVariable string
	Variable         string
	Increased        bool
}

// Describe implements Description
func (l LimitChangeSynthesis) Describe() (string, string) {
	evolution := " decreased"
	if l.Increased {
		evolution = " increased"
	}
	label := fmt.Sprintf("%sat least one %s%s%s", scalingDown, l.ViolatedVariable, evolution, tsSynthesis)
	message := fmt.Sprintf("%s violated by %s in scaling down of at least one value of ts %s, %s has been%s for equipments",
		l.ViolatedVariable, l.Variable, l.TimeSeriesName, l.ViolatedVariable, evolution)
	return label, message
}

// MinPViolatedSynthesis reports a time series whose mapped targetP stayed below minP
type MinPViolatedSynthesis struct {
	TimeSeriesName string
	Origin         Origin
}

// Describe implements Description
func (m MinPViolatedSynthesis) Describe() (string, string) {
	kind := "base case"
	if m.Origin == OriginMapped {
		kind = "mapped"
	}
	label := fmt.Sprintf("%s%s minP violated by mapped targetP%s", scalingDown, kind, tsSynthesis)
	message := fmt.Sprintf("Impossible to scale down at least one value of ts %s, but aimed targetP of equipments have been applied",
		m.TimeSeriesName)
	return label, message
}

// LimitChange reports a base case limit widened over a version
type LimitChange struct {
	ID               string
	VariableToChange string
	Variable         string
	Violations       int
	Old              float64
	New              float64

	// Max selects an increased upper limit, otherwise a decreased lower limit
	Max bool
}

// Describe implements Description
func (l LimitChange) Describe() (string, string) {
	comparison, evolution := " higher than ", " decreased from "
	if l.Max {
		comparison, evolution = " lower than ", " increased from "
	}
	message := fmt.Sprintf("%s of %s%s%s for %d variants, %s%s%s to %s",
		l.VariableToChange, l.ID, comparison, l.Variable, l.Violations,
		l.VariableToChange, evolution, FormatNumber(l.Old), FormatNumber(l.New))
	return limitChange + l.VariableToChange, message
}

// LimitSign reports a limit time series with the wrong sign for an HVDC line
type LimitSign struct {
	TimeSeriesName string
	Variable       string
	Value          float64

	// Max is set for maxP receiving a negative value, unset for minP receiving a positive one
	Max bool
}

// Describe implements Description
func (l LimitSign) Describe() (string, string) {
	sign := "positive "
	if l.Max {
		sign = "negative "
	}
	message := fmt.Sprintf("Impossible to map %s %s of ts %s", l.Variable, FormatNumber(l.Value), l.TimeSeriesName)
	return mappingSign + sign + l.Variable + " value", message
}

// ZeroKey reports a uniform fallback because every distribution key was zero
type ZeroKey struct {
	TimeSeriesName string
	Value          float64
	IDs            []string
}

// Describe implements Description
func (z ZeroKey) Describe() (string, string) {
	return "zero distribution key warning",
		fmt.Sprintf("Distribution key are all equal to zero in scaling down %s of ts %s on equipments %s -> uniform distribution",
			FormatNumber(z.Value), z.TimeSeriesName, formatIDs(z.IDs))
}

// EmptyFilter reports a non-zero value mapped to no equipment
type EmptyFilter struct {
	TimeSeriesName string
	Value          float64
}

// Describe implements Description
func (e EmptyFilter) Describe() (string, string) {
	return "empty filter error",
		fmt.Sprintf("Impossible to scale down %s of ts %s to empty equipment list", FormatNumber(e.Value), e.TimeSeriesName)
}
