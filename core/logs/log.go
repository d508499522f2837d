// Package logs holds the mapping log: business-rule corrections reported while mapping.
// These records are a run artifact, separate from the zap process log.
package logs

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Level is the severity of a mapping log entry
type Level int

const (
	Info Level = iota
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Info:
		return "INFO"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// MarshalText implements encoding.TextMarshaler
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (l *Level) UnmarshalText(b []byte) error {
	switch strings.ToUpper(string(b)) {
	case "INFO":
		*l = Info
	case "WARNING", "WARN":
		*l = Warning
	case "ERROR":
		*l = Error
	default:
		return fmt.Errorf("unknown log level %q", string(b))
	}
	return nil
}

const (
	// ConstantPoint is the synthetic point of the constant pass
	ConstantPoint = -1

	// SynthesisPoint marks entries summarizing a whole version
	SynthesisPoint = math.MaxInt
)

// Log is one mapping log entry
type Log struct {
	Level   Level  `json:"level"`
	Version int    `json:"version"`
	Point   int    `json:"point"`
	Label   string `json:"label"`
	Message string `json:"message"`
}

// Description renders the label and message of one kind of entry
type Description interface {
	Describe() (label, message string)
}

// New builds a Log from a description
func New(level Level, version, point int, d Description) Log {
	label, message := d.Describe()
	return Log{Level: level, Version: version, Point: point, Label: label, Message: message}
}

const (
	labelSeparator  = " / "
	limitsDisabled  = labelSeparator + "IL disabled"
	scalingDown     = "scaling down" + labelSeparator
	tsSynthesis     = labelSeparator + "TS synthesis"
	mappingRange    = "mapping range problem" + labelSeparator
	baseCaseRange   = "base case range problem" + labelSeparator
	limitChange     = "limit change" + labelSeparator
	mappingSign     = "mapping sign problem" + labelSeparator
	actionMapped    = "mapped "
	actionBaseCase  = "base case "
	atLeastOneValue = "at least one value"
)

// FormatNumber prints a value with at most one decimal, rounding half to even
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "∞"
	case math.IsInf(v, -1):
		return "-∞"
	}
	return decimal.NewFromFloat(v).RoundBank(1).String()
}

func formatIDs(ids []string) string {
	return "[" + strings.Join(ids, ", ") + "]"
}
