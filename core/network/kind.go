// Package network - Equipment graph used by the mapping engine.
// The engine reads it through View; only observers receive a Mutator.
package network

import (
	"fmt"
	"strings"
)

// Kind is the closed set of mappable equipment kinds
type Kind int

const (
	KindLoad Kind = iota
	KindGenerator
	KindBattery
	KindDanglingLine
	KindHvdcLine
	KindPhaseTapChanger
	KindSwitch
	KindTransformer
	KindRatioTapChanger
	KindLccConverterStation
	KindVscConverterStation
	KindLine
)

var kindNames = [...]string{
	KindLoad:                "load",
	KindGenerator:           "generator",
	KindBattery:             "battery",
	KindDanglingLine:        "boundaryLine",
	KindHvdcLine:            "hvdcLine",
	KindPhaseTapChanger:     "pst",
	KindSwitch:              "breaker",
	KindTransformer:         "transformer",
	KindRatioTapChanger:     "ratioTapChanger",
	KindLccConverterStation: "lccConverterStation",
	KindVscConverterStation: "vscConverterStation",
	KindLine:                "line",
}

// Kinds returns every kind in mapping order
func Kinds() []Kind {
	out := make([]Kind, len(kindNames))
	for i := range kindNames {
		out[i] = Kind(i)
	}
	return out
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind accepts the canonical name, case-insensitively
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if strings.EqualFold(name, s) {
			return Kind(i), nil
		}
	}
	switch strings.ToLower(s) {
	case "danglingline":
		return KindDanglingLine, nil
	case "switch":
		return KindSwitch, nil
	case "phasetapchanger":
		return KindPhaseTapChanger, nil
	}
	return 0, fmt.Errorf("unknown equipment kind %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// IsGeneratorLike reports kinds corrected with targetP/minP/maxP
func (k Kind) IsGeneratorLike() bool {
	return k == KindGenerator || k == KindBattery
}
