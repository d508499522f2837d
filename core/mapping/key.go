package mapping

import (
	"fmt"

	"metrix-mapping/core/network"
)

// Key identifies a variable of one equipment, or a variable driven by one time series
type Key struct {
	Variable network.Variable `json:"variable"`
	ID       string           `json:"id"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s(%s)", k.Variable, k.ID)
}

// DistributionKey weights one equipment when a time series value is split
type DistributionKey interface {
	fmt.Stringer
	distributionKey()
}

// NumberKey is a fixed weight
type NumberKey struct {
	Value float64
}

func (NumberKey) distributionKey() {}

func (k NumberKey) String() string {
	return fmt.Sprintf("NumberDistributionKey(%v)", k.Value)
}

// SeriesKey weights an equipment with the absolute value of a time series at the same point
type SeriesKey struct {
	Name string
}

func (SeriesKey) distributionKey() {}

func (k SeriesKey) String() string {
	return fmt.Sprintf("TimeSeriesDistributionKey(%s)", k.Name)
}

// DefaultKey splits a value evenly
var DefaultKey DistributionKey = NumberKey{Value: 1}
