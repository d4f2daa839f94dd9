package series

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrEmptyMerge is returned by MergeChecked for an empty value list.
var ErrEmptyMerge = errors.New("merge of empty value list")

// MergeType reduces the values that collided into one bucket to a single
// value.
type MergeType string

const (
	// MergeSum adds all bucket values.
	MergeSum MergeType = "sum"

	// MergeAverage takes the arithmetic mean of the bucket values.
	MergeAverage MergeType = "average"
)

// MergeTypes returns every supported merge type.
func MergeTypes() []MergeType {
	return []MergeType{MergeSum, MergeAverage}
}

// ParseMergeType parses a merge type name case-insensitively. "avg" and
// "mean" are accepted for MergeAverage.
func ParseMergeType(s string) (MergeType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sum":
		return MergeSum, nil
	case "average", "avg", "mean":
		return MergeAverage, nil
	default:
		return "", fmt.Errorf("unknown merge type %q (want sum or average)", s)
	}
}

// Valid reports whether m is a supported merge type.
func (m MergeType) Valid() bool {
	return m == MergeSum || m == MergeAverage
}

// String returns the upper-case merge type name.
func (m MergeType) String() string {
	return strings.ToUpper(string(m))
}

// Merge reduces values. It must only be called with at least one value; an
// empty list yields NaN.
func (m MergeType) Merge(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := compensatedSum(values)
	if m == MergeAverage {
		return sum / float64(len(values))
	}
	return sum
}

// MergeChecked is Merge with an explicit error for an empty list or an
// unknown merge type.
func (m MergeType) MergeChecked(values []float64) (float64, error) {
	if !m.Valid() {
		return 0, fmt.Errorf("unknown merge type %q", string(m))
	}
	if len(values) == 0 {
		return 0, ErrEmptyMerge
	}
	return m.Merge(values), nil
}

// compensatedSum is Neumaier's variant of Kahan summation. Non-finite inputs
// propagate as in plain IEEE-754 addition.
func compensatedSum(values []float64) float64 {
	var sum, c float64
	for _, v := range values {
		t := sum + v
		if math.Abs(sum) >= math.Abs(v) {
			c += (sum - t) + v
		} else {
			c += (v - t) + sum
		}
		sum = t
	}
	if math.IsInf(sum, 0) || math.IsNaN(sum) {
		return sum
	}
	return sum + c
}
