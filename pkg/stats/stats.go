package stats

import (
	"errors"
	"fmt"
	"math"

	"github.com/corrkit/corrkit/pkg/engine"
)

// ErrInsufficientData is returned when a correlation is undefined for the
// input: fewer than two pairs or zero variance on either side.
var ErrInsufficientData = errors.New("stats: insufficient data")

// Summary holds descriptive statistics of a sample.
type Summary struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Describe summarizes values. Std is the sample standard deviation and is 0
// for fewer than two values. An empty input yields the zero Summary.
func Describe(values []float64) Summary {
	n := len(values)
	if n == 0 {
		return Summary{}
	}

	s := Summary{
		Count: n,
		Mean:  mean(values),
		Min:   values[0],
		Max:   values[0],
	}
	for _, v := range values[1:] {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}

	if n > 1 {
		sumSq := 0.0
		for _, v := range values {
			d := v - s.Mean
			sumSq += d * d
		}
		s.Std = math.Sqrt(sumSq / float64(n-1))
	}
	return s
}

// Pearson returns the Pearson correlation coefficient of xs and ys.
func Pearson(xs, ys []float64) (float64, error) {
	if len(xs) != len(ys) {
		return math.NaN(), fmt.Errorf("stats: length mismatch %d != %d", len(xs), len(ys))
	}
	if len(xs) < 2 {
		return math.NaN(), fmt.Errorf("%w: %d pairs", ErrInsufficientData, len(xs))
	}

	mx, my := mean(xs), mean(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx := xs[i] - mx
		dy := ys[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN(), fmt.Errorf("%w: zero variance", ErrInsufficientData)
	}

	r := sxy / math.Sqrt(sxx*syy)
	// Clamp rounding noise.
	return math.Max(-1, math.Min(1, r)), nil
}

// CollectionCorrelation returns the Pearson correlation of the x and y values
// of c, taken in key order.
func CollectionCorrelation(c *engine.Collection) (float64, error) {
	if c == nil {
		return math.NaN(), fmt.Errorf("%w: nil collection", ErrInsufficientData)
	}
	xs, ys := c.Values()
	return Pearson(xs, ys)
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
