// Package otsu selects a two-cluster split point for sorted speed samples
// using Otsu's method: the split minimising the size-weighted sum of the
// population variances of the slower and faster partitions.
package otsu

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// InvalidInputError reports a dataset that cannot be partitioned.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

// CurvePoint is the mixed variance obtained when splitting at Threshold.
type CurvePoint struct {
	Threshold     float64
	MixedVariance float64
}

// Curve holds one CurvePoint per candidate split, in dataset order.
type Curve []CurvePoint

// Thresholds returns the X values of the curve.
func (c Curve) Thresholds() []float64 {
	xs := make([]float64, len(c))
	for i, p := range c {
		xs[i] = p.Threshold
	}
	return xs
}

// Variances returns the Y values of the curve.
func (c Curve) Variances() []float64 {
	ys := make([]float64, len(c))
	for i, p := range c {
		ys[i] = p.MixedVariance
	}
	return ys
}

// Result is the outcome of a single threshold selection.
type Result struct {
	// Threshold is the first sample of the faster partition.
	Threshold     float64
	MixedVariance float64
	// Index is the split position; samples [0, Index) fall below Threshold.
	Index int
	Curve Curve
}

// Selector scans every split of a sorted dataset.
type Selector struct {
	// LegacyBoundary drops the largest sample from every upper partition so
	// curves can be compared with older threshold reports. Empty partitions
	// still count as variance 0, so every curve point stays finite.
	LegacyBoundary bool
}

// SelectThreshold runs the default Selector over dataset.
func SelectThreshold(dataset []float64) (*Result, error) {
	var s Selector
	return s.Select(dataset)
}

// Select returns the split value with the lowest mixed variance. Ties keep
// the earliest split. dataset must be non-empty, finite and sorted ascending.
func (s *Selector) Select(dataset []float64) (*Result, error) {
	if err := validate(dataset); err != nil {
		return nil, err
	}

	n := len(dataset)
	total := float64(n)
	upperEnd := n
	if s.LegacyBoundary {
		upperEnd = n - 1
	}

	res := &Result{
		Threshold:     math.NaN(),
		MixedVariance: math.Inf(1),
		Curve:         make(Curve, 0, n),
	}
	for i := 0; i < n; i++ {
		lower := dataset[0:i]
		upper := dataset[i:max(i, upperEnd)]

		mixed := float64(len(lower))/total*popVariance(lower) +
			float64(len(upper))/total*popVariance(upper)

		res.Curve = append(res.Curve, CurvePoint{Threshold: dataset[i], MixedVariance: mixed})
		if mixed < res.MixedVariance {
			res.MixedVariance = mixed
			res.Threshold = dataset[i]
			res.Index = i
		}
	}
	return res, nil
}

// popVariance is the population variance of xs, zero for fewer than two values.
func popVariance(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	_, v := stat.PopMeanVariance(xs, nil)
	return v
}

func validate(dataset []float64) error {
	if len(dataset) == 0 {
		return &InvalidInputError{Reason: "dataset is empty"}
	}
	for i, v := range dataset {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &InvalidInputError{Reason: fmt.Sprintf("sample %d is not finite (%v)", i, v)}
		}
	}
	if !sort.Float64sAreSorted(dataset) {
		return &InvalidInputError{Reason: "dataset is not sorted ascending"}
	}
	return nil
}
