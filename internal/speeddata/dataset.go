// Package speeddata loads vehicle speed samples into a sorted dataset ready
// for threshold selection.
package speeddata

import (
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/speed-threshold/internal/otsu"
)

// Dataset is a non-empty, ascending sequence of finite speed samples.
type Dataset struct {
	values []float64
}

// NewDataset copies and sorts samples. Empty input fails with
// *otsu.InvalidInputError, as do NaN and infinite samples.
func NewDataset(samples []float64) (Dataset, error) {
	if len(samples) == 0 {
		return Dataset{}, &otsu.InvalidInputError{Reason: "dataset is empty"}
	}
	values := make([]float64, len(samples))
	for i, v := range samples {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Dataset{}, &otsu.InvalidInputError{Reason: fmt.Sprintf("sample %d is not finite (%v)", i, v)}
		}
		values[i] = v
	}
	sort.Float64s(values)
	return Dataset{values: values}, nil
}

// Values returns the sorted samples. Callers must not modify the slice.
func (d Dataset) Values() []float64 { return d.values }

// Len returns the number of samples.
func (d Dataset) Len() int { return len(d.values) }

// Min returns the slowest sample.
func (d Dataset) Min() float64 { return d.values[0] }

// Max returns the fastest sample.
func (d Dataset) Max() float64 { return d.values[len(d.values)-1] }
