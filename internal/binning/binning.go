// Package binning groups speed samples into fixed-width histogram bins.
package binning

import (
	"fmt"
	"math"
	"strconv"
)

// DefaultWidth is the histogram bin width in display units (2 mph).
const DefaultWidth = 2.0

// MaxBins caps the number of bins a single Quantize call may create.
const MaxBins = 1 << 20

// Bin is the half-open interval [Start, Start+Width) and the samples in it.
type Bin struct {
	Start   float64
	Width   float64
	Samples []float64
}

// End returns the exclusive upper edge of the bin.
func (b Bin) End() float64 {
	return b.Start + b.Width
}

// Count returns the number of samples in the bin.
func (b Bin) Count() int {
	return len(b.Samples)
}

// Histogram is an ordered run of contiguous bins. Empty interior bins are
// retained so the bars line up with their speed ranges.
type Histogram struct {
	Width float64
	Bins  []Bin
}

// Quantize places every sample in the bin whose start is
// floor(v/width)*width, relative to the bin holding the minimum. Samples
// need not be sorted, but each bin keeps its samples in input order.
func Quantize(samples []float64, width float64) (*Histogram, error) {
	if width <= 0 || math.IsNaN(width) || math.IsInf(width, 0) {
		return nil, fmt.Errorf("bin width must be a positive finite number, got %v", width)
	}

	h := &Histogram{Width: width}
	if len(samples) == 0 {
		return h, nil
	}

	lo, hi := samples[0], samples[0]
	for _, v := range samples {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("cannot bin non-finite sample %v", v)
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	origin := math.Floor(lo/width) * width
	if origin > lo {
		origin -= width
	}
	if n := (hi - origin) / width; n >= MaxBins {
		return nil, fmt.Errorf("bin width %v gives more than %d bins for range [%v, %v]", width, MaxBins, lo, hi)
	}

	// Each bin starts where the previous one ends, so the edges are
	// contiguous in floating point and the final bin always covers hi.
	for start := origin; ; start += width {
		if start+width <= start {
			return nil, fmt.Errorf("bin width %v is too small for speeds near %v", width, start)
		}
		h.Bins = append(h.Bins, Bin{Start: start, Width: width})
		if hi < start+width {
			break
		}
	}

	last := len(h.Bins) - 1
	for _, v := range samples {
		i := int(math.Floor((v - origin) / width))
		i = max(0, min(i, last))
		for i < last && v >= h.Bins[i].End() {
			i++
		}
		for i > 0 && v < h.Bins[i].Start {
			i--
		}
		h.Bins[i].Samples = append(h.Bins[i].Samples, v)
	}
	return h, nil
}

// Counts returns the sample count of each bin in order.
func (h *Histogram) Counts() []int {
	counts := make([]int, len(h.Bins))
	for i, b := range h.Bins {
		counts[i] = b.Count()
	}
	return counts
}

// Edges returns len(Bins)+1 bin boundaries, or nil for an empty histogram.
func (h *Histogram) Edges() []float64 {
	if len(h.Bins) == 0 {
		return nil
	}
	edges := make([]float64, 0, len(h.Bins)+1)
	for _, b := range h.Bins {
		edges = append(edges, b.Start)
	}
	return append(edges, h.Bins[len(h.Bins)-1].End())
}

// Labels renders each bin as "start-end" using the given decimal precision.
func (h *Histogram) Labels(precision int) []string {
	labels := make([]string, len(h.Bins))
	for i, b := range h.Bins {
		labels[i] = strconv.FormatFloat(b.Start, 'f', precision, 64) + "-" +
			strconv.FormatFloat(b.End(), 'f', precision, 64)
	}
	return labels
}

// MaxCount returns the largest bin count.
func (h *Histogram) MaxCount() int {
	m := 0
	for _, b := range h.Bins {
		if b.Count() > m {
			m = b.Count()
		}
	}
	return m
}

// Total returns the number of binned samples.
func (h *Histogram) Total() int {
	n := 0
	for _, b := range h.Bins {
		n += b.Count()
	}
	return n
}
