package stack

import (
	"fmt"
	"io"
	"math"
	"slices"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Empirical quantiles approximating the +-3 sigma interval.
const (
	lowQuantile  = 0.0015
	highQuantile = 0.9985
)

const (
	defaultHistogramBins = 31
	histogramBarWidth    = 50
)

// Bin is one histogram bucket of the aggregate distribution.
type Bin struct {
	Low   float64
	High  float64
	Count int
}

// Report summarizes an analyzed stack path for display.
type Report struct {
	Name        string
	Description string
	Type        PathType
	Parts       int
	Size        int

	Mean   float64
	StdDev float64
	Min    float64
	Max    float64

	// LowerBound and UpperBound are the empirical 0.15% / 99.85% quantiles.
	LowerBound float64
	UpperBound float64

	// OutOfTolerance is the fraction of instances outside the path's
	// acceptance rule. Bound is the max/min bound it was compared against
	// (unused for circuit paths).
	OutOfTolerance float64
	Bound          float64

	Histogram []Bin
}

// Report computes the summary report for an analyzed path. bins <= 0 selects
// the default histogram bin count.
func (sp *StackPath) Report(bins int) (*Report, error) {
	aggregate, err := sp.Aggregate()
	if err != nil {
		return nil, err
	}

	lower, upper, err := sp.PercentileBounds(lowQuantile, highQuantile)
	if err != nil {
		return nil, err
	}
	outOfTolerance, err := sp.OutOfToleranceFraction()
	if err != nil {
		return nil, err
	}

	r := &Report{
		Name:           sp.Name,
		Description:    sp.Description,
		Type:           sp.pathType,
		Parts:          len(sp.parts),
		Size:           len(aggregate),
		Mean:           stat.Mean(aggregate, nil),
		StdDev:         stat.StdDev(aggregate, nil),
		Min:            floats.Min(aggregate),
		Max:            floats.Max(aggregate),
		LowerBound:     lower,
		UpperBound:     upper,
		OutOfTolerance: outOfTolerance,
		Histogram:      histogram(aggregate, bins),
	}
	switch sp.pathType {
	case PathMax:
		r.Bound = sp.maxValue
	case PathMin:
		r.Bound = sp.minValue
	}
	return r, nil
}

// histogram bins values into equal-width buckets across their range.
func histogram(values []float64, bins int) []Bin {
	if bins <= 0 {
		bins = defaultHistogramBins
	}

	sorted := slices.Clone(values)
	sort.Float64s(sorted)
	min, max := sorted[0], sorted[len(sorted)-1]
	if min == max {
		return []Bin{{Low: min, High: max, Count: len(values)}}
	}

	dividers := make([]float64, bins+1)
	floats.Span(dividers, min, max)
	// stat.Histogram requires all values strictly below the last divider.
	dividers[bins] = math.Nextafter(max, math.Inf(1))
	counts := stat.Histogram(nil, dividers, sorted, nil)

	out := make([]Bin, bins)
	for i := range out {
		out[i] = Bin{
			Low:   dividers[i],
			High:  dividers[i+1],
			Count: int(counts[i]),
		}
	}
	return out
}

// Print writes the report as fixed-width text, with an ASCII histogram of
// the aggregate distribution.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "=== Stackup Report: %s ===\n", r.Name)
	if r.Description != "" {
		fmt.Fprintf(w, "%s\n", r.Description)
	}
	fmt.Fprintf(w, "Path Type        : %s\n", r.Type)
	fmt.Fprintf(w, "Parts            : %d\n", r.Parts)
	fmt.Fprintf(w, "Samples          : %d\n", r.Size)
	fmt.Fprintf(w, "Mean             : %.6f\n", r.Mean)
	fmt.Fprintf(w, "Std Dev          : %.6f\n", r.StdDev)
	fmt.Fprintf(w, "Min / Max        : %.6f / %.6f\n", r.Min, r.Max)
	fmt.Fprintf(w, "99.7%% Interval   : [%.6f, %.6f]\n", r.LowerBound, r.UpperBound)

	switch r.Type {
	case PathMax:
		fmt.Fprintf(w, "Above %-10.4g : %.2f%%\n", r.Bound, 100*r.OutOfTolerance)
	case PathMin:
		fmt.Fprintf(w, "Below %-10.4g : %.2f%%\n", r.Bound, 100*r.OutOfTolerance)
	default:
		fmt.Fprintf(w, "Interference     : %.2f%%\n", 100*r.OutOfTolerance)
	}

	peak := 0
	for _, bin := range r.Histogram {
		if bin.Count > peak {
			peak = bin.Count
		}
	}
	if peak == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, bin := range r.Histogram {
		bar := strings.Repeat("#", bin.Count*histogramBarWidth/peak)
		fmt.Fprintf(w, "%12.5f | %-*s %d\n", bin.Low, histogramBarWidth, bar, bin.Count)
	}
}

// PrintSummary writes a part's realized distribution summary, for
// diagnostics alongside a path report.
func PrintSummary(w io.Writer, name string, s Summary) {
	fmt.Fprintf(w, "%-20s n=%d mean=%.6f std=%.6f min=%.6f max=%.6f\n",
		name, s.Count, s.Mean, s.StdDev, s.Min, s.Max)
}
