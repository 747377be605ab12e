package stack

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/tol-stack/tol-stack/stack/dist"
)

// Part is a single dimension in a stack: identity, nominal value, tolerances,
// and the distribution its production population follows.
//
// Samples are realized at most once and frozen for the life of the part;
// re-analysis of an owning path reuses them. Refresh forces a redraw.
type Part struct {
	Name     string
	Nominal  float64
	UpperTol float64
	LowerTol float64
	Comment  string
	Dist     dist.Spec

	size    int
	sampler dist.Sampler
	samples []float64
}

// NewPart creates a part with symmetric tolerance and a plain normal
// population.
func NewPart(name string, nominal, tolerance float64, size int) (*Part, error) {
	return NewPartWithDist(name, nominal, tolerance, tolerance, dist.Spec{Kind: dist.Norm}, size)
}

// NewPartWithDist creates a part with an explicit distribution spec.
// Tolerances are taken as absolute values; the sampler's sigma derives from
// the upper tolerance (tolerance is the +-3 sigma band).
func NewPartWithDist(name string, nominal, upperTol, lowerTol float64, spec dist.Spec, size int) (*Part, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: part %q: size must be positive, got %d", ErrConfig, name, size)
	}

	sampler, err := dist.New(spec, nominal, upperTol)
	if err != nil {
		return nil, fmt.Errorf("part %q: %w", name, err)
	}

	return &Part{
		Name:     name,
		Nominal:  nominal,
		UpperTol: math.Abs(upperTol),
		LowerTol: math.Abs(lowerTol),
		Dist:     spec,
		size:     size,
		sampler:  sampler,
	}, nil
}

// Size returns the number of samples the part draws.
func (p *Part) Size() int { return p.size }

// Realized reports whether the part's samples have been drawn.
func (p *Part) Realized() bool { return p.samples != nil }

// Realize draws the part's samples if they have not been drawn yet.
// Subsequent calls are no-ops; use Refresh to force a redraw.
func (p *Part) Realize(rng *rand.Rand) error {
	if p.samples != nil {
		return nil
	}
	return p.Refresh(rng)
}

// Refresh discards any realized samples and redraws from the part's
// distribution. Propagates sampler failures such as infeasible screening
// limits.
func (p *Part) Refresh(rng *rand.Rand) error {
	values, err := p.sampler.Sample(rng, p.size)
	if err != nil {
		return fmt.Errorf("part %q: %w", p.Name, err)
	}
	p.samples = values
	return nil
}

// Samples returns the realized sample vector, or nil if the part has not
// been realized. The slice is owned by the part; callers must not modify it.
func (p *Part) Samples() []float64 { return p.samples }

// Summary holds descriptive statistics of a realized sample vector.
type Summary struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Describe returns descriptive statistics of the realized samples for
// diagnostics.
func (p *Part) Describe() (Summary, error) {
	if p.samples == nil {
		return Summary{}, fmt.Errorf("%w: part %q is not realized", ErrState, p.Name)
	}
	return Summary{
		Count:  len(p.samples),
		Mean:   stat.Mean(p.samples, nil),
		StdDev: stat.StdDev(p.samples, nil),
		Min:    floats.Min(p.samples),
		Max:    floats.Max(p.samples),
	}, nil
}
