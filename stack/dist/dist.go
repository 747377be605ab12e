package dist

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"
)

// maxRejectionRounds bounds the number of whole-batch redraw rounds a
// screened/notched sampler may attempt before giving up. Matches the cap the
// acceptance loop needs for any feasible screening band; exhausting it means
// the band lies many sigma away from the nominal.
const maxRejectionRounds = 100

var (
	// ErrInfeasible reports that rejection sampling could not collect enough
	// accepted values within the bounded round budget.
	ErrInfeasible = errors.New("distribution infeasible")

	// ErrInvalidSpec reports a malformed distribution spec (unknown kind,
	// missing or inverted limits).
	ErrInvalidSpec = errors.New("invalid distribution spec")
)

// Kind identifies a distribution family. The set is closed; New switches
// exhaustively over it.
type Kind string

const (
	// Norm is an unmodified normal population.
	Norm Kind = "norm"
	// NormScreened keeps only values inside [low, high], as produced by a
	// go/no-go screening fixture.
	NormScreened Kind = "norm-screened"
	// NormNotched removes the interior band [low, high], the leftover
	// population after precision parts have been sorted out.
	NormNotched Kind = "norm-notched"
	// NormLT keeps only values at or below a single upper limit.
	NormLT Kind = "norm-lt"
	// NormGT keeps only values at or above a single lower limit.
	NormGT Kind = "norm-gt"
	// SkewNorm is a skew-normal population with an opaque shape parameter.
	SkewNorm Kind = "skew-norm"
)

var validKinds = map[Kind]bool{
	Norm: true, NormScreened: true, NormNotched: true,
	NormLT: true, NormGT: true, SkewNorm: true,
}

// Valid reports whether k names a known distribution family.
func (k Kind) Valid() bool { return validKinds[k] }

// Normalize resolves the empty default to Norm.
func (k Kind) Normalize() Kind {
	if k == "" {
		return Norm
	}
	return k
}

// KindNames returns the valid kind names for error messages.
func KindNames() string {
	names := []string{
		string(Norm), string(NormScreened), string(NormNotched),
		string(NormLT), string(NormGT), string(SkewNorm),
	}
	return strings.Join(names, ", ")
}

// Spec parameterizes sample generation for one dimension. All variants share
// a normal kernel; limits and skewness apply per kind.
type Spec struct {
	Kind Kind
	// LowLimit and HighLimit bound screened and notched populations.
	LowLimit  *float64
	HighLimit *float64
	// Limit is the single bound for one-sided screening.
	Limit *float64
	// Skewness is the shape parameter for skew-normal populations.
	Skewness float64
}

// Sampler draws sample vectors for a single dimension.
type Sampler interface {
	// Sample returns exactly n draws using rng.
	Sample(rng *rand.Rand, n int) ([]float64, error)
}

// New builds a Sampler for spec around a normal kernel with mean nominal and
// sigma tolerance/3 (tolerance is the +-3 sigma band). An empty kind defaults
// to Norm.
func New(spec Spec, nominal, tolerance float64) (Sampler, error) {
	kernel := Normal{Mu: nominal, Sigma: math.Abs(tolerance) / 3}

	switch spec.Kind.Normalize() {
	case Norm:
		return kernel, nil

	case NormScreened:
		low, high, err := spec.bandLimits()
		if err != nil {
			return nil, err
		}
		return Screened{kernel: kernel, low: low, high: high}, nil

	case NormNotched:
		low, high, err := spec.bandLimits()
		if err != nil {
			return nil, err
		}
		return Notched{kernel: kernel, low: low, high: high}, nil

	case NormLT:
		limit, err := spec.oneLimit()
		if err != nil {
			return nil, err
		}
		return LessThan{kernel: kernel, limit: limit}, nil

	case NormGT:
		limit, err := spec.oneLimit()
		if err != nil {
			return nil, err
		}
		return GreaterThan{kernel: kernel, limit: limit}, nil

	case SkewNorm:
		if math.IsNaN(spec.Skewness) || math.IsInf(spec.Skewness, 0) {
			return nil, fmt.Errorf("%w: %s skewness must be a finite number, got %f", ErrInvalidSpec, SkewNorm, spec.Skewness)
		}
		return SkewNormal{Loc: nominal, Scale: kernel.Sigma, Shape: spec.Skewness}, nil

	default:
		return nil, fmt.Errorf("%w: unknown kind %q; valid: %s", ErrInvalidSpec, spec.Kind, KindNames())
	}
}

func (s Spec) bandLimits() (float64, float64, error) {
	if s.LowLimit == nil || s.HighLimit == nil {
		return 0, 0, fmt.Errorf("%w: %s requires low and high limits", ErrInvalidSpec, s.Kind)
	}
	low, high := *s.LowLimit, *s.HighLimit
	if low >= high {
		return 0, 0, fmt.Errorf("%w: %s low limit %g must be below high limit %g", ErrInvalidSpec, s.Kind, low, high)
	}
	return low, high, nil
}

func (s Spec) oneLimit() (float64, error) {
	if s.Limit == nil {
		return 0, fmt.Errorf("%w: %s requires a limit", ErrInvalidSpec, s.Kind)
	}
	return *s.Limit, nil
}

// Normal draws from an unmodified normal distribution.
type Normal struct {
	Mu    float64
	Sigma float64
}

func (d Normal) Sample(rng *rand.Rand, n int) ([]float64, error) {
	norm := distuv.Normal{Mu: d.Mu, Sigma: d.Sigma, Src: rng}
	out := make([]float64, n)
	for i := range out {
		out[i] = norm.Rand()
	}
	return out, nil
}

// Screened draws from a normal distribution truncated to [low, high].
type Screened struct {
	kernel    Normal
	low, high float64
}

func (d Screened) Sample(rng *rand.Rand, n int) ([]float64, error) {
	return rejectionSample(rng, d.kernel, n, func(v float64) bool {
		return v >= d.low && v <= d.high
	})
}

// Notched draws from a normal distribution with the band [low, high] removed.
type Notched struct {
	kernel    Normal
	low, high float64
}

func (d Notched) Sample(rng *rand.Rand, n int) ([]float64, error) {
	return rejectionSample(rng, d.kernel, n, func(v float64) bool {
		return v <= d.low || v >= d.high
	})
}

// LessThan draws from a normal distribution screened to values <= limit.
type LessThan struct {
	kernel Normal
	limit  float64
}

func (d LessThan) Sample(rng *rand.Rand, n int) ([]float64, error) {
	return rejectionSample(rng, d.kernel, n, func(v float64) bool {
		return v <= d.limit
	})
}

// GreaterThan draws from a normal distribution screened to values >= limit.
type GreaterThan struct {
	kernel Normal
	limit  float64
}

func (d GreaterThan) Sample(rng *rand.Rand, n int) ([]float64, error) {
	return rejectionSample(rng, d.kernel, n, func(v float64) bool {
		return v >= d.limit
	})
}

// rejectionSample redraws whole batches from kernel, keeping values that pass
// keep, until n values are accepted. Rounds are capped so an acceptance rate
// near zero surfaces as ErrInfeasible instead of looping forever.
func rejectionSample(rng *rand.Rand, kernel Normal, n int, keep func(float64) bool) ([]float64, error) {
	out := make([]float64, 0, n)
	for round := 0; round < maxRejectionRounds; round++ {
		batch, err := kernel.Sample(rng, n)
		if err != nil {
			return nil, err
		}
		for _, v := range batch {
			if !keep(v) {
				continue
			}
			out = append(out, v)
			if len(out) == n {
				return out, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: accepted %d of %d values after %d rounds; are the limits set appropriately?",
		ErrInfeasible, len(out), n, maxRejectionRounds)
}

// SkewNormal draws from a skew-normal distribution with location Loc, scale
// Scale, and shape Shape. Shape 0 reduces to a plain normal; negative shape
// skews left, positive skews right.
type SkewNormal struct {
	Loc   float64
	Scale float64
	Shape float64
}

func (d SkewNormal) Sample(rng *rand.Rand, n int) ([]float64, error) {
	// Conditioning representation: for iid standard normals u, v,
	// delta*|u| + sqrt(1-delta^2)*v is standard skew-normal with
	// delta = shape/sqrt(1+shape^2).
	delta := d.Shape / math.Sqrt(1+d.Shape*d.Shape)
	coef := math.Sqrt(1 - delta*delta)

	out := make([]float64, n)
	for i := range out {
		u := rng.NormFloat64()
		v := rng.NormFloat64()
		z := delta*math.Abs(u) + coef*v
		out[i] = d.Loc + d.Scale*z
	}
	return out, nil
}
