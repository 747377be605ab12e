package stack

import (
	"fmt"
	"slices"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PathType selects the stackup semantics of a path.
type PathType string

const (
	// PathCircuit sums signed dimensions around a closed loop; the aggregate
	// is the loop closure gap, ideally distributed around the design gap.
	PathCircuit PathType = "circuit"
	// PathMax compares the resultant stack height against an upper bound.
	PathMax PathType = "max"
	// PathMin compares the resultant stack height against a lower bound.
	PathMin PathType = "min"
)

var validPathTypes = map[PathType]bool{
	PathCircuit: true, PathMax: true, PathMin: true,
}

// PathConfig configures a StackPath.
type PathConfig struct {
	Name        string
	Description string
	// Type defaults to PathCircuit when empty.
	Type PathType
	// MaxValue is the upper bound for PathMax paths.
	MaxValue float64
	// MinValue is the lower bound for PathMin paths.
	MinValue float64
	// Seed is the master seed for the path's RNG partition.
	Seed int64
}

type signedPart struct {
	part *Part
	sign float64
}

// StackPath is an ordered, signed sequence of parts defining how dimensional
// variation composes into an assembly-level result.
//
// Build it by adding parts in stack order, then call Analyze to populate the
// aggregate. All state is in-memory for a single simulation run.
type StackPath struct {
	Name        string
	Description string

	pathType PathType
	maxValue float64
	minValue float64

	rng       *PartitionedRNG
	parts     []signedPart
	aggregate []float64
}

// NewStackPath creates an empty stack path.
func NewStackPath(cfg PathConfig) (*StackPath, error) {
	pathType := cfg.Type
	if pathType == "" {
		pathType = PathCircuit
	}
	if !validPathTypes[pathType] {
		return nil, fmt.Errorf("%w: unknown path type %q; valid: circuit, max, min", ErrConfig, cfg.Type)
	}

	return &StackPath{
		Name:        cfg.Name,
		Description: cfg.Description,
		pathType:    pathType,
		maxValue:    cfg.MaxValue,
		minValue:    cfg.MinValue,
		rng:         NewPartitionedRNG(NewSimulationKey(cfg.Seed)),
	}, nil
}

// Type returns the path's stackup semantics.
func (sp *StackPath) Type() PathType { return sp.pathType }

// Size returns the shared sample count of member parts, or 0 for an empty
// path.
func (sp *StackPath) Size() int {
	if len(sp.parts) == 0 {
		return 0
	}
	return sp.parts[0].part.Size()
}

// Parts returns the member parts in stack order.
func (sp *StackPath) Parts() []*Part {
	out := make([]*Part, len(sp.parts))
	for i, sub := range sp.parts {
		out[i] = sub.part
	}
	return out
}

// AddPart appends part with positive stack direction.
func (sp *StackPath) AddPart(p *Part) error {
	return sp.AddPartSigned(p, +1)
}

// AddPartSigned appends part with the given stack direction (+1 or -1).
// All parts in a path must share the same sample size, and parts cannot be
// added once the path has been analyzed.
func (sp *StackPath) AddPartSigned(p *Part, sign int) error {
	if sp.aggregate != nil {
		return fmt.Errorf("%w: path %q is already analyzed, parts are frozen", ErrState, sp.Name)
	}
	if sign != 1 && sign != -1 {
		return fmt.Errorf("%w: part %q sign must be +1 or -1, got %d", ErrConfig, p.Name, sign)
	}
	if len(sp.parts) > 0 && p.Size() != sp.Size() {
		return fmt.Errorf("%w: part %q has size %d, path %q expects %d; sample sizes must match",
			ErrConfig, p.Name, p.Size(), sp.Name, sp.Size())
	}

	sp.parts = append(sp.parts, signedPart{part: p, sign: float64(sign)})
	return nil
}

// Analyze realizes all member parts and computes the aggregate
//
//	aggregate[i] = sum_j sign_j * samples_j[i]
//
// for every simulated assembly instance i. Parts realize in parallel, each
// on its own RNG stream, so realization order never changes the result.
// Already-realized parts keep their frozen samples; re-invoking Analyze on
// an unchanged path recomputes an identical aggregate.
func (sp *StackPath) Analyze() error {
	if len(sp.parts) == 0 {
		return fmt.Errorf("%w: path %q has no parts", ErrConfig, sp.Name)
	}

	// Streams must be obtained serially; each goroutine then owns its
	// stream and its part's buffer exclusively.
	var g errgroup.Group
	for i, sub := range sp.parts {
		if sub.part.Realized() {
			continue
		}
		part := sub.part
		rng := sp.rng.ForStream(partStream(i, part.Name))
		g.Go(func() error {
			return part.Realize(rng)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	aggregate := make([]float64, sp.Size())
	for _, sub := range sp.parts {
		floats.AddScaled(aggregate, sub.sign, sub.part.Samples())
	}
	sp.aggregate = aggregate
	return nil
}

// Resample forces every part to redraw its samples and recomputes the
// aggregate. Streams advance deterministically, so a resample sequence is
// still reproducible from the master seed.
func (sp *StackPath) Resample() error {
	if len(sp.parts) == 0 {
		return fmt.Errorf("%w: path %q has no parts", ErrConfig, sp.Name)
	}
	for i, sub := range sp.parts {
		if err := sub.part.Refresh(sp.rng.ForStream(partStream(i, sub.part.Name))); err != nil {
			return err
		}
	}
	return sp.Analyze()
}

// Aggregate returns the per-instance stackup results. The slice is owned by
// the path; callers must not modify it.
func (sp *StackPath) Aggregate() ([]float64, error) {
	if sp.aggregate == nil {
		return nil, fmt.Errorf("%w: path %q: call Analyze before reading the aggregate", ErrState, sp.Name)
	}
	return sp.aggregate, nil
}

// Fraction returns the fraction of simulated instances for which pred holds.
func (sp *StackPath) Fraction(pred func(float64) bool) (float64, error) {
	aggregate, err := sp.Aggregate()
	if err != nil {
		return 0, err
	}
	count := 0
	for _, v := range aggregate {
		if pred(v) {
			count++
		}
	}
	return float64(count) / float64(len(aggregate)), nil
}

// InterferenceFraction returns the fraction of circuit instances whose loop
// closure gap indicates interference. The default rule counts gaps below
// zero (a clearance stack that crashes); callers with a different
// interference band should use Fraction with their own predicate.
func (sp *StackPath) InterferenceFraction() (float64, error) {
	if sp.pathType != PathCircuit {
		return 0, fmt.Errorf("%w: interference applies to circuit paths, path %q is %q",
			ErrConfig, sp.Name, sp.pathType)
	}
	return sp.Fraction(func(v float64) bool { return v < 0 })
}

// OutOfToleranceFraction returns the fraction of instances outside the
// path's acceptance rule: below zero for circuit paths, above the max bound
// for max paths, below the min bound for min paths.
func (sp *StackPath) OutOfToleranceFraction() (float64, error) {
	switch sp.pathType {
	case PathMax:
		return sp.Fraction(func(v float64) bool { return v > sp.maxValue })
	case PathMin:
		return sp.Fraction(func(v float64) bool { return v < sp.minValue })
	default:
		return sp.Fraction(func(v float64) bool { return v < 0 })
	}
}

// PercentileBounds returns the empirical [low, high] quantiles of the
// aggregate. Quantiles are fractions in [0, 1].
func (sp *StackPath) PercentileBounds(low, high float64) (float64, float64, error) {
	aggregate, err := sp.Aggregate()
	if err != nil {
		return 0, 0, err
	}
	if low < 0 || high > 1 || low > high {
		return 0, 0, fmt.Errorf("%w: quantiles must satisfy 0 <= low <= high <= 1, got [%g, %g]",
			ErrConfig, low, high)
	}

	sorted := slices.Clone(aggregate)
	sort.Float64s(sorted)
	return stat.Quantile(low, stat.Empirical, sorted, nil),
		stat.Quantile(high, stat.Empirical, sorted, nil), nil
}
