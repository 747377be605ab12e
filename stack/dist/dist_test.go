package dist

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed+1))
}

func floatPtr(v float64) *float64 { return &v }

func TestNormal_Moments(t *testing.T) {
	sampler, err := New(Spec{Kind: Norm}, 1.0, 0.05)
	require.NoError(t, err)

	values, err := sampler.Sample(testRNG(42), 200000)
	require.NoError(t, err)
	require.Len(t, values, 200000)

	mean, std := moments(values)
	assert.InDelta(t, 1.0, mean, 0.001)
	assert.InDelta(t, 0.05/3, std, 0.0005)
}

func TestNew_EmptyKindDefaultsToNorm(t *testing.T) {
	sampler, err := New(Spec{}, 0.0, 0.3)
	require.NoError(t, err)
	assert.IsType(t, Normal{}, sampler)
}

func TestScreened_AllValuesInsideBand(t *testing.T) {
	spec := Spec{Kind: NormScreened, LowLimit: floatPtr(0.98), HighLimit: floatPtr(1.02)}
	sampler, err := New(spec, 1.0, 0.1)
	require.NoError(t, err)

	values, err := sampler.Sample(testRNG(7), 50000)
	require.NoError(t, err)
	require.Len(t, values, 50000)

	for _, v := range values {
		if v < 0.98 || v > 1.02 {
			t.Fatalf("screened sample %v outside [0.98, 1.02]", v)
		}
	}
}

func TestNotched_NoValuesInsideBand(t *testing.T) {
	spec := Spec{Kind: NormNotched, LowLimit: floatPtr(0.99), HighLimit: floatPtr(1.01)}
	sampler, err := New(spec, 1.0, 0.1)
	require.NoError(t, err)

	values, err := sampler.Sample(testRNG(7), 50000)
	require.NoError(t, err)
	require.Len(t, values, 50000)

	for _, v := range values {
		if v > 0.99 && v < 1.01 {
			t.Fatalf("notched sample %v inside (0.99, 1.01)", v)
		}
	}
}

func TestOneSided_BoundsRespected(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		keep func(float64) bool
	}{
		{
			name: "less-than keeps values at or below limit",
			spec: Spec{Kind: NormLT, Limit: floatPtr(0.99)},
			keep: func(v float64) bool { return v <= 0.99 },
		},
		{
			name: "greater-than keeps values at or above limit",
			spec: Spec{Kind: NormGT, Limit: floatPtr(0.95)},
			keep: func(v float64) bool { return v >= 0.95 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sampler, err := New(tt.spec, 0.97, 0.05)
			require.NoError(t, err)

			values, err := sampler.Sample(testRNG(3), 50000)
			require.NoError(t, err)
			require.Len(t, values, 50000)

			for _, v := range values {
				if !tt.keep(v) {
					t.Fatalf("sample %v violates one-sided bound", v)
				}
			}
		})
	}
}

func TestSkewNormal_ShapeZeroMatchesNormalMoments(t *testing.T) {
	sampler, err := New(Spec{Kind: SkewNorm, Skewness: 0}, 1.0, 0.05)
	require.NoError(t, err)

	values, err := sampler.Sample(testRNG(11), 200000)
	require.NoError(t, err)

	mean, std := moments(values)
	assert.InDelta(t, 1.0, mean, 0.001)
	assert.InDelta(t, 0.05/3, std, 0.0005)
}

func TestSkewNormal_PositiveShapeShiftsMeanRight(t *testing.T) {
	// For shape a, mean = loc + scale*delta*sqrt(2/pi) with
	// delta = a/sqrt(1+a^2).
	loc, scale, shape := 1.0, 0.01, 5.0
	delta := shape / math.Sqrt(1+shape*shape)
	wantMean := loc + scale*delta*math.Sqrt(2/math.Pi)

	sampler := SkewNormal{Loc: loc, Scale: scale, Shape: shape}
	values, err := sampler.Sample(testRNG(13), 200000)
	require.NoError(t, err)

	mean, _ := moments(values)
	assert.InDelta(t, wantMean, mean, 0.0005)
	assert.Greater(t, mean, loc)
}

func TestSkewNormal_NegativeShapeShiftsMeanLeft(t *testing.T) {
	sampler := SkewNormal{Loc: 1.0, Scale: 0.01, Shape: -5.0}
	values, err := sampler.Sample(testRNG(13), 100000)
	require.NoError(t, err)

	mean, _ := moments(values)
	assert.Less(t, mean, 1.0)
}

func TestRejection_InfeasibleBandFails(t *testing.T) {
	// Band is dozens of sigma away from the nominal; acceptance rate ~ 0.
	spec := Spec{Kind: NormScreened, LowLimit: floatPtr(2.0), HighLimit: floatPtr(2.1)}
	sampler, err := New(spec, 1.0, 0.05)
	require.NoError(t, err)

	_, err = sampler.Sample(testRNG(1), 1000)
	assert.ErrorIs(t, err, ErrInfeasible)
}

func TestNew_SpecErrors(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
	}{
		{"unknown kind", Spec{Kind: "triangular"}},
		{"screened without limits", Spec{Kind: NormScreened}},
		{"notched with inverted limits", Spec{Kind: NormNotched, LowLimit: floatPtr(1.0), HighLimit: floatPtr(0.9)}},
		{"less-than without limit", Spec{Kind: NormLT}},
		{"greater-than without limit", Spec{Kind: NormGT}},
		{"skew-norm with NaN skewness", Spec{Kind: SkewNorm, Skewness: math.NaN()}},
		{"skew-norm with infinite skewness", Spec{Kind: SkewNorm, Skewness: math.Inf(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.spec, 1.0, 0.05)
			assert.ErrorIs(t, err, ErrInvalidSpec)
		})
	}
}

func TestSample_SeededReproducibility(t *testing.T) {
	specs := []Spec{
		{Kind: Norm},
		{Kind: NormScreened, LowLimit: floatPtr(0.95), HighLimit: floatPtr(1.05)},
		{Kind: SkewNorm, Skewness: 3},
	}

	for _, spec := range specs {
		t.Run(string(spec.Kind), func(t *testing.T) {
			sampler, err := New(spec, 1.0, 0.05)
			require.NoError(t, err)

			first, err := sampler.Sample(testRNG(99), 1000)
			require.NoError(t, err)
			second, err := sampler.Sample(testRNG(99), 1000)
			require.NoError(t, err)

			assert.Equal(t, first, second, "same seed must yield a bit-identical sequence")
		})
	}
}

func TestKind_Valid(t *testing.T) {
	for _, k := range []Kind{Norm, NormScreened, NormNotched, NormLT, NormGT, SkewNorm} {
		assert.True(t, k.Valid(), "kind %q", k)
	}
	assert.False(t, Kind("weibull").Valid())
	assert.False(t, Kind("").Valid())
}

func TestKind_Normalize(t *testing.T) {
	assert.Equal(t, Norm, Kind("").Normalize())
	assert.Equal(t, Norm, Norm.Normalize())
	assert.Equal(t, SkewNorm, SkewNorm.Normalize())
}

func moments(values []float64) (mean, std float64) {
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	for _, v := range values {
		std += (v - mean) * (v - mean)
	}
	std = math.Sqrt(std / float64(len(values)-1))
	return mean, std
}
