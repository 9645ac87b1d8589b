package stochastic

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveIsDeterministic(t *testing.T) {
	a := Derive(42, "internal_orders_executions")
	b := Derive(42, "internal_orders_executions")
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Normal(0, 1), b.Normal(0, 1))
	}
}

func TestDeriveSeparatesLabels(t *testing.T) {
	a := Derive(42, "factset_factor_vectors")
	b := Derive(42, "risk_limit_breaches")
	same := 0
	for i := 0; i < 50; i++ {
		if a.Float64() == b.Float64() {
			same++
		}
	}
	assert.Less(t, same, 50)
}

func TestDrawsRespectRanges(t *testing.T) {
	s := New(7)
	for i := 0; i < 1000; i++ {
		u := s.Uniform(1.25, 1.60)
		assert.GreaterOrEqual(t, u, 1.25)
		assert.Less(t, u, 1.60)

		n := s.IntRange(100, 800)
		assert.GreaterOrEqual(t, n, 100)
		assert.Less(t, n, 800)

		assert.Greater(t, s.LogNormalAround(25000, 0.6), 0.0)
		assert.GreaterOrEqual(t, s.Poisson(0.3), 0)
		assert.Contains(t, []int{3, 4, 5}, s.Pick([]int{3, 4, 5}))
	}
	assert.Equal(t, 0, s.Poisson(0))
	assert.Equal(t, 5, s.IntRange(5, 5))
}

func TestCategoricalFollowsWeights(t *testing.T) {
	s := New(11)
	c := s.Categorical([]float64{0.1, 0.0, 0.9})
	counts := make([]int, 3)
	for i := 0; i < 5000; i++ {
		counts[c.Draw()]++
	}
	assert.Zero(t, counts[1])
	assert.Greater(t, counts[2], counts[0]*4)
}

func TestClip(t *testing.T) {
	assert.Equal(t, 0.02, Clip(-1, 0.02, 0.98))
	assert.Equal(t, 0.98, Clip(1.7, 0.02, 0.98))
	assert.Equal(t, 0.5, Clip(0.5, 0.02, 0.98))
}

func TestMedianAndMean(t *testing.T) {
	assert.Equal(t, 2.0, Median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 3, 2}))
	assert.True(t, math.IsNaN(Median(nil)))
	assert.InDelta(t, 2.5, Mean([]float64{1, 2, 3, 4}), 1e-12)

	xs := []float64{5, 4, 3}
	Median(xs)
	assert.Equal(t, []float64{5, 4, 3}, xs)
}

func TestLinspace(t *testing.T) {
	assert.Equal(t, []float64{-0.02}, Linspace(-0.02, 0.03, 1))
	got := Linspace(0, 1, 5)
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, got)
	assert.Empty(t, Linspace(0, 1, 0))
}
