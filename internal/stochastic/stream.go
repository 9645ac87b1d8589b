package stochastic

import (
	"hash/fnv"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Stream is a seeded source of random draws. Every generator receives its own
// Stream so tables can be regenerated in isolation.
type Stream struct {
	rng *rand.Rand
}

// New returns a stream seeded with seed.
func New(seed uint64) *Stream {
	return &Stream{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Derive returns a stream for label that is stable for a given seed.
func Derive(seed uint64, label string) *Stream {
	h := fnv.New64a()
	_, _ = h.Write([]byte(label))
	return &Stream{rng: rand.New(rand.NewPCG(seed, h.Sum64()))}
}

// Float64 returns a draw in [0, 1).
func (s *Stream) Float64() float64 {
	return s.rng.Float64()
}

// Uniform returns a draw in [lo, hi).
func (s *Stream) Uniform(lo, hi float64) float64 {
	return distuv.Uniform{Min: lo, Max: hi, Src: s.rng}.Rand()
}

// IntRange returns an integer in [lo, hi).
func (s *Stream) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.rng.IntN(hi-lo)
}

// Normal draws from N(mu, sigma).
func (s *Stream) Normal(mu, sigma float64) float64 {
	return distuv.Normal{Mu: mu, Sigma: sigma, Src: s.rng}.Rand()
}

// LogNormal draws exp(N(mu, sigma)).
func (s *Stream) LogNormal(mu, sigma float64) float64 {
	return distuv.LogNormal{Mu: mu, Sigma: sigma, Src: s.rng}.Rand()
}

// LogNormalAround draws a lognormal whose median is median.
func (s *Stream) LogNormalAround(median, sigma float64) float64 {
	return s.LogNormal(math.Log(median), sigma)
}

// Poisson draws a count with mean lambda.
func (s *Stream) Poisson(lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	return int(distuv.Poisson{Lambda: lambda, Src: s.rng}.Rand())
}

// Bernoulli reports true with probability p.
func (s *Stream) Bernoulli(p float64) bool {
	return s.rng.Float64() < p
}

// Pick returns one element of values uniformly.
func (s *Stream) Pick(values []int) int {
	return values[s.rng.IntN(len(values))]
}

// Categorical samples indexes proportionally to weights.
type Categorical struct {
	dist distuv.Categorical
}

// Categorical builds a sampler over weights backed by this stream.
func (s *Stream) Categorical(weights []float64) Categorical {
	return Categorical{dist: distuv.NewCategorical(weights, s.rng)}
}

// Draw returns the sampled index.
func (c Categorical) Draw() int {
	return int(c.dist.Rand())
}

// Clip bounds v to [lo, hi].
func Clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
