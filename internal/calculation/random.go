package calculation

import "math/rand"

// RandomSource yields uniform values in [0,1).
// *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

// RandomFunc adapts a plain function to a RandomSource.
type RandomFunc func() float64

func (f RandomFunc) Float64() float64 { return f() }

// SourceFactory returns the random source for one Monte Carlo run.
// Factories are called from worker goroutines and must be safe for
// concurrent use; the sources they return are used by a single run only.
type SourceFactory func(run int) RandomSource

// NewRandomSource returns a seeded source for a single run.
func NewRandomSource(seed int64) RandomSource {
	return rand.New(rand.NewSource(seed))
}

// SeededSourceFactory gives every run its own generator, seeded from seed and
// the run index, so results do not depend on scheduling.
func SeededSourceFactory(seed int64) SourceFactory {
	return func(run int) RandomSource {
		return rand.New(rand.NewSource(deriveSeed(seed, run)))
	}
}

// deriveSeed spreads (seed, run) with a splitmix64 finalizer so neighbouring
// runs do not start from neighbouring generator states.
func deriveSeed(seed int64, run int) int64 {
	z := uint64(seed) + uint64(run+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return int64(z ^ (z >> 31))
}
