// Package sample defines the downsampling capability injected into the
// experiment drivers, plus helpers for auditing sampler output.
package sample

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/RoaringBitmap/roaring/v2"
)

// Sampler selects up to n row indices from X.
//
// The returned slice may contain duplicates or fewer than n distinct
// indices; callers are expected to audit the result with DistinctCount.
// A structure-preserving sampler keeps the geometric diversity of X in the
// selected subset, but any index selection satisfies the contract.
type Sampler interface {
	Sample(ctx context.Context, X [][]float64, n int) ([]int, error)
}

// SamplerFunc adapts a function to the Sampler interface.
type SamplerFunc func(ctx context.Context, X [][]float64, n int) ([]int, error)

// Sample calls f.
func (f SamplerFunc) Sample(ctx context.Context, X [][]float64, n int) ([]int, error) {
	return f(ctx, X, n)
}

// Uniform draws uniform random subsets without replacement from an
// explicitly seeded source, so runs are reproducible.
type Uniform struct {
	rng *rand.Rand
}

// NewUniform creates a uniform sampler seeded with seed.
func NewUniform(seed int64) *Uniform {
	return &Uniform{rng: rand.New(rand.NewSource(seed))} //nolint:gosec
}

// Sample returns n distinct row indices drawn uniformly from X.
func (u *Uniform) Sample(_ context.Context, X [][]float64, n int) ([]int, error) {
	if n < 0 || n > len(X) {
		return nil, fmt.Errorf("uniform sample size %d out of range [0, %d]", n, len(X))
	}
	return u.rng.Perm(len(X))[:n], nil
}

// DistinctCount returns the number of distinct indices in idx.
// Negative indices are rejected.
func DistinctCount(idx []int) (int, error) {
	bm := roaring.New()
	for _, i := range idx {
		if i < 0 {
			return 0, fmt.Errorf("negative sample index %d", i)
		}
		bm.Add(uint32(i))
	}
	return int(bm.GetCardinality()), nil
}
