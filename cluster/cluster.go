// Package cluster defines the clustering capabilities injected into the
// experiment drivers.
//
// Implementations live in subpackages (kmeans, louvain); tests use the
// deterministic stubs in testutil.
package cluster

import "context"

// Clusterer assigns every row of X to a cluster.
//
// Implementations must return exactly one label per row, aligned by
// position, and must not mutate X.
type Clusterer interface {
	Assign(ctx context.Context, X [][]float64) ([]int, error)
}

// Detector finds communities over a fixed dataset at a given resolution.
// Higher resolutions yield more, finer clusters.
//
// A Detector is constructed once per dataset so that expensive shared state
// (typically a neighbor graph) is built a single time and reused across
// resolutions.
type Detector interface {
	Detect(ctx context.Context, resolution float64) ([]int, error)
}

// ClustererFunc adapts a function to the Clusterer interface.
type ClustererFunc func(ctx context.Context, X [][]float64) ([]int, error)

// Assign calls f.
func (f ClustererFunc) Assign(ctx context.Context, X [][]float64) ([]int, error) {
	return f(ctx, X)
}
