// Package kmeans implements the cluster.Clusterer capability with the
// muesli/kmeans library.
package kmeans

import (
	"context"

	"github.com/muesli/clusters"
	mkmeans "github.com/muesli/kmeans"
)

type options struct {
	deltaThreshold float64
}

// Option configures a Clusterer.
type Option func(*options)

// WithDeltaThreshold sets the fraction of points that may still change
// cluster before the algorithm is considered converged.
func WithDeltaThreshold(t float64) Option {
	return func(o *options) {
		if t > 0 {
			o.deltaThreshold = t
		}
	}
}

// Clusterer partitions rows into exactly k clusters.
type Clusterer struct {
	k    int
	opts options
}

// New creates a k-means Clusterer requesting exactly k clusters.
func New(k int, opts ...Option) *Clusterer {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return &Clusterer{k: k, opts: o}
}

// Assign clusters the rows of X and returns one label per row, in row
// order. X is not mutated. Fails if the algorithm cannot produce k
// clusters (e.g. fewer rows than k).
func (c *Clusterer) Assign(ctx context.Context, X [][]float64) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	obs := make(clusters.Observations, len(X))
	for i, row := range X {
		obs[i] = clusters.Coordinates(row)
	}

	km, err := c.newKmeans()
	if err != nil {
		return nil, err
	}
	partition, err := km.Partition(obs, c.k)
	if err != nil {
		return nil, err
	}

	labels := make([]int, len(X))
	for i, o := range obs {
		labels[i] = partition.Nearest(o)
	}
	return labels, nil
}

func (c *Clusterer) newKmeans() (mkmeans.Kmeans, error) {
	if c.opts.deltaThreshold > 0 {
		return mkmeans.NewWithOptions(c.opts.deltaThreshold, nil)
	}
	return mkmeans.New(), nil
}
