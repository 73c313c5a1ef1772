// Package louvain implements the cluster.Detector capability with Louvain
// community detection from gonum over an exact k-nearest-neighbor graph.
//
// The neighbor graph is built once at construction and reused across
// resolutions, since the underlying points do not change between calls.
package louvain

import (
	"context"
	"math/rand/v2"

	"gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/sketcheval/sketcheval/knngraph"
)

const defaultNeighbors = 15

type options struct {
	neighbors int
	seed      *uint64
	workers   int
}

// Option configures a Detector.
type Option func(*options)

// WithNeighbors sets the number of nearest neighbors per point in the
// graph. Default: 15.
func WithNeighbors(k int) Option {
	return func(o *options) {
		if k > 0 {
			o.neighbors = k
		}
	}
}

// WithSeed makes community detection deterministic.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = &seed
	}
}

// WithWorkers sets the number of concurrent workers for graph construction.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// Detector finds communities of a fixed point matrix at varying
// resolutions.
type Detector struct {
	graph *simple.WeightedUndirectedGraph
	n     int
	src   rand.Source
}

// New builds a Detector over X, constructing the neighbor graph once.
func New(ctx context.Context, X [][]float64, opts ...Option) (*Detector, error) {
	o := options{neighbors: defaultNeighbors}
	for _, opt := range opts {
		opt(&o)
	}

	var graphOpts []knngraph.Option
	if o.workers > 0 {
		graphOpts = append(graphOpts, knngraph.WithWorkers(o.workers))
	}
	g, err := knngraph.Build(ctx, X, o.neighbors, graphOpts...)
	if err != nil {
		return nil, err
	}

	d := &Detector{graph: g, n: len(X)}
	if o.seed != nil {
		d.src = rand.NewPCG(*o.seed, 0)
	}
	return d, nil
}

// Detect runs Louvain modularity maximization at the given resolution and
// returns one community label per row of the original matrix. Higher
// resolutions yield more, finer communities.
func (d *Detector) Detect(ctx context.Context, resolution float64) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reduced := community.Modularize(d.graph, resolution, d.src)

	labels := make([]int, d.n)
	for ci, comm := range reduced.Structure() {
		for _, node := range comm {
			labels[int(node.ID())] = ci
		}
	}
	return labels, nil
}
