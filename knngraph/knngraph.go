// Package knngraph builds k-nearest-neighbor graphs over point matrices.
//
// Neighbors are exact, not approximate: the graph feeds clustering
// evaluation and must be identical run to run. Distance scans are
// parallelized across rows; the caller-facing call stays blocking.
package knngraph

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/graph/simple"
)

type options struct {
	workers int
}

// Option configures graph construction.
type Option func(*options)

// WithWorkers sets the number of concurrent distance-scan workers.
// Defaults to GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// Build constructs the undirected k-nearest-neighbor graph of X. Node IDs
// are the row indices of X; every row is connected to its k nearest rows by
// squared Euclidean distance, self excluded, with unit edge weight.
func Build(ctx context.Context, X [][]float64, k int, opts ...Option) (*simple.WeightedUndirectedGraph, error) {
	o := options{workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&o)
	}

	n := len(X)
	if k < 1 {
		return nil, fmt.Errorf("knngraph: k must be positive, got %d", k)
	}
	if k >= n {
		return nil, fmt.Errorf("knngraph: k=%d requires more than k rows, got %d", k, n)
	}
	dim := len(X[0])
	for i, row := range X {
		if len(row) != dim {
			return nil, fmt.Errorf("knngraph: row %d has %d columns, want %d", i, len(row), dim)
		}
	}

	neighbors := make([][]int, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	chunk := (n + o.workers - 1) / o.workers
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				neighbors[i] = nearest(X, i, k)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	wg := simple.NewWeightedUndirectedGraph(0, 0)
	for i := 0; i < n; i++ {
		wg.AddNode(simple.Node(i))
	}
	for i, nbrs := range neighbors {
		for _, j := range nbrs {
			wg.SetWeightedEdge(wg.NewWeightedEdge(simple.Node(i), simple.Node(j), 1))
		}
	}
	return wg, nil
}

// nearest returns the k rows closest to row i, self excluded.
func nearest(X [][]float64, i, k int) []int {
	type cand struct {
		idx  int
		dist float64
	}
	cands := make([]cand, 0, len(X)-1)
	for j, row := range X {
		if j == i {
			continue
		}
		cands = append(cands, cand{idx: j, dist: squaredL2(X[i], row)})
	}
	sort.Slice(cands, func(a, b int) bool {
		if cands[a].dist != cands[b].dist {
			return cands[a].dist < cands[b].dist
		}
		return cands[a].idx < cands[b].idx
	})
	out := make([]int, k)
	for x := 0; x < k; x++ {
		out[x] = cands[x].idx
	}
	return out
}

func squaredL2(a, b []float64) float64 {
	var sum float64
	for d := range a {
		diff := a[d] - b[d]
		sum += diff * diff
	}
	return sum
}
