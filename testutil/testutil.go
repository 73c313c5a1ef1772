// Package testutil provides testing utilities for sketcheval.
//
// This package is intended for use in tests only. It provides a seeded RNG,
// synthetic clustered datasets, and deterministic stub implementations of
// the injected collaborators.
package testutil

import (
	"context"
	"math/rand"
	"sync"

	"github.com/sketcheval/sketcheval/viz"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), //nolint:gosec
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// FillUniform fills v with uniform values in [0, 1).
func (r *RNG) FillUniform(v []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range v {
		v[i] = r.rand.Float64()
	}
}

// FillGaussian fills v with standard normal values.
func (r *RNG) FillGaussian(v []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range v {
		v[i] = r.rand.NormFloat64()
	}
}

// GaussianBlobs generates perCluster points around each center with the
// given standard deviation, returning the point matrix and the reference
// label of every point.
func (r *RNG) GaussianBlobs(centers [][]float64, perCluster int, stddev float64) ([][]float64, []int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var X [][]float64
	var labels []int
	for c, center := range centers {
		for i := 0; i < perCluster; i++ {
			row := make([]float64, len(center))
			for d := range row {
				row[d] = center[d] + r.rand.NormFloat64()*stddev
			}
			X = append(X, row)
			labels = append(labels, c)
		}
	}
	return X, labels
}

// StubClusterer returns fixed labels from Assign, regardless of input.
type StubClusterer struct {
	Labels []int
	Err    error
	Calls  int
}

// Assign returns the configured labels or error.
func (s *StubClusterer) Assign(_ context.Context, _ [][]float64) ([]int, error) {
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Labels, nil
}

// StubDetector returns fixed labels per resolution.
type StubDetector struct {
	Labels map[float64][]int
	Err    error
}

// Detect returns the labels configured for the resolution.
func (s *StubDetector) Detect(_ context.Context, resolution float64) ([]int, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Labels[resolution], nil
}

// StubSampler returns the first n row indices, or a fixed index slice when
// Indices is set.
type StubSampler struct {
	Indices []int
	Err     error
	Calls   []int
}

// Sample records the requested size and returns the configured or prefix
// indices.
func (s *StubSampler) Sample(_ context.Context, X [][]float64, n int) ([]int, error) {
	s.Calls = append(s.Calls, n)
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Indices != nil {
		return s.Indices, nil
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx, nil
}

// RecordingVisualizer records every request and returns a zero embedding of
// matching size.
type RecordingVisualizer struct {
	Requests []*viz.Request
	Err      error
}

// Visualize records the request.
func (r *RecordingVisualizer) Visualize(_ context.Context, req *viz.Request) ([][]float64, error) {
	r.Requests = append(r.Requests, req)
	if r.Err != nil {
		return nil, r.Err
	}
	var n int
	for _, m := range req.Matrices {
		n += len(m)
	}
	embedding := make([][]float64, n)
	for i := range embedding {
		embedding[i] = make([]float64, 2)
	}
	return embedding, nil
}
