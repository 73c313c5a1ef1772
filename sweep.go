package sketcheval

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/sketcheval/sketcheval/cluster"
)

// DefaultKMeansKs is the default cluster-count sweep for SweepKMeans.
var DefaultKMeansKs = []int{5, 10, 20, 30, 40, 50, 100}

// DefaultResolutions is the default resolution sweep for SweepLouvain.
// Higher resolutions yield more, finer clusters.
var DefaultResolutions = []float64{0.1, 0.5, 1, 1.5, 2, 5}

// SweepKMeans clusters X at every k in ks and evaluates how efficiently the
// resulting clusters recover referenceLabels. newClusterer builds the
// collaborator for each k (see cluster/kmeans for the default).
//
// The result maps each k to its per-cluster efficiency map. The sweep
// aborts on the first collaborator failure; no partial results are
// returned.
func SweepKMeans[A cmp.Ordered](ctx context.Context, X [][]float64, referenceLabels []A, ks []int, newClusterer func(k int) cluster.Clusterer, logger *Logger) (map[int]EfficiencyMap[int], error) {
	if logger == nil {
		logger = NoopLogger()
	}
	logger.Info("k-means clustering efficiency experiment")

	results := make(map[int]EfficiencyMap[int], len(ks))
	for _, k := range ks {
		kl := logger.WithK(k)
		kl.Info("clustering")

		labels, err := newClusterer(k).Assign(ctx, X)
		if err != nil {
			return nil, fmt.Errorf("k-means with k=%d: %w", k, err)
		}

		kl.Info("calculating cluster efficiencies")
		eff, err := ClusterEfficiency(labels, referenceLabels)
		if err != nil {
			return nil, fmt.Errorf("efficiency at k=%d: %w", k, err)
		}
		results[k] = eff
	}

	logEfficiencies(logger, "k", results)
	logger.Info("k-means clustering efficiency experiment done")
	return results, nil
}

// SweepLouvain runs community detection at every resolution and evaluates
// how efficiently the found communities recover referenceLabels. The
// detector is constructed once by the caller, so shared state (the neighbor
// graph) is built a single time and reused across resolutions (see
// cluster/louvain for the default).
//
// Same failure policy as SweepKMeans: abort on the first failure.
func SweepLouvain[A cmp.Ordered](ctx context.Context, referenceLabels []A, resolutions []float64, detector cluster.Detector, logger *Logger) (map[float64]EfficiencyMap[int], error) {
	if logger == nil {
		logger = NoopLogger()
	}
	logger.Info("louvain clustering efficiency experiment")

	results := make(map[float64]EfficiencyMap[int], len(resolutions))
	for _, resolution := range resolutions {
		rl := logger.WithResolution(resolution)
		rl.Info("detecting communities")

		labels, err := detector.Detect(ctx, resolution)
		if err != nil {
			return nil, fmt.Errorf("louvain at resolution=%v: %w", resolution, err)
		}
		rl.Info("found clusters", "clusters", len(distinctSorted(labels)))

		rl.Info("calculating cluster efficiencies")
		eff, err := ClusterEfficiency(labels, referenceLabels)
		if err != nil {
			return nil, fmt.Errorf("efficiency at resolution=%v: %w", resolution, err)
		}
		results[resolution] = eff
	}

	logEfficiencies(logger, "resolution", results)
	logger.Info("louvain clustering efficiency experiment done")
	return results, nil
}

// logEfficiencies reports every (parameter, cluster, efficiency) triple in
// sorted order.
func logEfficiencies[P cmp.Ordered](logger *Logger, param string, results map[P]EfficiencyMap[int]) {
	for _, p := range slices.Sorted(maps.Keys(results)) {
		for _, c := range slices.Sorted(maps.Keys(results[p])) {
			logger.Info("cluster efficiency",
				param, p,
				"cluster", c,
				"efficiency", results[p][c],
			)
		}
	}
}
