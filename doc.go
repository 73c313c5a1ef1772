// Package sketcheval measures how well a clustering or downsampling
// procedure preserves a reference partition of a point set.
//
// The core is ClusterEfficiency, a size-weighted purity statistic over two
// parallel label vectors. On top of it sit three experiment drivers:
//
//   - SweepKMeans evaluates efficiency across a list of k-means cluster
//     counts.
//   - SweepLouvain evaluates efficiency across a list of Louvain
//     resolutions over a shared neighbor graph.
//   - Experiment runs the full downsample-and-visualize pipeline: acquire
//     labels, visualize the original data, then repeatedly downsample while
//     preserving structure, visualizing and auditing each reduced set.
//
// Clustering, sampling and visualization are injected capabilities (see the
// cluster, sample and viz packages), so every driver can be exercised
// against deterministic stubs. Default implementations back the interfaces
// with external libraries: gonum community detection for Louvain, a k-means
// library for assignment, and a PCA/scatter-plot visualizer.
//
// # Quick start
//
//	eff, err := sketcheval.ClusterEfficiency(kmLabels, refLabels)
//
//	exp := sketcheval.New(
//	    sketcheval.WithClustererFactory(func(k int) cluster.Clusterer { return kmeans.New(k) }),
//	    sketcheval.WithSampler(srs),
//	    sketcheval.WithVisualizer(pv),
//	    sketcheval.WithStore(artifact.NewLocalStore("data")),
//	)
//	err = exp.Run(ctx, X, "pbmc")
//
// Drivers are single-threaded and blocking; collaborators may parallelize
// internally. Input matrices and label vectors are never mutated.
package sketcheval
