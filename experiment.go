package sketcheval

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sketcheval/sketcheval/artifact"
	"github.com/sketcheval/sketcheval/cluster"
	"github.com/sketcheval/sketcheval/label"
	"github.com/sketcheval/sketcheval/sample"
	"github.com/sketcheval/sketcheval/viz"
)

// DefaultSampleSizes is the default downsampling target sequence.
var DefaultSampleSizes = []int{1000, 5000, 10000, 20000, 50000}

const (
	// DefaultDownsampleCap is the point count above which the original-data
	// visualization is subsampled.
	DefaultDownsampleCap = 100000
	// DefaultKMeansK is the cluster count used when labels are acquired by
	// clustering.
	DefaultKMeansK = 10
	// DefaultPerplexity is the embedding perplexity hint for the
	// original-data visualization.
	DefaultPerplexity = 500

	defaultIterations  = 500
	defaultImageSuffix = ".png"
)

// Experiment drives the structure-preserving downsample-and-visualize
// pipeline: acquire per-point labels, visualize the original data, then
// repeatedly downsample to smaller sizes, visualizing and auditing cluster
// representation at each size.
//
// The clustering, sampling and visualization collaborators are injected;
// artifacts (label files, embeddings, images) go through the artifact
// store. With a LocalStore root of "data", artifacts land at
// data/cell_labels/<name>.txt and data/embedding_<name>.txt.
type Experiment struct {
	newClusterer func(k int) cluster.Clusterer
	sampler      sample.Sampler
	visualizer   viz.Visualizer
	store        artifact.Store
	logger       *Logger
	seed         int64
}

// Option configures an Experiment.
type Option func(*Experiment)

// WithClustererFactory sets the clusterer used for label acquisition,
// parameterized by cluster count.
func WithClustererFactory(f func(k int) cluster.Clusterer) Option {
	return func(e *Experiment) {
		e.newClusterer = f
	}
}

// WithSampler sets the structure-preserving sampler.
func WithSampler(s sample.Sampler) Option {
	return func(e *Experiment) {
		e.sampler = s
	}
}

// WithVisualizer sets the visualization sink.
func WithVisualizer(v viz.Visualizer) Option {
	return func(e *Experiment) {
		e.visualizer = v
	}
}

// WithStore sets the artifact store for labels and embeddings.
func WithStore(s artifact.Store) Option {
	return func(e *Experiment) {
		e.store = s
	}
}

// WithLogger sets the logger. Defaults to a text logger on stderr.
func WithLogger(l *Logger) Option {
	return func(e *Experiment) {
		e.logger = l
	}
}

// WithRandSeed seeds the uniform subsampling of the original-data
// visualization, making runs reproducible. Defaults to a time-based seed.
func WithRandSeed(seed int64) Option {
	return func(e *Experiment) {
		e.seed = seed
	}
}

// New creates an Experiment. Sampler, visualizer and store are required at
// run time; the clusterer factory only when labels must be computed.
func New(opts ...Option) *Experiment {
	e := &Experiment{
		logger: NewLogger(nil),
		seed:   time.Now().UnixNano(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type runOptions struct {
	labels        []int
	recompute     bool
	kmeansK       int
	visualizeOrig bool
	downsample    bool
	downsampleCap int
	perplexity    float64
	sizes         []int
	imageSuffix   string
	overlayNames  []string
	overlayExpr   [][]float64
	overlayGenes  []string
}

// RunOption configures a single pipeline invocation.
type RunOption func(*runOptions)

// WithLabels supplies reference labels directly, skipping acquisition from
// clustering or disk. Category names are derived from the sorted distinct
// label values.
func WithLabels(labels []int) RunOption {
	return func(o *runOptions) {
		o.labels = labels
	}
}

// WithRecomputeLabels controls whether the label file is recomputed by
// clustering even if it already exists. Default: true.
func WithRecomputeLabels(recompute bool) RunOption {
	return func(o *runOptions) {
		o.recompute = recompute
	}
}

// WithKMeansK sets the cluster count for label acquisition. Default: 10.
func WithKMeansK(k int) RunOption {
	return func(o *runOptions) {
		o.kmeansK = k
	}
}

// WithVisualizeOriginal controls the original-data visualization step.
// Default: true.
func WithVisualizeOriginal(enabled bool) RunOption {
	return func(o *runOptions) {
		o.visualizeOrig = enabled
	}
}

// WithDownsampleCap caps the point count of the original-data
// visualization; larger inputs are uniformly subsampled to the cap for
// display only. Default: 100000. A cap of 0 disables the subsampling.
func WithDownsampleCap(n int) RunOption {
	return func(o *runOptions) {
		o.downsampleCap = n
		o.downsample = n > 0
	}
}

// WithPerplexity sets the embedding perplexity hint for the original-data
// visualization. Default: 500.
func WithPerplexity(p float64) RunOption {
	return func(o *runOptions) {
		o.perplexity = p
	}
}

// WithSampleSizes sets the downsampling target sequence. Sizes not smaller
// than the input are skipped. Default: {1000, 5000, 10000, 20000, 50000}.
func WithSampleSizes(sizes []int) RunOption {
	return func(o *runOptions) {
		o.sizes = sizes
	}
}

// WithImageSuffix sets the image artifact extension. Default: ".png".
func WithImageSuffix(suffix string) RunOption {
	return func(o *runOptions) {
		o.imageSuffix = suffix
	}
}

// WithGeneOverlay attaches a gene-expression matrix (row-aligned with X,
// columns named by geneNames) and the genes to render at every
// visualization step.
func WithGeneOverlay(geneNames []string, expr [][]float64, genes []string) RunOption {
	return func(o *runOptions) {
		o.overlayNames = geneNames
		o.overlayExpr = expr
		o.overlayGenes = genes
	}
}

// Run executes the pipeline on X under the given experiment name. X is
// never mutated. Any collaborator or I/O failure aborts the invocation; no
// partial-result recovery is attempted.
func (e *Experiment) Run(ctx context.Context, X [][]float64, name string, opts ...RunOption) error {
	cfg := runOptions{
		recompute:     true,
		kmeansK:       DefaultKMeansK,
		visualizeOrig: true,
		downsample:    true,
		downsampleCap: DefaultDownsampleCap,
		perplexity:    DefaultPerplexity,
		sizes:         DefaultSampleSizes,
		imageSuffix:   defaultImageSuffix,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if e.sampler == nil {
		return fmt.Errorf("%w: sampler", ErrMissingCollaborator)
	}
	if e.visualizer == nil {
		return fmt.Errorf("%w: visualizer", ErrMissingCollaborator)
	}
	if e.store == nil {
		return fmt.Errorf("%w: artifact store", ErrMissingCollaborator)
	}

	log := e.logger.WithName(name)

	cellLabels, cellTypes, err := e.acquireLabels(ctx, X, name, &cfg, log)
	if err != nil {
		return err
	}
	if len(cellLabels) != len(X) {
		return &ErrLengthMismatch{ClusterLen: len(cellLabels), ReferenceLen: len(X)}
	}

	if cfg.visualizeOrig {
		if err := e.visualizeOriginal(ctx, X, name, cellLabels, cellTypes, &cfg, log); err != nil {
			return err
		}
	}

	return e.downsampleAndVisualize(ctx, X, name, cellLabels, cellTypes, &cfg, log)
}

// acquireLabels implements step one of the pipeline: compute labels by
// clustering and persist them, or load the persisted file and encode it, or
// take caller-supplied labels as they are.
func (e *Experiment) acquireLabels(ctx context.Context, X [][]float64, name string, cfg *runOptions, log *Logger) ([]int, []string, error) {
	labelsName := "cell_labels/" + name + ".txt"

	exists, err := e.store.Exists(ctx, labelsName)
	if err != nil {
		return nil, nil, fmt.Errorf("checking label file: %w", err)
	}

	if cfg.recompute || !exists {
		if e.newClusterer == nil {
			return nil, nil, fmt.Errorf("%w: clusterer factory", ErrMissingCollaborator)
		}
		log.Info("k-means", "k", cfg.kmeansK)

		assigned, err := e.newClusterer(cfg.kmeansK).Assign(ctx, X)
		if err != nil {
			return nil, nil, fmt.Errorf("clustering for labels: %w", err)
		}

		var buf bytes.Buffer
		if err := label.WriteInts(&buf, assigned); err != nil {
			return nil, nil, err
		}
		if err := e.store.Put(ctx, labelsName, buf.Bytes()); err != nil {
			return nil, nil, fmt.Errorf("persisting labels: %w", err)
		}
	}

	if cfg.labels != nil {
		types := make([]string, 0)
		for _, l := range distinctSorted(cfg.labels) {
			types = append(types, strconv.Itoa(l))
		}
		return cfg.labels, types, nil
	}

	rc, err := e.store.Open(ctx, labelsName)
	if err != nil {
		return nil, nil, fmt.Errorf("loading labels: %w", err)
	}
	defer rc.Close()

	tokens, err := label.ReadTokens(rc)
	if err != nil {
		return nil, nil, fmt.Errorf("reading labels: %w", err)
	}
	enc := label.Fit(tokens)
	codes, err := enc.Transform(tokens)
	if err != nil {
		return nil, nil, err
	}
	return codes, enc.Classes(), nil
}

// visualizeOriginal implements step two: show the full data, uniformly
// subsampled to the cap if too large, and persist the returned embedding.
func (e *Experiment) visualizeOriginal(ctx context.Context, X [][]float64, name string, cellLabels []int, cellTypes []string, cfg *runOptions, log *Logger) error {
	log.Info("visualizing original")

	idx := identity(len(X))
	if cfg.downsample && len(X) > cfg.downsampleCap {
		log.Info("visualization will downsample", "cap", cfg.downsampleCap)
		var err error
		idx, err = sample.NewUniform(e.seed).Sample(ctx, X, cfg.downsampleCap)
		if err != nil {
			return fmt.Errorf("uniform visualization subsample: %w", err)
		}
	}

	sub, err := gatherRows(X, idx)
	if err != nil {
		return err
	}
	req := &viz.Request{
		Matrices:      [][][]float64{sub},
		Labels:        gatherInts(cellLabels, idx),
		Name:          fmt.Sprintf("%s_orig%d", name, len(idx)),
		CategoryNames: cellTypes,
		Overlay:       e.overlayFor(cfg, idx),
		Perplexity:    cfg.perplexity,
		Iterations:    defaultIterations,
		ImageSuffix:   cfg.imageSuffix,
	}
	embedding, err := e.visualizer.Visualize(ctx, req)
	if err != nil {
		return fmt.Errorf("visualizing original: %w", err)
	}

	var buf bytes.Buffer
	if err := label.WriteMatrix(&buf, embedding); err != nil {
		return err
	}
	if err := e.store.Put(ctx, "embedding_"+name+".txt", buf.Bytes()); err != nil {
		return fmt.Errorf("persisting embedding: %w", err)
	}
	return nil
}

// downsampleAndVisualize implements step three: for each target size below
// the input size, sample a structure-preserving subset, visualize it with
// density-scaled display parameters, and audit cluster representation.
func (e *Experiment) downsampleAndVisualize(ctx context.Context, X [][]float64, name string, cellLabels []int, cellTypes []string, cfg *runOptions, log *Logger) error {
	for _, n := range cfg.sizes {
		if n >= len(X) {
			continue
		}
		sl := log.WithSampleSize(n)
		sl.Info("structure-preserving sampling")

		idx, err := e.sampler.Sample(ctx, X, n)
		if err != nil {
			return fmt.Errorf("sampling %d points: %w", n, err)
		}
		// Duplicates are tolerated, but worth knowing about.
		distinct, err := sample.DistinctCount(idx)
		if err != nil {
			return fmt.Errorf("auditing sample of %d: %w", n, err)
		}
		sl.Info("found entries", "returned", len(idx), "distinct", distinct)

		sub, err := gatherRows(X, idx)
		if err != nil {
			return err
		}

		sl.Info("visualizing sampled")
		req := &viz.Request{
			Matrices:      [][][]float64{sub},
			Labels:        gatherInts(cellLabels, idx),
			Name:          fmt.Sprintf("%s_srs%d", name, n),
			CategoryNames: cellTypes,
			Overlay:       e.overlayFor(cfg, idx),
			Perplexity:    max(float64(n)/200, 50),
			Iterations:    defaultIterations,
			Size:          max(30000/float64(n), 1),
			ImageSuffix:   cfg.imageSuffix,
		}
		if _, err := e.visualizer.Visualize(ctx, req); err != nil {
			return fmt.Errorf("visualizing sample of %d: %w", n, err)
		}

		ReportClusterCounts(sl, gatherInts(cellLabels, idx))
	}
	return nil
}

// overlayFor subsets the configured gene-expression matrix to the
// visualized rows. Returns nil unless names, expression and genes were all
// supplied.
func (e *Experiment) overlayFor(cfg *runOptions, idx []int) *viz.Overlay {
	if cfg.overlayNames == nil || cfg.overlayExpr == nil || cfg.overlayGenes == nil {
		return nil
	}
	expr := make([][]float64, len(idx))
	for i, row := range idx {
		expr[i] = cfg.overlayExpr[row]
	}
	return &viz.Overlay{
		GeneNames: cfg.overlayNames,
		Expr:      expr,
		Genes:     cfg.overlayGenes,
	}
}

func identity(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// gatherRows selects rows of X by index without copying row contents.
func gatherRows(X [][]float64, idx []int) ([][]float64, error) {
	out := make([][]float64, len(idx))
	for i, row := range idx {
		if row < 0 || row >= len(X) {
			return nil, fmt.Errorf("sampled index %d out of range [0, %d)", row, len(X))
		}
		out[i] = X[row]
	}
	return out, nil
}

func gatherInts(v []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = v[j]
	}
	return out
}
