package sketcheval

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sketcheval/sketcheval/artifact"
	"github.com/sketcheval/sketcheval/cluster"
	"github.com/sketcheval/sketcheval/testutil"
)

func testMatrix(n int) [][]float64 {
	X := make([][]float64, n)
	for i := range X {
		X[i] = []float64{float64(i), float64(i)}
	}
	return X
}

func blockLabels(n int) []int {
	labels := make([]int, n)
	for i := range labels {
		labels[i] = i % 2
	}
	return labels
}

func newTestExperiment(store artifact.Store, sampler *testutil.StubSampler, vis *testutil.RecordingVisualizer, labels []int) *Experiment {
	return New(
		WithClustererFactory(func(int) cluster.Clusterer {
			return &testutil.StubClusterer{Labels: labels}
		}),
		WithSampler(sampler),
		WithVisualizer(vis),
		WithStore(store),
		WithLogger(NoopLogger()),
		WithRandSeed(42),
	)
}

func TestExperimentRun(t *testing.T) {
	ctx := context.Background()

	t.Run("SkipsSizesNotBelowPointCount", func(t *testing.T) {
		X := testMatrix(10)
		sampler := &testutil.StubSampler{}
		vis := &testutil.RecordingVisualizer{}
		exp := newTestExperiment(artifact.NewMemoryStore(), sampler, vis, blockLabels(10))

		err := exp.Run(ctx, X, "toy",
			WithLabels(blockLabels(10)),
			WithSampleSizes([]int{5, 10, 20}),
		)
		require.NoError(t, err)

		// Only n=5 is strictly below the point count.
		assert.Equal(t, []int{5}, sampler.Calls)
		// One original visualization plus one sampled visualization.
		require.Len(t, vis.Requests, 2)
		assert.Equal(t, "toy_orig10", vis.Requests[0].Name)
		assert.Equal(t, "toy_srs5", vis.Requests[1].Name)
	})

	t.Run("ScaledDisplayParameters", func(t *testing.T) {
		X := testMatrix(100)
		sampler := &testutil.StubSampler{}
		vis := &testutil.RecordingVisualizer{}
		exp := newTestExperiment(artifact.NewMemoryStore(), sampler, vis, blockLabels(100))

		err := exp.Run(ctx, X, "toy",
			WithLabels(blockLabels(100)),
			WithVisualizeOriginal(false),
			WithSampleSizes([]int{50}),
		)
		require.NoError(t, err)

		require.Len(t, vis.Requests, 1)
		req := vis.Requests[0]
		assert.InDelta(t, 50.0, req.Perplexity, 1e-12) // max(50/200, 50)
		assert.InDelta(t, 600.0, req.Size, 1e-12)      // max(30000/50, 1)
		assert.Len(t, req.Labels, 50)
	})

	t.Run("PersistsLabelsAndEmbedding", func(t *testing.T) {
		X := testMatrix(10)
		store := artifact.NewMemoryStore()
		sampler := &testutil.StubSampler{}
		vis := &testutil.RecordingVisualizer{}
		exp := newTestExperiment(store, sampler, vis, blockLabels(10))

		err := exp.Run(ctx, X, "toy", WithSampleSizes([]int{5}))
		require.NoError(t, err)

		for _, name := range []string{"cell_labels/toy.txt", "embedding_toy.txt"} {
			ok, err := store.Exists(ctx, name)
			require.NoError(t, err)
			assert.True(t, ok, name)
		}

		rc, err := store.Open(ctx, "embedding_toy.txt")
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Len(t, strings.Split(strings.TrimRight(string(data), "\n"), "\n"), 10)
	})

	t.Run("LoadsPersistedLabels", func(t *testing.T) {
		X := testMatrix(4)
		store := artifact.NewMemoryStore()
		require.NoError(t, store.Put(ctx, "cell_labels/toy.txt", []byte("b a b a\n")))

		sampler := &testutil.StubSampler{}
		vis := &testutil.RecordingVisualizer{}
		exp := newTestExperiment(store, sampler, vis, nil)

		err := exp.Run(ctx, X, "toy",
			WithRecomputeLabels(false),
			WithSampleSizes([]int{2}),
		)
		require.NoError(t, err)

		require.NotEmpty(t, vis.Requests)
		req := vis.Requests[0]
		// Distinct tokens are encoded to sorted contiguous codes.
		assert.Equal(t, []string{"a", "b"}, req.CategoryNames)
		assert.Equal(t, []int{1, 0, 1, 0}, req.Labels)
	})

	t.Run("DuplicateSampledIndicesTolerated", func(t *testing.T) {
		X := testMatrix(10)
		sampler := &testutil.StubSampler{Indices: []int{0, 0, 1}}
		vis := &testutil.RecordingVisualizer{}
		exp := newTestExperiment(artifact.NewMemoryStore(), sampler, vis, blockLabels(10))

		err := exp.Run(ctx, X, "toy",
			WithLabels(blockLabels(10)),
			WithVisualizeOriginal(false),
			WithSampleSizes([]int{3}),
		)
		require.NoError(t, err)
		require.Len(t, vis.Requests, 1)
		assert.Len(t, vis.Requests[0].Labels, 3)
	})

	t.Run("GeneOverlaySubsetsExpression", func(t *testing.T) {
		X := testMatrix(10)
		expr := make([][]float64, 10)
		for i := range expr {
			expr[i] = []float64{float64(i * 10)}
		}
		sampler := &testutil.StubSampler{Indices: []int{2, 4}}
		vis := &testutil.RecordingVisualizer{}
		exp := newTestExperiment(artifact.NewMemoryStore(), sampler, vis, blockLabels(10))

		err := exp.Run(ctx, X, "toy",
			WithLabels(blockLabels(10)),
			WithVisualizeOriginal(false),
			WithSampleSizes([]int{2}),
			WithGeneOverlay([]string{"CD4"}, expr, []string{"CD4"}),
		)
		require.NoError(t, err)

		require.Len(t, vis.Requests, 1)
		overlay := vis.Requests[0].Overlay
		require.NotNil(t, overlay)
		assert.Equal(t, [][]float64{{20}, {40}}, overlay.Expr)
		assert.Equal(t, []string{"CD4"}, overlay.Genes)
	})

	t.Run("SamplerFailureIsFatal", func(t *testing.T) {
		boom := errors.New("sampler degenerate")
		X := testMatrix(10)
		sampler := &testutil.StubSampler{Err: boom}
		vis := &testutil.RecordingVisualizer{}
		exp := newTestExperiment(artifact.NewMemoryStore(), sampler, vis, blockLabels(10))

		err := exp.Run(ctx, X, "toy",
			WithLabels(blockLabels(10)),
			WithVisualizeOriginal(false),
			WithSampleSizes([]int{5}),
		)
		require.ErrorIs(t, err, boom)
	})

	t.Run("AcquisitionWithoutClustererFails", func(t *testing.T) {
		X := testMatrix(4)
		sampler := &testutil.StubSampler{}
		vis := &testutil.RecordingVisualizer{}
		// No clusterer factory and no persisted file: acquisition cannot
		// proceed.
		exp := New(
			WithSampler(sampler),
			WithVisualizer(vis),
			WithStore(artifact.NewMemoryStore()),
			WithLogger(NoopLogger()),
		)

		err := exp.Run(ctx, X, "toy", WithRecomputeLabels(false))
		require.ErrorIs(t, err, ErrMissingCollaborator)
	})

	t.Run("MissingCollaborators", func(t *testing.T) {
		exp := New(WithLogger(NoopLogger()))
		err := exp.Run(ctx, testMatrix(4), "toy")
		require.ErrorIs(t, err, ErrMissingCollaborator)
	})
}
