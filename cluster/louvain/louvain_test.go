package louvain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sketcheval/sketcheval/testutil"
)

func TestDetector(t *testing.T) {
	ctx := context.Background()

	rng := testutil.NewRNG(1)
	centers := [][]float64{
		{0, 0, 0},
		{50, 50, 50},
	}
	X, ref := rng.GaussianBlobs(centers, 20, 0.5)

	det, err := New(ctx, X, WithNeighbors(5), WithSeed(1))
	require.NoError(t, err)

	t.Run("OneLabelPerRow", func(t *testing.T) {
		labels, err := det.Detect(ctx, 1.0)
		require.NoError(t, err)
		assert.Len(t, labels, len(X))
	})

	t.Run("SeparatedBlobsNeverShareCommunities", func(t *testing.T) {
		labels, err := det.Detect(ctx, 1.0)
		require.NoError(t, err)

		// The neighbor graph has no edge across the gap, so no community
		// can span both blobs.
		blobA := make(map[int]bool)
		for i, r := range ref {
			if r == 0 {
				blobA[labels[i]] = true
			}
		}
		for i, r := range ref {
			if r == 1 {
				assert.False(t, blobA[labels[i]], "community %d spans both blobs", labels[i])
			}
		}
	})

	t.Run("ReusableAcrossResolutions", func(t *testing.T) {
		for _, resolution := range []float64{0.1, 0.5, 1, 1.5, 2, 5} {
			labels, err := det.Detect(ctx, resolution)
			require.NoError(t, err)
			assert.Len(t, labels, len(X))
		}
	})

	t.Run("TooFewRows", func(t *testing.T) {
		_, err := New(ctx, [][]float64{{0}, {1}}, WithNeighbors(5))
		require.Error(t, err)
	})
}
