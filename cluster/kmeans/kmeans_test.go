package kmeans

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sketcheval/sketcheval/testutil"
)

func TestClusterer(t *testing.T) {
	ctx := context.Background()

	rng := testutil.NewRNG(42)
	centers := [][]float64{
		{0, 0},
		{100, 100},
	}
	X, ref := rng.GaussianBlobs(centers, 30, 0.5)

	t.Run("AssignsEveryRow", func(t *testing.T) {
		labels, err := New(2).Assign(ctx, X)
		require.NoError(t, err)
		require.Len(t, labels, len(X))
		for _, l := range labels {
			assert.GreaterOrEqual(t, l, 0)
			assert.Less(t, l, 2)
		}
	})

	t.Run("SeparatedBlobsAreRecovered", func(t *testing.T) {
		labels, err := New(2, WithDeltaThreshold(0.005)).Assign(ctx, X)
		require.NoError(t, err)

		// With two far-apart blobs, each cluster must stay within one blob.
		byCluster := map[int]map[int]bool{}
		for i, l := range labels {
			if byCluster[l] == nil {
				byCluster[l] = map[int]bool{}
			}
			byCluster[l][ref[i]] = true
		}
		for c, blobs := range byCluster {
			assert.Len(t, blobs, 1, "cluster %d spans blobs", c)
		}
	})

	t.Run("MoreClustersThanRows", func(t *testing.T) {
		_, err := New(5).Assign(ctx, [][]float64{{0}, {1}})
		require.Error(t, err)
	})
}
