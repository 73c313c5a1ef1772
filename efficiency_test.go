package sketcheval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClusterEfficiency(t *testing.T) {
	t.Run("IdenticalPartitionsScoreOne", func(t *testing.T) {
		labels := []int{0, 0, 0, 1, 1, 2, 2, 2, 2}

		eff, err := ClusterEfficiency(labels, labels)
		require.NoError(t, err)

		require.Len(t, eff, 3)
		for c, e := range eff {
			assert.InDelta(t, 1.0, e, 1e-12, "cluster %d", c)
		}
	})

	t.Run("TwoGroupsRecoveredExactly", func(t *testing.T) {
		// 10 points in 2 reference groups of 5 each; the clustering
		// reproduces the groups exactly.
		clusterLabels := []int{0, 0, 0, 0, 0, 1, 1, 1, 1, 1}
		refLabels := []int{0, 0, 0, 0, 0, 1, 1, 1, 1, 1}

		eff, err := ClusterEfficiency(clusterLabels, refLabels)
		require.NoError(t, err)
		assert.Equal(t, EfficiencyMap[int]{0: 1.0, 1: 1.0}, eff)
	})

	t.Run("EvenProportionalSplit", func(t *testing.T) {
		// Each reference group is spread evenly across both clusters, so
		// every cluster scores 1/|A| = 1/2.
		clusterLabels := []int{0, 1, 0, 1}
		refLabels := []int{0, 0, 1, 1}

		eff, err := ClusterEfficiency(clusterLabels, refLabels)
		require.NoError(t, err)
		require.Len(t, eff, 2)
		assert.InDelta(t, 0.5, eff[0], 1e-12)
		assert.InDelta(t, 0.5, eff[1], 1e-12)
	})

	t.Run("WeightedMixture", func(t *testing.T) {
		// Cluster 0 holds 3 points of group 0 (whole group) and 1 point of
		// group 1 (of 3 total): wsum = 3*1 + 1*(1/3), size 4.
		clusterLabels := []int{0, 0, 0, 0, 1, 1}
		refLabels := []int{0, 0, 0, 1, 1, 1}

		eff, err := ClusterEfficiency(clusterLabels, refLabels)
		require.NoError(t, err)
		assert.InDelta(t, (3+1.0/3)/4, eff[0], 1e-12)
		assert.InDelta(t, (2*2.0/3)/2, eff[1], 1e-12)
	})

	t.Run("BoundedByOne", func(t *testing.T) {
		clusterLabels := []int{0, 1, 2, 0, 1, 2, 0, 0, 1, 2, 2, 2}
		refLabels := []int{0, 0, 0, 1, 1, 1, 2, 2, 2, 3, 3, 3}

		eff, err := ClusterEfficiency(clusterLabels, refLabels)
		require.NoError(t, err)
		require.Len(t, eff, 3)
		for c, e := range eff {
			assert.GreaterOrEqual(t, e, 0.0, "cluster %d", c)
			assert.LessOrEqual(t, e, 1.0, "cluster %d", c)
		}
	})

	t.Run("PermutationInvariance", func(t *testing.T) {
		clusterLabels := []int{0, 0, 1, 1, 2, 2}
		refLabels := []int{0, 1, 0, 1, 0, 1}

		eff, err := ClusterEfficiency(clusterLabels, refLabels)
		require.NoError(t, err)

		// Swap cluster labels 0 <-> 2: the output keys permute, the values
		// move with them.
		swapped := []int{2, 2, 1, 1, 0, 0}
		effSwapped, err := ClusterEfficiency(swapped, refLabels)
		require.NoError(t, err)

		assert.Equal(t, eff[0], effSwapped[2])
		assert.Equal(t, eff[1], effSwapped[1])
		assert.Equal(t, eff[2], effSwapped[0])

		// Relabeling the reference groups does not change any value.
		refRelabeled := []int{5, 3, 5, 3, 5, 3}
		effRef, err := ClusterEfficiency(clusterLabels, refRelabeled)
		require.NoError(t, err)
		assert.Equal(t, eff, effRef)
	})

	t.Run("StringLabels", func(t *testing.T) {
		clusterLabels := []string{"a", "a", "b", "b"}
		refLabels := []string{"x", "x", "y", "y"}

		eff, err := ClusterEfficiency(clusterLabels, refLabels)
		require.NoError(t, err)
		assert.Equal(t, EfficiencyMap[string]{"a": 1.0, "b": 1.0}, eff)
	})

	t.Run("LengthMismatch", func(t *testing.T) {
		_, err := ClusterEfficiency([]int{1, 2, 3}, []int{1, 2})
		require.Error(t, err)

		var lm *ErrLengthMismatch
		require.ErrorAs(t, err, &lm)
		assert.Equal(t, 3, lm.ClusterLen)
		assert.Equal(t, 2, lm.ReferenceLen)
	})

	t.Run("EmptyInput", func(t *testing.T) {
		eff, err := ClusterEfficiency([]int{}, []int{})
		require.NoError(t, err)
		assert.Empty(t, eff)
	})
}
