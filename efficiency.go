package sketcheval

import (
	"cmp"
	"fmt"
	"slices"
)

// EfficiencyMap maps each distinct cluster label to its efficiency in [0, 1].
type EfficiencyMap[C cmp.Ordered] map[C]float64

// ClusterEfficiency computes the clustering-based downsampling efficiency of
// each cluster with respect to a reference partition.
//
// clusterLabels and autoLabels are parallel vectors assigning every point to
// a cluster and to a reference group. For a cluster, efficiency is the
// size-weighted average, over the reference groups the cluster touches, of
// the fraction each reference group contributes to the cluster. A cluster
// that exactly equals one reference group scores 1.0; a cluster spread
// proportionally across all reference groups scores lower.
//
// The inputs are never mutated. Returns ErrLengthMismatch if the vectors
// differ in length and ErrEmptyReferenceGroup if a reference group has zero
// total membership in the contingency table.
func ClusterEfficiency[C, A cmp.Ordered](clusterLabels []C, autoLabels []A) (EfficiencyMap[C], error) {
	if len(clusterLabels) != len(autoLabels) {
		return nil, &ErrLengthMismatch{
			ClusterLen:   len(clusterLabels),
			ReferenceLen: len(autoLabels),
		}
	}

	clusters := distinctSorted(clusterLabels)
	autos := distinctSorted(autoLabels)

	clusterIdx := make(map[C]int, len(clusters))
	for i, c := range clusters {
		clusterIdx[c] = i
	}
	autoIdx := make(map[A]int, len(autos))
	for j, a := range autos {
		autoIdx[a] = j
	}

	// Contingency table: cluster x reference-group co-occurrence counts.
	table := make([][]int, len(clusters))
	for i := range table {
		table[i] = make([]int, len(autos))
	}
	for pos, c := range clusterLabels {
		table[clusterIdx[c]][autoIdx[autoLabels[pos]]]++
	}

	// Per reference group totals across all clusters.
	autoTotals := make([]int, len(autos))
	for _, row := range table {
		for j, n := range row {
			autoTotals[j] += n
		}
	}
	for j, total := range autoTotals {
		if total == 0 {
			return nil, &ErrEmptyReferenceGroup{Group: fmt.Sprint(autos[j])}
		}
	}

	eff := make(EfficiencyMap[C], len(clusters))
	for i, c := range clusters {
		var wsum float64
		var size int
		for j, n := range table[i] {
			pctInAuto := float64(n) / float64(autoTotals[j])
			wsum += float64(n) * pctInAuto
			size += n
		}
		// size is the full row sum, i.e. the number of points in cluster c;
		// it is at least 1 because c appears in clusterLabels.
		eff[c] = wsum / float64(size)
	}

	return eff, nil
}

// distinctSorted returns the sorted set of distinct values in labels.
func distinctSorted[L cmp.Ordered](labels []L) []L {
	seen := make(map[L]struct{}, len(labels))
	out := make([]L, 0, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	slices.Sort(out)
	return out
}
