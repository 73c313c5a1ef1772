package sketcheval

import "cmp"

// LabelCount is the number of points carrying a label.
type LabelCount[L cmp.Ordered] struct {
	Label L
	Count int
}

// CountLabels returns the per-label point counts in sorted label order.
func CountLabels[L cmp.Ordered](labels []L) []LabelCount[L] {
	counts := make(map[L]int, len(labels))
	for _, l := range labels {
		counts[l]++
	}
	out := make([]LabelCount[L], 0, len(counts))
	for _, l := range distinctSorted(labels) {
		out = append(out, LabelCount[L]{Label: l, Count: counts[l]})
	}
	return out
}

// ReportClusterCounts logs one line per distinct cluster label with its
// count, in sorted label order. Used as a lightweight audit after a
// downsampling step.
func ReportClusterCounts[L cmp.Ordered](logger *Logger, labels []L) {
	for _, lc := range CountLabels(labels) {
		logger.Info("cluster count",
			"cluster", lc.Label,
			"cells", lc.Count,
		)
	}
}
