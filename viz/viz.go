// Package viz defines the visualization capability injected into the
// experiment drivers.
//
// A Visualizer is a sink: it consumes point matrices with per-point labels
// and produces saved image artifacts plus a 2-D embedding of the points.
// The default implementation lives in viz/plotviz.
package viz

import "context"

// Overlay selects gene-expression columns to render alongside the cluster
// coloring. Expr is row-aligned with the visualized points; GeneNames names
// its columns; Genes lists the genes to render.
type Overlay struct {
	GeneNames []string
	Expr      [][]float64
	Genes     []string
}

// Request describes one visualization.
type Request struct {
	// Matrices is the sequence of point matrices to embed together.
	Matrices [][][]float64
	// Labels assigns a category code to every point, aligned with the
	// concatenation of Matrices.
	Labels []int
	// Name keys the produced artifacts.
	Name string
	// CategoryNames maps category codes to display names.
	CategoryNames []string
	// Overlay optionally adds per-gene expression renderings.
	Overlay *Overlay
	// Perplexity and Iterations are hints for embedding backends that use
	// them; backends that do not may ignore them.
	Perplexity float64
	Iterations int
	// Size is the point marker size; zero means the backend default.
	Size float64
	// ImageSuffix is the artifact file extension, e.g. ".png".
	ImageSuffix string
}

// Visualizer renders a Request and returns the embedding matrix, one row
// per visualized point.
type Visualizer interface {
	Visualize(ctx context.Context, req *Request) ([][]float64, error)
}
