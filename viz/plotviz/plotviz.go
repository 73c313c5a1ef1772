// Package plotviz implements the viz.Visualizer capability with a PCA
// projection and gonum/plot scatter images.
//
// The embedding is the two leading principal components of the input
// points. Perplexity and iteration hints in the request are accepted for
// compatibility with embedding backends that use them and ignored here.
package plotviz

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"math"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/sketcheval/sketcheval/artifact"
	"github.com/sketcheval/sketcheval/viz"
)

const defaultGlyphRadius = 2

// Visualizer renders scatter plots of a PCA embedding and stores them as
// image artifacts.
type Visualizer struct {
	store  artifact.Store
	width  vg.Length
	height vg.Length
}

// Option configures a Visualizer.
type Option func(*Visualizer)

// WithPlotSize sets the output image dimensions.
func WithPlotSize(width, height vg.Length) Option {
	return func(v *Visualizer) {
		v.width = width
		v.height = height
	}
}

// New creates a Visualizer writing image artifacts to store.
func New(store artifact.Store, opts ...Option) *Visualizer {
	v := &Visualizer{
		store:  store,
		width:  8 * vg.Inch,
		height: 8 * vg.Inch,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Visualize embeds the request's points in 2-D, renders one scatter plot
// colored by category plus one per requested overlay gene, stores the
// images under the request name, and returns the embedding.
func (v *Visualizer) Visualize(ctx context.Context, req *viz.Request) ([][]float64, error) {
	points := concat(req.Matrices)
	if len(points) == 0 {
		return nil, fmt.Errorf("plotviz: no points to visualize")
	}
	if len(req.Labels) != len(points) {
		return nil, fmt.Errorf("plotviz: %d labels for %d points", len(req.Labels), len(points))
	}

	embedding, err := embed(points)
	if err != nil {
		return nil, err
	}

	img, err := v.renderCategories(embedding, req)
	if err != nil {
		return nil, err
	}
	if err := v.store.Put(ctx, req.Name+req.ImageSuffix, img); err != nil {
		return nil, err
	}

	if req.Overlay != nil {
		if err := v.renderOverlays(ctx, embedding, req); err != nil {
			return nil, err
		}
	}

	return embedding, nil
}

// embed projects points onto their two leading principal components.
// One- and two-dimensional inputs are passed through (padded to 2-D).
func embed(points [][]float64) ([][]float64, error) {
	n := len(points)
	dim := len(points[0])

	out := make([][]float64, n)
	if dim <= 2 {
		for i, row := range points {
			out[i] = []float64{row[0], 0}
			if dim == 2 {
				out[i][1] = row[1]
			}
		}
		return out, nil
	}

	m := mat.NewDense(n, dim, nil)
	for i, row := range points {
		m.SetRow(i, row)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(m, nil); !ok {
		return nil, fmt.Errorf("plotviz: principal component decomposition failed")
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)

	var proj mat.Dense
	proj.Mul(m, vecs.Slice(0, dim, 0, 2))

	for i := range out {
		out[i] = []float64{proj.At(i, 0), proj.At(i, 1)}
	}
	return out, nil
}

func (v *Visualizer) renderCategories(embedding [][]float64, req *viz.Request) ([]byte, error) {
	p := plot.New()
	p.Title.Text = req.Name
	p.X.Label.Text = "component 1"
	p.Y.Label.Text = "component 2"

	radius := vg.Points(defaultGlyphRadius)
	if req.Size > 0 {
		radius = vg.Points(req.Size)
	}

	for _, cat := range distinctInts(req.Labels) {
		var xys plotter.XYs
		for i, l := range req.Labels {
			if l != cat {
				continue
			}
			xys = append(xys, plotter.XY{X: embedding[i][0], Y: embedding[i][1]})
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Color = plotutil.Color(cat)
		s.GlyphStyle.Radius = radius
		p.Add(s)
		p.Legend.Add(categoryName(req.CategoryNames, cat), s)
	}

	return v.render(p, req.ImageSuffix)
}

// renderOverlays writes one plot per requested gene, colored by expression.
func (v *Visualizer) renderOverlays(ctx context.Context, embedding [][]float64, req *viz.Request) error {
	ov := req.Overlay
	if len(ov.Expr) != len(embedding) {
		return fmt.Errorf("plotviz: %d expression rows for %d points", len(ov.Expr), len(embedding))
	}

	col := make(map[string]int, len(ov.GeneNames))
	for j, g := range ov.GeneNames {
		col[g] = j
	}

	for _, gene := range ov.Genes {
		j, ok := col[gene]
		if !ok {
			return fmt.Errorf("plotviz: gene %q not in expression matrix", gene)
		}

		expr := make([]float64, len(embedding))
		lo, hi := math.Inf(1), math.Inf(-1)
		for i := range embedding {
			expr[i] = ov.Expr[i][j]
			lo = math.Min(lo, expr[i])
			hi = math.Max(hi, expr[i])
		}

		p := plot.New()
		p.Title.Text = req.Name + " " + gene

		xys := make(plotter.XYs, len(embedding))
		for i, e := range embedding {
			xys[i] = plotter.XY{X: e[0], Y: e[1]}
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		radius := s.GlyphStyle.Radius
		if req.Size > 0 {
			radius = vg.Points(req.Size)
		}
		s.GlyphStyleFunc = func(i int) draw.GlyphStyle {
			return draw.GlyphStyle{
				Color:  heat(expr[i], lo, hi),
				Radius: radius,
				Shape:  draw.CircleGlyph{},
			}
		}
		p.Add(s)

		img, err := v.render(p, req.ImageSuffix)
		if err != nil {
			return err
		}
		if err := v.store.Put(ctx, req.Name+"_"+gene+req.ImageSuffix, img); err != nil {
			return err
		}
	}
	return nil
}

func (v *Visualizer) render(p *plot.Plot, suffix string) ([]byte, error) {
	format := strings.TrimPrefix(suffix, ".")
	if format == "" {
		format = "png"
	}
	wt, err := p.WriterTo(v.width, v.height, format)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// heat maps a value in [lo, hi] onto a blue-to-red ramp.
func heat(v, lo, hi float64) color.Color {
	t := 0.0
	if hi > lo {
		t = (v - lo) / (hi - lo)
	}
	return color.RGBA{
		R: uint8(255 * t),
		B: uint8(255 * (1 - t)),
		A: 255,
	}
}

func categoryName(names []string, cat int) string {
	if cat >= 0 && cat < len(names) {
		return names[cat]
	}
	return strconv.Itoa(cat)
}

func distinctInts(labels []int) []int {
	seen := make(map[int]struct{}, len(labels))
	var out []int
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	// Sorted for deterministic legend order.
	slices.Sort(out)
	return out
}

func concat(matrices [][][]float64) [][]float64 {
	var out [][]float64
	for _, m := range matrices {
		out = append(out, m...)
	}
	return out
}
