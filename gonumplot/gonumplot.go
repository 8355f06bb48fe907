// Package gonumplot draws roofline charts with gonum/plot.
package gonumplot

import (
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/moebiusband73/roofline/chart"
	"github.com/moebiusband73/roofline/roofline"
)

// Default canvas size.
const (
	DefaultWidth  = 10 * vg.Inch
	DefaultHeight = 7 * vg.Inch
)

// colors returns n colors from a qualitative brewer palette, cycling when
// the palette is smaller than n.
func colors(name string, max, n int) ([]color.Color, error) {
	k := n
	if k < 3 {
		k = 3
	}
	if k > max {
		k = max
	}
	pal, err := brewer.GetPalette(brewer.TypeQualitative, name, k)
	if err != nil {
		return nil, err
	}
	cs := pal.Colors()
	out := make([]color.Color, n)
	for i := range out {
		out[i] = cs[i%len(cs)]
	}
	return out, nil
}

func glyph(b roofline.Bound) draw.GlyphDrawer {
	if b == roofline.MemoryBound {
		return draw.TriangleGlyph{}
	}
	return draw.CircleGlyph{}
}

// Plot builds the gonum plot for c. Memory-bound points are drawn as
// triangles, compute-bound ones as circles.
func Plot(c chart.Chart) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = c.Title
	p.X.Label.Text = c.XLabel
	p.Y.Label.Text = c.YLabel
	p.X.Scale = plot.LogScale{}
	p.Y.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.Padding = 1 * vg.Millimeter
	p.Add(plotter.NewGrid())

	roofColors, err := colors("Dark2", 8, len(c.Ceilings))
	if err != nil {
		return nil, err
	}
	for i, s := range c.Ceilings {
		xys := make(plotter.XYs, len(s.X))
		for j := range s.X {
			xys[j].X, xys[j].Y = s.X[j], s.Y[j]
		}
		l, err := plotter.NewLine(xys)
		if err != nil {
			return nil, err
		}
		l.Color = roofColors[i]
		l.Width = vg.Points(2)
		p.Add(l)
		p.Legend.Add(s.Name, l)
	}

	appColors, err := colors("Set1", 9, len(c.Groups))
	if err != nil {
		return nil, err
	}
	for gi, g := range c.Groups {
		var xys plotter.XYs
		var bounds []roofline.Bound
		var labels plotter.XYLabels
		for _, pt := range c.Points {
			if pt.Group != g {
				continue
			}
			xys = append(xys, plotter.XY{X: pt.X, Y: pt.Y})
			bounds = append(bounds, pt.Bound)
			if pt.Label != "" {
				labels.XYs = append(labels.XYs, plotter.XY{X: pt.X, Y: pt.Y})
				labels.Labels = append(labels.Labels, pt.Label)
			}
		}
		if len(xys) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = appColors[gi]
		sc.GlyphStyle.Radius = vg.Points(4)
		sc.GlyphStyle.Shape = glyph(bounds[0])
		sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
			st := sc.GlyphStyle
			st.Shape = glyph(bounds[i])
			return st
		}
		p.Add(sc)
		p.Legend.Add(g, sc)

		if len(labels.Labels) > 0 {
			lb, err := plotter.NewLabels(labels)
			if err != nil {
				return nil, err
			}
			lb.Offset = vg.Point{X: vg.Points(6), Y: vg.Points(-3)}
			p.Add(lb)
		}
	}

	for _, m := range c.Markers {
		l, err := plotter.NewLine(plotter.XYs{{X: m.X, Y: c.YMin}, {X: m.X, Y: c.YMax}})
		if err != nil {
			return nil, err
		}
		if gi := c.GroupIndex(m.Name); gi >= 0 {
			l.Color = appColors[gi]
		}
		l.Dashes = []vg.Length{vg.Points(6), vg.Points(2), vg.Points(1), vg.Points(2)}
		p.Add(l)
		p.Legend.Add(m.Name, l)
	}

	p.X.Min, p.X.Max = c.XMin, c.XMax
	p.Y.Min, p.Y.Max = c.YMin, c.YMax
	return p, nil
}

// Save renders c to path; the extension selects the format.
func Save(c chart.Chart, width, height vg.Length, path string) error {
	p, err := Plot(c)
	if err != nil {
		return err
	}
	return p.Save(width, height, path)
}

// Write renders c to w in the given format ("png", "svg", "pdf", ...).
func Write(w io.Writer, c chart.Chart, width, height vg.Length, format string) error {
	p, err := Plot(c)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(width, height, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
