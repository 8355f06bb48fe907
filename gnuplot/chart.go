package gnuplot

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/moebiusband73/roofline/chart"
	"github.com/moebiusband73/roofline/roofline"
)

// Terminal picks the gnuplot terminal for an output file extension.
func Terminal(output string) string {
	switch strings.ToLower(filepath.Ext(output)) {
	case ".svg":
		return "svg size 1400,768 enhanced font ',16'"
	case ".pdf":
		return "pdfcairo size 14in,7.68in enhanced font ',16'"
	default:
		return "png size 1400,768 enhanced font ',16'"
	}
}

func single(s string) string { return strings.ReplaceAll(s, "'", "''") }

func double(s string) string {
	q := strconv.Quote(s)
	return q[1 : len(q)-1]
}

func num(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// FromChart writes the data files of c into dir and returns the plot that
// draws them to output.
func FromChart(c chart.Chart, dir, output string) (*Plot, error) {
	out, err := filepath.Abs(output)
	if err != nil {
		return nil, err
	}
	p := &Plot{
		Dir:      dir,
		Filename: single(out),
		Terminal: Terminal(output),
		Title:    single(c.Title),
		Xlabel:   single(c.XLabel),
		Ylabel:   single(c.YLabel),
		Logscale: "xy 2",
		Xrange:   Range{From: num(c.XMin), To: num(c.XMax)},
		Yrange:   Range{From: num(c.YMin), To: num(c.YMax)},
	}

	for i, s := range c.Ceilings {
		d := &Dataset{Datafile: fmt.Sprintf("roof%d.dat", i), Title: double(s.Name), Style: "lines lw 2"}
		if err := p.AddData(d, s.X, s.Y); err != nil {
			return nil, err
		}
	}

	for gi, g := range c.Groups {
		var x, y []float64
		var labels []string
		var memory, compute int
		for _, pt := range c.Points {
			if pt.Group != g {
				continue
			}
			x = append(x, pt.X)
			y = append(y, pt.Y)
			labels = append(labels, pt.Label)
			if pt.Bound == roofline.MemoryBound {
				memory++
			} else {
				compute++
			}
		}
		if len(x) == 0 {
			continue
		}
		// pt 9 is a filled triangle, pt 7 a filled circle
		pt := 7
		if memory > compute {
			pt = 9
		}
		d := &Dataset{Datafile: fmt.Sprintf("app%d.dat", gi), Title: double(g), Style: fmt.Sprintf("points pt %d ps 1.5", pt)}
		if err := p.AddData(d, x, y, labels...); err != nil {
			return nil, err
		}
		if hasLabels(labels) {
			p.Sets = append(p.Sets, Dataset{Datafile: d.Datafile, Using: "1:2:3", Title: "", Style: "labels offset 1,0 left"})
		}
	}

	for i, m := range c.Markers {
		d := &Dataset{Datafile: fmt.Sprintf("marker%d.dat", i), Title: double(m.Name), Style: "lines dt 4"}
		if err := p.AddData(d, []float64{m.X, m.X}, []float64{c.YMin, c.YMax}); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func hasLabels(labels []string) bool {
	for _, l := range labels {
		if l != "" {
			return true
		}
	}
	return false
}
