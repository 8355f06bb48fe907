// Package echarts renders roofline charts as an interactive HTML page.
package echarts

import (
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/moebiusband73/roofline/chart"
	"github.com/moebiusband73/roofline/roofline"
)

const pageTitle = "Roofline"

func symbol(b roofline.Bound) string {
	if b == roofline.MemoryBound {
		return "triangle"
	}
	return "circle"
}

// Line builds the echarts line chart for c, with measurements overlapped as
// scatter series.
func Line(c chart.Chart) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: pageTitle, Width: "1200px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{Title: c.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Type: "scroll", Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: c.XLabel, Type: "log", Min: c.XMin, Max: c.XMax}),
		charts.WithYAxisOpts(opts.YAxis{Name: c.YLabel, Type: "log", Min: c.YMin, Max: c.YMax}),
	)

	for _, s := range c.Ceilings {
		data := make([]opts.LineData, len(s.X))
		for i := range s.X {
			data[i] = opts.LineData{Value: []float64{s.X[i], s.Y[i]}}
		}
		line.AddSeries(s.Name, data, charts.WithLineStyleOpts(opts.LineStyle{Width: 2}))
	}

	for _, m := range c.Markers {
		line.AddSeries(m.Name, []opts.LineData{
			{Value: []float64{m.X, c.YMin}},
			{Value: []float64{m.X, c.YMax}},
		}, charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}))
	}

	if len(c.Points) > 0 {
		scatter := charts.NewScatter()
		for _, g := range c.Groups {
			var data []opts.ScatterData
			for _, p := range c.Points {
				if p.Group != g {
					continue
				}
				data = append(data, opts.ScatterData{
					Name:       p.Name(),
					Value:      []float64{p.X, p.Y},
					Symbol:     symbol(p.Bound),
					SymbolSize: 12,
				})
			}
			if len(data) > 0 {
				scatter.AddSeries(g, data)
			}
		}
		line.Overlap(scatter)
	}
	return line
}

// Render writes one page holding a chart per element of cs.
func Render(w io.Writer, cs []chart.Chart) error {
	page := components.NewPage()
	page.SetPageTitle(pageTitle)
	for _, c := range cs {
		page.AddCharts(Line(c))
	}
	return page.Render(w)
}

// Save writes the page to path.
func Save(path string, cs []chart.Chart) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Render(f, cs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
