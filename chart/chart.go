// Package chart lays out roofline charts independently of the renderer.
package chart

import (
	"fmt"
	"math"

	"github.com/moebiusband73/roofline/roofline"
)

const (
	DefaultTitle           = "Roofline Model"
	DefaultNormalizedTitle = "Normalized Roofline Model"

	XLabel           = "Arithmetic Intensity (FLOP/byte)"
	YLabel           = "Achievable Performance (GFLOP/s)"
	NormalizedYLabel = "Normalized Achievable Performance (MFLOP/s/$)"
)

// Series is the ceiling polyline of one platform.
type Series struct {
	Name string
	X, Y []float64
}

// Point is one measured implementation.
type Point struct {
	Group string // application
	Label string // implementation, empty for the default one
	X, Y  float64
	Bound roofline.Bound
}

// Name is the text shown next to the point.
func (p Point) Name() string {
	if p.Label == "" {
		return p.Group
	}
	return p.Group + "/" + p.Label
}

// Marker is a vertical line at the intensity of an application.
type Marker struct {
	Name string
	X    float64
}

// Chart is everything a renderer needs to draw one roofline plot.
type Chart struct {
	Title          string
	XLabel, YLabel string
	XMin, XMax     float64
	YMin, YMax     float64

	Ceilings []Series
	// Groups lists application names in input order; renderers color
	// points and markers by their index here.
	Groups  []string
	Points  []Point
	Markers []Marker
}

// GroupIndex returns the position of name in c.Groups, or -1.
func (c *Chart) GroupIndex(name string) int {
	for i, g := range c.Groups {
		if g == name {
			return i
		}
	}
	return -1
}

// Options control the layout.
type Options struct {
	Title        string
	MinIntensity float64
	MaxIntensity float64
	SweepPoints  int
	// Normalized adds a second chart with every platform divided by its
	// price. All platforms need a price.
	Normalized bool
}

// DefaultOptions reproduces the classic 2^-4 .. 2^6 FLOP/byte span.
func DefaultOptions() Options {
	return Options{
		Title:        DefaultTitle,
		MinIntensity: roofline.DefaultMinIntensity,
		MaxIntensity: roofline.DefaultMaxIntensity,
		SweepPoints:  roofline.DefaultSweepPoints,
	}
}

// Build validates the input and lays out the absolute chart, followed by the
// normalized chart when requested.
func Build(platforms []roofline.Platform, apps []roofline.Application, opts Options) ([]Chart, error) {
	if err := roofline.ValidateAll(platforms, apps); err != nil {
		return nil, err
	}
	lo, hi := roofline.Span(opts.MinIntensity, opts.MaxIntensity, platforms, apps)
	xs, err := roofline.Sweep(lo, hi, opts.SweepPoints)
	if err != nil {
		return nil, err
	}

	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}
	abs := layout(title, YLabel, platforms, apps, xs, true)
	abs.XMin, abs.XMax = lo, hi
	charts := []Chart{abs}

	if opts.Normalized {
		norm := make([]roofline.Platform, len(platforms))
		for i, p := range platforms {
			if norm[i], err = roofline.Normalize(p); err != nil {
				return nil, fmt.Errorf("normalized roofline: %w", err)
			}
		}
		nc := layout(DefaultNormalizedTitle, NormalizedYLabel, norm, apps, xs, false)
		nc.XMin, nc.XMax = lo, hi
		charts = append(charts, nc)
	}
	return charts, nil
}

// layout places ceilings and, when withPoints is set, the measurements.
// Applications without measurements, and all applications of a chart without
// points, become markers.
func layout(title, ylabel string, platforms []roofline.Platform, apps []roofline.Application, xs []float64, withPoints bool) Chart {
	c := Chart{Title: title, XLabel: XLabel, YLabel: ylabel}
	ymin, ymax := math.Inf(1), math.Inf(-1)
	note := func(y float64) {
		ymin = math.Min(ymin, y)
		ymax = math.Max(ymax, y)
	}

	for _, p := range platforms {
		x, y := roofline.CurveWithRidge(p, xs)
		c.Ceilings = append(c.Ceilings, Series{Name: p.Name, X: x, Y: y})
		for _, v := range y {
			note(v)
		}
	}

	ref := platforms[0]
	for _, a := range apps {
		c.Groups = append(c.Groups, a.Name)
		if !withPoints || len(a.Measurements) == 0 {
			c.Markers = append(c.Markers, Marker{Name: a.Name, X: a.Intensity})
			continue
		}
		for _, m := range a.Measurements {
			c.Points = append(c.Points, Point{
				Group: a.Name,
				Label: m.Label,
				X:     m.Intensity,
				Y:     m.Throughput,
				Bound: roofline.Classify(m, ref),
			})
			note(m.Throughput)
		}
	}

	c.YMin = math.Exp2(math.Floor(math.Log2(ymin)))
	c.YMax = math.Exp2(math.Ceil(math.Log2(ymax)))
	if c.YMax <= c.YMin {
		c.YMax = 2 * c.YMin
	}
	return c
}
