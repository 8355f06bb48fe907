// Package gobench reads `go test -bench` output in which benchmarks report
// their throughput and arithmetic intensity with b.ReportMetric:
//
//	b.ReportMetric(gflops, "GFLOP/s")
//	b.ReportMetric(flopsPerByte, "FLOP/B")
//
// The benchmark base name becomes the application and the sub-benchmark path
// the implementation.
package gobench

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/perf/benchfmt"
	"golang.org/x/perf/benchmath"

	"github.com/moebiusband73/roofline/roofline"
)

// Units of the two metrics that place a benchmark on the roofline.
const (
	ThroughputUnit = "GFLOP/s"
	IntensityUnit  = "FLOP/B"
)

const confidence = 0.95

type impl struct {
	label      string
	throughput []float64
	intensity  []float64
}

type app struct {
	name  string
	impls []*impl
	index map[string]*impl
}

// Read parses benchmark results from r. Results missing either metric are
// ignored; repeated runs of one benchmark are reduced to their median.
func Read(r io.Reader, source string) ([]roofline.Application, error) {
	var order []*app
	byName := make(map[string]*app)

	br := benchfmt.NewReader(r, source)
	for br.Scan() {
		var res *benchfmt.Result
		switch rec := br.Result().(type) {
		case *benchfmt.Result:
			res = rec
		case *benchfmt.SyntaxError:
			log.Warn(rec)
			continue
		default:
			continue
		}

		gflops, ok1 := value(res, ThroughputUnit)
		flopsPerByte, ok2 := value(res, IntensityUnit)
		if !ok1 || !ok2 {
			log.Debugf("%s: %s lacks %s or %s", source, res.Name, ThroughputUnit, IntensityUnit)
			continue
		}

		name, label := split(res.Name)
		a := byName[name]
		if a == nil {
			a = &app{name: name, index: make(map[string]*impl)}
			byName[name] = a
			order = append(order, a)
		}
		im := a.index[label]
		if im == nil {
			im = &impl{label: label}
			a.index[label] = im
			a.impls = append(a.impls, im)
		}
		im.throughput = append(im.throughput, gflops)
		im.intensity = append(im.intensity, flopsPerByte)
	}
	if err := br.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	apps := make([]roofline.Application, 0, len(order))
	for _, a := range order {
		var all []float64
		for _, im := range a.impls {
			all = append(all, im.intensity...)
		}
		out := roofline.Application{Name: a.name, Intensity: center(all)}
		for _, im := range a.impls {
			if x := center(im.intensity); math.Abs(x-out.Intensity) > 1e-9*out.Intensity {
				log.WithFields(log.Fields{
					"application":    a.name,
					"implementation": im.label,
					"intensity":      x,
					"using":          out.Intensity,
				}).Warn("implementations disagree on intensity")
			}
			out.Add(im.label, center(im.throughput))
		}
		apps = append(apps, out)
	}
	log.Infof("Read %d benchmarked applications from %s", len(apps), source)
	return apps, nil
}

// ReadFile opens path and parses it with Read.
func ReadFile(path string) ([]roofline.Application, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, path)
}

func value(res *benchfmt.Result, unit string) (float64, bool) {
	if v, ok := res.Value(unit); ok {
		return v, true
	}
	for _, v := range res.Values {
		if v.OrigUnit == unit {
			return v.OrigValue, true
		}
	}
	return 0, false
}

// split separates the base name from the sub-benchmark path, dropping the
// GOMAXPROCS suffix.
func split(n benchfmt.Name) (string, string) {
	base, parts := n.Parts()
	var sub []string
	for _, p := range parts {
		if bytes.HasPrefix(p, []byte("-")) {
			continue
		}
		sub = append(sub, string(bytes.TrimPrefix(p, []byte("/"))))
	}
	return strings.TrimPrefix(string(base), "Benchmark"), strings.Join(sub, "/")
}

func center(xs []float64) float64 {
	if len(xs) == 1 {
		return xs[0]
	}
	s := benchmath.NewSample(xs, &benchmath.DefaultThresholds)
	return benchmath.AssumeNothing.Summary(s, confidence).Center
}
