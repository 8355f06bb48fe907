package gonumplot

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/plot/vg"

	"github.com/moebiusband73/roofline/chart"
	"github.com/moebiusband73/roofline/roofline"
)

func testCharts(t *testing.T) []chart.Chart {
	t.Helper()
	platforms := []roofline.Platform{
		{Name: "cpu", PeakCompute: 100, PeakBandwidth: 50, Price: 1000},
		{Name: "gpu", PeakCompute: 7800, PeakBandwidth: 900, Price: 9000},
	}
	gemm := roofline.Application{Name: "gemm", Intensity: 8}
	gemm.Add("", 40)
	gemm.Add("tiled", 72)
	stream := roofline.Application{Name: "stream", Intensity: 0.125}
	stream.Add("", 5)
	spmv := roofline.Application{Name: "spmv", Intensity: 0.25}

	opts := chart.DefaultOptions()
	opts.Normalized = true
	charts, err := chart.Build(platforms, []roofline.Application{gemm, stream, spmv}, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return charts
}

func TestWritePNG(t *testing.T) {
	for _, c := range testCharts(t) {
		var buf bytes.Buffer
		if err := Write(&buf, c, 6*vg.Inch, 4*vg.Inch, "png"); err != nil {
			t.Fatalf("%s: Write: %v", c.Title, err)
		}
		if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")) {
			t.Fatalf("%s: output is not a PNG", c.Title)
		}
	}
}

func TestSaveSVG(t *testing.T) {
	c := testCharts(t)[0]
	path := filepath.Join(t.TempDir(), "roofline.svg")
	if err := Save(c, DefaultWidth, DefaultHeight, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "<svg") {
		t.Fatal("output is not an SVG document")
	}
}

func TestPlotAxes(t *testing.T) {
	c := testCharts(t)[0]
	p, err := Plot(c)
	if err != nil {
		t.Fatalf("Plot: %v", err)
	}
	if p.X.Min != c.XMin || p.X.Max != c.XMax || p.Y.Min != c.YMin || p.Y.Max != c.YMax {
		t.Errorf("axis ranges x[%v,%v] y[%v,%v] do not match chart", p.X.Min, p.X.Max, p.Y.Min, p.Y.Max)
	}
	if p.Title.Text != chart.DefaultTitle {
		t.Errorf("title = %q", p.Title.Text)
	}
}

func TestColorsCycle(t *testing.T) {
	cs, err := colors("Set1", 9, 12)
	if err != nil {
		t.Fatalf("colors: %v", err)
	}
	if len(cs) != 12 || cs[9] != cs[0] {
		t.Fatalf("expected 12 colors cycling after 9, got %d", len(cs))
	}
	if cs, err := colors("Dark2", 8, 1); err != nil || len(cs) != 1 {
		t.Fatalf("colors(1) = %v, %v", cs, err)
	}
}
