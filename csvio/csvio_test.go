package csvio

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/moebiusband73/roofline/roofline"
)

const hwTable = `# name, GFLOP/s, GB/s, price
Xeon Gold 6148, 1536, 128, 3072
Cortex-A72, 24, 6.4
 V100 , 7800, 900
`

const appTable = `stream, 0.0833, 9.5
gemm, 8, 40, blocked, 72.5, avx512, 410
spmv, 0.25
`

func TestReadPlatforms(t *testing.T) {
	ps, err := ReadPlatforms(strings.NewReader(hwTable), "hw.csv")
	if err != nil {
		t.Fatalf("ReadPlatforms: %v", err)
	}
	want := []roofline.Platform{
		{Name: "Xeon Gold 6148", PeakCompute: 1536, PeakBandwidth: 128, Price: 3072},
		{Name: "Cortex-A72", PeakCompute: 24, PeakBandwidth: 6.4},
		{Name: "V100", PeakCompute: 7800, PeakBandwidth: 900},
	}
	if len(ps) != len(want) {
		t.Fatalf("got %d platforms, want %d", len(ps), len(want))
	}
	for i := range want {
		if ps[i] != want[i] {
			t.Errorf("platform %d = %+v, want %+v", i, ps[i], want[i])
		}
	}
}

func TestReadApplications(t *testing.T) {
	apps, err := ReadApplications(strings.NewReader(appTable), "apps.csv")
	if err != nil {
		t.Fatalf("ReadApplications: %v", err)
	}
	if len(apps) != 3 {
		t.Fatalf("got %d applications, want 3", len(apps))
	}

	gemm := apps[1]
	if gemm.Name != "gemm" || gemm.Intensity != 8 {
		t.Fatalf("gemm = %+v", gemm)
	}
	wantLabels := []string{"", "blocked", "avx512"}
	wantThroughput := []float64{40, 72.5, 410}
	if len(gemm.Measurements) != 3 {
		t.Fatalf("gemm has %d measurements, want 3", len(gemm.Measurements))
	}
	for i, m := range gemm.Measurements {
		if m.Label != wantLabels[i] || m.Throughput != wantThroughput[i] || m.Intensity != 8 {
			t.Errorf("gemm measurement %d = %+v", i, m)
		}
	}

	if len(apps[2].Measurements) != 0 || apps[2].Intensity != 0.25 {
		t.Errorf("spmv = %+v, want intensity-only application", apps[2])
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		read     func(string) error
		input    string
		wantLine int
		wantIs   error
	}{
		{
			name:     "hardware too few fields",
			read:     readHW,
			input:    "a, 1, 2\nb, 1\n",
			wantLine: 2,
			wantIs:   ErrFieldCount,
		},
		{
			name:     "hardware too many fields",
			read:     readHW,
			input:    "# header\na, 1, 2, 3, 4\n",
			wantLine: 2,
			wantIs:   ErrFieldCount,
		},
		{
			name:     "hardware non-numeric",
			read:     readHW,
			input:    "a, 1, 2\n\nb, fast, 2\n",
			wantLine: 3,
		},
		{
			name:     "hardware zero bandwidth",
			read:     readHW,
			input:    "a, 1, 0\n",
			wantLine: 1,
			wantIs:   roofline.ErrInvalidInput,
		},
		{
			name:     "application dangling implementation",
			read:     readApps,
			input:    "a, 1, 2\nb, 1, 2, impl\n",
			wantLine: 2,
			wantIs:   ErrFieldCount,
		},
		{
			name:     "application name only",
			read:     readApps,
			input:    "a\n",
			wantLine: 1,
			wantIs:   ErrFieldCount,
		},
		{
			name:     "application negative throughput",
			read:     readApps,
			input:    "a, 1, -2\n",
			wantLine: 1,
			wantIs:   roofline.ErrInvalidInput,
		},
		{
			name:     "application empty implementation name",
			read:     readApps,
			input:    "a, 1, 2, , 3\n",
			wantLine: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.read(tt.input)
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("err = %v, want *ParseError", err)
			}
			if perr.Line != tt.wantLine {
				t.Errorf("line = %d, want %d (%v)", perr.Line, tt.wantLine, err)
			}
			if perr.Source != "in.csv" {
				t.Errorf("source = %q", perr.Source)
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("err = %v, want wrapping %v", err, tt.wantIs)
			}
		})
	}
}

func readHW(s string) error {
	_, err := ReadPlatforms(strings.NewReader(s), "in.csv")
	return err
}

func readApps(s string) error {
	_, err := ReadApplications(strings.NewReader(s), "in.csv")
	return err
}

func TestRoundTrip(t *testing.T) {
	platforms := []roofline.Platform{
		{Name: "EPYC 7763", PeakCompute: 3584, PeakBandwidth: 204.8, Price: 7890},
		{Name: "A100, SXM", PeakCompute: 19500, PeakBandwidth: 1555},
		{Name: "tiny", PeakCompute: 0.1 + 0.2, PeakBandwidth: 1.0 / 3},
	}
	var buf bytes.Buffer
	if err := WritePlatforms(&buf, platforms); err != nil {
		t.Fatalf("WritePlatforms: %v", err)
	}
	gotPlatforms, err := ReadPlatforms(&buf, "platforms")
	if err != nil {
		t.Fatalf("ReadPlatforms: %v", err)
	}
	if len(gotPlatforms) != len(platforms) {
		t.Fatalf("got %d platforms, want %d", len(gotPlatforms), len(platforms))
	}
	for i := range platforms {
		if gotPlatforms[i] != platforms[i] {
			t.Errorf("platform %d = %+v, want %+v", i, gotPlatforms[i], platforms[i])
		}
	}

	gemm := roofline.Application{Name: "gemm", Intensity: 10.0 / 3}
	gemm.Add("", 123.456)
	gemm.Add("tiled", 0.1+0.7)
	apps := []roofline.Application{gemm, {Name: "marker", Intensity: 1e-3}}
	buf.Reset()
	if err := WriteApplications(&buf, apps); err != nil {
		t.Fatalf("WriteApplications: %v", err)
	}
	gotApps, err := ReadApplications(&buf, "apps")
	if err != nil {
		t.Fatalf("ReadApplications: %v", err)
	}
	if len(gotApps) != 2 {
		t.Fatalf("got %d applications, want 2", len(gotApps))
	}
	if gotApps[0].Intensity != gemm.Intensity {
		t.Errorf("intensity = %v, want %v", gotApps[0].Intensity, gemm.Intensity)
	}
	for i, m := range gemm.Measurements {
		if gotApps[0].Measurements[i] != m {
			t.Errorf("measurement %d = %+v, want %+v", i, gotApps[0].Measurements[i], m)
		}
	}
	if gotApps[1].Intensity != 1e-3 || len(gotApps[1].Measurements) != 0 {
		t.Errorf("marker = %+v", gotApps[1])
	}
}

func TestWriteUnnamedImplementationFirst(t *testing.T) {
	gemm := roofline.Application{Name: "gemm", Intensity: 1.5}
	gemm.Add("tiled", 12.5)
	gemm.Add("", 10)

	var buf bytes.Buffer
	if err := WriteApplications(&buf, []roofline.Application{gemm}); err != nil {
		t.Fatalf("WriteApplications: %v", err)
	}
	if want := "gemm,1.5,10,tiled,12.5\n"; buf.String() != want {
		t.Fatalf("wrote %q, want %q", buf.String(), want)
	}
	got, err := ReadApplications(&buf, "apps")
	if err != nil {
		t.Fatalf("ReadApplications: %v", err)
	}
	want := []roofline.Measurement{
		{Intensity: 1.5, Throughput: 10},
		{Intensity: 1.5, Throughput: 12.5, Label: "tiled"},
	}
	if len(got) != 1 || len(got[0].Measurements) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i, m := range want {
		if got[0].Measurements[i] != m {
			t.Errorf("measurement %d = %+v, want %+v", i, got[0].Measurements[i], m)
		}
	}

	twice := roofline.Application{Name: "stream", Intensity: 0.1}
	twice.Add("", 1)
	twice.Add("vector", 2)
	twice.Add("", 3)
	buf.Reset()
	if err := WriteApplications(&buf, []roofline.Application{twice}); err == nil {
		t.Fatalf("two unnamed implementations written as %q", buf.String())
	}
}

func TestIndentedComment(t *testing.T) {
	apps, err := ReadApplications(strings.NewReader("  # name, intensity\nstream, 0.0833, 9.5\n\t#gemm, 8\n"), "apps.csv")
	if err != nil {
		t.Fatalf("ReadApplications: %v", err)
	}
	if len(apps) != 1 || apps[0].Name != "stream" {
		t.Fatalf("apps = %+v", apps)
	}
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	if _, err := ReadPlatformsFile(filepath.Join(dir, "missing.csv")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file: err = %v, want os.ErrNotExist", err)
	}

	path := filepath.Join(dir, "apps.csv")
	app := roofline.Application{Name: "stencil", Intensity: 0.5}
	app.Add("", 3)
	if err := WriteApplicationsFile(path, []roofline.Application{app}); err != nil {
		t.Fatalf("WriteApplicationsFile: %v", err)
	}
	apps, err := ReadApplicationsFile(path)
	if err != nil {
		t.Fatalf("ReadApplicationsFile: %v", err)
	}
	if len(apps) != 1 || apps[0].Measurements[0].Throughput != 3 {
		t.Fatalf("apps = %+v", apps)
	}
}
