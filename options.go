package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/moebiusband73/roofline/chart"
	"github.com/moebiusband73/roofline/influx"
	"github.com/moebiusband73/roofline/roofline"
)

const (
	backendAuto    = "auto"
	backendGonum   = "gonum"
	backendEcharts = "echarts"
	backendGnuplot = "gnuplot"
)

type options struct {
	hwFile     string
	appsFile   string
	influxFile string
	benchFile  string
	hwOnly     bool
	saveApps   string

	output  string
	backend string
	width   float64
	height  float64
	noExec  bool

	chart  chart.Options
	influx influx.Config

	verbose   bool
	logFormat string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{chart: chart.DefaultOptions(), influx: influx.DefaultConfig}

	fs := flag.NewFlagSet("roofline", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.hwFile, "i", "", "HW platforms CSV file (default: standard input)")
	fs.StringVar(&o.appsFile, "a", "", "applications CSV file (default: standard input)")
	fs.StringVar(&o.influxFile, "influx", "", "InfluxDB line-protocol export with node metrics")
	fs.StringVar(&o.benchFile, "bench", "", "go test -bench output reporting GFLOP/s and FLOP/B")
	fs.BoolVar(&o.hwOnly, "hw-only", false, "plot only HW characteristics without any applications")
	fs.StringVar(&o.saveApps, "save-apps", "", "also write the merged application table to this CSV file")

	fs.StringVar(&o.output, "o", "roofline.png", "output file; the extension selects the format")
	fs.StringVar(&o.backend, "backend", backendAuto, "renderer: auto, gonum, echarts or gnuplot")
	fs.Float64Var(&o.width, "width", 10, "image width in inches (gonum)")
	fs.Float64Var(&o.height, "height", 7, "image height in inches (gonum)")
	fs.BoolVar(&o.noExec, "no-exec", false, "write the gnuplot script without running gnuplot")

	fs.StringVar(&o.chart.Title, "title", chart.DefaultTitle, "chart title")
	fs.Float64Var(&o.chart.MinIntensity, "imin", roofline.DefaultMinIntensity, "smallest intensity on the x axis (FLOP/byte)")
	fs.Float64Var(&o.chart.MaxIntensity, "imax", roofline.DefaultMaxIntensity, "largest intensity on the x axis (FLOP/byte)")
	fs.IntVar(&o.chart.SweepPoints, "points", roofline.DefaultSweepPoints, "number of intensities sampled per roof")
	fs.BoolVar(&o.chart.Normalized, "normalized", false, "also plot the roofline normalized by platform price")

	fs.StringVar(&o.influx.Measurement, "influx-measurement", o.influx.Measurement, "line-protocol measurement holding node metrics")
	fs.StringVar(&o.influx.HostTag, "influx-host-tag", o.influx.HostTag, "tag naming the node")
	fs.StringVar(&o.influx.FlopsField, "influx-flops", o.influx.FlopsField, "field with MFLOP/s")
	fs.StringVar(&o.influx.BandwidthField, "influx-membw", o.influx.BandwidthField, "field with MB/s")

	fs.BoolVar(&o.verbose, "v", false, "debug logging")
	fs.StringVar(&o.logFormat, "log-format", "text", "log format: text or json")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return o, o.validate()
}

func (o *options) validate() error {
	switch o.backend {
	case backendAuto, backendGonum, backendEcharts, backendGnuplot:
	default:
		return fmt.Errorf("unknown backend %q", o.backend)
	}
	switch o.logFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", o.logFormat)
	}
	if o.output == "" {
		return errors.New("no output file")
	}
	if o.width <= 0 || o.height <= 0 {
		return fmt.Errorf("image size %vx%v: %w", o.width, o.height, roofline.ErrInvalidInput)
	}
	return nil
}

// renderer resolves the auto backend from the output extension.
func (o *options) renderer() string {
	if o.backend != backendAuto {
		return o.backend
	}
	switch strings.ToLower(filepath.Ext(o.output)) {
	case ".html", ".htm":
		return backendEcharts
	case ".gp", ".plot", ".gnuplot":
		return backendGnuplot
	}
	return backendGonum
}

// appsFromStdin reports whether application rows are read interactively.
func (o *options) appsFromStdin() bool {
	return !o.hwOnly && o.appsFile == "" && o.influxFile == "" && o.benchFile == ""
}

func (o *options) setupLogging() {
	if o.logFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	if o.verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}
