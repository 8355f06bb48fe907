package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/plot/vg"

	"github.com/moebiusband73/roofline/chart"
	"github.com/moebiusband73/roofline/csvio"
	"github.com/moebiusband73/roofline/echarts"
	"github.com/moebiusband73/roofline/gnuplot"
	"github.com/moebiusband73/roofline/gobench"
	"github.com/moebiusband73/roofline/gonumplot"
	"github.com/moebiusband73/roofline/influx"
	"github.com/moebiusband73/roofline/roofline"
)

const stdinName = "<stdin>"

func main() {
	err := run(os.Args[1:], os.Stdin, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdin io.Reader, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	o.setupLogging()

	platforms, err := readPlatforms(o, stdin)
	if err != nil {
		return err
	}
	apps, err := readApplications(o, stdin)
	if err != nil {
		return err
	}
	if err := roofline.ValidateAll(platforms, apps); err != nil {
		return err
	}
	if o.saveApps != "" {
		if err := csvio.WriteApplicationsFile(o.saveApps, apps); err != nil {
			return fmt.Errorf("save applications: %w", err)
		}
		log.Infof("Wrote %d applications to %s", len(apps), o.saveApps)
	}

	summarize(platforms, apps)

	charts, err := chart.Build(platforms, apps, o.chart)
	if err != nil {
		return err
	}
	return render(o, charts)
}

func readPlatforms(o *options, stdin io.Reader) ([]roofline.Platform, error) {
	var (
		platforms []roofline.Platform
		err       error
	)
	if o.hwFile == "" {
		log.Info("Reading HW characteristics from standard input (end with Ctrl-D)...")
		platforms, err = csvio.ReadPlatforms(stdin, stdinName)
	} else {
		log.Infof("Reading HW characteristics from %s...", o.hwFile)
		platforms, err = csvio.ReadPlatformsFile(o.hwFile)
	}
	if err != nil {
		return nil, fmt.Errorf("HW CSV: %w", err)
	}
	for _, p := range platforms {
		log.WithFields(log.Fields{
			"platform": p.Name,
			"gflops":   p.PeakCompute,
			"gbs":      p.PeakBandwidth,
			"ridge":    p.RidgePoint(),
			"price":    p.Price,
		}).Debug("platform")
	}
	return platforms, nil
}

func readApplications(o *options, stdin io.Reader) ([]roofline.Application, error) {
	if o.hwOnly {
		if o.appsFile != "" || o.influxFile != "" || o.benchFile != "" {
			log.Warn("-hw-only given, ignoring application inputs")
		}
		log.Info("Plotting only HW characteristics without any applications...")
		return nil, nil
	}

	var apps []roofline.Application
	if o.appsFromStdin() {
		log.Info("Reading applications intensities from standard input (end with Ctrl-D)...")
		a, err := csvio.ReadApplications(stdin, stdinName)
		if err != nil {
			return nil, fmt.Errorf("SW CSV: %w", err)
		}
		return a, nil
	}
	if o.appsFile != "" {
		log.Infof("Reading applications intensities from %s...", o.appsFile)
		a, err := csvio.ReadApplicationsFile(o.appsFile)
		if err != nil {
			return nil, fmt.Errorf("SW CSV: %w", err)
		}
		apps = append(apps, a...)
	}
	if o.influxFile != "" {
		a, err := influx.ReadFile(o.influxFile, o.influx)
		if err != nil {
			return nil, fmt.Errorf("node metrics: %w", err)
		}
		apps = append(apps, a...)
	}
	if o.benchFile != "" {
		a, err := gobench.ReadFile(o.benchFile)
		if err != nil {
			return nil, fmt.Errorf("benchmarks: %w", err)
		}
		apps = append(apps, a...)
	}
	return apps, nil
}

// summarize logs where every measurement sits on every platform.
func summarize(platforms []roofline.Platform, apps []roofline.Application) {
	for _, a := range apps {
		for _, m := range a.Measurements {
			for _, p := range platforms {
				log.WithFields(log.Fields{
					"application":    a.Name,
					"implementation": m.Label,
					"platform":       p.Name,
					"intensity":      m.Intensity,
					"gflops":         m.Throughput,
					"ceiling":        roofline.Ceiling(m.Intensity, p),
					"efficiency":     fmt.Sprintf("%.1f%%", 100*roofline.Efficiency(m, p)),
				}).Info(roofline.Classify(m, p))
			}
		}
	}
}

// outputName returns the file for the i-th chart: the first one uses the
// requested name, later ones get a "-normalized" suffix.
func outputName(output string, i int) string {
	if i == 0 {
		return output
	}
	ext := filepath.Ext(output)
	return strings.TrimSuffix(output, ext) + "-normalized" + ext
}

func render(o *options, charts []chart.Chart) error {
	switch o.renderer() {
	case backendEcharts:
		if err := echarts.Save(o.output, charts); err != nil {
			return fmt.Errorf("render %s: %w", o.output, err)
		}
		log.Infof("Wrote %s", o.output)
		return nil

	case backendGnuplot:
		for i, c := range charts {
			name := outputName(o.output, i)
			ext := filepath.Ext(name)
			base := strings.TrimSuffix(name, ext)
			image := name
			switch strings.ToLower(ext) {
			case ".gp", ".plot", ".gnuplot", "":
				image = base + ".png"
			}
			dir := base + "-gnuplot"
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			p, err := gnuplot.FromChart(c, dir, image)
			if err != nil {
				return fmt.Errorf("render %s: %w", image, err)
			}
			if err := p.Create(!o.noExec); err != nil {
				return fmt.Errorf("render %s: %w", image, err)
			}
			log.Infof("Wrote %s", filepath.Join(dir, gnuplot.ScriptName))
		}
		return nil

	default:
		w, h := vg.Length(o.width)*vg.Inch, vg.Length(o.height)*vg.Inch
		for i, c := range charts {
			name := outputName(o.output, i)
			if err := gonumplot.Save(c, w, h, name); err != nil {
				return fmt.Errorf("render %s: %w", name, err)
			}
			log.Infof("Wrote %s", name)
		}
		return nil
	}
}
