// Package influx turns an InfluxDB line-protocol export of ClusterCockpit
// node metrics into roofline applications, one per host.
package influx

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/influxdata/influxdb1-client/models"
	log "github.com/sirupsen/logrus"

	"github.com/moebiusband73/roofline/roofline"
)

// Config names the measurement, tag and fields to read. Flops are expected
// in MFLOP/s and bandwidth in MB/s.
type Config struct {
	Measurement    string
	HostTag        string
	FlopsField     string
	BandwidthField string
}

// DefaultConfig matches the ClusterCockpit schema.
var DefaultConfig = Config{
	Measurement:    "data",
	HostTag:        "host",
	FlopsField:     "flops_any",
	BandwidthField: "mem_bw",
}

type sample struct {
	value float64
	at    time.Time
}

type nodestat struct {
	flops sample
	memBw sample
	seen  bool
}

func (s *sample) update(v float64, at time.Time) {
	if s.at.IsZero() || !at.Before(s.at) {
		s.value, s.at = v, at
	}
}

// Read parses line protocol from r and keeps the latest flops and bandwidth
// sample of every host. Export headers ("# ..." and "CREATE ...") are
// skipped.
func Read(r io.Reader, source string, cfg Config) ([]roofline.Application, error) {
	nodes := make(map[string]*nodestat)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") || strings.HasPrefix(text, "CREATE ") {
			continue
		}
		points, err := models.ParsePointsString(text)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", source, line, err)
		}
		for _, pt := range points {
			if string(pt.Name()) != cfg.Measurement {
				continue
			}
			host := pt.Tags().GetString(cfg.HostTag)
			if host == "" {
				log.Debugf("%s:%d: point without %q tag", source, line, cfg.HostTag)
				continue
			}
			fields, err := pt.Fields()
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", source, line, err)
			}
			ns := nodes[host]
			if ns == nil {
				ns = &nodestat{}
				nodes[host] = ns
			}
			if v, ok := number(fields[cfg.FlopsField]); ok {
				ns.flops.update(v, pt.Time())
				ns.seen = true
			}
			if v, ok := number(fields[cfg.BandwidthField]); ok {
				ns.memBw.update(v, pt.Time())
				ns.seen = true
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	hosts := make([]string, 0, len(nodes))
	for h, ns := range nodes {
		if ns.seen {
			hosts = append(hosts, h)
		}
	}
	sort.Strings(hosts)

	apps := make([]roofline.Application, 0, len(hosts))
	for _, h := range hosts {
		ns := nodes[h]
		if ns.flops.value <= 0 || ns.memBw.value <= 0 {
			log.WithFields(log.Fields{
				"host":  h,
				"flops": ns.flops.value,
				"memBw": ns.memBw.value,
			}).Warn("skipping idle node")
			continue
		}
		app := roofline.Application{Name: h, Intensity: ns.flops.value / ns.memBw.value}
		app.Add("", ns.flops.value/1e3)
		apps = append(apps, app)
	}
	log.Infof("Read %d nodes from %s", len(apps), source)
	return apps, nil
}

// ReadFile opens path and parses it with Read.
func ReadFile(path string, cfg Config) ([]roofline.Application, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, path, cfg)
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
