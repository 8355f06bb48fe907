package gnuplot

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"time"

	log "github.com/sirupsen/logrus"
)

// ScriptName is the file the gnuplot macros are written to.
const ScriptName = "roofline.gp"

type Range struct {
	From string
	To   string
}

type Dataset struct {
	Datafile string
	Using    string
	Title    string
	Style    string
}

type Plot struct {
	Dir      string
	Filename string
	Terminal string
	Title    string
	Xlabel   string
	Ylabel   string
	Logscale string
	Xrange   Range
	Yrange   Range
	Style    []string
	Sets     []Dataset
	Created  time.Time
}

// AddData writes x, y (and labels, when given) as whitespace separated
// columns to d.Datafile inside p.Dir and registers the dataset.
func (p *Plot) AddData(d *Dataset, x []float64, y []float64, labels ...string) error {
	if len(x) != len(y) {
		return fmt.Errorf("%s: x, y unequal length (%d, %d)", d.Datafile, len(x), len(y))
	}
	if len(labels) > 0 && len(labels) != len(x) {
		return fmt.Errorf("%s: %d labels for %d points", d.Datafile, len(labels), len(x))
	}

	f, err := os.Create(filepath.Join(p.Dir, d.Datafile))
	if err != nil {
		return fmt.Errorf("add data: %w", err)
	}
	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# %s\n", d.Title)
	for i := 0; i < len(x); i++ {
		if len(labels) > 0 {
			fmt.Fprintf(w, "%g %g %s\n", x[i], y[i], strconv.Quote(labels[i]))
		} else {
			fmt.Fprintf(w, "%g %g\n", x[i], y[i])
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if d.Using == "" {
		d.Using = "1:2"
	}
	if d.Style == "" {
		d.Style = "lines"
	}

	p.Sets = append(p.Sets, *d)
	return nil
}

const gpTemplate = `# generated {{.Created.Format "Mon Jan 2 15:04 2006"}}
set terminal {{.Terminal}}
set output '{{.Filename}}'
set title  '{{.Title}}'
set xlabel '{{.Xlabel}}'
set ylabel '{{.Ylabel}}'
set xrange [{{.Xrange.From}}:{{.Xrange.To}}]
set yrange [{{.Yrange.From}}:{{.Yrange.To}}]
set key left top
set grid
{{if .Logscale}}set logscale {{.Logscale}}
{{end}}
{{- range $i, $e := .Style}}set style {{$e}}
{{end}}
plot {{range $i, $s := .Sets}}{{if $i}}, \
     {{end}}'{{$s.Datafile}}' using {{$s.Using}} t "{{$s.Title}}" w {{$s.Style}}
{{- end}}
`

var gpMacros = template.Must(template.New("gpMacros").Parse(gpTemplate))

// Script writes the gnuplot macros for p to w.
func (p *Plot) Script(w io.Writer) error {
	if p.Created.IsZero() {
		p.Created = time.Now()
	}
	if err := gpMacros.Execute(w, p); err != nil {
		return fmt.Errorf("executing template: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Create writes the script next to the data files and, when run is set and
// gnuplot is on PATH, runs it. Without gnuplot the script is left in p.Dir.
func (p *Plot) Create(run bool) error {
	path := filepath.Join(p.Dir, ScriptName)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write macro file: %w", err)
	}
	if err := p.Script(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if !run {
		return nil
	}

	bin, err := exec.LookPath("gnuplot")
	if errors.Is(err, exec.ErrNotFound) {
		log.Warnf("gnuplot not found, run 'gnuplot %s' in %s to draw %s", ScriptName, p.Dir, p.Filename)
		return nil
	}
	if err != nil {
		return err
	}

	cmd := exec.Command(bin, ScriptName)
	cmd.Dir = p.Dir
	var stderr strings.Builder
	cmd.Stderr = &stderr
	log.Debugf("Running gnuplot and waiting for it to finish...")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("gnuplot: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
