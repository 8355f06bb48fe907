// Package csvio reads and writes the hardware and application tables.
//
// Hardware rows are
//
//	name, peak_compute_gflops, peak_bandwidth_gbs[, price]
//
// and application rows are
//
//	name, intensity[, throughput_gflops[, impl_name, impl_throughput_gflops]...]
//
// Lines starting with '#' are comments.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/moebiusband73/roofline/roofline"
)

// ErrFieldCount is wrapped by a ParseError for rows of the wrong width.
var ErrFieldCount = errors.New("wrong number of fields")

// ParseError reports the source and line of a row that could not be used.
type ParseError struct {
	Source string
	Line   int
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Source, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

type row struct {
	line   int
	fields []string
}

func readRows(r io.Reader, source string) ([]row, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows []row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, &ParseError{Source: source, Line: perr.Line, Err: perr.Err}
			}
			return nil, fmt.Errorf("%s: %w", source, err)
		}
		line, _ := cr.FieldPos(0)
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		// cr.Comment only matches in the first column
		if strings.HasPrefix(rec[0], "#") {
			continue
		}
		rows = append(rows, row{line: line, fields: rec})
	}
}

func (rw row) float(source string, i int, what string) (float64, error) {
	v, err := strconv.ParseFloat(rw.fields[i], 64)
	if err != nil {
		return 0, &ParseError{Source: source, Line: rw.line, Err: fmt.Errorf("%s %q is not a number", what, rw.fields[i])}
	}
	if !(v > 0) || math.IsInf(v, 1) {
		return 0, &ParseError{Source: source, Line: rw.line, Err: fmt.Errorf("%s %v: %w", what, v, roofline.ErrInvalidInput)}
	}
	return v, nil
}

// ReadPlatforms parses a hardware table. source names the input in errors.
func ReadPlatforms(r io.Reader, source string) ([]roofline.Platform, error) {
	rows, err := readRows(r, source)
	if err != nil {
		return nil, err
	}
	platforms := make([]roofline.Platform, 0, len(rows))
	for _, rw := range rows {
		if n := len(rw.fields); n != 3 && n != 4 {
			return nil, &ParseError{Source: source, Line: rw.line,
				Err: fmt.Errorf("%w: hardware rows have 3 or 4 fields, got %d", ErrFieldCount, n)}
		}
		p := roofline.Platform{Name: rw.fields[0]}
		if p.PeakCompute, err = rw.float(source, 1, "peak compute"); err != nil {
			return nil, err
		}
		if p.PeakBandwidth, err = rw.float(source, 2, "peak bandwidth"); err != nil {
			return nil, err
		}
		if len(rw.fields) == 4 {
			if p.Price, err = rw.float(source, 3, "price"); err != nil {
				return nil, err
			}
		}
		platforms = append(platforms, p)
	}
	return platforms, nil
}

// ReadApplications parses an application table. A row with only a name and
// an intensity yields an application without measurements.
func ReadApplications(r io.Reader, source string) ([]roofline.Application, error) {
	rows, err := readRows(r, source)
	if err != nil {
		return nil, err
	}
	apps := make([]roofline.Application, 0, len(rows))
	for _, rw := range rows {
		n := len(rw.fields)
		if n < 2 || (n > 2 && (n-3)%2 != 0) {
			return nil, &ParseError{Source: source, Line: rw.line,
				Err: fmt.Errorf("%w: application rows have 2 fields or 3 plus name/throughput pairs, got %d", ErrFieldCount, n)}
		}
		app := roofline.Application{Name: rw.fields[0]}
		if app.Intensity, err = rw.float(source, 1, "intensity"); err != nil {
			return nil, err
		}
		if n > 2 {
			v, err := rw.float(source, 2, "throughput")
			if err != nil {
				return nil, err
			}
			app.Add("", v)
		}
		for i := 3; i+1 < n; i += 2 {
			label := rw.fields[i]
			if label == "" {
				return nil, &ParseError{Source: source, Line: rw.line, Err: fmt.Errorf("empty implementation name in field %d", i+1)}
			}
			v, err := rw.float(source, i+1, "throughput of "+label)
			if err != nil {
				return nil, err
			}
			app.Add(label, v)
		}
		apps = append(apps, app)
	}
	return apps, nil
}

// ReadPlatformsFile opens path and parses it with ReadPlatforms.
func ReadPlatformsFile(path string) ([]roofline.Platform, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadPlatforms(f, path)
}

// ReadApplicationsFile opens path and parses it with ReadApplications.
func ReadApplicationsFile(path string) ([]roofline.Application, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadApplications(f, path)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WritePlatforms writes platforms in the format ReadPlatforms accepts. The
// price column is only written for platforms that have one.
func WritePlatforms(w io.Writer, platforms []roofline.Platform) error {
	cw := csv.NewWriter(w)
	for _, p := range platforms {
		rec := []string{p.Name, formatFloat(p.PeakCompute), formatFloat(p.PeakBandwidth)}
		if p.Price != 0 {
			rec = append(rec, formatFloat(p.Price))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteApplications writes applications in the format ReadApplications
// accepts. The unlabeled measurement, or the first one when all are labeled,
// goes in the unnamed throughput column; in the latter case its label does
// not survive a round trip.
func WriteApplications(w io.Writer, apps []roofline.Application) error {
	cw := csv.NewWriter(w)
	for _, a := range apps {
		ms, err := defaultFirst(a)
		if err != nil {
			return err
		}
		rec := []string{a.Name, formatFloat(a.Intensity)}
		for i, m := range ms {
			if i > 0 {
				rec = append(rec, m.Label)
			}
			rec = append(rec, formatFloat(m.Throughput))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// defaultFirst moves the unlabeled measurement of a to the front. Two
// unlabeled measurements cannot be told apart in a row.
func defaultFirst(a roofline.Application) ([]roofline.Measurement, error) {
	ms := make([]roofline.Measurement, 0, len(a.Measurements))
	for _, m := range a.Measurements {
		if m.Label != "" {
			ms = append(ms, m)
			continue
		}
		if len(ms) > 0 && ms[0].Label == "" {
			return nil, fmt.Errorf("application %q: more than one unnamed implementation", a.Name)
		}
		ms = append([]roofline.Measurement{m}, ms...)
	}
	return ms, nil
}

// WriteApplicationsFile creates path and writes apps to it.
func WriteApplicationsFile(path string, apps []roofline.Application) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteApplications(f, apps); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
