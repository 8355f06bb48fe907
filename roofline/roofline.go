// Package roofline computes roofline ceilings for hardware platforms and
// places application measurements against them.
//
// Compute throughput is in GFLOP/s, bandwidth in GB/s and arithmetic
// intensity in FLOP/byte.
package roofline

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned for values that cannot be placed on log axes.
var ErrInvalidInput = errors.New("invalid input")

// Platform describes the peak capabilities of one piece of hardware.
type Platform struct {
	Name          string
	PeakCompute   float64 // GFLOP/s
	PeakBandwidth float64 // GB/s
	Price         float64 // optional, 0 when unknown
}

// Measurement is one achieved throughput at a given intensity.
type Measurement struct {
	Intensity  float64 // FLOP/byte
	Throughput float64 // GFLOP/s
	Label      string
}

// Application groups the measurements of several implementations of the
// same kernel. All of them share the application's intensity.
type Application struct {
	Name         string
	Intensity    float64
	Measurements []Measurement
}

// Bound tells which roof limits a measurement.
type Bound int

const (
	MemoryBound Bound = iota
	ComputeBound
)

func (b Bound) String() string {
	switch b {
	case MemoryBound:
		return "memory-bound"
	case ComputeBound:
		return "compute-bound"
	}
	return fmt.Sprintf("Bound(%d)", int(b))
}

// RidgePoint is the intensity where the bandwidth roof meets the compute roof.
func (p Platform) RidgePoint() float64 {
	return p.PeakCompute / p.PeakBandwidth
}

// Ceiling returns the attainable throughput of p at the given intensity.
func Ceiling(intensity float64, p Platform) float64 {
	return math.Min(p.PeakCompute, intensity*p.PeakBandwidth)
}

// Curve evaluates the ceiling of p at every intensity.
func Curve(p Platform, intensities []float64) []float64 {
	ys := make([]float64, len(intensities))
	for i, x := range intensities {
		ys[i] = Ceiling(x, p)
	}
	return ys
}

// Classify reports whether m sits left (memory-bound) or right
// (compute-bound) of the ridge point of p.
func Classify(m Measurement, p Platform) Bound {
	if m.Intensity < p.RidgePoint() {
		return MemoryBound
	}
	return ComputeBound
}

// Efficiency is the fraction of the ceiling that m achieves on p.
func Efficiency(m Measurement, p Platform) float64 {
	return m.Throughput / Ceiling(m.Intensity, p)
}

// Normalize scales the roofs of p by its price, giving MFLOP/s and MB/s per
// currency unit.
func Normalize(p Platform) (Platform, error) {
	if !positive(p.Price) {
		return Platform{}, fmt.Errorf("platform %q: price %v: %w", p.Name, p.Price, ErrInvalidInput)
	}
	return Platform{
		Name:          p.Name,
		PeakCompute:   p.PeakCompute * 1e3 / p.Price,
		PeakBandwidth: p.PeakBandwidth * 1e3 / p.Price,
		Price:         p.Price,
	}, nil
}

// Validate checks that both roofs are usable on log axes. A zero price means
// unknown; a negative one is rejected.
func (p Platform) Validate() error {
	if !positive(p.PeakCompute) {
		return fmt.Errorf("platform %q: peak compute %v: %w", p.Name, p.PeakCompute, ErrInvalidInput)
	}
	if !positive(p.PeakBandwidth) {
		return fmt.Errorf("platform %q: peak bandwidth %v: %w", p.Name, p.PeakBandwidth, ErrInvalidInput)
	}
	if p.Price < 0 || math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
		return fmt.Errorf("platform %q: price %v: %w", p.Name, p.Price, ErrInvalidInput)
	}
	return nil
}

// Validate checks the application intensity and every measurement.
func (a Application) Validate() error {
	if !positive(a.Intensity) {
		return fmt.Errorf("application %q: intensity %v: %w", a.Name, a.Intensity, ErrInvalidInput)
	}
	for _, m := range a.Measurements {
		if m.Intensity != a.Intensity {
			return fmt.Errorf("application %q: implementation %q intensity %v differs from %v: %w",
				a.Name, m.Label, m.Intensity, a.Intensity, ErrInvalidInput)
		}
		if !positive(m.Throughput) {
			return fmt.Errorf("application %q: implementation %q throughput %v: %w",
				a.Name, m.Label, m.Throughput, ErrInvalidInput)
		}
	}
	return nil
}

// Add appends an implementation measured at the application's intensity.
func (a *Application) Add(label string, throughput float64) {
	a.Measurements = append(a.Measurements, Measurement{
		Intensity:  a.Intensity,
		Throughput: throughput,
		Label:      label,
	})
}

// ValidateAll runs Validate on every platform and application and returns the
// first failure.
func ValidateAll(platforms []Platform, apps []Application) error {
	if len(platforms) == 0 {
		return fmt.Errorf("no hardware platforms: %w", ErrInvalidInput)
	}
	for _, p := range platforms {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	for _, a := range apps {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
