package roofline

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Default intensity span, in FLOP/byte.
const (
	DefaultMinIntensity = 1.0 / 16
	DefaultMaxIntensity = 64
	DefaultSweepPoints  = 11
)

// Sweep returns n log-spaced intensities from lo to hi inclusive.
func Sweep(lo, hi float64, n int) ([]float64, error) {
	if !positive(lo) || !positive(hi) || lo >= hi {
		return nil, fmt.Errorf("intensity range [%v, %v]: %w", lo, hi, ErrInvalidInput)
	}
	if n < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 points, got %d: %w", n, ErrInvalidInput)
	}
	xs := floats.LogSpan(make([]float64, n), lo, hi)
	// exp(log(x)) drifts by an ulp; pin the ends.
	xs[0], xs[n-1] = lo, hi
	return xs, nil
}

// Span widens [lo, hi] by whole powers of two until it holds every ridge
// point and application intensity with some margin on each side.
func Span(lo, hi float64, platforms []Platform, apps []Application) (float64, float64) {
	need := make([]float64, 0, len(platforms)+len(apps))
	for _, p := range platforms {
		need = append(need, p.RidgePoint())
	}
	for _, a := range apps {
		need = append(need, a.Intensity)
	}
	for _, x := range need {
		if !positive(x) {
			continue
		}
		for x/2 < lo {
			lo /= 2
		}
		for x*2 > hi {
			hi *= 2
		}
	}
	return lo, hi
}

// CurveWithRidge evaluates the ceiling of p over xs after inserting the ridge
// point, so the kink between the two roofs lands on a vertex.
func CurveWithRidge(p Platform, xs []float64) ([]float64, []float64) {
	out := make([]float64, 0, len(xs)+1)
	out = append(out, xs...)
	ridge := p.RidgePoint()
	if len(xs) > 0 && ridge > xs[0] && ridge < xs[len(xs)-1] {
		i := sort.SearchFloat64s(out, ridge)
		if out[i] != ridge {
			out = append(out, 0)
			copy(out[i+1:], out[i:])
			out[i] = ridge
		}
	}
	return out, Curve(p, out)
}
