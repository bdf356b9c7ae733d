package series

import (
	"math"

	"github.com/matzehuels/chartflow/pkg/spec"
)

// ApplyFit fills missing points in place according to fit. Points must be
// in x order. When numericX is set, nearest and linear fits measure
// distance along x; otherwise they use the point index.
//
// Filled points clear Missing and set Filled. Points that no neighbour can
// fill stay missing.
func ApplyFit(points []DataPoint, fit spec.Fit, numericX bool) {
	if !fit.Active() || len(points) == 0 {
		return
	}

	prev := make([]int, len(points))
	next := make([]int, len(points))
	known := -1
	for i, p := range points {
		prev[i] = known
		if !p.Missing {
			known = i
		}
	}
	known = -1
	for i := len(points) - 1; i >= 0; i-- {
		next[i] = known
		if !points[i].Missing {
			known = i
		}
	}

	pos := func(i int) float64 {
		if numericX {
			if f, ok := spec.ToFloat(points[i].X); ok {
				return f
			}
		}
		return float64(i)
	}

	for i := range points {
		if !points[i].Missing {
			continue
		}
		p, n := prev[i], next[i]
		var y1, y0 float64
		ok := true

		switch fit.Type {
		case spec.FitZero:
			y1, y0 = 0, 0
		case spec.FitExplicit:
			y1, y0 = fit.Value, 0
		case spec.FitCarry:
			ok = p >= 0
			if ok {
				y1, y0 = points[p].Y1, points[p].Y0
			}
		case spec.FitLookahead:
			ok = n >= 0
			if ok {
				y1, y0 = points[n].Y1, points[n].Y0
			}
		case spec.FitNearest:
			src := nearest(p, n, pos(i), pos)
			ok = src >= 0
			if ok {
				y1, y0 = points[src].Y1, points[src].Y0
			}
		case spec.FitAverage, spec.FitLinear:
			if p < 0 || n < 0 {
				y1, y0, ok = endFill(points, fit, p, n, pos(i), pos)
				break
			}
			t := 0.5
			if fit.Type == spec.FitLinear {
				if span := pos(n) - pos(p); span != 0 {
					t = (pos(i) - pos(p)) / span
				}
			}
			y1 = lerp(points[p].Y1, points[n].Y1, t)
			y0 = lerp(points[p].Y0, points[n].Y0, t)
		default:
			ok = false
		}

		if ok {
			points[i].Y1, points[i].Y0 = y1, y0
			points[i].Missing, points[i].Filled = false, true
		}
	}
}

// nearest picks the closer of two known neighbours; ties go to the previous one.
func nearest(p, n int, at float64, pos func(int) float64) int {
	switch {
	case p < 0:
		return n
	case n < 0:
		return p
	}
	if math.Abs(at-pos(p)) <= math.Abs(pos(n)-at) {
		return p
	}
	return n
}

func endFill(points []DataPoint, fit spec.Fit, p, n int, at float64, pos func(int) float64) (y1, y0 float64, ok bool) {
	if fit.EndValue != nil {
		return *fit.EndValue, 0, true
	}
	if fit.EndNearest {
		src := nearest(p, n, at, pos)
		if src >= 0 {
			return points[src].Y1, points[src].Y0, true
		}
	}
	return 0, 0, false
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
