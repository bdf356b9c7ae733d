package geometry

import (
	"github.com/matzehuels/chartflow/pkg/scale"
	"github.com/matzehuels/chartflow/pkg/stack"
)

// Point is one data point in screen space. X0 and Y0 locate the bottom
// of the point's band, which areas close against.
type Point struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	X0     float64 `json:"x0"`
	Y0     float64 `json:"y0"`
	Radius float64 `json:"radius"`
	Value  float64 `json:"value"`
	Filled bool    `json:"filled,omitempty"`
	Ref    Ref     `json:"ref"`
}

func (p Point) vec() Vec  { return Vec{p.X, p.Y} }
func (p Point) base() Vec { return Vec{p.X0, p.Y0} }

// segments splits the data of s into runs of drawable points. Missing
// values break a run; filled values bridge it.
func segments(s *stack.StackedSeries, x, y scale.Scale, opts Options) [][]Point {
	var (
		out [][]Point
		cur []Point
	)
	flush := func() {
		if len(cur) > 0 {
			out = append(out, cur)
			cur = nil
		}
	}
	half := x.Bandwidth() / 2
	for _, d := range s.Data {
		if d.Missing {
			flush()
			continue
		}
		c, ok := x.Scale(d.Category)
		if !ok {
			flush()
			continue
		}
		v0, v1, ok := valuePixels(y, d)
		if !ok {
			flush()
			continue
		}
		top, bottom := opts.screen(c+half, v1), opts.screen(c+half, v0)
		cur = append(cur, Point{
			X:      top.X,
			Y:      top.Y,
			X0:     bottom.X,
			Y0:     bottom.Y,
			Radius: opts.PointRadius,
			Value:  d.Base,
			Filled: d.Filled,
			Ref:    refOf(s, d),
		})
	}
	flush()
	return out
}

func flatten(segs [][]Point) []Point {
	var out []Point
	for _, seg := range segs {
		out = append(out, seg...)
	}
	return out
}

// BuildPoints builds one marker per drawable datum of s.
func BuildPoints(s *stack.StackedSeries, x, y scale.Scale, opts Options) Geometry {
	opts = opts.withDefaults()
	g := newGeometry(s)
	g.Points = flatten(segments(s, x, y, opts))
	return g
}

// BuildLine builds the line path of s, one subpath per segment, drawn
// with the series curve.
func BuildLine(s *stack.StackedSeries, x, y scale.Scale, opts Options) Geometry {
	opts = opts.withDefaults()
	g := newGeometry(s)
	g.Segments = segments(s, x, y, opts)
	g.Points = flatten(g.Segments)
	for _, seg := range g.Segments {
		g.Line = append(g.Line, Interpolate(s.Curve, tops(seg))...)
	}
	return g
}

// BuildArea builds the filled area of s: for each segment the curve along
// the tops, back along the bottoms, closed. Line holds the top edge.
func BuildArea(s *stack.StackedSeries, x, y scale.Scale, opts Options) Geometry {
	g := BuildLine(s, x, y, opts)
	for _, seg := range g.Segments {
		upper := Interpolate(s.Curve, tops(seg))
		lower := Interpolate(s.Curve, reversedBases(seg))
		if len(lower) > 0 {
			lower[0].Op = OpLine
		}
		g.Area = append(g.Area, upper...)
		g.Area = append(g.Area, lower...)
		g.Area.close()
	}
	return g
}

func tops(seg []Point) []Vec {
	out := make([]Vec, len(seg))
	for i, p := range seg {
		out[i] = p.vec()
	}
	return out
}

func reversedBases(seg []Point) []Vec {
	out := make([]Vec, len(seg))
	for i, p := range seg {
		out[len(seg)-1-i] = p.base()
	}
	return out
}
