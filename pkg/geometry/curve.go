package geometry

import (
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/chartflow/pkg/spec"
)

// Vec is a point in screen space.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Op is a path command.
type Op string

const (
	OpMove  Op = "M"
	OpLine  Op = "L"
	OpCubic Op = "C"
	OpClose Op = "Z"
)

// Command is one path command with its coordinates: one point for M and
// L, two control points and an end point for C, none for Z.
type Command struct {
	Op  Op    `json:"op"`
	Pts []Vec `json:"pts,omitempty"`
}

// Path is a sequence of commands in SVG path semantics.
type Path []Command

func (p *Path) move(v Vec) { *p = append(*p, Command{Op: OpMove, Pts: []Vec{v}}) }
func (p *Path) line(v Vec) { *p = append(*p, Command{Op: OpLine, Pts: []Vec{v}}) }
func (p *Path) close()     { *p = append(*p, Command{Op: OpClose}) }
func (p *Path) cubic(c1, c2, v Vec) {
	*p = append(*p, Command{Op: OpCubic, Pts: []Vec{c1, c2, v}})
}

// String renders the path as SVG path data with coordinates rounded to
// three decimals.
func (p Path) String() string {
	var b strings.Builder
	for _, c := range p {
		b.WriteString(string(c.Op))
		for i, v := range c.Pts {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(coord(v.X))
			b.WriteByte(',')
			b.WriteString(coord(v.Y))
		}
	}
	return b.String()
}

func coord(f float64) string {
	r := math.Round(f*1000) / 1000
	if r == 0 {
		r = 0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// End returns the last point the path reaches.
func (p Path) End() (Vec, bool) {
	for i := len(p) - 1; i >= 0; i-- {
		if n := len(p[i].Pts); n > 0 {
			return p[i].Pts[n-1], true
		}
	}
	return Vec{}, false
}

// Interpolate returns the path through pts drawn with curve. The points
// themselves are not moved; curves only add control points or corners
// between them. Unknown curves draw straight lines.
func Interpolate(curve spec.Curve, pts []Vec) Path {
	if len(pts) == 0 {
		return nil
	}
	var p Path
	p.move(pts[0])
	if len(pts) == 1 {
		return p
	}
	switch curve {
	case spec.CurveStep:
		for i := 1; i < len(pts); i++ {
			xm := (pts[i-1].X + pts[i].X) / 2
			p.line(Vec{xm, pts[i-1].Y})
			p.line(Vec{xm, pts[i].Y})
			p.line(pts[i])
		}
	case spec.CurveStepBefore:
		for i := 1; i < len(pts); i++ {
			p.line(Vec{pts[i-1].X, pts[i].Y})
			p.line(pts[i])
		}
	case spec.CurveStepAfter:
		for i := 1; i < len(pts); i++ {
			p.line(Vec{pts[i].X, pts[i-1].Y})
			p.line(pts[i])
		}
	case spec.CurveBasis:
		basis(&p, pts)
	case spec.CurveCardinal:
		cardinal(&p, pts, 0)
	case spec.CurveMonotoneX:
		monotoneX(&p, pts)
	case spec.CurveNatural:
		natural(&p, pts)
	default:
		for _, v := range pts[1:] {
			p.line(v)
		}
	}
	return p
}

// basis draws a uniform cubic B-spline clamped to the end points.
func basis(p *Path, pts []Vec) {
	if len(pts) == 2 {
		p.line(pts[1])
		return
	}
	seg := func(a, b, c Vec) {
		p.cubic(
			Vec{(2*a.X + b.X) / 3, (2*a.Y + b.Y) / 3},
			Vec{(a.X + 2*b.X) / 3, (a.Y + 2*b.Y) / 3},
			Vec{(a.X + 4*b.X + c.X) / 6, (a.Y + 4*b.Y + c.Y) / 6},
		)
	}
	a, b := pts[0], pts[1]
	p.line(Vec{(5*a.X + b.X) / 6, (5*a.Y + b.Y) / 6})
	for _, c := range pts[2:] {
		seg(a, b, c)
		a, b = b, c
	}
	seg(a, b, b)
	p.line(b)
}

// cardinal draws a cardinal spline with the given tension in [0, 1].
func cardinal(p *Path, pts []Vec, tension float64) {
	if len(pts) == 2 {
		p.line(pts[1])
		return
	}
	k := (1 - tension) / 6
	last := len(pts) - 2
	for i := 0; i <= last; i++ {
		p1, p2 := pts[i], pts[i+1]
		// End tangents reflect the neighbouring point.
		p0, p3 := p2, p1
		if i > 0 {
			p0 = pts[i-1]
		}
		if i < last {
			p3 = pts[i+2]
		}
		p.cubic(
			Vec{p1.X + k*(p2.X-p0.X), p1.Y + k*(p2.Y-p0.Y)},
			Vec{p2.X + k*(p1.X-p3.X), p2.Y + k*(p1.Y-p3.Y)},
			p2,
		)
	}
}

// monotoneX draws a cubic spline that preserves monotonicity in y,
// assuming pts are ordered by x (Steffen's method).
func monotoneX(p *Path, pts []Vec) {
	n := len(pts)
	if n == 2 {
		p.line(pts[1])
		return
	}
	t := make([]float64, n)
	for i := 1; i < n-1; i++ {
		t[i] = slope3(pts[i-1], pts[i], pts[i+1])
	}
	t[0] = slope2(pts[0], pts[1], t[1])
	t[n-1] = slope2(pts[n-2], pts[n-1], t[n-2])
	for i := 0; i+1 < n; i++ {
		a, b := pts[i], pts[i+1]
		dx := (b.X - a.X) / 3
		p.cubic(Vec{a.X + dx, a.Y + dx*t[i]}, Vec{b.X - dx, b.Y - dx*t[i+1]}, b)
	}
}

func signOf(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

func secant(a, b Vec) float64 {
	h := b.X - a.X
	if h == 0 {
		return 0
	}
	return (b.Y - a.Y) / h
}

func slope3(a, b, c Vec) float64 {
	h0, h1 := b.X-a.X, c.X-b.X
	s0, s1 := secant(a, b), secant(b, c)
	if h0+h1 == 0 {
		return 0
	}
	q := (s0*h1 + s1*h0) / (h0 + h1)
	m := (signOf(s0) + signOf(s1)) * math.Min(math.Min(math.Abs(s0), math.Abs(s1)), 0.5*math.Abs(q))
	if math.IsNaN(m) {
		return 0
	}
	return m
}

func slope2(a, b Vec, t float64) float64 {
	h := b.X - a.X
	if h == 0 {
		return t
	}
	return (3*(b.Y-a.Y)/h - t) / 2
}

// natural draws a natural cubic spline (zero second derivative at the
// ends) through pts.
func natural(p *Path, pts []Vec) {
	n := len(pts)
	if n == 2 {
		p.line(pts[1])
		return
	}
	xs, ys := make([]float64, n), make([]float64, n)
	for i, v := range pts {
		xs[i], ys[i] = v.X, v.Y
	}
	ax, bx := controlPoints(xs)
	ay, by := controlPoints(ys)
	for i := 0; i < n-1; i++ {
		p.cubic(Vec{ax[i], ay[i]}, Vec{bx[i], by[i]}, pts[i+1])
	}
}

// controlPoints solves the tridiagonal system for the first and second
// control points of each natural spline segment.
func controlPoints(x []float64) (a, b []float64) {
	n := len(x) - 1
	a, b = make([]float64, n), make([]float64, n)
	r := make([]float64, n)
	a[0], b[0], r[0] = 0, 2, x[0]+2*x[1]
	for i := 1; i < n-1; i++ {
		a[i], b[i], r[i] = 1, 4, 4*x[i]+2*x[i+1]
	}
	a[n-1], b[n-1], r[n-1] = 2, 7, 8*x[n-1]+x[n]
	for i := 1; i < n; i++ {
		m := a[i] / b[i-1]
		b[i] -= m
		r[i] -= m * r[i-1]
	}
	a[n-1] = r[n-1] / b[n-1]
	for i := n - 2; i >= 0; i-- {
		a[i] = (r[i] - a[i+1]) / b[i]
	}
	b[n-1] = (x[n] + a[n-1]) / 2
	for i := 0; i < n-1; i++ {
		b[i] = 2*x[i+1] - a[i+1]
	}
	return a, b
}
