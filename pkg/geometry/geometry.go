// Package geometry turns stacked series and their scales into renderable
// primitives: bar rectangles, line and area paths, and point markers.
//
// All coordinates are pixels inside the plot area with the origin at the
// top left and y growing downwards. Every primitive carries a [Ref] back
// to the series and row it came from so that hit testing can resolve a
// pixel to source data without rerunning the pipeline.
package geometry

import (
	"github.com/matzehuels/chartflow/pkg/scale"
	"github.com/matzehuels/chartflow/pkg/spec"
	"github.com/matzehuels/chartflow/pkg/stack"
)

// DefaultPointRadius is the marker radius when Options.PointRadius is zero.
const DefaultPointRadius = 3.0

// Ref identifies the source of a primitive.
type Ref struct {
	SeriesKey string `json:"series_key"`
	SpecID    string `json:"spec_id"`
	Category  any    `json:"category"`
	Row       int    `json:"row"`
	Raw       any    `json:"-"`
}

func refOf(s *stack.StackedSeries, d stack.Datum) Ref {
	return Ref{SeriesKey: s.Key, SpecID: s.SpecID, Category: d.Category, Row: d.Row, Raw: d.Raw}
}

// Rect is an axis-aligned rectangle in screen space.
type Rect struct {
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// Width returns the horizontal span of the rectangle.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns the vertical span of the rectangle.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// CenterX returns the horizontal center point of the rectangle.
func (r Rect) CenterX() float64 { return (r.Left + r.Right) / 2 }

// CenterY returns the vertical center point of the rectangle.
func (r Rect) CenterY() float64 { return (r.Top + r.Bottom) / 2 }

// Contains reports whether (x, y) lies inside r, edges included.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.Left && x <= r.Right && y >= r.Top && y <= r.Bottom
}

// Bar is one bar rectangle.
type Bar struct {
	Rect
	Value  float64 `json:"value"`
	Filled bool    `json:"filled,omitempty"`
	Ref    Ref     `json:"ref"`
}

// Geometry is everything drawn for one series.
type Geometry struct {
	SeriesKey string          `json:"series_key"`
	SpecID    string          `json:"spec_id"`
	Kind      spec.SeriesKind `json:"kind"`
	Color     string          `json:"color,omitempty"`
	Curve     spec.Curve      `json:"curve,omitempty"`

	Bars   []Bar   `json:"bars,omitempty"`
	Points []Point `json:"points,omitempty"`

	// Segments are runs of consecutive drawable points. Missing values
	// that no fit filled end a segment.
	Segments [][]Point `json:"segments,omitempty"`
	Line     Path      `json:"line,omitempty"`
	Area     Path      `json:"area,omitempty"`
}

// Options controls geometry building.
type Options struct {
	// Rotation is the chart rotation in degrees: 0, 90, -90 or 180.
	Rotation    int
	PointRadius float64
}

func (o Options) withDefaults() Options {
	if o.PointRadius <= 0 {
		o.PointRadius = DefaultPointRadius
	}
	return o
}

// swapped reports whether the category axis runs vertically.
func (o Options) swapped() bool { return o.Rotation == 90 || o.Rotation == -90 }

// screen maps a (category pixel, value pixel) pair to screen space.
func (o Options) screen(cat, val float64) Vec {
	if o.swapped() {
		return Vec{X: val, Y: cat}
	}
	return Vec{X: cat, Y: val}
}

// AxisRanges returns the pixel ranges of the x (category) and y (value)
// scales for a plot area of width by height at the given rotation.
func AxisRanges(rotation int, width, height float64) (x, y scale.Range) {
	switch rotation {
	case 90:
		return scale.Range{Start: 0, End: height}, scale.Range{Start: 0, End: width}
	case -90:
		return scale.Range{Start: height, End: 0}, scale.Range{Start: width, End: 0}
	case 180:
		return scale.Range{Start: width, End: 0}, scale.Range{Start: 0, End: height}
	}
	return scale.Range{Start: 0, End: width}, scale.Range{Start: height, End: 0}
}

// Build builds the geometry of every series in ss, in order. yScales maps
// a group id to the y scale of that group; series whose group has no
// scale are skipped. Bars that are not stacked together share their band
// side by side.
func Build(ss []stack.StackedSeries, x scale.Scale, yScales map[string]scale.Scale, opts Options) []Geometry {
	slots := barSlots(ss)
	out := make([]Geometry, 0, len(ss))
	for i := range ss {
		s := &ss[i]
		y, ok := yScales[s.GroupID]
		if !ok {
			continue
		}
		switch s.Kind {
		case spec.KindBar:
			out = append(out, BuildBars(s, x, y, slots[i], opts))
		case spec.KindLine:
			out = append(out, BuildLine(s, x, y, opts))
		case spec.KindArea:
			out = append(out, BuildArea(s, x, y, opts))
		default:
			out = append(out, BuildPoints(s, x, y, opts))
		}
	}
	return out
}

func newGeometry(s *stack.StackedSeries) Geometry {
	return Geometry{SeriesKey: s.Key, SpecID: s.SpecID, Kind: s.Kind, Color: s.Color, Curve: s.Curve}
}

// valueBaseline returns the value the bars and areas of an unbanded
// series grow from: zero when the domain contains it, else the domain
// bound nearest to zero.
func valueBaseline(y scale.Scale) float64 {
	d := y.Domain()
	if y.Type() == spec.ScaleLog {
		if d.Min > 0 {
			return d.Min
		}
		return d.Max
	}
	switch {
	case d.Min > 0:
		return d.Min
	case d.Max < 0:
		return d.Max
	}
	return 0
}

// valuePixels maps a datum's bottom and top to pixels.
func valuePixels(y scale.Scale, d stack.Datum) (y0, y1 float64, ok bool) {
	y1, ok = y.Scale(d.Y1)
	if !ok {
		return 0, 0, false
	}
	base := d.Y0
	if !d.Banded || (y.Type() == spec.ScaleLog && base <= 0) {
		base = valueBaseline(y)
	}
	y0, ok = y.Scale(base)
	if !ok {
		y0, _ = y.Scale(valueBaseline(y))
	}
	return y0, y1, true
}
