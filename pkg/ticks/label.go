package ticks

import (
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Label metrics are measured with a fixed-advance bitmap face and scaled
// to the requested font size.
const (
	DefaultFontSize = 12.0
	DefaultPadding  = 2.0

	faceHeight = 13.0
)

// MeasureLabel returns the unrotated width and height of s at fontSize.
func MeasureLabel(s string, fontSize float64) (w, h float64) {
	if fontSize <= 0 {
		fontSize = DefaultFontSize
	}
	adv := font.MeasureString(basicfont.Face7x13, s)
	return float64(adv) / 64 * fontSize / faceHeight, fontSize
}

// LabelBox returns the axis-aligned bounding box of s rotated by degrees.
func LabelBox(s string, fontSize, degrees float64) (w, h float64) {
	w0, h0 := MeasureLabel(s, fontSize)
	rad := degrees * math.Pi / 180
	sin, cos := math.Abs(math.Sin(rad)), math.Abs(math.Cos(rad))
	return w0*cos + h0*sin, w0*sin + h0*cos
}

// extent returns the interval a tick label occupies along the axis.
func extent(t Tick, opts Options) (lo, hi float64) {
	w, h := LabelBox(t.Label, opts.FontSize, opts.Rotation)
	size := w
	if opts.Vertical {
		size = h
	}
	half := size/2 + opts.Padding
	return t.Position - half, t.Position + half
}

func overlaps(a, b Tick, opts Options) bool {
	alo, ahi := extent(a, opts)
	blo, bhi := extent(b, opts)
	return alo < bhi && blo < ahi
}
