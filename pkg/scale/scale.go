// Package scale maps domain values to pixel positions.
//
// Continuous scales (linear, log, time) wrap the go-moremath quantitative
// scales and stretch their [0, 1] output over a pixel [Range]. Ordinal
// scales divide the range into equal bands, one per category.
//
// Scales are pure values: Scale and Invert never mutate them, and
// Invert(Scale(v)) returns v up to floating point error for every v in a
// continuous domain.
package scale

import (
	"math"

	"github.com/matzehuels/chartflow/pkg/domain"
	"github.com/matzehuels/chartflow/pkg/errors"
	"github.com/matzehuels/chartflow/pkg/spec"
)

// DefaultLogBase is used when Options.LogBase is zero.
const DefaultLogBase = 10

// Range is a pixel interval. Start may be greater than End, as for y
// axes that grow upwards.
type Range struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Span returns End - Start.
func (r Range) Span() float64 { return r.End - r.Start }

// Min returns the smaller end of the range.
func (r Range) Min() float64 { return math.Min(r.Start, r.End) }

// Max returns the larger end of the range.
func (r Range) Max() float64 { return math.Max(r.Start, r.End) }

// Scale maps domain values to pixels.
type Scale interface {
	// Type is the effective scale type, which may differ from the
	// requested one after a downgrade.
	Type() spec.ScaleType

	// Scale maps v to a pixel position. For band scales the position is
	// the start of the band. It reports false for values outside an
	// ordinal domain and for values a continuous scale cannot map.
	Scale(v any) (float64, bool)

	// Invert maps a pixel position back to a domain value.
	Invert(px float64) (any, bool)

	// Bandwidth is the width of one band, or 0 for unbanded scales.
	Bandwidth() float64

	// Step is the distance between the starts of adjacent bands.
	Step() float64

	Domain() domain.Domain
	Range() Range
}

// Options tune scale construction.
type Options struct {
	// LogBase is the logarithm base of log scales.
	LogBase int

	// Padding is the inner and outer padding of band scales as a
	// fraction of the step.
	Padding spec.Padding

	// Banded reserves room for one band of MinInterval at the end of a
	// continuous range so that bars on continuous x axes fit.
	Banded      bool
	MinInterval float64
}

// New builds a scale of type t over d, mapped onto r.
//
// Continuous domains with NaN or infinite bounds are rejected with
// INVALID_DOMAIN; callers substitute a fallback domain first. A log scale
// over a domain that includes zero is built as linear instead, with an
// UNSUPPORTED_SCALE_COMBINATION diagnostic.
func New(t spec.ScaleType, d domain.Domain, r Range, opts Options, diags *errors.Diagnostics) (Scale, error) {
	if err := errors.ValidateRange(r.Start, r.End); err != nil {
		return nil, err
	}
	if t == spec.ScaleOrdinal {
		return newBand(d, r, opts.Padding), nil
	}
	if !finite(d.Min) || !finite(d.Max) {
		return nil, errors.New(errors.ErrCodeInvalidDomain, "%s domain [%g, %g] is not finite", t, d.Min, d.Max)
	}
	if d.Min > d.Max {
		return nil, errors.New(errors.ErrCodeInvalidDomain, "%s domain [%g, %g] is inverted", t, d.Min, d.Max)
	}

	base := opts.LogBase
	if base == 0 {
		base = DefaultLogBase
	}
	if t == spec.ScaleLog && d.Min <= 0 && d.Max >= 0 {
		diags.Add(errors.ErrCodeUnsupportedScale, "scale",
			"log scale cannot span [%g, %g]; using linear", d.Min, d.Max)
		t = spec.ScaleLinear
	}
	d.ScaleType = t
	return newContinuous(t, pad(t, d, base), r, base, opts), nil
}

// pad widens a zero-width domain so that it still maps to a usable range.
func pad(t spec.ScaleType, d domain.Domain, base int) domain.Domain {
	if d.Min != d.Max {
		return d
	}
	if t == spec.ScaleLog {
		b := float64(base)
		if d.Min > 0 {
			d.Min, d.Max = d.Min/b, d.Max*b
		} else {
			d.Min, d.Max = d.Min*b, d.Max/b
		}
		return d
	}
	d.Min -= 0.5
	d.Max += 0.5
	return d
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
