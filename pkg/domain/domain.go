// Package domain computes the value domains of chart axes.
//
// A continuous domain is a [Min, Max] pair with Min <= Max; an ordinal
// domain is an ordered list of category keys. Domains that cannot be
// computed fall back to [0, 1] with Fallback set and an INVALID_DOMAIN
// diagnostic; they never contain NaN.
package domain

import (
	"math"
	"slices"

	"github.com/samber/lo"

	"github.com/matzehuels/chartflow/pkg/errors"
	"github.com/matzehuels/chartflow/pkg/series"
	"github.com/matzehuels/chartflow/pkg/spec"
	"github.com/matzehuels/chartflow/pkg/stack"
)

// Domain is the computed domain of one axis.
type Domain struct {
	ScaleType  spec.ScaleType `json:"scale_type"`
	Min        float64        `json:"min"`
	Max        float64        `json:"max"`
	Categories []any          `json:"categories,omitempty"`

	// MinInterval is the smallest positive gap between consecutive x
	// values of a continuous x domain, or 0 when there is at most one.
	MinInterval float64 `json:"min_interval,omitempty"`

	// Fallback is set when the domain was substituted.
	Fallback bool `json:"fallback,omitempty"`
}

// IsOrdinal reports whether the domain is a category list.
func (d Domain) IsOrdinal() bool { return d.ScaleType == spec.ScaleOrdinal }

// Span returns Max - Min for continuous domains.
func (d Domain) Span() float64 { return d.Max - d.Min }

// Fallback returns the [0, 1] substitute domain for scale type t.
func Fallback(t spec.ScaleType) Domain {
	if t == spec.ScaleOrdinal {
		return Domain{ScaleType: t, Fallback: true}
	}
	return Domain{ScaleType: t, Min: 0, Max: 1, Fallback: true}
}

// Options tune domain computation.
type Options struct {
	// IncludeFilled lets values supplied by a fit policy extend the domain.
	IncludeFilled bool
}

// ComputeX computes the shared x domain of all series.
func ComputeX(all []series.Series, t spec.ScaleType, override *spec.DomainOverride, diags *errors.Diagnostics) Domain {
	const subject = "x"
	if t == spec.ScaleOrdinal {
		return ordinal(all, override, diags)
	}

	var xs []float64
	for i := range all {
		for _, p := range all[i].Points {
			if f, ok := spec.ToFloat(p.X); ok {
				xs = append(xs, f)
			}
		}
	}
	if len(xs) == 0 {
		diags.Add(errors.ErrCodeInvalidDomain, subject, "no finite x values, using [0, 1]")
		return Fallback(t)
	}
	slices.Sort(xs)
	xs = slices.Compact(xs)

	d := Domain{ScaleType: t, Min: xs[0], Max: xs[len(xs)-1]}
	for i := 1; i < len(xs); i++ {
		if gap := xs[i] - xs[i-1]; d.MinInterval == 0 || gap < d.MinInterval {
			d.MinInterval = gap
		}
	}
	return applyOverride(d, override, subject, diags)
}

func ordinal(all []series.Series, override *spec.DomainOverride, diags *errors.Diagnostics) Domain {
	d := Domain{ScaleType: spec.ScaleOrdinal}
	if override != nil && len(override.Categories) > 0 {
		d.Categories = lo.Uniq(lo.Map(override.Categories, func(c any, _ int) any { return spec.Key(c) }))
		return d
	}
	for i := range all {
		d.Categories = append(d.Categories, all[i].XValues()...)
	}
	d.Categories = lo.Uniq(d.Categories)
	if len(d.Categories) == 0 {
		diags.Add(errors.ErrCodeInvalidDomain, "x", "no categories")
		return Fallback(spec.ScaleOrdinal)
	}
	return d
}

// ComputeY computes the y domain of one axis group from stacked data.
// Stacked series contribute their post-stack bounds; other series their
// y values plus y0 where present.
func ComputeY(group string, res *stack.Result, t spec.ScaleType, override *spec.DomainOverride, opts Options, diags *errors.Diagnostics) Domain {
	subject := "y:" + group
	minV, maxV := math.Inf(1), math.Inf(-1)
	add := func(v float64) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return
		}
		minV, maxV = math.Min(minV, v), math.Max(maxV, v)
	}

	for i := range res.Series {
		s := &res.Series[i]
		if s.GroupID != group {
			continue
		}
		for _, d := range s.Data {
			if d.Missing || (d.Filled && !opts.IncludeFilled) {
				continue
			}
			add(d.Y1)
			if d.Banded {
				add(d.Y0)
			}
		}
	}

	if minV > maxV {
		diags.Add(errors.ErrCodeInvalidDomain, subject, "no finite y values, using [0, 1]")
		return Fallback(t)
	}

	d := Domain{ScaleType: t, Min: minV, Max: maxV}
	fit := override != nil && override.Fit
	if t == spec.ScaleLinear && !fit {
		d.Min, d.Max = math.Min(d.Min, 0), math.Max(d.Max, 0)
	}
	return applyOverride(d, override, subject, diags)
}

// applyOverride replaces each side that has a custom bound. An override
// that would invert the domain is ignored.
func applyOverride(d Domain, o *spec.DomainOverride, subject string, diags *errors.Diagnostics) Domain {
	if o == nil {
		return d
	}
	next := d
	if o.Min != nil {
		next.Min = *o.Min
	}
	if o.Max != nil {
		next.Max = *o.Max
	}
	if math.IsNaN(next.Min) || math.IsNaN(next.Max) || next.Min > next.Max {
		diags.Add(errors.ErrCodeInvalidDomain, subject,
			"custom domain [%g, %g] is invalid for data [%g, %g]; ignored", next.Min, next.Max, d.Min, d.Max)
		return d
	}
	return next
}
