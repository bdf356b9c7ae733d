package scale

import (
	"math"

	mscale "github.com/aclements/go-moremath/scale"

	"github.com/matzehuels/chartflow/pkg/domain"
	"github.com/matzehuels/chartflow/pkg/spec"
)

// Continuous is a linear, log or time scale. Time values are epoch
// milliseconds and map linearly.
type Continuous struct {
	kind      spec.ScaleType
	dom       domain.Domain
	rng       Range
	q         mscale.Quantitative
	base      int
	bandwidth float64
}

var _ Scale = (*Continuous)(nil)

func newContinuous(t spec.ScaleType, d domain.Domain, r Range, base int, opts Options) *Continuous {
	c := &Continuous{kind: t, dom: d, rng: r, base: base}
	if t == spec.ScaleLog {
		if l, err := mscale.NewLog(d.Min, d.Max, base); err == nil {
			c.q = &l
		}
	}
	if c.q == nil {
		c.kind = mapKind(t)
		c.q = &mscale.Linear{Min: d.Min, Max: d.Max}
	}

	if opts.Banded {
		mi := opts.MinInterval
		if mi <= 0 {
			mi = d.Span()
		}
		c.bandwidth = math.Abs(r.Span()) * mi / (d.Span() + mi)
		// Scale returns the low-pixel edge of a band, as Band does, so a
		// reversed range gives up room at its start.
		if r.End >= r.Start {
			c.rng.End -= c.bandwidth
		} else {
			c.rng.Start -= c.bandwidth
		}
	}
	return c
}

func mapKind(t spec.ScaleType) spec.ScaleType {
	if t == spec.ScaleLog {
		return spec.ScaleLinear
	}
	return t
}

func (c *Continuous) Type() spec.ScaleType  { return c.kind }
func (c *Continuous) Domain() domain.Domain { return c.dom }
func (c *Continuous) Range() Range          { return c.rng }
func (c *Continuous) Bandwidth() float64    { return c.bandwidth }
func (c *Continuous) Step() float64         { return c.bandwidth }

// LogBase returns the logarithm base used for log scales.
func (c *Continuous) LogBase() int { return c.base }

// Scale maps a number, or a time, to a pixel.
func (c *Continuous) Scale(v any) (float64, bool) {
	f, ok := spec.ToFloat(v)
	if !ok {
		return 0, false
	}
	px := c.Map(f)
	return px, !math.IsNaN(px)
}

// Map maps a number to a pixel. Values a log scale cannot represent map to NaN.
func (c *Continuous) Map(f float64) float64 {
	return c.rng.Start + c.q.Map(f)*c.rng.Span()
}

// Invert maps a pixel back to a number.
func (c *Continuous) Invert(px float64) (any, bool) {
	span := c.rng.Span()
	if span == 0 {
		return c.dom.Min, true
	}
	f := c.q.Unmap((px - c.rng.Start) / span)
	return f, finite(f)
}
