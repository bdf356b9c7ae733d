package scale

import (
	"math"

	"github.com/matzehuels/chartflow/pkg/domain"
	"github.com/matzehuels/chartflow/pkg/spec"
)

// Band is an ordinal scale that divides its range into one band per
// category, in domain order.
type Band struct {
	dom       domain.Domain
	rng       Range
	index     map[any]int
	start     float64
	step      float64
	bandwidth float64
	reverse   bool
}

var _ Scale = (*Band)(nil)

// newBand lays out bands the way d3's scaleBand does with align 0.5.
func newBand(d domain.Domain, r Range, p spec.Padding) *Band {
	b := &Band{dom: d, rng: r, index: make(map[any]int, len(d.Categories))}
	for i, c := range d.Categories {
		if _, dup := b.index[c]; !dup {
			b.index[c] = i
		}
	}
	inner := clamp01(p.Inner)
	outer := math.Max(p.Outer, 0)

	lo, hi := r.Start, r.End
	if hi < lo {
		lo, hi = hi, lo
		b.reverse = true
	}
	n := float64(len(d.Categories))
	b.step = (hi - lo) / math.Max(1, n-inner+outer*2)
	b.start = lo + (hi-lo-b.step*(n-inner))*0.5
	b.bandwidth = b.step * (1 - inner)
	return b
}

func clamp01(f float64) float64 { return math.Min(math.Max(f, 0), 1) }

func (b *Band) Type() spec.ScaleType  { return spec.ScaleOrdinal }
func (b *Band) Domain() domain.Domain { return b.dom }
func (b *Band) Range() Range          { return b.rng }
func (b *Band) Bandwidth() float64    { return b.bandwidth }
func (b *Band) Step() float64         { return b.step }

// Scale returns the start of v's band.
func (b *Band) Scale(v any) (float64, bool) {
	i, ok := b.index[spec.Key(v)]
	if !ok {
		return 0, false
	}
	return b.position(i), true
}

func (b *Band) position(i int) float64 {
	if b.reverse {
		i = len(b.dom.Categories) - 1 - i
	}
	return b.start + b.step*float64(i)
}

// Invert returns the category whose step contains px. Positions before
// the first band or after the last clamp to it.
func (b *Band) Invert(px float64) (any, bool) {
	n := len(b.dom.Categories)
	if n == 0 || b.step == 0 {
		return nil, false
	}
	i := int(math.Floor((px - b.start) / b.step))
	i = min(max(i, 0), n-1)
	if b.reverse {
		i = n - 1 - i
	}
	return b.dom.Categories[i], true
}
