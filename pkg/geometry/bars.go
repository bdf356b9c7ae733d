package geometry

import (
	"math"

	"github.com/matzehuels/chartflow/pkg/scale"
	"github.com/matzehuels/chartflow/pkg/spec"
	"github.com/matzehuels/chartflow/pkg/stack"
)

// minBarWidth is used when the x scale has no bandwidth.
const minBarWidth = 1.0

// Slot places a bar series within its band: Index of Count equal columns.
type Slot struct {
	Index int
	Count int
}

// barSlots assigns one column per stack of bars, and per unstacked bar
// series, in first-appearance order. Non-bar series get a zero Slot.
func barSlots(ss []stack.StackedSeries) []Slot {
	slots := make([]Slot, len(ss))
	index := make(map[string]int)
	for i := range ss {
		s := &ss[i]
		if s.Kind != spec.KindBar {
			continue
		}
		k := "series:" + s.Key
		if s.InStack {
			k = "stack:" + s.GroupID + "|" + s.StackKey
		}
		n, ok := index[k]
		if !ok {
			n = len(index)
			index[k] = n
		}
		slots[i].Index = n
	}
	for i := range slots {
		slots[i].Count = len(index)
	}
	return slots
}

// BuildBars builds one rectangle per non-missing datum of s. The value
// axis origin of each rectangle is the top of the previous stack level,
// or the axis baseline for unstacked series.
func BuildBars(s *stack.StackedSeries, x, y scale.Scale, slot Slot, opts Options) Geometry {
	opts = opts.withDefaults()
	g := newGeometry(s)

	band := x.Bandwidth()
	if band <= 0 {
		band = minBarWidth
	}
	count := max(slot.Count, 1)
	width := band / float64(count)

	for _, d := range s.Data {
		if d.Missing {
			continue
		}
		start, ok := x.Scale(d.Category)
		if !ok {
			continue
		}
		if x.Bandwidth() <= 0 {
			start -= band / 2
		}
		v0, v1, ok := valuePixels(y, d)
		if !ok {
			continue
		}
		c0 := start + width*float64(slot.Index)
		a, b := opts.screen(c0, v0), opts.screen(c0+width, v1)
		g.Bars = append(g.Bars, Bar{
			Rect: Rect{
				Left:   math.Min(a.X, b.X),
				Right:  math.Max(a.X, b.X),
				Top:    math.Min(a.Y, b.Y),
				Bottom: math.Max(a.Y, b.Y),
			},
			Value:  d.Base,
			Filled: d.Filled,
			Ref:    refOf(s, d),
		})
	}
	return g
}
