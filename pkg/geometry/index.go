package geometry

import (
	"math"
	"sort"
)

// Index answers pixel hit tests over built geometry.
type Index struct {
	bars   []Bar
	points []Point
}

// NewIndex indexes the bars and points of gs.
func NewIndex(gs []Geometry) *Index {
	ix := &Index{}
	for _, g := range gs {
		ix.bars = append(ix.bars, g.Bars...)
		ix.points = append(ix.points, g.Points...)
	}
	return ix
}

// Pick returns the refs under (x, y): bars whose rectangle contains the
// position, in draw order, then points within their radius plus
// tolerance, nearest first.
func (ix *Index) Pick(x, y, tolerance float64) []Ref {
	var refs []Ref
	for _, b := range ix.bars {
		if b.Contains(x, y) {
			refs = append(refs, b.Ref)
		}
	}

	type hit struct {
		ref  Ref
		dist float64
	}
	var hits []hit
	for _, p := range ix.points {
		d := math.Hypot(p.X-x, p.Y-y)
		if d <= p.Radius+tolerance {
			hits = append(hits, hit{p.Ref, d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })
	for _, h := range hits {
		refs = append(refs, h.ref)
	}
	return refs
}
