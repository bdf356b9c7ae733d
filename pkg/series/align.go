package series

import (
	"slices"

	"github.com/matzehuels/chartflow/pkg/spec"
)

// Align reorders the points of s to follow categories. Points whose x is
// not among the categories are dropped; when several rows share an x the
// last one wins. With fill set, every category without a point receives a
// missing point so that stacked series line up category by category.
func Align(s *Series, categories []any, fill bool) {
	last := make(map[any]int, len(s.Points))
	for i, p := range s.Points {
		last[p.X] = i
	}
	out := make([]DataPoint, 0, len(categories))
	for _, c := range categories {
		if i, ok := last[c]; ok {
			out = append(out, s.Points[i])
			continue
		}
		if fill {
			out = append(out, DataPoint{X: c, Row: -1, Missing: true})
		}
	}
	s.Points = out
}

// SortedXValues returns the distinct numeric x values of all series in
// ascending order.
func SortedXValues(all []Series) []any {
	seen := make(map[float64]struct{})
	var xs []float64
	for i := range all {
		for _, p := range all[i].Points {
			f, ok := spec.ToFloat(p.X)
			if !ok {
				continue
			}
			if _, dup := seen[f]; dup {
				continue
			}
			seen[f] = struct{}{}
			xs = append(xs, f)
		}
	}
	slices.Sort(xs)
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}
