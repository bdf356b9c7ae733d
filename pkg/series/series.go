// Package series turns a [spec.SeriesSpec] and its raw rows into resolved
// data series: one per split-series value combination and y accessor.
//
// Extraction never mutates the source rows. Rows whose x accessor does not
// resolve are dropped; rows whose y accessor does not resolve become
// missing points that a [spec.Fit] policy may fill later.
package series

import (
	"slices"
	"strings"

	"github.com/matzehuels/chartflow/pkg/errors"
	"github.com/matzehuels/chartflow/pkg/spec"
)

// Identifier names one resolved data series.
type Identifier struct {
	SpecID    string `json:"spec_id"`
	YAccessor string `json:"y_accessor"`
	SplitKeys []any  `json:"split_keys,omitempty"`
	Key       string `json:"key"`
}

// DataPoint is one resolved row of a series.
type DataPoint struct {
	X   any     `json:"x"`
	Y1  float64 `json:"y1"`
	Y0  float64 `json:"y0"`
	Row int     `json:"row"`
	Raw any     `json:"-"`

	// HasY0 is set when a y0 accessor resolved for this row.
	HasY0 bool `json:"has_y0,omitempty"`
	// Missing is set when the y value is unknown and no fit filled it.
	Missing bool `json:"missing,omitempty"`
	// Filled is set when a fit policy supplied the y value.
	Filled bool `json:"filled,omitempty"`
}

// Series is a resolved data series.
type Series struct {
	Identifier
	GroupID   string
	Kind      spec.SeriesKind
	StackKey  string
	StackMode spec.StackMode
	SortIndex *int
	Fit       spec.Fit
	Curve     spec.Curve
	Name      string
	Color     string
	Points    []DataPoint
}

// Stacked reports whether the series takes part in a stack.
func (s *Series) Stacked() bool { return s.StackKey != "" && s.StackMode != spec.StackNone }

// XValues returns the x keys of all points in point order.
func (s *Series) XValues() []any {
	out := make([]any, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.X
	}
	return out
}

// StackKey returns the key shared by series that stack together: the
// identity of their stack accessors. Unstacked series return "".
func StackKey(s *spec.SeriesSpec) string {
	if !s.IsStacked() {
		return ""
	}
	parts := make([]string, len(s.Stack))
	for i, a := range s.Stack {
		parts[i] = a.String()
	}
	return strings.Join(parts, ",")
}

// Extract resolves every row of s. Series are returned in order of first
// appearance of their split keys; within one split the y accessors keep
// declaration order.
func Extract(s spec.SeriesSpec, diags *errors.Diagnostics) []Series {
	subject := "series:" + s.ID
	multiY := len(s.Y) > 1

	var out []Series
	index := make(map[string]int)
	droppedX := 0
	unresolvedY := make([]int, len(s.Y))

	for row, datum := range s.Data {
		xv, ok := s.X.Resolve(datum)
		x := spec.Key(xv)
		if !ok || x == nil {
			droppedX++
			continue
		}

		splits := make([]any, len(s.SplitSeries))
		for i, a := range s.SplitSeries {
			v, _ := a.Resolve(datum)
			splits[i] = spec.Key(v)
		}

		for yi, ya := range s.Y {
			yAcc := ya.String()
			key := seriesKey(s.ID, splits, yAcc, multiY)
			idx, seen := index[key]
			if !seen {
				idx = len(out)
				index[key] = idx
				out = append(out, Series{
					Identifier: Identifier{
						SpecID:    s.ID,
						YAccessor: yAcc,
						SplitKeys: splits,
						Key:       key,
					},
					GroupID:   s.GroupID,
					Kind:      s.Kind,
					StackKey:  StackKey(&s),
					StackMode: s.StackMode,
					SortIndex: s.SortIndex,
					Fit:       s.Fit,
					Curve:     s.Curve,
					Name:      seriesName(s.DisplayName(), splits, yAcc, multiY),
					Color:     s.Color,
				})
			}

			p := DataPoint{X: x, Row: row, Raw: datum}
			yv, ok := ya.Resolve(datum)
			y, num := spec.ToFloat(yv)
			if !ok || !num {
				p.Missing = true
				unresolvedY[yi]++
			} else {
				p.Y1 = y
			}
			if len(s.Y0) > 0 {
				if v, ok := s.Y0[yi].Resolve(datum); ok {
					if y0, num := spec.ToFloat(v); num {
						p.Y0, p.HasY0 = y0, true
					}
				}
			}
			out[idx].Points = append(out[idx].Points, p)
		}
	}

	if droppedX > 0 {
		diags.Add(errors.ErrCodeAccessorResolution, subject,
			"x accessor %s did not resolve on %d row(s); rows dropped", s.X, droppedX)
	}
	for yi, n := range unresolvedY {
		if n > 0 {
			diags.Add(errors.ErrCodeAccessorResolution, subject,
				"y accessor %s did not resolve on %d row(s); treated as missing", s.Y[yi], n)
		}
	}
	return out
}

func seriesKey(specID string, splits []any, yAcc string, multiY bool) string {
	var b strings.Builder
	b.WriteString(specID)
	for _, v := range splits {
		b.WriteByte('/')
		b.WriteString(spec.FormatKey(v))
	}
	if multiY {
		b.WriteByte('|')
		b.WriteString(yAcc)
	}
	return b.String()
}

func seriesName(base string, splits []any, yAcc string, multiY bool) string {
	parts := make([]string, 0, len(splits)+1)
	for _, v := range splits {
		parts = append(parts, spec.FormatKey(v))
	}
	if multiY {
		parts = append(parts, yAcc)
	}
	if len(parts) == 0 {
		return base
	}
	return strings.Join(parts, " - ")
}

// SortByX orders points by numeric x; points with non-numeric x keep
// their relative order at the end.
func SortByX(points []DataPoint) {
	slices.SortStableFunc(points, func(a, b DataPoint) int {
		af, aok := spec.ToFloat(a.X)
		bf, bok := spec.ToFloat(b.X)
		switch {
		case aok && bok:
			if af < bf {
				return -1
			}
			if af > bf {
				return 1
			}
			return 0
		case aok:
			return -1
		case bok:
			return 1
		}
		return 0
	})
}
