// Package stack combines series that share a stack key into cumulative,
// percentage or streamgraph values per category.
//
// For every category of a stack group the following hold:
//
//   - the last member's Stacked value equals the sum of all members' Base
//     values (missing values contribute zero);
//   - in percentage mode the members' Percentage values sum to 1 when the
//     category total is non-zero, and are all exactly 0 otherwise.
//
// Stack order is SortIndex first, then declaration order. Series that do
// not stack pass through as single-member groups so that every series
// leaves this package in the same shape.
package stack

import (
	"cmp"
	"slices"

	"github.com/samber/lo"

	"github.com/matzehuels/chartflow/pkg/errors"
	"github.com/matzehuels/chartflow/pkg/series"
	"github.com/matzehuels/chartflow/pkg/spec"
)

// Datum is one series value at one category after stacking.
type Datum struct {
	Category  any    `json:"category"`
	SeriesKey string `json:"series_key"`

	// Base is the series' own value; Stacked is the cumulative value up to
	// and including this series, before any baseline offset.
	Base    float64 `json:"base"`
	Stacked float64 `json:"stacked"`

	// Y0 and Y1 bound the drawn segment, baseline offset included. In
	// percentage mode they are fractions of the category total.
	Y0 float64 `json:"y0"`
	Y1 float64 `json:"y1"`

	Percentage float64 `json:"percentage"`

	// Banded is set when Y0 is a data value rather than the zero baseline.
	Banded  bool `json:"banded,omitempty"`
	Filled  bool `json:"filled,omitempty"`
	Missing bool `json:"missing,omitempty"`

	Row int `json:"row"`
	Raw any `json:"-"`
}

// StackedSeries is a series with its stacked data, one datum per point.
type StackedSeries struct {
	series.Series
	Data []Datum

	// InStack is false for series that did not take part in a stack.
	InStack bool
}

// Group is a set of series stacked together, in stack order.
type Group struct {
	GroupID  string         `json:"group_id"`
	StackKey string         `json:"stack_key"`
	Mode     spec.StackMode `json:"mode"`
	Members  []int          `json:"members"`

	Categories []any     `json:"categories"`
	Totals     []float64 `json:"totals"`
	Baseline   []float64 `json:"baseline"`
}

// Result is the output of [Stack].
type Result struct {
	// Series holds the input series in input order.
	Series []StackedSeries
	Groups []Group
}

// Groups partitions all into stack groups keyed by (GroupID, StackKey).
// Unstacked series form one group each. Members are indices into all,
// ordered by SortIndex and then by position in all.
func Groups(all []series.Series, diags *errors.Diagnostics) []Group {
	var groups []Group
	index := make(map[[2]string]int)
	for i := range all {
		s := &all[i]
		if !s.Stacked() {
			groups = append(groups, Group{GroupID: s.GroupID, Mode: spec.StackNone, Members: []int{i}})
			continue
		}
		k := [2]string{s.GroupID, s.StackKey}
		gi, ok := index[k]
		if !ok {
			gi = len(groups)
			index[k] = gi
			groups = append(groups, Group{GroupID: s.GroupID, StackKey: s.StackKey, Mode: s.StackMode})
		} else if g := &groups[gi]; s.StackMode != g.Mode && !slices.ContainsFunc(g.Members, func(m int) bool { return all[m].SpecID == s.SpecID }) {
			diags.Add(errors.ErrCodeInvalidConfig, "stack:"+s.StackKey,
				"series %q stacks as %s but its stack is %s; using %s", s.SpecID, s.StackMode, g.Mode, g.Mode)
		}
		groups[gi].Members = append(groups[gi].Members, i)
	}

	for gi := range groups {
		g := &groups[gi]
		if len(g.Members) < 2 {
			continue
		}
		slices.SortStableFunc(g.Members, func(a, b int) int {
			sa, sb := all[a].SortIndex, all[b].SortIndex
			switch {
			case sa != nil && sb != nil:
				return cmp.Compare(*sa, *sb)
			case sa != nil:
				return -1
			case sb != nil:
				return 1
			}
			return 0
		})
		reportAmbiguousOrder(all, g, diags)
	}
	return groups
}

// reportAmbiguousOrder notes members of different specs that declared the
// same sort index. Their relative order is declaration order.
func reportAmbiguousOrder(all []series.Series, g *Group, diags *errors.Diagnostics) {
	for i := 1; i < len(g.Members); i++ {
		a, b := &all[g.Members[i-1]], &all[g.Members[i]]
		if a.SortIndex == nil || b.SortIndex == nil || *a.SortIndex != *b.SortIndex || a.SpecID == b.SpecID {
			continue
		}
		diags.Add(errors.ErrCodeAmbiguousStackOrder, "stack:"+g.StackKey,
			"series %q and %q share sort index %d; using declaration order", a.SpecID, b.SpecID, *a.SortIndex)
	}
}

// Stack computes stacked data for every series in all.
func Stack(all []series.Series, diags *errors.Diagnostics) *Result {
	res := &Result{
		Series: make([]StackedSeries, len(all)),
		Groups: Groups(all, diags),
	}
	for i := range all {
		res.Series[i].Series = all[i]
	}
	for gi := range res.Groups {
		g := &res.Groups[gi]
		if g.Mode == spec.StackNone {
			passThrough(&res.Series[g.Members[0]])
			continue
		}
		stackGroup(res.Series, g)
	}
	return res
}

func passThrough(s *StackedSeries) {
	s.Data = make([]Datum, len(s.Points))
	for i, p := range s.Points {
		d := datumFor(s, p)
		d.Base, d.Stacked = p.Y1, p.Y1
		d.Y1 = p.Y1
		if p.HasY0 {
			d.Y0, d.Banded = p.Y0, true
		}
		s.Data[i] = d
	}
}

func datumFor(s *StackedSeries, p series.DataPoint) Datum {
	return Datum{
		Category:  p.X,
		SeriesKey: s.Key,
		Filled:    p.Filled,
		Missing:   p.Missing,
		Row:       p.Row,
		Raw:       p.Raw,
	}
}

func stackGroup(out []StackedSeries, g *Group) {
	// Categories in first-appearance order across members in stack order.
	for _, m := range g.Members {
		g.Categories = append(g.Categories, out[m].XValues()...)
	}
	g.Categories = lo.Uniq(g.Categories)
	catIndex := make(map[any]int, len(g.Categories))
	for i, c := range g.Categories {
		catIndex[c] = i
	}

	n, m := len(g.Members), len(g.Categories)
	// values[k][j] is member k's value at category j; at[k][j] the point index.
	values := make([][]float64, n)
	at := make([][]int, n)
	for k, mi := range g.Members {
		s := &out[mi]
		s.InStack = true
		values[k] = make([]float64, m)
		at[k] = make([]int, m)
		for j := range at[k] {
			at[k][j] = -1
		}
		for pi, p := range s.Points {
			j := catIndex[p.X]
			at[k][j] = pi
			if !p.Missing {
				values[k][j] = p.Y1
			}
		}
	}

	g.Totals = make([]float64, m)
	for j := 0; j < m; j++ {
		for k := 0; k < n; k++ {
			g.Totals[j] += values[k][j]
		}
	}
	g.Baseline = baseline(g.Mode, values, g.Totals)

	for _, mi := range g.Members {
		s := &out[mi]
		s.Data = make([]Datum, len(s.Points))
		for pi, p := range s.Points {
			s.Data[pi] = datumFor(s, p)
		}
	}

	for j := 0; j < m; j++ {
		cum := 0.0
		for k, mi := range g.Members {
			v := values[k][j]
			prev := cum
			cum += v

			pct := 0.0
			if g.Totals[j] != 0 {
				pct = v / g.Totals[j]
			}

			pi := at[k][j]
			if pi < 0 {
				continue
			}
			d := &out[mi].Data[pi]
			d.Base, d.Stacked, d.Percentage = v, cum, pct
			d.Banded = true
			if g.Mode == spec.StackPercentage {
				if g.Totals[j] != 0 {
					d.Y0, d.Y1 = prev/g.Totals[j], cum/g.Totals[j]
				}
				continue
			}
			d.Y0, d.Y1 = prev+g.Baseline[j], cum+g.Baseline[j]
		}
	}
}

func baseline(mode spec.StackMode, values [][]float64, totals []float64) []float64 {
	b := make([]float64, len(totals))
	switch mode {
	case spec.StackSilhouette:
		for j, t := range totals {
			b[j] = -t / 2
		}
	case spec.StackWiggle:
		wiggle(values, b)
	}
	return b
}

// wiggle computes the streamgraph baseline that minimizes the weighted
// change in slope of all layers between adjacent categories.
func wiggle(values [][]float64, b []float64) {
	n := len(values)
	if n == 0 || len(b) < 2 {
		return
	}
	y := 0.0
	for j := 1; j < len(b); j++ {
		s1, s2 := 0.0, 0.0
		for i := 0; i < n; i++ {
			cur, prev := values[i][j], values[i][j-1]
			s3 := (cur - prev) / 2
			for k := 0; k < i; k++ {
				s3 += values[k][j] - values[k][j-1]
			}
			s1 += cur
			s2 += s3 * cur
		}
		b[j-1] = y
		if s1 != 0 {
			y -= s2 / s1
		}
	}
	b[len(b)-1] = y
}
